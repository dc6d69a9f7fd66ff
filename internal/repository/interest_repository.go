package repository

import (
	"context"
	"fmt"

	"newsletter-curator/internal/domain/entity"
)

type InterestRepository interface {
	List(ctx context.Context) ([]*entity.Interest, error)
	// Get returns (nil, nil) if the interest does not exist.
	Get(ctx context.Context, id int64) (*entity.Interest, error)
	// FindByName matches case-insensitively and returns (nil, nil) when absent.
	FindByName(ctx context.Context, name string) (*entity.Interest, error)
	Create(ctx context.Context, interest *entity.Interest) error
}

// SubscriptionChange counts rows actually touched by an interest update.
type SubscriptionChange struct {
	Added   int
	Removed int
}

type SubscriptionRepository interface {
	ListInterests(ctx context.Context, userID int64) ([]*entity.Interest, error)
	// Apply adds and removes associations atomically. If any add id does not
	// reference an existing interest nothing is written and a *MissingInterestError is returned.
	Apply(ctx context.Context, userID int64, add, remove []int64) (SubscriptionChange, error)
	// CountByUser returns the number of subscriptions per user that has at least one.
	CountByUser(ctx context.Context) (map[int64]int, error)
}

// MissingInterestError reports the first interest id that could not be resolved.
type MissingInterestError struct {
	InterestID int64
}

func (e *MissingInterestError) Error() string {
	return fmt.Sprintf("Interest with ID %d not found.", e.InterestID)
}

func (e *MissingInterestError) Unwrap() error { return entity.ErrNotFound }

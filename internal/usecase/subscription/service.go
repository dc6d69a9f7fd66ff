// Package subscription applies atomic changes to the set of interests a user follows.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"newsletter-curator/internal/domain/entity"
	"newsletter-curator/internal/repository"
	"newsletter-curator/internal/usecase/interest"
)

// MissingInterestError is returned when an update references an unknown interest.
// It matches interest.ErrInterestNotFound with errors.Is.
type MissingInterestError struct {
	InterestID int64
}

func (e *MissingInterestError) Error() string {
	return fmt.Sprintf("Interest with ID %d not found.", e.InterestID)
}

func (e *MissingInterestError) Unwrap() error { return interest.ErrInterestNotFound }

// Update is the outcome of a successful change.
type Update struct {
	Added     int
	Removed   int
	Interests []*entity.Interest
}

type Service struct {
	Subs repository.SubscriptionRepository
}

// List returns the interests userID is subscribed to.
func (s *Service) List(ctx context.Context, userID int64) ([]*entity.Interest, error) {
	if userID <= 0 {
		return nil, &entity.ValidationError{Field: "user_id", Message: "must be positive"}
	}
	interests, err := s.Subs.ListInterests(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return interests, nil
}

// Update adds and removes subscriptions as one unit. When any referenced
// interest is missing nothing changes and a *MissingInterestError is returned.
func (s *Service) Update(ctx context.Context, userID int64, add, remove []int64) (Update, error) {
	if userID <= 0 {
		return Update{}, &entity.ValidationError{Field: "user_id", Message: "must be positive"}
	}
	for _, id := range append(append([]int64{}, add...), remove...) {
		if id <= 0 {
			return Update{}, &MissingInterestError{InterestID: id}
		}
	}
	add, remove = lo.Uniq(add), lo.Uniq(remove)

	change, err := s.Subs.Apply(ctx, userID, add, remove)
	if err != nil {
		var missing *repository.MissingInterestError
		if errors.As(err, &missing) {
			return Update{}, &MissingInterestError{InterestID: missing.InterestID}
		}
		return Update{}, fmt.Errorf("apply subscription update: %w", err)
	}

	interests, err := s.Subs.ListInterests(ctx, userID)
	if err != nil {
		return Update{}, fmt.Errorf("reload subscriptions: %w", err)
	}

	slog.Info("subscriptions updated",
		slog.Int64("user_id", userID),
		slog.Int("added", change.Added),
		slog.Int("removed", change.Removed))

	return Update{Added: change.Added, Removed: change.Removed, Interests: interests}, nil
}

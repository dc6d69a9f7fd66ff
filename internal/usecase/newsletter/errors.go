package newsletter

import (
	"errors"
	"fmt"

	"newsletter-curator/internal/domain/entity"
)

var (
	// ErrNoPersonalizedContent is returned for users without any subscribed interest.
	ErrNoPersonalizedContent = errors.New("no personalized content available")

	// ErrNoNewArticles is returned when nothing qualified and empty newsletters
	// are not persisted.
	ErrNoNewArticles = errors.New("no new articles for the user's interests")

	// ErrNewsletterNotFound indicates an unknown newsletter or one owned by another user.
	ErrNewsletterNotFound = errors.New("newsletter not found")
)

// UserNotFoundError reports an unknown user id.
type UserNotFoundError struct {
	UserID int64
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("User with ID %d not found.", e.UserID)
}

func (e *UserNotFoundError) Unwrap() error { return entity.ErrNotFound }

package repository

import (
	"context"

	"newsletter-curator/internal/domain/entity"
)

type NewsletterRepository interface {
	// Create inserts the newsletter and links the articles whose URLs still resolve,
	// all in one transaction. It sets ID, GenerationDate and ArticleIDs on success.
	Create(ctx context.Context, newsletter *entity.Newsletter, articleURLs []string) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]*entity.Newsletter, error)
	// Get returns (nil, nil) if the newsletter does not exist.
	Get(ctx context.Context, id int64) (*entity.Newsletter, error)
}

// UserRepository reads accounts owned by the external auth system.
type UserRepository interface {
	Get(ctx context.Context, id int64) (*entity.User, error)
	ListActive(ctx context.Context) ([]*entity.User, error)
}

package article

import (
	"context"
	"fmt"

	"newsletter-curator/internal/domain/entity"
	"newsletter-curator/internal/repository"
)

// Listing limits.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Service provides article queries.
type Service struct {
	Repo repository.ArticleRepository
}

// List returns articles newest first, optionally restricted to one interest.
// A non-positive limit selects DefaultLimit; larger values are capped at MaxLimit.
func (s *Service) List(ctx context.Context, interestID int64, limit int) ([]*entity.Article, error) {
	if interestID < 0 {
		return nil, &entity.ValidationError{Field: "interest_id", Message: "must be positive"}
	}
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	articles, err := s.Repo.List(ctx, repository.ArticleFilter{InterestID: interestID, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return articles, nil
}

// Get retrieves a single article by its ID.
// Returns ErrInvalidArticleID if the ID is not positive.
// Returns ErrArticleNotFound if the article does not exist.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Article, error) {
	if id <= 0 {
		return nil, ErrInvalidArticleID
	}

	article, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	if article == nil {
		return nil, ErrArticleNotFound
	}
	return article, nil
}

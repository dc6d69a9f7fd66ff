package repository

import (
	"context"
	"time"

	"newsletter-curator/internal/domain/entity"
)

// ArticleFilter narrows article listings. Zero values mean "no filter".
type ArticleFilter struct {
	InterestID int64
	Since      time.Time
	Limit      int
}

type ArticleRepository interface {
	// Get returns (nil, nil) if the article does not exist.
	Get(ctx context.Context, id int64) (*entity.Article, error)
	List(ctx context.Context, filter ArticleFilter) ([]*entity.Article, error)
	ExistsByURL(ctx context.Context, url string) (bool, error)
	ExistsByURLBatch(ctx context.Context, urls []string) (map[string]bool, error)
	// CreateWithTopics inserts the article and its topic links in one transaction and sets article.ID.
	// A concurrent insert of the same URL yields entity.ErrDuplicate.
	CreateWithTopics(ctx context.Context, article *entity.Article) error
	// UpdateSummary writes the summary only while the stored one is still empty.
	// It reports false when another delivery got there first.
	UpdateSummary(ctx context.Context, id int64, summary string) (bool, error)
	// RecentForInterests returns distinct summarized articles tagged with any of interestIDs,
	// published at or after since, newest first.
	RecentForInterests(ctx context.Context, interestIDs []int64, since time.Time, limit int) ([]*entity.Article, error)
}

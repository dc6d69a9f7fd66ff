// Package newsletter composes personalized newsletters from recently summarized
// articles and records them with the articles they were built from.
package newsletter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"newsletter-curator/internal/domain/entity"
	"newsletter-curator/internal/domain/result"
	"newsletter-curator/internal/infra/llm"
	"newsletter-curator/internal/observability/logging"
	"newsletter-curator/internal/observability/metrics"
	"newsletter-curator/internal/pkg/config"
	"newsletter-curator/internal/repository"
)

const (
	DefaultLookback    = 7 * 24 * time.Hour
	DefaultMaxArticles = 10
)

// Config tunes article selection and the empty-newsletter policy.
type Config struct {
	Lookback     time.Duration
	MaxArticles  int
	PersistEmpty bool
}

// LoadConfig reads NEWSLETTER_LOOKBACK, NEWSLETTER_MAX_ARTICLES and NEWSLETTER_PERSIST_EMPTY.
func LoadConfig(l *config.Loader) Config {
	return Config{
		Lookback:     l.Duration("NEWSLETTER_LOOKBACK", DefaultLookback, config.DurationRange(time.Hour, 90*24*time.Hour)),
		MaxArticles:  l.Int("NEWSLETTER_MAX_ARTICLES", DefaultMaxArticles, config.IntRange(1, 50)),
		PersistEmpty: l.Bool("NEWSLETTER_PERSIST_EMPTY", true),
	}
}

// DefaultConfig matches the values LoadConfig falls back to.
func DefaultConfig() Config {
	return Config{Lookback: DefaultLookback, MaxArticles: DefaultMaxArticles, PersistEmpty: true}
}

// Announcer is told about every persisted newsletter. It must not block.
type Announcer interface {
	NotifyNewsletter(ctx context.Context, user *entity.User, newsletter *entity.Newsletter)
}

// Composer generates and stores newsletters.
type Composer struct {
	Users       repository.UserRepository
	Subs        repository.SubscriptionRepository
	Articles    repository.ArticleRepository
	Newsletters repository.NewsletterRepository
	LLM         llm.Client
	Announcer   Announcer // optional
	Config      Config
	Now         func() time.Time
}

// Generate builds, persists and announces the newsletter for userID.
// Nothing is written when an error is returned.
func (c *Composer) Generate(ctx context.Context, userID int64) (*entity.Newsletter, error) {
	logger := logging.FromContext(ctx).With(slog.Int64("user_id", userID))

	user, err := c.Users.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, &UserNotFoundError{UserID: userID}
	}

	interests, err := c.Subs.ListInterests(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load interests: %w", err)
	}
	if len(interests) == 0 {
		metrics.RecordNewsletter("no_interests")
		return nil, ErrNoPersonalizedContent
	}
	names := lo.Map(interests, func(in *entity.Interest, _ int) string { return in.Name })
	ids := lo.Map(interests, func(in *entity.Interest, _ int) int64 { return in.ID })

	cfg := c.config()
	since := c.now().Add(-cfg.Lookback)
	articles, err := c.Articles.RecentForInterests(ctx, ids, since, cfg.MaxArticles)
	if err != nil {
		return nil, fmt.Errorf("load recent articles: %w", err)
	}

	var content string
	if len(articles) == 0 {
		if !cfg.PersistEmpty {
			metrics.RecordNewsletter("skipped_empty")
			logger.Info("no qualifying articles, newsletter skipped")
			return nil, ErrNoNewArticles
		}
		content = EmptyMessage(user.Username, names)
	} else {
		content, err = c.LLM.Complete(ctx, BuildPrompt(user.Username, names, articles))
		if err != nil {
			metrics.RecordNewsletter("failed")
			return nil, fmt.Errorf("generate newsletter: %w", err)
		}
		content = strings.TrimSpace(content)
		if content == "" {
			metrics.RecordNewsletter("failed")
			return nil, fmt.Errorf("generate newsletter: %w", llm.ErrEmptyResponse)
		}
	}

	n := &entity.Newsletter{UserID: userID, Content: content}
	urls := lo.Map(articles, func(a *entity.Article, _ int) string { return a.URL })
	if err := c.Newsletters.Create(ctx, n, urls); err != nil {
		metrics.RecordNewsletter("failed")
		return nil, fmt.Errorf("store newsletter: %w", err)
	}

	status := "generated"
	if len(articles) == 0 {
		status = "empty"
	}
	metrics.RecordNewsletter(status)
	logger.Info("newsletter generated",
		slog.Int64("newsletter_id", n.ID),
		slog.Int("articles_selected", len(articles)),
		slog.Int("articles_linked", len(n.ArticleIDs)))

	if c.Announcer != nil {
		c.Announcer.NotifyNewsletter(ctx, user, n)
	}
	return n, nil
}

// HandleJob runs Generate for a generate_newsletter job and classifies the
// failure for the queue.
func (c *Composer) HandleJob(ctx context.Context, job *entity.Job) error {
	_, err := c.Generate(ctx, job.SubjectID)
	switch {
	case err == nil, errors.Is(err, ErrNoNewArticles):
		return nil
	case errors.Is(err, entity.ErrNotFound):
		return result.Wrap[struct{}](result.KindNotFound, "newsletter user", err).Err()
	case errors.Is(err, ErrNoPersonalizedContent):
		return result.Wrap[struct{}](result.KindData, "newsletter user", err).Err()
	case errors.Is(err, llm.ErrNotConfigured):
		return result.Wrap[struct{}](result.KindConfig, "newsletter generation", err).Err()
	default:
		return result.Wrap[struct{}](result.KindTransient, "newsletter generation", err).Err()
	}
}

// List returns the user's newsletters, newest first.
func (c *Composer) List(ctx context.Context, userID int64, limit int) ([]*entity.Newsletter, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	list, err := c.Newsletters.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list newsletters: %w", err)
	}
	return list, nil
}

// Get returns ErrNewsletterNotFound unless the newsletter exists and belongs to userID.
func (c *Composer) Get(ctx context.Context, userID, id int64) (*entity.Newsletter, error) {
	n, err := c.Newsletters.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get newsletter: %w", err)
	}
	if n == nil || n.UserID != userID {
		return nil, ErrNewsletterNotFound
	}
	return n, nil
}

func (c *Composer) config() Config {
	cfg := c.Config
	if cfg.Lookback <= 0 {
		cfg.Lookback = DefaultLookback
	}
	if cfg.MaxArticles <= 0 {
		cfg.MaxArticles = DefaultMaxArticles
	}
	return cfg
}

func (c *Composer) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

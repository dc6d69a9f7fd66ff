// Package ingest turns raw news records into stored articles, tags them with
// matching interests and dispatches their summarization.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"newsletter-curator/internal/domain/entity"
	"newsletter-curator/internal/domain/result"
	"newsletter-curator/internal/observability/metrics"
	"newsletter-curator/internal/repository"
	"newsletter-curator/internal/usecase/fetch"
	"newsletter-curator/internal/usecase/interest"
)

// JobDispatcher schedules asynchronous summarization of a stored article.
// Implementations must not block on the job's completion.
type JobDispatcher interface {
	DispatchSummarize(ctx context.Context, articleID int64) error
}

// Stats breaks down one batch.
type Stats struct {
	Received   int
	Saved      int
	Duplicates int
	Invalid    int
	Failed     int
	// Undispatched counts saved articles whose summarization job could not be queued.
	Undispatched int
}

// Service stores raw articles.
type Service struct {
	Articles   repository.ArticleRepository
	Interests  repository.InterestRepository
	Dispatcher JobDispatcher
}

// Ingest persists every new, valid record and returns how many were saved.
// idx may be nil, in which case it is built from the full registry. A failing
// record is logged and skipped; the batch is never aborted by one record.
func (s *Service) Ingest(ctx context.Context, raws []fetch.RawArticle, idx *interest.Index) result.Result[int] {
	res, _ := s.IngestWithStats(ctx, raws, idx)
	return res
}

// IngestWithStats is Ingest with the per-outcome breakdown.
func (s *Service) IngestWithStats(ctx context.Context, raws []fetch.RawArticle, idx *interest.Index) (result.Result[int], Stats) {
	logger := slog.Default()
	stats := Stats{Received: len(raws)}

	if idx == nil {
		interests, err := s.Interests.List(ctx)
		if err != nil {
			return result.Wrap[int](result.KindTransient, "load interests", err), stats
		}
		idx = interest.BuildIndex(interests)
	}

	existing := s.existingURLs(ctx, raws)
	seen := make(map[string]struct{}, len(raws))

	for i := range raws {
		raw := &raws[i]
		outcome := s.ingestOne(ctx, raw, idx, existing, seen)
		metrics.RecordIngestion(string(outcome))
		switch outcome {
		case outcomeSaved:
			stats.Saved++
		case outcomeSavedUndispatched:
			stats.Saved++
			stats.Undispatched++
		case outcomeDuplicate:
			stats.Duplicates++
		case outcomeInvalid:
			stats.Invalid++
		default:
			stats.Failed++
		}
	}

	logger.Info("ingestion completed",
		slog.Int("received", stats.Received),
		slog.Int("saved", stats.Saved),
		slog.Int("duplicates", stats.Duplicates),
		slog.Int("invalid", stats.Invalid),
		slog.Int("failed", stats.Failed),
		slog.Int("undispatched", stats.Undispatched))
	return result.Ok(stats.Saved), stats
}

type outcome string

const (
	outcomeSaved     outcome = "saved"
	outcomeDuplicate outcome = "duplicate"
	outcomeInvalid   outcome = "invalid"
	outcomeFailed    outcome = "error"
	// The article is stored but no summarization job exists for it.
	outcomeSavedUndispatched outcome = "saved_undispatched"
)

func (s *Service) ingestOne(
	ctx context.Context,
	raw *fetch.RawArticle,
	idx *interest.Index,
	existing map[string]bool,
	seen map[string]struct{},
) (out outcome) {
	logger := slog.Default().With(slog.String("url", raw.URL))
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while ingesting article", slog.Any("panic", r))
			out = outcomeFailed
		}
	}()

	url := strings.TrimSpace(raw.URL)
	if url == "" {
		logger.Debug("skipping article without url")
		return outcomeInvalid
	}
	if _, dup := seen[url]; dup {
		return outcomeDuplicate
	}
	seen[url] = struct{}{}

	if existing == nil {
		found, err := s.Articles.ExistsByURL(ctx, url)
		if err != nil {
			logger.Error("url lookup failed", slog.Any("error", err))
			return outcomeFailed
		}
		if found {
			return outcomeDuplicate
		}
	} else if existing[url] {
		return outcomeDuplicate
	}

	article, err := buildArticle(raw, url)
	if err != nil {
		logger.Error("skipping invalid article", slog.Any("error", err))
		return outcomeInvalid
	}
	article.Topics = idx.Match(article.Title + " " + article.Summary + " " + article.FullText)

	if err := s.Articles.CreateWithTopics(ctx, article); err != nil {
		if errors.Is(err, entity.ErrDuplicate) {
			return outcomeDuplicate
		}
		logger.Error("failed to store article", slog.Any("error", err))
		return outcomeFailed
	}

	if err := s.Dispatcher.DispatchSummarize(ctx, article.ID); err != nil {
		logger.Error("failed to dispatch summarization",
			slog.Int64("article_id", article.ID),
			slog.Any("error", err))
		return outcomeSavedUndispatched
	}
	return outcomeSaved
}

// existingURLs batch-checks the URLs already stored. It returns nil when the
// batch lookup fails so callers fall back to per-record checks.
func (s *Service) existingURLs(ctx context.Context, raws []fetch.RawArticle) map[string]bool {
	urls := make([]string, 0, len(raws))
	for _, r := range raws {
		if u := strings.TrimSpace(r.URL); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return map[string]bool{}
	}
	existing, err := s.Articles.ExistsByURLBatch(ctx, urls)
	if err != nil {
		slog.Warn("batch url check failed, checking per article", slog.Any("error", err))
		return nil
	}
	return existing
}

// buildArticle validates and normalizes one record.
func buildArticle(raw *fetch.RawArticle, url string) (*entity.Article, error) {
	if err := entity.ValidateArticleURL(url); err != nil {
		return nil, err
	}

	published, err := parsePublished(raw.PublishedAt)
	if err != nil {
		return nil, err
	}

	title := plainText(raw.Title)
	if title == "" {
		title = entity.DefaultTitle
	}
	source := strings.TrimSpace(raw.SourceName)
	if source == "" {
		source = entity.DefaultSource
	}

	return &entity.Article{
		Title:         truncateRunes(title, entity.MaxTitleLength),
		URL:           url,
		Source:        truncateRunes(source, entity.MaxSourceLength),
		PublishedDate: published,
		Summary:       plainText(raw.Description),
		FullText:      plainText(raw.Content),
	}, nil
}

func parsePublished(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &entity.ValidationError{Field: "publishedAt", Message: "is required"}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, &entity.ValidationError{
			Field:   "publishedAt",
			Message: fmt.Sprintf("invalid timestamp %q", s),
		}
	}
	return t.UTC(), nil
}

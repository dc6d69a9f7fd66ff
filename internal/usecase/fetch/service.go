package fetch

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"newsletter-curator/internal/domain/result"
	"newsletter-curator/internal/observability/metrics"
)

const (
	// DefaultWindow is the lookback used when none is given.
	DefaultWindow = 7 * 24 * time.Hour
	// MaxPageSize is the news source's per-request cap.
	MaxPageSize = 100

	defaultConcurrency = 4
)

// Service runs keyword searches concurrently and merges them deterministically.
type Service struct {
	Source        NewsSource
	MaxConcurrent int
	PageSize      int
	// Now is overridable for tests.
	Now func() time.Time
}

func NewService(source NewsSource, maxConcurrent int) *Service {
	return &Service{
		Source:        source,
		MaxConcurrent: maxConcurrent,
		PageSize:      MaxPageSize,
		Now:           time.Now,
	}
}

// Fetch searches every keyword over [now-window, now] and returns the merged
// records with unique URLs. Results are concatenated in keyword order, first
// occurrence of a URL wins. A failing keyword is logged and skipped; only a
// missing API key produces an Err result, carrying an empty list.
func (s *Service) Fetch(ctx context.Context, keywords []string, window time.Duration) result.Result[[]RawArticle] {
	logger := slog.Default()

	if !s.Source.Configured() {
		logger.Warn("news source API key not set, skipping fetch")
		return result.Wrap[[]RawArticle](result.KindConfig, "news source API key not configured", ErrSourceNotConfigured).
			WithValue([]RawArticle{})
	}

	keywords = normalizeKeywords(keywords)
	if len(keywords) == 0 {
		return result.Ok([]RawArticle{})
	}
	if window <= 0 {
		window = DefaultWindow
	}

	now := s.now().UTC()
	from := now.Add(-window)
	pageSize := s.PageSize
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	perKeyword := make([][]RawArticle, len(keywords))
	var eg errgroup.Group
	eg.SetLimit(s.concurrency())
	for i, kw := range keywords {
		eg.Go(func() error {
			articles, err := s.Source.Search(ctx, Query{Keyword: kw, From: from, To: now, PageSize: pageSize})
			if err != nil {
				metrics.RecordFetchKeywordError()
				logger.Warn("keyword search failed",
					slog.String("keyword", kw),
					slog.Any("error", err))
				return nil
			}
			perKeyword[i] = articles
			return nil
		})
	}
	_ = eg.Wait()

	merged := mergeUnique(perKeyword)
	metrics.RecordFetchedArticles(len(merged))
	logger.Info("fetch completed",
		slog.Int("keywords", len(keywords)),
		slog.Int("articles", len(merged)),
		slog.Duration("window", window))
	return result.Ok(merged)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) concurrency() int {
	if s.MaxConcurrent > 0 {
		return s.MaxConcurrent
	}
	return defaultConcurrency
}

// normalizeKeywords trims, drops blanks and removes case-insensitive duplicates.
func normalizeKeywords(keywords []string) []string {
	trimmed := lo.FilterMap(keywords, func(k string, _ int) (string, bool) {
		k = strings.TrimSpace(k)
		return k, k != ""
	})
	return lo.UniqBy(trimmed, strings.ToLower)
}

// mergeUnique flattens batches in order, dropping repeated URLs and records
// with no URL at all.
func mergeUnique(batches [][]RawArticle) []RawArticle {
	seen := make(map[string]struct{})
	out := make([]RawArticle, 0)
	for _, batch := range batches {
		for _, a := range batch {
			if a.URL == "" {
				metrics.RecordFetchMissingURL()
				continue
			}
			if _, dup := seen[a.URL]; dup {
				continue
			}
			seen[a.URL] = struct{}{}
			out = append(out, a)
		}
	}
	return out
}

// Package orchestrate holds the two periodic triggers of the pipeline: the
// fetch cycle that ingests new articles and the newsletter cycle that fans
// out one generation job per subscribed user.
package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"newsletter-curator/internal/domain/result"
	"newsletter-curator/internal/observability/tracing"
	"newsletter-curator/internal/repository"
	"newsletter-curator/internal/usecase/fetch"
	"newsletter-curator/internal/usecase/interest"
)

// DefaultFetchWindow is the lookback used by the periodic fetch.
const DefaultFetchWindow = 24 * time.Hour

// KeywordIndexer supplies the interest index the fetch cycle searches for.
type KeywordIndexer interface {
	Index(ctx context.Context) (*interest.Index, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, keywords []string, window time.Duration) result.Result[[]fetch.RawArticle]
}

type Ingester interface {
	Ingest(ctx context.Context, raws []fetch.RawArticle, idx *interest.Index) result.Result[int]
}

// NewsletterDispatcher enqueues a generation job without waiting for it.
type NewsletterDispatcher interface {
	DispatchNewsletter(ctx context.Context, userID int64) error
}

// CycleStats summarizes one newsletter cycle.
type CycleStats struct {
	Users              int
	Enqueued           int
	SkippedNoInterests int
	Failed             int
}

type Orchestrator struct {
	Interests   KeywordIndexer
	Fetcher     Fetcher
	Ingester    Ingester
	Users       repository.UserRepository
	Subs        repository.SubscriptionRepository
	Newsletters NewsletterDispatcher

	FetchWindow   time.Duration
	MaxConcurrent int
}

// RunFetchCycle searches every interest name over the fetch window and ingests
// the results. It returns the number of newly stored articles. A missing news
// source key is not an error: the cycle logs and stores nothing.
func (o *Orchestrator) RunFetchCycle(ctx context.Context) (saved int, err error) {
	ctx, span := tracing.GetTracer().Start(ctx, "cycle fetch")
	defer func() { tracing.EndWithError(span, err) }()

	idx, err := o.Interests.Index(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch cycle: %w", err)
	}
	if idx.Len() == 0 {
		slog.Info("fetch cycle skipped: no interests registered")
		return 0, nil
	}

	window := o.FetchWindow
	if window <= 0 {
		window = DefaultFetchWindow
	}
	fetched := o.Fetcher.Fetch(ctx, idx.Keywords, window)
	if !fetched.IsOk() {
		if fetched.Kind() == result.KindConfig {
			slog.Warn("fetch cycle skipped", slog.Any("error", fetched.Err()))
			return 0, nil
		}
		return 0, fmt.Errorf("fetch cycle: %w", fetched.Err())
	}
	raws := fetched.Value()
	span.SetAttributes(attribute.Int("articles.fetched", len(raws)))
	if len(raws) == 0 {
		slog.Info("fetch cycle: nothing fetched", slog.Int("keywords", len(idx.Keywords)))
		return 0, nil
	}

	saved, err = o.Ingester.Ingest(ctx, raws, idx).Unwrap()
	if err != nil {
		return 0, fmt.Errorf("fetch cycle: %w", err)
	}
	span.SetAttributes(attribute.Int("articles.saved", saved))
	slog.Info("fetch cycle completed",
		slog.Int("keywords", len(idx.Keywords)),
		slog.Int("fetched", len(raws)),
		slog.Int("saved", saved))
	return saved, nil
}

// RunNewsletterCycle enqueues one newsletter job for every active user with at
// least one interest. A failed enqueue is counted and logged; the other users
// are still served.
func (o *Orchestrator) RunNewsletterCycle(ctx context.Context) (stats CycleStats, err error) {
	ctx, span := tracing.GetTracer().Start(ctx, "cycle newsletter")
	defer func() { tracing.EndWithError(span, err) }()

	users, err := o.Users.ListActive(ctx)
	if err != nil {
		return CycleStats{}, fmt.Errorf("newsletter cycle: list users: %w", err)
	}
	counts, err := o.Subs.CountByUser(ctx)
	if err != nil {
		return CycleStats{}, fmt.Errorf("newsletter cycle: count subscriptions: %w", err)
	}

	stats = CycleStats{Users: len(users)}
	var enqueued, failed atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(o.concurrency())
	for _, u := range users {
		if counts[u.ID] == 0 {
			stats.SkippedNoInterests++
			continue
		}
		g.Go(func() error {
			if err := o.Newsletters.DispatchNewsletter(ctx, u.ID); err != nil {
				failed.Add(1)
				slog.Error("newsletter dispatch failed",
					slog.Int64("user_id", u.ID),
					slog.Any("error", err))
				return nil
			}
			enqueued.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	stats.Enqueued = int(enqueued.Load())
	stats.Failed = int(failed.Load())
	span.SetAttributes(
		attribute.Int("users", stats.Users),
		attribute.Int("enqueued", stats.Enqueued),
		attribute.Int("skipped", stats.SkippedNoInterests),
		attribute.Int("failed", stats.Failed))
	slog.Info("newsletter cycle completed",
		slog.Int("users", stats.Users),
		slog.Int("enqueued", stats.Enqueued),
		slog.Int("skipped_no_interests", stats.SkippedNoInterests),
		slog.Int("failed", stats.Failed))

	if stats.Failed > 0 && stats.Enqueued == 0 {
		return stats, errors.New("newsletter cycle: every dispatch failed")
	}
	return stats, nil
}

func (o *Orchestrator) concurrency() int {
	if o.MaxConcurrent > 0 {
		return o.MaxConcurrent
	}
	return 8
}

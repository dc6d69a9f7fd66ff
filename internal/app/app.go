// Package app assembles the curator's object graph from a database handle and
// environment configuration. The binaries under cmd/ differ only in which
// parts they run.
package app

import (
	"database/sql"
	"log/slog"
	"time"

	"newsletter-curator/internal/domain/entity"
	pgRepo "newsletter-curator/internal/infra/adapter/persistence/postgres"
	"newsletter-curator/internal/infra/fetcher"
	"newsletter-curator/internal/infra/llm"
	"newsletter-curator/internal/infra/newsapi"
	"newsletter-curator/internal/infra/notifier"
	"newsletter-curator/internal/pkg/config"
	"newsletter-curator/internal/repository"
	artUC "newsletter-curator/internal/usecase/article"
	fetchUC "newsletter-curator/internal/usecase/fetch"
	"newsletter-curator/internal/usecase/ingest"
	"newsletter-curator/internal/usecase/interest"
	"newsletter-curator/internal/usecase/newsletter"
	"newsletter-curator/internal/usecase/notify"
	"newsletter-curator/internal/usecase/orchestrate"
	"newsletter-curator/internal/usecase/queue"
	"newsletter-curator/internal/usecase/subscription"
	"newsletter-curator/internal/usecase/summarize"
)

// Config gathers every component setting read from the environment.
type Config struct {
	LLM        llm.Config
	NewsAPI    newsapi.Config
	Content    fetcher.ContentFetchConfig
	Newsletter newsletter.Config
	Queue      queue.Config

	FetchWindow        time.Duration
	FetchMaxConcurrent int

	Slack               notifier.WebhookConfig
	Discord             notifier.WebhookConfig
	NotifyMaxConcurrent int

	TraceSampleRatio float64
}

// LoadConfig reads all component settings through l. Call l.Finish afterwards
// to report fallbacks.
func LoadConfig(l *config.Loader) Config {
	return Config{
		LLM:                 llm.LoadConfig(l),
		NewsAPI:             newsapi.LoadConfig(l),
		Content:             fetcher.LoadConfig(l),
		Newsletter:          newsletter.LoadConfig(l),
		Queue:               queue.LoadConfig(l),
		FetchWindow:         l.Duration("FETCH_WINDOW", orchestrate.DefaultFetchWindow, config.DurationRange(time.Hour, 30*24*time.Hour)),
		FetchMaxConcurrent:  l.Int("FETCH_MAX_CONCURRENT", 4, config.IntRange(1, 32)),
		Slack:               notifier.LoadSlackConfig(l),
		Discord:             notifier.LoadDiscordConfig(l),
		NotifyMaxConcurrent: l.Int("NOTIFY_MAX_CONCURRENT", 10, config.IntRange(1, 50)),
		TraceSampleRatio:    l.Float("TRACE_SAMPLE_RATIO", 0.1, config.ValidatePositiveFloat),
	}
}

// App holds the wired services.
type App struct {
	DB *sql.DB

	Users         repository.UserRepository
	Jobs          repository.JobRepository
	Interests     *interest.Service
	Subscriptions *subscription.Service
	Articles      *artUC.Service
	Summarizer    *summarize.Service
	Composer      *newsletter.Composer
	Dispatcher    *queue.Dispatcher
	Orchestrator  *orchestrate.Orchestrator
	Notify        notify.Service

	// Handlers maps each job kind to the use case that executes it.
	Handlers map[entity.JobKind]queue.Handler

	queueCfg queue.Config
}

// New wires every component. It performs no I/O.
func New(db *sql.DB, cfg Config) *App {
	articleRepo := pgRepo.NewArticleRepo(db)
	interestRepo := pgRepo.NewInterestRepo(db)
	subRepo := pgRepo.NewSubscriptionRepo(db)
	userRepo := pgRepo.NewUserRepo(db)
	jobRepo := pgRepo.NewJobRepo(db)

	model := llm.New(cfg.LLM)
	dispatcher := queue.NewDispatcher(jobRepo)
	interests := &interest.Service{Repo: interestRepo}

	summarizer := &summarize.Service{Articles: articleRepo, LLM: model}
	if cfg.Content.Enabled {
		summarizer.Content = fetcher.NewReadabilityFetcher(cfg.Content)
		summarizer.EnrichBelow = cfg.Content.Threshold
	}

	notifySvc := notify.NewService([]notify.Channel{
		notify.NewSlackChannel(cfg.Slack),
		notify.NewDiscordChannel(cfg.Discord),
	}, cfg.NotifyMaxConcurrent)

	composer := &newsletter.Composer{
		Users:       userRepo,
		Subs:        subRepo,
		Articles:    articleRepo,
		Newsletters: pgRepo.NewNewsletterRepo(db),
		LLM:         model,
		Announcer:   notifySvc,
		Config:      cfg.Newsletter,
	}

	orch := &orchestrate.Orchestrator{
		Interests:     interests,
		Fetcher:       fetchUC.NewService(newsapi.New(cfg.NewsAPI), cfg.FetchMaxConcurrent),
		Ingester:      &ingest.Service{Articles: articleRepo, Interests: interestRepo, Dispatcher: dispatcher},
		Users:         userRepo,
		Subs:          subRepo,
		Newsletters:   dispatcher,
		FetchWindow:   cfg.FetchWindow,
		MaxConcurrent: cfg.FetchMaxConcurrent,
	}

	slog.Info("application wired",
		slog.String("llm_provider", model.Provider()),
		slog.Bool("content_fetch", cfg.Content.Enabled),
		slog.Bool("slack", cfg.Slack.Enabled),
		slog.Bool("discord", cfg.Discord.Enabled))

	return &App{
		DB:            db,
		Users:         userRepo,
		Jobs:          jobRepo,
		Interests:     interests,
		Subscriptions: &subscription.Service{Subs: subRepo},
		Articles:      &artUC.Service{Repo: articleRepo},
		Summarizer:    summarizer,
		Composer:      composer,
		Dispatcher:    dispatcher,
		Orchestrator:  orch,
		Notify:        notifySvc,
		Handlers: map[entity.JobKind]queue.Handler{
			entity.JobKindSummarizeArticle:   summarizer,
			entity.JobKindGenerateNewsletter: composer,
		},
		queueCfg: cfg.Queue,
	}
}

// Pool returns a worker pool running the app's job handlers.
func (a *App) Pool() *queue.Pool {
	return queue.NewPool(a.Jobs, a.queueCfg, a.Handlers)
}

package http

import (
	"log/slog"
	"net/http"

	"newsletter-curator/internal/handler/http/article"
	"newsletter-curator/internal/handler/http/auth"
	"newsletter-curator/internal/handler/http/interest"
	"newsletter-curator/internal/handler/http/newsletter"
	"newsletter-curator/internal/handler/http/requestid"
	"newsletter-curator/internal/observability/tracing"
)

// DefaultMaxBodyBytes caps request bodies; subscription updates are tiny.
const DefaultMaxBodyBytes = 1 << 20

// Deps are the services behind the REST routes.
type Deps struct {
	DB            Pinger
	Interests     interest.Registry
	Subscriptions interest.Subscriptions
	Articles      article.Reader
	Newsletters   newsletter.Reader

	JWTSecret    []byte
	Version      string
	Logger       *slog.Logger
	MaxBodyBytes int64
}

// NewRouter builds the route table wrapped in the standard middleware chain:
// panic recovery, request ID, tracing, access log, metrics and body limit.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxBody := d.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	authz := auth.Authz(d.JWTSecret)

	mux := http.NewServeMux()
	mux.Handle("GET /health", &HealthHandler{DB: d.DB, Version: d.Version})
	mux.Handle("GET /health/live", LiveHandler{})
	mux.Handle("GET /metrics", MetricsHandler())

	interest.Register(mux, d.Interests, d.Subscriptions, authz)
	article.Register(mux, d.Articles, authz)
	newsletter.Register(mux, d.Newsletters, authz)

	return Chain(mux,
		Recover(logger),
		requestid.Middleware,
		tracing.Middleware,
		Logging(logger),
		MetricsMiddleware,
		LimitRequestBody(maxBody),
	)
}

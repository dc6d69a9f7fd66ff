package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"newsletter-curator/internal/app"
	hhttp "newsletter-curator/internal/handler/http"
	"newsletter-curator/internal/handler/http/respond"
	"newsletter-curator/internal/infra/db"
	"newsletter-curator/internal/observability/logging"
	"newsletter-curator/internal/observability/tracing"
	"newsletter-curator/internal/pkg/config"
)

var (
	errSecretMissing = errors.New("JWT_SECRET must be set")
	errSecretShort   = errors.New("JWT_SECRET must be at least 32 characters (256 bits)")
	errSecretWeak    = errors.New("JWT_SECRET must not be a common weak value")
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	secret, err := jwtSecret(os.Getenv("JWT_SECRET"))
	if err != nil {
		logger.Error("invalid auth configuration", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx)
	if err != nil {
		logger.Error("failed to open database", slog.String("error", respond.SanitizeError(err)))
		os.Exit(1)
	}
	defer func() { _ = database.Close() }()
	if err := db.MigrateUp(ctx); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}

	loader := config.NewLoader(config.NewConfigMetrics("api"))
	appCfg := app.LoadConfig(loader)
	port := loader.Int("API_PORT", 8080, config.IntRange(1, 65535))
	loader.Finish(logger)

	shutdownTracing := tracing.InitProvider(appCfg.TraceSampleRatio)
	a := app.New(database, appCfg)

	version := config.LoadEnvString("VERSION", "dev")
	handler := hhttp.NewRouter(hhttp.Deps{
		DB:            database,
		Interests:     a.Interests,
		Subscriptions: a.Subscriptions,
		Articles:      a.Articles,
		Newsletters:   a.Composer,
		JWTSecret:     secret,
		Version:       version,
		Logger:        logger,
	})

	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("server starting", slog.String("addr", addr), slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracer shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}

// jwtSecret enforces a minimum length and rejects well-known placeholders.
func jwtSecret(raw string) ([]byte, error) {
	if raw == "" {
		return nil, errSecretMissing
	}
	if len(raw) < 32 {
		return nil, errSecretShort
	}
	lower := strings.ToLower(raw)
	for _, weak := range []string{"secret", "password", "changeme", "default"} {
		if strings.Trim(lower, "0123456789") == weak || strings.Repeat(weak, len(lower)/len(weak)) == lower {
			return nil, errSecretWeak
		}
	}
	return []byte(raw), nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"newsletter-curator/internal/usecase/notify"
)

// ChannelHealthResponse is the body of GET /health/channels.
type ChannelHealthResponse struct {
	Healthy  bool            `json:"healthy"`
	Channels []ChannelStatus `json:"channels"`
}

type ChannelStatus struct {
	Name               string     `json:"name"`
	Enabled            bool       `json:"enabled"`
	CircuitBreakerOpen bool       `json:"circuit_breaker_open"`
	DisabledUntil      *time.Time `json:"disabled_until,omitempty"`
}

// startMetricsServer serves /metrics and the notification channel health on
// port until ctx is cancelled.
func startMetricsServer(ctx context.Context, logger *slog.Logger, port int, notifyService notify.Service) *http.Server {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      metricsMux(notifyService),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", err))
			return
		}
		logger.Info("metrics server stopped")
	}()

	return server
}

func metricsMux(notifyService notify.Service) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	mux.HandleFunc("GET /health/channels", channelHealthHandler(notifyService))
	return mux
}

// channelHealthHandler answers 503 when any enabled channel has its circuit open.
func channelHealthHandler(notifyService notify.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		statuses := notifyService.GetChannelHealth()
		resp := ChannelHealthResponse{Healthy: true, Channels: make([]ChannelStatus, 0, len(statuses))}
		for _, s := range statuses {
			resp.Channels = append(resp.Channels, ChannelStatus{
				Name:               s.Name,
				Enabled:            s.Enabled,
				CircuitBreakerOpen: s.CircuitBreakerOpen,
				DisabledUntil:      s.DisabledUntil,
			})
			if s.Enabled && s.CircuitBreakerOpen {
				resp.Healthy = false
			}
		}

		status := http.StatusOK
		if !resp.Healthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// HealthServer serves the worker's probes:
//   - /health: liveness, always 200
//   - /health/ready: 200 once SetReady(true) was called and the optional
//     readiness check (for example a database ping) passes, 503 otherwise
type HealthServer struct {
	addr    string
	logger  *slog.Logger
	isReady atomic.Bool
	check   func(ctx context.Context) error
	server  *http.Server
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// NewHealthServer starts not ready. check may be nil.
func NewHealthServer(addr string, logger *slog.Logger, check func(ctx context.Context) error) *HealthServer {
	return &HealthServer{addr: addr, logger: logger, check: check}
}

// Handler exposes the probe routes for embedding or testing.
func (h *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.handleLiveness)
	mux.HandleFunc("GET /health/ready", h.handleReadiness)
	return mux
}

// Start blocks until ctx is cancelled, then shuts down within 5 seconds.
// It returns http.ErrServerClosed after a graceful shutdown.
func (h *HealthServer) Start(ctx context.Context) error {
	h.server = &http.Server{
		Addr:         h.addr,
		Handler:      h.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		h.logger.Info("health server starting", slog.String("addr", h.addr))
		if err := h.server.ListenAndServe(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			h.logger.Error("health server shutdown failed", slog.Any("error", err))
			return err
		}
		h.logger.Info("health server stopped")
		return http.ErrServerClosed
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("health server failed", slog.Any("error", err))
		}
		return err
	}
}

func (h *HealthServer) SetReady(ready bool) {
	h.isReady.Store(ready)
	h.logger.Info("health server readiness changed", slog.Bool("ready", ready))
}

func (h *HealthServer) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	h.write(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (h *HealthServer) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if !h.isReady.Load() {
		h.write(w, http.StatusServiceUnavailable, healthResponse{Status: "not ready"})
		return
	}
	if h.check != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.check(ctx); err != nil {
			h.write(w, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy", Error: err.Error()})
			return
		}
	}
	h.write(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (h *HealthServer) write(w http.ResponseWriter, status int, body healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode health response", slog.Any("error", err))
	}
}

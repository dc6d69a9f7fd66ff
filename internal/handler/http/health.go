// Package http wires the REST surface of the curator API: the route table,
// the middleware chain, health checks and request metrics.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string                 `json:"status"`    // "healthy" or "unhealthy"
	Timestamp string                 `json:"timestamp"` // RFC 3339
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version,omitempty"`
}

// CheckStatus represents the status of a single health check.
type CheckStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthHandler reports database connectivity. It returns 200 when every
// check passes and 503 otherwise.
type HealthHandler struct {
	DB      Pinger
	Version string
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]CheckStatus{"database": h.checkDatabase(ctx)}

	status, code := "healthy", http.StatusOK
	for _, c := range checks {
		if c.Status != "healthy" {
			status, code = "unhealthy", http.StatusServiceUnavailable
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	}); err != nil {
		slog.Error("health: failed to encode response", slog.Any("error", err))
	}
}

func (h *HealthHandler) checkDatabase(ctx context.Context) CheckStatus {
	if h.DB == nil {
		return CheckStatus{Status: "unhealthy", Message: "not configured"}
	}
	start := time.Now()
	if err := h.DB.PingContext(ctx); err != nil {
		slog.Warn("health: database ping failed", slog.Any("error", err))
		return CheckStatus{Status: "unhealthy", Message: "database unreachable"}
	}
	return CheckStatus{Status: "healthy", Message: "ping " + time.Since(start).Round(time.Millisecond).String()}
}

// LiveHandler always answers 200 while the process can serve requests.
type LiveHandler struct{}

func (LiveHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("alive"))
}

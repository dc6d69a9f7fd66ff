package http

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/trace"

	"newsletter-curator/internal/handler/http/requestid"
	"newsletter-curator/internal/handler/http/respond"
	"newsletter-curator/internal/observability/logging"
)

// Logging logs one structured line per request with its status, size and
// duration, tagged with the request and trace IDs.
//
// It must not replace the request: the tracing middleware reads the ServeMux
// pattern back from the same *http.Request after routing.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newRecorder(w)

			traceID := trace.SpanFromContext(r.Context()).SpanContext().TraceID().String()
			reqLogger := logging.WithRequestID(r.Context(), logger).With(slog.String("trace_id", traceID))

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			reqLogger.Info("request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("query", r.URL.RawQuery),
				slog.String("remote_addr", r.RemoteAddr),
				slog.Int("status", wrapped.status),
				slog.Int("bytes", wrapped.bytes),
				slog.Duration("duration", duration),
			)
		})
	}
}

// Recover turns a handler panic into a 500 response and an error log with the stack.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					respond.SafeError(w, http.StatusInternalServerError, errors.New("internal error"))
					logger.Error("panic recovered",
						slog.String("request_id", requestid.FromContext(r.Context())),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.Any("panic", rec),
						slog.String("stack", string(debug.Stack())),
					)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// LimitRequestBody caps request bodies at maxBytes.
func LimitRequestBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// Chain applies middlewares so that the first one listed is the outermost.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

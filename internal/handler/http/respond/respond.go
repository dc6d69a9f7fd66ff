// Package respond provides utilities for sending HTTP responses in JSON format.
// It includes error handling with sanitization to prevent leaking sensitive information.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// safeFragments mark messages that are written for end users, such as
// validation failures or "Interest with ID 3 not found.".
var safeFragments = []string{
	"required",
	"invalid",
	"not found",
	"already exists",
	"must be",
	"cannot be",
	"too long",
	"too short",
	"unauthorized",
}

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			// Headers are already sent.
			slog.Default().Error("failed to encode JSON response",
				slog.Int("status_code", code),
				slog.Any("error", err))
		}
	}
}

// Error writes a JSON error response with the given status code and error message.
func Error(w http.ResponseWriter, code int, err error) {
	JSON(w, code, map[string]string{"error": err.Error()})
}

// SafeError sanitizes error messages before returning them to users.
// Internal errors (e.g., database errors) are returned as "internal server error",
// with details logged for debugging. Safe errors (validation errors) are returned as-is.
// Every 5xx is treated as internal.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}

	msg := err.Error()
	if code < 500 && isSafe(msg) {
		JSON(w, code, map[string]string{"error": msg})
		return
	}

	slog.Default().Error("internal server error",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.String("error", SanitizeError(err)))
	JSON(w, code, map[string]string{"error": "internal server error"})
}

func isSafe(msg string) bool {
	lower := strings.ToLower(msg)
	for _, frag := range safeFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

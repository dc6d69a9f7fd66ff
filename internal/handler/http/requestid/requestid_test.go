package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	assert.Equal(t, "abc", FromContext(WithRequestID(context.Background(), "abc")))
	assert.Equal(t, "", FromContext(context.Background()))
	assert.Equal(t, "", FromContext(context.WithValue(context.Background(), RequestIDKey, 12345)))
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"reuses well-formed id", "req-2025.03_01", true},
		{"generates when absent", "", false},
		{"rejects log injection", "abc\nlevel=ERROR", false},
		{"rejects spaces", "two words", false},
		{"rejects oversized", strings.Repeat("a", maxLength+1), false},
		{"accepts max length", strings.Repeat("a", maxLength), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = FromContext(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			require.NotEmpty(t, seen)
			assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
			if tt.keep {
				assert.Equal(t, tt.incoming, seen)
			} else {
				_, err := uuid.Parse(seen)
				assert.NoError(t, err, "expected a generated UUID, got %q", seen)
			}
		})
	}
}

func TestNew_Unique(t *testing.T) {
	assert.NotEqual(t, New(), New())
}

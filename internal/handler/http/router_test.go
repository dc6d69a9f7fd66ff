package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-curator/internal/domain/entity"
	"newsletter-curator/internal/handler/http/auth"
	"newsletter-curator/internal/handler/http/requestid"
	subUC "newsletter-curator/internal/usecase/subscription"
)

/* ───────── stubs ───────── */

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

type stubInterests struct{}

func (stubInterests) List(context.Context) ([]*entity.Interest, error) {
	return []*entity.Interest{{ID: 1, Name: "Golang"}}, nil
}

func (stubInterests) Get(_ context.Context, id int64) (*entity.Interest, error) {
	return &entity.Interest{ID: id, Name: "Golang"}, nil
}

type stubSubs struct{}

func (stubSubs) List(context.Context, int64) ([]*entity.Interest, error) { return nil, nil }

func (stubSubs) Update(_ context.Context, _ int64, add, _ []int64) (subUC.Update, error) {
	for _, id := range add {
		if id == 3 {
			return subUC.Update{}, &subUC.MissingInterestError{InterestID: 3}
		}
	}
	return subUC.Update{Added: len(add)}, nil
}

type stubArticles struct{}

func (stubArticles) List(context.Context, int64, int) ([]*entity.Article, error) { return nil, nil }

func (stubArticles) Get(_ context.Context, id int64) (*entity.Article, error) {
	if id == 13 {
		panic("unlucky")
	}
	return &entity.Article{ID: id}, nil
}

type stubNewsletters struct{}

func (stubNewsletters) List(context.Context, int64, int) ([]*entity.Newsletter, error) {
	return nil, nil
}

func (stubNewsletters) Get(_ context.Context, userID, id int64) (*entity.Newsletter, error) {
	return &entity.Newsletter{ID: id, UserID: userID}, nil
}

var secret = []byte("router-secret")

func newTestRouter(t *testing.T, logs io.Writer, db Pinger) http.Handler {
	t.Helper()
	return NewRouter(Deps{
		DB:            db,
		Interests:     stubInterests{},
		Subscriptions: stubSubs{},
		Articles:      stubArticles{},
		Newsletters:   stubNewsletters{},
		JWTSecret:     secret,
		Version:       "test",
		Logger:        slog.New(slog.NewJSONHandler(logs, nil)),
		MaxBodyBytes:  64,
	})
}

func bearer(t *testing.T, userID int64) string {
	t.Helper()
	tok, err := auth.SignToken(secret, userID, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func call(h http.Handler, method, path, authz, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

/* ───────── routes ───────── */

func TestRouter_PublicAndProtectedRoutes(t *testing.T) {
	h := newTestRouter(t, io.Discard, stubPinger{})
	tok := bearer(t, 42)

	tests := []struct {
		method, path, authz, body string
		want                      int
	}{
		{http.MethodGet, "/health", "", "", http.StatusOK},
		{http.MethodGet, "/health/live", "", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", "", http.StatusOK},
		{http.MethodGet, "/interests", "", "", http.StatusOK},
		{http.MethodGet, "/interests/1", "", "", http.StatusOK},
		{http.MethodGet, "/me/interests", "", "", http.StatusUnauthorized},
		{http.MethodGet, "/me/interests", tok, "", http.StatusOK},
		{http.MethodPost, "/me/interests", tok, `{"add_interests":[1]}`, http.StatusOK},
		{http.MethodPost, "/me/interests", tok, `{"add_interests":[3]}`, http.StatusBadRequest},
		{http.MethodGet, "/articles", "", "", http.StatusUnauthorized},
		{http.MethodGet, "/articles?limit=3", tok, "", http.StatusOK},
		{http.MethodGet, "/articles/5", tok, "", http.StatusOK},
		{http.MethodGet, "/me/newsletters", tok, "", http.StatusOK},
		{http.MethodGet, "/me/newsletters/9", tok, "", http.StatusOK},
		{http.MethodDelete, "/interests/1", "", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/sources", "", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := call(h, tt.method, tt.path, tt.authz, tt.body)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}
}

func TestRouter_MissingInterestMessage(t *testing.T) {
	h := newTestRouter(t, io.Discard, stubPinger{})
	rr := call(h, http.MethodPost, "/me/interests", bearer(t, 42), `{"add_interests":[3]}`)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "Interest with ID 3 not found.", body["error"])
}

/* ───────── middleware chain ───────── */

func TestRouter_RequestIDAndAccessLog(t *testing.T) {
	var logs bytes.Buffer
	h := newTestRouter(t, &logs, stubPinger{})

	req := httptest.NewRequest(http.MethodGet, "/interests", nil)
	req.Header.Set(requestid.RequestIDHeader, "trace-me-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "trace-me-1", rr.Header().Get(requestid.RequestIDHeader))
	assert.NotEmpty(t, rr.Header().Get("X-Trace-Id"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, "request completed", entry["msg"])
	assert.Equal(t, "trace-me-1", entry["request_id"])
	assert.Equal(t, float64(http.StatusOK), entry["status"])
}

func TestRouter_RecoversPanics(t *testing.T) {
	var logs bytes.Buffer
	h := newTestRouter(t, &logs, stubPinger{})

	rr := call(h, http.MethodGet, "/articles/13", bearer(t, 1), "")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "internal server error")
	assert.Contains(t, logs.String(), "panic recovered")
}

func TestRouter_BodyLimit(t *testing.T) {
	h := newTestRouter(t, io.Discard, stubPinger{})
	big := `{"add_interests":[` + strings.Repeat("1,", 64) + `1]}`
	rr := call(h, http.MethodPost, "/me/interests", bearer(t, 1), big)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouter_MetricsUseRoutePattern(t *testing.T) {
	h := newTestRouter(t, io.Discard, stubPinger{})
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/interests/{id}", "200"))

	call(h, http.MethodGet, "/interests/1", "", "")
	call(h, http.MethodGet, "/interests/2", "", "")

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/interests/{id}", "200"))
	assert.Equal(t, before+2, after)
}

/* ───────── health ───────── */

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		db     Pinger
		code   int
		status string
	}{
		{"healthy", stubPinger{}, http.StatusOK, "healthy"},
		{"db down", stubPinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable, "unhealthy"},
		{"no db", nil, http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			(&HealthHandler{DB: tt.db, Version: "v1"}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.code, rr.Code)
			var resp HealthResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, "v1", resp.Version)
			assert.NotContains(t, resp.Checks["database"].Message, "refused")
		})
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") }),
		mw("outer"), mw("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

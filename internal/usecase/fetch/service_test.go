package fetch_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"newsletter-curator/internal/domain/result"
	"newsletter-curator/internal/observability/metrics"
	fetchUC "newsletter-curator/internal/usecase/fetch"
)

/* ───────── stubs ───────── */

type stubSource struct {
	mu         sync.Mutex
	responses  map[string][]fetchUC.RawArticle
	errs       map[string]error
	queries    []fetchUC.Query
	configured bool
}

func (s *stubSource) Search(_ context.Context, q fetchUC.Query) ([]fetchUC.RawArticle, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.mu.Unlock()
	if err := s.errs[q.Keyword]; err != nil {
		return nil, err
	}
	return s.responses[q.Keyword], nil
}

func (s *stubSource) Configured() bool { return s.configured }

func raw(url string) fetchUC.RawArticle {
	return fetchUC.RawArticle{URL: url, Title: "t " + url, PublishedAt: "2025-01-01T00:00:00Z"}
}

func urls(articles []fetchUC.RawArticle) []string {
	out := make([]string, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.URL)
	}
	return out
}

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newService(src *stubSource) *fetchUC.Service {
	svc := fetchUC.NewService(src, 3)
	svc.Now = func() time.Time { return fixedNow }
	return svc
}

/* ───────── tests ───────── */

func TestFetch_SharedURLAppearsOnce(t *testing.T) {
	src := &stubSource{
		configured: true,
		responses: map[string][]fetchUC.RawArticle{
			"AI":      {raw("https://a"), raw(""), raw("https://shared")},
			"Climate": {raw("https://shared"), raw(""), raw("https://c")},
			"Space":   {raw(""), raw("https://s")},
		},
	}

	missingBefore := testutil.ToFloat64(metrics.FetchMissingURLTotal)
	res := newService(src).Fetch(context.Background(), []string{"AI", "Climate", "Space"}, 24*time.Hour)

	if !res.IsOk() {
		t.Fatalf("unexpected error: %v", res.Err())
	}
	want := []string{"https://a", "https://shared", "https://c", "https://s"}
	if got := testutil.ToFloat64(metrics.FetchMissingURLTotal); got != missingBefore+3 {
		t.Errorf("missing url count = %v, want %v", got, missingBefore+3)
	}
	if diff := cmp.Diff(want, urls(res.Value())); diff != "" {
		t.Errorf("merged urls mismatch (-want +got):\n%s", diff)
	}
}

func TestFetch_DeterministicAcrossRuns(t *testing.T) {
	src := &stubSource{
		configured: true,
		responses: map[string][]fetchUC.RawArticle{
			"a": {raw("1"), raw("2")},
			"b": {raw("2"), raw("3")},
			"c": {raw("3"), raw("4")},
			"d": {raw("1"), raw("5")},
		},
	}
	svc := newService(src)
	first := urls(svc.Fetch(context.Background(), []string{"a", "b", "c", "d"}, time.Hour).Value())
	for i := 0; i < 20; i++ {
		got := urls(svc.Fetch(context.Background(), []string{"a", "b", "c", "d"}, time.Hour).Value())
		if diff := cmp.Diff(first, got); diff != "" {
			t.Fatalf("run %d differs (-first +got):\n%s", i, diff)
		}
	}
}

func TestFetch_PartialFailureSkipsKeyword(t *testing.T) {
	src := &stubSource{
		configured: true,
		responses: map[string][]fetchUC.RawArticle{
			"ok":  {raw("https://ok")},
			"bad": {raw("https://never")},
		},
		errs: map[string]error{"bad": errors.New("connection reset")},
	}

	res := newService(src).Fetch(context.Background(), []string{"bad", "ok"}, time.Hour)

	if !res.IsOk() {
		t.Fatalf("partial failure must stay Ok, got %v", res.Err())
	}
	if diff := cmp.Diff([]string{"https://ok"}, urls(res.Value())); diff != "" {
		t.Errorf("urls mismatch (-want +got):\n%s", diff)
	}
}

func TestFetch_AllFailIsOkEmpty(t *testing.T) {
	src := &stubSource{
		configured: true,
		errs:       map[string]error{"x": errors.New("boom"), "y": fetchUC.ErrSourceStatus},
	}

	res := newService(src).Fetch(context.Background(), []string{"x", "y"}, time.Hour)

	if !res.IsOk() || len(res.Value()) != 0 {
		t.Fatalf("want Ok(empty), got %v / %d", res.Err(), len(res.Value()))
	}
}

func TestFetch_NotConfigured(t *testing.T) {
	src := &stubSource{configured: false}

	res := newService(src).Fetch(context.Background(), []string{"AI"}, time.Hour)

	if res.IsOk() {
		t.Fatal("expected Err result")
	}
	if res.Kind() != result.KindConfig {
		t.Errorf("kind = %q, want config", res.Kind())
	}
	if !errors.Is(res.Err(), fetchUC.ErrSourceNotConfigured) {
		t.Errorf("err = %v", res.Err())
	}
	if res.Value() == nil || len(res.Value()) != 0 {
		t.Errorf("want empty non-nil list, got %#v", res.Value())
	}
	if len(src.queries) != 0 {
		t.Errorf("no search expected, got %d", len(src.queries))
	}
}

func TestFetch_KeywordNormalization(t *testing.T) {
	src := &stubSource{configured: true}

	res := newService(src).Fetch(context.Background(), []string{" AI ", "", "ai", "Space Tech", "   "}, time.Hour)
	if !res.IsOk() {
		t.Fatal(res.Err())
	}

	got := make([]string, 0, len(src.queries))
	for _, q := range src.queries {
		got = append(got, q.Keyword)
	}
	sort.Strings(got)
	if diff := cmp.Diff([]string{"AI", "Space Tech"}, got); diff != "" {
		t.Errorf("keywords mismatch (-want +got):\n%s", diff)
	}
}

func TestFetch_NoKeywords(t *testing.T) {
	src := &stubSource{configured: true}
	res := newService(src).Fetch(context.Background(), nil, time.Hour)
	if !res.IsOk() || len(res.Value()) != 0 {
		t.Fatalf("want Ok(empty)")
	}
}

func TestFetch_QueryWindowAndPageSize(t *testing.T) {
	src := &stubSource{configured: true}
	svc := newService(src)
	svc.PageSize = 500

	svc.Fetch(context.Background(), []string{"AI"}, 24*time.Hour)

	if len(src.queries) != 1 {
		t.Fatalf("want 1 query, got %d", len(src.queries))
	}
	q := src.queries[0]
	if !q.To.Equal(fixedNow) || !q.From.Equal(fixedNow.Add(-24*time.Hour)) {
		t.Errorf("window = [%v, %v]", q.From, q.To)
	}
	if q.PageSize != fetchUC.MaxPageSize {
		t.Errorf("page size = %d, want capped at %d", q.PageSize, fetchUC.MaxPageSize)
	}

	src.queries = nil
	svc.Fetch(context.Background(), []string{"AI"}, 0)
	if got := src.queries[0].To.Sub(src.queries[0].From); got != fetchUC.DefaultWindow {
		t.Errorf("default window = %v", got)
	}
}

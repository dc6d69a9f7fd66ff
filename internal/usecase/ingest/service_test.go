package ingest_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"newsletter-curator/internal/domain/entity"
	"newsletter-curator/internal/observability/metrics"
	"newsletter-curator/internal/repository"
	"newsletter-curator/internal/usecase/fetch"
	"newsletter-curator/internal/usecase/ingest"
	"newsletter-curator/internal/usecase/interest"
)

/* ───────── stubs ───────── */

type memArticles struct {
	mu       sync.Mutex
	byURL    map[string]*entity.Article
	nextID   int64
	batchErr error
	createFn func(*entity.Article) error
}

func newMemArticles() *memArticles {
	return &memArticles{byURL: map[string]*entity.Article{}, nextID: 1}
}

func (m *memArticles) Get(context.Context, int64) (*entity.Article, error) { return nil, nil }
func (m *memArticles) List(context.Context, repository.ArticleFilter) ([]*entity.Article, error) {
	return nil, nil
}
func (m *memArticles) ExistsByURL(_ context.Context, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byURL[url]
	return ok, nil
}
func (m *memArticles) ExistsByURLBatch(_ context.Context, urls []string) (map[string]bool, error) {
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]bool{}
	for _, u := range urls {
		if _, ok := m.byURL[u]; ok {
			out[u] = true
		}
	}
	return out, nil
}
func (m *memArticles) CreateWithTopics(_ context.Context, a *entity.Article) error {
	if m.createFn != nil {
		if err := m.createFn(a); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byURL[a.URL]; ok {
		return entity.ErrDuplicate
	}
	a.ID = m.nextID
	m.nextID++
	m.byURL[a.URL] = a
	return nil
}
func (m *memArticles) UpdateSummary(context.Context, int64, string) (bool, error) { return false, nil }
func (m *memArticles) RecentForInterests(context.Context, []int64, time.Time, int) ([]*entity.Article, error) {
	return nil, nil
}

type stubInterests struct {
	list []*entity.Interest
	err  error
}

func (s *stubInterests) List(context.Context) ([]*entity.Interest, error) { return s.list, s.err }
func (s *stubInterests) Get(context.Context, int64) (*entity.Interest, error) {
	return nil, nil
}
func (s *stubInterests) FindByName(context.Context, string) (*entity.Interest, error) {
	return nil, nil
}
func (s *stubInterests) Create(context.Context, *entity.Interest) error { return nil }

type recordingDispatcher struct {
	ids []int64
	err error
}

func (d *recordingDispatcher) DispatchSummarize(_ context.Context, id int64) error {
	d.ids = append(d.ids, id)
	return d.err
}

func rawArticle(url string) fetch.RawArticle {
	return fetch.RawArticle{
		URL:         url,
		Title:       "Headline " + url,
		Description: "A description.",
		Content:     "Some content.",
		PublishedAt: "2025-03-09T10:00:00Z",
		SourceName:  "Wire",
	}
}

func newService(arts *memArticles, disp *recordingDispatcher, interests ...*entity.Interest) *ingest.Service {
	return &ingest.Service{
		Articles:   arts,
		Interests:  &stubInterests{list: interests},
		Dispatcher: disp,
	}
}

/* ───────── tests ───────── */

func TestIngest_SameURLTwiceStoresOnce(t *testing.T) {
	arts := newMemArticles()
	disp := &recordingDispatcher{}
	svc := newService(arts, disp)

	first := svc.Ingest(context.Background(), []fetch.RawArticle{rawArticle("https://n/1")}, nil)
	second := svc.Ingest(context.Background(), []fetch.RawArticle{rawArticle("https://n/1")}, nil)

	if first.Value() != 1 || second.Value() != 0 {
		t.Fatalf("new counts = %d, %d; want 1, 0", first.Value(), second.Value())
	}
	if len(arts.byURL) != 1 {
		t.Errorf("stored %d rows, want 1", len(arts.byURL))
	}
	if diff := cmp.Diff([]int64{1}, disp.ids); diff != "" {
		t.Errorf("dispatched (-want +got):\n%s", diff)
	}
}

func TestIngest_DuplicateWithinBatch(t *testing.T) {
	arts := newMemArticles()
	svc := newService(arts, &recordingDispatcher{})

	res, stats := svc.IngestWithStats(context.Background(),
		[]fetch.RawArticle{rawArticle("https://n/1"), rawArticle("https://n/1")}, nil)

	if res.Value() != 1 || stats.Duplicates != 1 {
		t.Errorf("saved=%d duplicates=%d", res.Value(), stats.Duplicates)
	}
}

func TestIngest_ConcurrentInsertCountsAsDuplicate(t *testing.T) {
	arts := newMemArticles()
	arts.createFn = func(*entity.Article) error { return entity.ErrDuplicate }
	svc := newService(arts, &recordingDispatcher{})

	res, stats := svc.IngestWithStats(context.Background(), []fetch.RawArticle{rawArticle("https://n/1")}, nil)

	if res.Value() != 0 || stats.Duplicates != 1 {
		t.Errorf("saved=%d duplicates=%d", res.Value(), stats.Duplicates)
	}
}

func TestIngest_TopicMatchingCaseInsensitive(t *testing.T) {
	arts := newMemArticles()
	ai := &entity.Interest{ID: 7, Name: "Artificial Intelligence"}
	space := &entity.Interest{ID: 8, Name: "Space"}
	svc := newService(arts, &recordingDispatcher{}, ai, space)

	raw := rawArticle("https://n/ai")
	raw.Title = "Regulators weigh in"
	raw.Description = ""
	raw.Content = "New rules for ARTIFICIAL INTELLIGENCE labs were proposed."

	svc.Ingest(context.Background(), []fetch.RawArticle{raw}, nil)

	stored := arts.byURL["https://n/ai"]
	if stored == nil {
		t.Fatal("article not stored")
	}
	if diff := cmp.Diff([]int64{7}, stored.TopicIDs()); diff != "" {
		t.Errorf("topics (-want +got):\n%s", diff)
	}
}

func TestIngest_UsesSuppliedIndex(t *testing.T) {
	arts := newMemArticles()
	svc := &ingest.Service{
		Articles:   arts,
		Interests:  &stubInterests{err: errors.New("must not be called")},
		Dispatcher: &recordingDispatcher{},
	}
	idx := interest.BuildIndex([]*entity.Interest{{ID: 3, Name: "headline"}})

	res := svc.Ingest(context.Background(), []fetch.RawArticle{rawArticle("https://n/1")}, idx)

	if !res.IsOk() || res.Value() != 1 {
		t.Fatalf("res = %v / %d", res.Err(), res.Value())
	}
	if diff := cmp.Diff([]int64{3}, arts.byURL["https://n/1"].TopicIDs()); diff != "" {
		t.Errorf("topics (-want +got):\n%s", diff)
	}
}

func TestIngest_SkipsInvalidRecords(t *testing.T) {
	arts := newMemArticles()
	svc := newService(arts, &recordingDispatcher{})

	noURL := rawArticle("")
	badTime := rawArticle("https://n/bad-time")
	badTime.PublishedAt = "yesterday"
	noTime := rawArticle("https://n/no-time")
	noTime.PublishedAt = ""
	longURL := rawArticle("https://n/" + strings.Repeat("x", 600))
	good := rawArticle("https://n/good")

	res, stats := svc.IngestWithStats(context.Background(),
		[]fetch.RawArticle{noURL, badTime, noTime, longURL, good}, nil)

	if res.Value() != 1 || stats.Invalid != 4 {
		t.Errorf("saved=%d invalid=%d", res.Value(), stats.Invalid)
	}
	if _, ok := arts.byURL["https://n/good"]; !ok {
		t.Error("valid record after invalid ones was not stored")
	}
}

func TestIngest_Normalization(t *testing.T) {
	arts := newMemArticles()
	svc := newService(arts, &recordingDispatcher{})

	raw := fetch.RawArticle{
		URL:         "https://n/html",
		Title:       "",
		Description: "<p>Breaking: <b>markets</b>   rally</p>",
		Content:     "<ul><li>one</li><li>two</li></ul> [+1200 chars]",
		PublishedAt: "2025-03-09T10:00:00+02:00",
		SourceName:  strings.Repeat("s", 150),
	}
	svc.Ingest(context.Background(), []fetch.RawArticle{raw}, nil)

	got := arts.byURL["https://n/html"]
	if got == nil {
		t.Fatal("not stored")
	}
	if got.Title != entity.DefaultTitle {
		t.Errorf("title = %q", got.Title)
	}
	if got.Summary != "Breaking: markets rally" {
		t.Errorf("summary = %q", got.Summary)
	}
	if got.FullText != "onetwo [+1200 chars]" {
		t.Errorf("full text = %q", got.FullText)
	}
	if len(got.Source) != entity.MaxSourceLength {
		t.Errorf("source length = %d", len(got.Source))
	}
	if want := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC); !got.PublishedDate.Equal(want) {
		t.Errorf("published = %v, want %v", got.PublishedDate, want)
	}

	blank := rawArticle("https://n/blank-source")
	blank.SourceName = " "
	svc.Ingest(context.Background(), []fetch.RawArticle{blank}, nil)
	if s := arts.byURL["https://n/blank-source"].Source; s != entity.DefaultSource {
		t.Errorf("source = %q", s)
	}
}

func TestIngest_DispatchFailureKeepsArticle(t *testing.T) {
	arts := newMemArticles()
	disp := &recordingDispatcher{err: errors.New("queue down")}
	svc := newService(arts, disp)

	before := testutil.ToFloat64(metrics.IngestedArticlesTotal.WithLabelValues("saved_undispatched"))

	res, stats := svc.IngestWithStats(context.Background(), []fetch.RawArticle{rawArticle("https://n/1"), rawArticle("https://n/2")}, nil)

	if res.Value() != 2 || len(arts.byURL) != 2 || len(disp.ids) != 2 {
		t.Errorf("saved=%d stored=%d dispatched=%d", res.Value(), len(arts.byURL), len(disp.ids))
	}
	if stats.Undispatched != 2 {
		t.Errorf("undispatched = %d, want 2", stats.Undispatched)
	}
	if got := testutil.ToFloat64(metrics.IngestedArticlesTotal.WithLabelValues("saved_undispatched")); got != before+2 {
		t.Errorf("saved_undispatched metric = %v, want %v", got, before+2)
	}
}

func TestIngest_BatchCheckFailureFallsBack(t *testing.T) {
	arts := newMemArticles()
	svc := newService(arts, &recordingDispatcher{})
	svc.Ingest(context.Background(), []fetch.RawArticle{rawArticle("https://n/1")}, nil)

	arts.batchErr = errors.New("timeout")
	res, stats := svc.IngestWithStats(context.Background(),
		[]fetch.RawArticle{rawArticle("https://n/1"), rawArticle("https://n/2")}, nil)

	if res.Value() != 1 || stats.Duplicates != 1 {
		t.Errorf("saved=%d duplicates=%d", res.Value(), stats.Duplicates)
	}
}

func TestIngest_StoreErrorIsolated(t *testing.T) {
	arts := newMemArticles()
	arts.createFn = func(a *entity.Article) error {
		if a.URL == "https://n/boom" {
			return errors.New("disk full")
		}
		return nil
	}
	svc := newService(arts, &recordingDispatcher{})

	res, stats := svc.IngestWithStats(context.Background(),
		[]fetch.RawArticle{rawArticle("https://n/boom"), rawArticle("https://n/ok")}, nil)

	if res.Value() != 1 || stats.Failed != 1 {
		t.Errorf("saved=%d failed=%d", res.Value(), stats.Failed)
	}
}

func TestIngest_InterestLoadFailure(t *testing.T) {
	svc := &ingest.Service{
		Articles:   newMemArticles(),
		Interests:  &stubInterests{err: errors.New("db down")},
		Dispatcher: &recordingDispatcher{},
	}
	res := svc.Ingest(context.Background(), []fetch.RawArticle{rawArticle("https://n/1")}, nil)
	if res.IsOk() {
		t.Fatal("expected error result")
	}
}

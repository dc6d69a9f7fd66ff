package newsletter_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"newsletter-curator/internal/domain/entity"
	"newsletter-curator/internal/domain/result"
	"newsletter-curator/internal/infra/llm"
	"newsletter-curator/internal/repository"
	"newsletter-curator/internal/usecase/newsletter"
)

/* ───────── stubs ───────── */

type stubUsers struct{ users map[int64]*entity.User }

func (s *stubUsers) Get(_ context.Context, id int64) (*entity.User, error) { return s.users[id], nil }
func (s *stubUsers) ListActive(context.Context) ([]*entity.User, error)    { return nil, nil }

type stubSubs struct{ byUser map[int64][]*entity.Interest }

func (s *stubSubs) ListInterests(_ context.Context, userID int64) ([]*entity.Interest, error) {
	return s.byUser[userID], nil
}
func (s *stubSubs) Apply(context.Context, int64, []int64, []int64) (repository.SubscriptionChange, error) {
	return repository.SubscriptionChange{}, nil
}
func (s *stubSubs) CountByUser(context.Context) (map[int64]int, error) { return nil, nil }

type stubArticles struct {
	repository.ArticleRepository
	recent   []*entity.Article
	gotIDs   []int64
	gotSince time.Time
	gotLimit int
}

func (s *stubArticles) RecentForInterests(_ context.Context, ids []int64, since time.Time, limit int) ([]*entity.Article, error) {
	s.gotIDs, s.gotSince, s.gotLimit = ids, since, limit
	return s.recent, nil
}

// memNewsletters links only URLs present in resolvable, like the transactional adapter.
type memNewsletters struct {
	resolvable map[string]int64
	stored     []*entity.Newsletter
	createErr  error
}

func (m *memNewsletters) Create(_ context.Context, n *entity.Newsletter, urls []string) error {
	if m.createErr != nil {
		return m.createErr
	}
	n.ID = int64(len(m.stored) + 1)
	n.GenerationDate = time.Now()
	for _, u := range urls {
		if id, ok := m.resolvable[u]; ok {
			n.ArticleIDs = append(n.ArticleIDs, id)
		}
	}
	m.stored = append(m.stored, n)
	return nil
}

func (m *memNewsletters) ListByUser(_ context.Context, userID int64, limit int) ([]*entity.Newsletter, error) {
	var out []*entity.Newsletter
	for i := len(m.stored) - 1; i >= 0 && len(out) < limit; i-- {
		if m.stored[i].UserID == userID {
			out = append(out, m.stored[i])
		}
	}
	return out, nil
}

func (m *memNewsletters) Get(_ context.Context, id int64) (*entity.Newsletter, error) {
	for _, n := range m.stored {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, nil
}

type stubLLM struct {
	out     string
	err     error
	prompts []string
}

func (s *stubLLM) Complete(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.out, s.err
}
func (s *stubLLM) Provider() string { return "stub" }

type recordingAnnouncer struct{ got []*entity.Newsletter }

func (r *recordingAnnouncer) NotifyNewsletter(_ context.Context, _ *entity.User, n *entity.Newsletter) {
	r.got = append(r.got, n)
}

var now = time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)

type fixture struct {
	composer    *newsletter.Composer
	articles    *stubArticles
	newsletters *memNewsletters
	model       *stubLLM
	announcer   *recordingAnnouncer
}

func newFixture() *fixture {
	f := &fixture{
		articles: &stubArticles{recent: []*entity.Article{
			{ID: 10, Title: "Qubits", Summary: "Error rates fell.", URL: "https://n/10"},
			{ID: 11, Title: "LLMs", Summary: "New model.", URL: "https://n/11"},
			{ID: 12, Title: "Gone", Summary: "Deleted since.", URL: "https://n/12"},
		}},
		newsletters: &memNewsletters{resolvable: map[string]int64{"https://n/10": 10, "https://n/11": 11}},
		model:       &stubLLM{out: "Hello ada! ..."},
		announcer:   &recordingAnnouncer{},
	}
	f.composer = &newsletter.Composer{
		Users: &stubUsers{users: map[int64]*entity.User{
			1: {ID: 1, Username: "ada", IsActive: true},
			2: {ID: 2, Username: "bob", IsActive: true},
		}},
		Subs: &stubSubs{byUser: map[int64][]*entity.Interest{
			1: {{ID: 4, Name: "Artificial Intelligence"}, {ID: 5, Name: "Quantum Computing"}},
		}},
		Articles:    f.articles,
		Newsletters: f.newsletters,
		LLM:         f.model,
		Announcer:   f.announcer,
		Config:      newsletter.DefaultConfig(),
		Now:         func() time.Time { return now },
	}
	return f
}

/* ───────── Generate ───────── */

func TestGenerate_LinksResolvableArticles(t *testing.T) {
	f := newFixture()

	n, err := f.composer.Generate(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}

	if len(f.newsletters.stored) != 1 {
		t.Fatalf("stored %d newsletters", len(f.newsletters.stored))
	}
	if diff := cmp.Diff([]int64{10, 11}, n.ArticleIDs); diff != "" {
		t.Errorf("linked articles (-want +got):\n%s", diff)
	}
	if n.Content != "Hello ada! ..." || n.UserID != 1 {
		t.Errorf("newsletter = %+v", n)
	}
	if len(f.announcer.got) != 1 {
		t.Error("newsletter not announced")
	}
}

func TestGenerate_QueryAndPrompt(t *testing.T) {
	f := newFixture()

	if _, err := f.composer.Generate(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]int64{4, 5}, f.articles.gotIDs); diff != "" {
		t.Errorf("interest ids (-want +got):\n%s", diff)
	}
	if !f.articles.gotSince.Equal(now.Add(-7*24*time.Hour)) || f.articles.gotLimit != 10 {
		t.Errorf("since=%v limit=%d", f.articles.gotSince, f.articles.gotLimit)
	}
	prompt := f.model.prompts[0]
	for _, want := range []string{
		"Artificial Intelligence, Quantum Computing",
		"Title: Qubits\nSummary: Error rates fell.\nURL: https://n/10",
		"'No new updates'",
		"friendly greeting",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerate_NoInterests(t *testing.T) {
	f := newFixture()

	_, err := f.composer.Generate(context.Background(), 2)

	if !errors.Is(err, newsletter.ErrNoPersonalizedContent) {
		t.Fatalf("err = %v", err)
	}
	if len(f.newsletters.stored) != 0 || len(f.model.prompts) != 0 {
		t.Error("nothing may be generated or stored")
	}
}

func TestGenerate_UnknownUser(t *testing.T) {
	f := newFixture()

	_, err := f.composer.Generate(context.Background(), 99)

	var nf *newsletter.UserNotFoundError
	if !errors.As(err, &nf) || err.Error() != "User with ID 99 not found." {
		t.Fatalf("err = %v", err)
	}
	if len(f.newsletters.stored) != 0 {
		t.Error("no newsletter may be stored")
	}
}

func TestGenerate_NoArticles(t *testing.T) {
	t.Run("persisted with template", func(t *testing.T) {
		f := newFixture()
		f.articles.recent = nil

		n, err := f.composer.Generate(context.Background(), 1)
		if err != nil {
			t.Fatal(err)
		}
		want := "Hello ada,\n\nThere are no new updates for your interests (Artificial Intelligence, Quantum Computing) this week."
		if !strings.HasPrefix(n.Content, want) || len(n.ArticleIDs) != 0 {
			t.Errorf("newsletter = %+v", n)
		}
		if len(f.model.prompts) != 0 {
			t.Error("model must not be called")
		}
	})

	t.Run("skipped by policy", func(t *testing.T) {
		f := newFixture()
		f.articles.recent = nil
		f.composer.Config.PersistEmpty = false

		_, err := f.composer.Generate(context.Background(), 1)
		if !errors.Is(err, newsletter.ErrNoNewArticles) || len(f.newsletters.stored) != 0 {
			t.Errorf("err = %v, stored = %d", err, len(f.newsletters.stored))
		}
	})
}

func TestGenerate_ModelFailureStoresNothing(t *testing.T) {
	for _, model := range []*stubLLM{{err: errors.New("timeout")}, {out: "  "}} {
		f := newFixture()
		f.composer.LLM = model

		if _, err := f.composer.Generate(context.Background(), 1); err == nil {
			t.Fatal("expected error")
		}
		if len(f.newsletters.stored) != 0 || len(f.announcer.got) != 0 {
			t.Error("failed generation must not persist or announce")
		}
	}
}

/* ───────── HandleJob ───────── */

func TestHandleJob_Kinds(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*fixture)
		userID   int64
		wantKind result.Kind
	}{
		{"ok", func(*fixture) {}, 1, ""},
		{"unknown user", func(*fixture) {}, 99, result.KindNotFound},
		{"no interests", func(*fixture) {}, 2, result.KindData},
		{"not configured", func(f *fixture) { f.composer.LLM = &stubLLM{err: llm.ErrNotConfigured} }, 1, result.KindConfig},
		{"store failure", func(f *fixture) { f.newsletters.createErr = errors.New("db") }, 1, result.KindTransient},
		{"empty skipped", func(f *fixture) { f.articles.recent = nil; f.composer.Config.PersistEmpty = false }, 1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.setup(f)
			err := f.composer.HandleJob(context.Background(), &entity.Job{Kind: entity.JobKindGenerateNewsletter, SubjectID: tt.userID})
			if tt.wantKind == "" {
				if err != nil {
					t.Fatalf("err = %v", err)
				}
				return
			}
			if got := result.KindOf(err); got != tt.wantKind {
				t.Errorf("kind = %q, want %q (err %v)", got, tt.wantKind, err)
			}
		})
	}
}

/* ───────── List / Get ───────── */

func TestListAndGet(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	first, _ := f.composer.Generate(ctx, 1)
	second, _ := f.composer.Generate(ctx, 1)

	list, err := f.composer.List(ctx, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != second.ID {
		t.Errorf("list = %+v", list)
	}

	got, err := f.composer.Get(ctx, 1, first.ID)
	if err != nil || got.ID != first.ID {
		t.Errorf("Get = %+v, %v", got, err)
	}
	if _, err := f.composer.Get(ctx, 2, first.ID); !errors.Is(err, newsletter.ErrNewsletterNotFound) {
		t.Errorf("other user's newsletter: err = %v", err)
	}
}

package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"newsletter-curator/internal/domain/entity"
	pg "newsletter-curator/internal/infra/adapter/persistence/postgres"
	"newsletter-curator/internal/repository"
)

/* ─────────────────────────── helpers ─────────────────────────── */

var articleCols = []string{
	"id", "title", "url", "source", "published_date", "summary", "full_text", "created_at",
}

func artRow(rows *sqlmock.Rows, a *entity.Article) *sqlmock.Rows {
	var summary any
	if a.Summary != "" {
		summary = a.Summary
	}
	return rows.AddRow(a.ID, a.Title, a.URL, a.Source, a.PublishedDate, summary, a.FullText, a.CreatedAt)
}

/* ─────────────────────────── 1. Get ─────────────────────────── */

func TestArticleRepo_Get(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Date(2025, 7, 19, 0, 0, 0, 0, time.UTC)
	want := &entity.Article{
		ID: 1, Title: "Go 1.25 released", URL: "https://example.com/go",
		Source: "The Go Blog", PublishedDate: now, Summary: "sum",
		FullText: "body", CreatedAt: now,
		Topics: []entity.Interest{{ID: 4, Name: "Programming", CreatedAt: now}},
	}

	mock.ExpectQuery(regexp.QuoteMeta("FROM articles a\nWHERE a.id = $1")).
		WithArgs(int64(1)).
		WillReturnRows(artRow(sqlmock.NewRows(articleCols), want))
	mock.ExpectQuery(regexp.QuoteMeta("INNER JOIN article_topics t ON t.interest_id = i.id")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "created_at"}).
			AddRow(4, "Programming", "", now))

	repo := pg.NewArticleRepo(db)
	got, err := repo.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestArticleRepo_Get_NotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM articles a").
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)

	got, err := pg.NewArticleRepo(db).Get(context.Background(), 9)
	if err != nil || got != nil {
		t.Fatalf("Get = (%v, %v), want (nil, nil)", got, err)
	}
}

/* ─────────────────────────── 2. List ─────────────────────────── */

func TestArticleRepo_List_ByInterest(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("JOIN article_topics t ON t.article_id = a.id WHERE t.interest_id = $1")).
		WithArgs(int64(3)).
		WillReturnRows(artRow(sqlmock.NewRows(articleCols), &entity.Article{
			ID: 1, Title: "x", URL: "https://x", Source: "s", PublishedDate: now, CreatedAt: now,
		}))

	got, err := pg.NewArticleRepo(db).List(context.Background(), repository.ArticleFilter{InterestID: 3, Limit: 20})
	if err != nil || len(got) != 1 {
		t.Fatalf("List err=%v len=%d", err, len(got))
	}
	if got[0].HasSummary() {
		t.Error("NULL summary should scan as empty")
	}
}

/* ─────────────────────────── 3. ExistsByURL ─────────────────────────── */

func TestArticleRepo_ExistsByURL(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("https://dup").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := pg.NewArticleRepo(db).ExistsByURL(context.Background(), "https://dup")
	if err != nil || !ok {
		t.Fatalf("ExistsByURL = (%v, %v)", ok, err)
	}
}

func TestArticleRepo_ExistsByURLBatch(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, url FROM articles WHERE url IN ($1,$2)")).
		WithArgs("https://a", "https://b").
		WillReturnRows(sqlmock.NewRows([]string{"id", "url"}).AddRow(1, "https://a"))

	got, err := pg.NewArticleRepo(db).ExistsByURLBatch(context.Background(), []string{"https://a", "https://b"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]bool{"https://a": true}, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	empty, err := pg.NewArticleRepo(db).ExistsByURLBatch(context.Background(), nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty batch = (%v, %v)", empty, err)
	}
}

/* ─────────────────────────── 4. CreateWithTopics ─────────────────────────── */

func TestArticleRepo_CreateWithTopics(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	pub := time.Date(2025, 7, 18, 9, 0, 0, 0, time.UTC)
	a := &entity.Article{
		Title: "AI news", URL: "https://n/1", Source: "Wire", PublishedDate: pub,
		Topics: []entity.Interest{{ID: 1}, {ID: 2}},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (url) DO NOTHING")).
		WithArgs("AI news", "https://n/1", "Wire", pub, sql.NullString{}, "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(10, pub))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO article_topics")).
		WithArgs(int64(10), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO article_topics")).
		WithArgs(int64(10), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := pg.NewArticleRepo(db).CreateWithTopics(context.Background(), a); err != nil {
		t.Fatalf("CreateWithTopics err=%v", err)
	}
	if a.ID != 10 {
		t.Errorf("ID = %d, want 10", a.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestArticleRepo_CreateWithTopics_Duplicate(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO articles").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}))
	mock.ExpectRollback()

	err := pg.NewArticleRepo(db).CreateWithTopics(context.Background(), &entity.Article{URL: "https://dup"})
	if !errors.Is(err, entity.ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

/* ─────────────────────────── 5. UpdateSummary ─────────────────────────── */

func TestArticleRepo_UpdateSummary(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"first writer wins", 1, true},
		{"already summarized", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, _ := sqlmock.New()
			defer func() { _ = db.Close() }()

			mock.ExpectExec(regexp.QuoteMeta("AND (summary IS NULL OR summary = '')")).
				WithArgs("short summary", int64(5)).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			got, err := pg.NewArticleRepo(db).UpdateSummary(context.Background(), 5, "short summary")
			if err != nil || got != tt.want {
				t.Fatalf("UpdateSummary = (%v, %v), want %v", got, err, tt.want)
			}
		})
	}
}

/* ─────────────────────────── 6. RecentForInterests ─────────────────────────── */

func TestArticleRepo_RecentForInterests(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	since := time.Date(2025, 7, 12, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE t.interest_id IN ($1,$2) AND a.published_date >= $3 AND a.summary IS NOT NULL ORDER BY a.published_date DESC LIMIT 10")).
		WithArgs(int64(1), int64(2), since).
		WillReturnRows(artRow(sqlmock.NewRows(articleCols), &entity.Article{
			ID: 3, Title: "t", URL: "https://t", Source: "s", Summary: "sum", PublishedDate: since,
		}))

	got, err := pg.NewArticleRepo(db).RecentForInterests(context.Background(), []int64{1, 2}, since, 10)
	if err != nil || len(got) != 1 || got[0].Summary != "sum" {
		t.Fatalf("RecentForInterests = (%v, %v)", got, err)
	}

	none, err := pg.NewArticleRepo(db).RecentForInterests(context.Background(), nil, since, 10)
	if err != nil || len(none) != 0 {
		t.Fatalf("no interests = (%v, %v)", none, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

package article_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"newsletter-curator/internal/domain/entity"
	"newsletter-curator/internal/repository"
	artUC "newsletter-curator/internal/usecase/article"
)

/* ───────── stub ───────── */

type stubRepo struct {
	repository.ArticleRepository
	data       map[int64]*entity.Article
	lastFilter repository.ArticleFilter
	err        error
}

func (s *stubRepo) Get(_ context.Context, id int64) (*entity.Article, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.data[id], nil
}

func (s *stubRepo) List(_ context.Context, f repository.ArticleFilter) ([]*entity.Article, error) {
	s.lastFilter = f
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*entity.Article, 0, len(s.data))
	for _, a := range s.data {
		out = append(out, a)
	}
	return out, nil
}

/* ───────── tests ───────── */

func TestService_List_Limits(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"default", 0, artUC.DefaultLimit},
		{"negative", -5, artUC.DefaultLimit},
		{"within range", 7, 7},
		{"capped", 1000, artUC.MaxLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &stubRepo{data: map[int64]*entity.Article{}}
			svc := artUC.Service{Repo: repo}
			if _, err := svc.List(context.Background(), 3, tt.limit); err != nil {
				t.Fatalf("List err=%v", err)
			}
			if repo.lastFilter.Limit != tt.want || repo.lastFilter.InterestID != 3 {
				t.Fatalf("filter=%+v, want limit %d interest 3", repo.lastFilter, tt.want)
			}
		})
	}
}

func TestService_List_RejectsNegativeInterest(t *testing.T) {
	svc := artUC.Service{Repo: &stubRepo{}}
	_, err := svc.List(context.Background(), -1, 10)
	var ve *entity.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err=%v, want ValidationError", err)
	}
}

func TestService_Get(t *testing.T) {
	repo := &stubRepo{data: map[int64]*entity.Article{
		1: {ID: 1, Title: "Go 1.25", URL: "https://example.com/go", PublishedDate: time.Now()},
	}}
	svc := artUC.Service{Repo: repo}

	got, err := svc.Get(context.Background(), 1)
	if err != nil || got.ID != 1 {
		t.Fatalf("Get(1) = %+v, %v", got, err)
	}
	if _, err := svc.Get(context.Background(), 2); !errors.Is(err, artUC.ErrArticleNotFound) {
		t.Fatalf("Get(2) err=%v, want ErrArticleNotFound", err)
	}
	if _, err := svc.Get(context.Background(), 0); !errors.Is(err, artUC.ErrInvalidArticleID) {
		t.Fatalf("Get(0) err=%v, want ErrInvalidArticleID", err)
	}

	repo.err = errors.New("connection reset")
	if _, err := svc.Get(context.Background(), 1); err == nil || errors.Is(err, artUC.ErrArticleNotFound) {
		t.Fatalf("Get with store failure err=%v", err)
	}
}

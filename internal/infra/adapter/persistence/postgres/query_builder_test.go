package postgres

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"newsletter-curator/internal/repository"
)

func TestBuildArticleListQuery(t *testing.T) {
	since := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		filter   repository.ArticleFilter
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:     "no filter",
			filter:   repository.ArticleFilter{},
			wantSQL:  "SELECT " + articleColumns + " FROM articles a ORDER BY a.published_date DESC, a.id DESC",
			wantArgs: nil,
		},
		{
			name:   "interest, since and limit",
			filter: repository.ArticleFilter{InterestID: 2, Since: since, Limit: 50},
			wantSQL: "SELECT " + articleColumns + " FROM articles a" +
				" JOIN article_topics t ON t.article_id = a.id" +
				" WHERE t.interest_id = $1 AND a.published_date >= $2" +
				" ORDER BY a.published_date DESC, a.id DESC LIMIT 50",
			wantArgs: []interface{}{int64(2), since},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := buildArticleListQuery(tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if sql != tt.wantSQL {
				t.Errorf("sql:\n got %s\nwant %s", sql, tt.wantSQL)
			}
			if diff := cmp.Diff(tt.wantArgs, args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildRecentForInterestsQuery(t *testing.T) {
	since := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)

	sql, args, err := buildRecentForInterestsQuery([]int64{4, 9}, since, 10)
	if err != nil {
		t.Fatal(err)
	}

	want := "SELECT DISTINCT " + articleColumns + " FROM articles a" +
		" JOIN article_topics t ON t.article_id = a.id" +
		" WHERE t.interest_id IN ($1,$2) AND a.published_date >= $3 AND a.summary IS NOT NULL" +
		" ORDER BY a.published_date DESC LIMIT 10"
	if sql != want {
		t.Errorf("sql:\n got %s\nwant %s", sql, want)
	}
	if diff := cmp.Diff([]interface{}{int64(4), int64(9), since}, args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

// Package postgres provides PostgreSQL implementations of repository interfaces.
package postgres

import (
	"time"

	sq "github.com/Masterminds/squirrel"

	"newsletter-curator/internal/repository"
)

// psql emits $N placeholders for pgx.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const articleColumns = "a.id, a.title, a.url, a.source, a.published_date, a.summary, a.full_text, a.created_at"

// buildArticleListQuery builds the filtered article listing used by the API.
func buildArticleListQuery(filter repository.ArticleFilter) (string, []interface{}, error) {
	q := psql.Select(articleColumns).From("articles a")
	if filter.InterestID > 0 {
		q = q.Join("article_topics t ON t.article_id = a.id").
			Where(sq.Eq{"t.interest_id": filter.InterestID})
	}
	if !filter.Since.IsZero() {
		q = q.Where(sq.GtOrEq{"a.published_date": filter.Since})
	}
	q = q.OrderBy("a.published_date DESC", "a.id DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	return q.ToSql()
}

// buildRecentForInterestsQuery selects distinct summarized articles tagged
// with any of interestIDs, newest first.
func buildRecentForInterestsQuery(interestIDs []int64, since time.Time, limit int) (string, []interface{}, error) {
	q := psql.Select(articleColumns).
		Distinct().
		From("articles a").
		Join("article_topics t ON t.article_id = a.id").
		Where(sq.Eq{"t.interest_id": interestIDs}).
		Where(sq.GtOrEq{"a.published_date": since}).
		Where(sq.NotEq{"a.summary": nil}).
		OrderBy("a.published_date DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return q.ToSql()
}

// buildURLLookupQuery resolves article ids by URL.
func buildURLLookupQuery(urls []string) (string, []interface{}, error) {
	return psql.Select("id", "url").From("articles").Where(sq.Eq{"url": urls}).ToSql()
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"newsletter-curator/internal/domain/entity"
	"newsletter-curator/internal/repository"
)

type ArticleRepo struct {
	db *sql.DB
}

func NewArticleRepo(db *sql.DB) repository.ArticleRepository {
	return &ArticleRepo{db: db}
}

func scanArticle(row scanner) (*entity.Article, error) {
	var (
		article entity.Article
		summary sql.NullString
	)
	if err := row.Scan(&article.ID, &article.Title, &article.URL, &article.Source,
		&article.PublishedDate, &summary, &article.FullText, &article.CreatedAt); err != nil {
		return nil, err
	}
	article.Summary = summary.String
	return &article, nil
}

func (repo *ArticleRepo) Get(ctx context.Context, id int64) (*entity.Article, error) {
	query := `
SELECT ` + articleColumns + `
FROM articles a
WHERE a.id = $1
LIMIT 1`
	article, err := scanArticle(repo.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}

	topics, err := repo.topics(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	article.Topics = topics
	return article, nil
}

func (repo *ArticleRepo) topics(ctx context.Context, articleID int64) ([]entity.Interest, error) {
	const query = `
SELECT i.id, i.name, i.description, i.created_at
FROM interests i
INNER JOIN article_topics t ON t.interest_id = i.id
WHERE t.article_id = $1
ORDER BY i.name`
	rows, err := repo.db.QueryContext(ctx, query, articleID)
	if err != nil {
		return nil, fmt.Errorf("topics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var topics []entity.Interest
	for rows.Next() {
		var in entity.Interest
		if err := rows.Scan(&in.ID, &in.Name, &in.Description, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("topics: Scan: %w", err)
		}
		topics = append(topics, in)
	}
	return topics, rows.Err()
}

func (repo *ArticleRepo) List(ctx context.Context, filter repository.ArticleFilter) ([]*entity.Article, error) {
	query, args, err := buildArticleListQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("List: build: %w", err)
	}
	return repo.queryArticles(ctx, "List", query, args)
}

func (repo *ArticleRepo) RecentForInterests(ctx context.Context, interestIDs []int64, since time.Time, limit int) ([]*entity.Article, error) {
	if len(interestIDs) == 0 {
		return []*entity.Article{}, nil
	}
	query, args, err := buildRecentForInterestsQuery(interestIDs, since, limit)
	if err != nil {
		return nil, fmt.Errorf("RecentForInterests: build: %w", err)
	}
	return repo.queryArticles(ctx, "RecentForInterests", query, args)
}

func (repo *ArticleRepo) queryArticles(ctx context.Context, op, query string, args []interface{}) ([]*entity.Article, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, 16)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: Scan: %w", op, err)
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

func (repo *ArticleRepo) ExistsByURL(ctx context.Context, url string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM articles WHERE url = $1)`
	var existsFlag bool
	if err := repo.db.QueryRowContext(ctx, query, url).Scan(&existsFlag); err != nil {
		return false, fmt.Errorf("ExistsByURL: %w", err)
	}
	return existsFlag, nil
}

// ExistsByURLBatch checks a whole batch in one round trip.
func (repo *ArticleRepo) ExistsByURLBatch(ctx context.Context, urls []string) (map[string]bool, error) {
	result := make(map[string]bool, len(urls))
	if len(urls) == 0 {
		return result, nil
	}

	query, args, err := buildURLLookupQuery(urls)
	if err != nil {
		return nil, fmt.Errorf("ExistsByURLBatch: build: %w", err)
	}
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ExistsByURLBatch: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			id  int64
			url string
		)
		if err := rows.Scan(&id, &url); err != nil {
			return nil, fmt.Errorf("ExistsByURLBatch: Scan: %w", err)
		}
		result[url] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ExistsByURLBatch: rows.Err: %w", err)
	}
	return result, nil
}

func (repo *ArticleRepo) CreateWithTopics(ctx context.Context, article *entity.Article) error {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("CreateWithTopics: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const insertArticle = `
INSERT INTO articles
       (title, url, source, published_date, summary, full_text)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (url) DO NOTHING
RETURNING id, created_at`
	err = tx.QueryRowContext(ctx, insertArticle,
		article.Title, article.URL, article.Source,
		article.PublishedDate, nullString(article.Summary), article.FullText,
	).Scan(&article.ID, &article.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("CreateWithTopics: %s: %w", article.URL, entity.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("CreateWithTopics: insert article: %w", err)
	}

	const insertTopic = `
INSERT INTO article_topics (article_id, interest_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING`
	for _, topic := range article.Topics {
		if _, err := tx.ExecContext(ctx, insertTopic, article.ID, topic.ID); err != nil {
			return fmt.Errorf("CreateWithTopics: link interest %d: %w", topic.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("CreateWithTopics: commit: %w", err)
	}
	return nil
}

func (repo *ArticleRepo) UpdateSummary(ctx context.Context, id int64, summary string) (bool, error) {
	const query = `
UPDATE articles
   SET summary = $1
 WHERE id = $2
   AND (summary IS NULL OR summary = '')`
	res, err := repo.db.ExecContext(ctx, query, summary, id)
	if err != nil {
		return false, fmt.Errorf("UpdateSummary: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("UpdateSummary: RowsAffected: %w", err)
	}
	return n > 0, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"newsletter-curator/internal/domain/entity"
	"newsletter-curator/internal/repository"
)

type NewsletterRepo struct {
	db *sql.DB
}

func NewNewsletterRepo(db *sql.DB) repository.NewsletterRepository {
	return &NewsletterRepo{db: db}
}

func (repo *NewsletterRepo) Create(ctx context.Context, newsletter *entity.Newsletter, articleURLs []string) error {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Create: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const insert = `
INSERT INTO newsletters (user_id, content)
VALUES ($1, $2)
RETURNING id, generation_date`
	if err := tx.QueryRowContext(ctx, insert, newsletter.UserID, newsletter.Content).
		Scan(&newsletter.ID, &newsletter.GenerationDate); err != nil {
		return fmt.Errorf("Create: insert newsletter: %w", err)
	}

	articleIDs, err := resolveArticleIDs(ctx, tx, articleURLs)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}

	const link = `
INSERT INTO newsletter_articles (newsletter_id, article_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING`
	for _, id := range articleIDs {
		if _, err := tx.ExecContext(ctx, link, newsletter.ID, id); err != nil {
			return fmt.Errorf("Create: link article %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Create: commit: %w", err)
	}
	newsletter.ArticleIDs = articleIDs
	return nil
}

// resolveArticleIDs looks the URLs up again inside the transaction, preserving
// input order. URLs that no longer resolve are skipped.
func resolveArticleIDs(ctx context.Context, tx *sql.Tx, urls []string) ([]int64, error) {
	if len(urls) == 0 {
		return []int64{}, nil
	}

	query, args, err := buildURLLookupQuery(urls)
	if err != nil {
		return nil, fmt.Errorf("resolve articles: build: %w", err)
	}
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("resolve articles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	byURL := make(map[string]int64, len(urls))
	for rows.Next() {
		var id int64
		var url string
		if err := rows.Scan(&id, &url); err != nil {
			return nil, fmt.Errorf("resolve articles: Scan: %w", err)
		}
		byURL[url] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("resolve articles: %w", err)
	}

	ids := make([]int64, 0, len(byURL))
	seen := make(map[int64]bool, len(byURL))
	for _, u := range urls {
		if id, ok := byURL[u]; ok && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (repo *NewsletterRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]*entity.Newsletter, error) {
	const query = `
SELECT id, user_id, generation_date, content
FROM newsletters
WHERE user_id = $1
ORDER BY generation_date DESC, id DESC
LIMIT $2`
	rows, err := repo.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ListByUser: %w", err)
	}
	defer func() { _ = rows.Close() }()

	newsletters := make([]*entity.Newsletter, 0, limit)
	for rows.Next() {
		var n entity.Newsletter
		if err := rows.Scan(&n.ID, &n.UserID, &n.GenerationDate, &n.Content); err != nil {
			return nil, fmt.Errorf("ListByUser: Scan: %w", err)
		}
		newsletters = append(newsletters, &n)
	}
	return newsletters, rows.Err()
}

func (repo *NewsletterRepo) Get(ctx context.Context, id int64) (*entity.Newsletter, error) {
	const query = `
SELECT id, user_id, generation_date, content
FROM newsletters
WHERE id = $1`
	var n entity.Newsletter
	err := repo.db.QueryRowContext(ctx, query, id).
		Scan(&n.ID, &n.UserID, &n.GenerationDate, &n.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}

	const links = `
SELECT article_id
FROM newsletter_articles
WHERE newsletter_id = $1
ORDER BY article_id`
	rows, err := repo.db.QueryContext(ctx, links, id)
	if err != nil {
		return nil, fmt.Errorf("Get: articles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	n.ArticleIDs = []int64{}
	for rows.Next() {
		var articleID int64
		if err := rows.Scan(&articleID); err != nil {
			return nil, fmt.Errorf("Get: articles: Scan: %w", err)
		}
		n.ArticleIDs = append(n.ArticleIDs, articleID)
	}
	return &n, rows.Err()
}

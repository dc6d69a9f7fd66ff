package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"newsletter-curator/internal/domain/entity"
	"newsletter-curator/internal/repository"
)

type SubscriptionRepo struct {
	db *sql.DB
}

func NewSubscriptionRepo(db *sql.DB) repository.SubscriptionRepository {
	return &SubscriptionRepo{db: db}
}

func (repo *SubscriptionRepo) ListInterests(ctx context.Context, userID int64) ([]*entity.Interest, error) {
	const query = `
SELECT i.id, i.name, i.description, i.created_at
FROM interests i
INNER JOIN user_interests ui ON ui.interest_id = i.id
WHERE ui.user_id = $1
ORDER BY i.name`
	rows, err := repo.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ListInterests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	interests, err := scanInterests(rows)
	if err != nil {
		return nil, fmt.Errorf("ListInterests: Scan: %w", err)
	}
	return interests, nil
}

// Apply runs every addition and removal inside one transaction. Both lists are
// checked against the interests table and the first unknown id rolls everything back.
func (repo *SubscriptionRepo) Apply(ctx context.Context, userID int64, add, remove []int64) (repository.SubscriptionChange, error) {
	var change repository.SubscriptionChange

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return change, fmt.Errorf("Apply: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const (
		exists = `SELECT EXISTS (SELECT 1 FROM interests WHERE id = $1)`
		insert = `
INSERT INTO user_interests (user_id, interest_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING`
		del = `DELETE FROM user_interests WHERE user_id = $1 AND interest_id = $2`
	)

	mutate := func(stmt string, interestID int64) (int, error) {
		var found bool
		if err := tx.QueryRowContext(ctx, exists, interestID).Scan(&found); err != nil {
			return 0, fmt.Errorf("lookup interest %d: %w", interestID, err)
		}
		if !found {
			return 0, &repository.MissingInterestError{InterestID: interestID}
		}
		res, err := tx.ExecContext(ctx, stmt, userID, interestID)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		return int(n), err
	}

	for _, id := range add {
		n, err := mutate(insert, id)
		if err != nil {
			return repository.SubscriptionChange{}, fmt.Errorf("Apply: add: %w", err)
		}
		change.Added += n
	}
	for _, id := range remove {
		n, err := mutate(del, id)
		if err != nil {
			return repository.SubscriptionChange{}, fmt.Errorf("Apply: remove: %w", err)
		}
		change.Removed += n
	}

	if err := tx.Commit(); err != nil {
		return repository.SubscriptionChange{}, fmt.Errorf("Apply: commit: %w", err)
	}
	return change, nil
}

func (repo *SubscriptionRepo) CountByUser(ctx context.Context) (map[int64]int, error) {
	const query = `SELECT user_id, COUNT(*) FROM user_interests GROUP BY user_id`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("CountByUser: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[int64]int)
	for rows.Next() {
		var userID int64
		var n int
		if err := rows.Scan(&userID, &n); err != nil {
			return nil, fmt.Errorf("CountByUser: Scan: %w", err)
		}
		counts[userID] = n
	}
	return counts, rows.Err()
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"newsletter-curator/internal/domain/entity"
	"newsletter-curator/internal/repository"
)

// UserRepo reads the users table owned by the auth system. It never writes.
type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) repository.UserRepository {
	return &UserRepo{db: db}
}

func (repo *UserRepo) Get(ctx context.Context, id int64) (*entity.User, error) {
	const query = `SELECT id, username, email, is_active FROM users WHERE id = $1`
	var u entity.User
	err := repo.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Username, &u.Email, &u.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &u, nil
}

func (repo *UserRepo) ListActive(ctx context.Context) ([]*entity.User, error) {
	const query = `
SELECT id, username, email, is_active
FROM users
WHERE is_active
ORDER BY id`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListActive: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []*entity.User
	for rows.Next() {
		var u entity.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.IsActive); err != nil {
			return nil, fmt.Errorf("ListActive: Scan: %w", err)
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

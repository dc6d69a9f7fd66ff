package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"newsletter-curator/internal/domain/entity"
	"newsletter-curator/internal/repository"
)

type InterestRepo struct {
	db *sql.DB
}

func NewInterestRepo(db *sql.DB) repository.InterestRepository {
	return &InterestRepo{db: db}
}

func scanInterests(rows *sql.Rows) ([]*entity.Interest, error) {
	interests := make([]*entity.Interest, 0, 16)
	for rows.Next() {
		var in entity.Interest
		if err := rows.Scan(&in.ID, &in.Name, &in.Description, &in.CreatedAt); err != nil {
			return nil, err
		}
		interests = append(interests, &in)
	}
	return interests, rows.Err()
}

func (repo *InterestRepo) List(ctx context.Context) ([]*entity.Interest, error) {
	const query = `
SELECT id, name, description, created_at
FROM interests
ORDER BY name`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	interests, err := scanInterests(rows)
	if err != nil {
		return nil, fmt.Errorf("List: Scan: %w", err)
	}
	return interests, nil
}

func (repo *InterestRepo) Get(ctx context.Context, id int64) (*entity.Interest, error) {
	const query = `
SELECT id, name, description, created_at
FROM interests
WHERE id = $1`
	return repo.getOne(ctx, "Get", query, id)
}

func (repo *InterestRepo) FindByName(ctx context.Context, name string) (*entity.Interest, error) {
	const query = `
SELECT id, name, description, created_at
FROM interests
WHERE lower(name) = lower($1)
LIMIT 1`
	return repo.getOne(ctx, "FindByName", query, name)
}

func (repo *InterestRepo) getOne(ctx context.Context, op, query string, arg any) (*entity.Interest, error) {
	var in entity.Interest
	err := repo.db.QueryRowContext(ctx, query, arg).
		Scan(&in.ID, &in.Name, &in.Description, &in.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &in, nil
}

func (repo *InterestRepo) Create(ctx context.Context, interest *entity.Interest) error {
	const query = `
INSERT INTO interests (name, description)
VALUES ($1, $2)
RETURNING id, created_at`
	err := repo.db.QueryRowContext(ctx, query, interest.Name, interest.Description).
		Scan(&interest.ID, &interest.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("Create: %q: %w", interest.Name, entity.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

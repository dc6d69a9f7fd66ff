package postgres

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// nullString maps "" to SQL NULL so unsummarized articles keep a NULL summary.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type scanner interface {
	Scan(dest ...any) error
}

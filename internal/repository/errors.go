package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const (
	pqInvalidTextRepresentation pq.ErrorCode = "22P02"
	pqUniqueViolation           pq.ErrorCode = "23505"
)

// lookupErr reports a key Postgres cannot parse as a uuid as sql.ErrNoRows:
// no row can carry it.
func lookupErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqInvalidTextRepresentation {
		return fmt.Errorf("malformed id: %w", sql.ErrNoRows)
	}
	return err
}

// IsUniqueViolation reports whether err comes from a unique constraint.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

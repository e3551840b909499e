package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrVersionConflict is returned when a versioned write lost a race.
	ErrVersionConflict = errors.New("repository: version conflict")
	// ErrAlreadyCompleted is returned when a handover item was completed earlier.
	ErrAlreadyCompleted = errors.New("repository: handover item already completed")
	// ErrDuplicate is returned on a unique constraint violation.
	ErrDuplicate = errors.New("repository: duplicate key")
)

const uniqueViolationCode = "23505"

func translatePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return ErrDuplicate
	}
	return err
}

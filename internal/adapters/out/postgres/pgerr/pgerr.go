// Package pgerr maps PostgreSQL driver failures onto the errs taxonomy.
package pgerr

import (
	"errors"

	"labtrack/internal/pkg/errs"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// Translate wraps retryable and integrity failures as Conflict or NotFound errors.
// Anything else is returned unchanged.
func Translate(entity string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.NewConflictErrorWithCause(entity+" already exists", err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeUniqueViolation:
		return errs.NewConflictErrorWithCause(entity+" already exists", err)
	case codeForeignKeyViolation:
		return errs.NewObjectNotFoundErrorWithCause(entity, pgErr.ConstraintName, err)
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return errs.NewConflictErrorWithCause(entity+" was modified concurrently", err)
	default:
		return err
	}
}

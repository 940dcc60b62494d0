package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/phrazzld/task-api/internal/store"
	sqlitedrv "modernc.org/sqlite"
)

// SQLite result codes
const (
	constraintCode           = 19
	constraintCheckCode      = 275
	constraintForeignKeyCode = 787
	constraintNotNullCode    = 1299
	constraintPrimaryKeyCode = 1555
	constraintUniqueCode     = 2067
)

// constraintKind classifies a constraint failure. It prefers the extended
// result code and falls back to the message when only the primary code is
// available.
func constraintKind(err error) int {
	var se *sqlitedrv.Error
	if !errors.As(err, &se) {
		return 0
	}

	code := se.Code()
	switch code {
	case constraintCheckCode, constraintForeignKeyCode, constraintNotNullCode,
		constraintPrimaryKeyCode, constraintUniqueCode:
		return code
	}
	if code&0xff != constraintCode {
		return 0
	}

	msg := se.Error()
	switch {
	case strings.Contains(msg, "UNIQUE"):
		return constraintUniqueCode
	case strings.Contains(msg, "FOREIGN KEY"):
		return constraintForeignKeyCode
	case strings.Contains(msg, "CHECK"):
		return constraintCheckCode
	case strings.Contains(msg, "NOT NULL"):
		return constraintNotNullCode
	}
	return constraintCode
}

// IsUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY failure.
func IsUniqueViolation(err error) bool {
	k := constraintKind(err)
	return k == constraintUniqueCode || k == constraintPrimaryKeyCode
}

// IsForeignKeyViolation reports whether err is a FOREIGN KEY failure.
func IsForeignKeyViolation(err error) bool {
	return constraintKind(err) == constraintForeignKeyCode
}

// MapError translates a SQLite error into the store error taxonomy, with the
// same contract as postgres.MapError.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	switch constraintKind(err) {
	case 0:
	case constraintUniqueCode, constraintPrimaryKeyCode:
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	default:
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	return fmt.Errorf("%w: %v", store.ErrInternal, err)
}

func checkRowsAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to get rows affected: %v", store.ErrInternal, err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

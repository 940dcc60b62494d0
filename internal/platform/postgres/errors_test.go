package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/task-api/internal/platform/postgres"
	"github.com/phrazzld/task-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func newPgError(code string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		SchemaName:     "public",
		TableName:      "tasks",
		ColumnName:     "title",
		ConstraintName: "tasks_status_check",
	}
}

type fakeResult struct {
	rowsAffected int64
	err          error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, r.err }
func (r fakeResult) RowsAffected() (int64, error) { return r.rowsAffected, r.err }

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "no rows", err: sql.ErrNoRows, want: store.ErrNotFound},
		{name: "unique violation", err: newPgError("23505"), want: store.ErrDuplicate},
		{name: "foreign key violation", err: newPgError("23503"), want: store.ErrInvalidEntity},
		{name: "check violation", err: newPgError("23514"), want: store.ErrInvalidEntity},
		{name: "not null violation", err: newPgError("23502"), want: store.ErrInvalidEntity},
		{name: "other pg error", err: newPgError("42P01"), want: store.ErrInternal},
		{name: "generic error", err: errors.New("connection refused"), want: store.ErrInternal},
		{name: "cancelled", err: fmt.Errorf("query: %w", context.Canceled), want: context.Canceled},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := postgres.MapError(tt.err)
			assert.ErrorIs(t, got, tt.want)
		})
	}

	assert.NoError(t, postgres.MapError(nil))
}

func TestViolationPredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, postgres.IsUniqueViolation(fmt.Errorf("insert: %w", newPgError("23505"))))
	assert.False(t, postgres.IsUniqueViolation(newPgError("23503")))
	assert.False(t, postgres.IsUniqueViolation(nil))

	assert.True(t, postgres.IsForeignKeyViolation(newPgError("23503")))
	assert.False(t, postgres.IsForeignKeyViolation(errors.New("generic")))
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	assert.NoError(t, postgres.CheckRowsAffected(fakeResult{rowsAffected: 1}, store.ErrTaskNotFound))
	assert.ErrorIs(t, postgres.CheckRowsAffected(fakeResult{}, store.ErrTaskNotFound), store.ErrTaskNotFound)
	assert.ErrorIs(t, postgres.CheckRowsAffected(fakeResult{}, nil), store.ErrNotFound)
	assert.ErrorIs(t, postgres.CheckRowsAffected(fakeResult{err: errors.New("boom")}, nil), store.ErrInternal)
	assert.ErrorIs(t, postgres.CheckRowsAffected(nil, nil), store.ErrInternal)
}

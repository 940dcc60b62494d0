package store_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/task-api/internal/platform/sqlite"
	"github.com/phrazzld/task-api/internal/store"
	"github.com/phrazzld/task-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// optsRecorder is a TxBeginner that remembers the options it was asked for.
type optsRecorder struct {
	db    *sql.DB
	calls int
	opts  *sql.TxOptions
}

func (r *optsRecorder) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	r.calls++
	r.opts = opts
	return r.db.BeginTx(ctx, opts)
}

func TestRunInTransaction_Outcomes(t *testing.T) {
	errBegin := errors.New("connection reset")
	errCommit := errors.New("serialization failure")
	errRollback := errors.New("connection lost")
	errMissing := fmt.Errorf("load task: %w", store.ErrTaskNotFound)

	tests := []struct {
		name   string
		expect func(mock sqlmock.Sqlmock)
		fnErr  error

		wantIs  []error
		wantMsg string
	}{
		{
			name: "commit on success",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE tasks").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "sentinel survives rollback unwrapped",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE tasks").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectRollback()
			},
			fnErr:  errMissing,
			wantIs: []error{store.ErrTaskNotFound},
		},
		{
			name: "begin failure never runs the work",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(errBegin)
			},
			wantIs:  []error{errBegin},
			wantMsg: "failed to begin transaction",
		},
		{
			name: "commit failure",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE tasks").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit().WillReturnError(errCommit)
			},
			wantIs:  []error{errCommit},
			wantMsg: "failed to commit transaction",
		},
		{
			name: "rollback failure keeps the work error",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE tasks").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectRollback().WillReturnError(errRollback)
			},
			fnErr:   errMissing,
			wantIs:  []error{store.ErrTaskNotFound},
			wantMsg: "connection lost",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()
			tc.expect(mock)

			err = store.RunInTransaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
				if _, err := tx.ExecContext(ctx, "UPDATE tasks SET title = ? WHERE id = ?", "x", "t1"); err != nil {
					return err
				}
				return tc.fnErr
			})

			if len(tc.wantIs) == 0 && tc.wantMsg == "" {
				assert.NoError(t, err)
			}
			for _, target := range tc.wantIs {
				assert.ErrorIs(t, err, target)
			}
			if tc.wantMsg != "" {
				assert.ErrorContains(t, err, tc.wantMsg)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRunInTransaction_PanicRollsBackAndRepanics(t *testing.T) {
	for _, rollbackErr := range []error{nil, errors.New("connection lost")} {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectRollback().WillReturnError(rollbackErr)

		assert.PanicsWithValue(t, "task store bug", func() {
			_ = store.RunInTransaction(context.Background(), db, func(context.Context, *sql.Tx) error {
				panic("task store bug")
			})
		})
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	}
}

func TestRunInTransactionWithOptions_PassesOptions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectCommit()

	beginner := &optsRecorder{db: db}
	opts := &sql.TxOptions{ReadOnly: true}

	var count int
	err = store.RunInTransactionWithOptions(context.Background(), beginner, opts,
		func(ctx context.Context, tx *sql.Tx) error {
			return tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks").Scan(&count)
		})

	require.NoError(t, err)
	assert.Equal(t, 1, beginner.calls)
	assert.Same(t, opts, beginner.opts)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTransaction_TaskStoreWrites(t *testing.T) {
	ctx := context.Background()
	db := testdb.NewSQLite(t)
	users := sqlite.NewSQLiteUserStore(db, nil)
	tasks := sqlite.NewSQLiteTaskStore(db, nil)
	owner := testdb.CreateUser(t, users)

	t.Run("not found rolls back earlier writes", func(t *testing.T) {
		kept := testdb.CreateTask(t, tasks, owner.ID, "keep me", "", "")

		err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			txTasks := tasks.WithTx(tx)

			renamed := *kept
			renamed.Title = "renamed inside tx"
			if err := txTasks.Update(ctx, &renamed); err != nil {
				return err
			}
			return txTasks.Delete(ctx, "no-such-task")
		})
		require.ErrorIs(t, err, store.ErrTaskNotFound)

		got, err := tasks.GetByID(ctx, kept.ID)
		require.NoError(t, err)
		assert.Equal(t, "keep me", got.Title)
	})

	t.Run("commit makes writes visible", func(t *testing.T) {
		doomed := testdb.CreateTask(t, tasks, owner.ID, "delete me", "", "")

		err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			return tasks.WithTx(tx).Delete(ctx, doomed.ID)
		})
		require.NoError(t, err)

		_, err = tasks.GetByID(ctx, doomed.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/platform/logger"
	"github.com/phrazzld/task-api/internal/store"
)

// SQLiteTaskStore implements store.TaskStore on SQLite.
type SQLiteTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSQLiteTaskStore creates a task store over db.
func NewSQLiteTaskStore(db store.DBTX, logger *slog.Logger) *SQLiteTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*SQLiteTaskStore)(nil)

func (s *SQLiteTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &SQLiteTaskStore{db: tx, logger: s.logger}
}

func (s *SQLiteTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, user_id, title, description, status, priority, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: user with ID %s not found", store.ErrInvalidEntity, task.UserID)
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID))
		return store.NewStoreError("task", "create", "insert failed", MapError(err))
	}
	return nil
}

// listPrealloc bounds the slice capacity reserved up front by List. The
// requested limit may be far larger than the result.
const listPrealloc = 128

const selectTaskColumns = `SELECT id, user_id, title, description, status, priority, created_at, updated_at FROM tasks`

func (s *SQLiteTaskStore) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	task, err := scanTask(s.db.QueryRowContext(ctx, selectTaskColumns+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, store.NewStoreError("task", "get", "query failed", MapError(err))
	}
	return task, nil
}

func (s *SQLiteTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, updated_at = ? WHERE id = ?`,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		return store.NewStoreError("task", "update", "exec failed", MapError(err))
	}
	return checkRowsAffected(result, store.ErrTaskNotFound)
}

func (s *SQLiteTaskStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return store.NewStoreError("task", "delete", "exec failed", MapError(err))
	}
	return checkRowsAffected(result, store.ErrTaskNotFound)
}

func (s *SQLiteTaskStore) List(ctx context.Context, q store.TaskQuery) ([]*domain.Task, error) {
	if q.Limit < 1 {
		return nil, fmt.Errorf("%w: limit must be positive", store.ErrInvalidEntity)
	}

	where, args := buildTaskWhere(q.TaskFilter)
	if q.AfterID != "" {
		where = append(where, "id > ?")
		args = append(args, q.AfterID)
	}
	args = append(args, q.Limit)

	query := selectTaskColumns + ` WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id ASC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", q.OwnerID.String()))
		return nil, store.NewStoreError("task", "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0, min(q.Limit, listPrealloc))
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, store.NewStoreError("task", "list", "scan failed", MapError(err))
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("task", "list", "row iteration failed", MapError(err))
	}
	return tasks, nil
}

func (s *SQLiteTaskStore) Count(ctx context.Context, f store.TaskFilter) (int, error) {
	where, args := buildTaskWhere(f)

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE `+strings.Join(where, " AND "), args...,
	).Scan(&count)
	if err != nil {
		return 0, store.NewStoreError("task", "count", "query failed", MapError(err))
	}
	return count, nil
}

func buildTaskWhere(f store.TaskFilter) ([]string, []any) {
	where := []string{"user_id = ?"}
	args := []any{f.OwnerID}

	if f.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*f.Status))
	}
	if f.Priority != nil {
		where = append(where, "priority = ?")
		args = append(args, string(*f.Priority))
	}
	return where, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task        domain.Task
		description sql.NullString
		status      string
		priority    string
	)
	if err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&description,
		&status,
		&priority,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if description.Valid {
		desc := description.String
		task.Description = &desc
	}
	task.Status = domain.TaskStatus(status)
	task.Priority = domain.TaskPriority(priority)
	return &task, nil
}

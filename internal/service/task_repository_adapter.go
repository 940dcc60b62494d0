package service

import (
	"context"
	"database/sql"

	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/store"
)

// TaskRepository is the persistence surface the task service needs, plus
// access to the database handle for starting transactions.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q store.TaskQuery) ([]*domain.Task, error)
	Count(ctx context.Context, f store.TaskFilter) (int, error)

	// WithTx returns a repository bound to tx.
	WithTx(tx *sql.Tx) TaskRepository

	// DB returns the handle transactions are started on.
	DB() *sql.DB
}

// NewTaskRepositoryAdapter lets a store.TaskStore serve as a TaskRepository.
func NewTaskRepositoryAdapter(taskStore store.TaskStore, db *sql.DB) TaskRepository {
	return &taskRepositoryAdapter{TaskStore: taskStore, db: db}
}

type taskRepositoryAdapter struct {
	store.TaskStore
	db *sql.DB
}

func (a *taskRepositoryAdapter) WithTx(tx *sql.Tx) TaskRepository {
	return &taskRepositoryAdapter{TaskStore: a.TaskStore.WithTx(tx), db: a.db}
}

func (a *taskRepositoryAdapter) DB() *sql.DB {
	return a.db
}

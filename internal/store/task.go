package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/domain"
)

// TaskFilter narrows a listing to one owner and, optionally, one status and
// one priority. Values are compared exactly; callers normalize them first.
type TaskFilter struct {
	OwnerID  uuid.UUID
	Status   *domain.TaskStatus
	Priority *domain.TaskPriority
}

// TaskQuery is a keyset page request. Rows with ID > AfterID are returned in
// ascending ID order, at most Limit of them. An empty AfterID starts from the
// beginning.
type TaskQuery struct {
	TaskFilter
	AfterID string
	Limit   int
}

// TaskStore defines the interface for task persistence.
type TaskStore interface {
	// Create inserts a new task.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID returns ErrTaskNotFound if no task has that id, regardless of
	// owner. Ownership is checked by the caller.
	GetByID(ctx context.Context, id string) (*domain.Task, error)

	// Update persists title, description, status, priority and updated_at.
	// Returns ErrTaskNotFound if the task is gone.
	Update(ctx context.Context, task *domain.Task) error

	// Delete returns ErrTaskNotFound if the task is gone.
	Delete(ctx context.Context, id string) error

	// List returns one keyset page.
	List(ctx context.Context, q TaskQuery) ([]*domain.Task, error)

	// Count returns how many tasks match f, ignoring any cursor.
	Count(ctx context.Context, f TaskFilter) (int, error)

	WithTx(tx *sql.Tx) TaskStore
}

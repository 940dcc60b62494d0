package testdb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/store"
	"github.com/stretchr/testify/require"
)

// placeholderHash is a syntactically valid bcrypt hash. Fixtures never log in
// with it.
const placeholderHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z3T6gyW9YgjSdcdVr8cL0Qe."

// CreateUser stores a user with a unique email and returns it.
func CreateUser(t *testing.T, users store.UserStore) *domain.User {
	t.Helper()

	id := uuid.New()
	user := &domain.User{
		ID:             id,
		Email:          fmt.Sprintf("user-%s@example.com", id.String()[:8]),
		HashedPassword: placeholderHash,
	}
	user.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	user.UpdatedAt = user.CreatedAt

	require.NoError(t, users.Create(context.Background(), user), "Failed to create fixture user")
	return user
}

// CreateTask stores a task for owner with the given title and enum values.
// Empty status or priority take the domain defaults.
func CreateTask(
	t *testing.T,
	tasks store.TaskStore,
	owner uuid.UUID,
	title string,
	status domain.TaskStatus,
	priority domain.TaskPriority,
) *domain.Task {
	t.Helper()

	task, err := domain.NewTask(owner, title, nil, status, priority)
	require.NoError(t, err, "Failed to build fixture task")
	require.NoError(t, tasks.Create(context.Background(), task), "Failed to create fixture task")
	return task
}

// Package storetest holds a conformance suite that every store backend runs
// against its own database.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/store"
	"github.com/phrazzld/task-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Stores is the pair of stores under test. Both must share one database.
type Stores struct {
	Users store.UserStore
	Tasks store.TaskStore
}

// Factory returns a pair of stores over an isolated database.
type Factory func(t *testing.T) Stores

// RunUserStoreTests exercises a store.UserStore implementation.
func RunUserStoreTests(t *testing.T, newStores Factory) {
	t.Run("create and get", func(t *testing.T) {
		s := newStores(t)
		ctx := context.Background()

		user := testdb.CreateUser(t, s.Users)

		byID, err := s.Users.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, byID.Email)
		assert.Equal(t, user.HashedPassword, byID.HashedPassword)
		assert.Empty(t, byID.RefreshTokenID)
		assert.WithinDuration(t, user.CreatedAt, byID.CreatedAt, time.Second)

		byEmail, err := s.Users.GetByEmail(ctx, "  "+user.Email+" ")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		s := newStores(t)
		user := testdb.CreateUser(t, s.Users)

		dup := *user
		dup.ID = uuid.New()
		err := s.Users.Create(context.Background(), &dup)
		assert.ErrorIs(t, err, store.ErrEmailExists)
	})

	t.Run("missing hash", func(t *testing.T) {
		s := newStores(t)
		user, err := domain.NewUser("nohash@example.com", "long-enough-password")
		require.NoError(t, err)
		assert.ErrorIs(t, s.Users.Create(context.Background(), user), domain.ErrEmptyHashedPassword)
	})

	t.Run("not found", func(t *testing.T) {
		s := newStores(t)
		_, err := s.Users.GetByID(context.Background(), uuid.New())
		assert.ErrorIs(t, err, store.ErrUserNotFound)
		_, err = s.Users.GetByEmail(context.Background(), "nobody@example.com")
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})

	t.Run("refresh token id", func(t *testing.T) {
		s := newStores(t)
		ctx := context.Background()
		user := testdb.CreateUser(t, s.Users)

		require.NoError(t, s.Users.UpdateRefreshTokenID(ctx, user.ID, "jti-1"))
		got, err := s.Users.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "jti-1", got.RefreshTokenID)

		require.NoError(t, s.Users.UpdateRefreshTokenID(ctx, user.ID, ""))
		got, err = s.Users.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, got.RefreshTokenID)

		err = s.Users.UpdateRefreshTokenID(ctx, uuid.New(), "jti-2")
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})

	t.Run("refresh token rotation is conditional", func(t *testing.T) {
		s := newStores(t)
		ctx := context.Background()
		user := testdb.CreateUser(t, s.Users)

		err := s.Users.RotateRefreshTokenID(ctx, user.ID, "jti-1", "jti-2")
		assert.ErrorIs(t, err, store.ErrRefreshTokenMismatch, "nothing stored yet")

		require.NoError(t, s.Users.UpdateRefreshTokenID(ctx, user.ID, "jti-1"))
		require.NoError(t, s.Users.RotateRefreshTokenID(ctx, user.ID, "jti-1", "jti-2"))

		err = s.Users.RotateRefreshTokenID(ctx, user.ID, "jti-1", "jti-3")
		assert.ErrorIs(t, err, store.ErrRefreshTokenMismatch)
		assert.ErrorIs(t, err, store.ErrUpdateFailed)

		got, err := s.Users.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "jti-2", got.RefreshTokenID)

		err = s.Users.RotateRefreshTokenID(ctx, user.ID, "", "jti-4")
		assert.ErrorIs(t, err, store.ErrRefreshTokenMismatch)

		err = s.Users.RotateRefreshTokenID(ctx, uuid.New(), "jti-2", "jti-5")
		assert.ErrorIs(t, err, store.ErrRefreshTokenMismatch)
	})
}

// RunTaskStoreTests exercises a store.TaskStore implementation.
func RunTaskStoreTests(t *testing.T, newStores Factory) {
	t.Run("create get update delete", func(t *testing.T) {
		s := newStores(t)
		ctx := context.Background()
		owner := testdb.CreateUser(t, s.Users)

		desc := "quarterly numbers"
		task, err := domain.NewTask(owner.ID, "Report", &desc, "", domain.TaskPriorityHigh)
		require.NoError(t, err)
		require.NoError(t, s.Tasks.Create(ctx, task))

		got, err := s.Tasks.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task.ID, got.ID)
		assert.Equal(t, owner.ID, got.UserID)
		assert.Equal(t, "Report", got.Title)
		require.NotNil(t, got.Description)
		assert.Equal(t, desc, *got.Description)
		assert.Equal(t, domain.TaskStatusPending, got.Status)
		assert.Equal(t, domain.TaskPriorityHigh, got.Priority)

		status := domain.TaskStatusCompleted
		empty := ""
		require.NoError(t, got.Apply(domain.TaskPatch{Status: &status, Description: &empty}))
		require.NoError(t, s.Tasks.Update(ctx, got))

		updated, err := s.Tasks.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusCompleted, updated.Status)
		assert.Nil(t, updated.Description)

		require.NoError(t, s.Tasks.Delete(ctx, task.ID))
		_, err = s.Tasks.GetByID(ctx, task.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("missing task", func(t *testing.T) {
		s := newStores(t)
		ctx := context.Background()
		owner := testdb.CreateUser(t, s.Users)

		_, err := s.Tasks.GetByID(ctx, "does-not-exist")
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
		assert.ErrorIs(t, s.Tasks.Delete(ctx, "does-not-exist"), store.ErrTaskNotFound)

		ghost, err := domain.NewTask(owner.ID, "ghost", nil, "", "")
		require.NoError(t, err)
		assert.ErrorIs(t, s.Tasks.Update(ctx, ghost), store.ErrTaskNotFound)
	})

	t.Run("unknown owner", func(t *testing.T) {
		s := newStores(t)
		task, err := domain.NewTask(uuid.New(), "orphan", nil, "", "")
		require.NoError(t, err)
		assert.ErrorIs(t, s.Tasks.Create(context.Background(), task), store.ErrInvalidEntity)
	})

	t.Run("keyset pages", func(t *testing.T) {
		s := newStores(t)
		ctx := context.Background()
		owner := testdb.CreateUser(t, s.Users)
		other := testdb.CreateUser(t, s.Users)

		var ids []string
		for i := 0; i < 7; i++ {
			task := testdb.CreateTask(t, s.Tasks, owner.ID, "task", "", "")
			ids = append(ids, task.ID)
		}
		testdb.CreateTask(t, s.Tasks, other.ID, "not mine", "", "")

		q := store.TaskQuery{TaskFilter: store.TaskFilter{OwnerID: owner.ID}, Limit: 3}

		var seen []string
		for {
			page, err := s.Tasks.List(ctx, q)
			require.NoError(t, err)
			if len(page) == 0 {
				break
			}
			for _, task := range page {
				assert.Equal(t, owner.ID, task.UserID)
				seen = append(seen, task.ID)
			}
			q.AfterID = page[len(page)-1].ID
		}
		assert.Equal(t, ids, seen, "pages concatenate to the full ordered set")

		total, err := s.Tasks.Count(ctx, store.TaskFilter{OwnerID: owner.ID})
		require.NoError(t, err)
		assert.Equal(t, 7, total)
	})

	t.Run("filters", func(t *testing.T) {
		s := newStores(t)
		ctx := context.Background()
		owner := testdb.CreateUser(t, s.Users)

		testdb.CreateTask(t, s.Tasks, owner.ID, "a", domain.TaskStatusPending, domain.TaskPriorityHigh)
		testdb.CreateTask(t, s.Tasks, owner.ID, "b", domain.TaskStatusCompleted, domain.TaskPriorityHigh)
		testdb.CreateTask(t, s.Tasks, owner.ID, "c", domain.TaskStatusPending, domain.TaskPriorityLow)

		pending := domain.TaskStatusPending
		high := domain.TaskPriorityHigh
		f := store.TaskFilter{OwnerID: owner.ID, Status: &pending, Priority: &high}

		page, err := s.Tasks.List(ctx, store.TaskQuery{TaskFilter: f, Limit: 10})
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "a", page[0].Title)

		count, err := s.Tasks.Count(ctx, store.TaskFilter{OwnerID: owner.ID, Status: &pending})
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		unknown := domain.TaskStatus("ARCHIVED")
		count, err = s.Tasks.Count(ctx, store.TaskFilter{OwnerID: owner.ID, Status: &unknown})
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("cursor past the end and garbage cursor", func(t *testing.T) {
		s := newStores(t)
		ctx := context.Background()
		owner := testdb.CreateUser(t, s.Users)
		testdb.CreateTask(t, s.Tasks, owner.ID, "only", "", "")

		q := store.TaskQuery{TaskFilter: store.TaskFilter{OwnerID: owner.ID}, Limit: 5, AfterID: "zzzz"}
		page, err := s.Tasks.List(ctx, q)
		require.NoError(t, err)
		assert.Empty(t, page)

		q.AfterID = "0"
		page, err = s.Tasks.List(ctx, q)
		require.NoError(t, err)
		assert.Len(t, page, 1)
	})

	t.Run("limit far above the row count", func(t *testing.T) {
		s := newStores(t)
		owner := testdb.CreateUser(t, s.Users)
		testdb.CreateTask(t, s.Tasks, owner.ID, "one", "", "")
		testdb.CreateTask(t, s.Tasks, owner.ID, "two", "", "")

		page, err := s.Tasks.List(context.Background(), store.TaskQuery{
			TaskFilter: store.TaskFilter{OwnerID: owner.ID},
			Limit:      1 << 40,
		})
		require.NoError(t, err)
		assert.Len(t, page, 2)
	})

	t.Run("rejects non-positive limit", func(t *testing.T) {
		s := newStores(t)
		_, err := s.Tasks.List(context.Background(), store.TaskQuery{Limit: 0})
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})
}

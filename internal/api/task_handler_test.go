package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/api/shared"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/mocks"
	"github.com/phrazzld/task-api/internal/service"
	"github.com/phrazzld/task-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newTaskRouter mounts the handler the way the server does, with the user id
// injected in place of the JWT middleware.
func newTaskRouter(svc service.TaskService, userID uuid.UUID) http.Handler {
	h := NewTaskHandler(svc, 100, nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID != uuid.Nil {
				r = r.WithContext(shared.WithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Route("/api/tasks", func(r chi.Router) {
		r.Post("/", h.CreateTask)
		r.Get("/", h.ListTasks)
		r.Get("/{id}", h.GetTask)
		r.Put("/{id}", h.UpdateTask)
		r.Delete("/{id}", h.DeleteTask)
	})
	return r
}

func sampleTask(owner uuid.UUID) *domain.Task {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return &domain.Task{
		ID:        "0195a1b2-0000-7000-8000-000000000001",
		UserID:    owner,
		Title:     "write tests",
		Status:    domain.TaskStatusPending,
		Priority:  domain.TaskPriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func doRequest(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body shared.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error
}

func TestTaskHandler_ListTasks(t *testing.T) {
	owner := uuid.New()

	t.Run("passes typed filter and paging", func(t *testing.T) {
		svc := &mocks.MockTaskService{}
		task := sampleTask(owner)
		next := task.ID
		svc.On("ListTasks", mock.Anything, mock.MatchedBy(func(p service.ListTasksParams) bool {
			return p.OwnerID == owner &&
				p.Cursor == "abc" &&
				p.Limit == 2 &&
				p.Filter.Status != nil && *p.Filter.Status == domain.TaskStatusPending &&
				p.Filter.Priority != nil && *p.Filter.Priority == domain.TaskPriorityHigh
		})).Return(&service.TaskPage{
			Items:      []*domain.Task{task},
			Total:      3,
			NextCursor: &next,
			HasNext:    true,
		}, nil).Once()

		rr := doRequest(t, newTaskRouter(svc, owner), http.MethodGet,
			"/api/tasks?status=pending&priority=High&cursor=abc&limit=2", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var body TaskListResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		require.Len(t, body.Tasks, 1)
		assert.Equal(t, task.ID, body.Tasks[0].ID)
		assert.Equal(t, 3, body.Total)
		assert.True(t, body.HasNext)
		require.NotNil(t, body.NextCursor)
		assert.Equal(t, task.ID, *body.NextCursor)

		svc.AssertExpectations(t)
	})

	t.Run("empty page serializes null cursor and empty array", func(t *testing.T) {
		svc := &mocks.MockTaskService{}
		svc.On("ListTasks", mock.Anything, mock.Anything).Return(&service.TaskPage{}, nil)

		rr := doRequest(t, newTaskRouter(svc, owner), http.MethodGet, "/api/tasks", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"tasks":[],"total":0,"next_cursor":null,"has_next":false}`, rr.Body.String())
	})

	rejected := []struct {
		name  string
		query string
		msg   string
	}{
		{"unknown status", "?status=archived", "Invalid status: must be PENDING or COMPLETED"},
		{"unknown priority", "?priority=urgent", "Invalid priority: must be LOW, MEDIUM or HIGH"},
		{"zero limit", "?limit=0", "limit must be an integer between 1 and 100"},
		{"limit above max", "?limit=101", "limit must be an integer between 1 and 100"},
		{"non numeric limit", "?limit=lots", "limit must be an integer between 1 and 100"},
	}
	for _, tc := range rejected {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mocks.MockTaskService{}

			rr := doRequest(t, newTaskRouter(svc, owner), http.MethodGet, "/api/tasks"+tc.query, nil)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tc.msg, decodeError(t, rr))
			svc.AssertNotCalled(t, "ListTasks", mock.Anything, mock.Anything)
		})
	}

	t.Run("no user in context", func(t *testing.T) {
		rr := doRequest(t, newTaskRouter(&mocks.MockTaskService{}, uuid.Nil), http.MethodGet, "/api/tasks", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestTaskHandler_GetTask(t *testing.T) {
	owner := uuid.New()
	task := sampleTask(owner)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"found", nil, http.StatusOK, ""},
		{"missing", service.NewTaskServiceError("get_task", "x", store.ErrTaskNotFound), http.StatusNotFound, "Task not found"},
		{"not owned", service.NewTaskServiceError("get_task", "x", service.ErrNotOwned), http.StatusForbidden, "Forbidden"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mocks.MockTaskService{}
			if tc.err != nil {
				svc.On("GetTask", mock.Anything, owner, task.ID).Return(nil, tc.err)
			} else {
				svc.On("GetTask", mock.Anything, owner, task.ID).Return(task, nil)
			}

			rr := doRequest(t, newTaskRouter(svc, owner), http.MethodGet, "/api/tasks/"+task.ID, nil)
			assert.Equal(t, tc.wantStatus, rr.Code)

			if tc.err != nil {
				assert.Equal(t, tc.wantMsg, decodeError(t, rr))
				return
			}
			var body TaskResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, task.ID, body.ID)
			assert.Equal(t, owner, body.UserID)
			assert.Nil(t, body.Description)
		})
	}
}

func TestTaskHandler_CreateTask(t *testing.T) {
	owner := uuid.New()

	t.Run("created", func(t *testing.T) {
		svc := &mocks.MockTaskService{}
		task := sampleTask(owner)
		task.Priority = domain.TaskPriorityHigh
		svc.On("CreateTask", mock.Anything, owner, service.CreateTaskParams{
			Title:    "write tests",
			Priority: domain.TaskPriorityHigh,
		}).Return(task, nil).Once()

		rr := doRequest(t, newTaskRouter(svc, owner), http.MethodPost, "/api/tasks",
			map[string]any{"title": "write tests", "priority": "high"})
		assert.Equal(t, http.StatusCreated, rr.Code)

		var body TaskResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, domain.TaskPriorityHigh, body.Priority)
		svc.AssertExpectations(t)
	})

	t.Run("missing title", func(t *testing.T) {
		svc := &mocks.MockTaskService{}
		rr := doRequest(t, newTaskRouter(svc, owner), http.MethodPost, "/api/tasks", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid title: required field", decodeError(t, rr))
	})

	t.Run("invalid status", func(t *testing.T) {
		svc := &mocks.MockTaskService{}
		rr := doRequest(t, newTaskRouter(svc, owner), http.MethodPost, "/api/tasks",
			map[string]any{"title": "x", "status": "done"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		svc.AssertNotCalled(t, "CreateTask", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown field", func(t *testing.T) {
		svc := &mocks.MockTaskService{}
		rr := doRequest(t, newTaskRouter(svc, owner), http.MethodPost, "/api/tasks",
			map[string]any{"title": "x", "user_id": uuid.New()})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid request format", decodeError(t, rr))
	})
}

func TestTaskHandler_UpdateTask(t *testing.T) {
	owner := uuid.New()
	task := sampleTask(owner)

	t.Run("patch", func(t *testing.T) {
		svc := &mocks.MockTaskService{}
		updated := *task
		updated.Status = domain.TaskStatusCompleted
		svc.On("UpdateTask", mock.Anything, owner, task.ID, mock.MatchedBy(func(p domain.TaskPatch) bool {
			return p.Status != nil && *p.Status == domain.TaskStatusCompleted && p.Title == nil
		})).Return(&updated, nil).Once()

		rr := doRequest(t, newTaskRouter(svc, owner), http.MethodPut, "/api/tasks/"+task.ID,
			map[string]any{"status": "completed"})
		assert.Equal(t, http.StatusOK, rr.Code)
		svc.AssertExpectations(t)
	})

	t.Run("empty patch", func(t *testing.T) {
		svc := &mocks.MockTaskService{}
		rr := doRequest(t, newTaskRouter(svc, owner), http.MethodPut, "/api/tasks/"+task.ID, map[string]any{})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "No fields to update", decodeError(t, rr))
	})

	t.Run("not owned", func(t *testing.T) {
		svc := &mocks.MockTaskService{}
		svc.On("UpdateTask", mock.Anything, owner, task.ID, mock.Anything).
			Return(nil, service.NewTaskServiceError("update_task", "x", service.ErrNotOwned))

		rr := doRequest(t, newTaskRouter(svc, owner), http.MethodPut, "/api/tasks/"+task.ID,
			map[string]any{"title": "mine"})
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestTaskHandler_DeleteTask(t *testing.T) {
	owner := uuid.New()

	svc := &mocks.MockTaskService{}
	svc.On("DeleteTask", mock.Anything, owner, "t-1").Return(nil).Once()
	svc.On("DeleteTask", mock.Anything, owner, "t-2").
		Return(service.NewTaskServiceError("delete_task", "x", store.ErrTaskNotFound)).Once()

	router := newTaskRouter(svc, owner)

	rr := doRequest(t, router, http.MethodDelete, "/api/tasks/t-1", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"Task deleted successfully"}`, rr.Body.String())

	rr = doRequest(t, router, http.MethodDelete, "/api/tasks/t-2", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	svc.AssertExpectations(t)
}

package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/task-api/internal/api/shared"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/platform/logger"
	"github.com/phrazzld/task-api/internal/service"
)

// TaskHandler serves the /api/tasks routes. Every route expects the auth
// middleware to have put the caller's id in the context.
type TaskHandler struct {
	taskService service.TaskService
	maxLimit    int
	logger      *slog.Logger
}

// NewTaskHandler creates a TaskHandler. maxLimit bounds the limit query
// parameter.
func NewTaskHandler(taskService service.TaskService, maxLimit int, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		taskService: taskService,
		maxLimit:    maxLimit,
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// CreateTask handles POST /api/tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	var req CreateTaskRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	params := service.CreateTaskParams{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		status, err := parseTaskStatus(*req.Status)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		params.Status = status
	}
	if req.Priority != nil {
		priority, err := parseTaskPriority(*req.Priority)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		params.Priority = priority
	}

	task, err := h.taskService.CreateTask(r.Context(), userID, params)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// ListTasks handles GET /api/tasks?status=&priority=&cursor=&limit=.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	query := r.URL.Query()
	params := service.ListTasksParams{
		OwnerID: userID,
		Cursor:  query.Get("cursor"),
	}

	if raw := query.Get("status"); raw != "" {
		status, err := parseTaskStatus(raw)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		params.Filter.Status = &status
	}
	if raw := query.Get("priority"); raw != "" {
		priority, err := parseTaskPriority(raw)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		params.Filter.Priority = &priority
	}

	limit, err := parseLimit(query.Get("limit"), h.maxLimit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	params.Limit = limit

	page, err := h.taskService.ListTasks(r.Context(), params)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, pageToResponse(page))
}

// GetTask handles GET /api/tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathID(w, r, "id")
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// UpdateTask handles PUT /api/tasks/{id}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	patch := domain.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		status, err := parseTaskStatus(*req.Status)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		patch.Status = &status
	}
	if req.Priority != nil {
		priority, err := parseTaskPriority(*req.Priority)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		patch.Priority = &priority
	}

	if patch.IsEmpty() {
		RespondWithError(w, r, http.StatusBadRequest, "No fields to update")
		return
	}

	task, err := h.taskService.UpdateTask(r.Context(), userID, taskID, patch)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// DeleteTask handles DELETE /api/tasks/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(r.Context(), userID, taskID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("task deleted via API",
		slog.String("task_id", taskID))
	RespondWithJSON(w, r, http.StatusOK, shared.MessageResponse{Message: "Task deleted successfully"})
}

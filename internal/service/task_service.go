package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/events"
	"github.com/phrazzld/task-api/internal/platform/logger"
	"github.com/phrazzld/task-api/internal/store"
)

const (
	// DefaultPageLimit is used when a listing asks for a non-positive limit.
	DefaultPageLimit = 10

	// DefaultMaxPageLimit caps listings unless WithMaxLimit says otherwise.
	DefaultMaxPageLimit = 100

	// maxPageLimitCeiling bounds WithMaxLimit so limit+1 cannot overflow.
	maxPageLimitCeiling = math.MaxInt32
)

// TaskListFilter narrows a listing. Values are matched case-insensitively
// against the enum domain; a value outside it matches nothing.
type TaskListFilter struct {
	Status   *domain.TaskStatus
	Priority *domain.TaskPriority
}

// ListTasksParams is a keyset page request for one owner.
type ListTasksParams struct {
	OwnerID uuid.UUID
	Filter  TaskListFilter
	// Cursor is the id of the last task already seen. Empty starts at the
	// beginning; an id that does not exist is still used as a lower bound.
	Cursor string
	Limit  int
}

// TaskPage is one page of a listing.
type TaskPage struct {
	Items []*domain.Task
	// Total counts every task matching owner and filter, ignoring the cursor.
	Total int
	// NextCursor is the id of the last item, nil when the page is empty.
	NextCursor *string
	HasNext    bool
}

// CreateTaskParams is the input for a new task. Empty status and priority
// take the domain defaults.
type CreateTaskParams struct {
	Title       string
	Description *string
	Status      domain.TaskStatus
	Priority    domain.TaskPriority
}

// TaskService provides owner-scoped task operations.
type TaskService interface {
	// ListTasks returns one keyset page of the owner's tasks.
	ListTasks(ctx context.Context, params ListTasksParams) (*TaskPage, error)

	// GetTask returns store.ErrTaskNotFound for an unknown id and ErrNotOwned
	// when the task belongs to someone else, in that order.
	GetTask(ctx context.Context, userID uuid.UUID, taskID string) (*domain.Task, error)

	CreateTask(ctx context.Context, userID uuid.UUID, params CreateTaskParams) (*domain.Task, error)

	// UpdateTask applies patch under the same checks as GetTask, in one
	// transaction with the write.
	UpdateTask(ctx context.Context, userID uuid.UUID, taskID string, patch domain.TaskPatch) (*domain.Task, error)

	DeleteTask(ctx context.Context, userID uuid.UUID, taskID string) error
}

// TaskServiceOption customizes the task service.
type TaskServiceOption func(*taskServiceImpl)

// WithDefaultLimit sets the page size used when none is requested.
func WithDefaultLimit(limit int) TaskServiceOption {
	return func(s *taskServiceImpl) {
		if limit > 0 {
			s.defaultLimit = limit
		}
	}
}

// WithMaxLimit caps the page size. Values above math.MaxInt32 are lowered to
// it.
func WithMaxLimit(limit int) TaskServiceOption {
	return func(s *taskServiceImpl) {
		if limit > 0 {
			s.maxLimit = min(limit, maxPageLimitCeiling)
		}
	}
}

// WithEmitter publishes lifecycle events through emitter.
func WithEmitter(emitter events.Emitter) TaskServiceOption {
	return func(s *taskServiceImpl) {
		if emitter != nil {
			s.emitter = emitter
		}
	}
}

type taskServiceImpl struct {
	repo         TaskRepository
	emitter      events.Emitter
	defaultLimit int
	maxLimit     int
	logger       *slog.Logger
}

// NewTaskService creates a TaskService. It returns an error if repo is nil.
func NewTaskService(repo TaskRepository, logger *slog.Logger, opts ...TaskServiceOption) (TaskService, error) {
	if repo == nil {
		return nil, domain.NewValidationError("repo", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &taskServiceImpl{
		repo:         repo,
		emitter:      events.NopEmitter{},
		defaultLimit: DefaultPageLimit,
		maxLimit:     DefaultMaxPageLimit,
		logger:       logger.With(slog.String("component", "task_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *taskServiceImpl) ListTasks(ctx context.Context, params ListTasksParams) (*TaskPage, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	limit := params.Limit
	if limit < 1 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	filter := store.TaskFilter{OwnerID: params.OwnerID}
	if params.Filter.Status != nil {
		status := domain.NormalizeTaskStatus(string(*params.Filter.Status))
		filter.Status = &status
	}
	if params.Filter.Priority != nil {
		priority := domain.NormalizeTaskPriority(string(*params.Filter.Priority))
		filter.Priority = &priority
	}

	// One extra row tells us whether another page exists
	rows, err := s.repo.List(ctx, store.TaskQuery{
		TaskFilter: filter,
		AfterID:    params.Cursor,
		Limit:      limit + 1,
	})
	if err != nil {
		log.Error("failed to list tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", params.OwnerID.String()))
		return nil, NewTaskServiceError("list_tasks", "failed to fetch page", err)
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error("failed to count tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", params.OwnerID.String()))
		return nil, NewTaskServiceError("list_tasks", "failed to count tasks", err)
	}

	page := &TaskPage{Total: total, HasNext: len(rows) > limit}
	if page.HasNext {
		rows = rows[:limit]
	}
	page.Items = rows
	if len(rows) > 0 {
		last := rows[len(rows)-1].ID
		page.NextCursor = &last
	}

	log.Debug("listed tasks",
		slog.String("user_id", params.OwnerID.String()),
		slog.Int("count", len(rows)),
		slog.Int("total", total),
		slog.Bool("has_next", page.HasNext))

	return page, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, userID uuid.UUID, taskID string) (*domain.Task, error) {
	task, err := s.loadOwned(ctx, s.repo, userID, taskID)
	if err != nil {
		return nil, NewTaskServiceError("get_task", "access denied or missing", err)
	}
	return task, nil
}

func (s *taskServiceImpl) CreateTask(
	ctx context.Context,
	userID uuid.UUID,
	params CreateTaskParams,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(userID, params.Title, params.Description, params.Status, params.Priority)
	if err != nil {
		log.Debug("invalid task input", slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.repo.Create(ctx, task); err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, NewTaskServiceError("create_task", "failed to save task", err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID),
		slog.String("user_id", userID.String()))
	s.emit(ctx, events.TaskCreated, task)

	return task, nil
}

func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	userID uuid.UUID,
	taskID string,
	patch domain.TaskPatch,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.Task
	err := store.RunInTransaction(ctx, s.repo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txRepo := s.repo.WithTx(tx)

		task, err := s.loadOwned(ctx, txRepo, userID, taskID)
		if err != nil {
			return err
		}

		if err := task.Apply(patch); err != nil {
			return err
		}

		if err := txRepo.Update(ctx, task); err != nil {
			return err
		}

		updated = task
		return nil
	})
	if err != nil {
		if isValidation(err) {
			return nil, err
		}
		return nil, NewTaskServiceError("update_task", "failed to update task", err)
	}

	log.Info("task updated", slog.String("task_id", taskID))
	s.emit(ctx, events.TaskUpdated, updated)

	return updated, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, userID uuid.UUID, taskID string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var deleted *domain.Task
	err := store.RunInTransaction(ctx, s.repo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txRepo := s.repo.WithTx(tx)

		task, err := s.loadOwned(ctx, txRepo, userID, taskID)
		if err != nil {
			return err
		}

		if err := txRepo.Delete(ctx, task.ID); err != nil {
			return err
		}

		deleted = task
		return nil
	})
	if err != nil {
		return NewTaskServiceError("delete_task", "failed to delete task", err)
	}

	log.Info("task deleted", slog.String("task_id", taskID))
	s.emit(ctx, events.TaskDeleted, deleted)

	return nil
}

// loadOwned checks existence before ownership, so a caller probing someone
// else's real id learns that it exists.
func (s *taskServiceImpl) loadOwned(
	ctx context.Context,
	repo TaskRepository,
	userID uuid.UUID,
	taskID string,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := repo.GetByID(ctx, taskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("task not found", slog.String("task_id", taskID))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to load task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID))
		return nil, err
	}

	if !task.IsOwnedBy(userID) {
		log.Warn("task access denied",
			slog.String("task_id", taskID),
			slog.String("user_id", userID.String()))
		return nil, ErrNotOwned
	}

	return task, nil
}

func (s *taskServiceImpl) emit(ctx context.Context, eventType string, task *domain.Task) {
	event, err := events.NewTaskEvent(eventType, task)
	if err == nil {
		err = s.emitter.Emit(ctx, event)
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to emit task event",
			slog.String("error", err.Error()),
			slog.String("event_type", eventType),
			slog.String("task_id", task.ID))
	}
}

func isValidation(err error) bool {
	var ve *domain.ValidationError
	return errors.As(err, &ve) || errors.Is(err, domain.ErrValidation)
}

package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/service"
	"github.com/stretchr/testify/mock"
)

// MockTaskService is a testify mock of service.TaskService.
type MockTaskService struct {
	mock.Mock
}

var _ service.TaskService = (*MockTaskService)(nil)

func (m *MockTaskService) ListTasks(ctx context.Context, params service.ListTasksParams) (*service.TaskPage, error) {
	args := m.Called(ctx, params)
	if page, ok := args.Get(0).(*service.TaskPage); ok {
		return page, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTaskService) GetTask(ctx context.Context, userID uuid.UUID, taskID string) (*domain.Task, error) {
	args := m.Called(ctx, userID, taskID)
	if task, ok := args.Get(0).(*domain.Task); ok {
		return task, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTaskService) CreateTask(
	ctx context.Context,
	userID uuid.UUID,
	params service.CreateTaskParams,
) (*domain.Task, error) {
	args := m.Called(ctx, userID, params)
	if task, ok := args.Get(0).(*domain.Task); ok {
		return task, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTaskService) UpdateTask(
	ctx context.Context,
	userID uuid.UUID,
	taskID string,
	patch domain.TaskPatch,
) (*domain.Task, error) {
	args := m.Called(ctx, userID, taskID, patch)
	if task, ok := args.Get(0).(*domain.Task); ok {
		return task, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTaskService) DeleteTask(ctx context.Context, userID uuid.UUID, taskID string) error {
	args := m.Called(ctx, userID, taskID)
	return args.Error(0)
}

package mocks

import (
	"context"
	"io"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/stretchr/testify/mock"
)

// MockTaskService is a testify mock of service.TaskService
type MockTaskService struct {
	mock.Mock
}

var _ service.TaskService = (*MockTaskService)(nil)

func (m *MockTaskService) CreateTask(ctx context.Context, actor *domain.User, in service.TaskInput) (*domain.Task, error) {
	args := m.Called(ctx, actor, in)
	return taskArg(args, 0), args.Error(1)
}

func (m *MockTaskService) GetTask(ctx context.Context, actor *domain.User, id int64) (*domain.Task, error) {
	args := m.Called(ctx, actor, id)
	return taskArg(args, 0), args.Error(1)
}

func (m *MockTaskService) ListTasks(ctx context.Context, actor *domain.User, skip, limit int) ([]*domain.Task, error) {
	args := m.Called(ctx, actor, skip, limit)
	tasks, _ := args.Get(0).([]*domain.Task)
	return tasks, args.Error(1)
}

func (m *MockTaskService) CountTasks(ctx context.Context, actor *domain.User) (int, error) {
	args := m.Called(ctx, actor)
	return args.Int(0), args.Error(1)
}

func (m *MockTaskService) UpdateTask(ctx context.Context, actor *domain.User, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	args := m.Called(ctx, actor, id, patch)
	return taskArg(args, 0), args.Error(1)
}

func (m *MockTaskService) DeleteTask(ctx context.Context, actor *domain.User, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

func taskArg(args mock.Arguments, i int) *domain.Task {
	task, _ := args.Get(i).(*domain.Task)
	return task
}

// MockAttachmentService is a testify mock of service.AttachmentService
type MockAttachmentService struct {
	mock.Mock
}

var _ service.AttachmentService = (*MockAttachmentService)(nil)

// Upload drains the upload content into the recorded call so tests can
// assert on the bytes received.
func (m *MockAttachmentService) Upload(ctx context.Context, actor *domain.User, taskID int64, up service.Upload) (*domain.Attachment, error) {
	body, _ := io.ReadAll(up.Content)
	args := m.Called(ctx, actor, taskID, up.Filename, string(body))
	att, _ := args.Get(0).(*domain.Attachment)
	return att, args.Error(1)
}

func (m *MockAttachmentService) Open(ctx context.Context, actor *domain.User, taskID int64) (*domain.Attachment, io.ReadSeekCloser, error) {
	args := m.Called(ctx, actor, taskID)
	att, _ := args.Get(0).(*domain.Attachment)
	content, _ := args.Get(1).(io.ReadSeekCloser)
	return att, content, args.Error(2)
}

func (m *MockAttachmentService) Delete(ctx context.Context, actor *domain.User, taskID int64) error {
	return m.Called(ctx, actor, taskID).Error(0)
}

// MockQuoteService is a testify mock of service.QuoteService
type MockQuoteService struct {
	mock.Mock
}

var _ service.QuoteService = (*MockQuoteService)(nil)

func (m *MockQuoteService) GetQuote(ctx context.Context, useFallback bool) (*domain.Quote, error) {
	args := m.Called(ctx, useFallback)
	q, _ := args.Get(0).(*domain.Quote)
	return q, args.Error(1)
}

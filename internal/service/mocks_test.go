package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/realtime"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, m, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, m
}

// MockTaskStore mocks store.TaskStore. WithTx returns the mock itself.
type MockTaskStore struct {
	mock.Mock
}

func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskStore) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// Hand out a copy so the service cannot mutate the fixture.
	t := *args.Get(0).(*domain.Task)
	return &t, args.Error(1)
}

func (m *MockTaskStore) List(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Task), args.Error(1)
}

func (m *MockTaskStore) Count(ctx context.Context, ownerID *int64) (int, error) {
	args := m.Called(ctx, ownerID)
	return args.Int(0), args.Error(1)
}

func (m *MockTaskStore) Update(ctx context.Context, task *domain.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskStore) WithTx(*sql.Tx) store.TaskStore { return m }

// MockAttachmentStore mocks store.AttachmentStore. WithTx returns the mock itself.
type MockAttachmentStore struct {
	mock.Mock
}

func (m *MockAttachmentStore) Replace(ctx context.Context, a *domain.Attachment) (*domain.Attachment, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Attachment), args.Error(1)
}

func (m *MockAttachmentStore) GetByTaskID(ctx context.Context, taskID int64) (*domain.Attachment, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Attachment), args.Error(1)
}

func (m *MockAttachmentStore) DeleteByTaskID(ctx context.Context, taskID int64) (*domain.Attachment, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Attachment), args.Error(1)
}

func (m *MockAttachmentStore) WithTx(*sql.Tx) store.AttachmentStore { return m }

// recordingEmitter captures emitted events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []realtime.DomainEvent
}

func (r *recordingEmitter) Emit(_ context.Context, ev realtime.DomainEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingEmitter) kinds() []realtime.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]realtime.EventKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

var (
	alice = &domain.User{ID: 2, Username: "alice", Role: domain.RoleUser}
	bob   = &domain.User{ID: 3, Username: "bob", Role: domain.RoleUser}
	admin = &domain.User{ID: 1, Username: "root", Role: domain.RoleAdmin}
)

func aliceTask() *domain.Task {
	return &domain.Task{ID: 10, Title: "write report", Status: domain.StatusTodo, OwnerID: alice.ID}
}

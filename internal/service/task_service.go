package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/realtime"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// TaskInput carries the fields of a new task.
type TaskInput struct {
	Title       string
	Description string
	Status      domain.TaskStatus
	DueDate     *time.Time
}

// TaskService manages tasks on behalf of an authenticated user. Standard
// users only see and modify their own tasks; privileged users see all.
type TaskService interface {
	CreateTask(ctx context.Context, actor *domain.User, in TaskInput) (*domain.Task, error)

	// GetTask returns store.ErrTaskNotFound or ErrNotOwned.
	GetTask(ctx context.Context, actor *domain.User, id int64) (*domain.Task, error)

	ListTasks(ctx context.Context, actor *domain.User, skip, limit int) ([]*domain.Task, error)
	CountTasks(ctx context.Context, actor *domain.User) (int, error)

	// UpdateTask applies patch atomically and returns the updated task.
	UpdateTask(ctx context.Context, actor *domain.User, id int64, patch domain.TaskPatch) (*domain.Task, error)

	DeleteTask(ctx context.Context, actor *domain.User, id int64) error
}

type taskService struct {
	db     *sql.DB
	tasks  store.TaskStore
	events realtime.Emitter
	logger *slog.Logger
}

// NewTaskService creates a TaskService. Events are emitted through events
// after each successful commit.
func NewTaskService(db *sql.DB, tasks store.TaskStore, events realtime.Emitter, logger *slog.Logger) (TaskService, error) {
	if db == nil || tasks == nil || events == nil {
		return nil, errors.New("task service requires a database, task store and event emitter")
	}
	return &taskService{
		db:     db,
		tasks:  tasks,
		events: events,
		logger: logger.With("component", "task_service"),
	}, nil
}

func canAccess(actor *domain.User, task *domain.Task) bool {
	return actor.Role.IsPrivileged() || task.IsOwnedBy(actor.ID)
}

func (s *taskService) CreateTask(ctx context.Context, actor *domain.User, in TaskInput) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(actor.ID, in.Title, in.Description, in.Status, in.DueDate)
	if err != nil {
		return nil, err
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		log.Error("failed to create task", "error", err, "user_id", actor.ID)
		return nil, taskError("create", err)
	}

	log.Info("task created", "task_id", task.ID, "user_id", actor.ID)
	s.events.Emit(ctx, realtime.TaskCreatedEvent(task, actor.Actor()))
	return task, nil
}

func (s *taskService) GetTask(ctx context.Context, actor *domain.User, id int64) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, store.ErrTaskNotFound
		}
		return nil, taskError("get", err)
	}
	if !canAccess(actor, task) {
		return nil, ErrNotOwned
	}
	return task, nil
}

func (s *taskService) ListTasks(ctx context.Context, actor *domain.User, skip, limit int) ([]*domain.Task, error) {
	if skip < 0 || limit < 1 || limit > store.MaxListLimit {
		return nil, ErrInvalidPagination
	}
	filter := store.TaskFilter{Skip: skip, Limit: limit}
	if !actor.Role.IsPrivileged() {
		filter.OwnerID = &actor.ID
	}

	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, taskError("list", err)
	}
	return tasks, nil
}

func (s *taskService) CountTasks(ctx context.Context, actor *domain.User) (int, error) {
	var owner *int64
	if !actor.Role.IsPrivileged() {
		owner = &actor.ID
	}
	n, err := s.tasks.Count(ctx, owner)
	if err != nil {
		return 0, taskError("count", err)
	}
	return n, nil
}

func (s *taskService) UpdateTask(ctx context.Context, actor *domain.User, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		task      *domain.Task
		changes   domain.Changes
		oldStatus domain.TaskStatus
	)
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.tasks.WithTx(tx)

		current, err := txTasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !canAccess(actor, current) {
			return ErrNotOwned
		}

		oldStatus = current.Status
		changes, err = current.Apply(patch)
		if err != nil {
			return err
		}
		if len(changes) > 0 {
			if err := txTasks.Update(ctx, current); err != nil {
				return err
			}
		}
		task = current
		return nil
	})
	if err != nil {
		return nil, s.mapMutationError("update", id, err)
	}

	if len(changes) == 0 {
		return task, nil
	}
	log.Info("task updated", "task_id", id, "user_id", actor.ID, "changed_fields", len(changes))

	s.events.Emit(ctx, realtime.TaskUpdatedEvent(task, actor.Actor(), changes))
	if _, ok := changes["status"]; ok {
		s.events.Emit(ctx, realtime.TaskStatusChangedEvent(task, oldStatus, task.Status, actor.Actor()))
	}
	return task, nil
}

func (s *taskService) DeleteTask(ctx context.Context, actor *domain.User, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var deleted *domain.Task
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.tasks.WithTx(tx)

		task, err := txTasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !canAccess(actor, task) {
			return ErrNotOwned
		}
		if err := txTasks.Delete(ctx, id); err != nil {
			return err
		}
		deleted = task
		return nil
	})
	if err != nil {
		return s.mapMutationError("delete", id, err)
	}

	log.Info("task deleted", "task_id", id, "user_id", actor.ID)
	s.events.Emit(ctx, realtime.TaskDeletedEvent(deleted.ID, deleted.Title, deleted.OwnerID, actor.Actor()))
	return nil
}

// mapMutationError keeps the errors callers branch on and wraps the rest.
func (s *taskService) mapMutationError(op string, id int64, err error) error {
	switch {
	case store.IsNotFoundError(err):
		return store.ErrTaskNotFound
	case errors.Is(err, ErrNotOwned), errors.Is(err, domain.ErrValidation):
		return err
	default:
		s.logger.Error("task mutation failed", "operation", op, "task_id", id, "error", err)
		return taskError(op, err)
	}
}

package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/jobs"
)

// EventKind is a task lifecycle occurrence.
type EventKind string

const (
	EventCreated       EventKind = "created"
	EventUpdated       EventKind = "updated"
	EventDeleted       EventKind = "deleted"
	EventStatusChanged EventKind = "status_changed"
)

// ErrUnknownEventKind is returned for an event whose kind is not one of the
// EventKind constants.
var ErrUnknownEventKind = errors.New("unknown event kind")

// DomainEvent describes a committed task mutation. Events are values and
// are never stored.
type DomainEvent struct {
	Kind    EventKind
	Task    *domain.Task
	Actor   domain.Actor
	OwnerID int64

	// Set for deletions, where Task is nil.
	TaskID    int64
	TaskTitle string

	// Set for status changes.
	OldStatus domain.TaskStatus
	NewStatus domain.TaskStatus

	// Optional field diff for updates.
	Changes domain.Changes
}

// TaskCreatedEvent builds the event for a new task.
func TaskCreatedEvent(task *domain.Task, actor domain.Actor) DomainEvent {
	return DomainEvent{Kind: EventCreated, Task: task, Actor: actor, OwnerID: task.OwnerID}
}

// TaskUpdatedEvent builds the event for a modified task.
func TaskUpdatedEvent(task *domain.Task, actor domain.Actor, changes domain.Changes) DomainEvent {
	return DomainEvent{Kind: EventUpdated, Task: task, Actor: actor, OwnerID: task.OwnerID, Changes: changes}
}

// TaskDeletedEvent builds the event for a removed task.
func TaskDeletedEvent(taskID int64, title string, ownerID int64, actor domain.Actor) DomainEvent {
	return DomainEvent{Kind: EventDeleted, TaskID: taskID, TaskTitle: title, OwnerID: ownerID, Actor: actor}
}

// TaskStatusChangedEvent builds the event for a status transition.
func TaskStatusChangedEvent(task *domain.Task, oldStatus, newStatus domain.TaskStatus, actor domain.Actor) DomainEvent {
	return DomainEvent{
		Kind:      EventStatusChanged,
		Task:      task,
		Actor:     actor,
		OwnerID:   task.OwnerID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
	}
}

// Emitter is what domain services depend on to publish task events.
type Emitter interface {
	Emit(ctx context.Context, ev DomainEvent)
}

// Broadcaster turns domain events into frames and decides which sessions
// receive them. Delivery reliability belongs to the Registry.
type Broadcaster struct {
	registry  *Registry
	submitter jobs.Submitter
	logger    *slog.Logger
	newID     func() string
}

var _ Emitter = (*Broadcaster)(nil)

// NewBroadcaster creates a Broadcaster. Emitted events are delivered on the
// submitter's workers.
func NewBroadcaster(registry *Registry, submitter jobs.Submitter, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		registry:  registry,
		submitter: submitter,
		logger:    logger.With("component", "event_broadcaster"),
		newID:     uuid.NewString,
	}
}

// Emit schedules delivery of ev and returns immediately. Failures are logged
// and never reported to the caller. Call it only after the mutation that
// produced ev has been committed.
func (b *Broadcaster) Emit(ctx context.Context, ev DomainEvent) {
	if ev.Task != nil {
		snapshot := *ev.Task
		ev.Task = &snapshot
	}

	job := jobs.NewFuncJob("realtime.broadcast."+string(ev.Kind), func(ctx context.Context) error {
		_, err := b.Deliver(ctx, ev)
		return err
	})
	if err := b.submitter.Submit(job); err != nil {
		b.logger.WarnContext(ctx, "dropping task event",
			"event_kind", ev.Kind,
			"task_id", ev.taskID(),
			"error", err)
	}
}

// Deliver sends ev to its recipients now and returns how many sessions
// received it.
func (b *Broadcaster) Deliver(ctx context.Context, ev DomainEvent) (int, error) {
	msg, err := b.message(ev)
	if err != nil {
		return 0, err
	}
	eventID := b.newID()
	msg.envelope().EventID = eventID

	recipients := b.Recipients(ev)
	delivered := b.registry.SendToSessions(ctx, recipients, msg)

	b.logger.DebugContext(ctx, "task event delivered",
		"event_id", eventID,
		"event_kind", ev.Kind,
		"task_id", ev.taskID(),
		"recipients", len(recipients),
		"delivered", delivered)
	return delivered, nil
}

// Recipients returns the de-duplicated sessions that should receive ev.
func (b *Broadcaster) Recipients(ev DomainEvent) []SessionID {
	var groups [][]SessionID
	switch ev.Kind {
	case EventCreated:
		groups = append(groups, b.registry.SessionsForIdentity(ev.Actor.ID))
	case EventUpdated, EventDeleted:
		if ev.OwnerID != ev.Actor.ID {
			groups = append(groups, b.registry.SessionsForIdentity(ev.OwnerID))
		}
		groups = append(groups, b.registry.SessionsForIdentity(ev.Actor.ID))
	case EventStatusChanged:
		groups = append(groups, b.registry.SessionsForIdentity(ev.OwnerID))
	default:
		return nil
	}
	groups = append(groups, b.registry.PrivilegedSessions())

	seen := make(map[SessionID]struct{})
	var ids []SessionID
	for _, g := range groups {
		for _, id := range g {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

func (b *Broadcaster) message(ev DomainEvent) (Message, error) {
	switch ev.Kind {
	case EventCreated:
		return &TaskCreated{Envelope: Envelope{Type: TypeTaskCreated}, Task: ev.Task, User: ev.Actor}, nil
	case EventUpdated:
		return &TaskUpdated{Envelope: Envelope{Type: TypeTaskUpdated}, Task: ev.Task, User: ev.Actor, Changes: ev.Changes}, nil
	case EventDeleted:
		return &TaskDeleted{Envelope: Envelope{Type: TypeTaskDeleted}, TaskID: ev.taskID(), TaskTitle: ev.TaskTitle, User: ev.Actor}, nil
	case EventStatusChanged:
		return &TaskStatusChanged{
			Envelope:  Envelope{Type: TypeTaskStatusChanged},
			Task:      ev.Task,
			OldStatus: ev.OldStatus,
			NewStatus: ev.NewStatus,
			UpdatedBy: ev.Actor,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventKind, ev.Kind)
	}
}

func (ev DomainEvent) taskID() int64 {
	if ev.Task != nil {
		return ev.Task.ID
	}
	return ev.TaskID
}

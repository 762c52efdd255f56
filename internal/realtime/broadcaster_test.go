package realtime

import (
	"context"
	"testing"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTask(id, owner int64) *domain.Task {
	return &domain.Task{ID: id, Title: "write report", Status: domain.StatusTodo, OwnerID: owner}
}

func TestDeliver_CreatedFanOut(t *testing.T) {
	r := NewRegistry(testLogger())
	b := NewBroadcaster(r, inlineSubmitter{}, testLogger())
	_, actorA := mustRegister(t, r, 7, domain.RoleUser)
	_, actorB := mustRegister(t, r, 7, domain.RoleUser)
	_, admin := mustRegister(t, r, 9, domain.RoleAdmin)
	_, bystander := mustRegister(t, r, 8, domain.RoleUser)

	actor := domain.Actor{ID: 7, Username: "seven", Role: domain.RoleUser}
	n, err := b.Deliver(context.Background(), TaskCreatedEvent(sampleTask(42, 7), actor))

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	for _, c := range []*fakeConn{actorA, actorB, admin} {
		got := c.framesOfType(t, TypeTaskCreated)
		require.Len(t, got, 1)
		task := got[0]["task"].(map[string]any)
		assert.EqualValues(t, 42, task["id"])
		assert.Equal(t, "seven", got[0]["user"].(map[string]any)["username"])
	}
	assert.Empty(t, bystander.framesOfType(t, TypeTaskCreated))
}

func TestDeliver_UpdatedDistinctOwnerAndActor(t *testing.T) {
	tests := []struct {
		name      string
		ownerRole domain.Role
		actorRole domain.Role
	}{
		{"standard owner and actor", domain.RoleUser, domain.RoleUser},
		{"privileged owner", domain.RoleAdmin, domain.RoleUser},
		{"privileged actor", domain.RoleUser, domain.RoleAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(testLogger())
			b := NewBroadcaster(r, inlineSubmitter{}, testLogger())
			ownerID, owner := mustRegister(t, r, 3, tt.ownerRole)
			actorID, actor := mustRegister(t, r, 4, tt.actorRole)
			adminID, admin := mustRegister(t, r, 1, domain.RoleAdmin)

			ev := TaskUpdatedEvent(sampleTask(10, 3), domain.Actor{ID: 4, Role: tt.actorRole}, domain.Changes{
				"title": {Old: "a", New: "b"},
			})
			assert.ElementsMatch(t, []SessionID{ownerID, actorID, adminID}, b.Recipients(ev))

			n, err := b.Deliver(context.Background(), ev)
			require.NoError(t, err)
			assert.Equal(t, 3, n)
			for _, c := range []*fakeConn{owner, actor, admin} {
				got := c.framesOfType(t, TypeTaskUpdated)
				require.Len(t, got, 1)
				assert.Contains(t, got[0]["changes"], "title")
			}
		})
	}
}

func TestDeliver_DeletedUsesOwnerAndDeleter(t *testing.T) {
	r := NewRegistry(testLogger())
	b := NewBroadcaster(r, inlineSubmitter{}, testLogger())
	_, owner := mustRegister(t, r, 3, domain.RoleUser)
	_, deleter := mustRegister(t, r, 1, domain.RoleAdmin)

	n, err := b.Deliver(context.Background(), TaskDeletedEvent(10, "old task", 3, domain.Actor{ID: 1, Role: domain.RoleAdmin}))

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	for _, c := range []*fakeConn{owner, deleter} {
		got := c.framesOfType(t, TypeTaskDeleted)
		require.Len(t, got, 1)
		assert.EqualValues(t, 10, got[0]["task_id"])
		assert.Equal(t, "old task", got[0]["task_title"])
	}
}

func TestDeliver_StatusChangedGoesToOwnerAndPrivileged(t *testing.T) {
	r := NewRegistry(testLogger())
	b := NewBroadcaster(r, inlineSubmitter{}, testLogger())
	_, owner := mustRegister(t, r, 3, domain.RoleUser)
	_, actor := mustRegister(t, r, 4, domain.RoleUser)
	_, admin := mustRegister(t, r, 1, domain.RoleAdmin)

	task := sampleTask(10, 3)
	task.Status = domain.StatusDone
	ev := TaskStatusChangedEvent(task, domain.StatusTodo, domain.StatusDone, domain.Actor{ID: 4})

	n, err := b.Deliver(context.Background(), ev)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, actor.framesOfType(t, TypeTaskStatusChanged))
	for _, c := range []*fakeConn{owner, admin} {
		got := c.framesOfType(t, TypeTaskStatusChanged)
		require.Len(t, got, 1)
		assert.Equal(t, "todo", got[0]["old_status"])
		assert.Equal(t, "done", got[0]["new_status"])
		assert.EqualValues(t, 4, got[0]["updated_by"].(map[string]any)["id"])
	}
}

func TestDeliver_FreshEventIDPerEmission(t *testing.T) {
	r := NewRegistry(testLogger())
	b := NewBroadcaster(r, inlineSubmitter{}, testLogger())
	_, admin := mustRegister(t, r, 1, domain.RoleAdmin)
	ev := TaskCreatedEvent(sampleTask(1, 1), domain.Actor{ID: 1})

	_, err := b.Deliver(context.Background(), ev)
	require.NoError(t, err)
	_, err = b.Deliver(context.Background(), ev)
	require.NoError(t, err)

	got := admin.framesOfType(t, TypeTaskCreated)
	require.Len(t, got, 2)
	assert.NotEmpty(t, got[0]["event_id"])
	assert.NotEqual(t, got[0]["event_id"], got[1]["event_id"])
}

func TestDeliver_UnknownKind(t *testing.T) {
	b := NewBroadcaster(NewRegistry(testLogger()), inlineSubmitter{}, testLogger())

	_, err := b.Deliver(context.Background(), DomainEvent{Kind: "archived"})

	assert.ErrorIs(t, err, ErrUnknownEventKind)
}

func TestEmit_SnapshotsTask(t *testing.T) {
	r := NewRegistry(testLogger())
	b := NewBroadcaster(r, inlineSubmitter{}, testLogger())
	_, admin := mustRegister(t, r, 1, domain.RoleAdmin)

	task := sampleTask(5, 1)
	b.Emit(context.Background(), TaskCreatedEvent(task, domain.Actor{ID: 1}))
	task.Title = "mutated later"

	got := admin.framesOfType(t, TypeTaskCreated)
	require.Len(t, got, 1)
	assert.Equal(t, "write report", got[0]["task"].(map[string]any)["title"])
}

func TestEmit_QueueFullIsSwallowed(t *testing.T) {
	r := NewRegistry(testLogger())
	b := NewBroadcaster(r, rejectingSubmitter{}, testLogger())
	_, admin := mustRegister(t, r, 1, domain.RoleAdmin)

	assert.NotPanics(t, func() {
		b.Emit(context.Background(), TaskCreatedEvent(sampleTask(5, 1), domain.Actor{ID: 1}))
	})
	assert.Empty(t, admin.framesOfType(t, TypeTaskCreated))
}

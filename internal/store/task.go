package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/taskflow-api/internal/domain"
)

// MaxListLimit caps the page size of task listings.
const MaxListLimit = 1000

// TaskFilter scopes a task listing. A nil OwnerID lists every task.
type TaskFilter struct {
	OwnerID *int64
	Skip    int
	Limit   int
}

// TaskStore defines the interface for task persistence. Tasks returned by
// the read methods have their Attachment populated when one exists.
type TaskStore interface {
	// Create inserts task and sets its ID and timestamps.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Task, error)

	// List returns tasks ordered by creation time, newest first.
	List(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)

	// Count returns the number of tasks visible under ownerID (nil for all).
	Count(ctx context.Context, ownerID *int64) (int, error)

	// Update persists the mutable fields of task.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes the task and, through the schema, its attachment row.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id int64) error

	// WithTx returns a TaskStore bound to tx.
	WithTx(tx *sql.Tx) TaskStore
}

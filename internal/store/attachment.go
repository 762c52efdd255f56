package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/taskflow-api/internal/domain"
)

// AttachmentStore persists the single attachment a task may carry.
type AttachmentStore interface {
	// Replace stores a as the task's attachment, removing any previous row.
	// It returns the replaced attachment, or nil if there was none.
	Replace(ctx context.Context, a *domain.Attachment) (*domain.Attachment, error)

	// GetByTaskID returns ErrAttachmentNotFound if the task has no attachment.
	GetByTaskID(ctx context.Context, taskID int64) (*domain.Attachment, error)

	// DeleteByTaskID removes the task's attachment and returns it.
	// Returns ErrAttachmentNotFound if the task has no attachment.
	DeleteByTaskID(ctx context.Context, taskID int64) (*domain.Attachment, error)

	// WithTx returns an AttachmentStore bound to tx.
	WithTx(tx *sql.Tx) AttachmentStore
}

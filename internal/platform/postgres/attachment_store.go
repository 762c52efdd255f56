package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/store"
)

const attachmentColumns = `id, task_id, filename, original_filename, file_path, file_size,
	content_type, uploaded_by, uploaded_at`

// PostgresAttachmentStore implements store.AttachmentStore on PostgreSQL.
type PostgresAttachmentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.AttachmentStore = (*PostgresAttachmentStore)(nil)

// NewPostgresAttachmentStore creates an attachment store on db.
func NewPostgresAttachmentStore(db store.DBTX, logger *slog.Logger) *PostgresAttachmentStore {
	return &PostgresAttachmentStore{db: db, logger: logger.With("component", "attachment_store")}
}

// WithTx implements store.AttachmentStore.WithTx.
func (s *PostgresAttachmentStore) WithTx(tx *sql.Tx) store.AttachmentStore {
	return &PostgresAttachmentStore{db: tx, logger: s.logger}
}

// Replace implements store.AttachmentStore.Replace. Callers that need the
// delete and insert to be atomic run it through WithTx.
func (s *PostgresAttachmentStore) Replace(ctx context.Context, a *domain.Attachment) (*domain.Attachment, error) {
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	previous, err := s.DeleteByTaskID(ctx, a.TaskID)
	if err != nil && !errors.Is(err, store.ErrAttachmentNotFound) {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx,
		`INSERT INTO attachments (task_id, filename, original_filename, file_path, file_size, content_type, uploaded_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, uploaded_at`,
		a.TaskID, a.Filename, a.OriginalFilename, a.FilePath, a.FileSize, a.ContentType, a.UploadedBy,
	).Scan(&a.ID, &a.UploadedAt)
	if err != nil {
		s.logger.Error("failed to insert attachment", "task_id", a.TaskID, "error", err)
		return nil, MapError(err)
	}
	return previous, nil
}

// GetByTaskID implements store.AttachmentStore.GetByTaskID.
func (s *PostgresAttachmentStore) GetByTaskID(ctx context.Context, taskID int64) (*domain.Attachment, error) {
	a, err := scanAttachment(s.db.QueryRowContext(ctx,
		`SELECT `+attachmentColumns+` FROM attachments WHERE task_id = $1`, taskID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrAttachmentNotFound
	}
	if err != nil {
		return nil, MapError(err)
	}
	return a, nil
}

// DeleteByTaskID implements store.AttachmentStore.DeleteByTaskID.
func (s *PostgresAttachmentStore) DeleteByTaskID(ctx context.Context, taskID int64) (*domain.Attachment, error) {
	a, err := scanAttachment(s.db.QueryRowContext(ctx,
		`DELETE FROM attachments WHERE task_id = $1 RETURNING `+attachmentColumns, taskID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrAttachmentNotFound
	}
	if err != nil {
		return nil, MapError(err)
	}
	return a, nil
}

func scanAttachment(row rowScanner) (*domain.Attachment, error) {
	var a domain.Attachment
	err := row.Scan(&a.ID, &a.TaskID, &a.Filename, &a.OriginalFilename, &a.FilePath,
		&a.FileSize, &a.ContentType, &a.UploadedBy, &a.UploadedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

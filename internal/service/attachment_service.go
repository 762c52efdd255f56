package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/filestore"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/realtime"
	"github.com/phrazzld/taskflow-api/internal/store"
)

var allowedExtensions = map[string]struct{}{
	".pdf": {}, ".doc": {}, ".docx": {}, ".txt": {}, ".md": {}, ".rtf": {},
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".bmp": {}, ".svg": {},
	".zip": {}, ".rar": {}, ".7z": {}, ".tar": {}, ".gz": {},
	".mp3": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".wmv": {},
	".xlsx": {}, ".xls": {}, ".csv": {}, ".ppt": {}, ".pptx": {},
}

// FileStorage stores attachment content by generated file name.
type FileStorage interface {
	Save(name string, r io.Reader, maxBytes int64) (filestore.Saved, error)
	Open(name string) (io.ReadSeekCloser, error)
	Remove(name string) error
}

// Upload is an incoming attachment.
type Upload struct {
	Filename string
	Content  io.Reader
}

// AttachmentService manages the single attachment of a task. Access follows
// the task's ownership rules.
type AttachmentService interface {
	// Upload stores the file and replaces any existing attachment.
	Upload(ctx context.Context, actor *domain.User, taskID int64, up Upload) (*domain.Attachment, error)

	// Open returns the attachment metadata and its content. The caller closes the content.
	Open(ctx context.Context, actor *domain.User, taskID int64) (*domain.Attachment, io.ReadSeekCloser, error)

	// Delete removes the attachment. Returns store.ErrAttachmentNotFound if there is none.
	Delete(ctx context.Context, actor *domain.User, taskID int64) error
}

type attachmentService struct {
	db          *sql.DB
	tasks       store.TaskStore
	attachments store.AttachmentStore
	files       FileStorage
	maxBytes    int64
	events      realtime.Emitter
	logger      *slog.Logger
}

// NewAttachmentService creates an AttachmentService accepting files up to maxBytes.
func NewAttachmentService(
	db *sql.DB,
	tasks store.TaskStore,
	attachments store.AttachmentStore,
	files FileStorage,
	maxBytes int64,
	events realtime.Emitter,
	logger *slog.Logger,
) (AttachmentService, error) {
	if db == nil || tasks == nil || attachments == nil || files == nil || events == nil {
		return nil, errors.New("attachment service is missing a dependency")
	}
	return &attachmentService{
		db:          db,
		tasks:       tasks,
		attachments: attachments,
		files:       files,
		maxBytes:    maxBytes,
		events:      events,
		logger:      logger.With("component", "attachment_service"),
	}, nil
}

func (s *attachmentService) accessibleTask(ctx context.Context, tasks store.TaskStore, actor *domain.User, taskID int64) (*domain.Task, error) {
	task, err := tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !canAccess(actor, task) {
		return nil, ErrNotOwned
	}
	return task, nil
}

func (s *attachmentService) Upload(ctx context.Context, actor *domain.User, taskID int64, up Upload) (*domain.Attachment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	original := filepath.Base(strings.TrimSpace(up.Filename))
	if original == "" || original == "." || original == string(filepath.Separator) {
		return nil, domain.ErrEmptyFilename
	}
	ext := strings.ToLower(filepath.Ext(original))
	if _, ok := allowedExtensions[ext]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrFileTypeNotAllowed, ext)
	}

	if _, err := s.accessibleTask(ctx, s.tasks, actor, taskID); err != nil {
		return nil, s.mapError("upload", err)
	}

	name := uuid.NewString() + ext
	saved, err := s.files.Save(name, up.Content, s.maxBytes)
	if err != nil {
		if errors.Is(err, filestore.ErrTooLarge) {
			return nil, fmt.Errorf("%w: maximum size is %d bytes", ErrFileTooLarge, s.maxBytes)
		}
		return nil, attachmentError("upload", err)
	}

	att := &domain.Attachment{
		TaskID:           taskID,
		Filename:         name,
		OriginalFilename: original,
		ContentType:      saved.ContentType,
		FileSize:         saved.Size,
		FilePath:         name,
		UploadedBy:       actor.ID,
	}

	var (
		previous *domain.Attachment
		task     *domain.Task
	)
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.tasks.WithTx(tx)
		if _, err := s.accessibleTask(ctx, txTasks, actor, taskID); err != nil {
			return err
		}
		if err := att.Validate(); err != nil {
			return err
		}
		var err error
		if previous, err = s.attachments.WithTx(tx).Replace(ctx, att); err != nil {
			return err
		}
		task, err = txTasks.GetByID(ctx, taskID)
		return err
	})
	if err != nil {
		_ = s.files.Remove(name)
		return nil, s.mapError("upload", err)
	}

	if previous != nil {
		if err := s.files.Remove(previous.FilePath); err != nil {
			log.Warn("failed to remove replaced attachment file", "file", previous.FilePath, "error", err)
		}
	}
	log.Info("attachment uploaded", "task_id", taskID, "user_id", actor.ID, "size", saved.Size)

	change := domain.FieldChange{Old: nil, New: att.OriginalFilename}
	if previous != nil {
		change.Old = previous.OriginalFilename
	}
	s.events.Emit(ctx, realtime.TaskUpdatedEvent(task, actor.Actor(), domain.Changes{"attachment": change}))
	return att, nil
}

func (s *attachmentService) Open(ctx context.Context, actor *domain.User, taskID int64) (*domain.Attachment, io.ReadSeekCloser, error) {
	if _, err := s.accessibleTask(ctx, s.tasks, actor, taskID); err != nil {
		return nil, nil, s.mapError("open", err)
	}
	att, err := s.attachments.GetByTaskID(ctx, taskID)
	if err != nil {
		return nil, nil, s.mapError("open", err)
	}
	content, err := s.files.Open(att.FilePath)
	if err != nil {
		return nil, nil, attachmentError("open", fmt.Errorf("attachment file missing: %w", err))
	}
	return att, content, nil
}

func (s *attachmentService) Delete(ctx context.Context, actor *domain.User, taskID int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		removed *domain.Attachment
		task    *domain.Task
	)
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.tasks.WithTx(tx)
		if _, err := s.accessibleTask(ctx, txTasks, actor, taskID); err != nil {
			return err
		}
		var err error
		if removed, err = s.attachments.WithTx(tx).DeleteByTaskID(ctx, taskID); err != nil {
			return err
		}
		task, err = txTasks.GetByID(ctx, taskID)
		return err
	})
	if err != nil {
		return s.mapError("delete", err)
	}

	if err := s.files.Remove(removed.FilePath); err != nil {
		log.Warn("failed to remove attachment file", "file", removed.FilePath, "error", err)
	}
	log.Info("attachment deleted", "task_id", taskID, "user_id", actor.ID)

	s.events.Emit(ctx, realtime.TaskUpdatedEvent(task, actor.Actor(), domain.Changes{
		"attachment": {Old: removed.OriginalFilename, New: nil},
	}))
	return nil
}

func (s *attachmentService) mapError(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrAttachmentNotFound):
		return store.ErrAttachmentNotFound
	case store.IsNotFoundError(err):
		return store.ErrTaskNotFound
	case errors.Is(err, ErrNotOwned), errors.Is(err, domain.ErrValidation):
		return err
	default:
		s.logger.Error("attachment operation failed", "operation", op, "error", err)
		return attachmentError(op, err)
	}
}

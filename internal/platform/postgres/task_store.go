package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

const taskSelect = `
	SELECT t.id, t.title, t.description, t.status, t.due_date, t.owner_id,
	       t.created_at, t.updated_at,
	       a.id, a.filename, a.original_filename, a.file_path, a.file_size,
	       a.content_type, a.uploaded_by, a.uploaded_at
	FROM tasks t
	LEFT JOIN attachments a ON a.task_id = t.id`

// PostgresTaskStore implements store.TaskStore on PostgreSQL.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

// NewPostgresTaskStore creates a task store on db.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	return &PostgresTaskStore{db: db, logger: logger.With("component", "task_store")}
}

// WithTx implements store.TaskStore.WithTx.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger}
}

// Create implements store.TaskStore.Create.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO tasks (title, description, status, due_date, owner_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		task.Title, task.Description, string(task.Status), nullTime(task), task.OwnerID,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to insert task",
			"owner_id", task.OwnerID, "error", err)
		return MapError(err)
	}
	return nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	task, err := scanTask(s.db.QueryRowContext(ctx, taskSelect+` WHERE t.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrTaskNotFound
	}
	if err != nil {
		return nil, MapError(err)
	}
	return task, nil
}

// List implements store.TaskStore.List.
func (s *PostgresTaskStore) List(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	limit := filter.Limit
	if limit <= 0 || limit > store.MaxListLimit {
		limit = store.MaxListLimit
	}
	skip := filter.Skip
	if skip < 0 {
		skip = 0
	}

	var (
		rows *sql.Rows
		err  error
	)
	if filter.OwnerID != nil {
		rows, err = s.db.QueryContext(ctx,
			taskSelect+` WHERE t.owner_id = $1 ORDER BY t.created_at DESC, t.id DESC OFFSET $2 LIMIT $3`,
			*filter.OwnerID, skip, limit)
	} else {
		rows, err = s.db.QueryContext(ctx,
			taskSelect+` ORDER BY t.created_at DESC, t.id DESC OFFSET $1 LIMIT $2`,
			skip, limit)
	}
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, MapError(err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return tasks, nil
}

// Count implements store.TaskStore.Count.
func (s *PostgresTaskStore) Count(ctx context.Context, ownerID *int64) (int, error) {
	var n int
	var err error
	if ownerID != nil {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE owner_id = $1`, *ownerID).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&n)
	}
	if err != nil {
		return 0, MapError(err)
	}
	return n, nil
}

// Update implements store.TaskStore.Update.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks
		 SET title = $1, description = $2, status = $3, due_date = $4, updated_at = $5
		 WHERE id = $6`,
		task.Title, task.Description, string(task.Status), nullTime(task), task.UpdatedAt, task.ID)
	if err != nil {
		return MapError(err)
	}
	return checkRowsAffected(result, store.ErrTaskNotFound)
}

// Delete implements store.TaskStore.Delete.
func (s *PostgresTaskStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	return checkRowsAffected(result, store.ErrTaskNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		t       domain.Task
		status  string
		due     sql.NullTime
		attID   sql.NullInt64
		attName sql.NullString
		attOrig sql.NullString
		attPath sql.NullString
		attSize sql.NullInt64
		attType sql.NullString
		attBy   sql.NullInt64
		attAt   sql.NullTime
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &status, &due, &t.OwnerID,
		&t.CreatedAt, &t.UpdatedAt,
		&attID, &attName, &attOrig, &attPath, &attSize, &attType, &attBy, &attAt)
	if err != nil {
		return nil, err
	}

	t.Status = domain.TaskStatus(status)
	if due.Valid {
		d := due.Time.UTC()
		t.DueDate = &d
	}
	if attID.Valid {
		t.Attachment = &domain.Attachment{
			ID:               attID.Int64,
			TaskID:           t.ID,
			Filename:         attName.String,
			OriginalFilename: attOrig.String,
			FilePath:         attPath.String,
			FileSize:         attSize.Int64,
			ContentType:      attType.String,
			UploadedBy:       attBy.Int64,
			UploadedAt:       attAt.Time,
		}
	}
	return &t, nil
}

func nullTime(task *domain.Task) sql.NullTime {
	if task.DueDate == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *task.DueDate, Valid: true}
}

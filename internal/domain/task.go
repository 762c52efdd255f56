package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusDone       TaskStatus = "done"
)

// ParseTaskStatus converts s into a TaskStatus, returning ErrInvalidStatus for unknown values.
func ParseTaskStatus(s string) (TaskStatus, error) {
	st := TaskStatus(s)
	if !st.Valid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

const maxTitleLength = 200

// Task is a unit of work owned by a single user.
type Task struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Status      TaskStatus  `json:"status"`
	DueDate     *time.Time  `json:"due_date"`
	OwnerID     int64       `json:"owner_id"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Attachment  *Attachment `json:"attachment"`
}

// NewTask builds a validated task owned by ownerID. An empty status defaults to todo.
func NewTask(ownerID int64, title, description string, status TaskStatus, dueDate *time.Time) (*Task, error) {
	if status == "" {
		status = StatusTodo
	}
	now := time.Now().UTC()
	t := &Task{
		Title:       strings.TrimSpace(title),
		Description: description,
		Status:      status,
		DueDate:     dueDate,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the task's fields.
func (t *Task) Validate() error {
	if t.Title == "" {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(t.Title) > maxTitleLength {
		return ErrTitleTooLong
	}
	if !t.Status.Valid() {
		return ErrInvalidStatus
	}
	if t.OwnerID <= 0 {
		return ErrInvalidOwner
	}
	return nil
}

// IsOwnedBy reports whether userID owns t.
func (t *Task) IsOwnedBy(userID int64) bool {
	return t.OwnerID == userID
}

// TaskPatch is a partial update. Nil fields are left unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	DueDate     *time.Time
}

// FieldChange records the previous and new value of a modified field.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Changes maps a field's JSON name to its change.
type Changes map[string]FieldChange

// Apply mutates t with the non-nil fields of p and returns the fields whose
// value actually changed. The task is validated after the patch is applied;
// on error t is left untouched.
func (t *Task) Apply(p TaskPatch) (Changes, error) {
	next := *t
	changes := Changes{}

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title != t.Title {
			changes["title"] = FieldChange{Old: t.Title, New: title}
			next.Title = title
		}
	}
	if p.Description != nil && *p.Description != t.Description {
		changes["description"] = FieldChange{Old: t.Description, New: *p.Description}
		next.Description = *p.Description
	}
	if p.Status != nil && *p.Status != t.Status {
		changes["status"] = FieldChange{Old: t.Status, New: *p.Status}
		next.Status = *p.Status
	}
	if p.DueDate != nil && (t.DueDate == nil || !p.DueDate.Equal(*t.DueDate)) {
		due := p.DueDate.UTC()
		changes["due_date"] = FieldChange{Old: t.DueDate, New: due}
		next.DueDate = &due
	}

	if err := next.Validate(); err != nil {
		return nil, err
	}
	if len(changes) > 0 {
		next.UpdatedAt = time.Now().UTC()
	}
	*t = next
	return changes, nil
}

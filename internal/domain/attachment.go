package domain

import (
	"fmt"
	"time"
)

// Attachment is the single file stored against a task.
type Attachment struct {
	ID               int64     `json:"id"`
	TaskID           int64     `json:"task_id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	ContentType      string    `json:"content_type"`
	FileSize         int64     `json:"file_size"`
	FilePath         string    `json:"-"`
	UploadedBy       int64     `json:"uploaded_by"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// Validate checks the attachment's fields.
func (a *Attachment) Validate() error {
	if a.Filename == "" || a.FilePath == "" {
		return ErrEmptyFilename
	}
	if a.TaskID <= 0 || a.UploadedBy <= 0 {
		return fmt.Errorf("%w: attachment must reference a task and uploader", ErrValidation)
	}
	return nil
}

// DownloadURL is the API path that serves the attachment's content.
func (a *Attachment) DownloadURL() string {
	return fmt.Sprintf("/api/tasks/%d/attachment", a.TaskID)
}

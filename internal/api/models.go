package api

import (
	"time"

	"github.com/phrazzld/taskflow-api/internal/domain"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email"    validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Role     string `json:"role"     validate:"omitempty,oneof=user admin"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID       int64       `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"role"`
}

func userToResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

// CreateTaskRequest defines the payload for creating a task.
type CreateTaskRequest struct {
	Title       string     `json:"title"       validate:"required,min=1,max=200"`
	Description string     `json:"description"`
	Status      string     `json:"status"      validate:"omitempty,oneof=todo in-progress done"`
	DueDate     *time.Time `json:"due_date"`
}

// UpdateTaskRequest is a partial update; absent fields are left unchanged.
type UpdateTaskRequest struct {
	Title       *string    `json:"title"       validate:"omitnil,min=1,max=200"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"      validate:"omitnil,oneof=todo in-progress done"`
	DueDate     *time.Time `json:"due_date"`
}

func (req UpdateTaskRequest) patch() domain.TaskPatch {
	p := domain.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	}
	if req.Status != nil {
		st := domain.TaskStatus(*req.Status)
		p.Status = &st
	}
	return p
}

// AttachmentResponse describes a task's attachment.
type AttachmentResponse struct {
	ID               int64     `json:"id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	FileSize         int64     `json:"file_size"`
	ContentType      string    `json:"content_type"`
	FileURL          string    `json:"file_url"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

func attachmentToResponse(a *domain.Attachment) *AttachmentResponse {
	if a == nil {
		return nil
	}
	return &AttachmentResponse{
		ID:               a.ID,
		Filename:         a.Filename,
		OriginalFilename: a.OriginalFilename,
		FileSize:         a.FileSize,
		ContentType:      a.ContentType,
		FileURL:          a.DownloadURL(),
		UploadedAt:       a.UploadedAt,
	}
}

// AttachmentUploadResponse is returned after a successful upload.
type AttachmentUploadResponse struct {
	AttachmentResponse
	Message string `json:"message"`
}

// TaskResponse is the public view of a task.
type TaskResponse struct {
	ID          int64               `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      domain.TaskStatus   `json:"status"`
	DueDate     *time.Time          `json:"due_date"`
	OwnerID     int64               `json:"owner_id"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Attachment  *AttachmentResponse `json:"attachment"`
}

func taskToResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		DueDate:     t.DueDate,
		OwnerID:     t.OwnerID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Attachment:  attachmentToResponse(t.Attachment),
	}
}

// TaskCountResponse is returned by the task count endpoint.
type TaskCountResponse struct {
	TotalTasks int `json:"total_tasks"`
}

// BroadcastRequest is an administrator announcement to every realtime session.
type BroadcastRequest struct {
	Message string `json:"message" validate:"required,min=1,max=1000"`
}

// SuccessResponse acknowledges an administrative action.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// BroadcastResponse reports how many sessions received a broadcast.
type BroadcastResponse struct {
	SuccessResponse
	Recipients int `json:"recipients"`
}

// QuoteDetailedResponse is a quote with request metadata.
type QuoteDetailedResponse struct {
	domain.Quote
	FetchedAt   time.Time `json:"fetched_at"`
	RequestID   string    `json:"request_id"`
	CacheStatus string    `json:"cache_status"`
}

// QuoteHealthResponse reports one direct check of the upstream quote API.
type QuoteHealthResponse struct {
	Status         string    `json:"status"`
	APISource      string    `json:"api_source"`
	ResponseTimeMS int64     `json:"response_time_ms"`
	LastCheck      time.Time `json:"last_check"`
	CheckID        string    `json:"check_id"`
	ErrorMessage   string    `json:"error_message,omitempty"`
}

package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/taskflow-api/internal/domain"
)

// Common service errors. The API layer maps them to HTTP status codes.
var (
	// ErrNotOwned indicates the resource belongs to another user and the
	// caller is not privileged. Maps to 403.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrInvalidPagination indicates skip or limit is out of range. Maps to 400.
	ErrInvalidPagination = fmt.Errorf("%w: skip must be >= 0 and limit between 1 and 1000", domain.ErrValidation)

	// ErrFileTypeNotAllowed indicates the upload's extension is not accepted. Maps to 400.
	ErrFileTypeNotAllowed = fmt.Errorf("%w: file type not allowed", domain.ErrValidation)

	// ErrFileTooLarge indicates the upload exceeds the size limit. Maps to 413.
	ErrFileTooLarge = errors.New("file too large")
)

// ServiceError carries the failing operation alongside an unexpected error.
type ServiceError struct {
	Service   string
	Operation string
	Err       error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s service %s failed: %v", e.Service, e.Operation, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

func taskError(op string, err error) error {
	return &ServiceError{Service: "task", Operation: op, Err: err}
}

func attachmentError(op string, err error) error {
	return &ServiceError{Service: "attachment", Operation: op, Err: err}
}

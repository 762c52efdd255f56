// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// Specific errors below wrap it so callers can test for either.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidRole is returned when a role is not one of the known roles.
	ErrInvalidRole = fmt.Errorf("%w: invalid role", ErrValidation)

	// ErrInvalidStatus is returned when a task status is not one of the known statuses.
	ErrInvalidStatus = fmt.Errorf("%w: invalid task status", ErrValidation)

	ErrEmptyTitle    = fmt.Errorf("%w: title cannot be empty", ErrValidation)
	ErrTitleTooLong  = fmt.Errorf("%w: title must be at most 200 characters", ErrValidation)
	ErrInvalidOwner  = fmt.Errorf("%w: owner ID must be positive", ErrValidation)
	ErrEmptyUsername = fmt.Errorf("%w: username cannot be empty", ErrValidation)

	// ErrInvalidUsername covers length and character rules for usernames.
	ErrInvalidUsername = fmt.Errorf("%w: username must be 3-50 characters", ErrValidation)
	ErrInvalidEmail    = fmt.Errorf("%w: invalid email format", ErrValidation)

	ErrEmptyHashedPassword = fmt.Errorf("%w: hashed password cannot be empty", ErrValidation)

	// ErrEmptyFilename is returned when an attachment has no stored name.
	ErrEmptyFilename = fmt.Errorf("%w: filename cannot be empty", ErrValidation)
)

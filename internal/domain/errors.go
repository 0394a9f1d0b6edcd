package domain

import "errors"

// Domain-specific errors for business logic validation.
var (
	// Lookup errors
	ErrTaskNotFound         = errors.New("task not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrUserNotFound         = errors.New("user not found")

	// Permission errors
	ErrUnauthorized = errors.New("not authorized to access this task")
	ErrUserInactive = errors.New("user is inactive")
	ErrInvalidToken = errors.New("invalid authentication token")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidStatus    = errors.New("invalid task status")
	ErrInvalidPriority  = errors.New("invalid task priority")
	ErrEmptyComment     = errors.New("comment is required")
	ErrEmptyAssignee    = errors.New("assignee id is required")
)

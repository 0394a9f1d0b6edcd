package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mtlprog/tasktrail/internal/domain"
	"github.com/mtlprog/tasktrail/internal/service"
)

// CreateTaskRequest represents the request body for POST /tasks.
type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required,min=3,max=255"`
	Description string     `json:"description" validate:"required"`
	Priority    string     `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH URGENT"`
	Status      string     `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS REVIEW DONE"`
	Assignees   []string   `json:"assignees" validate:"omitempty,dive,uuid"`
	Deadline    *time.Time `json:"deadline" validate:"required"`
}

// Params converts the request into service parameters.
func (r CreateTaskRequest) Params(creatorID string) service.CreateTaskParams {
	return service.CreateTaskParams{
		CreatorID:   creatorID,
		Title:       r.Title,
		Description: r.Description,
		Priority:    domain.TaskPriority(r.Priority),
		Status:      domain.TaskStatus(r.Status),
		AssigneeIDs: r.Assignees,
		Deadline:    *r.Deadline,
	}
}

// UpdateTaskRequest represents the request body for PATCH /tasks/{id}.
// Absent fields are left untouched.
type UpdateTaskRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=3,max=255"`
	Description *string    `json:"description" validate:"omitempty"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	Status      *string    `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS REVIEW DONE"`
	Assignees   *[]string  `json:"assignees" validate:"omitempty,dive,uuid"`
	Deadline    *time.Time `json:"deadline"`
}

// Fields converts the request into a partial update.
func (r UpdateTaskRequest) Fields() service.TaskFields {
	f := service.TaskFields{
		Title:       r.Title,
		Description: r.Description,
		Deadline:    r.Deadline,
		AssigneeIDs: r.Assignees,
	}
	if r.Priority != nil {
		p := domain.TaskPriority(*r.Priority)
		f.Priority = &p
	}
	if r.Status != nil {
		s := domain.TaskStatus(*r.Status)
		f.Status = &s
	}
	return f
}

// AssignRequest represents the request body for POST /tasks/{id}/assign and
// POST /tasks/{id}/unassign.
type AssignRequest struct {
	AssigneeID string `json:"assigneeId" validate:"required,uuid"`
}

// CommentRequest represents the request body for POST /tasks/{id}/comments.
type CommentRequest struct {
	Content string `json:"content" validate:"required,min=3,max=1000"`
}

// Validator validates request bodies against their struct tags.
type Validator struct {
	v *validator.Validate
}

// NewValidator creates a Validator that reports JSON field names.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Validate checks req and returns an error wrapping domain.ErrValidationFailed
// with a readable description of every failed field.
func (v *Validator) Validate(req any) error {
	err := v.v.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", domain.ErrValidationFailed, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", domain.ErrValidationFailed, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, fe.Param())
	case "uuid":
		return field + " must be a valid UUID"
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}

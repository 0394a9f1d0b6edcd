package service

import (
	"time"

	"github.com/mtlprog/tasktrail/internal/domain"
)

// TaskFields is a partial task update. A nil field is not part of the
// proposal and is never compared. Only these fields are mutable; identity
// fields and timestamps cannot be proposed.
type TaskFields struct {
	Title       *string
	Description *string
	Priority    *domain.TaskPriority
	Status      *domain.TaskStatus
	Deadline    *time.Time
	AssigneeIDs *[]string
}

// Validate checks the enum fields of the proposal.
func (f TaskFields) Validate() error {
	if f.Priority != nil && !f.Priority.IsValid() {
		return domain.ErrInvalidPriority
	}
	if f.Status != nil && !f.Status.IsValid() {
		return domain.ErrInvalidStatus
	}
	return nil
}

// Apply copies the proposed fields onto task.
func (f TaskFields) Apply(task *domain.Task) {
	if f.Title != nil {
		task.Title = *f.Title
	}
	if f.Description != nil {
		task.Description = *f.Description
	}
	if f.Priority != nil {
		task.Priority = *f.Priority
	}
	if f.Status != nil {
		task.Status = *f.Status
	}
	if f.Deadline != nil {
		task.Deadline = *f.Deadline
	}
	if f.AssigneeIDs != nil {
		task.AssigneeIDs = domain.NormalizeAssignees(*f.AssigneeIDs)
	}
}

// Diff compares the proposal against the prior snapshot and returns only the
// fields whose proposed value differs. An empty result means nothing
// audit-worthy happened.
func Diff(prior *domain.Task, f TaskFields) domain.Changes {
	changes := domain.NewChanges()
	set := func(field string, oldValue, newValue any) {
		changes.Old[field] = oldValue
		changes.New[field] = newValue
	}

	if f.Title != nil && *f.Title != prior.Title {
		set(domain.FieldTitle, prior.Title, *f.Title)
	}
	if f.Description != nil && *f.Description != prior.Description {
		set(domain.FieldDescription, prior.Description, *f.Description)
	}
	if f.Priority != nil && *f.Priority != prior.Priority {
		set(domain.FieldPriority, string(prior.Priority), string(*f.Priority))
	}
	if f.Status != nil && *f.Status != prior.Status {
		set(domain.FieldStatus, string(prior.Status), string(*f.Status))
	}
	if f.Deadline != nil && !f.Deadline.Equal(prior.Deadline) {
		set(domain.FieldDeadline, domain.TimeValue(prior.Deadline), domain.TimeValue(*f.Deadline))
	}
	if f.AssigneeIDs != nil && !domain.SameAssignees(*f.AssigneeIDs, prior.AssigneeIDs) {
		set(domain.FieldAssignees, domain.NormalizeAssignees(prior.AssigneeIDs), domain.NormalizeAssignees(*f.AssigneeIDs))
	}

	return changes
}

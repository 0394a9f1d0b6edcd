package domain

import (
	"slices"
	"strings"
	"time"
)

// TaskStatus represents the workflow column a task sits in.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusReview     TaskStatus = "REVIEW"
	TaskStatusDone       TaskStatus = "DONE"
)

// statusLabels are the human-readable names used in notifications and history.
var statusLabels = map[TaskStatus]string{
	TaskStatusTodo:       "To Do",
	TaskStatusInProgress: "In Progress",
	TaskStatusReview:     "In Review",
	TaskStatusDone:       "Done",
}

// IsValid checks if the status is one of the allowed values.
func (s TaskStatus) IsValid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the display name of the status and false if it is unknown.
func (s TaskStatus) Label() (string, bool) {
	label, ok := statusLabels[s]
	return label, ok
}

// TaskStatuses returns all statuses in workflow order.
func TaskStatuses() []TaskStatus {
	return []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusReview, TaskStatusDone}
}

// TaskPriority represents the priority level of a task.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
	TaskPriorityUrgent TaskPriority = "URGENT"
)

// IsValid checks if the priority is one of the allowed values.
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	default:
		return false
	}
}

// Task is the mutable unit of work. CreatorID never changes after creation
// and AssigneeIDs never holds duplicates.
type Task struct {
	ID          string
	Title       string
	Description string
	Priority    TaskPriority
	Status      TaskStatus
	CreatorID   string
	AssigneeIDs []string
	Deadline    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsCreatedBy checks if the task was created by the given user.
func (t *Task) IsCreatedBy(userID string) bool {
	return t.CreatorID == userID
}

// HasAssignee checks if the given user is assigned to the task.
func (t *Task) HasAssignee(userID string) bool {
	return slices.Contains(t.AssigneeIDs, userID)
}

// IsParticipant reports whether the user is the creator or an assignee.
func (t *Task) IsParticipant(userID string) bool {
	return t.IsCreatedBy(userID) || t.HasAssignee(userID)
}

// Clone returns a copy that shares no slices with t.
func (t *Task) Clone() *Task {
	c := *t
	c.AssigneeIDs = slices.Clone(t.AssigneeIDs)
	return &c
}

// assigneeSeparator joins assignee IDs in the persisted column.
const assigneeSeparator = ","

// JoinAssignees encodes an assignee set for storage.
func JoinAssignees(ids []string) string {
	return strings.Join(ids, assigneeSeparator)
}

// SplitAssignees decodes a stored assignee column, dropping blanks and duplicates.
func SplitAssignees(s string) []string {
	return NormalizeAssignees(strings.Split(s, assigneeSeparator))
}

// NormalizeAssignees trims IDs and removes blanks and duplicates, keeping
// first-seen order.
func NormalizeAssignees(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// SameAssignees compares two assignee lists as sets.
func SameAssignees(a, b []string) bool {
	a, b = NormalizeAssignees(a), NormalizeAssignees(b)
	if len(a) != len(b) {
		return false
	}
	for _, id := range a {
		if !slices.Contains(b, id) {
			return false
		}
	}
	return true
}

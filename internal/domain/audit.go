package domain

import "time"

// ActionType is the category attached to an audit record.
type ActionType string

const (
	ActionCreated      ActionType = "CREATED"
	ActionUpdate       ActionType = "UPDATE"
	ActionStatusChange ActionType = "STATUS_CHANGE"
	ActionAssigned     ActionType = "ASSIGNED"
	ActionComment      ActionType = "COMMENT"
	ActionDelete       ActionType = "DELETE"
)

// Field names used as keys in Changes.
const (
	FieldID          = "id"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldPriority    = "priority"
	FieldStatus      = "status"
	FieldCreatorID   = "creatorId"
	FieldAssignees   = "assignees"
	FieldDeadline    = "deadline"
	FieldCreatedAt   = "createdAt"
	FieldUpdatedAt   = "updatedAt"
	FieldContent     = "content"
)

// FieldValues maps a field name to its value. Values are JSON-friendly:
// strings, []string for assignees and RFC 3339 strings for timestamps.
type FieldValues map[string]any

// Changes is the before/after pair stored on an audit record. Both sides only
// hold fields that actually changed, except for CREATED and DELETE which hold
// a full snapshot on one side.
type Changes struct {
	Old FieldValues `json:"old"`
	New FieldValues `json:"new"`
}

// NewChanges returns a Changes value with both maps allocated.
func NewChanges() Changes {
	return Changes{Old: FieldValues{}, New: FieldValues{}}
}

// IsEmpty reports whether nothing changed.
func (c Changes) IsEmpty() bool {
	return len(c.Old) == 0 && len(c.New) == 0
}

// Fields returns the changed field names.
func (c Changes) Fields() []string {
	fields := make([]string, 0, len(c.New))
	for k := range c.New {
		fields = append(fields, k)
	}
	for k := range c.Old {
		if _, ok := c.New[k]; !ok {
			fields = append(fields, k)
		}
	}
	return fields
}

// AuditRecord is an immutable entry in a task's history. TaskID is a weak
// reference: the record outlives the task.
type AuditRecord struct {
	ID        string
	TaskID    string
	Action    ActionType
	Changes   Changes
	ChangedBy string
	ChangedAt time.Time
}

// TimeValue formats a timestamp the way it is stored in Changes.
func TimeValue(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Snapshot captures every field of the task for CREATED and DELETE records.
func Snapshot(t *Task) FieldValues {
	return FieldValues{
		FieldID:          t.ID,
		FieldTitle:       t.Title,
		FieldDescription: t.Description,
		FieldPriority:    string(t.Priority),
		FieldStatus:      string(t.Status),
		FieldCreatorID:   t.CreatorID,
		FieldAssignees:   append([]string{}, t.AssigneeIDs...),
		FieldDeadline:    TimeValue(t.Deadline),
		FieldCreatedAt:   TimeValue(t.CreatedAt),
		FieldUpdatedAt:   TimeValue(t.UpdatedAt),
	}
}

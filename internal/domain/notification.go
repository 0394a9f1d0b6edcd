package domain

import "time"

// EventName identifies a notification event on the channel.
type EventName string

const (
	EventTaskCreated  EventName = "task.created"
	EventTaskUpdated  EventName = "task.updated"
	EventTaskAssigned EventName = "task.assigned"
	EventTaskComment  EventName = "task.comment"
)

// IsValid checks if the event name is one of the allowed values.
func (n EventName) IsValid() bool {
	switch n {
	case EventTaskCreated, EventTaskUpdated, EventTaskAssigned, EventTaskComment:
		return true
	default:
		return false
	}
}

// TaskSnapshot is the subset of a task carried by a notification event.
type TaskSnapshot struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status"`
	AssigneeIDs []string `json:"assigneeIds"`
}

// CommentExcerpt is attached to comment events.
type CommentExcerpt struct {
	AuthorID string `json:"authorId"`
	Content  string `json:"content"`
}

// NotificationEvent is the transient payload handed to the notification
// channel. Recipients never contain the actor.
type NotificationEvent struct {
	Recipients []string        `json:"recipients"`
	Task       TaskSnapshot    `json:"task"`
	Comment    *CommentExcerpt `json:"comment,omitempty"`
	Action     ActionType      `json:"action,omitempty"`
}

// SnapshotForEvent builds the task part of a notification event.
func SnapshotForEvent(t *Task) TaskSnapshot {
	return TaskSnapshot{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		AssigneeIDs: append([]string{}, t.AssigneeIDs...),
	}
}

// Notification is the durable per-recipient row written by the dispatcher.
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Content   string
	Read      bool
	CreatedAt time.Time
}

package domain

import "time"

// Comment is immutable once created and is deleted together with its task.
type Comment struct {
	ID        string
	TaskID    string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}

package service

import (
	"context"

	"github.com/mtlprog/tasktrail/internal/domain"
)

// TaskStore persists task rows. Get returns domain.ErrTaskNotFound when the
// task is absent. Save inserts when the ID is empty and updates otherwise.
type TaskStore interface {
	Get(ctx context.Context, taskID string) (*domain.Task, error)
	Save(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Delete(ctx context.Context, taskID string) error
	ListForUser(ctx context.Context, userID string, page, pageSize int) ([]*domain.Task, int, error)
}

// AuditStore is the append-only ledger of audit records. List returns the
// records of one task ordered by ChangedAt descending, plus the total count.
type AuditStore interface {
	Append(ctx context.Context, record *domain.AuditRecord) error
	List(ctx context.Context, taskID string, page, pageSize int) ([]*domain.AuditRecord, int, error)
}

// CommentStore persists comments. ListByTask orders by CreatedAt descending.
type CommentStore interface {
	Save(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	ListByTask(ctx context.Context, taskID string) ([]*domain.Comment, error)
}

// NotificationChannel accepts notification events for delivery. Acceptance
// is all the coordinator waits for.
type NotificationChannel interface {
	Emit(ctx context.Context, name domain.EventName, event domain.NotificationEvent) error
}

// Transactor runs fn as one atomic unit against the stores.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mtlprog/tasktrail/internal/domain"
)

// ReadService serves the read side: task listing, task details, comments and
// reconstructed history.
type ReadService struct {
	tasks           TaskStore
	audits          AuditStore
	comments        CommentStore
	defaultPageSize int
}

// NewReadService creates a new ReadService. defaultPageSize applies when a
// request carries no page size.
func NewReadService(tasks TaskStore, audits AuditStore, comments CommentStore, defaultPageSize int) *ReadService {
	if defaultPageSize <= 0 {
		defaultPageSize = DefaultPageSize
	}
	return &ReadService{
		tasks:           tasks,
		audits:          audits,
		comments:        comments,
		defaultPageSize: defaultPageSize,
	}
}

// HistoryEntry is an audit record with its prose reconstruction.
type HistoryEntry struct {
	AuthorID   string
	Action     domain.ActionType
	Content    string
	ChangedAt  time.Time
	RawChanges domain.Changes
}

// NewHistoryEntry describes a stored record.
func NewHistoryEntry(record *domain.AuditRecord) HistoryEntry {
	return HistoryEntry{
		AuthorID:   record.ChangedBy,
		Action:     record.Action,
		Content:    DescribeRecord(record),
		ChangedAt:  record.ChangedAt,
		RawChanges: record.Changes,
	}
}

// loadReadable fetches the task and checks the caller may read it.
func (s *ReadService) loadReadable(ctx context.Context, taskID, userID string) (*domain.Task, error) {
	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := CanRead(task, userID); err != nil {
		return nil, err
	}
	return task, nil
}

// ListTasks returns the tasks the user created or is assigned to.
func (s *ReadService) ListTasks(ctx context.Context, userID string, req PageRequest) (Page[*domain.Task], error) {
	req = req.Normalize(s.defaultPageSize)

	tasks, total, err := s.tasks.ListForUser(ctx, userID, req.Page, req.PageSize)
	if err != nil {
		return Page[*domain.Task]{}, fmt.Errorf("list tasks: %w", err)
	}
	return NewPage(tasks, total, req), nil
}

// GetTask returns a task with its comments, newest first.
func (s *ReadService) GetTask(ctx context.Context, taskID, userID string) (*domain.Task, []*domain.Comment, error) {
	task, err := s.loadReadable(ctx, taskID, userID)
	if err != nil {
		return nil, nil, err
	}

	comments, err := s.comments.ListByTask(ctx, task.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list comments: %w", err)
	}
	return task, comments, nil
}

// ListComments returns a task's comments, newest first.
func (s *ReadService) ListComments(ctx context.Context, taskID, userID string) ([]*domain.Comment, error) {
	task, err := s.loadReadable(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByTask(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// ListHistory returns one page of a task's history, newest first, with each
// entry described from its stored diff. The ledger is not read unless the
// caller passes the access check.
func (s *ReadService) ListHistory(
	ctx context.Context,
	taskID string,
	userID string,
	req PageRequest,
) (Page[HistoryEntry], error) {
	task, err := s.loadReadable(ctx, taskID, userID)
	if err != nil {
		return Page[HistoryEntry]{}, err
	}

	req = req.Normalize(s.defaultPageSize)
	records, total, err := s.audits.List(ctx, task.ID, req.Page, req.PageSize)
	if err != nil {
		return Page[HistoryEntry]{}, fmt.Errorf("list history: %w", err)
	}

	entries := make([]HistoryEntry, len(records))
	for i, record := range records {
		entries[i] = NewHistoryEntry(record)
	}
	return NewPage(entries, total, req), nil
}

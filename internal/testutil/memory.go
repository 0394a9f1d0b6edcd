// Package testutil provides in-memory stores and a recording notification
// channel for tests that exercise the service without Postgres or Redis.
package testutil

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mtlprog/tasktrail/internal/domain"
)

// clock hands out strictly increasing timestamps so ordering by time is
// deterministic inside one test.
type clock struct {
	last time.Time
}

func (c *clock) now() time.Time {
	t := time.Now().UTC()
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}

// Tx runs units of work inline and counts them.
type Tx struct {
	mu    sync.Mutex
	Calls int
}

// WithinTx calls fn with ctx unchanged.
func (t *Tx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	t.Calls++
	t.mu.Unlock()
	return fn(ctx)
}

// TaskStore keeps tasks in a map. Stored and returned tasks are copies.
type TaskStore struct {
	mu    sync.Mutex
	clock clock
	tasks map[string]*domain.Task
	order []string

	Gets  int
	Saves int
}

// NewTaskStore creates an empty TaskStore.
func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[string]*domain.Task)}
}

// Put seeds a task as-is, assigning an ID and timestamps when missing.
func (s *TaskStore) Put(task *domain.Task) *domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := task.Clone()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.clock.now()
		t.UpdatedAt = t.CreatedAt
	}
	if _, ok := s.tasks[t.ID]; !ok {
		s.order = append(s.order, t.ID)
	}
	s.tasks[t.ID] = t
	return t.Clone()
}

// Get returns a copy of the task or domain.ErrTaskNotFound.
func (s *TaskStore) Get(_ context.Context, taskID string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Gets++
	t, ok := s.tasks[taskID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return t.Clone(), nil
}

// Save inserts a task without ID and updates an existing one otherwise.
func (s *TaskStore) Save(_ context.Context, task *domain.Task) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Saves++
	t := task.Clone()
	t.AssigneeIDs = domain.NormalizeAssignees(t.AssigneeIDs)
	now := s.clock.now()

	if t.ID == "" {
		t.ID = uuid.NewString()
		t.CreatedAt = now
		s.order = append(s.order, t.ID)
	} else {
		prev, ok := s.tasks[t.ID]
		if !ok {
			return nil, domain.ErrTaskNotFound
		}
		t.CreatedAt = prev.CreatedAt
		t.CreatorID = prev.CreatorID
	}
	t.UpdatedAt = now
	s.tasks[t.ID] = t
	return t.Clone(), nil
}

// Delete removes the task or returns domain.ErrTaskNotFound.
func (s *TaskStore) Delete(_ context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[taskID]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(s.tasks, taskID)
	s.order = slices.DeleteFunc(s.order, func(id string) bool { return id == taskID })
	return nil
}

// ListForUser pages through tasks the user created or is assigned to,
// ordered by creation time descending and then by id, like the Postgres store.
func (s *TaskStore) ListForUser(_ context.Context, userID string, page, pageSize int) ([]*domain.Task, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*domain.Task
	for _, id := range s.order {
		if t := s.tasks[id]; t.IsParticipant(userID) {
			matched = append(matched, t.Clone())
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	return paginate(matched, page, pageSize), len(matched), nil
}

// AuditStore keeps audit records in append order.
type AuditStore struct {
	mu      sync.Mutex
	clock   clock
	records []*domain.AuditRecord

	// ListCalls counts reads so tests can assert the ledger was not touched.
	ListCalls int
	// AppendErr, when set, is returned by Append.
	AppendErr error
}

// NewAuditStore creates an empty AuditStore.
func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

// Append stores the record, filling ID and ChangedAt.
func (s *AuditStore) Append(_ context.Context, record *domain.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.AppendErr != nil {
		return s.AppendErr
	}
	record.ID = uuid.NewString()
	record.ChangedAt = s.clock.now()
	stored := *record
	s.records = append(s.records, &stored)
	return nil
}

// List pages through a task's records, newest first.
func (s *AuditStore) List(_ context.Context, taskID string, page, pageSize int) ([]*domain.AuditRecord, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ListCalls++
	matched := s.byTask(taskID)
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].ChangedAt.After(matched[j].ChangedAt)
	})
	return paginate(matched, page, pageSize), len(matched), nil
}

// Records returns a task's records in append order.
func (s *AuditStore) Records(taskID string) []*domain.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byTask(taskID)
}

func (s *AuditStore) byTask(taskID string) []*domain.AuditRecord {
	var out []*domain.AuditRecord
	for _, r := range s.records {
		if r.TaskID == taskID {
			c := *r
			out = append(out, &c)
		}
	}
	return out
}

// CommentStore keeps comments in append order.
type CommentStore struct {
	mu       sync.Mutex
	clock    clock
	comments []*domain.Comment
}

// NewCommentStore creates an empty CommentStore.
func NewCommentStore() *CommentStore {
	return &CommentStore{}
}

// Save stores the comment, filling ID and CreatedAt.
func (s *CommentStore) Save(_ context.Context, comment *domain.Comment) (*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *comment
	c.ID = uuid.NewString()
	c.CreatedAt = s.clock.now()
	s.comments = append(s.comments, &c)
	out := c
	return &out, nil
}

// ListByTask returns a task's comments, newest first.
func (s *CommentStore) ListByTask(_ context.Context, taskID string) ([]*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*domain.Comment{}
	for i := len(s.comments) - 1; i >= 0; i-- {
		if c := s.comments[i]; c.TaskID == taskID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Emitted is one event captured by Channel.
type Emitted struct {
	Name  domain.EventName
	Event domain.NotificationEvent
}

// Channel records emitted events.
type Channel struct {
	mu     sync.Mutex
	events []Emitted

	// Err, when set, is returned by Emit after recording nothing.
	Err error
}

// Emit records the event.
func (c *Channel) Emit(_ context.Context, name domain.EventName, event domain.NotificationEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Err != nil {
		return c.Err
	}
	c.events = append(c.events, Emitted{Name: name, Event: event})
	return nil
}

// Events returns the recorded events in emission order.
func (c *Channel) Events() []Emitted {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.events)
}

// NotificationStore keeps notification rows in append order.
type NotificationStore struct {
	mu            sync.Mutex
	clock         clock
	notifications []*domain.Notification

	// SaveErr, when set, is returned by Save.
	SaveErr error
}

// NewNotificationStore creates an empty NotificationStore.
func NewNotificationStore() *NotificationStore {
	return &NotificationStore{}
}

// Save stores the notification, filling ID and CreatedAt.
func (s *NotificationStore) Save(_ context.Context, n *domain.Notification) (*domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SaveErr != nil {
		return nil, s.SaveErr
	}
	c := *n
	c.ID = uuid.NewString()
	c.CreatedAt = s.clock.now()
	s.notifications = append(s.notifications, &c)
	out := c
	return &out, nil
}

// ListByUser pages through a user's notifications, newest first.
func (s *NotificationStore) ListByUser(_ context.Context, userID string, page, pageSize int) ([]*domain.Notification, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*domain.Notification
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if n := s.notifications[i]; n.UserID == userID {
			c := *n
			matched = append(matched, &c)
		}
	}
	return paginate(matched, page, pageSize), len(matched), nil
}

// MarkRead flags a notification owned by userID as read.
func (s *NotificationStore) MarkRead(_ context.Context, notificationID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications {
		if n.ID == notificationID && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return domain.ErrNotificationNotFound
}

// All returns every stored notification in append order.
func (s *NotificationStore) All() []*domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Notification, len(s.notifications))
	for i, n := range s.notifications {
		c := *n
		out[i] = &c
	}
	return out
}

// UserStore resolves users by token.
type UserStore struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

// NewUserStore creates a UserStore seeded with users keyed by their token.
func NewUserStore(users ...*domain.User) *UserStore {
	s := &UserStore{users: make(map[string]*domain.User)}
	for _, u := range users {
		s.users[u.Token] = u
	}
	return s
}

// GetByToken returns the user or domain.ErrUserNotFound.
func (s *UserStore) GetByToken(_ context.Context, token string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[token]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

// paginate returns the 1-based page of items.
func paginate[T any](items []T, page, pageSize int) []T {
	if page < 1 || pageSize < 1 {
		return []T{}
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := min(start+pageSize, len(items))
	return items[start:end]
}

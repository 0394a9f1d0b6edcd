package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/mtlprog/tasktrail/internal/domain"
	"github.com/mtlprog/tasktrail/internal/metrics"
)

// TaskService coordinates task mutations: it loads the task, diffs and
// classifies the change, writes the task and its audit record in one
// transaction, and then emits the notification event.
type TaskService struct {
	tx       Transactor
	tasks    TaskStore
	audits   AuditStore
	comments CommentStore
	channel  NotificationChannel
	metrics  *metrics.Pipeline
}

// NewTaskService creates a new TaskService. m may be nil.
func NewTaskService(
	tx Transactor,
	tasks TaskStore,
	audits AuditStore,
	comments CommentStore,
	channel NotificationChannel,
	m *metrics.Pipeline,
) *TaskService {
	return &TaskService{
		tx:       tx,
		tasks:    tasks,
		audits:   audits,
		comments: comments,
		channel:  channel,
		metrics:  m,
	}
}

// CreateTaskParams holds the validated input of a task creation.
type CreateTaskParams struct {
	CreatorID   string
	Title       string
	Description string
	Priority    domain.TaskPriority
	Status      domain.TaskStatus
	AssigneeIDs []string
	Deadline    time.Time
}

// emission is a notification queued until the transaction has committed.
type emission struct {
	name       domain.EventName
	action     domain.ActionType
	task       *domain.Task
	recipients []string
	comment    *domain.CommentExcerpt
}

// appendAudit writes an already classified record.
func (s *TaskService) appendAudit(
	ctx context.Context,
	taskID string,
	action domain.ActionType,
	changes domain.Changes,
	actorID string,
) (*domain.AuditRecord, error) {
	record := &domain.AuditRecord{
		TaskID:    taskID,
		Action:    action,
		Changes:   changes,
		ChangedBy: actorID,
	}
	if err := s.audits.Append(ctx, record); err != nil {
		return nil, fmt.Errorf("append audit record: %w", err)
	}
	s.metrics.ObserveAudit(string(action))
	return record, nil
}

// emit hands the event to the channel. Failures are logged and counted but
// never fail the mutation, which is already durable at this point.
func (s *TaskService) emit(ctx context.Context, e *emission) {
	if e == nil || len(e.recipients) == 0 {
		return
	}

	event := domain.NotificationEvent{
		Recipients: e.recipients,
		Task:       domain.SnapshotForEvent(e.task),
		Comment:    e.comment,
		Action:     e.action,
	}

	if err := s.channel.Emit(ctx, e.name, event); err != nil {
		s.metrics.ObserveEmission(string(e.name), metrics.OutcomeError)
		slog.Warn("failed to emit notification event",
			"event", e.name,
			"task_id", e.task.ID,
			"recipients", len(e.recipients),
			"error", err,
		)
		return
	}
	s.metrics.ObserveEmission(string(e.name), metrics.OutcomeOK)
}

// finish records the mutation outcome.
func (s *TaskService) finish(kind MutationKind, err error, applied bool) {
	switch {
	case err != nil:
		s.metrics.ObserveMutation(kind.String(), metrics.OutcomeError)
	case applied:
		s.metrics.ObserveMutation(kind.String(), metrics.OutcomeApplied)
	default:
		s.metrics.ObserveMutation(kind.String(), metrics.OutcomeNoop)
	}
}

// CreateTask persists a new task and its CREATED record. Assignees listed at
// creation time are told about the new task.
func (s *TaskService) CreateTask(ctx context.Context, params CreateTaskParams) (_ *domain.Task, err error) {
	defer func() { s.finish(MutationCreate, err, true) }()

	if strings.TrimSpace(params.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidationFailed)
	}
	if params.Priority == "" {
		params.Priority = domain.TaskPriorityMedium
	}
	if !params.Priority.IsValid() {
		return nil, domain.ErrInvalidPriority
	}
	if params.Status == "" {
		params.Status = domain.TaskStatusTodo
	}
	if !params.Status.IsValid() {
		return nil, domain.ErrInvalidStatus
	}

	task := &domain.Task{
		Title:       params.Title,
		Description: params.Description,
		Priority:    params.Priority,
		Status:      params.Status,
		CreatorID:   params.CreatorID,
		AssigneeIDs: domain.NormalizeAssignees(params.AssigneeIDs),
		Deadline:    params.Deadline,
	}

	var (
		saved  *domain.Task
		record *domain.AuditRecord
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		saved, err = s.tasks.Save(ctx, task)
		if err != nil {
			return fmt.Errorf("save task: %w", err)
		}

		action, _ := Classify(MutationCreate, domain.Changes{})
		changes := domain.Changes{Old: domain.FieldValues{}, New: domain.Snapshot(saved)}
		record, err = s.appendAudit(ctx, saved.ID, action, changes, params.CreatorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("task created",
		"task_id", saved.ID,
		"actor_id", params.CreatorID,
		"audit_id", record.ID,
	)

	s.emit(ctx, &emission{
		name:       domain.EventTaskCreated,
		action:     domain.ActionCreated,
		task:       saved,
		recipients: ResolveRecipients(MutationCreate, saved, params.CreatorID, ""),
	})

	return saved, nil
}

// UpdateTask applies a partial update. When no proposed field differs from
// the stored task, the task is returned unchanged and nothing is written or
// emitted.
func (s *TaskService) UpdateTask(
	ctx context.Context,
	taskID string,
	actorID string,
	fields TaskFields,
) (_ *domain.Task, err error) {
	applied := false
	defer func() { s.finish(MutationFieldUpdate, err, applied) }()

	if err := fields.Validate(); err != nil {
		return nil, err
	}

	var (
		result *domain.Task
		record *domain.AuditRecord
		action domain.ActionType
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		task, err := s.tasks.Get(ctx, taskID)
		if err != nil {
			return err
		}

		changes := Diff(task, fields)
		var ok bool
		action, ok = Classify(MutationFieldUpdate, changes)
		if !ok {
			result = task
			return nil
		}

		fields.Apply(task)
		result, err = s.tasks.Save(ctx, task)
		if err != nil {
			return fmt.Errorf("save task: %w", err)
		}

		record, err = s.appendAudit(ctx, task.ID, action, changes, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if record == nil {
		slog.Debug("task update had no changes", "task_id", taskID, "actor_id", actorID)
		return result, nil
	}
	applied = true

	slog.Info("task updated",
		"task_id", taskID,
		"actor_id", actorID,
		"action", action,
		"fields", record.Changes.Fields(),
		"audit_id", record.ID,
	)

	s.emit(ctx, &emission{
		name:       domain.EventTaskUpdated,
		action:     action,
		task:       result,
		recipients: ResolveRecipients(MutationFieldUpdate, result, actorID, ""),
	})

	return result, nil
}

// DeleteTask records the full pre-delete snapshot and removes the task.
// Comments go with it; the history stays.
func (s *TaskService) DeleteTask(ctx context.Context, taskID, actorID string) (err error) {
	defer func() { s.finish(MutationDelete, err, true) }()

	var record *domain.AuditRecord
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		task, err := s.tasks.Get(ctx, taskID)
		if err != nil {
			return err
		}

		action, _ := Classify(MutationDelete, domain.Changes{})
		changes := domain.Changes{Old: domain.Snapshot(task), New: domain.FieldValues{}}
		record, err = s.appendAudit(ctx, task.ID, action, changes, actorID)
		if err != nil {
			return err
		}

		if err := s.tasks.Delete(ctx, task.ID); err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("task deleted",
		"task_id", taskID,
		"actor_id", actorID,
		"audit_id", record.ID,
	)

	return nil
}

// AssignUser adds assigneeID to the task. Assigning someone already assigned
// is a no-op that returns the task unchanged.
func (s *TaskService) AssignUser(ctx context.Context, taskID, assigneeID, actorID string) (*domain.Task, error) {
	return s.changeAssignment(ctx, MutationAssign, taskID, assigneeID, actorID)
}

// UnassignUser removes assigneeID from the task. Removing someone who is not
// assigned is a no-op that returns the task unchanged.
func (s *TaskService) UnassignUser(ctx context.Context, taskID, assigneeID, actorID string) (*domain.Task, error) {
	return s.changeAssignment(ctx, MutationUnassign, taskID, assigneeID, actorID)
}

func (s *TaskService) changeAssignment(
	ctx context.Context,
	kind MutationKind,
	taskID string,
	assigneeID string,
	actorID string,
) (_ *domain.Task, err error) {
	applied := false
	defer func() { s.finish(kind, err, applied) }()

	assigneeID = strings.TrimSpace(assigneeID)
	if assigneeID == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidationFailed, domain.ErrEmptyAssignee)
	}

	var (
		result *domain.Task
		record *domain.AuditRecord
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		task, err := s.tasks.Get(ctx, taskID)
		if err != nil {
			return err
		}

		assigned := task.HasAssignee(assigneeID)
		if (kind == MutationAssign && assigned) || (kind == MutationUnassign && !assigned) {
			result = task
			return nil
		}

		oldAssignees := slices.Clone(task.AssigneeIDs)
		if oldAssignees == nil {
			oldAssignees = []string{}
		}
		if kind == MutationAssign {
			task.AssigneeIDs = append(task.AssigneeIDs, assigneeID)
		} else {
			task.AssigneeIDs = slices.DeleteFunc(task.AssigneeIDs, func(id string) bool { return id == assigneeID })
		}

		result, err = s.tasks.Save(ctx, task)
		if err != nil {
			return fmt.Errorf("save task: %w", err)
		}

		newAssignees := slices.Clone(result.AssigneeIDs)
		if newAssignees == nil {
			newAssignees = []string{}
		}
		action, _ := Classify(kind, domain.Changes{})
		changes := domain.Changes{
			Old: domain.FieldValues{domain.FieldAssignees: oldAssignees},
			New: domain.FieldValues{domain.FieldAssignees: newAssignees},
		}
		record, err = s.appendAudit(ctx, task.ID, action, changes, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if record == nil {
		slog.Debug("assignment unchanged",
			"task_id", taskID,
			"assignee_id", assigneeID,
			"operation", kind.String(),
		)
		return result, nil
	}
	applied = true

	slog.Info("task assignment changed",
		"task_id", taskID,
		"actor_id", actorID,
		"assignee_id", assigneeID,
		"operation", kind.String(),
		"audit_id", record.ID,
	)

	// Unassignment goes out under the generic update event name while
	// keeping the ASSIGNED action.
	name := domain.EventTaskAssigned
	if kind == MutationUnassign {
		name = domain.EventTaskUpdated
	}
	s.emit(ctx, &emission{
		name:       name,
		action:     domain.ActionAssigned,
		task:       result,
		recipients: ResolveRecipients(kind, result, actorID, assigneeID),
	})

	return result, nil
}

// CommentTask stores a comment, records it in the history and notifies the
// creator and assignees other than the author.
func (s *TaskService) CommentTask(ctx context.Context, taskID, authorID, content string) (_ *domain.Comment, err error) {
	defer func() { s.finish(MutationComment, err, true) }()

	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidationFailed, domain.ErrEmptyComment)
	}

	var (
		task    *domain.Task
		comment *domain.Comment
		record  *domain.AuditRecord
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		task, err = s.tasks.Get(ctx, taskID)
		if err != nil {
			return err
		}

		comment, err = s.comments.Save(ctx, &domain.Comment{
			TaskID:   task.ID,
			AuthorID: authorID,
			Content:  content,
		})
		if err != nil {
			return fmt.Errorf("save comment: %w", err)
		}

		action, _ := Classify(MutationComment, domain.Changes{})
		changes := domain.Changes{
			Old: domain.FieldValues{},
			New: domain.FieldValues{domain.FieldContent: content},
		}
		record, err = s.appendAudit(ctx, task.ID, action, changes, authorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("task commented",
		"task_id", taskID,
		"actor_id", authorID,
		"comment_id", comment.ID,
		"audit_id", record.ID,
	)

	s.emit(ctx, &emission{
		name:       domain.EventTaskComment,
		action:     domain.ActionComment,
		task:       task,
		recipients: ResolveRecipients(MutationComment, task, authorID, ""),
		comment:    &domain.CommentExcerpt{AuthorID: authorID, Content: content},
	})

	return comment, nil
}

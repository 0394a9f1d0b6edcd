package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/tasktrail/internal/database"
	"github.com/mtlprog/tasktrail/internal/domain"
)

// taskColumns is the shared list of columns for task queries.
var taskColumns = []string{
	"id", "title", "description", "priority", "status", "creator_id",
	"assignees", "deadline", "created_at", "updated_at",
}

// TaskRepository handles database operations for tasks.
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// scanTask scans a single row into a Task struct.
func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		task      domain.Task
		assignees string
	)
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Priority,
		&task.Status,
		&task.CreatorID,
		&assignees,
		&task.Deadline,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	task.AssigneeIDs = domain.SplitAssignees(assignees)
	return &task, nil
}

// scanTasks scans multiple rows into a slice of Task structs.
func scanTasks(rows pgx.Rows) ([]*domain.Task, error) {
	defer rows.Close()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return tasks, nil
}

// Get retrieves a task by ID. Inside a transaction the row is locked with
// FOR UPDATE so concurrent mutations of the same task serialize.
func (r *TaskRepository) Get(ctx context.Context, taskID string) (*domain.Task, error) {
	qb := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": taskID})
	if database.InTx(ctx) {
		qb = qb.Suffix("FOR UPDATE")
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Get query for task %s: %w", taskID, err)
	}

	return scanTask(database.Conn(ctx, r.pool).QueryRow(ctx, query, args...))
}

// Save inserts a task without ID and updates an existing one otherwise.
// Returns the stored row with ID and timestamps populated.
func (r *TaskRepository) Save(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task.ID == "" {
		return r.insert(ctx, task)
	}
	return r.update(ctx, task)
}

func (r *TaskRepository) insert(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	query, args, err := psql.
		Insert("tasks").
		Columns("title", "description", "priority", "status", "creator_id", "assignees", "deadline").
		Values(
			task.Title,
			task.Description,
			task.Priority,
			task.Status,
			task.CreatorID,
			domain.JoinAssignees(domain.NormalizeAssignees(task.AssigneeIDs)),
			task.Deadline,
		).
		Suffix("RETURNING " + joinColumns(taskColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert query for task: %w", err)
	}

	saved, err := scanTask(database.Conn(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return saved, nil
}

func (r *TaskRepository) update(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	query, args, err := psql.
		Update("tasks").
		Set("title", task.Title).
		Set("description", task.Description).
		Set("priority", task.Priority).
		Set("status", task.Status).
		Set("assignees", domain.JoinAssignees(domain.NormalizeAssignees(task.AssigneeIDs))).
		Set("deadline", task.Deadline).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": task.ID}).
		Suffix("RETURNING " + joinColumns(taskColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update query for task %s: %w", task.ID, err)
	}

	return scanTask(database.Conn(ctx, r.pool).QueryRow(ctx, query, args...))
}

// Delete removes a task. Its comments are removed by the foreign key; its
// history is not.
func (r *TaskRepository) Delete(ctx context.Context, taskID string) error {
	query, args, err := psql.
		Delete("tasks").
		Where(sq.Eq{"id": taskID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete query for task %s: %w", taskID, err)
	}

	tag, err := database.Conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

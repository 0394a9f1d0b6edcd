package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/mtlprog/tasktrail/internal/database"
	"github.com/mtlprog/tasktrail/internal/domain"
)

// participantFilter matches tasks the user created or is assigned to.
func participantFilter(userID string) sq.Sqlizer {
	return sq.Or{
		sq.Eq{"creator_id": userID},
		sq.Expr("? = ANY(string_to_array(assignees, ','))", userID),
	}
}

// ListForUser retrieves one page of the user's tasks, newest first, and the
// total number of matching tasks.
func (r *TaskRepository) ListForUser(ctx context.Context, userID string, page, pageSize int) ([]*domain.Task, int, error) {
	conn := database.Conn(ctx, r.pool)

	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(participantFilter(userID)).
		OrderBy("created_at DESC", "id").
		Limit(uint64(pageSize)).
		Offset(offset(page, pageSize)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build ListForUser query: %w", err)
	}

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query tasks: %w", err)
	}

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, 0, err
	}

	countQuery, countArgs, err := psql.
		Select("COUNT(*)").
		From("tasks").
		Where(participantFilter(userID)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := conn.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	return tasks, total, nil
}

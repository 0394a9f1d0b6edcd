package repository

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/tasktrail/internal/database"
	"github.com/mtlprog/tasktrail/internal/domain"
)

// AuditRepository is the append-only task history ledger.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Append writes a record and fills its ID and ChangedAt.
func (r *AuditRepository) Append(ctx context.Context, record *domain.AuditRecord) error {
	changes, err := json.Marshal(record.Changes)
	if err != nil {
		return fmt.Errorf("encode changes: %w", err)
	}

	query, args, err := psql.
		Insert("task_history").
		Columns("task_id", "action", "changes", "changed_by").
		Values(record.TaskID, record.Action, changes, record.ChangedBy).
		Suffix("RETURNING id, changed_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	err = database.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&record.ID, &record.ChangedAt)
	if err != nil {
		return fmt.Errorf("create audit record: %w", err)
	}

	return nil
}

// List retrieves one page of a task's records, newest first, and the total
// number of records for the task.
func (r *AuditRepository) List(ctx context.Context, taskID string, page, pageSize int) ([]*domain.AuditRecord, int, error) {
	conn := database.Conn(ctx, r.pool)

	query, args, err := psql.
		Select("id", "task_id", "action", "changes", "changed_by", "changed_at").
		From("task_history").
		Where(sq.Eq{"task_id": taskID}).
		OrderBy("changed_at DESC", "id").
		Limit(uint64(pageSize)).
		Offset(offset(page, pageSize)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query task history: %w", err)
	}
	defer rows.Close()

	records := []*domain.AuditRecord{}
	for rows.Next() {
		var (
			record  domain.AuditRecord
			changes []byte
		)
		err := rows.Scan(
			&record.ID,
			&record.TaskID,
			&record.Action,
			&changes,
			&record.ChangedBy,
			&record.ChangedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan audit record: %w", err)
		}
		if err := json.Unmarshal(changes, &record.Changes); err != nil {
			return nil, 0, fmt.Errorf("decode changes of record %s: %w", record.ID, err)
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate rows: %w", err)
	}

	countQuery, countArgs, err := psql.
		Select("COUNT(*)").
		From("task_history").
		Where(sq.Eq{"task_id": taskID}).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := conn.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count task history: %w", err)
	}

	return records, total, nil
}

package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/tasktrail/internal/database"
	"github.com/mtlprog/tasktrail/internal/domain"
)

// NotificationRepository handles database operations for per-user
// notification rows written by the dispatcher.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// Save inserts a notification and returns it with ID and CreatedAt populated.
func (r *NotificationRepository) Save(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	query, args, err := psql.
		Insert("notifications").
		Columns("user_id", "title", "content").
		Values(n.UserID, n.Title, n.Content).
		Suffix("RETURNING id, read, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	saved := *n
	err = database.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&saved.ID, &saved.Read, &saved.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	return &saved, nil
}

// ListByUser retrieves one page of a user's notifications, newest first, and
// the user's total.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]*domain.Notification, int, error) {
	conn := database.Conn(ctx, r.pool)

	query, args, err := psql.
		Select("id", "user_id", "title", "content", "read", "created_at").
		From("notifications").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id").
		Limit(uint64(pageSize)).
		Offset(offset(page, pageSize)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	notifications := []*domain.Notification{}
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Read, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate rows: %w", err)
	}

	countQuery, countArgs, err := psql.
		Select("COUNT(*)").
		From("notifications").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := conn.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	return notifications, total, nil
}

// MarkRead flags a notification as read. Only the owner may do so; any other
// caller gets domain.ErrNotificationNotFound.
func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID, userID string) error {
	query, args, err := psql.
		Update("notifications").
		Set("read", true).
		Where(sq.Eq{"id": notificationID, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	tag, err := database.Conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
)

var errNotificationNotFound = apperrors.NewResourceNotFoundError("notification not found")

const notificationReturning = "id, user_id, type, title, body, link, is_read, created_at"

// NotificationRepository stores per-user notifications
type NotificationRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{
		db: db,
		sb: statementBuilder(),
	}
}

// CreateMany inserts one notification per recipient and returns the stored rows
func (r *NotificationRepository) CreateMany(ctx context.Context, userIDs []int64, template models.Notification) ([]*models.Notification, error) {
	if len(userIDs) == 0 {
		return []*models.Notification{}, nil
	}

	insert := r.sb.Insert("notifications").Columns("user_id", "type", "title", "body", "link")
	for _, id := range userIDs {
		insert = insert.Values(id, template.Type, template.Title, template.Body, template.Link)
	}
	return getAll[models.Notification](ctx, r.db, insert.Suffix("RETURNING "+notificationReturning))
}

// List returns a user's notifications, unread first, newest first
func (r *NotificationRepository) List(ctx context.Context, userID int64, limit int) ([]*models.Notification, error) {
	query := r.sb.Select("id", "user_id", "type", "title", "body", "link", "is_read", "created_at").
		From("notifications").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("is_read ASC", "created_at DESC")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}
	return getAll[models.Notification](ctx, r.db, query)
}

// MarkRead marks one of the user's notifications as read
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID int64) error {
	stmt := r.sb.Update("notifications").
		Set("is_read", true).
		Where(squirrel.Eq{"id": id, "user_id": userID})
	return execAffected(ctx, r.db, stmt, errNotificationNotFound)
}

// MarkAllRead marks every notification of the user as read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CountUnread returns the number of unread notifications of the user
func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID).Scan(&n)
	return n, err
}

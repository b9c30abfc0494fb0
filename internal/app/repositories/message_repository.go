package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
	"github.com/yigit/rollcall/internal/pkg/dberrors"
)

// MessageRepository stores direct messages
type MessageRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{
		db: db,
		sb: statementBuilder(),
	}
}

// Create stores a message
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	sql, args, err := r.sb.Insert("messages").
		Columns("sender_id", "receiver_id", "content").
		Values(msg.SenderID, msg.ReceiverID, msg.Content).
		Suffix("RETURNING id, is_read, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create message query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&msg.ID, &msg.IsRead, &msg.CreatedAt); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrUserNotFound
		}
		return err
	}
	return nil
}

// Conversation returns the messages exchanged between two users, oldest first
func (r *MessageRepository) Conversation(ctx context.Context, userID, otherID int64, limit int) ([]*models.Message, error) {
	query := r.sb.Select("m.id", "m.sender_id", "m.receiver_id", "m.content", "m.is_read", "m.created_at", "u.name AS sender_name").
		From("messages m").
		Join("users u ON u.id = m.sender_id").
		Where(squirrel.Or{
			squirrel.Eq{"m.sender_id": userID, "m.receiver_id": otherID},
			squirrel.Eq{"m.sender_id": otherID, "m.receiver_id": userID},
		}).
		OrderBy("m.created_at DESC", "m.id DESC")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	messages, err := getAll[models.Message](ctx, r.db, query)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// MarkConversationRead marks the messages otherID sent to userID as read
func (r *MessageRepository) MarkConversationRead(ctx context.Context, userID, otherID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE messages SET is_read = TRUE WHERE receiver_id = $1 AND sender_id = $2 AND NOT is_read`, userID, otherID)
	return err
}

package services

import (
	"context"

	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/pkg/logger"
	"github.com/yigit/rollcall/internal/pkg/websocket"
)

const defaultNotificationLimit = 50

// NotificationStore persists notifications
type NotificationStore interface {
	CreateMany(ctx context.Context, userIDs []int64, template models.Notification) ([]*models.Notification, error)
	List(ctx context.Context, userID int64, limit int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	CountUnread(ctx context.Context, userID int64) (int, error)
}

// UserPusher pushes realtime events to connected users
type UserPusher interface {
	SendToUsers(userIDs []int64, eventType string, data interface{})
}

// NotificationService stores notifications and pushes them to online users
type NotificationService struct {
	store  NotificationStore
	pusher UserPusher
	flags  FeatureFlags
}

// NewNotificationService creates a new NotificationService. pusher may be nil.
func NewNotificationService(store NotificationStore, pusher UserPusher, flags FeatureFlags) *NotificationService {
	return &NotificationService{
		store:  store,
		pusher: pusher,
		flags:  flags,
	}
}

// Notify stores one notification per recipient and pushes each to its owner
func (s *NotificationService) Notify(ctx context.Context, userIDs []int64, n models.Notification) {
	if len(userIDs) == 0 || !s.flags.Enabled(ctx, SettingNotifications) {
		return
	}

	stored, err := s.store.CreateMany(ctx, dedupe(userIDs), n)
	if err != nil {
		logger.Error().Err(err).Str("type", string(n.Type)).Int("recipients", len(userIDs)).Msg("Failed to store notifications")
		return
	}

	if s.pusher == nil {
		return
	}
	for _, row := range stored {
		s.pusher.SendToUsers([]int64{row.UserID}, websocket.EventNotification, row)
	}
}

// List returns the caller's notifications, unread first
func (s *NotificationService) List(ctx context.Context, userID int64, limit int) ([]*models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultNotificationLimit
	}
	return s.store.List(ctx, userID, limit)
}

// MarkRead marks one notification of the caller as read
func (s *NotificationService) MarkRead(ctx context.Context, userID, id int64) error {
	return s.store.MarkRead(ctx, id, userID)
}

// MarkAllRead marks every notification of the caller as read
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	return s.store.MarkAllRead(ctx, userID)
}

// UnreadCount returns the caller's unread count
func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.store.CountUnread(ctx, userID)
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

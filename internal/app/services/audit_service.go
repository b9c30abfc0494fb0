package services

import (
	"context"

	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/pkg/helpers"
	"github.com/yigit/rollcall/internal/pkg/logger"
)

// AuditStore persists audit entries
type AuditStore interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, filter dto.AuditLogFilter) ([]*models.AuditLog, dto.PaginationInfo, error)
	Recent(ctx context.Context, n int) ([]*models.AuditLog, error)
	TopActions(ctx context.Context, n int) ([]dto.ActionCount, error)
}

// AuditService records who did what
type AuditService struct {
	store AuditStore
	flags FeatureFlags
}

// NewAuditService creates a new AuditService
func NewAuditService(store AuditStore, flags FeatureFlags) *AuditService {
	return &AuditService{
		store: store,
		flags: flags,
	}
}

// Record appends an entry when the audit log is enabled. Failures are logged
// and never surface to the caller.
func (s *AuditService) Record(ctx context.Context, actorID int64, action, details string) {
	if !s.flags.Enabled(ctx, SettingAuditLog) {
		return
	}

	entry := &models.AuditLog{
		Action:    action,
		Details:   details,
		IPAddress: helpers.ClientIP(ctx),
	}
	if actorID > 0 {
		entry.UserID = &actorID
	}

	if err := s.store.Create(ctx, entry); err != nil {
		logger.Error().Err(err).Str("action", action).Int64("userID", actorID).Msg("Failed to write audit log")
	}
}

// List returns a page of the audit log. The To date is inclusive.
func (s *AuditService) List(ctx context.Context, filter dto.AuditLogFilter) ([]*models.AuditLog, dto.PaginationInfo, error) {
	if filter.To != nil {
		end := filter.To.AddDate(0, 0, 1)
		filter.To = &end
	}
	return s.store.List(ctx, filter)
}

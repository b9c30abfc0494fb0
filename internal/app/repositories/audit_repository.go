package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
)

// AuditRepository stores the audit log
type AuditRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{
		db: db,
		sb: statementBuilder(),
	}
}

// Create appends an entry to the audit log
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	sql, args, err := r.sb.Insert("audit_logs").
		Columns("user_id", "action", "details", "ip_address").
		Values(entry.UserID, entry.Action, entry.Details, entry.IPAddress).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create audit log query: %w", err)
	}
	return r.db.QueryRow(ctx, sql, args...).Scan(&entry.ID, &entry.CreatedAt)
}

func applyAuditFilter(query squirrel.SelectBuilder, filter dto.AuditLogFilter) squirrel.SelectBuilder {
	if filter.Action != nil {
		query = query.Where(squirrel.Eq{"l.action": *filter.Action})
	}
	if filter.UserID != nil {
		query = query.Where(squirrel.Eq{"l.user_id": *filter.UserID})
	}
	if filter.From != nil {
		query = query.Where(squirrel.GtOrEq{"l.created_at": *filter.From})
	}
	if filter.To != nil {
		query = query.Where(squirrel.Lt{"l.created_at": *filter.To})
	}
	return query
}

func (r *AuditRepository) selectLogs() squirrel.SelectBuilder {
	return r.sb.Select("l.id", "l.user_id", "l.action", "l.details", "l.ip_address", "l.created_at", "u.name AS user_name").
		From("audit_logs l").
		LeftJoin("users u ON u.id = l.user_id")
}

// List returns a page of audit entries, newest first
func (r *AuditRepository) List(ctx context.Context, filter dto.AuditLogFilter) ([]*models.AuditLog, dto.PaginationInfo, error) {
	list := applyAuditFilter(r.selectLogs(), filter).OrderBy("l.created_at DESC", "l.id DESC")
	count := applyAuditFilter(r.sb.Select("COUNT(*)").From("audit_logs l"), filter)
	return getPage[models.AuditLog](ctx, r.db, list, count, filter.Page, filter.Size)
}

// Recent returns the latest n entries
func (r *AuditRepository) Recent(ctx context.Context, n int) ([]*models.AuditLog, error) {
	return getAll[models.AuditLog](ctx, r.db, r.selectLogs().OrderBy("l.created_at DESC", "l.id DESC").Limit(uint64(n)))
}

// TopActions returns the most frequent actions
func (r *AuditRepository) TopActions(ctx context.Context, n int) ([]dto.ActionCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT action, COUNT(*) FROM audit_logs
		GROUP BY action ORDER BY COUNT(*) DESC, action ASC LIMIT $1`, n)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (dto.ActionCount, error) {
		var ac dto.ActionCount
		err := row.Scan(&ac.Action, &ac.Count)
		return ac, err
	})
}

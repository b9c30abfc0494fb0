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

// HolidayRepository handles the holiday calendar table
type HolidayRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewHolidayRepository creates a new HolidayRepository
func NewHolidayRepository(db *pgxpool.Pool) *HolidayRepository {
	return &HolidayRepository{
		db: db,
		sb: statementBuilder(),
	}
}

// List returns every holiday in date order
func (r *HolidayRepository) List(ctx context.Context) ([]*models.Holiday, error) {
	query := r.sb.Select("id", "holiday_date", "label", "created_at").From("holidays").OrderBy("holiday_date ASC")
	return getAll[models.Holiday](ctx, r.db, query)
}

// Create adds a holiday; a date can only be listed once
func (r *HolidayRepository) Create(ctx context.Context, holiday *models.Holiday) error {
	sql, args, err := r.sb.Insert("holidays").
		Columns("holiday_date", "label").
		Values(holiday.Date, holiday.Label).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create holiday query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&holiday.ID, &holiday.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "holidays_date_key") {
			return apperrors.NewConflictError("a holiday already exists on this date")
		}
		return err
	}
	return nil
}

// Upsert adds a holiday or relabels the existing one on the same date
func (r *HolidayRepository) Upsert(ctx context.Context, holiday *models.Holiday) error {
	sql, args, err := r.sb.Insert("holidays").
		Columns("holiday_date", "label").
		Values(holiday.Date, holiday.Label).
		Suffix("ON CONFLICT (holiday_date) DO UPDATE SET label = EXCLUDED.label RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert holiday query: %w", err)
	}
	return r.db.QueryRow(ctx, sql, args...).Scan(&holiday.ID, &holiday.CreatedAt)
}

// Delete removes a holiday by ID
func (r *HolidayRepository) Delete(ctx context.Context, id int64) error {
	stmt := r.sb.Delete("holidays").Where(squirrel.Eq{"id": id})
	return execAffected(ctx, r.db, stmt, apperrors.NewResourceNotFoundError("holiday not found"))
}

package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
	"github.com/yigit/rollcall/internal/pkg/dberrors"
)

var semesterColumns = []string{"id", "name", "start_date", "end_date", "is_active", "created_at"}

// SemesterRepository handles database operations for semesters
type SemesterRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewSemesterRepository creates a new SemesterRepository
func NewSemesterRepository(db *pgxpool.Pool) *SemesterRepository {
	return &SemesterRepository{
		db: db,
		sb: statementBuilder(),
	}
}

// Create inserts a semester. Only one semester is active at a time, so
// activating this one deactivates the others in the same transaction.
func (r *SemesterRepository) Create(ctx context.Context, semester *models.Semester) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		sql, args, err := r.sb.Insert("semesters").
			Columns("name", "start_date", "end_date", "is_active").
			Values(semester.Name, semester.StartDate, semester.EndDate, semester.IsActive).
			Suffix("RETURNING id, created_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build create semester query: %w", err)
		}

		if err := tx.QueryRow(ctx, sql, args...).Scan(&semester.ID, &semester.CreatedAt); err != nil {
			return mapSemesterWriteError(err)
		}
		return r.deactivateOthers(ctx, tx, semester)
	})
}

// GetByID retrieves a semester by ID
func (r *SemesterRepository) GetByID(ctx context.Context, id int64) (*models.Semester, error) {
	query := r.sb.Select(semesterColumns...).From("semesters").Where(squirrel.Eq{"id": id})
	return getOne[models.Semester](ctx, r.db, query, apperrors.NewResourceNotFoundError("semester not found"))
}

// GetAll lists semesters, most recent first
func (r *SemesterRepository) GetAll(ctx context.Context) ([]*models.Semester, error) {
	query := r.sb.Select(semesterColumns...).From("semesters").OrderBy("start_date DESC")
	return getAll[models.Semester](ctx, r.db, query)
}

// Update overwrites a semester
func (r *SemesterRepository) Update(ctx context.Context, semester *models.Semester) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		stmt := r.sb.Update("semesters").
			Set("name", semester.Name).
			Set("start_date", semester.StartDate).
			Set("end_date", semester.EndDate).
			Set("is_active", semester.IsActive).
			Where(squirrel.Eq{"id": semester.ID})

		if err := execAffected(ctx, tx, stmt, apperrors.NewResourceNotFoundError("semester not found")); err != nil {
			return mapSemesterWriteError(err)
		}
		return r.deactivateOthers(ctx, tx, semester)
	})
}

// Delete removes a semester; its courses keep existing without one
func (r *SemesterRepository) Delete(ctx context.Context, id int64) error {
	stmt := r.sb.Delete("semesters").Where(squirrel.Eq{"id": id})
	return execAffected(ctx, r.db, stmt, apperrors.NewResourceNotFoundError("semester not found"))
}

func (r *SemesterRepository) deactivateOthers(ctx context.Context, tx pgx.Tx, semester *models.Semester) error {
	if !semester.IsActive {
		return nil
	}
	_, err := tx.Exec(ctx, `UPDATE semesters SET is_active = FALSE WHERE id <> $1 AND is_active`, semester.ID)
	return err
}

func mapSemesterWriteError(err error) error {
	switch {
	case dberrors.IsUniqueViolation(err):
		return apperrors.NewConflictError("a semester with this name already exists")
	case dberrors.IsCheckViolation(err):
		return apperrors.NewValidationError("semester end date must not be before its start date")
	}
	return err
}

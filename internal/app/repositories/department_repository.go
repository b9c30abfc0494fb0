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
	"github.com/yigit/rollcall/internal/pkg/logger"
)

// DepartmentRepository handles database operations for departments
type DepartmentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewDepartmentRepository creates a new department repository
func NewDepartmentRepository(db *pgxpool.Pool) *DepartmentRepository {
	return &DepartmentRepository{
		db: db,
		sb: statementBuilder(),
	}
}

// Create creates a new department
func (r *DepartmentRepository) Create(ctx context.Context, department *models.Department) error {
	sql, args, err := r.sb.Insert("departments").
		Columns("name", "code").
		Values(department.Name, department.Code).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create department query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&department.ID, &department.CreatedAt); err != nil {
		if dberrors.IsUniqueViolation(err) {
			return apperrors.ErrDepartmentAlreadyExists
		}
		logger.Error().Err(err).Str("code", department.Code).Msg("Error executing create department query")
		return err
	}
	return nil
}

// GetByID retrieves a department by ID
func (r *DepartmentRepository) GetByID(ctx context.Context, id int64) (*models.Department, error) {
	query := r.sb.Select("id", "name", "code", "created_at").From("departments").Where(squirrel.Eq{"id": id})
	return getOne[models.Department](ctx, r.db, query, apperrors.ErrDepartmentNotFound)
}

// GetAll retrieves all departments ordered by name
func (r *DepartmentRepository) GetAll(ctx context.Context) ([]*models.Department, error) {
	query := r.sb.Select("id", "name", "code", "created_at").From("departments").OrderBy("name ASC")
	return getAll[models.Department](ctx, r.db, query)
}

// Update renames a department
func (r *DepartmentRepository) Update(ctx context.Context, department *models.Department) error {
	stmt := r.sb.Update("departments").
		Set("name", department.Name).
		Set("code", department.Code).
		Where(squirrel.Eq{"id": department.ID})

	err := execAffected(ctx, r.db, stmt, apperrors.ErrDepartmentNotFound)
	if dberrors.IsUniqueViolation(err) {
		return apperrors.ErrDepartmentAlreadyExists
	}
	return err
}

// Delete removes a department that no course or user still references
func (r *DepartmentRepository) Delete(ctx context.Context, id int64) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var inUse bool
		err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM courses WHERE department_id = $1)
			    OR EXISTS (SELECT 1 FROM users WHERE department_id = $1)`, id).Scan(&inUse)
		if err != nil {
			return err
		}
		if inUse {
			return apperrors.ErrDepartmentHasRelations
		}
		return execAffected(ctx, tx, r.sb.Delete("departments").Where(squirrel.Eq{"id": id}), apperrors.ErrDepartmentNotFound)
	})
}

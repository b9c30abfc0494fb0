package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
	"github.com/yigit/rollcall/internal/pkg/dberrors"
	"github.com/yigit/rollcall/internal/pkg/logger"
)

var userColumns = []string{
	"id", "email", "password", "name", "student_number", "role_type",
	"department_id", "is_active", "last_login_at", "created_at", "updated_at",
}

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		db: db,
		sb: statementBuilder(),
	}
}

func (r *UserRepository) selectUsers() squirrel.SelectBuilder {
	return r.sb.Select(userColumns...).From("users")
}

// mapUserWriteError translates unique violations into domain errors
func mapUserWriteError(err error) error {
	switch {
	case dberrors.IsDuplicateConstraintError(err, "users_email_key"):
		return apperrors.ErrEmailAlreadyExists
	case dberrors.IsDuplicateConstraintError(err, "users_student_number_key"):
		return apperrors.ErrStudentNumberExists
	case dberrors.IsForeignKeyViolation(err):
		return apperrors.ErrDepartmentNotFound
	}
	return err
}

// Create inserts a user and fills in its ID and timestamps
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	sql, args, err := r.sb.Insert("users").
		Columns("email", "password", "name", "student_number", "role_type", "department_id", "is_active").
		Values(user.Email, user.Password, user.Name, user.StudentNumber, user.RoleType, user.DepartmentID, user.IsActive).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create user query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if mapped := mapUserWriteError(err); mapped != err {
			return mapped
		}
		logger.Error().Err(err).Str("email", user.Email).Msg("Error executing create user query")
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return getOne[models.User](ctx, r.db, r.selectUsers().Where(squirrel.Eq{"id": id}), apperrors.ErrUserNotFound)
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := r.selectUsers().Where("LOWER(email) = LOWER(?)", email)
	return getOne[models.User](ctx, r.db, query, apperrors.ErrUserNotFound)
}

// GetByStudentNumber retrieves a student by their student number
func (r *UserRepository) GetByStudentNumber(ctx context.Context, number string) (*models.User, error) {
	query := r.selectUsers().Where(squirrel.Eq{"student_number": number, "role_type": models.RoleStudent})
	return getOne[models.User](ctx, r.db, query, apperrors.ErrUserNotFound)
}

// List returns one page of users matching the filter, ordered by name
func (r *UserRepository) List(ctx context.Context, filter dto.UserFilter) ([]*models.User, dto.PaginationInfo, error) {
	list := r.selectUsers()
	count := r.sb.Select("COUNT(*)").From("users")

	if filter.Role != nil {
		list = list.Where(squirrel.Eq{"role_type": *filter.Role})
		count = count.Where(squirrel.Eq{"role_type": *filter.Role})
	}
	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		cond := squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"email": pattern},
			squirrel.ILike{"student_number": pattern},
		}
		list = list.Where(cond)
		count = count.Where(cond)
	}

	return getPage[models.User](ctx, r.db, list.OrderBy("name ASC", "id ASC"), count, filter.Page, filter.Size)
}

// ListByRole returns every active user with the given role
func (r *UserRepository) ListByRole(ctx context.Context, role models.RoleType) ([]*models.User, error) {
	query := r.selectUsers().
		Where(squirrel.Eq{"role_type": role, "is_active": true}).
		OrderBy("name ASC")
	return getAll[models.User](ctx, r.db, query)
}

// ListInstructorsOfStudent returns the instructors of the courses a student is enrolled in
func (r *UserRepository) ListInstructorsOfStudent(ctx context.Context, studentID int64) ([]*models.User, error) {
	query := r.selectUsers().
		Where(`id IN (
			SELECT c.instructor_id FROM courses c
			JOIN enrollments e ON e.course_id = c.id
			WHERE e.student_id = ?)`, studentID).
		OrderBy("name ASC")
	return getAll[models.User](ctx, r.db, query)
}

// ListStudentsOfInstructor returns the students enrolled in any course of an instructor
func (r *UserRepository) ListStudentsOfInstructor(ctx context.Context, instructorID int64) ([]*models.User, error) {
	query := r.selectUsers().
		Where(`id IN (
			SELECT e.student_id FROM enrollments e
			JOIN courses c ON c.id = e.course_id
			WHERE c.instructor_id = ?)`, instructorID).
		OrderBy("name ASC")
	return getAll[models.User](ctx, r.db, query)
}

// Update writes the mutable profile fields of a user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	stmt := r.sb.Update("users").
		Set("email", user.Email).
		Set("name", user.Name).
		Set("student_number", user.StudentNumber).
		Set("role_type", user.RoleType).
		Set("department_id", user.DepartmentID).
		Set("is_active", user.IsActive).
		Set("updated_at", squirrel.Expr("CURRENT_TIMESTAMP")).
		Where(squirrel.Eq{"id": user.ID})

	if err := execAffected(ctx, r.db, stmt, apperrors.ErrUserNotFound); err != nil {
		if mapped := mapUserWriteError(err); mapped != err {
			return mapped
		}
		if err != apperrors.ErrUserNotFound {
			logger.Error().Err(err).Int64("userID", user.ID).Msg("Error executing update user query")
		}
		return err
	}
	return nil
}

// UpdatePassword stores a new password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, hash string) error {
	stmt := r.sb.Update("users").
		Set("password", hash).
		Set("updated_at", squirrel.Expr("CURRENT_TIMESTAMP")).
		Where(squirrel.Eq{"id": userID})
	return execAffected(ctx, r.db, stmt, apperrors.ErrUserNotFound)
}

// UpdateLastLogin records a successful login
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	stmt := r.sb.Update("users").Set("last_login_at", at).Where(squirrel.Eq{"id": userID})
	return execAffected(ctx, r.db, stmt, apperrors.ErrUserNotFound)
}

// Delete removes a user and, through cascades, everything they own
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return execAffected(ctx, r.db, r.sb.Delete("users").Where(squirrel.Eq{"id": id}), apperrors.ErrUserNotFound)
}

// CountByRole returns the number of users per role
func (r *UserRepository) CountByRole(ctx context.Context) (map[models.RoleType]int, error) {
	rows, err := r.db.Query(ctx, `SELECT role_type, COUNT(*) FROM users GROUP BY role_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[models.RoleType]int{
		models.RoleStudent:    0,
		models.RoleInstructor: 0,
		models.RoleAdmin:      0,
	}
	for rows.Next() {
		var role models.RoleType
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		counts[role] = n
	}
	return counts, rows.Err()
}

package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/domain/attendance"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
	"github.com/yigit/rollcall/internal/pkg/dberrors"
	"github.com/yigit/rollcall/internal/pkg/logger"
)

// EnrollmentRepository handles course membership
type EnrollmentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewEnrollmentRepository creates a new EnrollmentRepository
func NewEnrollmentRepository(db *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{
		db: db,
		sb: statementBuilder(),
	}
}

// Enroll adds a student to a course and seeds an unmarked mark for every
// existing session of the course, in one transaction.
func (r *EnrollmentRepository) Enroll(ctx context.Context, courseID, studentID int64) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO enrollments (course_id, student_id) VALUES ($1, $2)`, courseID, studentID); err != nil {
			switch {
			case dberrors.IsUniqueViolation(err):
				return apperrors.ErrAlreadyEnrolled
			case dberrors.IsForeignKeyViolation(err):
				return apperrors.ErrCourseNotFound
			}
			return err
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO attendances (session_id, student_id, status)
			SELECT id, $2, $3 FROM sessions WHERE course_id = $1
			ON CONFLICT (session_id, student_id) DO NOTHING`, courseID, studentID, attendance.StatusUnmarked)
		return err
	})
	if err != nil && err != apperrors.ErrAlreadyEnrolled {
		logger.Error().Err(err).Int64("courseID", courseID).Int64("studentID", studentID).Msg("Error enrolling student")
	}
	return err
}

// Unenroll removes a student from a course. Recorded marks are kept as
// history; only the unmarked placeholders are dropped.
func (r *EnrollmentRepository) Unenroll(ctx context.Context, courseID, studentID int64) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		stmt := r.sb.Delete("enrollments").Where(squirrel.Eq{"course_id": courseID, "student_id": studentID})
		if err := execAffected(ctx, tx, stmt, apperrors.ErrNotEnrolled); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `
			DELETE FROM attendances a USING sessions s
			WHERE a.session_id = s.id AND s.course_id = $1 AND a.student_id = $2 AND a.status = $3`,
			courseID, studentID, attendance.StatusUnmarked)
		return err
	})
}

// IsEnrolled reports whether a student belongs to a course
func (r *EnrollmentRepository) IsEnrolled(ctx context.Context, courseID, studentID int64) (bool, error) {
	var enrolled bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM enrollments WHERE course_id = $1 AND student_id = $2)`,
		courseID, studentID).Scan(&enrolled)
	return enrolled, err
}

// ListStudents returns the roster of a course ordered by student number
func (r *EnrollmentRepository) ListStudents(ctx context.Context, courseID int64) ([]*models.EnrolledStudent, error) {
	query := r.sb.Select("u.id", "u.name", "u.email", "u.student_number", "e.created_at AS enrolled_at").
		From("enrollments e").
		Join("users u ON u.id = e.student_id").
		Where(squirrel.Eq{"e.course_id": courseID}).
		OrderBy("u.student_number ASC NULLS LAST", "u.name ASC")
	return getAll[models.EnrolledStudent](ctx, r.db, query)
}

// ListCandidates returns active students not enrolled in the course
func (r *EnrollmentRepository) ListCandidates(ctx context.Context, courseID int64) ([]*models.User, error) {
	query := r.sb.Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"role_type": models.RoleStudent, "is_active": true}).
		Where("NOT EXISTS (SELECT 1 FROM enrollments e WHERE e.course_id = ? AND e.student_id = users.id)", courseID).
		OrderBy("student_number ASC NULLS LAST", "name ASC")
	return getAll[models.User](ctx, r.db, query)
}

// ListStudentIDs returns the IDs of the students enrolled in a course
func (r *EnrollmentRepository) ListStudentIDs(ctx context.Context, courseID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT student_id FROM enrollments WHERE course_id = $1 ORDER BY student_id`, courseID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

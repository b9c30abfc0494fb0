package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/db"
	"github.com/yigit/rollcall/internal/domain/schedule"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
	"github.com/yigit/rollcall/internal/pkg/dberrors"
	"github.com/yigit/rollcall/internal/pkg/logger"
)

// CourseRepository handles database operations for courses
type CourseRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(db *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{
		db: db,
		sb: statementBuilder(),
	}
}

// selectCourseDetails joins the instructor, department and semester names and
// the session and student counts onto each course row.
func (r *CourseRepository) selectCourseDetails() squirrel.SelectBuilder {
	return r.sb.Select(
		"c.id", "c.name", "c.code", "c.instructor_id", "c.department_id", "c.semester_id",
		"c.start_date", "c.day_of_week", "c.course_length", "c.attendance_type",
		"c.start_time", "c.end_time", "c.created_at", "c.updated_at",
		"u.name AS instructor_name", "d.name AS department_name", "sm.name AS semester_name",
		"(SELECT COUNT(*) FROM sessions s WHERE s.course_id = c.id) AS session_count",
		"(SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c.id) AS student_count",
	).
		From("courses c").
		Join("users u ON u.id = c.instructor_id").
		LeftJoin("departments d ON d.id = c.department_id").
		LeftJoin("semesters sm ON sm.id = c.semester_id")
}

func mapCourseWriteError(err error) error {
	switch {
	case dberrors.IsForeignKeyViolation(err):
		return apperrors.NewValidationError("referenced instructor, department or semester does not exist")
	case dberrors.IsCheckViolation(err):
		return apperrors.NewValidationError("course values are out of range")
	}
	return err
}

// CreateWithSessions inserts the course and its generated sessions in one
// transaction and returns the stored sessions in week order.
func (r *CourseRepository) CreateWithSessions(ctx context.Context, course *models.Course, drafts []schedule.SessionDraft) ([]*models.Session, error) {
	var sessions []*models.Session

	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Insert("courses").
			Columns("name", "code", "instructor_id", "department_id", "semester_id", "start_date",
				"day_of_week", "course_length", "attendance_type", "start_time", "end_time").
			Values(course.Name, course.Code, course.InstructorID, course.DepartmentID, course.SemesterID, course.StartDate,
				course.DayOfWeek, course.CourseLength, course.AttendanceType, course.StartTime, course.EndTime).
			Suffix("RETURNING id, created_at, updated_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build create course query: %w", err)
		}

		if err := tx.QueryRow(ctx, sql, args...).Scan(&course.ID, &course.CreatedAt, &course.UpdatedAt); err != nil {
			return mapCourseWriteError(err)
		}

		sessions, err = insertDrafts(ctx, tx, r.sb, course, drafts)
		return err
	})
	if err != nil {
		logger.Error().Err(err).Str("course", course.Name).Msg("Error creating course with sessions")
		return nil, err
	}
	return sessions, nil
}

// insertDrafts stores the drafts of a course with one multi-row insert
func insertDrafts(ctx context.Context, tx pgx.Tx, sb squirrel.StatementBuilderType, course *models.Course, drafts []schedule.SessionDraft) ([]*models.Session, error) {
	if len(drafts) == 0 {
		return []*models.Session{}, nil
	}

	insert := sb.Insert("sessions").
		Columns("course_id", "week", "session_date", "title", "kind", "original_week", "is_open", "auth_code", "attendance_type")
	for _, d := range drafts {
		var code *string
		if d.AuthCode != "" {
			c := d.AuthCode
			code = &c
		}
		var original *int
		if d.OriginalWeek > 0 {
			w := d.OriginalWeek
			original = &w
		}
		insert = insert.Values(course.ID, d.Week, d.Date, d.Title, d.Kind, original, d.IsOpen, code, course.AttendanceType)
	}
	insert = insert.Suffix("RETURNING " + sessionReturning)

	return getAll[models.Session](ctx, tx, insert)
}

// GetByID retrieves a course with its related names
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*models.CourseDetails, error) {
	query := r.selectCourseDetails().Where(squirrel.Eq{"c.id": id})
	return getOne[models.CourseDetails](ctx, r.db, query, apperrors.ErrCourseNotFound)
}

// GetInstructorID returns the owner of a course
func (r *CourseRepository) GetInstructorID(ctx context.Context, courseID int64) (int64, error) {
	var instructorID int64
	err := r.db.QueryRow(ctx, `SELECT instructor_id FROM courses WHERE id = $1`, courseID).Scan(&instructorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrCourseNotFound
		}
		return 0, err
	}
	return instructorID, nil
}

// List returns one page of courses matching the filter
func (r *CourseRepository) List(ctx context.Context, filter dto.CourseFilter) ([]*models.CourseDetails, dto.PaginationInfo, error) {
	list := r.selectCourseDetails()
	count := r.sb.Select("COUNT(*)").From("courses c")

	var conds squirrel.And
	if filter.InstructorID != nil {
		conds = append(conds, squirrel.Eq{"c.instructor_id": *filter.InstructorID})
	}
	if filter.StudentID != nil {
		conds = append(conds, squirrel.Expr(
			"EXISTS (SELECT 1 FROM enrollments e WHERE e.course_id = c.id AND e.student_id = ?)", *filter.StudentID))
	}
	if filter.DepartmentID != nil {
		conds = append(conds, squirrel.Eq{"c.department_id": *filter.DepartmentID})
	}
	if filter.SemesterID != nil {
		conds = append(conds, squirrel.Eq{"c.semester_id": *filter.SemesterID})
	}
	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		conds = append(conds, squirrel.Or{squirrel.ILike{"c.name": pattern}, squirrel.ILike{"c.code": pattern}})
	}
	if len(conds) > 0 {
		list = list.Where(conds)
		count = count.Where(conds)
	}

	return getPage[models.CourseDetails](ctx, r.db, list.OrderBy("c.created_at DESC", "c.id DESC"), count, filter.Page, filter.Size)
}

// ListAll returns every course, used by reports
func (r *CourseRepository) ListAll(ctx context.Context) ([]*models.CourseDetails, error) {
	return getAll[models.CourseDetails](ctx, r.db, r.selectCourseDetails().OrderBy("c.id ASC"))
}

// Update overwrites the metadata of a course
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	stmt := r.sb.Update("courses").
		Set("name", course.Name).
		Set("code", course.Code).
		Set("instructor_id", course.InstructorID).
		Set("department_id", course.DepartmentID).
		Set("semester_id", course.SemesterID).
		Set("attendance_type", course.AttendanceType).
		Set("start_time", course.StartTime).
		Set("end_time", course.EndTime).
		Set("updated_at", squirrel.Expr("CURRENT_TIMESTAMP")).
		Where(squirrel.Eq{"id": course.ID})

	return mapCourseWriteError(execAffected(ctx, r.db, stmt, apperrors.ErrCourseNotFound))
}

// Delete removes a course; sessions, enrollments and marks cascade
func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	return execAffected(ctx, r.db, r.sb.Delete("courses").Where(squirrel.Eq{"id": id}), apperrors.ErrCourseNotFound)
}

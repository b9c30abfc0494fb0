package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/rollcall/internal/app/models"
)

// RosterRow is one enrollment with the names needed by reports
type RosterRow struct {
	CourseID      int64   `db:"course_id"`
	CourseName    string  `db:"course_name"`
	StudentID     int64   `db:"student_id"`
	StudentName   string  `db:"student_name"`
	StudentNumber *string `db:"student_number"`
}

// ReportRepository reads data across all courses for the admin reports
type ReportRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{
		db: db,
		sb: statementBuilder(),
	}
}

// CountCourses returns the number of courses
func (r *ReportRepository) CountCourses(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM courses`).Scan(&n)
	return n, err
}

// Roster returns every enrollment ordered by course, then student number
func (r *ReportRepository) Roster(ctx context.Context) ([]*RosterRow, error) {
	query := r.sb.Select("e.course_id", "c.name AS course_name", "e.student_id", "u.name AS student_name", "u.student_number").
		From("enrollments e").
		Join("courses c ON c.id = e.course_id").
		Join("users u ON u.id = e.student_id").
		OrderBy("c.name ASC", "u.student_number ASC NULLS LAST")
	return getAll[RosterRow](ctx, r.db, query)
}

// Sessions returns the sessions of every course
func (r *ReportRepository) Sessions(ctx context.Context) ([]*models.Session, error) {
	return getAll[models.Session](ctx, r.db, r.sb.Select(sessionColumns...).From("sessions").OrderBy("course_id", "week", "session_date"))
}

// Marks returns every attendance mark
func (r *ReportRepository) Marks(ctx context.Context) ([]*models.AttendanceMark, error) {
	query := r.sb.Select("id", "session_id", "student_id", "status", "checked_at", "updated_at").From("attendances")
	return getAll[models.AttendanceMark](ctx, r.db, query)
}

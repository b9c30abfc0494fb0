package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/db"
	"github.com/yigit/rollcall/internal/domain/attendance"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
	"github.com/yigit/rollcall/internal/pkg/logger"
)

const markReturning = "id, session_id, student_id, status, checked_at, updated_at"

// AttendanceFilter narrows attendance record listings
type AttendanceFilter struct {
	SessionID *int64
	StudentID *int64
	CourseID  *int64
}

// AttendanceRepository handles attendance marks
type AttendanceRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewAttendanceRepository creates a new AttendanceRepository
func NewAttendanceRepository(db *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{
		db: db,
		sb: statementBuilder(),
	}
}

// CheckIn records a student's own check-in. Within one transaction it
// re-reads the session under a share lock so a concurrent close wins, then
// upserts the mark only while it is still unmarked. A final mark that is
// already present yields ErrAlreadyCheckedIn.
func (r *AttendanceRepository) CheckIn(ctx context.Context, sessionID, studentID int64, status attendance.Status, now time.Time) (*models.AttendanceMark, error) {
	var mark *models.AttendanceMark

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var isOpen bool
		var openUntil *time.Time
		err := tx.QueryRow(ctx,
			`SELECT is_open, open_until FROM sessions WHERE id = $1 FOR SHARE`, sessionID).Scan(&isOpen, &openUntil)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrSessionNotFound
			}
			return err
		}
		if !isOpen || (openUntil != nil && !now.Before(*openUntil)) {
			return apperrors.ErrAttendanceClosed
		}

		rows, err := tx.Query(ctx, `
			INSERT INTO attendances (session_id, student_id, status, checked_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
			ON CONFLICT (session_id, student_id) DO UPDATE
				SET status = EXCLUDED.status, checked_at = EXCLUDED.checked_at, updated_at = EXCLUDED.updated_at
				WHERE attendances.status = 'unmarked'
			RETURNING `+markReturning, sessionID, studentID, status, now)
		if err != nil {
			return err
		}
		mark, err = pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.AttendanceMark])
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrAlreadyCheckedIn
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return mark, nil
}

// GetByID retrieves a mark by ID
func (r *AttendanceRepository) GetByID(ctx context.Context, id int64) (*models.AttendanceMark, error) {
	query := r.sb.Select("id", "session_id", "student_id", "status", "checked_at", "updated_at").
		From("attendances").
		Where(squirrel.Eq{"id": id})
	return getOne[models.AttendanceMark](ctx, r.db, query, apperrors.ErrAttendanceNotFound)
}

// UpdateStatus overrides a mark. Final statuses are stamped with at; going
// back to unmarked clears the check-in time.
func (r *AttendanceRepository) UpdateStatus(ctx context.Context, id int64, status attendance.Status, at time.Time) (*models.AttendanceMark, error) {
	var checkedAt *time.Time
	if status.IsFinal() {
		checkedAt = &at
	}

	query := r.sb.Update("attendances").
		Set("status", status).
		Set("checked_at", checkedAt).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + markReturning)
	return getOne[models.AttendanceMark](ctx, r.db, query, apperrors.ErrAttendanceNotFound)
}

// SetStatus writes the status of a (session, student) pair whether or not a
// mark exists yet.
func (r *AttendanceRepository) SetStatus(ctx context.Context, sessionID, studentID int64, status attendance.Status, at time.Time) error {
	return setStatus(ctx, r.db, sessionID, studentID, status, at)
}

func setStatus(ctx context.Context, q db.DBTX, sessionID, studentID int64, status attendance.Status, at time.Time) error {
	_, err := q.Exec(ctx, `
		INSERT INTO attendances (session_id, student_id, status, checked_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (session_id, student_id) DO UPDATE
			SET status = EXCLUDED.status, checked_at = EXCLUDED.checked_at, updated_at = EXCLUDED.updated_at`,
		sessionID, studentID, status, at)
	if err != nil {
		logger.Error().Err(err).Int64("sessionID", sessionID).Int64("studentID", studentID).Msg("Error setting attendance status")
		return fmt.Errorf("error setting attendance status: %w", err)
	}
	return nil
}

// ListRecords returns marks joined with their session, course and student
func (r *AttendanceRepository) ListRecords(ctx context.Context, filter AttendanceFilter) ([]*models.AttendanceRecord, error) {
	query := r.sb.Select(
		"a.id", "a.session_id", "a.student_id", "a.status", "a.checked_at", "a.updated_at",
		"s.course_id", "c.name AS course_name", "s.week", "s.session_date", "s.title",
		"u.name AS student_name", "u.student_number",
	).
		From("attendances a").
		Join("sessions s ON s.id = a.session_id").
		Join("courses c ON c.id = s.course_id").
		Join("users u ON u.id = a.student_id")

	if filter.SessionID != nil {
		query = query.Where(squirrel.Eq{"a.session_id": *filter.SessionID})
	}
	if filter.StudentID != nil {
		query = query.Where(squirrel.Eq{"a.student_id": *filter.StudentID})
	}
	if filter.CourseID != nil {
		query = query.Where(squirrel.Eq{"s.course_id": *filter.CourseID})
	}

	return getAll[models.AttendanceRecord](ctx, r.db, query.OrderBy("c.name ASC", "s.week ASC", "s.session_date ASC", "u.student_number ASC NULLS LAST"))
}

// ListMarksByCourse returns every mark recorded against the sessions of a course
func (r *AttendanceRepository) ListMarksByCourse(ctx context.Context, courseID int64) ([]*models.AttendanceMark, error) {
	query := r.sb.Select("a.id", "a.session_id", "a.student_id", "a.status", "a.checked_at", "a.updated_at").
		From("attendances a").
		Join("sessions s ON s.id = a.session_id").
		Where(squirrel.Eq{"s.course_id": courseID})
	return getAll[models.AttendanceMark](ctx, r.db, query)
}

// ListMarks returns the marks of one student in one course
func (r *AttendanceRepository) ListMarks(ctx context.Context, courseID, studentID int64) ([]*models.AttendanceMark, error) {
	query := r.sb.Select("a.id", "a.session_id", "a.student_id", "a.status", "a.checked_at", "a.updated_at").
		From("attendances a").
		Join("sessions s ON s.id = a.session_id").
		Where(squirrel.Eq{"s.course_id": courseID, "a.student_id": studentID})
	return getAll[models.AttendanceMark](ctx, r.db, query)
}

// CountByStatus counts marks per status, optionally only those checked since a time
func (r *AttendanceRepository) CountByStatus(ctx context.Context, since *time.Time) (map[attendance.Status]int, error) {
	query := r.sb.Select("status", "COUNT(*)").From("attendances").GroupBy("status")
	if since != nil {
		query = query.Where(squirrel.GtOrEq{"checked_at": *since})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count marks query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[attendance.Status]int, len(attendance.Statuses))
	for _, s := range attendance.Statuses {
		counts[s] = 0
	}
	for rows.Next() {
		var status attendance.Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

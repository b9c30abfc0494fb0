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
	"github.com/yigit/rollcall/internal/pkg/apperrors"
	"github.com/yigit/rollcall/internal/pkg/logger"
)

var sessionColumns = []string{
	"id", "course_id", "week", "session_date", "title", "kind", "original_week",
	"is_open", "auth_code", "attendance_type", "open_until", "started_at", "created_at",
}

const sessionReturning = "id, course_id, week, session_date, title, kind, original_week, " +
	"is_open, auth_code, attendance_type, open_until, started_at, created_at"

// SessionRepository handles database operations for class sessions
type SessionRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{
		db: db,
		sb: statementBuilder(),
	}
}

func (r *SessionRepository) selectSessions() squirrel.SelectBuilder {
	return r.sb.Select(sessionColumns...).From("sessions")
}

// GetByID retrieves a session by ID
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	return getOne[models.Session](ctx, r.db, r.selectSessions().Where(squirrel.Eq{"id": id}), apperrors.ErrSessionNotFound)
}

// ListByCourse returns the sessions of a course ordered by week, then date
func (r *SessionRepository) ListByCourse(ctx context.Context, courseID int64) ([]*models.Session, error) {
	query := r.selectSessions().
		Where(squirrel.Eq{"course_id": courseID}).
		OrderBy("week ASC", "session_date ASC", "id ASC")
	return getAll[models.Session](ctx, r.db, query)
}

// ListOpen returns every session currently accepting check-ins
func (r *SessionRepository) ListOpen(ctx context.Context) ([]*models.Session, error) {
	query := r.selectSessions().Where(squirrel.Eq{"is_open": true}).OrderBy("open_until ASC NULLS LAST")
	return getAll[models.Session](ctx, r.db, query)
}

// Create adds a single session to a course and seeds unmarked marks for the
// students already enrolled, in one transaction.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		sql, args, err := r.sb.Insert("sessions").
			Columns("course_id", "week", "session_date", "title", "kind", "original_week", "is_open", "auth_code", "attendance_type").
			Values(session.CourseID, session.Week, session.Date, session.Title, session.Kind,
				session.OriginalWeek, session.IsOpen, session.AuthCode, session.AttendanceType).
			Suffix("RETURNING id, created_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build create session query: %w", err)
		}

		if err := tx.QueryRow(ctx, sql, args...).Scan(&session.ID, &session.CreatedAt); err != nil {
			return mapCourseWriteError(err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO attendances (session_id, student_id)
			SELECT $1, student_id FROM enrollments WHERE course_id = $2
			ON CONFLICT (session_id, student_id) DO NOTHING`, session.ID, session.CourseID)
		return err
	})
}

// Toggle flips a session between open and closed in a single statement.
// Opening sets openUntil, stamps startedAt the first time and fills in code
// when the session has none; closing clears openUntil.
func (r *SessionRepository) Toggle(ctx context.Context, id int64, now, openUntil time.Time, code string) (*models.Session, error) {
	rows, err := r.db.Query(ctx, `
		UPDATE sessions SET
			is_open    = NOT is_open,
			open_until = CASE WHEN is_open THEN NULL ELSE $2::timestamptz END,
			started_at = CASE WHEN is_open THEN started_at ELSE COALESCE(started_at, $3::timestamptz) END,
			auth_code  = CASE WHEN is_open THEN auth_code ELSE COALESCE(auth_code, $4) END
		WHERE id = $1
		RETURNING `+sessionReturning, id, openUntil, now, code)
	if err != nil {
		logger.Error().Err(err).Int64("sessionID", id).Msg("Error executing toggle session query")
		return nil, err
	}

	session, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.Session])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrSessionNotFound
	}
	return session, err
}

// SetCode replaces the check-in code; nil clears it
func (r *SessionRepository) SetCode(ctx context.Context, id int64, code *string) (*models.Session, error) {
	query := r.sb.Update("sessions").
		Set("auth_code", code).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + sessionReturning)
	return getOne[models.Session](ctx, r.db, query, apperrors.ErrSessionNotFound)
}

// CloseExpired closes every open session whose window ended at or before now
// and returns the sessions it closed.
func (r *SessionRepository) CloseExpired(ctx context.Context, now time.Time) ([]*models.Session, error) {
	query := r.sb.Update("sessions").
		Set("is_open", false).
		Set("open_until", nil).
		Where(squirrel.Eq{"is_open": true}).
		Where(squirrel.NotEq{"open_until": nil}).
		Where(squirrel.LtOrEq{"open_until": now}).
		Suffix("RETURNING " + sessionReturning)
	return getAll[models.Session](ctx, r.db, query)
}

// CountAll returns the number of sessions and how many of them are open
func (r *SessionRepository) CountAll(ctx context.Context) (total, open int, err error) {
	err = r.db.QueryRow(ctx, `SELECT COUNT(*), COUNT(*) FILTER (WHERE is_open) FROM sessions`).Scan(&total, &open)
	return total, open, err
}

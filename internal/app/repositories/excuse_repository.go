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
	"github.com/yigit/rollcall/internal/domain/attendance"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
	"github.com/yigit/rollcall/internal/pkg/dberrors"
)

var errExcuseNotFound = apperrors.NewResourceNotFoundError("excuse not found")

// ExcuseFilter narrows excuse listings
type ExcuseFilter struct {
	StudentID    *int64
	InstructorID *int64 // excuses for courses taught by this instructor
	Status       *models.ExcuseStatus
}

// ExcuseDecision is the outcome of a review
type ExcuseDecision struct {
	ExcuseID   int64
	Status     models.ExcuseStatus
	ReviewerID int64
	Comment    *string
	At         time.Time
}

// ExcuseRepository handles excuse requests
type ExcuseRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewExcuseRepository creates a new ExcuseRepository
func NewExcuseRepository(db *pgxpool.Pool) *ExcuseRepository {
	return &ExcuseRepository{
		db: db,
		sb: statementBuilder(),
	}
}

func (r *ExcuseRepository) selectExcuses() squirrel.SelectBuilder {
	return r.sb.Select(
		"x.id", "x.student_id", "x.course_id", "x.session_id", "x.reason", "x.attachment_url",
		"x.status", "x.reviewer_id", "x.review_comment", "x.reviewed_at", "x.created_at",
		"u.name AS student_name", "c.name AS course_name",
	).
		From("excuses x").
		Join("users u ON u.id = x.student_id").
		LeftJoin("courses c ON c.id = x.course_id")
}

// Create stores a new pending excuse
func (r *ExcuseRepository) Create(ctx context.Context, excuse *models.Excuse) error {
	sql, args, err := r.sb.Insert("excuses").
		Columns("student_id", "course_id", "session_id", "reason", "attachment_url", "status").
		Values(excuse.StudentID, excuse.CourseID, excuse.SessionID, excuse.Reason, excuse.AttachmentURL, models.ExcusePending).
		Suffix("RETURNING id, status, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create excuse query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&excuse.ID, &excuse.Status, &excuse.CreatedAt); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.NewValidationError("referenced course or session does not exist")
		}
		return err
	}
	return nil
}

// GetByID retrieves an excuse by ID
func (r *ExcuseRepository) GetByID(ctx context.Context, id int64) (*models.Excuse, error) {
	return getOne[models.Excuse](ctx, r.db, r.selectExcuses().Where(squirrel.Eq{"x.id": id}), errExcuseNotFound)
}

// List returns excuses matching the filter, newest first
func (r *ExcuseRepository) List(ctx context.Context, filter ExcuseFilter) ([]*models.Excuse, error) {
	query := r.selectExcuses()
	if filter.StudentID != nil {
		query = query.Where(squirrel.Eq{"x.student_id": *filter.StudentID})
	}
	if filter.InstructorID != nil {
		query = query.Where(squirrel.Eq{"c.instructor_id": *filter.InstructorID})
	}
	if filter.Status != nil {
		query = query.Where(squirrel.Eq{"x.status": *filter.Status})
	}
	return getAll[models.Excuse](ctx, r.db, query.OrderBy("x.created_at DESC"))
}

// Decide records a review on a pending excuse. Approving an excuse tied to a
// session marks the student excused for that session in the same transaction.
func (r *ExcuseRepository) Decide(ctx context.Context, d ExcuseDecision) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var studentID int64
		var sessionID *int64
		err := tx.QueryRow(ctx, `
			UPDATE excuses
			SET status = $2, reviewer_id = $3, review_comment = $4, reviewed_at = $5
			WHERE id = $1 AND status = 'pending'
			RETURNING student_id, session_id`,
			d.ExcuseID, d.Status, d.ReviewerID, d.Comment, d.At).Scan(&studentID, &sessionID)
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return err
			}
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM excuses WHERE id = $1)`, d.ExcuseID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return errExcuseNotFound
			}
			return apperrors.ErrExcuseAlreadyDecided
		}

		if d.Status != models.ExcuseApproved || sessionID == nil {
			return nil
		}
		return setStatus(ctx, tx, *sessionID, studentID, attendance.StatusExcused, d.At)
	})
}

// CountPending returns the number of excuses waiting for review
func (r *ExcuseRepository) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM excuses WHERE status = 'pending'`).Scan(&n)
	return n, err
}

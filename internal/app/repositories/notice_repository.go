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

var errNoticeNotFound = apperrors.NewResourceNotFoundError("notice not found")

// NoticeFilter narrows notice listings
type NoticeFilter struct {
	CourseID *int64
	// VisibleTo limits the result to global notices and those of the
	// student's courses.
	VisibleTo *int64
}

// NoticeRepository stores announcements
type NoticeRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewNoticeRepository creates a new NoticeRepository
func NewNoticeRepository(db *pgxpool.Pool) *NoticeRepository {
	return &NoticeRepository{
		db: db,
		sb: statementBuilder(),
	}
}

func (r *NoticeRepository) selectNotices() squirrel.SelectBuilder {
	return r.sb.Select(
		"n.id", "n.writer_id", "n.course_id", "n.title", "n.content", "n.created_at",
		"u.name AS writer_name", "c.name AS course_name",
	).
		From("notices n").
		Join("users u ON u.id = n.writer_id").
		LeftJoin("courses c ON c.id = n.course_id")
}

// Create stores a notice
func (r *NoticeRepository) Create(ctx context.Context, notice *models.Notice) error {
	sql, args, err := r.sb.Insert("notices").
		Columns("writer_id", "course_id", "title", "content").
		Values(notice.WriterID, notice.CourseID, notice.Title, notice.Content).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create notice query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&notice.ID, &notice.CreatedAt); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrCourseNotFound
		}
		return err
	}
	return nil
}

// GetByID retrieves a notice by ID
func (r *NoticeRepository) GetByID(ctx context.Context, id int64) (*models.Notice, error) {
	return getOne[models.Notice](ctx, r.db, r.selectNotices().Where(squirrel.Eq{"n.id": id}), errNoticeNotFound)
}

// List returns notices newest first
func (r *NoticeRepository) List(ctx context.Context, filter NoticeFilter) ([]*models.Notice, error) {
	query := r.selectNotices()
	if filter.CourseID != nil {
		query = query.Where(squirrel.Eq{"n.course_id": *filter.CourseID})
	}
	if filter.VisibleTo != nil {
		query = query.Where(squirrel.Or{
			squirrel.Eq{"n.course_id": nil},
			squirrel.Expr("EXISTS (SELECT 1 FROM enrollments e WHERE e.course_id = n.course_id AND e.student_id = ?)", *filter.VisibleTo),
		})
	}
	return getAll[models.Notice](ctx, r.db, query.OrderBy("n.created_at DESC"))
}

// Delete removes a notice
func (r *NoticeRepository) Delete(ctx context.Context, id int64) error {
	return execAffected(ctx, r.db, r.sb.Delete("notices").Where(squirrel.Eq{"id": id}), errNoticeNotFound)
}

package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/db"
	"github.com/yigit/rollcall/internal/pkg/helpers"
	"github.com/yigit/rollcall/internal/pkg/logger"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository         *UserRepository
	TokenRepository        *TokenRepository
	DepartmentRepository   *DepartmentRepository
	SemesterRepository     *SemesterRepository
	HolidayRepository      *HolidayRepository
	CourseRepository       *CourseRepository
	SessionRepository      *SessionRepository
	EnrollmentRepository   *EnrollmentRepository
	AttendanceRepository   *AttendanceRepository
	ExcuseRepository       *ExcuseRepository
	VoteRepository         *VoteRepository
	NotificationRepository *NotificationRepository
	MessageRepository      *MessageRepository
	NoticeRepository       *NoticeRepository
	SettingRepository      *SettingRepository
	AuditRepository        *AuditRepository
	ReportRepository       *ReportRepository
}

// NewRepositories initializes all repositories
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:         NewUserRepository(pool),
		TokenRepository:        NewTokenRepository(pool),
		DepartmentRepository:   NewDepartmentRepository(pool),
		SemesterRepository:     NewSemesterRepository(pool),
		HolidayRepository:      NewHolidayRepository(pool),
		CourseRepository:       NewCourseRepository(pool),
		SessionRepository:      NewSessionRepository(pool),
		EnrollmentRepository:   NewEnrollmentRepository(pool),
		AttendanceRepository:   NewAttendanceRepository(pool),
		ExcuseRepository:       NewExcuseRepository(pool),
		VoteRepository:         NewVoteRepository(pool),
		NotificationRepository: NewNotificationRepository(pool),
		MessageRepository:      NewMessageRepository(pool),
		NoticeRepository:       NewNoticeRepository(pool),
		SettingRepository:      NewSettingRepository(pool),
		AuditRepository:        NewAuditRepository(pool),
		ReportRepository:       NewReportRepository(pool),
	}
}

func statementBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// getOne runs a query expected to return a single row and scans it into T by
// column name. notFound is returned when no row matches.
func getOne[T any](ctx context.Context, q db.DBTX, query squirrel.Sqlizer, notFound error) (*T, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	item, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[T])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound
		}
		return nil, err
	}
	return item, nil
}

// getAll runs a query and scans every row into T by column name
func getAll[T any](ctx context.Context, q db.DBTX, query squirrel.Sqlizer) ([]*T, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	items, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[T])
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*T{}
	}
	return items, nil
}

// getPage counts the rows matched by count, then loads one page of list
func getPage[T any](ctx context.Context, q db.DBTX, list, count squirrel.SelectBuilder, page, size int) ([]*T, dto.PaginationInfo, error) {
	sql, args, err := count.ToSql()
	if err != nil {
		return nil, dto.PaginationInfo{}, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int64
	if err := q.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error executing count query")
		return nil, dto.PaginationInfo{}, err
	}

	pagination := helpers.NewPaginationInfo(total, page, size)
	if total == 0 {
		return []*T{}, pagination, nil
	}

	offset, limit := helpers.CalculateOffsetLimit(page, size)
	items, err := getAll[T](ctx, q, list.Limit(uint64(limit)).Offset(offset))
	if err != nil {
		return nil, dto.PaginationInfo{}, err
	}
	return items, pagination, nil
}

// execAffected runs a statement and returns notFound when it touched no rows
func execAffected(ctx context.Context, q db.DBTX, stmt squirrel.Sqlizer, notFound error) error {
	sql, args, err := stmt.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build statement: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

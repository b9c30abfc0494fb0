package services

import (
	"context"
	"strings"

	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/domain/schedule"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
	"github.com/yigit/rollcall/internal/pkg/logger"
)

// SemesterStore persists semesters
type SemesterStore interface {
	Create(ctx context.Context, semester *models.Semester) error
	GetByID(ctx context.Context, id int64) (*models.Semester, error)
	GetAll(ctx context.Context) ([]*models.Semester, error)
	Update(ctx context.Context, semester *models.Semester) error
	Delete(ctx context.Context, id int64) error
}

// HolidayStore persists the holiday calendar
type HolidayStore interface {
	List(ctx context.Context) ([]*models.Holiday, error)
	Create(ctx context.Context, holiday *models.Holiday) error
	Upsert(ctx context.Context, holiday *models.Holiday) error
	Delete(ctx context.Context, id int64) error
}

// CalendarService manages semesters and holidays
type CalendarService struct {
	semesters SemesterStore
	holidays  HolidayStore
}

// NewCalendarService creates a new CalendarService
func NewCalendarService(semesters SemesterStore, holidays HolidayStore) *CalendarService {
	return &CalendarService{
		semesters: semesters,
		holidays:  holidays,
	}
}

func semesterFromRequest(req *dto.SemesterRequest) (*models.Semester, error) {
	start, err := schedule.ParseDate(req.StartDate)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid start date")
	}
	end, err := schedule.ParseDate(req.EndDate)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid end date")
	}
	if end.Before(start) {
		return nil, apperrors.NewValidationError("semester end date must not be before its start date")
	}
	return &models.Semester{
		Name:      strings.TrimSpace(req.Name),
		StartDate: start,
		EndDate:   end,
		IsActive:  req.IsActive,
	}, nil
}

// ListSemesters returns every semester, most recent first
func (s *CalendarService) ListSemesters(ctx context.Context) ([]*models.Semester, error) {
	return s.semesters.GetAll(ctx)
}

// CreateSemester adds a semester
func (s *CalendarService) CreateSemester(ctx context.Context, req *dto.SemesterRequest) (*models.Semester, error) {
	semester, err := semesterFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.semesters.Create(ctx, semester); err != nil {
		return nil, err
	}
	return semester, nil
}

// UpdateSemester overwrites a semester
func (s *CalendarService) UpdateSemester(ctx context.Context, id int64, req *dto.SemesterRequest) (*models.Semester, error) {
	existing, err := s.semesters.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	semester, err := semesterFromRequest(req)
	if err != nil {
		return nil, err
	}
	semester.ID = existing.ID
	semester.CreatedAt = existing.CreatedAt
	if err := s.semesters.Update(ctx, semester); err != nil {
		return nil, err
	}
	return semester, nil
}

// DeleteSemester removes a semester
func (s *CalendarService) DeleteSemester(ctx context.Context, id int64) error {
	return s.semesters.Delete(ctx, id)
}

// ListHolidays returns the stored holidays
func (s *CalendarService) ListHolidays(ctx context.Context) ([]*models.Holiday, error) {
	return s.holidays.List(ctx)
}

// CreateHoliday adds a holiday
func (s *CalendarService) CreateHoliday(ctx context.Context, req *dto.HolidayRequest) (*models.Holiday, error) {
	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid holiday date")
	}
	holiday := &models.Holiday{Date: date, Label: strings.TrimSpace(req.Label)}
	if holiday.Label == "" {
		return nil, apperrors.NewValidationError("holiday label cannot be empty")
	}
	if err := s.holidays.Create(ctx, holiday); err != nil {
		return nil, err
	}
	return holiday, nil
}

// ImportHolidays adds or relabels holidays in bulk and returns how many were written
func (s *CalendarService) ImportHolidays(ctx context.Context, holidays []*models.Holiday) (int, error) {
	for i, h := range holidays {
		if err := s.holidays.Upsert(ctx, h); err != nil {
			return i, err
		}
	}
	return len(holidays), nil
}

// DeleteHoliday removes a holiday
func (s *CalendarService) DeleteHoliday(ctx context.Context, id int64) error {
	return s.holidays.Delete(ctx, id)
}

// Calendar returns the built-in holidays overlaid with the stored ones.
// A failing lookup degrades to the built-in map.
func (s *CalendarService) Calendar(ctx context.Context) schedule.Holidays {
	calendar := schedule.DefaultHolidays()

	rows, err := s.holidays.List(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Could not load holidays, using built-in calendar")
		return calendar
	}

	stored := make(schedule.Holidays, len(rows))
	for _, h := range rows {
		stored[h.Date.Format(schedule.DateLayout)] = h.Label
	}
	return calendar.Merge(stored)
}

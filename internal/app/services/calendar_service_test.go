package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/domain/schedule"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
)

type fakeHolidayStore struct {
	rows    []*models.Holiday
	listErr error
}

func (f *fakeHolidayStore) List(context.Context) ([]*models.Holiday, error) {
	return f.rows, f.listErr
}

func (f *fakeHolidayStore) Create(_ context.Context, h *models.Holiday) error {
	h.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, h)
	return nil
}

func (f *fakeHolidayStore) Upsert(ctx context.Context, h *models.Holiday) error {
	for _, row := range f.rows {
		if row.Date.Equal(h.Date) {
			row.Label = h.Label
			return nil
		}
	}
	return f.Create(ctx, h)
}

func (f *fakeHolidayStore) Delete(context.Context, int64) error { return nil }

type fakeSemesterStore struct {
	byID map[int64]*models.Semester
}

func (f *fakeSemesterStore) Create(_ context.Context, s *models.Semester) error {
	s.ID = int64(len(f.byID) + 1)
	f.byID[s.ID] = s
	return nil
}

func (f *fakeSemesterStore) GetByID(_ context.Context, id int64) (*models.Semester, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("semester not found")
	}
	return s, nil
}

func (f *fakeSemesterStore) GetAll(context.Context) ([]*models.Semester, error) {
	out := []*models.Semester{}
	for _, s := range f.byID {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSemesterStore) Update(_ context.Context, s *models.Semester) error {
	f.byID[s.ID] = s
	return nil
}

func (f *fakeSemesterStore) Delete(_ context.Context, id int64) error {
	delete(f.byID, id)
	return nil
}

func day(s string) time.Time {
	t, err := schedule.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCalendarService_Calendar(t *testing.T) {
	holidays := &fakeHolidayStore{rows: []*models.Holiday{
		{Date: day("2025-10-03"), Label: "Gaecheonjeol"},
		{Date: day("2025-11-20"), Label: "University Day"},
	}}
	service := NewCalendarService(&fakeSemesterStore{byID: map[int64]*models.Semester{}}, holidays)

	calendar := service.Calendar(context.Background())
	assert.Equal(t, "Gaecheonjeol", calendar["2025-10-03"], "stored label wins")
	assert.Equal(t, "University Day", calendar["2025-11-20"])
	assert.Equal(t, "Hangul Day", calendar["2025-10-09"])

	holidays.listErr = errors.New("connection refused")
	assert.Equal(t, schedule.DefaultHolidays(), service.Calendar(context.Background()))
}

func TestCalendarService_Holidays(t *testing.T) {
	holidays := &fakeHolidayStore{}
	service := NewCalendarService(&fakeSemesterStore{byID: map[int64]*models.Semester{}}, holidays)
	ctx := context.Background()

	created, err := service.CreateHoliday(ctx, &dto.HolidayRequest{Date: "2025-11-20", Label: " University Day "})
	require.NoError(t, err)
	assert.Equal(t, "University Day", created.Label)

	_, err = service.CreateHoliday(ctx, &dto.HolidayRequest{Date: "20/11/2025", Label: "Bad"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	_, err = service.CreateHoliday(ctx, &dto.HolidayRequest{Date: "2025-11-21", Label: "  "})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	n, err := service.ImportHolidays(ctx, []*models.Holiday{
		{Date: day("2025-11-20"), Label: "Founders Day"},
		{Date: day("2025-12-25"), Label: "Christmas"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, holidays.rows, 2)
	assert.Equal(t, "Founders Day", holidays.rows[0].Label)
}

func TestCalendarService_Semesters(t *testing.T) {
	semesters := &fakeSemesterStore{byID: map[int64]*models.Semester{}}
	service := NewCalendarService(semesters, &fakeHolidayStore{})
	ctx := context.Background()

	created, err := service.CreateSemester(ctx, &dto.SemesterRequest{Name: "2025 Fall ", StartDate: "2025-09-01", EndDate: "2025-12-19", IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, "2025 Fall", created.Name)
	assert.True(t, created.IsActive)

	_, err = service.CreateSemester(ctx, &dto.SemesterRequest{Name: "Backwards", StartDate: "2025-12-19", EndDate: "2025-09-01"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	updated, err := service.UpdateSemester(ctx, created.ID, &dto.SemesterRequest{Name: "2025 Fall", StartDate: "2025-09-01", EndDate: "2025-12-20"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.False(t, updated.IsActive)
	assert.Equal(t, day("2025-12-20"), semesters.byID[created.ID].EndDate)

	_, err = service.UpdateSemester(ctx, 99, &dto.SemesterRequest{Name: "x", StartDate: "2025-09-01", EndDate: "2025-12-20"})
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestDepartmentFromRequest(t *testing.T) {
	tests := []struct {
		name     string
		req      dto.DepartmentRequest
		wantCode string
		wantErr  bool
	}{
		{"uppercases code", dto.DepartmentRequest{Name: "Computer Science", Code: " cse "}, "CSE", false},
		{"digits allowed", dto.DepartmentRequest{Name: "Physics", Code: "PHY2"}, "PHY2", false},
		{"punctuation rejected", dto.DepartmentRequest{Name: "Physics", Code: "PH-Y"}, "", true},
		{"blank name", dto.DepartmentRequest{Name: "  ", Code: "PHY"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			department, err := departmentFromRequest(&req)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, department.Code)
		})
	}
}

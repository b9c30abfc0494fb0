package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authz "github.com/yigit/rollcall/internal/app/auth"
	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/domain/schedule"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
)

type fakeCourseStore struct {
	courses    map[int64]*models.Course
	sessions   map[int64][]*models.Session
	lastFilter dto.CourseFilter
	nextID     int64
}

func newFakeCourseStore() *fakeCourseStore {
	return &fakeCourseStore{courses: map[int64]*models.Course{}, sessions: map[int64][]*models.Session{}}
}

func (f *fakeCourseStore) CreateWithSessions(_ context.Context, course *models.Course, drafts []schedule.SessionDraft) ([]*models.Session, error) {
	f.nextID++
	course.ID = f.nextID
	cp := *course
	f.courses[course.ID] = &cp

	sessions := make([]*models.Session, len(drafts))
	for i, d := range drafts {
		sessions[i] = &models.Session{
			ID:             int64(i + 1),
			CourseID:       course.ID,
			Week:           d.Week,
			Date:           d.Date,
			Title:          d.Title,
			Kind:           d.Kind,
			AttendanceType: course.AttendanceType,
		}
		if d.AuthCode != "" {
			sessions[i].AuthCode = ptr(d.AuthCode)
		}
	}
	f.sessions[course.ID] = sessions
	return sessions, nil
}

func (f *fakeCourseStore) GetByID(_ context.Context, id int64) (*models.CourseDetails, error) {
	c, ok := f.courses[id]
	if !ok {
		return nil, apperrors.ErrCourseNotFound
	}
	return &models.CourseDetails{Course: *c, SessionCount: len(f.sessions[id])}, nil
}

func (f *fakeCourseStore) List(_ context.Context, filter dto.CourseFilter) ([]*models.CourseDetails, dto.PaginationInfo, error) {
	f.lastFilter = filter
	return []*models.CourseDetails{}, dto.PaginationInfo{CurrentPage: 1}, nil
}

func (f *fakeCourseStore) Update(_ context.Context, course *models.Course) error {
	cp := *course
	f.courses[course.ID] = &cp
	return nil
}

func (f *fakeCourseStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.courses[id]; !ok {
		return apperrors.ErrCourseNotFound
	}
	delete(f.courses, id)
	return nil
}

type staticCalendar schedule.Holidays

func (c staticCalendar) Calendar(context.Context) schedule.Holidays { return schedule.Holidays(c) }

type courseFixture struct {
	service *CourseService
	store   *fakeCourseStore
	access  *fakeAccess
	audit   *fakeAudit
}

func newCourseFixture() *courseFixture {
	store := newFakeCourseStore()
	access := newFakeAccess()
	users := fakeUsers{
		instructorActor.UserID: {ID: instructorActor.UserID, Name: "Prof. Han", RoleType: models.RoleInstructor},
		otherInstructor.UserID: {ID: otherInstructor.UserID, Name: "Prof. Yoon", RoleType: models.RoleInstructor},
		studentActor.UserID:    {ID: studentActor.UserID, Name: "Kim Minji", RoleType: models.RoleStudent},
	}
	f := &courseFixture{store: store, access: access, audit: &fakeAudit{}}
	f.service = NewCourseService(store, users, staticCalendar{"2025-09-08": "Founders Day"},
		schedule.NewGenerator(func() string { return "1234" }), access.service(), f.audit, 3)
	return f
}

// create stores a course through the service and registers it with the
// access fake the way the real repositories would see it.
func (f *courseFixture) create(t *testing.T, actor authz.Actor, req dto.CreateCourseRequest) *dto.CourseWithSessions {
	t.Helper()
	created, err := f.service.Create(context.Background(), actor, &req)
	require.NoError(t, err)
	f.access.addCourse(created.Course.ID, created.Course.InstructorID)
	return created
}

func TestCourseService_Preview(t *testing.T) {
	f := newCourseFixture()

	preview, err := f.service.Preview(context.Background(), &dto.PreviewScheduleRequest{
		StartDate: "2025-09-01",
		DayOfWeek: ptr(1),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, preview.RegularCount)
	assert.Equal(t, 1, preview.HolidayCount)
	assert.Equal(t, 1, preview.MakeupCount)

	require.Len(t, preview.Sessions, 5)
	holiday := preview.Sessions[1]
	assert.Equal(t, schedule.KindHoliday, holiday.Kind)
	assert.Equal(t, 2, holiday.Week)
	assert.Empty(t, holiday.AuthCode)

	makeup := preview.Sessions[4]
	assert.Equal(t, schedule.KindMakeup, makeup.Kind)
	assert.Equal(t, 4, makeup.Week)
	assert.Equal(t, 2, makeup.OriginalWeek)
	assert.Equal(t, "2025-09-29", makeup.Date.Format(schedule.DateLayout))
}

func TestCourseService_PreviewValidation(t *testing.T) {
	tests := []struct {
		name string
		req  dto.PreviewScheduleRequest
	}{
		{"bad start date", dto.PreviewScheduleRequest{StartDate: "09/01/2025", DayOfWeek: ptr(1)}},
		{"missing weekday", dto.PreviewScheduleRequest{StartDate: "2025-09-01"}},
		{"weekday out of range", dto.PreviewScheduleRequest{StartDate: "2025-09-01", DayOfWeek: ptr(7)}},
		{"negative length", dto.PreviewScheduleRequest{StartDate: "2025-09-01", DayOfWeek: ptr(1), CourseLength: -2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCourseFixture()
			req := tt.req
			_, err := f.service.Preview(context.Background(), &req)
			assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
		})
	}
}

func TestCourseService_Create(t *testing.T) {
	f := newCourseFixture()

	created := f.create(t, instructorActor, dto.CreateCourseRequest{
		Name:      "  Operating Systems ",
		Code:      "CS310",
		StartDate: "2025-09-01",
		DayOfWeek: ptr(1),
	})

	assert.Equal(t, "Operating Systems", created.Course.Name)
	assert.Equal(t, instructorActor.UserID, created.Course.InstructorID)
	assert.Equal(t, models.AttendanceByCode, created.Course.AttendanceType)
	assert.Equal(t, 3, created.Course.CourseLength)
	assert.Len(t, created.Sessions, 5)
	assert.Equal(t, 5, created.Course.SessionCount)
	assert.Equal(t, []string{ActionCourseCreate}, f.audit.actions)
}

func TestCourseService_CreateOwnership(t *testing.T) {
	tests := []struct {
		name           string
		actor          authz.Actor
		instructorID   *int64
		wantErr        error
		wantInstructor int64
	}{
		{"instructor owns own course", instructorActor, nil, nil, instructorActor.UserID},
		{"instructor naming self", instructorActor, ptr(instructorActor.UserID), nil, instructorActor.UserID},
		{"instructor naming someone else", instructorActor, ptr(otherInstructor.UserID), apperrors.ErrPermissionDenied, 0},
		{"admin assigns instructor", adminActor, ptr(otherInstructor.UserID), nil, otherInstructor.UserID},
		{"admin without instructor", adminActor, nil, apperrors.ErrValidationFailed, 0},
		{"admin assigning a student", adminActor, ptr(studentActor.UserID), apperrors.ErrValidationFailed, 0},
		{"admin assigning unknown user", adminActor, ptr(int64(999)), apperrors.ErrUserNotFound, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCourseFixture()
			req := dto.CreateCourseRequest{
				Name:         "Databases",
				StartDate:    "2025-09-02",
				DayOfWeek:    ptr(2),
				InstructorID: tt.instructorID,
			}

			created, err := f.service.Create(context.Background(), tt.actor, &req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, f.store.courses)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantInstructor, created.Course.InstructorID)
		})
	}
}

func TestCourseService_ListScopesByRole(t *testing.T) {
	tests := []struct {
		name           string
		actor          authz.Actor
		wantInstructor *int64
		wantStudent    *int64
	}{
		{"admin sees all", adminActor, nil, nil},
		{"instructor sees owned", instructorActor, ptr(instructorActor.UserID), nil},
		{"student sees enrolled", studentActor, nil, ptr(studentActor.UserID)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCourseFixture()
			// A caller supplied scope is always replaced.
			filter := dto.CourseFilter{InstructorID: ptr(int64(77)), StudentID: ptr(int64(78)), Query: "os"}

			_, _, err := f.service.List(context.Background(), tt.actor, filter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantInstructor, f.store.lastFilter.InstructorID)
			assert.Equal(t, tt.wantStudent, f.store.lastFilter.StudentID)
			assert.Equal(t, "os", f.store.lastFilter.Query)
		})
	}
}

func TestCourseService_Update(t *testing.T) {
	f := newCourseFixture()
	ctx := context.Background()
	created := f.create(t, instructorActor, dto.CreateCourseRequest{Name: "Networks", StartDate: "2025-09-03", DayOfWeek: ptr(3)})
	id := created.Course.ID

	updated, err := f.service.Update(ctx, instructorActor, id, &dto.UpdateCourseRequest{
		Name:           ptr("Computer Networks"),
		AttendanceType: ptr(models.AttendanceByQR),
	})
	require.NoError(t, err)
	assert.Equal(t, "Computer Networks", updated.Name)
	assert.Equal(t, models.AttendanceByQR, updated.AttendanceType)

	_, err = f.service.Update(ctx, instructorActor, id, &dto.UpdateCourseRequest{InstructorID: ptr(otherInstructor.UserID)})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = f.service.Update(ctx, otherInstructor, id, &dto.UpdateCourseRequest{Name: ptr("Mine now")})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	reassigned, err := f.service.Update(ctx, adminActor, id, &dto.UpdateCourseRequest{InstructorID: ptr(otherInstructor.UserID)})
	require.NoError(t, err)
	assert.Equal(t, otherInstructor.UserID, reassigned.InstructorID)
	assert.Equal(t, "Computer Networks", reassigned.Name)
}

func TestCourseService_Delete(t *testing.T) {
	f := newCourseFixture()
	ctx := context.Background()
	created := f.create(t, instructorActor, dto.CreateCourseRequest{Name: "Compilers", StartDate: "2025-09-04", DayOfWeek: ptr(4)})

	err := f.service.Delete(ctx, studentActor, created.Course.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	require.NoError(t, f.service.Delete(ctx, instructorActor, created.Course.ID))
	assert.Empty(t, f.store.courses)
	assert.Equal(t, []string{ActionCourseCreate, ActionCourseDelete}, f.audit.actions)
}

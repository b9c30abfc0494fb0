package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/app/repositories"
	"github.com/yigit/rollcall/internal/domain/attendance"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
)

type fakeReportStore struct {
	roster   []*repositories.RosterRow
	sessions []*models.Session
	marks    []*models.AttendanceMark
}

func (f *fakeReportStore) CountCourses(context.Context) (int, error) { return 2, nil }

func (f *fakeReportStore) Roster(context.Context) ([]*repositories.RosterRow, error) {
	return f.roster, nil
}

func (f *fakeReportStore) Sessions(context.Context) ([]*models.Session, error) {
	return f.sessions, nil
}

func (f *fakeReportStore) Marks(context.Context) ([]*models.AttendanceMark, error) {
	return f.marks, nil
}

type fakeStats struct {
	since *time.Time
}

func (f *fakeStats) CountByRole(context.Context) (map[models.RoleType]int, error) {
	return map[models.RoleType]int{models.RoleStudent: 2, models.RoleInstructor: 2, models.RoleAdmin: 1}, nil
}

func (f *fakeStats) CountAll(context.Context) (int, int, error) { return 8, 1, nil }

func (f *fakeStats) ListOpen(context.Context) ([]*models.Session, error) {
	return []*models.Session{{ID: 1, CourseID: 1, IsOpen: true}}, nil
}

func (f *fakeStats) CountByStatus(_ context.Context, since *time.Time) (map[attendance.Status]int, error) {
	f.since = since
	return map[attendance.Status]int{attendance.StatusPresent: 5}, nil
}

func (f *fakeStats) CountPending(context.Context) (int, error) { return 3, nil }

func (f *fakeStats) Recent(context.Context, int) ([]*models.AuditLog, error) {
	return []*models.AuditLog{}, nil
}

func (f *fakeStats) TopActions(_ context.Context, n int) ([]dto.ActionCount, error) {
	return []dto.ActionCount{{Action: ActionCheckIn, Count: n}}, nil
}

type reportFixture struct {
	service *ReportService
	store   *fakeReportStore
	stats   *fakeStats
}

// newReportFixture builds course 1 with four held sessions. Student 100
// missed one, student 101 missed three and student 102 attended everything.
func newReportFixture() *reportFixture {
	started := fixedNow.Add(-7 * 24 * time.Hour)
	sessions := map[int64]*models.Session{}
	var sessionList []*models.Session
	for id := int64(1); id <= 4; id++ {
		s := &models.Session{ID: id, CourseID: 1, Week: int(id), Date: started.AddDate(0, 0, int(id)*7), Title: "Lecture", StartedAt: &started}
		sessions[id] = s
		sessionList = append(sessionList, s)
	}
	fs := &fakeSessions{byID: sessions}
	marks := newFakeMarks(fs)
	for id := int64(1); id <= 4; id++ {
		marks.add(id, 102, attendance.StatusPresent)
		if id == 1 {
			marks.add(id, 100, attendance.StatusAbsent)
		} else {
			marks.add(id, 100, attendance.StatusPresent)
		}
		if id == 4 {
			marks.add(id, 101, attendance.StatusPresent)
		} else {
			marks.add(id, 101, attendance.StatusAbsent)
		}
	}
	var allMarks []*models.AttendanceMark
	for _, m := range marks.byID {
		allMarks = append(allMarks, m)
	}

	store := &fakeReportStore{
		roster: []*repositories.RosterRow{
			{CourseID: 1, CourseName: "Operating Systems", StudentID: 100, StudentName: "Kim Minji"},
			{CourseID: 1, CourseName: "Operating Systems", StudentID: 101, StudentName: "Lee Jun"},
			{CourseID: 1, CourseName: "Operating Systems", StudentID: 102, StudentName: "Park Seo"},
		},
		sessions: sessionList,
		marks:    allMarks,
	}
	stats := &fakeStats{}

	access := newFakeAccess()
	access.addCourse(1, instructorActor.UserID, 100, 101, 102)
	courses := fakeCourses{1: {Course: models.Course{ID: 1, Name: "Operating Systems", Code: "CS310", InstructorID: instructorActor.UserID}}}
	roster := fakeRoster{1: {
		{ID: 100, Name: "Kim Minji", StudentNumber: ptr("20250001")},
		{ID: 101, Name: "Lee Jun", StudentNumber: ptr("20250002")},
		{ID: 102, Name: "Park Seo", StudentNumber: ptr("20250003")},
	}}
	users := fakeUsers{100: {ID: 100, Name: "Kim Minji", RoleType: models.RoleStudent, StudentNumber: ptr("20250001")}}
	// Danger at three absences, warning at one, no rate floor.
	policy := fakePolicy{attendance.Policy{LatesPerAbsence: 3, WarnAbsences: 1, DangerAbsences: 3}}

	service := NewReportService(store, StatsSources{Users: stats, Sessions: stats, Marks: stats, Excuses: stats, Audit: stats},
		courses, fs, marks, roster, users, access.service(), policy)
	service.now = fixedClock
	return &reportFixture{service: service, store: store, stats: stats}
}

func TestReportService_AtRisk(t *testing.T) {
	f := newReportFixture()

	entries, err := f.service.AtRisk(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, int64(101), entries[0].StudentID)
	assert.Equal(t, attendance.RiskDanger, entries[0].Risk)
	assert.Equal(t, 3, entries[0].FinalAbsent)
	assert.Equal(t, 25, entries[0].Rate)

	assert.Equal(t, int64(100), entries[1].StudentID)
	assert.Equal(t, attendance.RiskWarning, entries[1].Risk)
	assert.Equal(t, 75, entries[1].Rate)
}

func TestReportService_AdminReport(t *testing.T) {
	f := newReportFixture()

	report, err := f.service.AdminReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Stats.Courses)
	assert.Equal(t, 3, report.Stats.PendingExcuses)
	assert.Equal(t, 1, report.Stats.OpenSessions)
	assert.Len(t, report.AtRisk, 2)
	assert.Len(t, report.OpenSessions, 1)
	require.Len(t, report.TopActions, 1)
	assert.Equal(t, reportTopActions, report.TopActions[0].Count)

	require.NotNil(t, f.stats.since)
	assert.Equal(t, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), *f.stats.since)
	assert.Equal(t, fixedNow, report.GeneratedAt)
}

func TestReportService_CourseWorkbook(t *testing.T) {
	f := newReportFixture()
	ctx := context.Background()

	data, filename, err := f.service.CourseWorkbook(ctx, instructorActor, 1)
	require.NoError(t, err)
	assert.Equal(t, "attendance_course_1_20250901.xlsx", filename)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")), "xlsx is a zip archive")

	_, _, err = f.service.CourseWorkbook(ctx, otherInstructor, 1)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	_, _, err = f.service.CourseWorkbook(ctx, studentActor, 1)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestReportService_StudentPDF(t *testing.T) {
	f := newReportFixture()
	ctx := context.Background()

	data, filename, err := f.service.StudentPDF(ctx, studentActor, 1, studentActor.UserID)
	require.NoError(t, err)
	assert.Equal(t, "attendance_course_1_student_100.pdf", filename)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	_, _, err = f.service.StudentPDF(ctx, instructorActor, 1, studentActor.UserID)
	require.NoError(t, err)

	_, _, err = f.service.StudentPDF(ctx, studentActor, 1, 101)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	_, _, err = f.service.StudentPDF(ctx, otherInstructor, 1, studentActor.UserID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

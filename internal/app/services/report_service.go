package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	authz "github.com/yigit/rollcall/internal/app/auth"
	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/app/repositories"
	"github.com/yigit/rollcall/internal/domain/attendance"
	"github.com/yigit/rollcall/internal/domain/schedule"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
	"github.com/yigit/rollcall/internal/pkg/export"
)

const (
	reportTopActions = 5
	reportRecentLogs = 10
)

// ReportStore reads data across all courses
type ReportStore interface {
	CountCourses(ctx context.Context) (int, error)
	Roster(ctx context.Context) ([]*repositories.RosterRow, error)
	Sessions(ctx context.Context) ([]*models.Session, error)
	Marks(ctx context.Context) ([]*models.AttendanceMark, error)
}

// StatsSources are the counters behind the admin dashboard
type StatsSources struct {
	Users interface {
		CountByRole(ctx context.Context) (map[models.RoleType]int, error)
	}
	Sessions interface {
		CountAll(ctx context.Context) (total, open int, err error)
		ListOpen(ctx context.Context) ([]*models.Session, error)
	}
	Marks interface {
		CountByStatus(ctx context.Context, since *time.Time) (map[attendance.Status]int, error)
	}
	Excuses interface {
		CountPending(ctx context.Context) (int, error)
	}
	Audit interface {
		Recent(ctx context.Context, n int) ([]*models.AuditLog, error)
		TopActions(ctx context.Context, n int) ([]dto.ActionCount, error)
	}
}

// ReportService builds dashboards and attendance exports
type ReportService struct {
	reports  ReportStore
	stats    StatsSources
	courses  CourseReader
	sessions SessionReader
	marks    AttendanceStore
	roster   RosterSource
	users    UserLookup
	access   CourseAccess
	policy   PolicySource
	now      Clock
}

// NewReportService creates a new ReportService
func NewReportService(reports ReportStore, stats StatsSources, courses CourseReader, sessions SessionReader,
	marks AttendanceStore, roster RosterSource, users UserLookup, access CourseAccess, policy PolicySource) *ReportService {
	return &ReportService{
		reports:  reports,
		stats:    stats,
		courses:  courses,
		sessions: sessions,
		marks:    marks,
		roster:   roster,
		users:    users,
		access:   access,
		policy:   policy,
		now:      time.Now,
	}
}

// Stats returns the headline counts of the system
func (s *ReportService) Stats(ctx context.Context) (*dto.SystemStats, error) {
	byRole, err := s.stats.Users.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	courses, err := s.reports.CountCourses(ctx)
	if err != nil {
		return nil, err
	}
	total, open, err := s.stats.Sessions.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.stats.Marks.CountByStatus(ctx, nil)
	if err != nil {
		return nil, err
	}
	pending, err := s.stats.Excuses.CountPending(ctx)
	if err != nil {
		return nil, err
	}

	return &dto.SystemStats{
		UsersByRole:    byRole,
		Courses:        courses,
		Sessions:       total,
		OpenSessions:   open,
		MarksByStatus:  byStatus,
		PendingExcuses: pending,
	}, nil
}

// AdminReport aggregates the admin dashboard: the stats, today's check-ins,
// the open sessions, every student at risk and the recent audit activity.
func (s *ReportService) AdminReport(ctx context.Context) (*dto.AdminReport, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	today, err := s.stats.Marks.CountByStatus(ctx, &startOfDay)
	if err != nil {
		return nil, err
	}

	open, err := s.stats.Sessions.ListOpen(ctx)
	if err != nil {
		return nil, err
	}
	atRisk, err := s.AtRisk(ctx)
	if err != nil {
		return nil, err
	}
	top, err := s.stats.Audit.TopActions(ctx, reportTopActions)
	if err != nil {
		return nil, err
	}
	recent, err := s.stats.Audit.Recent(ctx, reportRecentLogs)
	if err != nil {
		return nil, err
	}

	return &dto.AdminReport{
		Stats:         *stats,
		TodayCheckIns: today,
		OpenSessions:  open,
		AtRisk:        atRisk,
		TopActions:    top,
		RecentLogs:    recent,
		GeneratedAt:   now,
	}, nil
}

// AtRisk returns every enrolled (course, student) pair in warning or danger,
// most absences first.
func (s *ReportService) AtRisk(ctx context.Context) ([]dto.RiskEntry, error) {
	roster, err := s.reports.Roster(ctx)
	if err != nil {
		return nil, err
	}
	sessions, err := s.reports.Sessions(ctx)
	if err != nil {
		return nil, err
	}
	marks, err := s.reports.Marks(ctx)
	if err != nil {
		return nil, err
	}

	sessionsByCourse := make(map[int64][]*models.Session)
	courseOfSession := make(map[int64]int64, len(sessions))
	for _, session := range sessions {
		sessionsByCourse[session.CourseID] = append(sessionsByCourse[session.CourseID], session)
		courseOfSession[session.ID] = session.CourseID
	}

	type pair struct{ course, student int64 }
	marksByPair := make(map[pair][]*models.AttendanceMark)
	for _, m := range marks {
		key := pair{courseOfSession[m.SessionID], m.StudentID}
		marksByPair[key] = append(marksByPair[key], m)
	}

	policy := s.policy.Policy(ctx)
	entries := make([]dto.RiskEntry, 0)
	for _, row := range roster {
		summary := summarize(sessionsByCourse[row.CourseID], marksByPair[pair{row.CourseID, row.StudentID}], policy)
		if summary.Risk == attendance.RiskOK {
			continue
		}
		entries = append(entries, dto.RiskEntry{
			CourseID:      row.CourseID,
			CourseName:    row.CourseName,
			StudentID:     row.StudentID,
			StudentName:   row.StudentName,
			StudentNumber: row.StudentNumber,
			Risk:          summary.Risk,
			FinalAbsent:   summary.FinalAbsent,
			Rate:          summary.AttendanceRate,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].FinalAbsent > entries[j].FinalAbsent
	})
	return entries, nil
}

// CourseWorkbook renders the attendance grid of a course as an xlsx file
func (s *ReportService) CourseWorkbook(ctx context.Context, actor authz.Actor, courseID int64) ([]byte, string, error) {
	if err := s.access.EnsureCourseManager(ctx, actor, courseID); err != nil {
		return nil, "", err
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, "", err
	}
	sessions, err := s.sessions.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, "", err
	}
	marks, err := s.marks.ListMarksByCourse(ctx, courseID)
	if err != nil {
		return nil, "", err
	}
	students, err := s.roster.ListStudents(ctx, courseID)
	if err != nil {
		return nil, "", err
	}

	now := s.now()
	report := export.CourseReport{
		CourseName:  course.Name,
		CourseCode:  course.Code,
		Sessions:    make([]export.SessionColumn, len(sessions)),
		Students:    make([]export.StudentRow, 0, len(students)),
		GeneratedAt: now,
	}
	for i, session := range sessions {
		report.Sessions[i] = export.SessionColumn{
			ID:      session.ID,
			Week:    session.Week,
			Date:    session.Date,
			Title:   session.Title,
			Holiday: session.Kind == schedule.KindHoliday,
		}
	}

	policy := s.policy.Policy(ctx)
	byStudent := groupMarks(marks)
	for _, st := range students {
		statuses := make(map[int64]attendance.Status, len(byStudent[st.ID]))
		for _, m := range byStudent[st.ID] {
			statuses[m.SessionID] = m.Status
		}
		report.Students = append(report.Students, export.StudentRow{
			Name:     st.Name,
			Number:   deref(st.StudentNumber),
			Summary:  summarize(sessions, byStudent[st.ID], policy),
			Statuses: statuses,
		})
	}

	data, err := export.CourseWorkbook(report)
	if err != nil {
		return nil, "", fmt.Errorf("error rendering workbook: %w", err)
	}
	filename := fmt.Sprintf("attendance_course_%d_%s.xlsx", courseID, now.Format("20060102"))
	return data, filename, nil
}

// StudentPDF renders one student's summary for a course. Students may only
// export their own.
func (s *ReportService) StudentPDF(ctx context.Context, actor authz.Actor, courseID, studentID int64) ([]byte, string, error) {
	if actor.IsStudent() {
		if actor.UserID != studentID {
			return nil, "", apperrors.NewForbiddenError("you can only access your own records")
		}
		if err := s.access.EnsureCourseMember(ctx, actor, courseID); err != nil {
			return nil, "", err
		}
	} else if err := s.access.EnsureCourseManager(ctx, actor, courseID); err != nil {
		return nil, "", err
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, "", err
	}
	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		return nil, "", err
	}
	sessions, err := s.sessions.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, "", err
	}
	marks, err := s.marks.ListMarks(ctx, courseID, studentID)
	if err != nil {
		return nil, "", err
	}

	statuses := make(map[int64]attendance.Status, len(marks))
	for _, m := range marks {
		statuses[m.SessionID] = m.Status
	}
	lines := make([]export.SessionLine, len(sessions))
	for i, session := range sessions {
		status, ok := statuses[session.ID]
		if !ok {
			status = attendance.StatusUnmarked
		}
		lines[i] = export.SessionLine{Week: session.Week, Date: session.Date, Title: session.Title, Status: status}
	}

	now := s.now()
	data, err := export.StudentSummaryPDF(export.StudentReport{
		CourseName:    course.Name,
		StudentName:   student.Name,
		StudentNumber: deref(student.StudentNumber),
		Summary:       summarize(sessions, marks, s.policy.Policy(ctx)),
		Sessions:      lines,
		GeneratedAt:   now,
	})
	if err != nil {
		return nil, "", fmt.Errorf("error rendering pdf: %w", err)
	}
	filename := fmt.Sprintf("attendance_course_%d_student_%d.pdf", courseID, studentID)
	return data, filename, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	authz "github.com/yigit/rollcall/internal/app/auth"
	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/app/repositories"
	"github.com/yigit/rollcall/internal/domain/attendance"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
	"github.com/yigit/rollcall/internal/pkg/logger"
)

// Check-in outcomes reported to metrics
const (
	checkInOK          = "ok"
	checkInClosed      = "closed"
	checkInNotEnrolled = "not_enrolled"
	checkInBadCode     = "invalid_code"
	checkInDuplicate   = "duplicate"
	checkInError       = "error"
)

// AttendanceStore persists attendance marks
type AttendanceStore interface {
	CheckIn(ctx context.Context, sessionID, studentID int64, status attendance.Status, now time.Time) (*models.AttendanceMark, error)
	GetByID(ctx context.Context, id int64) (*models.AttendanceMark, error)
	UpdateStatus(ctx context.Context, id int64, status attendance.Status, at time.Time) (*models.AttendanceMark, error)
	ListRecords(ctx context.Context, filter repositories.AttendanceFilter) ([]*models.AttendanceRecord, error)
	ListMarksByCourse(ctx context.Context, courseID int64) ([]*models.AttendanceMark, error)
	ListMarks(ctx context.Context, courseID, studentID int64) ([]*models.AttendanceMark, error)
}

// SessionReader loads sessions
type SessionReader interface {
	GetByID(ctx context.Context, id int64) (*models.Session, error)
	ListByCourse(ctx context.Context, courseID int64) ([]*models.Session, error)
}

// CourseReader loads a course with its related names
type CourseReader interface {
	GetByID(ctx context.Context, id int64) (*models.CourseDetails, error)
}

// RosterSource lists the students of a course
type RosterSource interface {
	ListStudents(ctx context.Context, courseID int64) ([]*models.EnrolledStudent, error)
}

// CheckInRecorder counts check-in attempts
type CheckInRecorder interface {
	CheckIn(result string)
}

// AttendanceService records check-ins and computes attendance summaries
type AttendanceService struct {
	marks    AttendanceStore
	sessions SessionReader
	courses  CourseReader
	roster   RosterSource
	access   CourseAccess
	policy   PolicySource
	notifier Notifier
	audit    AuditRecorder
	metrics  CheckInRecorder
	now      Clock
}

// NewAttendanceService creates a new AttendanceService. metrics may be nil.
func NewAttendanceService(marks AttendanceStore, sessions SessionReader, courses CourseReader, roster RosterSource,
	access CourseAccess, policy PolicySource, notifier Notifier, audit AuditRecorder, metrics CheckInRecorder) *AttendanceService {
	return &AttendanceService{
		marks:    marks,
		sessions: sessions,
		courses:  courses,
		roster:   roster,
		access:   access,
		policy:   policy,
		notifier: notifier,
		audit:    audit,
		metrics:  metrics,
		now:      time.Now,
	}
}

func (s *AttendanceService) countCheckIn(result string) {
	if s.metrics != nil {
		s.metrics.CheckIn(result)
	}
}

// CheckIn records a student's own attendance for an open session
func (s *AttendanceService) CheckIn(ctx context.Context, actor authz.Actor, req *dto.CheckInRequest) (*dto.CheckInResponse, error) {
	if !actor.IsStudent() {
		return nil, apperrors.NewForbiddenError("only students can check in")
	}

	status := req.Status
	if status == "" {
		status = attendance.StatusPresent
	}
	if status != attendance.StatusPresent && status != attendance.StatusLate {
		return nil, apperrors.NewValidationError("status must be present or late")
	}

	session, err := s.sessions.GetByID(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !session.AcceptingCheckIns(now) {
		s.countCheckIn(checkInClosed)
		return nil, apperrors.ErrAttendanceClosed
	}

	if err := s.access.EnsureCourseMember(ctx, actor, session.CourseID); err != nil {
		if errors.Is(err, apperrors.ErrNotEnrolled) {
			s.countCheckIn(checkInNotEnrolled)
		}
		return nil, err
	}

	switch {
	case session.AttendanceType == models.AttendanceByManual:
		s.countCheckIn(checkInClosed)
		return nil, apperrors.NewForbiddenError("attendance for this session is taken by the instructor")
	case session.AttendanceType.RequiresCode():
		if session.AuthCode == nil || *session.AuthCode != req.Code {
			s.countCheckIn(checkInBadCode)
			return nil, apperrors.ErrInvalidCheckInCode
		}
	}

	mark, err := s.marks.CheckIn(ctx, session.ID, actor.UserID, status, now)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrAlreadyCheckedIn):
			s.countCheckIn(checkInDuplicate)
		case errors.Is(err, apperrors.ErrAttendanceClosed):
			s.countCheckIn(checkInClosed)
		default:
			s.countCheckIn(checkInError)
		}
		return nil, err
	}
	s.countCheckIn(checkInOK)

	logger.Debug().
		Int64("sessionID", session.ID).
		Int64("studentID", actor.UserID).
		Str("status", string(status)).
		Msg("Student checked in")
	s.audit.Record(ctx, actor.UserID, ActionCheckIn, fmt.Sprintf("checked in to session %d as %s", session.ID, status))

	session.AuthCode = nil
	return &dto.CheckInResponse{Mark: mark, Session: session}, nil
}

// SessionRoster returns the marks of every student for one session
func (s *AttendanceService) SessionRoster(ctx context.Context, actor authz.Actor, sessionID int64) ([]*models.AttendanceRecord, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.access.EnsureCourseManager(ctx, actor, session.CourseID); err != nil {
		return nil, err
	}
	return s.marks.ListRecords(ctx, repositories.AttendanceFilter{SessionID: &sessionID})
}

// StudentRecords returns a student's marks across courses. Instructors only
// see the courses they teach.
func (s *AttendanceService) StudentRecords(ctx context.Context, actor authz.Actor, studentID int64) ([]*models.AttendanceRecord, error) {
	if err := authz.EnsureSelfOrStaff(actor, studentID); err != nil {
		return nil, err
	}

	records, err := s.marks.ListRecords(ctx, repositories.AttendanceFilter{StudentID: &studentID})
	if err != nil {
		return nil, err
	}
	if !actor.IsInstructor() {
		return records, nil
	}

	visible := make([]*models.AttendanceRecord, 0, len(records))
	allowed := make(map[int64]bool)
	for _, r := range records {
		ok, seen := allowed[r.CourseID]
		if !seen {
			ok = s.access.EnsureCourseManager(ctx, actor, r.CourseID) == nil
			allowed[r.CourseID] = ok
		}
		if ok {
			visible = append(visible, r)
		}
	}
	return visible, nil
}

// UpdateStatus overrides one mark. When the change pushes the student into
// a higher risk level the student is told, and on danger so is the
// instructor.
func (s *AttendanceService) UpdateStatus(ctx context.Context, actor authz.Actor, markID int64, status attendance.Status) (*models.AttendanceMark, error) {
	if !status.Valid() {
		return nil, apperrors.ErrInvalidAttendStatus
	}

	mark, err := s.marks.GetByID(ctx, markID)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.GetByID(ctx, mark.SessionID)
	if err != nil {
		return nil, err
	}
	if err := s.access.EnsureCourseManager(ctx, actor, session.CourseID); err != nil {
		return nil, err
	}

	policy := s.policy.Policy(ctx)
	sessions, err := s.sessions.ListByCourse(ctx, session.CourseID)
	if err != nil {
		return nil, err
	}
	marks, err := s.marks.ListMarks(ctx, session.CourseID, mark.StudentID)
	if err != nil {
		return nil, err
	}
	before := summarize(sessions, marks, policy)

	updated, err := s.marks.UpdateStatus(ctx, markID, status, s.now())
	if err != nil {
		return nil, err
	}

	for i, m := range marks {
		if m.ID == updated.ID {
			marks[i] = updated
		}
	}
	after := summarize(sessions, marks, policy)

	if attendance.Escalated(before.Risk, after.Risk) {
		s.notifyEscalation(ctx, session.CourseID, mark.StudentID, after)
	}

	s.audit.Record(ctx, actor.UserID, ActionMarkUpdate,
		fmt.Sprintf("set mark %d (session %d, student %d) from %s to %s", markID, mark.SessionID, mark.StudentID, mark.Status, status))
	return updated, nil
}

func (s *AttendanceService) notifyEscalation(ctx context.Context, courseID, studentID int64, summary attendance.Summary) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		logger.Warn().Err(err).Int64("courseID", courseID).Msg("Could not load course for risk notification")
		return
	}

	kind := models.NotificationRiskWarning
	title := "Attendance warning"
	if summary.Risk == attendance.RiskDanger {
		kind = models.NotificationRiskDanger
		title = "Attendance danger"
	}
	body := fmt.Sprintf("%s: %d absences, attendance rate %d%%", course.Name, summary.FinalAbsent, summary.AttendanceRate)
	link := strPtr(fmt.Sprintf("/courses/%d/attendance", courseID))

	s.notifier.Notify(ctx, []int64{studentID}, models.Notification{Type: kind, Title: title, Body: body, Link: link})

	if summary.Risk == attendance.RiskDanger {
		s.notifier.Notify(ctx, []int64{course.InstructorID}, models.Notification{
			Type:  kind,
			Title: title,
			Body:  fmt.Sprintf("Student %d in %s", studentID, body),
			Link:  link,
		})
	}
}

// MySummary returns the caller's summary and records for one course
func (s *AttendanceService) MySummary(ctx context.Context, actor authz.Actor, courseID int64) (*dto.MyAttendanceResponse, error) {
	if err := s.access.EnsureCourseMember(ctx, actor, courseID); err != nil {
		return nil, err
	}

	sessions, err := s.sessions.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	marks, err := s.marks.ListMarks(ctx, courseID, actor.UserID)
	if err != nil {
		return nil, err
	}
	records, err := s.marks.ListRecords(ctx, repositories.AttendanceFilter{CourseID: &courseID, StudentID: &actor.UserID})
	if err != nil {
		return nil, err
	}

	return &dto.MyAttendanceResponse{
		CourseID: courseID,
		Summary:  summarize(sessions, marks, s.policy.Policy(ctx)),
		Records:  records,
	}, nil
}

// CourseStats returns the summary of every enrolled student of a course
func (s *AttendanceService) CourseStats(ctx context.Context, actor authz.Actor, courseID int64) (*dto.CourseAttendanceStats, error) {
	if err := s.access.EnsureCourseManager(ctx, actor, courseID); err != nil {
		return nil, err
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessions.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	marks, err := s.marks.ListMarksByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	students, err := s.roster.ListStudents(ctx, courseID)
	if err != nil {
		return nil, err
	}

	policy := s.policy.Policy(ctx)
	byStudent := groupMarks(marks)

	stats := &dto.CourseAttendanceStats{
		CourseID:     course.ID,
		CourseName:   course.Name,
		SessionCount: len(sessions),
		Students:     make([]dto.StudentSummary, 0, len(students)),
	}
	for _, st := range students {
		summary := summarize(sessions, byStudent[st.ID], policy)
		switch summary.Risk {
		case attendance.RiskWarning:
			stats.WarningCount++
		case attendance.RiskDanger:
			stats.DangerCount++
		}
		stats.Students = append(stats.Students, dto.StudentSummary{
			StudentID:     st.ID,
			StudentName:   st.Name,
			StudentNumber: st.StudentNumber,
			Summary:       summary,
		})
	}
	return stats, nil
}

// summarize adapts stored rows to the aggregator
func summarize(sessions []*models.Session, marks []*models.AttendanceMark, policy attendance.Policy) attendance.Summary {
	domainSessions := make([]attendance.Session, len(sessions))
	for i, session := range sessions {
		domainSessions[i] = session.ForSummary()
	}
	domainMarks := make([]attendance.Mark, len(marks))
	for i, mark := range marks {
		domainMarks[i] = mark.ForSummary()
	}
	return attendance.Summarize(domainSessions, domainMarks, policy)
}

func groupMarks(marks []*models.AttendanceMark) map[int64][]*models.AttendanceMark {
	grouped := make(map[int64][]*models.AttendanceMark)
	for _, m := range marks {
		grouped[m.StudentID] = append(grouped[m.StudentID], m)
	}
	return grouped
}

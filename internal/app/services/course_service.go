package services

import (
	"context"
	"fmt"
	"strings"

	authz "github.com/yigit/rollcall/internal/app/auth"
	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/domain/schedule"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
	"github.com/yigit/rollcall/internal/pkg/logger"
)

// CourseStore persists courses
type CourseStore interface {
	CreateWithSessions(ctx context.Context, course *models.Course, drafts []schedule.SessionDraft) ([]*models.Session, error)
	GetByID(ctx context.Context, id int64) (*models.CourseDetails, error)
	List(ctx context.Context, filter dto.CourseFilter) ([]*models.CourseDetails, dto.PaginationInfo, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id int64) error
}

// HolidayCalendar returns the holidays used when generating sessions
type HolidayCalendar interface {
	Calendar(ctx context.Context) schedule.Holidays
}

// UserLookup loads a user by ID
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// CourseService handles course management and session generation
type CourseService struct {
	courses       CourseStore
	users         UserLookup
	calendar      HolidayCalendar
	generator     *schedule.Generator
	access        CourseAccess
	audit         AuditRecorder
	defaultLength int
}

// NewCourseService creates a new CourseService. defaultLength is used when a
// request leaves the course length out.
func NewCourseService(courses CourseStore, users UserLookup, calendar HolidayCalendar, generator *schedule.Generator,
	access CourseAccess, audit AuditRecorder, defaultLength int) *CourseService {
	if defaultLength <= 0 {
		defaultLength = schedule.DefaultCourseLength
	}
	if generator == nil {
		generator = schedule.NewGenerator(nil)
	}
	return &CourseService{
		courses:       courses,
		users:         users,
		calendar:      calendar,
		generator:     generator,
		access:        access,
		audit:         audit,
		defaultLength: defaultLength,
	}
}

// scheduleRequest turns API fields into a generator request
func (s *CourseService) scheduleRequest(ctx context.Context, startDate string, dayOfWeek *int, length int) (schedule.Request, error) {
	start, err := schedule.ParseDate(startDate)
	if err != nil {
		return schedule.Request{}, apperrors.NewValidationError("startDate must be a date in YYYY-MM-DD format")
	}
	if dayOfWeek == nil {
		return schedule.Request{}, schedule.ErrInvalidWeekday
	}
	if length == 0 {
		length = s.defaultLength
	}
	return schedule.Request{
		StartDate:    start,
		Weekday:      *dayOfWeek,
		CourseLength: length,
		Holidays:     s.calendar.Calendar(ctx),
	}, nil
}

// Preview generates the session plan of a course without saving anything
func (s *CourseService) Preview(ctx context.Context, req *dto.PreviewScheduleRequest) (*dto.SchedulePreview, error) {
	genReq, err := s.scheduleRequest(ctx, req.StartDate, req.DayOfWeek, req.CourseLength)
	if err != nil {
		return nil, err
	}
	drafts, err := s.generator.Generate(genReq)
	if err != nil {
		return nil, err
	}
	preview := dto.NewSchedulePreview(drafts)
	return &preview, nil
}

// resolveInstructor picks the owner of a new course. Instructors own what
// they create; administrators must name an instructor.
func (s *CourseService) resolveInstructor(ctx context.Context, actor authz.Actor, requested *int64) (int64, error) {
	if !actor.IsAdmin() {
		if requested != nil && *requested != actor.UserID {
			return 0, apperrors.NewForbiddenError("instructors can only create their own courses")
		}
		return actor.UserID, nil
	}
	if requested == nil {
		return 0, apperrors.NewValidationError("instructorId is required when an administrator creates a course")
	}
	if err := s.ensureInstructor(ctx, *requested); err != nil {
		return 0, err
	}
	return *requested, nil
}

func (s *CourseService) ensureInstructor(ctx context.Context, userID int64) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.RoleType != models.RoleInstructor {
		return apperrors.NewValidationError("instructorId must refer to an instructor")
	}
	return nil
}

// Create stores a course together with its generated sessions
func (s *CourseService) Create(ctx context.Context, actor authz.Actor, req *dto.CreateCourseRequest) (*dto.CourseWithSessions, error) {
	instructorID, err := s.resolveInstructor(ctx, actor, req.InstructorID)
	if err != nil {
		return nil, err
	}

	genReq, err := s.scheduleRequest(ctx, req.StartDate, req.DayOfWeek, req.CourseLength)
	if err != nil {
		return nil, err
	}
	drafts, err := s.generator.Generate(genReq)
	if err != nil {
		return nil, err
	}

	attendanceType := req.AttendanceType
	if attendanceType == "" {
		attendanceType = models.AttendanceByCode
	}
	if !attendanceType.Valid() {
		return nil, apperrors.NewValidationError("unknown attendance type")
	}

	course := &models.Course{
		Name:           strings.TrimSpace(req.Name),
		Code:           strings.TrimSpace(req.Code),
		InstructorID:   instructorID,
		DepartmentID:   req.DepartmentID,
		SemesterID:     req.SemesterID,
		StartDate:      genReq.StartDate,
		DayOfWeek:      genReq.Weekday,
		CourseLength:   genReq.CourseLength,
		AttendanceType: attendanceType,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
	}

	sessions, err := s.courses.CreateWithSessions(ctx, course, drafts)
	if err != nil {
		return nil, err
	}

	details, err := s.courses.GetByID(ctx, course.ID)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Int64("courseID", course.ID).
		Int64("instructorID", instructorID).
		Int("sessions", len(sessions)).
		Msg("Course created")
	s.audit.Record(ctx, actor.UserID, ActionCourseCreate, fmt.Sprintf("created course %d %q with %d sessions", course.ID, course.Name, len(sessions)))

	return &dto.CourseWithSessions{Course: details, Sessions: sessions}, nil
}

// Get returns a course visible to the actor
func (s *CourseService) Get(ctx context.Context, actor authz.Actor, id int64) (*models.CourseDetails, error) {
	if err := s.access.EnsureCourseMember(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.courses.GetByID(ctx, id)
}

// List returns the courses visible to the actor: all of them for
// administrators, owned ones for instructors and enrolled ones for students.
func (s *CourseService) List(ctx context.Context, actor authz.Actor, filter dto.CourseFilter) ([]*models.CourseDetails, dto.PaginationInfo, error) {
	filter.InstructorID = nil
	filter.StudentID = nil
	switch {
	case actor.IsInstructor():
		filter.InstructorID = &actor.UserID
	case actor.IsStudent():
		filter.StudentID = &actor.UserID
	}
	return s.courses.List(ctx, filter)
}

// Update changes course metadata. Only administrators may hand a course to
// another instructor.
func (s *CourseService) Update(ctx context.Context, actor authz.Actor, id int64, req *dto.UpdateCourseRequest) (*models.CourseDetails, error) {
	if err := s.access.EnsureCourseManager(ctx, actor, id); err != nil {
		return nil, err
	}

	details, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	course := details.Course

	if req.Name != nil {
		course.Name = strings.TrimSpace(*req.Name)
	}
	if req.Code != nil {
		course.Code = strings.TrimSpace(*req.Code)
	}
	if req.InstructorID != nil && *req.InstructorID != course.InstructorID {
		if !actor.IsAdmin() {
			return nil, apperrors.NewForbiddenError("only administrators can reassign a course")
		}
		if err := s.ensureInstructor(ctx, *req.InstructorID); err != nil {
			return nil, err
		}
		course.InstructorID = *req.InstructorID
	}
	if req.DepartmentID != nil {
		course.DepartmentID = req.DepartmentID
	}
	if req.SemesterID != nil {
		course.SemesterID = req.SemesterID
	}
	if req.AttendanceType != nil {
		if !req.AttendanceType.Valid() {
			return nil, apperrors.NewValidationError("unknown attendance type")
		}
		course.AttendanceType = *req.AttendanceType
	}
	if req.StartTime != nil {
		course.StartTime = req.StartTime
	}
	if req.EndTime != nil {
		course.EndTime = req.EndTime
	}

	if err := s.courses.Update(ctx, &course); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, actor.UserID, ActionCourseUpdate, fmt.Sprintf("updated course %d", id))

	return s.courses.GetByID(ctx, id)
}

// Delete removes a course with its sessions and marks
func (s *CourseService) Delete(ctx context.Context, actor authz.Actor, id int64) error {
	if err := s.access.EnsureCourseManager(ctx, actor, id); err != nil {
		return err
	}
	if err := s.courses.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, actor.UserID, ActionCourseDelete, fmt.Sprintf("deleted course %d", id))
	return nil
}

package auth

import (
	"context"
	"fmt"

	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
	"github.com/yigit/rollcall/internal/pkg/logger"
)

// Actor is the authenticated caller of a request
type Actor struct {
	UserID int64
	Role   models.RoleType
}

// IsAdmin reports whether the actor is an administrator
func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// IsInstructor reports whether the actor is an instructor
func (a Actor) IsInstructor() bool { return a.Role == models.RoleInstructor }

// IsStudent reports whether the actor is a student
func (a Actor) IsStudent() bool { return a.Role == models.RoleStudent }

// IsStaff reports whether the actor is an instructor or an administrator
func (a Actor) IsStaff() bool { return a.IsAdmin() || a.IsInstructor() }

// CourseOwnerLookup resolves the instructor of a course
type CourseOwnerLookup interface {
	GetInstructorID(ctx context.Context, courseID int64) (int64, error)
}

// EnrollmentLookup reports course membership of students
type EnrollmentLookup interface {
	IsEnrolled(ctx context.Context, courseID, studentID int64) (bool, error)
}

// AuthorizationService performs resource level checks on courses
type AuthorizationService struct {
	courses     CourseOwnerLookup
	enrollments EnrollmentLookup
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(courses CourseOwnerLookup, enrollments EnrollmentLookup) *AuthorizationService {
	return &AuthorizationService{
		courses:     courses,
		enrollments: enrollments,
	}
}

// EnsureCourseManager allows administrators and the instructor who owns the course
func (s *AuthorizationService) EnsureCourseManager(ctx context.Context, actor Actor, courseID int64) error {
	instructorID, err := s.courses.GetInstructorID(ctx, courseID)
	if err != nil {
		return err
	}
	if actor.IsAdmin() {
		return nil
	}
	if actor.IsInstructor() && instructorID == actor.UserID {
		return nil
	}

	logger.Debug().Int64("userID", actor.UserID).Int64("courseID", courseID).Msg("Course management denied")
	return apperrors.NewForbiddenError("only the course instructor can manage this course")
}

// EnsureCourseMember allows course managers and students enrolled in the course
func (s *AuthorizationService) EnsureCourseMember(ctx context.Context, actor Actor, courseID int64) error {
	if !actor.IsStudent() {
		return s.EnsureCourseManager(ctx, actor, courseID)
	}

	// Surface a missing course as 404 before checking membership
	if _, err := s.courses.GetInstructorID(ctx, courseID); err != nil {
		return err
	}

	enrolled, err := s.enrollments.IsEnrolled(ctx, courseID, actor.UserID)
	if err != nil {
		return fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return apperrors.ErrNotEnrolled
	}
	return nil
}

// EnsureSelfOrStaff allows a user to read their own data and staff to read anyone's
func EnsureSelfOrStaff(actor Actor, userID int64) error {
	if actor.UserID == userID || actor.IsStaff() {
		return nil
	}
	return apperrors.NewForbiddenError("you can only access your own records")
}

// AuthorizeCourseRoom lets course members follow the realtime events of a course
func (s *AuthorizationService) AuthorizeCourseRoom(ctx context.Context, userID int64, role models.RoleType, courseID int64) error {
	return s.EnsureCourseMember(ctx, Actor{UserID: userID, Role: role}, courseID)
}

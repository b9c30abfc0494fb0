package services

import (
	"context"
	"fmt"
	"strings"

	authz "github.com/yigit/rollcall/internal/app/auth"
	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
)

// EnrollmentStore persists course membership
type EnrollmentStore interface {
	Enroll(ctx context.Context, courseID, studentID int64) error
	Unenroll(ctx context.Context, courseID, studentID int64) error
	ListStudents(ctx context.Context, courseID int64) ([]*models.EnrolledStudent, error)
	ListCandidates(ctx context.Context, courseID int64) ([]*models.User, error)
}

// StudentFinder resolves a student number to a user
type StudentFinder interface {
	GetByStudentNumber(ctx context.Context, number string) (*models.User, error)
}

// EnrollmentService manages which students belong to a course
type EnrollmentService struct {
	enrollments EnrollmentStore
	students    StudentFinder
	access      CourseAccess
	audit       AuditRecorder
}

// NewEnrollmentService creates a new EnrollmentService
func NewEnrollmentService(enrollments EnrollmentStore, students StudentFinder, access CourseAccess, audit AuditRecorder) *EnrollmentService {
	return &EnrollmentService{
		enrollments: enrollments,
		students:    students,
		access:      access,
		audit:       audit,
	}
}

// ListStudents returns the roster of a course
func (s *EnrollmentService) ListStudents(ctx context.Context, actor authz.Actor, courseID int64) ([]*models.EnrolledStudent, error) {
	if err := s.access.EnsureCourseManager(ctx, actor, courseID); err != nil {
		return nil, err
	}
	return s.enrollments.ListStudents(ctx, courseID)
}

// Candidates returns the active students not yet enrolled in a course
func (s *EnrollmentService) Candidates(ctx context.Context, actor authz.Actor, courseID int64) ([]*models.User, error) {
	if err := s.access.EnsureCourseManager(ctx, actor, courseID); err != nil {
		return nil, err
	}
	return s.enrollments.ListCandidates(ctx, courseID)
}

// Enroll adds the student with the given number to a course
func (s *EnrollmentService) Enroll(ctx context.Context, actor authz.Actor, req *dto.EnrollRequest) (*models.User, error) {
	if err := s.access.EnsureCourseManager(ctx, actor, req.CourseID); err != nil {
		return nil, err
	}

	student, err := s.students.GetByStudentNumber(ctx, strings.TrimSpace(req.StudentNumber))
	if err != nil {
		return nil, err
	}
	if student.RoleType != models.RoleStudent {
		return nil, apperrors.NewValidationError("only students can be enrolled")
	}
	if !student.IsActive {
		return nil, apperrors.NewValidationError("student account is disabled")
	}

	if err := s.enrollments.Enroll(ctx, req.CourseID, student.ID); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor.UserID, ActionEnroll, fmt.Sprintf("enrolled student %d in course %d", student.ID, req.CourseID))
	return student, nil
}

// Unenroll removes a student from a course. Recorded marks stay as history.
func (s *EnrollmentService) Unenroll(ctx context.Context, actor authz.Actor, req *dto.UnenrollRequest) error {
	if err := s.access.EnsureCourseManager(ctx, actor, req.CourseID); err != nil {
		return err
	}
	if err := s.enrollments.Unenroll(ctx, req.CourseID, req.StudentID); err != nil {
		return err
	}
	s.audit.Record(ctx, actor.UserID, ActionUnenroll, fmt.Sprintf("removed student %d from course %d", req.StudentID, req.CourseID))
	return nil
}

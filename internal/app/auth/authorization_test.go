package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
)

type stubCourses map[int64]int64

func (s stubCourses) GetInstructorID(_ context.Context, courseID int64) (int64, error) {
	id, ok := s[courseID]
	if !ok {
		return 0, apperrors.ErrCourseNotFound
	}
	return id, nil
}

type stubEnrollments map[int64][]int64

func (s stubEnrollments) IsEnrolled(_ context.Context, courseID, studentID int64) (bool, error) {
	for _, id := range s[courseID] {
		if id == studentID {
			return true, nil
		}
	}
	return false, nil
}

func newTestAuthorizer() *AuthorizationService {
	return NewAuthorizationService(stubCourses{1: 10}, stubEnrollments{1: {100}})
}

var (
	admin      = Actor{UserID: 1, Role: models.RoleAdmin}
	owner      = Actor{UserID: 10, Role: models.RoleInstructor}
	colleague  = Actor{UserID: 11, Role: models.RoleInstructor}
	enrolled   = Actor{UserID: 100, Role: models.RoleStudent}
	unenrolled = Actor{UserID: 101, Role: models.RoleStudent}
)

func TestEnsureCourseManager(t *testing.T) {
	tests := []struct {
		name     string
		actor    Actor
		courseID int64
		wantErr  error
	}{
		{"admin", admin, 1, nil},
		{"owner", owner, 1, nil},
		{"other instructor", colleague, 1, apperrors.ErrPermissionDenied},
		{"enrolled student", enrolled, 1, apperrors.ErrPermissionDenied},
		{"missing course", admin, 2, apperrors.ErrCourseNotFound},
	}

	svc := newTestAuthorizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.EnsureCourseManager(context.Background(), tt.actor, tt.courseID)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestEnsureCourseMember(t *testing.T) {
	tests := []struct {
		name     string
		actor    Actor
		courseID int64
		wantErr  error
	}{
		{"enrolled student", enrolled, 1, nil},
		{"owner", owner, 1, nil},
		{"admin", admin, 1, nil},
		{"unenrolled student", unenrolled, 1, apperrors.ErrNotEnrolled},
		{"other instructor", colleague, 1, apperrors.ErrPermissionDenied},
		{"missing course", enrolled, 2, apperrors.ErrCourseNotFound},
	}

	svc := newTestAuthorizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.EnsureCourseMember(context.Background(), tt.actor, tt.courseID)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestEnsureSelfOrStaff(t *testing.T) {
	assert.NoError(t, EnsureSelfOrStaff(enrolled, enrolled.UserID))
	assert.NoError(t, EnsureSelfOrStaff(colleague, enrolled.UserID))
	assert.ErrorIs(t, EnsureSelfOrStaff(unenrolled, enrolled.UserID), apperrors.ErrPermissionDenied)
}

func TestAuthorizeCourseRoom(t *testing.T) {
	svc := newTestAuthorizer()
	assert.NoError(t, svc.AuthorizeCourseRoom(context.Background(), 100, models.RoleStudent, 1))
	assert.ErrorIs(t, svc.AuthorizeCourseRoom(context.Background(), 101, models.RoleStudent, 1), apperrors.ErrNotEnrolled)
}

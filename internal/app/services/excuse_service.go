package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	authz "github.com/yigit/rollcall/internal/app/auth"
	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/app/repositories"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
)

// ExcuseStore persists excuse requests
type ExcuseStore interface {
	Create(ctx context.Context, excuse *models.Excuse) error
	GetByID(ctx context.Context, id int64) (*models.Excuse, error)
	List(ctx context.Context, filter repositories.ExcuseFilter) ([]*models.Excuse, error)
	Decide(ctx context.Context, d repositories.ExcuseDecision) error
}

// SessionGetter loads one session
type SessionGetter interface {
	GetByID(ctx context.Context, id int64) (*models.Session, error)
}

// ExcuseService handles excuse submission and review
type ExcuseService struct {
	excuses  ExcuseStore
	sessions SessionGetter
	access   CourseAccess
	flags    FeatureFlags
	notifier Notifier
	audit    AuditRecorder
	now      Clock
}

// NewExcuseService creates a new ExcuseService
func NewExcuseService(excuses ExcuseStore, sessions SessionGetter, access CourseAccess, flags FeatureFlags,
	notifier Notifier, audit AuditRecorder) *ExcuseService {
	return &ExcuseService{
		excuses:  excuses,
		sessions: sessions,
		access:   access,
		flags:    flags,
		notifier: notifier,
		audit:    audit,
		now:      time.Now,
	}
}

// Submit files an excuse for the calling student. A session-bound excuse
// takes its course from the session.
func (s *ExcuseService) Submit(ctx context.Context, actor authz.Actor, req *dto.CreateExcuseRequest) (*models.Excuse, error) {
	if !actor.IsStudent() {
		return nil, apperrors.NewForbiddenError("only students can submit excuses")
	}

	hasAttachment := req.AttachmentURL != nil && strings.TrimSpace(*req.AttachmentURL) != ""
	if !hasAttachment && s.flags.Enabled(ctx, SettingExcuseNeedsFile) {
		return nil, apperrors.NewValidationError("an attachment is required for excuses")
	}

	courseID := req.CourseID
	if req.SessionID != nil {
		session, err := s.sessions.GetByID(ctx, *req.SessionID)
		if err != nil {
			return nil, err
		}
		if courseID != nil && *courseID != session.CourseID {
			return nil, apperrors.NewValidationError("session does not belong to the given course")
		}
		courseID = &session.CourseID
	}
	if courseID != nil {
		if err := s.access.EnsureCourseMember(ctx, actor, *courseID); err != nil {
			return nil, err
		}
	}

	excuse := &models.Excuse{
		StudentID: actor.UserID,
		CourseID:  courseID,
		SessionID: req.SessionID,
		Reason:    strings.TrimSpace(req.Reason),
		Status:    models.ExcusePending,
	}
	if hasAttachment {
		excuse.AttachmentURL = req.AttachmentURL
	}
	if err := s.excuses.Create(ctx, excuse); err != nil {
		return nil, err
	}
	return excuse, nil
}

// Mine lists the caller's own excuses
func (s *ExcuseService) Mine(ctx context.Context, actor authz.Actor) ([]*models.Excuse, error) {
	return s.excuses.List(ctx, repositories.ExcuseFilter{StudentID: &actor.UserID})
}

// List returns the excuses the actor may review: every excuse for
// administrators, those of their own courses for instructors.
func (s *ExcuseService) List(ctx context.Context, actor authz.Actor, status *models.ExcuseStatus) ([]*models.Excuse, error) {
	filter := repositories.ExcuseFilter{Status: status}
	switch {
	case actor.IsAdmin():
	case actor.IsInstructor():
		filter.InstructorID = &actor.UserID
	default:
		return nil, apperrors.NewForbiddenError("only staff can review excuses")
	}
	return s.excuses.List(ctx, filter)
}

// Decide approves or rejects a pending excuse and tells the student
func (s *ExcuseService) Decide(ctx context.Context, actor authz.Actor, id int64, req *dto.ReviewExcuseRequest) (*models.Excuse, error) {
	if req.Status != models.ExcuseApproved && req.Status != models.ExcuseRejected {
		return nil, apperrors.NewValidationError("status must be approved or rejected")
	}

	excuse, err := s.excuses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if excuse.CourseID != nil {
		if err := s.access.EnsureCourseManager(ctx, actor, *excuse.CourseID); err != nil {
			return nil, err
		}
	} else if !actor.IsAdmin() {
		return nil, apperrors.NewForbiddenError("only administrators can review excuses without a course")
	}

	err = s.excuses.Decide(ctx, repositories.ExcuseDecision{
		ExcuseID:   id,
		Status:     req.Status,
		ReviewerID: actor.UserID,
		Comment:    req.Comment,
		At:         s.now(),
	})
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf("Your excuse was %s", req.Status)
	if req.Comment != nil && *req.Comment != "" {
		body = fmt.Sprintf("%s: %s", body, *req.Comment)
	}
	s.notifier.Notify(ctx, []int64{excuse.StudentID}, models.Notification{
		Type:  models.NotificationExcuseDecided,
		Title: "Excuse reviewed",
		Body:  body,
		Link:  strPtr(fmt.Sprintf("/excuses/%d", id)),
	})
	s.audit.Record(ctx, actor.UserID, ActionExcuseDecide, fmt.Sprintf("%s excuse %d of student %d", req.Status, id, excuse.StudentID))

	return s.excuses.GetByID(ctx, id)
}

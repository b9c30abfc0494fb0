package services

import (
	"context"
	"fmt"
	"strings"

	authz "github.com/yigit/rollcall/internal/app/auth"
	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/app/repositories"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
	"github.com/yigit/rollcall/internal/pkg/logger"
)

// NoticeStore persists notices
type NoticeStore interface {
	Create(ctx context.Context, notice *models.Notice) error
	GetByID(ctx context.Context, id int64) (*models.Notice, error)
	List(ctx context.Context, filter repositories.NoticeFilter) ([]*models.Notice, error)
	Delete(ctx context.Context, id int64) error
}

// RoleLister lists users by role
type RoleLister interface {
	ListByRole(ctx context.Context, role models.RoleType) ([]*models.User, error)
}

// NoticeService posts course and global announcements
type NoticeService struct {
	notices  NoticeStore
	students StudentIDLister
	users    RoleLister
	access   CourseAccess
	notifier Notifier
}

// NewNoticeService creates a new NoticeService
func NewNoticeService(notices NoticeStore, students StudentIDLister, users RoleLister, access CourseAccess, notifier Notifier) *NoticeService {
	return &NoticeService{
		notices:  notices,
		students: students,
		users:    users,
		access:   access,
		notifier: notifier,
	}
}

// List returns notices, newest first. Students only see global notices and
// those of their courses.
func (s *NoticeService) List(ctx context.Context, actor authz.Actor, courseID *int64) ([]*models.Notice, error) {
	filter := repositories.NoticeFilter{CourseID: courseID}
	if courseID != nil {
		if err := s.access.EnsureCourseMember(ctx, actor, *courseID); err != nil {
			return nil, err
		}
	}
	if actor.IsStudent() {
		filter.VisibleTo = &actor.UserID
	}
	return s.notices.List(ctx, filter)
}

// Create posts a notice. A course notice reaches the enrolled students, a
// global one every student.
func (s *NoticeService) Create(ctx context.Context, actor authz.Actor, req *dto.CreateNoticeRequest) (*models.Notice, error) {
	if req.CourseID != nil {
		if err := s.access.EnsureCourseManager(ctx, actor, *req.CourseID); err != nil {
			return nil, err
		}
	} else if !actor.IsStaff() {
		return nil, apperrors.NewForbiddenError("only staff can post notices")
	}

	notice := &models.Notice{
		WriterID: actor.UserID,
		CourseID: req.CourseID,
		Title:    strings.TrimSpace(req.Title),
		Content:  strings.TrimSpace(req.Content),
	}
	if err := s.notices.Create(ctx, notice); err != nil {
		return nil, err
	}

	recipients, err := s.recipients(ctx, req.CourseID)
	if err != nil {
		logger.Error().Err(err).Int64("noticeID", notice.ID).Msg("Failed to resolve notice recipients")
		return notice, nil
	}
	s.notifier.Notify(ctx, recipients, models.Notification{
		Type:  models.NotificationNotice,
		Title: notice.Title,
		Body:  preview(notice.Content),
		Link:  strPtr(fmt.Sprintf("/notices/%d", notice.ID)),
	})
	return notice, nil
}

func (s *NoticeService) recipients(ctx context.Context, courseID *int64) ([]int64, error) {
	if courseID != nil {
		return s.students.ListStudentIDs(ctx, *courseID)
	}
	students, err := s.users.ListByRole(ctx, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(students))
	for i, u := range students {
		ids[i] = u.ID
	}
	return ids, nil
}

// Delete removes a notice. Writers delete their own, administrators any.
func (s *NoticeService) Delete(ctx context.Context, actor authz.Actor, id int64) error {
	notice, err := s.notices.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if notice.WriterID != actor.UserID && !actor.IsAdmin() {
		return apperrors.NewForbiddenError("you can only delete your own notices")
	}
	return s.notices.Delete(ctx, id)
}

package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	authz "github.com/yigit/rollcall/internal/app/auth"
	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
)

const (
	defaultConversationLimit = 100
	previewLength            = 80
)

// MessageStore persists direct messages
type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	Conversation(ctx context.Context, userID, otherID int64, limit int) ([]*models.Message, error)
	MarkConversationRead(ctx context.Context, userID, otherID int64) error
}

// ContactDirectory finds the users someone may write to
type ContactDirectory interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	ListByRole(ctx context.Context, role models.RoleType) ([]*models.User, error)
	ListInstructorsOfStudent(ctx context.Context, studentID int64) ([]*models.User, error)
	ListStudentsOfInstructor(ctx context.Context, instructorID int64) ([]*models.User, error)
}

// MessageService handles direct messages between course members
type MessageService struct {
	messages MessageStore
	contacts ContactDirectory
	notifier Notifier
}

// NewMessageService creates a new MessageService
func NewMessageService(messages MessageStore, contacts ContactDirectory, notifier Notifier) *MessageService {
	return &MessageService{
		messages: messages,
		contacts: contacts,
		notifier: notifier,
	}
}

// Targets lists who the actor may write to: students reach the instructors
// of their courses, instructors their students, administrators everyone.
func (s *MessageService) Targets(ctx context.Context, actor authz.Actor) ([]dto.MessageTarget, error) {
	var users []*models.User
	switch {
	case actor.IsStudent():
		found, err := s.contacts.ListInstructorsOfStudent(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		users = found
	case actor.IsInstructor():
		found, err := s.contacts.ListStudentsOfInstructor(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		users = found
	default:
		for _, role := range []models.RoleType{models.RoleInstructor, models.RoleStudent} {
			found, err := s.contacts.ListByRole(ctx, role)
			if err != nil {
				return nil, err
			}
			users = append(users, found...)
		}
	}

	targets := make([]dto.MessageTarget, 0, len(users))
	for _, u := range users {
		if u.ID == actor.UserID {
			continue
		}
		targets = append(targets, dto.MessageTarget{ID: u.ID, Name: u.Name, RoleType: u.RoleType})
	}
	return targets, nil
}

// Conversation returns the messages exchanged with another user, oldest
// first, and marks the ones received as read.
func (s *MessageService) Conversation(ctx context.Context, actor authz.Actor, otherID int64, limit int) ([]*models.Message, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultConversationLimit
	}
	if err := s.messages.MarkConversationRead(ctx, actor.UserID, otherID); err != nil {
		return nil, err
	}
	return s.messages.Conversation(ctx, actor.UserID, otherID, limit)
}

// Send delivers a message and notifies the receiver. Anyone may write to an
// administrator; other receivers must be among the sender's targets.
func (s *MessageService) Send(ctx context.Context, actor authz.Actor, req *dto.SendMessageRequest) (*models.Message, error) {
	if req.ReceiverID == actor.UserID {
		return nil, apperrors.NewValidationError("you cannot message yourself")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperrors.NewValidationError("message content cannot be empty")
	}

	receiver, err := s.contacts.GetByID(ctx, req.ReceiverID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !receiver.IsAdmin() {
		allowed, err := s.isTarget(ctx, actor, receiver.ID)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, apperrors.NewForbiddenError("you can only message members of your courses")
		}
	}

	sender, err := s.contacts.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		SenderID:   actor.UserID,
		ReceiverID: receiver.ID,
		Content:    content,
		SenderName: sender.Name,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, []int64{receiver.ID}, models.Notification{
		Type:  models.NotificationMessage,
		Title: fmt.Sprintf("New message from %s", sender.Name),
		Body:  preview(content),
		Link:  strPtr(fmt.Sprintf("/messages/%d", actor.UserID)),
	})
	return msg, nil
}

func (s *MessageService) isTarget(ctx context.Context, actor authz.Actor, userID int64) (bool, error) {
	targets, err := s.Targets(ctx, actor)
	if err != nil {
		return false, err
	}
	for _, t := range targets {
		if t.ID == userID {
			return true, nil
		}
	}
	return false, nil
}

// preview shortens content for a notification body
func preview(content string) string {
	if utf8.RuneCountInString(content) <= previewLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:previewLength]) + "..."
}

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	authz "github.com/yigit/rollcall/internal/app/auth"
	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/domain/schedule"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
	"github.com/yigit/rollcall/internal/pkg/logger"
	"github.com/yigit/rollcall/internal/pkg/qrcode"
	"github.com/yigit/rollcall/internal/pkg/websocket"
)

// SessionStore persists class sessions
type SessionStore interface {
	GetByID(ctx context.Context, id int64) (*models.Session, error)
	ListByCourse(ctx context.Context, courseID int64) ([]*models.Session, error)
	Create(ctx context.Context, session *models.Session) error
	Toggle(ctx context.Context, id int64, now, openUntil time.Time, code string) (*models.Session, error)
	SetCode(ctx context.Context, id int64, code *string) (*models.Session, error)
	CloseExpired(ctx context.Context, now time.Time) ([]*models.Session, error)
}

// StudentIDLister lists the students enrolled in a course
type StudentIDLister interface {
	ListStudentIDs(ctx context.Context, courseID int64) ([]int64, error)
}

// WindowSource tells how long a session stays open for check-in
type WindowSource interface {
	OpenWindow(ctx context.Context) time.Duration
}

// SweepRecorder counts sessions closed by the sweeper
type SweepRecorder interface {
	SessionsAutoClosed(n int)
}

// SessionConfig holds the optional collaborators of a SessionService
type SessionConfig struct {
	PublicBaseURL string
	Codes         schedule.CodeSource
	Clock         Clock
	Metrics       SweepRecorder
}

// SessionService manages the sessions of courses and their check-in window
type SessionService struct {
	sessions      SessionStore
	students      StudentIDLister
	access        CourseAccess
	window        WindowSource
	notifier      Notifier
	rooms         RoomBroadcaster
	audit         AuditRecorder
	metrics       SweepRecorder
	codes         schedule.CodeSource
	now           Clock
	publicBaseURL string
}

// NewSessionService creates a new SessionService
func NewSessionService(sessions SessionStore, students StudentIDLister, access CourseAccess, window WindowSource,
	notifier Notifier, rooms RoomBroadcaster, audit AuditRecorder, cfg SessionConfig) *SessionService {
	if cfg.Codes == nil {
		cfg.Codes = schedule.RandomCode
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &SessionService{
		sessions:      sessions,
		students:      students,
		access:        access,
		window:        window,
		notifier:      notifier,
		rooms:         rooms,
		audit:         audit,
		metrics:       cfg.Metrics,
		codes:         cfg.Codes,
		now:           cfg.Clock,
		publicBaseURL: cfg.PublicBaseURL,
	}
}

// ListByCourse returns the sessions of a course in week order
func (s *SessionService) ListByCourse(ctx context.Context, actor authz.Actor, courseID int64) ([]*models.Session, error) {
	if err := s.access.EnsureCourseMember(ctx, actor, courseID); err != nil {
		return nil, err
	}
	sessions, err := s.sessions.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if actor.IsStudent() {
		for _, session := range sessions {
			session.AuthCode = nil
		}
	}
	return sessions, nil
}

// Create adds one session outside the generated run
func (s *SessionService) Create(ctx context.Context, actor authz.Actor, courseID int64, req *dto.CreateSessionRequest) (*models.Session, error) {
	if err := s.access.EnsureCourseManager(ctx, actor, courseID); err != nil {
		return nil, err
	}

	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		return nil, apperrors.NewValidationError("date must be a date in YYYY-MM-DD format")
	}

	attendanceType := req.AttendanceType
	if attendanceType == "" {
		attendanceType = models.AttendanceByCode
	}
	if !attendanceType.Valid() {
		return nil, apperrors.NewValidationError("unknown attendance type")
	}

	code := s.codes()
	session := &models.Session{
		CourseID:       courseID,
		Week:           req.Week,
		Date:           date,
		Title:          strings.TrimSpace(req.Title),
		Kind:           schedule.KindRegular,
		AuthCode:       &code,
		AttendanceType: attendanceType,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor.UserID, ActionSessionCreate, fmt.Sprintf("added session %d to course %d", session.ID, courseID))
	return session, nil
}

// managedSession loads a session and checks the actor manages its course
func (s *SessionService) managedSession(ctx context.Context, actor authz.Actor, id int64) (*models.Session, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.access.EnsureCourseManager(ctx, actor, session.CourseID); err != nil {
		return nil, err
	}
	return session, nil
}

// Toggle opens a closed session or closes an open one. Opening starts the
// check-in window and tells the enrolled students. Holiday closures never open.
func (s *SessionService) Toggle(ctx context.Context, actor authz.Actor, id int64) (*models.Session, error) {
	current, err := s.managedSession(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if current.Kind == schedule.KindHoliday && !current.IsOpen {
		return nil, apperrors.ErrHolidaySession
	}

	now := s.now()
	openUntil := now.Add(s.window.OpenWindow(ctx))

	session, err := s.sessions.Toggle(ctx, id, now, openUntil, s.codes())
	if err != nil {
		return nil, err
	}

	state := "closed"
	if session.IsOpen {
		state = "opened"
		s.notifyOpened(ctx, session)
	}
	s.publishStatus(session)

	logger.Info().
		Int64("sessionID", session.ID).
		Int64("courseID", session.CourseID).
		Bool("isOpen", session.IsOpen).
		Msg("Session toggled")
	s.audit.Record(ctx, actor.UserID, ActionSessionToggle, fmt.Sprintf("%s session %d of course %d", state, session.ID, session.CourseID))

	return session, nil
}

func (s *SessionService) notifyOpened(ctx context.Context, session *models.Session) {
	studentIDs, err := s.students.ListStudentIDs(ctx, session.CourseID)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", session.CourseID).Msg("Failed to list students for session notification")
		return
	}

	body := fmt.Sprintf("Check-in for week %d is open", session.Week)
	if session.OpenUntil != nil {
		body = fmt.Sprintf("%s until %s", body, session.OpenUntil.Format("15:04"))
	}
	s.notifier.Notify(ctx, studentIDs, models.Notification{
		Type:  models.NotificationSessionOpened,
		Title: session.Title,
		Body:  body,
		Link:  strPtr(fmt.Sprintf("/courses/%d/sessions/%d", session.CourseID, session.ID)),
	})
}

// publishStatus pushes the open state of a session to its course room
func (s *SessionService) publishStatus(session *models.Session) {
	if s.rooms == nil {
		return
	}
	event := dto.SessionStatusEvent{
		SessionID: session.ID,
		CourseID:  session.CourseID,
		Week:      session.Week,
		IsOpen:    session.IsOpen,
	}
	if session.OpenUntil != nil {
		event.OpenUntil = session.OpenUntil.Format(time.RFC3339)
	}
	s.rooms.BroadcastToRoom(websocket.CourseRoom(session.CourseID), websocket.EventSessionStatus, event)
}

// RegenerateCode replaces the check-in code of a session
func (s *SessionService) RegenerateCode(ctx context.Context, actor authz.Actor, id int64) (*models.Session, error) {
	if _, err := s.managedSession(ctx, actor, id); err != nil {
		return nil, err
	}
	code := s.codes()
	return s.sessions.SetCode(ctx, id, &code)
}

// ClearCode removes the check-in code of a session
func (s *SessionService) ClearCode(ctx context.Context, actor authz.Actor, id int64) (*models.Session, error) {
	if _, err := s.managedSession(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.sessions.SetCode(ctx, id, nil)
}

// QRCode renders the check-in link of a session as a PNG
func (s *SessionService) QRCode(ctx context.Context, actor authz.Actor, id int64, size int) ([]byte, error) {
	session, err := s.managedSession(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if session.AuthCode == nil || *session.AuthCode == "" {
		return nil, apperrors.NewValidationError("session has no check-in code")
	}
	return qrcode.PNG(qrcode.CheckInURL(s.publicBaseURL, session.ID, *session.AuthCode), size)
}

// CloseExpired closes every session whose check-in window has passed and
// returns how many were closed.
func (s *SessionService) CloseExpired(ctx context.Context) (int, error) {
	closed, err := s.sessions.CloseExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	for _, session := range closed {
		s.publishStatus(session)
	}
	if s.metrics != nil {
		s.metrics.SessionsAutoClosed(len(closed))
	}
	if len(closed) > 0 {
		logger.Info().Int("count", len(closed)).Msg("Closed expired sessions")
	}
	return len(closed), nil
}

// RunSweeper calls CloseExpired every interval until ctx is done
func (s *SessionService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info().Dur("interval", interval).Msg("Session sweeper started")
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Session sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.CloseExpired(ctx); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("Failed to close expired sessions")
			}
		}
	}
}

package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/domain/schedule"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
	"github.com/yigit/rollcall/internal/pkg/websocket"
)

type fakeSessionStore struct {
	fakeSessions
	nextID int64
}

func (f *fakeSessionStore) Create(_ context.Context, session *models.Session) error {
	f.nextID++
	session.ID = f.nextID
	cp := *session
	f.byID[session.ID] = &cp
	return nil
}

func (f *fakeSessionStore) Toggle(_ context.Context, id int64, now, openUntil time.Time, code string) (*models.Session, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	if s.IsOpen {
		s.IsOpen = false
		s.OpenUntil = nil
	} else {
		s.IsOpen = true
		if s.StartedAt == nil {
			s.StartedAt = &now
		}
		s.OpenUntil = &openUntil
		if s.AuthCode == nil {
			s.AuthCode = &code
		}
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessionStore) SetCode(_ context.Context, id int64, code *string) (*models.Session, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	s.AuthCode = code
	cp := *s
	return &cp, nil
}

func (f *fakeSessionStore) CloseExpired(_ context.Context, now time.Time) ([]*models.Session, error) {
	var closed []*models.Session
	for _, s := range f.byID {
		if s.IsOpen && s.OpenUntil != nil && !now.Before(*s.OpenUntil) {
			s.IsOpen = false
			cp := *s
			closed = append(closed, &cp)
		}
	}
	return closed, nil
}

type fixedWindow time.Duration

func (w fixedWindow) OpenWindow(context.Context) time.Duration { return time.Duration(w) }

type fakeSweepMetrics struct{ closed []int }

func (f *fakeSweepMetrics) SessionsAutoClosed(n int) { f.closed = append(f.closed, n) }

type sessionFixture struct {
	service  *SessionService
	store    *fakeSessionStore
	notifier *fakeNotifier
	rooms    *fakeRooms
	audit    *fakeAudit
	metrics  *fakeSweepMetrics
}

func newSessionFixture() *sessionFixture {
	access := newFakeAccess()
	access.addCourse(1, instructorActor.UserID, studentActor.UserID)

	store := &fakeSessionStore{
		fakeSessions: fakeSessions{byID: map[int64]*models.Session{
			1: {ID: 1, CourseID: 1, Week: 1, Title: "Week 1", AuthCode: ptr("4821"), AttendanceType: models.AttendanceByCode},
			2: {ID: 2, CourseID: 1, Week: 2, Title: "Week 2", AttendanceType: models.AttendanceByManual},
		}},
		nextID: 2,
	}

	f := &sessionFixture{
		store:    store,
		notifier: &fakeNotifier{},
		rooms:    &fakeRooms{},
		audit:    &fakeAudit{},
		metrics:  &fakeSweepMetrics{},
	}
	f.service = NewSessionService(store, fakeStudentIDs{1: {studentActor.UserID}}, access.service(),
		fixedWindow(10*time.Minute), f.notifier, f.rooms, f.audit, SessionConfig{
			PublicBaseURL: "https://rollcall.example.edu",
			Codes:         func() string { return "7777" },
			Clock:         fixedClock,
			Metrics:       f.metrics,
		})
	return f
}

func TestSessionService_ListByCourseHidesCodesFromStudents(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	forStudent, err := f.service.ListByCourse(ctx, studentActor, 1)
	require.NoError(t, err)
	require.Len(t, forStudent, 2)
	for _, s := range forStudent {
		assert.Nil(t, s.AuthCode)
	}

	forInstructor, err := f.service.ListByCourse(ctx, instructorActor, 1)
	require.NoError(t, err)
	require.NotNil(t, forInstructor[0].AuthCode)
	assert.Equal(t, "4821", *forInstructor[0].AuthCode)

	_, err = f.service.ListByCourse(ctx, strangerStudent, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotEnrolled)
}

func TestSessionService_Toggle(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	opened, err := f.service.Toggle(ctx, instructorActor, 1)
	require.NoError(t, err)
	assert.True(t, opened.IsOpen)
	require.NotNil(t, opened.OpenUntil)
	assert.Equal(t, fixedNow.Add(10*time.Minute), *opened.OpenUntil)

	sent := f.notifier.ofType(models.NotificationSessionOpened)
	require.Len(t, sent, 1)
	assert.Equal(t, []int64{studentActor.UserID}, sent[0].userIDs)
	assert.Contains(t, sent[0].n.Body, "until 09:10")

	require.Len(t, f.rooms.events, 1)
	assert.Equal(t, websocket.CourseRoom(1), f.rooms.events[0].room)
	assert.Equal(t, websocket.EventSessionStatus, f.rooms.events[0].event)
	event := f.rooms.events[0].data.(dto.SessionStatusEvent)
	assert.True(t, event.IsOpen)
	assert.Equal(t, "2025-09-01T09:10:00Z", event.OpenUntil)

	closed, err := f.service.Toggle(ctx, instructorActor, 1)
	require.NoError(t, err)
	assert.False(t, closed.IsOpen)
	assert.Len(t, f.notifier.sent, 1, "closing does not notify")
	assert.Len(t, f.rooms.events, 2)
	assert.Equal(t, []string{ActionSessionToggle, ActionSessionToggle}, f.audit.actions)

	_, err = f.service.Toggle(ctx, otherInstructor, 1)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	_, err = f.service.Toggle(ctx, instructorActor, 42)
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestSessionService_ToggleRejectsHoliday(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	f.store.byID[3] = &models.Session{ID: 3, CourseID: 1, Week: 2, Title: "Republic Day (no class)", Kind: schedule.KindHoliday}

	_, err := f.service.Toggle(ctx, instructorActor, 3)
	require.ErrorIs(t, err, apperrors.ErrHolidaySession)

	held := f.store.byID[3]
	assert.False(t, held.IsOpen)
	assert.Nil(t, held.StartedAt)
	assert.Nil(t, held.AuthCode)
	assert.Empty(t, f.notifier.sent)
	assert.Empty(t, f.audit.actions)
}

func TestSessionService_Create(t *testing.T) {
	tests := []struct {
		name     string
		req      dto.CreateSessionRequest
		wantErr  error
		wantType models.AttendanceType
	}{
		{
			name:     "defaults to code attendance",
			req:      dto.CreateSessionRequest{Week: 15, Date: "2025-12-15", Title: " Makeup "},
			wantType: models.AttendanceByCode,
		},
		{
			name:     "qr attendance",
			req:      dto.CreateSessionRequest{Week: 15, Date: "2025-12-15", Title: "Makeup", AttendanceType: models.AttendanceByQR},
			wantType: models.AttendanceByQR,
		},
		{
			name:    "bad date",
			req:     dto.CreateSessionRequest{Week: 15, Date: "15/12/2025", Title: "Makeup"},
			wantErr: apperrors.ErrValidationFailed,
		},
		{
			name:    "unknown type",
			req:     dto.CreateSessionRequest{Week: 15, Date: "2025-12-15", Title: "Makeup", AttendanceType: "smoke-signal"},
			wantErr: apperrors.ErrValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture()
			req := tt.req

			session, err := f.service.Create(context.Background(), instructorActor, 1, &req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, f.audit.actions)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(3), session.ID)
			assert.Equal(t, "Makeup", session.Title)
			assert.Equal(t, tt.wantType, session.AttendanceType)
			assert.Equal(t, "7777", *session.AuthCode)
			assert.False(t, session.IsOpen)
			assert.Equal(t, []string{ActionSessionCreate}, f.audit.actions)
		})
	}
}

func TestSessionService_Codes(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	session, err := f.service.RegenerateCode(ctx, instructorActor, 1)
	require.NoError(t, err)
	assert.Equal(t, "7777", *session.AuthCode)

	png, err := f.service.QRCode(ctx, instructorActor, 1, 256)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	session, err = f.service.ClearCode(ctx, instructorActor, 1)
	require.NoError(t, err)
	assert.Nil(t, session.AuthCode)

	_, err = f.service.QRCode(ctx, instructorActor, 1, 256)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.service.RegenerateCode(ctx, studentActor, 1)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestSessionService_CloseExpired(t *testing.T) {
	f := newSessionFixture()
	expired := fixedNow.Add(-time.Second)
	later := fixedNow.Add(time.Minute)
	f.store.byID[1].IsOpen, f.store.byID[1].OpenUntil = true, &expired
	f.store.byID[2].IsOpen, f.store.byID[2].OpenUntil = true, &later

	n, err := f.service.CloseExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, f.store.byID[1].IsOpen)
	assert.True(t, f.store.byID[2].IsOpen)

	require.Len(t, f.rooms.events, 1)
	assert.False(t, f.rooms.events[0].data.(dto.SessionStatusEvent).IsOpen)

	n, err = f.service.CloseExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, []int{1, 0}, f.metrics.closed)
}

func TestSessionService_RunSweeperStopsWithContext(t *testing.T) {
	f := newSessionFixture()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.service.RunSweeper(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

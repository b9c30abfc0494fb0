package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authz "github.com/yigit/rollcall/internal/app/auth"
	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/middleware"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
	"github.com/yigit/rollcall/internal/pkg/export"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.RegisterValidators(); err != nil {
		panic(err)
	}
}

// asActor stands in for JWTAuth
func asActor(actor *authz.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		if actor != nil {
			c.Set(middleware.ContextUserID, actor.UserID)
			c.Set(middleware.ContextRoleType, actor.Role)
		}
		c.Next()
	}
}

func perform(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

var student = &authz.Actor{UserID: 11, Role: models.RoleStudent}

type fakeAttendance struct {
	AttendanceService
	err error
	got *dto.CheckInRequest
}

func (f *fakeAttendance) CheckIn(_ context.Context, _ authz.Actor, req *dto.CheckInRequest) (*dto.CheckInResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &dto.CheckInResponse{
		Mark:    &models.AttendanceMark{SessionID: req.SessionID, StudentID: 11},
		Session: &models.Session{ID: req.SessionID},
	}, nil
}

func TestCheckIn(t *testing.T) {
	tests := []struct {
		name       string
		actor      *authz.Actor
		body       map[string]any
		serviceErr error
		wantStatus int
		wantCode   dto.ErrorCode
	}{
		{name: "checked in", actor: student, body: map[string]any{"sessionId": 5, "code": "4821"}, wantStatus: http.StatusOK},
		{name: "no actor", actor: nil, body: map[string]any{"sessionId": 5}, wantStatus: http.StatusUnauthorized, wantCode: dto.ErrorCodeUnauthorized},
		{name: "missing session", actor: student, body: map[string]any{"code": "4821"}, wantStatus: http.StatusBadRequest},
		{name: "wrong code", actor: student, body: map[string]any{"sessionId": 5, "code": "0000"}, serviceErr: apperrors.ErrInvalidCheckInCode, wantStatus: http.StatusBadRequest, wantCode: dto.ErrorCodeInvalidCheckInCode},
		{name: "duplicate", actor: student, body: map[string]any{"sessionId": 5, "code": "4821"}, serviceErr: apperrors.ErrAlreadyCheckedIn, wantStatus: http.StatusConflict, wantCode: dto.ErrorCodeAlreadyCheckedIn},
		{name: "unexpected", actor: student, body: map[string]any{"sessionId": 5, "code": "4821"}, serviceErr: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: dto.ErrorCodeInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeAttendance{err: tt.serviceErr}
			controller := NewAttendanceController(svc, zerolog.Nop())
			router := gin.New()
			router.POST("/attendance/check-in", asActor(tt.actor), controller.CheckIn)

			rec := perform(router, http.MethodPost, "/attendance/check-in", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, rec).Error.Code)
			}
			if tt.wantStatus == http.StatusOK {
				require.NotNil(t, svc.got)
				assert.Equal(t, int64(5), svc.got.SessionID)
				assert.Equal(t, "4821", svc.got.Code)
			}
		})
	}
}

type fakeSessions struct {
	SessionService
	size int
}

func (f *fakeSessions) QRCode(_ context.Context, _ authz.Actor, id int64, size int) ([]byte, error) {
	if id == 404 {
		return nil, apperrors.ErrSessionNotFound
	}
	f.size = size
	return []byte("\x89PNG"), nil
}

func TestQRCode(t *testing.T) {
	instructor := &authz.Actor{UserID: 2, Role: models.RoleInstructor}
	svc := &fakeSessions{}
	controller := NewSessionController(svc)
	router := gin.New()
	router.GET("/sessions/:id/qr", asActor(instructor), controller.QRCode)

	rec := perform(router, http.MethodGet, "/sessions/9/qr?size=5000", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, maxQRSize, svc.size)

	rec = perform(router, http.MethodGet, "/sessions/404/qr", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = perform(router, http.MethodGet, "/sessions/abc/qr", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeExports struct{}

func (fakeExports) CourseWorkbook(_ context.Context, actor authz.Actor, courseID int64) ([]byte, string, error) {
	if actor.Role == models.RoleStudent {
		return nil, "", apperrors.ErrPermissionDenied
	}
	return []byte("xlsx"), "CENG101-attendance.xlsx", nil
}

func (fakeExports) StudentPDF(context.Context, authz.Actor, int64, int64) ([]byte, string, error) {
	return []byte("%PDF"), "CENG101-11.pdf", nil
}

func TestReportDownloads(t *testing.T) {
	instructor := &authz.Actor{UserID: 2, Role: models.RoleInstructor}
	controller := NewReportController(fakeExports{})

	router := gin.New()
	router.GET("/reports/courses/:id/attendance.xlsx", asActor(instructor), controller.CourseWorkbook)
	router.GET("/reports/courses/:id/students/:studentId/summary.pdf", asActor(student), controller.StudentPDF)

	rec := perform(router, http.MethodGet, "/reports/courses/1/attendance.xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentTypeXLSX, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="CENG101-attendance.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "xlsx", rec.Body.String())

	rec = perform(router, http.MethodGet, "/reports/courses/1/students/11/summary.pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentTypePDF, rec.Header().Get("Content-Type"))

	studentRouter := gin.New()
	studentRouter.GET("/reports/courses/:id/attendance.xlsx", asActor(student), controller.CourseWorkbook)
	rec = perform(studentRouter, http.MethodGet, "/reports/courses/1/attendance.xlsx", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

type fakeSettings struct {
	values map[string]string
	err    error
}

func (f *fakeSettings) List(context.Context) ([]*models.Setting, error) { return nil, nil }

func (f *fakeSettings) Update(_ context.Context, key, value string) error {
	if f.err != nil {
		return f.err
	}
	f.values[key] = value
	return nil
}

func (f *fakeSettings) UpdateMany(_ context.Context, values map[string]string) error {
	if f.err != nil {
		return f.err
	}
	for k, v := range values {
		f.values[k] = v
	}
	return nil
}

type auditEntry struct {
	actorID int64
	action  string
	details string
}

type fakeAudit struct {
	AuditService
	entries []auditEntry
}

func (f *fakeAudit) Record(_ context.Context, actorID int64, action, details string) {
	f.entries = append(f.entries, auditEntry{actorID, action, details})
}

func TestAdminSettingsAreAudited(t *testing.T) {
	admin := &authz.Actor{UserID: 1, Role: models.RoleAdmin}
	settings := &fakeSettings{values: map[string]string{}}
	audit := &fakeAudit{}
	controller := NewAdminController(settings, audit, nil, zerolog.Nop())

	router := gin.New()
	router.PUT("/admin/settings", asActor(admin), controller.UpdateSetting)
	router.PUT("/admin/settings/bulk", asActor(admin), controller.BulkUpdateSettings)

	rec := perform(router, http.MethodPut, "/admin/settings", map[string]string{"key": "SYSTEM_MAINTENANCE", "value": "true"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", settings.values["SYSTEM_MAINTENANCE"])

	rec = perform(router, http.MethodPut, "/admin/settings/bulk", map[string]any{
		"settings": map[string]string{"ABSENT_WARN_COUNT": "3", "ABSENT_DANGER_COUNT": "4"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, audit.entries, 2)
	assert.Equal(t, auditEntry{1, "settings.update", "SYSTEM_MAINTENANCE=true"}, audit.entries[0])
	assert.Equal(t, "ABSENT_DANGER_COUNT=4, ABSENT_WARN_COUNT=3", audit.entries[1].details)
}

func TestAdminSettings_RejectedValueIsNotAudited(t *testing.T) {
	admin := &authz.Actor{UserID: 1, Role: models.RoleAdmin}
	settings := &fakeSettings{values: map[string]string{}, err: apperrors.NewValidationError("unknown setting")}
	audit := &fakeAudit{}
	controller := NewAdminController(settings, audit, nil, zerolog.Nop())

	router := gin.New()
	router.PUT("/admin/settings", asActor(admin), controller.UpdateSetting)

	rec := perform(router, http.MethodPut, "/admin/settings", map[string]string{"key": "NOPE", "value": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, audit.entries)
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "up", wantStatus: http.StatusOK},
		{name: "down", err: errors.New("connection refused"), wantStatus: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/health", NewHealthController(fakePinger{tt.err}).Health)
			rec := perform(router, http.MethodGet, "/health", nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestLimitQuery(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{query: "", want: 50},
		{query: "limit=10", want: 10},
		{query: "limit=-3", want: 50},
		{query: "limit=abc", want: 50},
		{query: "limit=999", want: 200},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got int
			router := gin.New()
			router.GET("/n", func(c *gin.Context) { got = limitQuery(c, 50, 200) })
			perform(router, http.MethodGet, "/n?"+tt.query, nil)
			assert.Equal(t, tt.want, got)
		})
	}
}

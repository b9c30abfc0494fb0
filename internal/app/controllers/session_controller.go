package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	authz "github.com/yigit/rollcall/internal/app/auth"
	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/middleware"
)

const maxQRSize = 1024

// SessionService manages class sessions and their check-in windows
type SessionService interface {
	ListByCourse(ctx context.Context, actor authz.Actor, courseID int64) ([]*models.Session, error)
	Create(ctx context.Context, actor authz.Actor, courseID int64, req *dto.CreateSessionRequest) (*models.Session, error)
	Toggle(ctx context.Context, actor authz.Actor, id int64) (*models.Session, error)
	RegenerateCode(ctx context.Context, actor authz.Actor, id int64) (*models.Session, error)
	ClearCode(ctx context.Context, actor authz.Actor, id int64) (*models.Session, error)
	QRCode(ctx context.Context, actor authz.Actor, id int64, size int) ([]byte, error)
}

// SessionController handles session endpoints
type SessionController struct {
	sessionService SessionService
}

// NewSessionController creates a new SessionController
func NewSessionController(sessionService SessionService) *SessionController {
	return &SessionController{sessionService: sessionService}
}

// ListSessions lists a course's sessions ordered by week. Students never
// see check-in codes.
// @Summary List course sessions
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Session} "Sessions"
// @Failure 403 {object} dto.ErrorResponse "Not a member of this course"
// @Router /courses/{id}/sessions [get]
func (c *SessionController) ListSessions(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	courseID, ok := middleware.ParamID(ctx, "id")
	if !ok {
		return
	}

	sessions, err := c.sessionService.ListByCourse(ctx.Request.Context(), actor, courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(sessions, ""))
}

// CreateSession adds a single extra session to a course
// @Summary Create session
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param request body dto.CreateSessionRequest true "Session"
// @Success 201 {object} dto.APIResponse{data=models.Session} "Session created"
// @Failure 403 {object} dto.ErrorResponse "Not the course owner"
// @Router /courses/{id}/sessions [post]
func (c *SessionController) CreateSession(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	courseID, ok := middleware.ParamID(ctx, "id")
	if !ok {
		return
	}
	var req dto.CreateSessionRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	session, err := c.sessionService.Create(ctx.Request.Context(), actor, courseID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(session, "Session created"))
}

// ToggleSession opens or closes check-in for a session
// @Summary Toggle session
// @Description Opening starts the check-in window and notifies enrolled students; closing ends it
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} dto.APIResponse{data=models.Session} "Session toggled"
// @Failure 403 {object} dto.ErrorResponse "Not the course owner"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /sessions/{id}/toggle [patch]
func (c *SessionController) ToggleSession(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := middleware.ParamID(ctx, "id")
	if !ok {
		return
	}

	session, err := c.sessionService.Toggle(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	message := "Attendance closed"
	if session.IsOpen {
		message = "Attendance opened"
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(session, message))
}

// RegenerateCode issues a new 4-digit check-in code
// @Summary Regenerate check-in code
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} dto.APIResponse{data=models.Session} "Code regenerated"
// @Router /sessions/{id}/code [post]
func (c *SessionController) RegenerateCode(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := middleware.ParamID(ctx, "id")
	if !ok {
		return
	}

	session, err := c.sessionService.RegenerateCode(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(session, "Code regenerated"))
}

// ClearCode removes the check-in code
// @Summary Clear check-in code
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} dto.APIResponse{data=models.Session} "Code cleared"
// @Router /sessions/{id}/code [delete]
func (c *SessionController) ClearCode(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := middleware.ParamID(ctx, "id")
	if !ok {
		return
	}

	session, err := c.sessionService.ClearCode(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(session, "Code cleared"))
}

// QRCode renders the session's check-in link as a PNG
// @Summary Check-in QR code
// @Tags sessions
// @Produce png
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Param size query int false "Edge length in pixels" default(320)
// @Success 200 {file} binary "PNG image"
// @Failure 400 {object} dto.ErrorResponse "Session has no code"
// @Failure 403 {object} dto.ErrorResponse "Not the course owner"
// @Router /sessions/{id}/qr [get]
func (c *SessionController) QRCode(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := middleware.ParamID(ctx, "id")
	if !ok {
		return
	}
	size, _ := strconv.Atoi(ctx.Query("size"))
	if size > maxQRSize {
		size = maxQRSize
	}

	png, err := c.sessionService.QRCode(ctx.Request.Context(), actor, id, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Header("Cache-Control", "no-store")
	ctx.Data(http.StatusOK, "image/png", png)
}

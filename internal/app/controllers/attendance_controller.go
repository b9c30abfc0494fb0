package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	authz "github.com/yigit/rollcall/internal/app/auth"
	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/domain/attendance"
	"github.com/yigit/rollcall/internal/middleware"
)

// AttendanceService records and summarizes attendance marks
type AttendanceService interface {
	CheckIn(ctx context.Context, actor authz.Actor, req *dto.CheckInRequest) (*dto.CheckInResponse, error)
	SessionRoster(ctx context.Context, actor authz.Actor, sessionID int64) ([]*models.AttendanceRecord, error)
	StudentRecords(ctx context.Context, actor authz.Actor, studentID int64) ([]*models.AttendanceRecord, error)
	UpdateStatus(ctx context.Context, actor authz.Actor, markID int64, status attendance.Status) (*models.AttendanceMark, error)
	MySummary(ctx context.Context, actor authz.Actor, courseID int64) (*dto.MyAttendanceResponse, error)
	CourseStats(ctx context.Context, actor authz.Actor, courseID int64) (*dto.CourseAttendanceStats, error)
}

// AttendanceController handles check-in and attendance reporting
type AttendanceController struct {
	attendanceService AttendanceService
	logger            zerolog.Logger
}

// NewAttendanceController creates a new AttendanceController
func NewAttendanceController(attendanceService AttendanceService, logger zerolog.Logger) *AttendanceController {
	return &AttendanceController{
		attendanceService: attendanceService,
		logger:            logger,
	}
}

// CheckIn records the caller's attendance for an open session
// @Summary Check in
// @Description The session must be open and inside its window, the caller enrolled and the code correct for code sessions
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CheckInRequest true "Check-in"
// @Success 200 {object} dto.APIResponse{data=dto.CheckInResponse} "Checked in"
// @Failure 400 {object} dto.ErrorResponse "Wrong code"
// @Failure 403 {object} dto.ErrorResponse "Not enrolled or manual session"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 409 {object} dto.ErrorResponse "Closed session or already checked in"
// @Router /attendance/check-in [post]
func (c *AttendanceController) CheckIn(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	var req dto.CheckInRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.attendanceService.CheckIn(ctx.Request.Context(), actor, &req)
	if err != nil {
		c.logger.Debug().Err(err).Int64("userID", actor.UserID).Int64("sessionID", req.SessionID).Msg("Check-in rejected")
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, "Checked in"))
}

// SessionRoster lists every mark of a session
// @Summary Session roster
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} dto.APIResponse{data=[]models.AttendanceRecord} "Roster"
// @Failure 403 {object} dto.ErrorResponse "Not the course owner"
// @Router /attendance/sessions/{id} [get]
func (c *AttendanceController) SessionRoster(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := middleware.ParamID(ctx, "id")
	if !ok {
		return
	}

	records, err := c.attendanceService.SessionRoster(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(records, ""))
}

// StudentRecords lists a student's marks across courses
// @Summary Student attendance
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=[]models.AttendanceRecord} "Records"
// @Failure 403 {object} dto.ErrorResponse "Students may only read their own records"
// @Router /attendance/students/{id} [get]
func (c *AttendanceController) StudentRecords(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := middleware.ParamID(ctx, "id")
	if !ok {
		return
	}

	records, err := c.attendanceService.StudentRecords(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(records, ""))
}

// UpdateStatus overrides one mark
// @Summary Update attendance mark
// @Description Sets the status of a mark and notifies the student when the course risk level rises
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Mark ID"
// @Param request body dto.UpdateAttendanceRequest true "New status"
// @Success 200 {object} dto.APIResponse{data=models.AttendanceMark} "Mark updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid status"
// @Failure 403 {object} dto.ErrorResponse "Not the course owner"
// @Failure 404 {object} dto.ErrorResponse "Mark not found"
// @Router /attendance/{id} [patch]
func (c *AttendanceController) UpdateStatus(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := middleware.ParamID(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateAttendanceRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	mark, err := c.attendanceService.UpdateStatus(ctx.Request.Context(), actor, id, req.Status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(mark, "Attendance updated"))
}

// MySummary returns the caller's summary and records for a course
// @Summary My course attendance
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=dto.MyAttendanceResponse} "Summary"
// @Failure 403 {object} dto.ErrorResponse "Not enrolled"
// @Router /attendance/courses/{id}/me [get]
func (c *AttendanceController) MySummary(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	courseID, ok := middleware.ParamID(ctx, "id")
	if !ok {
		return
	}

	summary, err := c.attendanceService.MySummary(ctx.Request.Context(), actor, courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(summary, ""))
}

// CourseStats returns per-student summaries for a course
// @Summary Course attendance stats
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=dto.CourseAttendanceStats} "Stats"
// @Failure 403 {object} dto.ErrorResponse "Not the course owner"
// @Router /attendance/courses/{id}/stats [get]
func (c *AttendanceController) CourseStats(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	courseID, ok := middleware.ParamID(ctx, "id")
	if !ok {
		return
	}

	stats, err := c.attendanceService.CourseStats(ctx.Request.Context(), actor, courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(stats, ""))
}

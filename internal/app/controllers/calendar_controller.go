package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/middleware"
)

// CalendarService manages semesters and holidays
type CalendarService interface {
	ListSemesters(ctx context.Context) ([]*models.Semester, error)
	CreateSemester(ctx context.Context, req *dto.SemesterRequest) (*models.Semester, error)
	UpdateSemester(ctx context.Context, id int64, req *dto.SemesterRequest) (*models.Semester, error)
	DeleteSemester(ctx context.Context, id int64) error
	ListHolidays(ctx context.Context) ([]*models.Holiday, error)
	CreateHoliday(ctx context.Context, req *dto.HolidayRequest) (*models.Holiday, error)
	DeleteHoliday(ctx context.Context, id int64) error
}

// CalendarController exposes the academic calendar
type CalendarController struct {
	calendarService CalendarService
}

// NewCalendarController creates a new CalendarController
func NewCalendarController(calendarService CalendarService) *CalendarController {
	return &CalendarController{calendarService: calendarService}
}

// ListSemesters lists semesters
// @Summary List semesters
// @Tags calendar
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Semester} "Semesters"
// @Router /semesters [get]
func (c *CalendarController) ListSemesters(ctx *gin.Context) {
	semesters, err := c.calendarService.ListSemesters(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(semesters, ""))
}

// CreateSemester creates a semester. Marking it active deactivates the others.
// @Summary Create semester
// @Tags calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SemesterRequest true "Semester"
// @Success 201 {object} dto.APIResponse{data=models.Semester} "Semester created"
// @Failure 400 {object} dto.ErrorResponse "Invalid dates"
// @Router /semesters [post]
func (c *CalendarController) CreateSemester(ctx *gin.Context) {
	var req dto.SemesterRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	semester, err := c.calendarService.CreateSemester(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(semester, "Semester created"))
}

// UpdateSemester replaces a semester
// @Summary Update semester
// @Tags calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Semester ID"
// @Param request body dto.SemesterRequest true "Semester"
// @Success 200 {object} dto.APIResponse{data=models.Semester} "Semester updated"
// @Failure 404 {object} dto.ErrorResponse "Semester not found"
// @Router /semesters/{id} [put]
func (c *CalendarController) UpdateSemester(ctx *gin.Context) {
	id, ok := middleware.ParamID(ctx, "id")
	if !ok {
		return
	}
	var req dto.SemesterRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	semester, err := c.calendarService.UpdateSemester(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(semester, "Semester updated"))
}

// DeleteSemester deletes a semester
// @Summary Delete semester
// @Tags calendar
// @Produce json
// @Security BearerAuth
// @Param id path int true "Semester ID"
// @Success 200 {object} dto.APIResponse "Semester deleted"
// @Router /semesters/{id} [delete]
func (c *CalendarController) DeleteSemester(ctx *gin.Context) {
	id, ok := middleware.ParamID(ctx, "id")
	if !ok {
		return
	}
	if err := c.calendarService.DeleteSemester(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Semester deleted"))
}

// ListHolidays lists stored holidays
// @Summary List holidays
// @Tags calendar
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Holiday} "Holidays"
// @Router /holidays [get]
func (c *CalendarController) ListHolidays(ctx *gin.Context) {
	holidays, err := c.calendarService.ListHolidays(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(holidays, ""))
}

// CreateHoliday adds a holiday used by future schedule generation
// @Summary Create holiday
// @Tags calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.HolidayRequest true "Holiday"
// @Success 201 {object} dto.APIResponse{data=models.Holiday} "Holiday created"
// @Failure 409 {object} dto.ErrorResponse "Date already registered"
// @Router /holidays [post]
func (c *CalendarController) CreateHoliday(ctx *gin.Context) {
	var req dto.HolidayRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	holiday, err := c.calendarService.CreateHoliday(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(holiday, "Holiday created"))
}

// DeleteHoliday removes a holiday
// @Summary Delete holiday
// @Tags calendar
// @Produce json
// @Security BearerAuth
// @Param id path int true "Holiday ID"
// @Success 200 {object} dto.APIResponse "Holiday deleted"
// @Router /holidays/{id} [delete]
func (c *CalendarController) DeleteHoliday(ctx *gin.Context) {
	id, ok := middleware.ParamID(ctx, "id")
	if !ok {
		return
	}
	if err := c.calendarService.DeleteHoliday(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Holiday deleted"))
}

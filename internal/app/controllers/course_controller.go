package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	authz "github.com/yigit/rollcall/internal/app/auth"
	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/middleware"
	"github.com/yigit/rollcall/internal/pkg/helpers"
)

// CourseService manages courses and their generated schedules
type CourseService interface {
	Preview(ctx context.Context, req *dto.PreviewScheduleRequest) (*dto.SchedulePreview, error)
	Create(ctx context.Context, actor authz.Actor, req *dto.CreateCourseRequest) (*dto.CourseWithSessions, error)
	Get(ctx context.Context, actor authz.Actor, id int64) (*models.CourseDetails, error)
	List(ctx context.Context, actor authz.Actor, filter dto.CourseFilter) ([]*models.CourseDetails, dto.PaginationInfo, error)
	Update(ctx context.Context, actor authz.Actor, id int64, req *dto.UpdateCourseRequest) (*models.CourseDetails, error)
	Delete(ctx context.Context, actor authz.Actor, id int64) error
}

// CourseController handles course endpoints
type CourseController struct {
	courseService CourseService
}

// NewCourseController creates a new CourseController
func NewCourseController(courseService CourseService) *CourseController {
	return &CourseController{courseService: courseService}
}

// ListCourses lists the courses visible to the caller
// @Summary List courses
// @Description Admins see every course, instructors their own and students the courses they are enrolled in
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param departmentId query int false "Department filter"
// @Param semesterId query int false "Semester filter"
// @Param q query string false "Name or code search"
// @Param page query int false "Page number (1-based)" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.CourseDetails}} "Courses"
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	departmentID, ok := optionalIDQuery(ctx, "departmentId")
	if !ok {
		return
	}
	semesterID, ok := optionalIDQuery(ctx, "semesterId")
	if !ok {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	courses, pagination, err := c.courseService.List(ctx.Request.Context(), actor, dto.CourseFilter{
		DepartmentID: departmentID,
		SemesterID:   semesterID,
		Query:        strings.TrimSpace(ctx.Query("q")),
		Page:         page,
		Size:         size,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.PaginatedResponse{
		Items:      courses,
		Pagination: pagination,
	}, ""))
}

// GetCourse returns one course with instructor, department and semester names
// @Summary Get course
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=models.CourseDetails} "Course"
// @Failure 403 {object} dto.ErrorResponse "Not a member of this course"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := middleware.ParamID(ctx, "id")
	if !ok {
		return
	}

	course, err := c.courseService.Get(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(course, ""))
}

// CreateCourse creates a course and its generated sessions
// @Summary Create course
// @Description Creates the course and persists the generated weekly schedule, shifting holidays to makeup weeks. Admins must name the instructor.
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateCourseRequest true "Course"
// @Success 201 {object} dto.APIResponse{data=dto.CourseWithSessions} "Course created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 403 {object} dto.ErrorResponse "Students cannot create courses"
// @Router /courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	var req dto.CreateCourseRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	created, err := c.courseService.Create(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(created, "Course created"))
}

// PreviewSchedule returns the generated sessions without saving anything
// @Summary Preview schedule
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.PreviewScheduleRequest true "Schedule parameters"
// @Success 200 {object} dto.APIResponse{data=dto.SchedulePreview} "Preview"
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Router /courses/preview-schedule [post]
func (c *CourseController) PreviewSchedule(ctx *gin.Context) {
	var req dto.PreviewScheduleRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	preview, err := c.courseService.Preview(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(preview, ""))
}

// UpdateCourse patches course fields. The schedule is not regenerated.
// @Summary Update course
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param request body dto.UpdateCourseRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.CourseDetails} "Course updated"
// @Failure 403 {object} dto.ErrorResponse "Not the course owner"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /courses/{id} [patch]
func (c *CourseController) UpdateCourse(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := middleware.ParamID(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateCourseRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	course, err := c.courseService.Update(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(course, "Course updated"))
}

// DeleteCourse deletes a course with its sessions and marks
// @Summary Delete course
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse "Course deleted"
// @Failure 403 {object} dto.ErrorResponse "Not the course owner"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /courses/{id} [delete]
func (c *CourseController) DeleteCourse(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := middleware.ParamID(ctx, "id")
	if !ok {
		return
	}

	if err := c.courseService.Delete(ctx.Request.Context(), actor, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Course deleted"))
}

package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	authz "github.com/yigit/rollcall/internal/app/auth"
	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/middleware"
)

// EnrollmentService manages course rosters
type EnrollmentService interface {
	ListStudents(ctx context.Context, actor authz.Actor, courseID int64) ([]*models.EnrolledStudent, error)
	Candidates(ctx context.Context, actor authz.Actor, courseID int64) ([]*models.User, error)
	Enroll(ctx context.Context, actor authz.Actor, req *dto.EnrollRequest) (*models.User, error)
	Unenroll(ctx context.Context, actor authz.Actor, req *dto.UnenrollRequest) error
}

// EnrollmentController handles roster endpoints
type EnrollmentController struct {
	enrollmentService EnrollmentService
}

// NewEnrollmentController creates a new EnrollmentController
func NewEnrollmentController(enrollmentService EnrollmentService) *EnrollmentController {
	return &EnrollmentController{enrollmentService: enrollmentService}
}

// ListStudents lists the students enrolled in a course
// @Summary Course roster
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=[]models.EnrolledStudent} "Students"
// @Failure 403 {object} dto.ErrorResponse "Not the course owner"
// @Router /enrollments/courses/{id} [get]
func (c *EnrollmentController) ListStudents(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	courseID, ok := middleware.ParamID(ctx, "id")
	if !ok {
		return
	}

	students, err := c.enrollmentService.ListStudents(ctx.Request.Context(), actor, courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(students, ""))
}

// Candidates lists active students not yet enrolled in a course
// @Summary Enrollment candidates
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param courseId query int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=[]models.User} "Students"
// @Failure 400 {object} dto.ErrorResponse "Missing courseId"
// @Router /enrollments/candidates [get]
func (c *EnrollmentController) Candidates(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	courseID, ok := optionalIDQuery(ctx, "courseId")
	if !ok {
		return
	}
	if courseID == nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "courseId is required").WithField("courseId")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	students, err := c.enrollmentService.Candidates(ctx.Request.Context(), actor, *courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(students, ""))
}

// Enroll adds a student to a course by student number
// @Summary Enroll student
// @Description Enrolls the student and creates unmarked attendance for every existing session
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.EnrollRequest true "Enrollment"
// @Success 201 {object} dto.APIResponse{data=models.User} "Student enrolled"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Failure 409 {object} dto.ErrorResponse "Already enrolled"
// @Router /enrollments [post]
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	var req dto.EnrollRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	student, err := c.enrollmentService.Enroll(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(student, "Student enrolled"))
}

// Unenroll removes a student from a course. Existing marks are kept.
// @Summary Unenroll student
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UnenrollRequest true "Enrollment"
// @Success 200 {object} dto.APIResponse "Student unenrolled"
// @Failure 403 {object} dto.ErrorResponse "Not enrolled"
// @Router /enrollments [delete]
func (c *EnrollmentController) Unenroll(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	var req dto.UnenrollRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	if err := c.enrollmentService.Unenroll(ctx.Request.Context(), actor, &req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Student unenrolled"))
}

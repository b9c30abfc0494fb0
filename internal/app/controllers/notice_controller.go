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

// NoticeService manages course and global notices
type NoticeService interface {
	List(ctx context.Context, actor authz.Actor, courseID *int64) ([]*models.Notice, error)
	Create(ctx context.Context, actor authz.Actor, req *dto.CreateNoticeRequest) (*models.Notice, error)
	Delete(ctx context.Context, actor authz.Actor, id int64) error
}

// NoticeController handles notice endpoints
type NoticeController struct {
	noticeService NoticeService
}

// NewNoticeController creates a new NoticeController
func NewNoticeController(noticeService NoticeService) *NoticeController {
	return &NoticeController{noticeService: noticeService}
}

// List returns notices, optionally for one course
// @Summary List notices
// @Tags notices
// @Produce json
// @Security BearerAuth
// @Param courseId query int false "Course ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Notice} "Notices"
// @Failure 403 {object} dto.ErrorResponse "Not a member of this course"
// @Router /notices [get]
func (c *NoticeController) List(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	courseID, ok := optionalIDQuery(ctx, "courseId")
	if !ok {
		return
	}

	notices, err := c.noticeService.List(ctx.Request.Context(), actor, courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(notices, ""))
}

// Create posts a notice. Course notices reach enrolled students, global
// notices every student.
// @Summary Post notice
// @Tags notices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateNoticeRequest true "Notice"
// @Success 201 {object} dto.APIResponse{data=models.Notice} "Notice posted"
// @Failure 403 {object} dto.ErrorResponse "Not the course owner"
// @Router /notices [post]
func (c *NoticeController) Create(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	var req dto.CreateNoticeRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	notice, err := c.noticeService.Create(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(notice, "Notice posted"))
}

// Delete removes a notice
// @Summary Delete notice
// @Tags notices
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notice ID"
// @Success 200 {object} dto.APIResponse "Notice deleted"
// @Failure 403 {object} dto.ErrorResponse "Not the author"
// @Router /notices/{id} [delete]
func (c *NoticeController) Delete(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := middleware.ParamID(ctx, "id")
	if !ok {
		return
	}

	if err := c.noticeService.Delete(ctx.Request.Context(), actor, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Notice deleted"))
}

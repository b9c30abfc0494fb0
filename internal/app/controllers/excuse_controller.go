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

// ExcuseService handles absence excuse requests
type ExcuseService interface {
	Submit(ctx context.Context, actor authz.Actor, req *dto.CreateExcuseRequest) (*models.Excuse, error)
	Mine(ctx context.Context, actor authz.Actor) ([]*models.Excuse, error)
	List(ctx context.Context, actor authz.Actor, status *models.ExcuseStatus) ([]*models.Excuse, error)
	Decide(ctx context.Context, actor authz.Actor, id int64, req *dto.ReviewExcuseRequest) (*models.Excuse, error)
}

// ExcuseController handles excuse endpoints
type ExcuseController struct {
	excuseService ExcuseService
}

// NewExcuseController creates a new ExcuseController
func NewExcuseController(excuseService ExcuseService) *ExcuseController {
	return &ExcuseController{excuseService: excuseService}
}

// Submit files an excuse
// @Summary Submit excuse
// @Tags excuses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateExcuseRequest true "Excuse"
// @Success 201 {object} dto.APIResponse{data=models.Excuse} "Excuse submitted"
// @Failure 400 {object} dto.ErrorResponse "Attachment required or session outside course"
// @Failure 403 {object} dto.ErrorResponse "Not enrolled"
// @Router /excuses [post]
func (c *ExcuseController) Submit(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	var req dto.CreateExcuseRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	excuse, err := c.excuseService.Submit(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(excuse, "Excuse submitted"))
}

// Mine lists the caller's excuses
// @Summary My excuses
// @Tags excuses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Excuse} "Excuses"
// @Router /excuses/me [get]
func (c *ExcuseController) Mine(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	excuses, err := c.excuseService.Mine(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(excuses, ""))
}

// List lists excuses for review. Instructors see their own courses only.
// @Summary List excuses
// @Tags excuses
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter" Enums(pending, approved, rejected)
// @Success 200 {object} dto.APIResponse{data=[]models.Excuse} "Excuses"
// @Failure 400 {object} dto.ErrorResponse "Invalid status"
// @Router /excuses [get]
func (c *ExcuseController) List(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	var status *models.ExcuseStatus
	if raw := ctx.Query("status"); raw != "" {
		s := models.ExcuseStatus(raw)
		if !s.Valid() {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid status").WithField("status")
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}
		status = &s
	}

	excuses, err := c.excuseService.List(ctx.Request.Context(), actor, status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(excuses, ""))
}

// Decide approves or rejects a pending excuse
// @Summary Review excuse
// @Description Approving a session-bound excuse marks that session as excused
// @Tags excuses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Excuse ID"
// @Param request body dto.ReviewExcuseRequest true "Decision"
// @Success 200 {object} dto.APIResponse{data=models.Excuse} "Excuse reviewed"
// @Failure 403 {object} dto.ErrorResponse "Not the course owner"
// @Failure 409 {object} dto.ErrorResponse "Already decided"
// @Router /excuses/{id} [patch]
func (c *ExcuseController) Decide(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := middleware.ParamID(ctx, "id")
	if !ok {
		return
	}
	var req dto.ReviewExcuseRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	excuse, err := c.excuseService.Decide(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(excuse, "Excuse "+string(excuse.Status)))
}

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

// VoteService runs off-class votes
type VoteService interface {
	List(ctx context.Context, actor authz.Actor, courseID int64) ([]*models.OffVote, error)
	Create(ctx context.Context, actor authz.Actor, courseID int64, req *dto.CreateVoteRequest) (*models.OffVote, error)
	Cast(ctx context.Context, actor authz.Actor, voteID, optionID int64) (*dto.VoteResult, error)
	Close(ctx context.Context, actor authz.Actor, voteID int64) error
	Result(ctx context.Context, actor authz.Actor, voteID int64) (*dto.VoteResult, error)
}

// VoteController handles off-class vote endpoints
type VoteController struct {
	voteService VoteService
}

// NewVoteController creates a new VoteController
func NewVoteController(voteService VoteService) *VoteController {
	return &VoteController{voteService: voteService}
}

// ListVotes lists a course's votes
// @Summary List votes
// @Tags votes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=[]models.OffVote} "Votes"
// @Failure 403 {object} dto.ErrorResponse "Votes disabled or not a member"
// @Router /courses/{id}/votes [get]
func (c *VoteController) ListVotes(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	courseID, ok := middleware.ParamID(ctx, "id")
	if !ok {
		return
	}

	votes, err := c.voteService.List(ctx.Request.Context(), actor, courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(votes, ""))
}

// CreateVote opens a vote and notifies enrolled students
// @Summary Create vote
// @Tags votes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param request body dto.CreateVoteRequest true "Vote"
// @Success 201 {object} dto.APIResponse{data=models.OffVote} "Vote created"
// @Failure 403 {object} dto.ErrorResponse "Votes disabled or not the course owner"
// @Router /courses/{id}/votes [post]
func (c *VoteController) CreateVote(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	courseID, ok := middleware.ParamID(ctx, "id")
	if !ok {
		return
	}
	var req dto.CreateVoteRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	vote, err := c.voteService.Create(ctx.Request.Context(), actor, courseID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(vote, "Vote created"))
}

// CastBallot records the caller's choice. Each user votes once.
// @Summary Cast ballot
// @Tags votes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Vote ID"
// @Param request body dto.BallotRequest true "Option"
// @Success 200 {object} dto.APIResponse{data=dto.VoteResult} "Ballot recorded"
// @Failure 400 {object} dto.ErrorResponse "Unknown option"
// @Failure 409 {object} dto.ErrorResponse "Vote closed or already voted"
// @Router /votes/{id}/ballot [post]
func (c *VoteController) CastBallot(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	voteID, ok := middleware.ParamID(ctx, "id")
	if !ok {
		return
	}
	var req dto.BallotRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	result, err := c.voteService.Cast(ctx.Request.Context(), actor, voteID, req.OptionID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result, "Ballot recorded"))
}

// CloseVote stops accepting ballots
// @Summary Close vote
// @Tags votes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Vote ID"
// @Success 200 {object} dto.APIResponse "Vote closed"
// @Failure 403 {object} dto.ErrorResponse "Not the course owner"
// @Router /votes/{id}/close [patch]
func (c *VoteController) CloseVote(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	voteID, ok := middleware.ParamID(ctx, "id")
	if !ok {
		return
	}

	if err := c.voteService.Close(ctx.Request.Context(), actor, voteID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Vote closed"))
}

// Result returns per-option counts
// @Summary Vote result
// @Tags votes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Vote ID"
// @Success 200 {object} dto.APIResponse{data=dto.VoteResult} "Result"
// @Router /votes/{id}/result [get]
func (c *VoteController) Result(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	voteID, ok := middleware.ParamID(ctx, "id")
	if !ok {
		return
	}

	result, err := c.voteService.Result(ctx.Request.Context(), actor, voteID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result, ""))
}

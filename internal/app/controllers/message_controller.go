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

const (
	defaultConversationLimit = 100
	maxConversationLimit     = 500
)

// MessageService handles direct messages
type MessageService interface {
	Targets(ctx context.Context, actor authz.Actor) ([]dto.MessageTarget, error)
	Conversation(ctx context.Context, actor authz.Actor, otherID int64, limit int) ([]*models.Message, error)
	Send(ctx context.Context, actor authz.Actor, req *dto.SendMessageRequest) (*models.Message, error)
}

// MessageController handles direct message endpoints
type MessageController struct {
	messageService MessageService
}

// NewMessageController creates a new MessageController
func NewMessageController(messageService MessageService) *MessageController {
	return &MessageController{messageService: messageService}
}

// Targets lists the users the caller may message
// @Summary Message targets
// @Description Students reach the instructors of their courses, instructors their students and admins everyone
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.MessageTarget} "Targets"
// @Router /messages/targets [get]
func (c *MessageController) Targets(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	targets, err := c.messageService.Targets(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(targets, ""))
}

// Conversation returns the messages exchanged with another user and marks
// the received ones as read
// @Summary Conversation
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param userId path int true "Other user ID"
// @Param limit query int false "Maximum number of messages" default(100)
// @Success 200 {object} dto.APIResponse{data=[]models.Message} "Messages"
// @Router /messages/{userId} [get]
func (c *MessageController) Conversation(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	otherID, ok := middleware.ParamID(ctx, "userId")
	if !ok {
		return
	}

	limit := limitQuery(ctx, defaultConversationLimit, maxConversationLimit)
	messages, err := c.messageService.Conversation(ctx.Request.Context(), actor, otherID, limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(messages, ""))
}

// Send delivers a message and notifies the receiver
// @Summary Send message
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SendMessageRequest true "Message"
// @Success 201 {object} dto.APIResponse{data=models.Message} "Message sent"
// @Failure 403 {object} dto.ErrorResponse "Receiver is not a valid target"
// @Router /messages [post]
func (c *MessageController) Send(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	var req dto.SendMessageRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	message, err := c.messageService.Send(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(message, "Message sent"))
}

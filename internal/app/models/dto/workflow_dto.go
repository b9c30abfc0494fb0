package dto

import (
	"time"

	"github.com/yigit/rollcall/internal/app/models"
)

// CreateExcuseRequest is a student's excuse submission
type CreateExcuseRequest struct {
	Reason        string  `json:"reason" binding:"required,max=1000"`
	CourseID      *int64  `json:"courseId" binding:"omitempty,min=1"`
	SessionID     *int64  `json:"sessionId" binding:"omitempty,min=1"`
	AttachmentURL *string `json:"attachmentUrl" binding:"omitempty,url,max=500"`
}

// ReviewExcuseRequest approves or rejects an excuse
type ReviewExcuseRequest struct {
	Status  models.ExcuseStatus `json:"status" binding:"required,oneof=approved rejected"`
	Comment *string             `json:"comment" binding:"omitempty,max=500"`
}

// CreateVoteRequest opens an off-class vote for a course
type CreateVoteRequest struct {
	Title    string     `json:"title" binding:"required,max=200"`
	Options  []string   `json:"options" binding:"required,min=2,max=10,dive,required,max=100"`
	Deadline *time.Time `json:"deadline"`
}

// BallotRequest casts a vote
type BallotRequest struct {
	OptionID int64 `json:"optionId" binding:"required,min=1"`
}

// VoteResult is an OffVote with its per-option counts
type VoteResult struct {
	Vote       *models.OffVote `json:"vote"`
	TotalVotes int             `json:"totalVotes"`
	MyOptionID *int64          `json:"myOptionId,omitempty"`
}

// SendMessageRequest sends a direct message
type SendMessageRequest struct {
	ReceiverID int64  `json:"receiverId" binding:"required,min=1"`
	Content    string `json:"content" binding:"required,max=2000"`
}

// MessageTarget is a user the caller may write to
type MessageTarget struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	RoleType models.RoleType `json:"roleType"`
}

// CreateNoticeRequest posts a notice; without a course it goes to every student
type CreateNoticeRequest struct {
	Title    string `json:"title" binding:"required,max=200"`
	Content  string `json:"content" binding:"required"`
	CourseID *int64 `json:"courseId" binding:"omitempty,min=1"`
}

// UnreadCount is returned by the notification badge endpoint
type UnreadCount struct {
	Count int `json:"count"`
}

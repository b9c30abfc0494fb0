package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	authz "github.com/yigit/rollcall/internal/app/auth"
	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
)

// VoteStore persists off-class votes and their ballots
type VoteStore interface {
	Create(ctx context.Context, vote *models.OffVote, labels []string) error
	GetByID(ctx context.Context, id int64) (*models.OffVote, error)
	ListByCourse(ctx context.Context, courseID int64) ([]*models.OffVote, error)
	CastBallot(ctx context.Context, voteID, optionID, userID int64) error
	MyOption(ctx context.Context, voteID, userID int64) (*int64, error)
	Close(ctx context.Context, id int64) error
}

// VoteService runs the off-class votes of courses
type VoteService struct {
	votes    VoteStore
	students StudentIDLister
	access   CourseAccess
	flags    FeatureFlags
	notifier Notifier
	now      Clock
}

// NewVoteService creates a new VoteService
func NewVoteService(votes VoteStore, students StudentIDLister, access CourseAccess, flags FeatureFlags, notifier Notifier) *VoteService {
	return &VoteService{
		votes:    votes,
		students: students,
		access:   access,
		flags:    flags,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *VoteService) ensureEnabled(ctx context.Context) error {
	if !s.flags.Enabled(ctx, SettingOffVoteEnabled) {
		return fmt.Errorf("%w: off-class votes", apperrors.ErrFeatureDisabled)
	}
	return nil
}

// List returns the votes of a course
func (s *VoteService) List(ctx context.Context, actor authz.Actor, courseID int64) ([]*models.OffVote, error) {
	if err := s.ensureEnabled(ctx); err != nil {
		return nil, err
	}
	if err := s.access.EnsureCourseMember(ctx, actor, courseID); err != nil {
		return nil, err
	}
	return s.votes.ListByCourse(ctx, courseID)
}

// Create opens a vote for a course and tells its students
func (s *VoteService) Create(ctx context.Context, actor authz.Actor, courseID int64, req *dto.CreateVoteRequest) (*models.OffVote, error) {
	if err := s.ensureEnabled(ctx); err != nil {
		return nil, err
	}
	if err := s.access.EnsureCourseManager(ctx, actor, courseID); err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(req.Options))
	seen := make(map[string]bool, len(req.Options))
	for _, option := range req.Options {
		label := strings.TrimSpace(option)
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		labels = append(labels, label)
	}
	if len(labels) < 2 {
		return nil, apperrors.NewValidationError("a vote needs at least two distinct options")
	}
	if req.Deadline != nil && !req.Deadline.After(s.now()) {
		return nil, apperrors.NewValidationError("deadline must be in the future")
	}

	vote := &models.OffVote{
		CourseID:  courseID,
		CreatorID: actor.UserID,
		Title:     strings.TrimSpace(req.Title),
		Deadline:  req.Deadline,
	}
	if err := s.votes.Create(ctx, vote, labels); err != nil {
		return nil, err
	}

	studentIDs, err := s.students.ListStudentIDs(ctx, courseID)
	if err == nil {
		s.notifier.Notify(ctx, studentIDs, models.Notification{
			Type:  models.NotificationVoteCreated,
			Title: "New vote",
			Body:  vote.Title,
			Link:  strPtr(fmt.Sprintf("/votes/%d", vote.ID)),
		})
	}
	return vote, nil
}

// Cast records the actor's ballot. Each user votes once.
func (s *VoteService) Cast(ctx context.Context, actor authz.Actor, voteID, optionID int64) (*dto.VoteResult, error) {
	if err := s.ensureEnabled(ctx); err != nil {
		return nil, err
	}

	vote, err := s.votes.GetByID(ctx, voteID)
	if err != nil {
		return nil, err
	}
	if err := s.access.EnsureCourseMember(ctx, actor, vote.CourseID); err != nil {
		return nil, err
	}
	if !vote.AcceptingBallots(s.now()) {
		return nil, apperrors.ErrVoteClosed
	}

	if err := s.votes.CastBallot(ctx, voteID, optionID, actor.UserID); err != nil {
		return nil, err
	}
	return s.result(ctx, actor, voteID)
}

// Close stops a vote from taking further ballots
func (s *VoteService) Close(ctx context.Context, actor authz.Actor, voteID int64) error {
	if err := s.ensureEnabled(ctx); err != nil {
		return err
	}

	vote, err := s.votes.GetByID(ctx, voteID)
	if err != nil {
		return err
	}
	if err := s.access.EnsureCourseManager(ctx, actor, vote.CourseID); err != nil {
		return err
	}
	return s.votes.Close(ctx, voteID)
}

// Result returns the per-option counts of a vote and the caller's choice
func (s *VoteService) Result(ctx context.Context, actor authz.Actor, voteID int64) (*dto.VoteResult, error) {
	if err := s.ensureEnabled(ctx); err != nil {
		return nil, err
	}

	vote, err := s.votes.GetByID(ctx, voteID)
	if err != nil {
		return nil, err
	}
	if err := s.access.EnsureCourseMember(ctx, actor, vote.CourseID); err != nil {
		return nil, err
	}
	return s.result(ctx, actor, voteID)
}

func (s *VoteService) result(ctx context.Context, actor authz.Actor, voteID int64) (*dto.VoteResult, error) {
	vote, err := s.votes.GetByID(ctx, voteID)
	if err != nil {
		return nil, err
	}
	mine, err := s.votes.MyOption(ctx, voteID, actor.UserID)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, option := range vote.Options {
		total += option.Count
	}
	return &dto.VoteResult{Vote: vote, TotalVotes: total, MyOptionID: mine}, nil
}

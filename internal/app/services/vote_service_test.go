package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
)

type fakeVoteStore struct {
	votes   map[int64]*models.OffVote
	ballots map[int64]map[int64]int64 // vote -> user -> option
	nextID  int64
}

func newFakeVoteStore() *fakeVoteStore {
	return &fakeVoteStore{votes: map[int64]*models.OffVote{}, ballots: map[int64]map[int64]int64{}}
}

func (f *fakeVoteStore) Create(_ context.Context, vote *models.OffVote, labels []string) error {
	f.nextID++
	vote.ID = f.nextID
	vote.Options = make([]models.VoteOption, len(labels))
	for i, label := range labels {
		vote.Options[i] = models.VoteOption{ID: vote.ID*10 + int64(i+1), VoteID: vote.ID, Label: label}
	}
	cp := *vote
	cp.Options = append([]models.VoteOption(nil), vote.Options...)
	f.votes[vote.ID] = &cp
	f.ballots[vote.ID] = map[int64]int64{}
	return nil
}

func (f *fakeVoteStore) GetByID(_ context.Context, id int64) (*models.OffVote, error) {
	v, ok := f.votes[id]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("vote not found")
	}
	cp := *v
	cp.Options = append([]models.VoteOption(nil), v.Options...)
	for i := range cp.Options {
		cp.Options[i].Count = 0
		for _, optionID := range f.ballots[id] {
			if optionID == cp.Options[i].ID {
				cp.Options[i].Count++
			}
		}
	}
	return &cp, nil
}

func (f *fakeVoteStore) ListByCourse(_ context.Context, courseID int64) ([]*models.OffVote, error) {
	out := []*models.OffVote{}
	for _, v := range f.votes {
		if v.CourseID == courseID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeVoteStore) CastBallot(_ context.Context, voteID, optionID, userID int64) error {
	found := false
	for _, o := range f.votes[voteID].Options {
		found = found || o.ID == optionID
	}
	if !found {
		return apperrors.ErrInvalidVoteOption
	}
	if _, voted := f.ballots[voteID][userID]; voted {
		return apperrors.ErrAlreadyVoted
	}
	f.ballots[voteID][userID] = optionID
	return nil
}

func (f *fakeVoteStore) MyOption(_ context.Context, voteID, userID int64) (*int64, error) {
	optionID, ok := f.ballots[voteID][userID]
	if !ok {
		return nil, nil
	}
	return &optionID, nil
}

func (f *fakeVoteStore) Close(_ context.Context, id int64) error {
	f.votes[id].IsClosed = true
	return nil
}

type voteFixture struct {
	service  *VoteService
	store    *fakeVoteStore
	flags    fakeFlags
	notifier *fakeNotifier
}

func newVoteFixture() *voteFixture {
	access := newFakeAccess()
	access.addCourse(1, instructorActor.UserID, studentActor.UserID)

	f := &voteFixture{
		store:    newFakeVoteStore(),
		flags:    fakeFlags{SettingOffVoteEnabled: true},
		notifier: &fakeNotifier{},
	}
	f.service = NewVoteService(f.store, fakeStudentIDs{1: {studentActor.UserID}}, access.service(), f.flags, f.notifier)
	f.service.now = fixedClock
	return f
}

func TestVoteService_Create(t *testing.T) {
	tomorrow := fixedNow.Add(24 * time.Hour)
	yesterday := fixedNow.Add(-24 * time.Hour)

	tests := []struct {
		name        string
		req         dto.CreateVoteRequest
		wantErr     error
		wantOptions []string
	}{
		{
			name:        "distinct trimmed options",
			req:         dto.CreateVoteRequest{Title: "Skip week 9?", Options: []string{" Yes", "No ", "Yes"}, Deadline: &tomorrow},
			wantOptions: []string{"Yes", "No"},
		},
		{
			name:    "one distinct option",
			req:     dto.CreateVoteRequest{Title: "Skip?", Options: []string{"Yes", " Yes ", ""}},
			wantErr: apperrors.ErrValidationFailed,
		},
		{
			name:    "deadline in the past",
			req:     dto.CreateVoteRequest{Title: "Skip?", Options: []string{"Yes", "No"}, Deadline: &yesterday},
			wantErr: apperrors.ErrValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newVoteFixture()
			req := tt.req

			vote, err := f.service.Create(context.Background(), instructorActor, 1, &req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, f.notifier.sent)
				return
			}
			require.NoError(t, err)
			labels := make([]string, len(vote.Options))
			for i, o := range vote.Options {
				labels[i] = o.Label
			}
			assert.Equal(t, tt.wantOptions, labels)

			sent := f.notifier.ofType(models.NotificationVoteCreated)
			require.Len(t, sent, 1)
			assert.Equal(t, []int64{studentActor.UserID}, sent[0].userIDs)
		})
	}
}

func TestVoteService_CastAndResult(t *testing.T) {
	f := newVoteFixture()
	ctx := context.Background()

	vote, err := f.service.Create(ctx, instructorActor, 1, &dto.CreateVoteRequest{Title: "Skip week 9?", Options: []string{"Yes", "No"}})
	require.NoError(t, err)
	yes := vote.Options[0].ID

	result, err := f.service.Cast(ctx, studentActor, vote.ID, yes)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalVotes)
	require.NotNil(t, result.MyOptionID)
	assert.Equal(t, yes, *result.MyOptionID)
	assert.Equal(t, 1, result.Vote.Options[0].Count)

	_, err = f.service.Cast(ctx, studentActor, vote.ID, vote.Options[1].ID)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyVoted)

	_, err = f.service.Cast(ctx, instructorActor, vote.ID, 999)
	assert.ErrorIs(t, err, apperrors.ErrInvalidVoteOption)

	_, err = f.service.Cast(ctx, strangerStudent, vote.ID, yes)
	assert.ErrorIs(t, err, apperrors.ErrNotEnrolled)

	forInstructor, err := f.service.Result(ctx, instructorActor, vote.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, forInstructor.TotalVotes)
	assert.Nil(t, forInstructor.MyOptionID)
}

func TestVoteService_ClosedVotes(t *testing.T) {
	f := newVoteFixture()
	ctx := context.Background()
	soon := fixedNow.Add(time.Hour)

	vote, err := f.service.Create(ctx, instructorActor, 1, &dto.CreateVoteRequest{Title: "Skip?", Options: []string{"Yes", "No"}, Deadline: &soon})
	require.NoError(t, err)

	err = f.service.Close(ctx, studentActor, vote.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	// Past the deadline no ballot is taken even before the vote is closed.
	f.service.now = func() time.Time { return soon }
	_, err = f.service.Cast(ctx, studentActor, vote.ID, vote.Options[0].ID)
	assert.ErrorIs(t, err, apperrors.ErrVoteClosed)

	f.service.now = fixedClock
	require.NoError(t, f.service.Close(ctx, instructorActor, vote.ID))
	_, err = f.service.Cast(ctx, studentActor, vote.ID, vote.Options[0].ID)
	assert.ErrorIs(t, err, apperrors.ErrVoteClosed)
}

func TestVoteService_Disabled(t *testing.T) {
	f := newVoteFixture()
	f.flags[SettingOffVoteEnabled] = false
	ctx := context.Background()

	_, err := f.service.List(ctx, studentActor, 1)
	assert.ErrorIs(t, err, apperrors.ErrFeatureDisabled)

	_, err = f.service.Create(ctx, instructorActor, 1, &dto.CreateVoteRequest{Title: "Skip?", Options: []string{"Yes", "No"}})
	assert.ErrorIs(t, err, apperrors.ErrFeatureDisabled)

	_, err = f.service.Result(ctx, studentActor, 1)
	assert.ErrorIs(t, err, apperrors.ErrFeatureDisabled)
}

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/app/repositories"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
)

type fakeNoticeStore struct {
	byID       map[int64]*models.Notice
	lastFilter repositories.NoticeFilter
}

func (f *fakeNoticeStore) Create(_ context.Context, notice *models.Notice) error {
	notice.ID = int64(len(f.byID) + 1)
	f.byID[notice.ID] = notice
	return nil
}

func (f *fakeNoticeStore) GetByID(_ context.Context, id int64) (*models.Notice, error) {
	n, ok := f.byID[id]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("notice not found")
	}
	return n, nil
}

func (f *fakeNoticeStore) List(_ context.Context, filter repositories.NoticeFilter) ([]*models.Notice, error) {
	f.lastFilter = filter
	return []*models.Notice{}, nil
}

func (f *fakeNoticeStore) Delete(_ context.Context, id int64) error {
	delete(f.byID, id)
	return nil
}

func newNoticeFixture() (*NoticeService, *fakeNoticeStore, *fakeNotifier) {
	access := newFakeAccess()
	access.addCourse(1, instructorActor.UserID, studentActor.UserID)
	store := &fakeNoticeStore{byID: map[int64]*models.Notice{}}
	notifier := &fakeNotifier{}
	service := NewNoticeService(store, fakeStudentIDs{1: {studentActor.UserID}}, directoryUsers(), access.service(), notifier)
	return service, store, notifier
}

func TestNoticeService_Create(t *testing.T) {
	service, store, notifier := newNoticeFixture()
	ctx := context.Background()

	courseNotice, err := service.Create(ctx, instructorActor, &dto.CreateNoticeRequest{Title: " Quiz ", Content: "Quiz on Friday", CourseID: ptr(int64(1))})
	require.NoError(t, err)
	assert.Equal(t, "Quiz", courseNotice.Title)

	global, err := service.Create(ctx, instructorActor, &dto.CreateNoticeRequest{Title: "Campus closed", Content: "Snow day"})
	require.NoError(t, err)
	assert.Nil(t, global.CourseID)

	sent := notifier.ofType(models.NotificationNotice)
	require.Len(t, sent, 2)
	assert.Equal(t, []int64{studentActor.UserID}, sent[0].userIDs)
	assert.ElementsMatch(t, []int64{studentActor.UserID, strangerStudent.UserID}, sent[1].userIDs)

	_, err = service.Create(ctx, otherInstructor, &dto.CreateNoticeRequest{Title: "Hi", Content: "Hi", CourseID: ptr(int64(1))})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	_, err = service.Create(ctx, studentActor, &dto.CreateNoticeRequest{Title: "Hi", Content: "Hi"})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	assert.Len(t, store.byID, 2)
}

func TestNoticeService_ListScopesStudents(t *testing.T) {
	service, store, _ := newNoticeFixture()
	ctx := context.Background()

	_, err := service.List(ctx, studentActor, nil)
	require.NoError(t, err)
	assert.Equal(t, &studentActor.UserID, store.lastFilter.VisibleTo)

	_, err = service.List(ctx, adminActor, nil)
	require.NoError(t, err)
	assert.Nil(t, store.lastFilter.VisibleTo)

	_, err = service.List(ctx, strangerStudent, ptr(int64(1)))
	assert.ErrorIs(t, err, apperrors.ErrNotEnrolled)
}

func TestNoticeService_Delete(t *testing.T) {
	service, store, _ := newNoticeFixture()
	ctx := context.Background()

	notice, err := service.Create(ctx, instructorActor, &dto.CreateNoticeRequest{Title: "Quiz", Content: "Friday", CourseID: ptr(int64(1))})
	require.NoError(t, err)

	err = service.Delete(ctx, otherInstructor, notice.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	require.NoError(t, service.Delete(ctx, adminActor, notice.ID))
	assert.Empty(t, store.byID)
}

package services

import (
	"context"
	"sync"
	"time"

	authz "github.com/yigit/rollcall/internal/app/auth"
	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/domain/attendance"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
)

var (
	adminActor      = authz.Actor{UserID: 1, Role: models.RoleAdmin}
	instructorActor = authz.Actor{UserID: 10, Role: models.RoleInstructor}
	otherInstructor = authz.Actor{UserID: 11, Role: models.RoleInstructor}
	studentActor    = authz.Actor{UserID: 100, Role: models.RoleStudent}
	strangerStudent = authz.Actor{UserID: 101, Role: models.RoleStudent}
)

var fixedNow = time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// fakeAccess owns course ID -> instructor ID and course ID -> enrolled students
type fakeAccess struct {
	owners   map[int64]int64
	enrolled map[int64]map[int64]bool
}

func newFakeAccess() *fakeAccess {
	return &fakeAccess{owners: map[int64]int64{}, enrolled: map[int64]map[int64]bool{}}
}

func (f *fakeAccess) addCourse(courseID, instructorID int64, students ...int64) {
	f.owners[courseID] = instructorID
	f.enrolled[courseID] = map[int64]bool{}
	for _, id := range students {
		f.enrolled[courseID][id] = true
	}
}

func (f *fakeAccess) GetInstructorID(_ context.Context, courseID int64) (int64, error) {
	id, ok := f.owners[courseID]
	if !ok {
		return 0, apperrors.ErrCourseNotFound
	}
	return id, nil
}

func (f *fakeAccess) IsEnrolled(_ context.Context, courseID, studentID int64) (bool, error) {
	return f.enrolled[courseID][studentID], nil
}

func (f *fakeAccess) service() *authz.AuthorizationService {
	return authz.NewAuthorizationService(f, f)
}

type sentNotification struct {
	userIDs []int64
	n       models.Notification
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (f *fakeNotifier) Notify(_ context.Context, userIDs []int64, n models.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentNotification{userIDs: append([]int64(nil), userIDs...), n: n})
}

func (f *fakeNotifier) ofType(t models.NotificationType) []sentNotification {
	var out []sentNotification
	for _, s := range f.sent {
		if s.n.Type == t {
			out = append(out, s)
		}
	}
	return out
}

type fakeAudit struct {
	actions []string
}

func (f *fakeAudit) Record(_ context.Context, _ int64, action, _ string) {
	f.actions = append(f.actions, action)
}

type fakeFlags map[string]bool

func (f fakeFlags) Enabled(_ context.Context, key string) bool { return f[key] }

type fakePolicy struct{ policy attendance.Policy }

func (f fakePolicy) Policy(context.Context) attendance.Policy { return f.policy }

type broadcast struct {
	room  string
	event string
	data  interface{}
}

type fakeRooms struct {
	events []broadcast
}

func (f *fakeRooms) BroadcastToRoom(room, eventType string, data interface{}) {
	f.events = append(f.events, broadcast{room: room, event: eventType, data: data})
}

type fakeStudentIDs map[int64][]int64

func (f fakeStudentIDs) ListStudentIDs(_ context.Context, courseID int64) ([]int64, error) {
	return f[courseID], nil
}

type fakeUsers map[int64]*models.User

func (f fakeUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return u, nil
}

func (f fakeUsers) ListByRole(_ context.Context, role models.RoleType) ([]*models.User, error) {
	var out []*models.User
	for _, u := range f {
		if u.RoleType == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func ptr[T any](v T) *T { return &v }

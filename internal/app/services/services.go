// Package services holds the business logic of the API. Services depend on
// small interfaces so the repositories can be replaced by fakes in tests.
package services

import (
	"context"
	"time"

	authz "github.com/yigit/rollcall/internal/app/auth"
	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/domain/attendance"
)

// Audit actions
const (
	ActionLogin          = "auth.login"
	ActionRegister       = "auth.register"
	ActionCourseCreate   = "course.create"
	ActionCourseUpdate   = "course.update"
	ActionCourseDelete   = "course.delete"
	ActionSessionCreate  = "session.create"
	ActionSessionToggle  = "session.toggle"
	ActionCheckIn        = "attendance.check_in"
	ActionMarkUpdate     = "attendance.update"
	ActionEnroll         = "enrollment.add"
	ActionUnenroll       = "enrollment.remove"
	ActionExcuseDecide   = "excuse.decide"
	ActionUserCreate     = "user.create"
	ActionUserUpdate     = "user.update"
	ActionUserDelete     = "user.delete"
	ActionSettingsUpdate = "settings.update"
)

// FeatureFlags reports boolean system settings
type FeatureFlags interface {
	Enabled(ctx context.Context, key string) bool
}

// PolicySource provides the attendance thresholds in force
type PolicySource interface {
	Policy(ctx context.Context) attendance.Policy
}

// Notifier delivers in-app notifications. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, userIDs []int64, n models.Notification)
}

// AuditRecorder writes audit entries. Recording is best effort.
type AuditRecorder interface {
	Record(ctx context.Context, actorID int64, action, details string)
}

// CourseAccess performs course level authorization
type CourseAccess interface {
	EnsureCourseManager(ctx context.Context, actor authz.Actor, courseID int64) error
	EnsureCourseMember(ctx context.Context, actor authz.Actor, courseID int64) error
}

// RoomBroadcaster pushes realtime events to the clients following a room
type RoomBroadcaster interface {
	BroadcastToRoom(room, eventType string, data interface{})
}

// Clock returns the current time
type Clock func() time.Time

func strPtr(s string) *string { return &s }

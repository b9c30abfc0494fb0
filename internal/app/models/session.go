package models

import (
	"time"

	"github.com/yigit/rollcall/internal/domain/attendance"
	"github.com/yigit/rollcall/internal/domain/schedule"
)

// Session is one scheduled class meeting of a course.
type Session struct {
	ID             int64          `json:"id" db:"id"`
	CourseID       int64          `json:"courseId" db:"course_id"`
	Week           int            `json:"week" db:"week"`
	Date           time.Time      `json:"date" db:"session_date"`
	Title          string         `json:"title" db:"title"`
	Kind           schedule.Kind  `json:"kind" db:"kind"`
	OriginalWeek   *int           `json:"originalWeek,omitempty" db:"original_week"`
	IsOpen         bool           `json:"isOpen" db:"is_open"`
	AuthCode       *string        `json:"authCode,omitempty" db:"auth_code"`
	AttendanceType AttendanceType `json:"attendanceType" db:"attendance_type"`
	OpenUntil      *time.Time     `json:"openUntil,omitempty" db:"open_until"`
	StartedAt      *time.Time     `json:"startedAt,omitempty" db:"started_at"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
}

// AcceptingCheckIns reports whether students may check in at now.
func (s *Session) AcceptingCheckIns(now time.Time) bool {
	if !s.IsOpen {
		return false
	}
	return s.OpenUntil == nil || now.Before(*s.OpenUntil)
}

// ForSummary converts the session into the aggregator's view of it.
func (s *Session) ForSummary() attendance.Session {
	return attendance.Session{ID: s.ID, IsOpen: s.IsOpen, StartedAt: s.StartedAt}
}

// Holiday is a date on which no class is held
type Holiday struct {
	ID        int64     `json:"id" db:"id"`
	Date      time.Time `json:"date" db:"holiday_date"`
	Label     string    `json:"label" db:"label"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

package dto

import (
	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/domain/schedule"
)

// CreateCourseRequest creates a course and its generated session run
type CreateCourseRequest struct {
	Name           string                `json:"name" binding:"required,max=150"`
	Code           string                `json:"code" binding:"max=30"`
	InstructorID   *int64                `json:"instructorId" binding:"omitempty,min=1"` // Admin only
	DepartmentID   *int64                `json:"departmentId" binding:"omitempty,min=1"`
	SemesterID     *int64                `json:"semesterId" binding:"omitempty,min=1"`
	StartDate      string                `json:"startDate" binding:"required,date" example:"2025-09-01"`
	DayOfWeek      *int                  `json:"dayOfWeek" binding:"required,weekday" example:"1"`
	CourseLength   int                   `json:"courseLength" binding:"omitempty,min=1,max=52" example:"15"`
	AttendanceType models.AttendanceType `json:"attendanceType" binding:"omitempty,oneof=code qr manual"`
	StartTime      *string               `json:"startTime" binding:"omitempty,hhmm" example:"09:00"`
	EndTime        *string               `json:"endTime" binding:"omitempty,hhmm" example:"10:15"`
}

// PreviewScheduleRequest asks for the generated sessions without saving anything
type PreviewScheduleRequest struct {
	StartDate    string `json:"startDate" binding:"required,date"`
	DayOfWeek    *int   `json:"dayOfWeek" binding:"required,weekday"`
	CourseLength int    `json:"courseLength" binding:"omitempty,min=1,max=52"`
}

// UpdateCourseRequest changes course metadata. The session run is not regenerated.
type UpdateCourseRequest struct {
	Name           *string                `json:"name" binding:"omitempty,max=150"`
	Code           *string                `json:"code" binding:"omitempty,max=30"`
	InstructorID   *int64                 `json:"instructorId" binding:"omitempty,min=1"`
	DepartmentID   *int64                 `json:"departmentId" binding:"omitempty,min=1"`
	SemesterID     *int64                 `json:"semesterId" binding:"omitempty,min=1"`
	AttendanceType *models.AttendanceType `json:"attendanceType" binding:"omitempty,oneof=code qr manual"`
	StartTime      *string                `json:"startTime" binding:"omitempty,hhmm"`
	EndTime        *string                `json:"endTime" binding:"omitempty,hhmm"`
}

// CourseFilter narrows course listings
type CourseFilter struct {
	InstructorID *int64
	StudentID    *int64
	DepartmentID *int64
	SemesterID   *int64
	Query        string
	Page         int
	Size         int
}

// CourseWithSessions is returned after creating a course
type CourseWithSessions struct {
	Course   *models.CourseDetails `json:"course"`
	Sessions []*models.Session     `json:"sessions"`
}

// SchedulePreview lists generated drafts and the holidays they hit
type SchedulePreview struct {
	Sessions     []schedule.SessionDraft `json:"sessions"`
	RegularCount int                     `json:"regularCount"`
	HolidayCount int                     `json:"holidayCount"`
	MakeupCount  int                     `json:"makeupCount"`
}

// NewSchedulePreview counts drafts by kind
func NewSchedulePreview(drafts []schedule.SessionDraft) SchedulePreview {
	p := SchedulePreview{Sessions: drafts}
	for _, d := range drafts {
		switch d.Kind {
		case schedule.KindRegular:
			p.RegularCount++
		case schedule.KindHoliday:
			p.HolidayCount++
		case schedule.KindMakeup:
			p.MakeupCount++
		}
	}
	return p
}

// CreateSessionRequest adds one session outside the generated run
type CreateSessionRequest struct {
	Week           int                   `json:"week" binding:"required,min=1"`
	Date           string                `json:"date" binding:"required,date"`
	Title          string                `json:"title" binding:"required,max=200"`
	AttendanceType models.AttendanceType `json:"attendanceType" binding:"omitempty,oneof=code qr manual"`
}

// SessionStatusEvent is pushed to a course room when a session opens or closes
type SessionStatusEvent struct {
	SessionID int64  `json:"sessionId"`
	CourseID  int64  `json:"courseId"`
	Week      int    `json:"week"`
	IsOpen    bool   `json:"isOpen"`
	OpenUntil string `json:"openUntil,omitempty"`
}

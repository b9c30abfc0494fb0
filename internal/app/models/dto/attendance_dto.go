package dto

import (
	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/domain/attendance"
)

// CheckInRequest is sent by a student to record attendance
type CheckInRequest struct {
	SessionID int64             `json:"sessionId" binding:"required,min=1"`
	Code      string            `json:"code" binding:"omitempty,checkin_code" example:"4821"`
	Status    attendance.Status `json:"status" binding:"omitempty,oneof=present late"`
}

// UpdateAttendanceRequest lets staff override a mark
type UpdateAttendanceRequest struct {
	Status attendance.Status `json:"status" binding:"required,attendance_status"`
}

// CheckInResponse echoes the stored mark
type CheckInResponse struct {
	Mark    *models.AttendanceMark `json:"mark"`
	Session *models.Session        `json:"session"`
}

// StudentSummary pairs a student with their summary for one course
type StudentSummary struct {
	StudentID     int64              `json:"studentId"`
	StudentName   string             `json:"studentName"`
	StudentNumber *string            `json:"studentNumber,omitempty"`
	Summary       attendance.Summary `json:"summary"`
}

// CourseAttendanceStats is the per-course view for instructors
type CourseAttendanceStats struct {
	CourseID     int64            `json:"courseId"`
	CourseName   string           `json:"courseName"`
	SessionCount int              `json:"sessionCount"`
	Students     []StudentSummary `json:"students"`
	WarningCount int              `json:"warningCount"`
	DangerCount  int              `json:"dangerCount"`
}

// MyAttendanceResponse is a student's own view of one course
type MyAttendanceResponse struct {
	CourseID int64                      `json:"courseId"`
	Summary  attendance.Summary         `json:"summary"`
	Records  []*models.AttendanceRecord `json:"records"`
}

// EnrollRequest adds a student to a course by student number
type EnrollRequest struct {
	CourseID      int64  `json:"courseId" binding:"required,min=1"`
	StudentNumber string `json:"studentNumber" binding:"required,student_number"`
}

// UnenrollRequest removes a student from a course
type UnenrollRequest struct {
	CourseID  int64 `json:"courseId" binding:"required,min=1"`
	StudentID int64 `json:"studentId" binding:"required,min=1"`
}

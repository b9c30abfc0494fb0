package models

import (
	"time"

	"github.com/yigit/rollcall/internal/domain/attendance"
)

// AttendanceMark is one student's status for one session.
// A (session, student) pair has at most one mark.
type AttendanceMark struct {
	ID        int64             `json:"id" db:"id"`
	SessionID int64             `json:"sessionId" db:"session_id"`
	StudentID int64             `json:"studentId" db:"student_id"`
	Status    attendance.Status `json:"status" db:"status"`
	CheckedAt *time.Time        `json:"checkedAt,omitempty" db:"checked_at"`
	UpdatedAt time.Time         `json:"updatedAt" db:"updated_at"`
}

// ForSummary converts the mark into the aggregator's view of it.
func (m *AttendanceMark) ForSummary() attendance.Mark {
	return attendance.Mark{SessionID: m.SessionID, Status: m.Status, CheckedAt: m.CheckedAt}
}

// AttendanceRecord is a mark joined with its session and student, used by listings.
type AttendanceRecord struct {
	AttendanceMark
	CourseID      int64     `json:"courseId" db:"course_id"`
	CourseName    string    `json:"courseName" db:"course_name"`
	Week          int       `json:"week" db:"week"`
	SessionDate   time.Time `json:"sessionDate" db:"session_date"`
	SessionTitle  string    `json:"sessionTitle" db:"title"`
	StudentName   string    `json:"studentName" db:"student_name"`
	StudentNumber *string   `json:"studentNumber,omitempty" db:"student_number"`
}

package models

import "time"

// ExcuseStatus is the review state of an excuse request
type ExcuseStatus string

const (
	ExcusePending  ExcuseStatus = "pending"
	ExcuseApproved ExcuseStatus = "approved"
	ExcuseRejected ExcuseStatus = "rejected"
)

// Valid reports whether s is a known review state
func (s ExcuseStatus) Valid() bool {
	switch s {
	case ExcusePending, ExcuseApproved, ExcuseRejected:
		return true
	}
	return false
}

// Excuse is a student's request to have an absence excused
type Excuse struct {
	ID            int64        `json:"id" db:"id"`
	StudentID     int64        `json:"studentId" db:"student_id"`
	CourseID      *int64       `json:"courseId,omitempty" db:"course_id"`
	SessionID     *int64       `json:"sessionId,omitempty" db:"session_id"`
	Reason        string       `json:"reason" db:"reason"`
	AttachmentURL *string      `json:"attachmentUrl,omitempty" db:"attachment_url"`
	Status        ExcuseStatus `json:"status" db:"status"`
	ReviewerID    *int64       `json:"reviewerId,omitempty" db:"reviewer_id"`
	ReviewComment *string      `json:"reviewComment,omitempty" db:"review_comment"`
	ReviewedAt    *time.Time   `json:"reviewedAt,omitempty" db:"reviewed_at"`
	CreatedAt     time.Time    `json:"createdAt" db:"created_at"`

	StudentName string  `json:"studentName,omitempty" db:"student_name"`
	CourseName  *string `json:"courseName,omitempty" db:"course_name"`
}

package models

import "time"

// Course is a class taught by one instructor, owning a weekly run of sessions.
type Course struct {
	ID             int64          `json:"id" db:"id"`
	Name           string         `json:"name" db:"name"`
	Code           string         `json:"code" db:"code"`
	InstructorID   int64          `json:"instructorId" db:"instructor_id"`
	DepartmentID   *int64         `json:"departmentId,omitempty" db:"department_id"`
	SemesterID     *int64         `json:"semesterId,omitempty" db:"semester_id"`
	StartDate      time.Time      `json:"startDate" db:"start_date"`
	DayOfWeek      int            `json:"dayOfWeek" db:"day_of_week"`
	CourseLength   int            `json:"courseLength" db:"course_length"`
	AttendanceType AttendanceType `json:"attendanceType" db:"attendance_type"`
	StartTime      *string        `json:"startTime,omitempty" db:"start_time"` // HH:MM
	EndTime        *string        `json:"endTime,omitempty" db:"end_time"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time      `json:"updatedAt" db:"updated_at"`
}

// CourseDetails includes the names of related rows, as returned by list queries.
type CourseDetails struct {
	Course
	InstructorName string  `json:"instructorName" db:"instructor_name"`
	DepartmentName *string `json:"departmentName,omitempty" db:"department_name"`
	SemesterName   *string `json:"semesterName,omitempty" db:"semester_name"`
	SessionCount   int     `json:"sessionCount" db:"session_count"`
	StudentCount   int     `json:"studentCount" db:"student_count"`
}

// Enrollment links a student to a course
type Enrollment struct {
	CourseID  int64     `json:"courseId" db:"course_id"`
	StudentID int64     `json:"studentId" db:"student_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// EnrolledStudent is a student row as listed for a course roster
type EnrolledStudent struct {
	ID            int64     `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Email         string    `json:"email" db:"email"`
	StudentNumber *string   `json:"studentNumber,omitempty" db:"student_number"`
	EnrolledAt    time.Time `json:"enrolledAt" db:"enrolled_at"`
}

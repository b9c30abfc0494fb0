// Package export renders attendance reports as spreadsheets and PDFs.
package export

import (
	"time"

	"github.com/yigit/rollcall/internal/domain/attendance"
)

// Content types of the generated documents
const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

// SessionColumn describes one session of the report grid
type SessionColumn struct {
	ID      int64
	Week    int
	Date    time.Time
	Title   string
	Holiday bool
}

// StudentRow is one student line of a course report
type StudentRow struct {
	Name     string
	Number   string
	Summary  attendance.Summary
	Statuses map[int64]attendance.Status // keyed by session ID
}

// CourseReport is the input of CourseWorkbook
type CourseReport struct {
	CourseName  string
	CourseCode  string
	Sessions    []SessionColumn
	Students    []StudentRow
	GeneratedAt time.Time
}

// SessionLine is one row of the session table in a student report
type SessionLine struct {
	Week   int
	Date   time.Time
	Title  string
	Status attendance.Status
}

// StudentReport is the input of StudentSummaryPDF
type StudentReport struct {
	CourseName    string
	StudentName   string
	StudentNumber string
	Summary       attendance.Summary
	Sessions      []SessionLine
	GeneratedAt   time.Time
}

// statusLetter is the one-letter grid code of a status
func statusLetter(s attendance.Status) string {
	switch s {
	case attendance.StatusPresent:
		return "P"
	case attendance.StatusLate:
		return "L"
	case attendance.StatusAbsent:
		return "A"
	case attendance.StatusExcused:
		return "E"
	}
	return "-"
}

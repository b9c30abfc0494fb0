// Package schedule builds the weekly session plan of a course.
package schedule

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/yigit/rollcall/internal/pkg/apperrors"
)

// DefaultCourseLength is the number of regular weeks in a course.
const DefaultCourseLength = 15

var (
	ErrInvalidWeekday      = fmt.Errorf("%w: weekday must be between 0 (Sunday) and 6 (Saturday)", apperrors.ErrValidationFailed)
	ErrInvalidCourseLength = fmt.Errorf("%w: course length must be positive", apperrors.ErrValidationFailed)
	ErrMissingStartDate    = fmt.Errorf("%w: start date is required", apperrors.ErrValidationFailed)
)

// Kind tells regular class meetings apart from holiday closures and makeups.
type Kind string

const (
	KindRegular Kind = "regular"
	KindHoliday Kind = "holiday"
	KindMakeup  Kind = "makeup"
)

// SessionDraft is a session that has not been persisted yet.
type SessionDraft struct {
	Week         int       `json:"week"`
	Date         time.Time `json:"date"`
	Title        string    `json:"title"`
	IsOpen       bool      `json:"isOpen"`
	AuthCode     string    `json:"authCode,omitempty"`
	Kind         Kind      `json:"kind"`
	OriginalWeek int       `json:"originalWeek,omitempty"`
	HolidayLabel string    `json:"holidayLabel,omitempty"`
}

// Request holds the inputs of a generation run.
type Request struct {
	StartDate    time.Time
	Weekday      int
	CourseLength int
	Holidays     Holidays
}

// CodeSource produces check-in codes.
type CodeSource func() string

// RandomCode returns a 4-digit numeric check-in code.
func RandomCode() string {
	return fmt.Sprintf("%04d", 1000+rand.IntN(9000))
}

// Generator turns a course calendar into session drafts.
type Generator struct {
	codes CodeSource
}

// NewGenerator creates a Generator. A nil source falls back to RandomCode.
func NewGenerator(codes CodeSource) *Generator {
	if codes == nil {
		codes = RandomCode
	}
	return &Generator{codes: codes}
}

type deferredWeek struct {
	originalWeek int
	label        string
}

// Generate walks the calendar week by week from the first req.Weekday on or
// after req.StartDate. Dates found in req.Holidays become closed sessions
// without a code and are queued; each queued holiday is replayed, in
// encounter order, as a makeup week after the regular run.
func (g *Generator) Generate(req Request) ([]SessionDraft, error) {
	if req.Weekday < 0 || req.Weekday > 6 {
		return nil, ErrInvalidWeekday
	}
	if req.CourseLength <= 0 {
		return nil, ErrInvalidCourseLength
	}
	if req.StartDate.IsZero() {
		return nil, ErrMissingStartDate
	}

	current := FirstOnOrAfter(TruncateDate(req.StartDate), time.Weekday(req.Weekday))
	drafts := make([]SessionDraft, 0, req.CourseLength+len(req.Holidays))
	var queue []deferredWeek

	regularWeek := 1
	for regularWeek <= req.CourseLength {
		if label, ok := req.Holidays.Lookup(current); ok {
			drafts = append(drafts, SessionDraft{
				Week:         regularWeek,
				Date:         current,
				Title:        fmt.Sprintf("%s (no class)", label),
				Kind:         KindHoliday,
				HolidayLabel: label,
			})
			queue = append(queue, deferredWeek{originalWeek: regularWeek, label: label})
		} else {
			drafts = append(drafts, SessionDraft{
				Week:     regularWeek,
				Date:     current,
				Title:    fmt.Sprintf("Week %d class", regularWeek),
				AuthCode: g.codes(),
				Kind:     KindRegular,
			})
			regularWeek++
		}
		current = current.AddDate(0, 0, 7)
	}

	for i, d := range queue {
		drafts = append(drafts, SessionDraft{
			Week:         req.CourseLength + i + 1,
			Date:         current,
			Title:        fmt.Sprintf("Week %d makeup (%s)", d.originalWeek, d.label),
			AuthCode:     g.codes(),
			Kind:         KindMakeup,
			OriginalWeek: d.originalWeek,
			HolidayLabel: d.label,
		})
		current = current.AddDate(0, 0, 7)
	}

	return drafts, nil
}

// Generate runs a Generator backed by RandomCode.
func Generate(req Request) ([]SessionDraft, error) {
	return NewGenerator(nil).Generate(req)
}

// FirstOnOrAfter returns the first date on or after d that falls on weekday.
func FirstOnOrAfter(d time.Time, weekday time.Weekday) time.Time {
	shift := (int(weekday) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, shift)
}

// IsValidationError reports whether err came from request validation.
func IsValidationError(err error) bool {
	return errors.Is(err, apperrors.ErrValidationFailed)
}

package schedule

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func sequentialCodes() CodeSource {
	n := 1000
	return func() string {
		n++
		return fmt.Sprintf("%04d", n)
	}
}

func TestGenerate_NoHolidays(t *testing.T) {
	g := NewGenerator(sequentialCodes())

	// 2025-09-01 is a Monday.
	drafts, err := g.Generate(Request{
		StartDate:    date(t, "2025-09-01"),
		Weekday:      1,
		CourseLength: 15,
	})
	require.NoError(t, err)
	require.Len(t, drafts, 15)

	for i, d := range drafts {
		assert.Equal(t, i+1, d.Week)
		assert.Equal(t, KindRegular, d.Kind)
		assert.False(t, d.IsOpen)
		assert.Len(t, d.AuthCode, 4)
		assert.Equal(t, fmt.Sprintf("Week %d class", i+1), d.Title)
		if i > 0 {
			assert.Equal(t, 7*24*time.Hour, d.Date.Sub(drafts[i-1].Date))
		}
	}
}

func TestGenerate_WeekdayShift(t *testing.T) {
	tests := []struct {
		name      string
		start     string
		weekday   int
		wantFirst string
	}{
		{name: "already on target weekday", start: "2025-09-01", weekday: 1, wantFirst: "2025-09-01"},
		{name: "one day before target", start: "2025-08-31", weekday: 1, wantFirst: "2025-09-01"},
		{name: "one day after target wraps a week", start: "2025-09-02", weekday: 1, wantFirst: "2025-09-08"},
		{name: "sunday target from saturday", start: "2025-09-06", weekday: 0, wantFirst: "2025-09-07"},
		{name: "saturday target from sunday", start: "2025-09-07", weekday: 6, wantFirst: "2025-09-13"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drafts, err := Generate(Request{
				StartDate:    date(t, tt.start),
				Weekday:      tt.weekday,
				CourseLength: 3,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantFirst, drafts[0].Date.Format(DateLayout))
			assert.Equal(t, time.Weekday(tt.weekday), drafts[0].Date.Weekday())
		})
	}
}

func TestGenerate_HolidaysBecomeMakeups(t *testing.T) {
	// Fridays from 2025-09-05: week 5 first lands on 2025-10-03, week 6 on 2025-10-17.
	holidays := Holidays{
		"2025-10-03": "Foundation Day",
		"2025-10-17": "Campus Festival",
		"2026-06-05": "Outside the run",
	}

	drafts, err := NewGenerator(sequentialCodes()).Generate(Request{
		StartDate:    date(t, "2025-09-01"),
		Weekday:      5,
		CourseLength: 15,
		Holidays:     holidays,
	})
	require.NoError(t, err)

	var regular, closures, makeups []SessionDraft
	for _, d := range drafts {
		switch d.Kind {
		case KindRegular:
			regular = append(regular, d)
		case KindHoliday:
			closures = append(closures, d)
		case KindMakeup:
			makeups = append(makeups, d)
		}
	}

	require.Len(t, regular, 15)
	for i, d := range regular {
		assert.Equal(t, i+1, d.Week)
	}

	require.Len(t, closures, 2)
	assert.Equal(t, 5, closures[0].Week)
	assert.Equal(t, "2025-10-03", closures[0].Date.Format(DateLayout))
	assert.Empty(t, closures[0].AuthCode)
	assert.Contains(t, closures[0].Title, "Foundation Day")
	assert.Equal(t, 6, closures[1].Week)
	assert.Equal(t, "2025-10-17", closures[1].Date.Format(DateLayout))

	require.Len(t, makeups, 2)
	assert.Equal(t, 16, makeups[0].Week)
	assert.Equal(t, 5, makeups[0].OriginalWeek)
	assert.Equal(t, "Foundation Day", makeups[0].HolidayLabel)
	assert.Equal(t, 17, makeups[1].Week)
	assert.Equal(t, 6, makeups[1].OriginalWeek)
	assert.Equal(t, "Campus Festival", makeups[1].HolidayLabel)
	assert.NotEmpty(t, makeups[0].AuthCode)

	// Every slot stays on a weekly cadence, makeups included.
	for i := 1; i < len(drafts); i++ {
		assert.Equal(t, 7*24*time.Hour, drafts[i].Date.Sub(drafts[i-1].Date))
	}
	assert.Equal(t, makeups[1], drafts[len(drafts)-1])
}

func TestGenerate_ConsecutiveHolidays(t *testing.T) {
	holidays := Holidays{
		"2025-09-08": "First",
		"2025-09-15": "Second",
	}

	drafts, err := Generate(Request{
		StartDate:    date(t, "2025-09-01"),
		Weekday:      1,
		CourseLength: 3,
		Holidays:     holidays,
	})
	require.NoError(t, err)
	require.Len(t, drafts, 7)

	assert.Equal(t, []int{1, 2, 2, 2, 3, 4, 5}, weeks(drafts))
	assert.Equal(t, KindMakeup, drafts[5].Kind)
	assert.Equal(t, "First", drafts[5].HolidayLabel)
	assert.Equal(t, "Second", drafts[6].HolidayLabel)
}

func TestGenerate_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{name: "weekday below range", req: Request{StartDate: time.Now(), Weekday: -1, CourseLength: 15}, want: ErrInvalidWeekday},
		{name: "weekday above range", req: Request{StartDate: time.Now(), Weekday: 7, CourseLength: 15}, want: ErrInvalidWeekday},
		{name: "zero course length", req: Request{StartDate: time.Now(), Weekday: 1, CourseLength: 0}, want: ErrInvalidCourseLength},
		{name: "negative course length", req: Request{StartDate: time.Now(), Weekday: 1, CourseLength: -3}, want: ErrInvalidCourseLength},
		{name: "missing start date", req: Request{Weekday: 1, CourseLength: 15}, want: ErrMissingStartDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drafts, err := Generate(tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidationError(err))
			assert.Nil(t, drafts)
		})
	}
}

func TestRandomCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code := RandomCode()
		require.Len(t, code, 4)
		assert.GreaterOrEqual(t, code, "1000")
		assert.LessOrEqual(t, code, "9999")
	}
}

func TestHolidaysMerge(t *testing.T) {
	base := Holidays{"2025-10-03": "A", "2025-10-06": "B"}
	merged := base.Merge(Holidays{"2025-10-06": "C", "2025-12-25": "D"})

	assert.Equal(t, Holidays{"2025-10-03": "A", "2025-10-06": "C", "2025-12-25": "D"}, merged)
	assert.Equal(t, "B", base["2025-10-06"])

	var empty Holidays
	_, ok := empty.Lookup(time.Now())
	assert.False(t, ok)
}

func weeks(drafts []SessionDraft) []int {
	out := make([]int, len(drafts))
	for i, d := range drafts {
		out[i] = d.Week
	}
	return out
}

package schedule

import "time"

// DateLayout is the calendar date format used for holiday keys and API dates.
const DateLayout = "2006-01-02"

// Holidays maps a calendar date (DateLayout) to its label.
// A date missing from the map is a regular teaching day.
type Holidays map[string]string

// Lookup returns the holiday label for the calendar date of t.
func (h Holidays) Lookup(t time.Time) (string, bool) {
	if h == nil {
		return "", false
	}
	label, ok := h[t.Format(DateLayout)]
	return label, ok
}

// Merge returns a new map holding h overlaid with other. Labels in other win.
func (h Holidays) Merge(other Holidays) Holidays {
	merged := make(Holidays, len(h)+len(other))
	for date, label := range h {
		merged[date] = label
	}
	for date, label := range other {
		merged[date] = label
	}
	return merged
}

// DefaultHolidays is the built-in calendar shipped with the service.
// Entries stored in the holidays table are merged on top of it.
func DefaultHolidays() Holidays {
	return Holidays{
		"2025-10-03": "National Foundation Day",
		"2025-10-06": "Chuseok",
		"2025-10-07": "Chuseok",
		"2025-10-08": "Substitute Holiday",
		"2025-10-09": "Hangul Day",
	}
}

// ParseDate parses a DateLayout string into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// TruncateDate drops the clock part of t, keeping its calendar date in UTC.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Package attendance folds per-session marks into a student's attendance summary.
package attendance

import (
	"fmt"
	"strings"

	"github.com/yigit/rollcall/internal/pkg/apperrors"
)

// Status is the recorded outcome of one student for one session.
type Status string

const (
	StatusUnmarked Status = "unmarked"
	StatusPresent  Status = "present"
	StatusLate     Status = "late"
	StatusAbsent   Status = "absent"
	StatusExcused  Status = "excused"
)

// Statuses lists every valid status.
var Statuses = []Status{StatusUnmarked, StatusPresent, StatusLate, StatusAbsent, StatusExcused}

// ParseStatus converts a stored or submitted status into a Status.
// Legacy placeholders ("", "0", "pending", "none") read as unmarked, and the
// numeric codes 1 to 4 map to present, late, absent and excused.
func ParseStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "0", "pending", "none", "unmarked":
		return StatusUnmarked, nil
	case "1", "present":
		return StatusPresent, nil
	case "2", "late":
		return StatusLate, nil
	case "3", "absent":
		return StatusAbsent, nil
	case "4", "excused":
		return StatusExcused, nil
	}
	return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidAttendStatus, raw)
}

// Scan implements sql.Scanner, so stored values go through ParseStatus
// and legacy codes read back as the status they stand for.
func (s *Status) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*s = StatusUnmarked
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("%w: cannot scan %T", apperrors.ErrInvalidAttendStatus, src)
	}

	status, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = status
	return nil
}

// IsFinal reports whether the status counts as a recorded check-in.
func (s Status) IsFinal() bool {
	return s != StatusUnmarked
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

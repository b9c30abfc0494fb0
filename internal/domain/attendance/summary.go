package attendance

import (
	"math"
	"time"
)

// RiskLevel classifies how close a student is to failing on attendance.
type RiskLevel string

const (
	RiskOK      RiskLevel = "ok"
	RiskWarning RiskLevel = "warning"
	RiskDanger  RiskLevel = "danger"
)

func (r RiskLevel) rank() int {
	switch r {
	case RiskWarning:
		return 1
	case RiskDanger:
		return 2
	}
	return 0
}

// Escalated reports whether moving from before to after raised the risk level
// into warning or danger.
func Escalated(before, after RiskLevel) bool {
	return after.rank() > before.rank() && after != RiskOK
}

// Policy holds the thresholds used when folding marks into a summary.
type Policy struct {
	LatesPerAbsence int
	WarnAbsences    int
	DangerAbsences  int
	MinRate         int
}

// DefaultPolicy returns the thresholds the service ships with.
func DefaultPolicy() Policy {
	return Policy{
		LatesPerAbsence: 3,
		WarnAbsences:    2,
		DangerAbsences:  3,
		MinRate:         70,
	}
}

// Session is the part of a course session the aggregator looks at.
type Session struct {
	ID        int64
	IsOpen    bool
	StartedAt *time.Time
}

// held reports whether the session actually took place and is over.
func (s Session) held() bool {
	return !s.IsOpen && s.StartedAt != nil
}

// Mark is one student's status for one session.
type Mark struct {
	SessionID int64
	Status    Status
	CheckedAt *time.Time
}

// Summary is the attendance picture of one student in one course.
type Summary struct {
	TotalSessions  int       `json:"totalSessions"`
	Present        int       `json:"presentCount"`
	Late           int       `json:"lateCount"`
	RecordedAbsent int       `json:"recordedAbsentCount"`
	Excused        int       `json:"excusedCount"`
	NoMark         int       `json:"noMarkCount"`
	AutoAbsent     int       `json:"autoAbsentCount"`
	LateConversion int       `json:"lateConversion"`
	FinalAbsent    int       `json:"finalAbsentCount"`
	AttendanceRate int       `json:"attendanceRate"`
	Risk           RiskLevel `json:"riskLevel"`
}

// Summarize computes a student's summary over the course sessions.
// Marks referring to sessions outside the list are ignored, and an unmarked
// row counts the same as a missing one. When several marks exist for one
// session the most recently checked one is used.
func Summarize(sessions []Session, marks []Mark, policy Policy) Summary {
	effective := effectiveMarks(sessions, marks)

	s := Summary{TotalSessions: len(sessions)}
	for _, session := range sessions {
		status, ok := effective[session.ID]
		if !ok {
			status = StatusUnmarked
		}

		switch status {
		case StatusPresent:
			s.Present++
		case StatusLate:
			s.Late++
		case StatusAbsent:
			s.RecordedAbsent++
		case StatusExcused:
			s.Excused++
		default:
			s.NoMark++
			if session.held() {
				s.AutoAbsent++
			}
		}
	}

	if policy.LatesPerAbsence > 0 {
		s.LateConversion = s.Late / policy.LatesPerAbsence
	}
	s.FinalAbsent = s.RecordedAbsent + s.AutoAbsent + s.LateConversion

	if s.TotalSessions == 0 {
		s.AttendanceRate = 0
		s.Risk = RiskOK
		return s
	}

	rate := math.Round(float64(s.TotalSessions-s.FinalAbsent) / float64(s.TotalSessions) * 100)
	s.AttendanceRate = max(int(rate), 0)
	s.Risk = policy.classify(s.FinalAbsent, s.AttendanceRate)
	return s
}

func (p Policy) classify(finalAbsent, rate int) RiskLevel {
	switch {
	case finalAbsent >= p.DangerAbsences || rate < p.MinRate:
		return RiskDanger
	case finalAbsent >= p.WarnAbsences:
		return RiskWarning
	default:
		return RiskOK
	}
}

func effectiveMarks(sessions []Session, marks []Mark) map[int64]Status {
	inCourse := make(map[int64]struct{}, len(sessions))
	for _, s := range sessions {
		inCourse[s.ID] = struct{}{}
	}

	out := make(map[int64]Status, len(marks))
	checked := make(map[int64]time.Time, len(marks))
	for _, m := range marks {
		if _, ok := inCourse[m.SessionID]; !ok {
			continue
		}
		var at time.Time
		if m.CheckedAt != nil {
			at = *m.CheckedAt
		}
		if prev, seen := checked[m.SessionID]; seen && at.Before(prev) {
			continue
		}
		out[m.SessionID] = m.Status
		checked[m.SessionID] = at
	}
	return out
}

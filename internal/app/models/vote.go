package models

import "time"

// OffVote asks the students of a course whether, or when, to skip a class
type OffVote struct {
	ID        int64        `json:"id" db:"id"`
	CourseID  int64        `json:"courseId" db:"course_id"`
	CreatorID int64        `json:"creatorId" db:"creator_id"`
	Title     string       `json:"title" db:"title"`
	Deadline  *time.Time   `json:"deadline,omitempty" db:"deadline"`
	IsClosed  bool         `json:"isClosed" db:"is_closed"`
	CreatedAt time.Time    `json:"createdAt" db:"created_at"`
	Options   []VoteOption `json:"options" db:"-"`
}

// AcceptingBallots reports whether ballots may still be cast at now
func (v *OffVote) AcceptingBallots(now time.Time) bool {
	if v.IsClosed {
		return false
	}
	return v.Deadline == nil || now.Before(*v.Deadline)
}

// VoteOption is one selectable answer of an OffVote
type VoteOption struct {
	ID     int64  `json:"id" db:"id"`
	VoteID int64  `json:"voteId" db:"vote_id"`
	Label  string `json:"label" db:"label"`
	Count  int    `json:"count" db:"ballot_count"`
}

package entities

import "time"

type VoteState string

const (
	VoteStateRecorded VoteState = "recorded"
	VoteStateAnnulled VoteState = "annulled"
	VoteStateSelected VoteState = "selected_for_counting"
)

type AnnulmentReason string

const (
	ReasonInvalidatedPeriod AnnulmentReason = "invalidated_voting_period"
	ReasonSuperseded        AnnulmentReason = "superseded_by_later_vote"
)

// Vote is one stored ballot for a question. A voter may cast several votes for
// the same question during the voting window; only the latest valid one goes
// to counting.
type Vote struct {
	VoteID          string
	QuestionID      string
	VoterID         string
	CastAt          time.Time
	State           VoteState
	AnnulmentReason AnnulmentReason
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CastBefore orders votes by cast time, falling back to vote id so the
// latest-per-voter choice is deterministic when cast times collide.
func (v Vote) CastBefore(other Vote) bool {
	if v.CastAt.Equal(other.CastAt) {
		return v.VoteID < other.VoteID
	}
	return v.CastAt.Before(other.CastAt)
}

// Period is a named time window of the election schedule. The invalidated
// voting window bounds the annulment pass.
type Period struct {
	Kind  string
	Start time.Time
	End   time.Time
}

// Contains reports whether the instant falls inside the window, start
// inclusive, end exclusive.
func (p Period) Contains(at time.Time) bool {
	return !at.Before(p.Start) && at.Before(p.End)
}

const PeriodKindInvalidatedVoting = "invalidated_voting"

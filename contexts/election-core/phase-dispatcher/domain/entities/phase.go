package entities

// Phase is the global stage of the election process. The set is open: stages
// are owned and transitioned elsewhere in the system, and the dispatcher only
// recognizes the two processing windows below. Unknown values are ignored,
// never rejected.
type Phase string

const (
	PhaseBeforeVoting Phase = "before_voting"
	PhaseVoting       Phase = "voting"
	PhaseAnnulment    Phase = "annulment"
	PhaseCounting     Phase = "counting"
)

// Question is one ballot question within the election, enumerated by the
// question registry in registry order.
type Question struct {
	QuestionID string
	Title      string
}

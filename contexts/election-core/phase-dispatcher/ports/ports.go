package ports

import (
	"context"

	"ostrakon/contexts/election-core/phase-dispatcher/domain/entities"
)

// StateStore reads the process-wide election state. The dispatcher reads the
// phase exactly once per invocation and never writes it back.
type StateStore interface {
	GetCurrentPhase(ctx context.Context) (entities.Phase, error)
}

// QuestionRegistry enumerates every ballot question of the election.
type QuestionRegistry interface {
	GetQuestions(ctx context.Context) ([]entities.Question, error)
}

// QuestionProcessor is the per-question processing handle. The indent token is
// a formatting parameter of the processor's report output; the dispatcher
// threads it through without attaching meaning to it.
type QuestionProcessor interface {
	AnnulInvalidatedPeriodVotes(ctx context.Context, indent string) error
	SelectVotesForCounting(ctx context.Context, indent string) error
}

// ProcessorFactory constructs a fresh processing handle bound to one question.
// Handles are not shared or reused across questions.
type ProcessorFactory interface {
	ProcessorFor(question entities.Question) QuestionProcessor
}

package voteprocessing

import (
	"io"
	"log/slog"

	"ostrakon/contexts/election-core/vote-processing/adapters/memory"
	"ostrakon/contexts/election-core/vote-processing/application/commands"
	"ostrakon/contexts/election-core/vote-processing/domain/entities"
	"ostrakon/contexts/election-core/vote-processing/ports"
)

type Module struct {
	deps  Dependencies
	Store *memory.Store
}

type Dependencies struct {
	Votes         ports.VoteRepository
	Periods       ports.PeriodSource
	Outbox        ports.OutboxRepository
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	SourceService string
	CorrelationID string
	Report        io.Writer
	Logger        *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{deps: deps}
}

// ProcessorFor returns a fresh processing handle bound to one question.
func (m Module) ProcessorFor(questionID string) commands.QuestionProcessor {
	return commands.QuestionProcessor{
		QuestionID:    questionID,
		Votes:         m.deps.Votes,
		Periods:       m.deps.Periods,
		Outbox:        m.deps.Outbox,
		Clock:         m.deps.Clock,
		IDGen:         m.deps.IDGen,
		SourceService: m.deps.SourceService,
		CorrelationID: m.deps.CorrelationID,
		Report:        m.deps.Report,
		Logger:        m.deps.Logger,
	}
}

func NewInMemoryModule(seed []entities.Vote, report io.Writer, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Votes:         store,
		Periods:       store,
		Outbox:        store,
		Clock:         store,
		IDGen:         store,
		SourceService: "ostrakon",
		Report:        report,
		Logger:        logger,
	})
	module.Store = store
	return module
}

package phasedispatcher

import (
	"io"
	"log/slog"

	"ostrakon/contexts/election-core/phase-dispatcher/adapters/memory"
	"ostrakon/contexts/election-core/phase-dispatcher/application/commands"
	"ostrakon/contexts/election-core/phase-dispatcher/ports"
)

type Module struct {
	Dispatcher commands.DispatchUseCase
	Store      *memory.Store
}

type Dependencies struct {
	State       ports.StateStore
	Questions   ports.QuestionRegistry
	Processors  ports.ProcessorFactory
	Report      io.Writer
	IndentToken string
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		Dispatcher: commands.DispatchUseCase{
			State:       deps.State,
			Questions:   deps.Questions,
			Processors:  deps.Processors,
			Report:      deps.Report,
			IndentToken: deps.IndentToken,
			Logger:      deps.Logger,
		},
	}
}

func NewInMemoryModule(processors ports.ProcessorFactory, report io.Writer, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		State:      store,
		Questions:  store,
		Processors: processors,
		Report:     report,
		Logger:     logger,
	})
	module.Store = store
	return module
}

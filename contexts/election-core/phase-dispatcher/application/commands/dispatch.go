package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	application "ostrakon/contexts/election-core/phase-dispatcher/application"
	"ostrakon/contexts/election-core/phase-dispatcher/domain/entities"
	"ostrakon/contexts/election-core/phase-dispatcher/ports"
)

// DefaultIndentToken indents the per-vote report lines the processor emits
// under each question heading.
const DefaultIndentToken = "\t"

// DispatchUseCase runs one phase-step pass: read the election phase once,
// then drive every question through the single bulk operation that phase
// calls for. For a single pass exactly one of the two operations (or neither)
// runs, once per question, never both for the same question.
//
// Failures are not caught or retried here. If processing fails mid-iteration
// the earlier questions' side effects stand and the error surfaces to the
// process boundary unchanged.
type DispatchUseCase struct {
	State       ports.StateStore
	Questions   ports.QuestionRegistry
	Processors  ports.ProcessorFactory
	Report      io.Writer
	IndentToken string
	Logger      *slog.Logger
}

func (uc DispatchUseCase) Dispatch(ctx context.Context) error {
	logger := application.ResolveLogger(uc.Logger)

	phase, err := uc.State.GetCurrentPhase(ctx)
	if err != nil {
		return err
	}

	switch phase {
	case entities.PhaseAnnulment:
		return uc.forEachQuestion(ctx, phase, func(processor ports.QuestionProcessor) error {
			return processor.AnnulInvalidatedPeriodVotes(ctx, uc.indent())
		})
	case entities.PhaseCounting:
		return uc.forEachQuestion(ctx, phase, func(processor ports.QuestionProcessor) error {
			return processor.SelectVotesForCounting(ctx, uc.indent())
		})
	default:
		logger.Info("phase requires no processing",
			"event", "phase_dispatch_noop",
			"module", "election-core/phase-dispatcher",
			"layer", "application",
			"phase", string(phase),
		)
		return nil
	}
}

// forEachQuestion echoes each question to the report before its operation is
// invoked, establishing the audit trail of which questions this run touched.
func (uc DispatchUseCase) forEachQuestion(
	ctx context.Context,
	phase entities.Phase,
	invoke func(ports.QuestionProcessor) error,
) error {
	logger := application.ResolveLogger(uc.Logger)

	questions, err := uc.Questions.GetQuestions(ctx)
	if err != nil {
		return err
	}

	logger.Info("phase processing started",
		"event", "phase_dispatch_started",
		"module", "election-core/phase-dispatcher",
		"layer", "application",
		"phase", string(phase),
		"question_count", len(questions),
	)

	for _, question := range questions {
		if uc.Report != nil {
			fmt.Fprintln(uc.Report, question.QuestionID)
		}
		logger.Info("question processing started",
			"event", "phase_dispatch_question_started",
			"module", "election-core/phase-dispatcher",
			"layer", "application",
			"phase", string(phase),
			"question_id", question.QuestionID,
		)
		if err := invoke(uc.Processors.ProcessorFor(question)); err != nil {
			return err
		}
	}

	logger.Info("phase processing completed",
		"event", "phase_dispatch_completed",
		"module", "election-core/phase-dispatcher",
		"layer", "application",
		"phase", string(phase),
		"question_count", len(questions),
	)
	return nil
}

func (uc DispatchUseCase) indent() string {
	if uc.IndentToken == "" {
		return DefaultIndentToken
	}
	return uc.IndentToken
}

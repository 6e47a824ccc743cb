package commands

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"ostrakon/contexts/election-core/phase-dispatcher/adapters/memory"
	"ostrakon/contexts/election-core/phase-dispatcher/domain/entities"
	domainerrors "ostrakon/contexts/election-core/phase-dispatcher/domain/errors"
	"ostrakon/contexts/election-core/phase-dispatcher/ports"
)

var errProcessorBoom = errors.New("processor boom")

type recordingFactory struct {
	calls   *[]string
	indents *[]string
	failOn  string
}

func (f recordingFactory) ProcessorFor(question entities.Question) ports.QuestionProcessor {
	return recordingProcessor{
		questionID: question.QuestionID,
		calls:      f.calls,
		indents:    f.indents,
		failOn:     f.failOn,
	}
}

type recordingProcessor struct {
	questionID string
	calls      *[]string
	indents    *[]string
	failOn     string
}

func (p recordingProcessor) AnnulInvalidatedPeriodVotes(_ context.Context, indent string) error {
	return p.record("annul", indent)
}

func (p recordingProcessor) SelectVotesForCounting(_ context.Context, indent string) error {
	return p.record("select", indent)
}

func (p recordingProcessor) record(op string, indent string) error {
	*p.calls = append(*p.calls, op+":"+p.questionID)
	if p.indents != nil {
		*p.indents = append(*p.indents, indent)
	}
	if p.questionID == p.failOn {
		return errProcessorBoom
	}
	return nil
}

func newDispatcher(store *memory.Store, factory ports.ProcessorFactory, report *bytes.Buffer) DispatchUseCase {
	return DispatchUseCase{
		State:      store,
		Questions:  store,
		Processors: factory,
		Report:     report,
	}
}

func TestDispatchIgnoresUnrecognizedPhases(t *testing.T) {
	for _, phase := range []entities.Phase{
		entities.PhaseBeforeVoting,
		entities.PhaseVoting,
		entities.Phase("tabulation"),
	} {
		var calls []string
		store := memory.NewStore()
		store.SetPhase(phase)
		store.SetQuestions([]entities.Question{{QuestionID: "Q1"}})

		report := &bytes.Buffer{}
		uc := newDispatcher(store, recordingFactory{calls: &calls}, report)
		if err := uc.Dispatch(context.Background()); err != nil {
			t.Fatalf("dispatch for phase %q failed: %v", phase, err)
		}
		if len(calls) != 0 {
			t.Fatalf("phase %q invoked operations: %v", phase, calls)
		}
		if report.Len() != 0 {
			t.Fatalf("phase %q wrote report output: %q", phase, report.String())
		}
	}
}

func TestDispatchAnnulmentInvokesAnnulOncePerQuestion(t *testing.T) {
	var calls []string
	var indents []string
	store := memory.NewStore()
	store.SetPhase(entities.PhaseAnnulment)
	store.SetQuestions([]entities.Question{
		{QuestionID: "Q1"},
		{QuestionID: "Q2"},
		{QuestionID: "Q3"},
	})

	report := &bytes.Buffer{}
	uc := newDispatcher(store, recordingFactory{calls: &calls, indents: &indents}, report)
	if err := uc.Dispatch(context.Background()); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	want := []string{"annul:Q1", "annul:Q2", "annul:Q3"}
	if len(calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, calls)
	}
	for i, call := range want {
		if calls[i] != call {
			t.Fatalf("expected calls %v, got %v", want, calls)
		}
	}
	for _, indent := range indents {
		if indent != DefaultIndentToken {
			t.Fatalf("expected indent %q, got %q", DefaultIndentToken, indent)
		}
	}
	if report.String() != "Q1\nQ2\nQ3\n" {
		t.Fatalf("unexpected report audit trail: %q", report.String())
	}
}

func TestDispatchCountingInvokesSelectionOncePerQuestion(t *testing.T) {
	var calls []string
	store := memory.NewStore()
	store.SetPhase(entities.PhaseCounting)
	store.SetQuestions([]entities.Question{
		{QuestionID: "Q1"},
		{QuestionID: "Q2"},
	})

	report := &bytes.Buffer{}
	uc := newDispatcher(store, recordingFactory{calls: &calls}, report)
	if err := uc.Dispatch(context.Background()); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	if len(calls) != 2 || calls[0] != "select:Q1" || calls[1] != "select:Q2" {
		t.Fatalf("expected one selection per question, got %v", calls)
	}
	for _, call := range calls {
		if strings.HasPrefix(call, "annul:") {
			t.Fatalf("counting phase invoked annulment: %v", calls)
		}
	}
}

func TestDispatchAnnulmentWithNoQuestionsIsANoOp(t *testing.T) {
	var calls []string
	store := memory.NewStore()
	store.SetPhase(entities.PhaseAnnulment)
	store.SetQuestions(nil)

	uc := newDispatcher(store, recordingFactory{calls: &calls}, &bytes.Buffer{})
	if err := uc.Dispatch(context.Background()); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if len(calls) != 0 {
		t.Fatalf("expected no operations, got %v", calls)
	}
}

func TestDispatchAbortsRemainingQuestionsOnFailure(t *testing.T) {
	var calls []string
	store := memory.NewStore()
	store.SetPhase(entities.PhaseAnnulment)
	store.SetQuestions([]entities.Question{
		{QuestionID: "Q1"},
		{QuestionID: "Q2"},
		{QuestionID: "Q3"},
	})

	report := &bytes.Buffer{}
	uc := newDispatcher(store, recordingFactory{calls: &calls, failOn: "Q2"}, report)
	err := uc.Dispatch(context.Background())
	if !errors.Is(err, errProcessorBoom) {
		t.Fatalf("expected processor failure to propagate, got %v", err)
	}

	if len(calls) != 2 || calls[0] != "annul:Q1" || calls[1] != "annul:Q2" {
		t.Fatalf("expected Q1 and Q2 invoked before abort, got %v", calls)
	}
	if strings.Contains(report.String(), "Q3") {
		t.Fatalf("Q3 should not have been reported after abort: %q", report.String())
	}
}

func TestDispatchPropagatesStateReadFailure(t *testing.T) {
	var calls []string
	store := memory.NewStore() // phase never set

	uc := newDispatcher(store, recordingFactory{calls: &calls}, &bytes.Buffer{})
	err := uc.Dispatch(context.Background())
	if !errors.Is(err, domainerrors.ErrStateNotInitialized) {
		t.Fatalf("expected state read failure, got %v", err)
	}
	if len(calls) != 0 {
		t.Fatalf("expected no operations after state failure, got %v", calls)
	}
}

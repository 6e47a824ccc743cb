package memory

import (
	"context"
	"strings"
	"sync"

	"ostrakon/contexts/election-core/phase-dispatcher/domain/entities"
	domainerrors "ostrakon/contexts/election-core/phase-dispatcher/domain/errors"
)

// Store is the in-memory binding of the dispatcher's state store and question
// registry, used by tests and local wiring.
type Store struct {
	mu sync.RWMutex

	phase     entities.Phase
	phaseSet  bool
	questions []entities.Question
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) SetPhase(phase entities.Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = phase
	s.phaseSet = true
}

func (s *Store) SetQuestions(questions []entities.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = make([]entities.Question, 0, len(questions))
	for _, question := range questions {
		s.questions = append(s.questions, entities.Question{
			QuestionID: strings.TrimSpace(question.QuestionID),
			Title:      strings.TrimSpace(question.Title),
		})
	}
}

func (s *Store) GetCurrentPhase(_ context.Context) (entities.Phase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.phaseSet {
		return "", domainerrors.ErrStateNotInitialized
	}
	return s.phase, nil
}

func (s *Store) GetQuestions(_ context.Context) ([]entities.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entities.Question, len(s.questions))
	copy(out, s.questions)
	return out, nil
}

package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ostrakon/contexts/election-core/vote-processing/domain/entities"
	"ostrakon/internal/shared/events"
	"ostrakon/internal/shared/outbox"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type outboxRecord struct {
	message   outbox.Message
	published bool
}

// Store is the in-memory binding of every vote-processing port, used by tests
// and local wiring. It also serves as Clock and IDGenerator the way the
// postgres adapter package does.
type Store struct {
	mu sync.RWMutex

	votes       map[string]entities.Vote
	voteOrder   []string
	period      entities.Period
	periodSet   bool
	outbox      map[string]outboxRecord
	outboxOrder []string

	now time.Time
}

func NewStore(seed []entities.Vote) *Store {
	store := &Store{
		votes:  make(map[string]entities.Vote, len(seed)),
		outbox: make(map[string]outboxRecord),
	}
	for _, vote := range seed {
		store.votes[vote.VoteID] = vote
		store.voteOrder = append(store.voteOrder, vote.VoteID)
	}
	return store
}

func (s *Store) SetInvalidatedPeriod(period entities.Period) {
	s.mu.Lock()
	defer s.mu.Unlock()
	period.Kind = entities.PeriodKindInvalidatedVoting
	s.period = period
	s.periodSet = true
}

// SetNow pins the clock for deterministic tests. Zero means wall clock.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) GetVote(voteID string) (entities.Vote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vote, ok := s.votes[voteID]
	return vote, ok
}

func (s *Store) ListVotesByQuestion(_ context.Context, questionID string) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	votes := s.collectVotes(questionID, func(entities.Vote) bool { return true })
	return votes, nil
}

func (s *Store) ListVotesCastBetween(
	_ context.Context,
	questionID string,
	from time.Time,
	to time.Time,
) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	votes := s.collectVotes(questionID, func(vote entities.Vote) bool {
		return !vote.CastAt.Before(from) && vote.CastAt.Before(to)
	})
	return votes, nil
}

func (s *Store) MarkAnnulled(
	_ context.Context,
	voteIDs []string,
	reason entities.AnnulmentReason,
	at time.Time,
) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var affected int64
	for _, voteID := range voteIDs {
		vote, ok := s.votes[voteID]
		if !ok || vote.State != entities.VoteStateRecorded {
			continue
		}
		vote.State = entities.VoteStateAnnulled
		vote.AnnulmentReason = reason
		vote.UpdatedAt = at
		s.votes[voteID] = vote
		affected++
	}
	return affected, nil
}

func (s *Store) MarkSelected(_ context.Context, voteIDs []string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var affected int64
	for _, voteID := range voteIDs {
		vote, ok := s.votes[voteID]
		if !ok || vote.State != entities.VoteStateRecorded {
			continue
		}
		vote.State = entities.VoteStateSelected
		vote.UpdatedAt = at
		s.votes[voteID] = vote
		affected++
	}
	return affected, nil
}

func (s *Store) InvalidatedPeriod(_ context.Context) (entities.Period, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.periodSet {
		return entities.Period{}, false, nil
	}
	return s.period, true, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope events.Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal outbox envelope: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.outbox[envelope.EventID]; exists {
		return nil
	}
	s.outbox[envelope.EventID] = outboxRecord{
		message: outbox.Message{
			OutboxID:  envelope.EventID,
			EventType: envelope.EventType,
			Payload:   payload,
			Status:    outboxStatusPending,
			CreatedAt: envelope.OccurredAtUTC,
		},
	}
	s.outboxOrder = append(s.outboxOrder, envelope.EventID)
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]outbox.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	messages := make([]outbox.Message, 0, limit)
	for _, outboxID := range s.outboxOrder {
		record := s.outbox[outboxID]
		if record.published {
			continue
		}
		messages = append(messages, record.message)
		if len(messages) == limit {
			break
		}
	}
	return messages, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(outboxID)
	record, ok := s.outbox[key]
	if !ok {
		return nil
	}
	record.published = true
	record.message.Status = outboxStatusPublished
	s.outbox[key] = record
	return nil
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.now.IsZero() {
		return time.Now().UTC()
	}
	return s.now
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) collectVotes(questionID string, keep func(entities.Vote) bool) []entities.Vote {
	votes := make([]entities.Vote, 0, len(s.voteOrder))
	for _, voteID := range s.voteOrder {
		vote := s.votes[voteID]
		if vote.QuestionID != strings.TrimSpace(questionID) {
			continue
		}
		if keep(vote) {
			votes = append(votes, vote)
		}
	}
	sort.Slice(votes, func(i, j int) bool {
		return votes[i].CastBefore(votes[j])
	})
	return votes
}

package memory

import (
	"context"
	"testing"
	"time"

	"ostrakon/contexts/election-core/vote-processing/domain/entities"
	"ostrakon/internal/shared/events"
)

func at(hour int) time.Time {
	return time.Date(2026, time.March, 1, hour, 0, 0, 0, time.UTC)
}

func TestListVotesCastBetweenBounds(t *testing.T) {
	store := NewStore([]entities.Vote{
		{VoteID: "v-before", QuestionID: "Q1", VoterID: "a", CastAt: at(9), State: entities.VoteStateRecorded},
		{VoteID: "v-start", QuestionID: "Q1", VoterID: "b", CastAt: at(10), State: entities.VoteStateRecorded},
		{VoteID: "v-mid", QuestionID: "Q1", VoterID: "c", CastAt: at(12), State: entities.VoteStateRecorded},
		{VoteID: "v-end", QuestionID: "Q1", VoterID: "d", CastAt: at(14), State: entities.VoteStateRecorded},
	})

	votes, err := store.ListVotesCastBetween(context.Background(), "Q1", at(10), at(14))
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	// Start inclusive, end exclusive.
	if len(votes) != 2 || votes[0].VoteID != "v-start" || votes[1].VoteID != "v-mid" {
		t.Fatalf("unexpected window contents: %v", votes)
	}
}

func TestMarkAnnulledOnlyTouchesRecordedVotes(t *testing.T) {
	store := NewStore([]entities.Vote{
		{VoteID: "v-recorded", QuestionID: "Q1", VoterID: "a", CastAt: at(10), State: entities.VoteStateRecorded},
		{VoteID: "v-selected", QuestionID: "Q1", VoterID: "b", CastAt: at(10), State: entities.VoteStateSelected},
	})

	affected, err := store.MarkAnnulled(
		context.Background(),
		[]string{"v-recorded", "v-selected", "v-missing"},
		entities.ReasonInvalidatedPeriod,
		at(15),
	)
	if err != nil {
		t.Fatalf("mark annulled failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected exactly one vote affected, got %d", affected)
	}
	if vote, _ := store.GetVote("v-selected"); vote.State != entities.VoteStateSelected {
		t.Fatalf("selected vote was annulled: %q", vote.State)
	}
}

func TestAppendOutboxIsIdempotentOnEventID(t *testing.T) {
	store := NewStore(nil)
	envelope := events.Envelope{
		EventID:        "evt-1",
		EventType:      "election.votes_annulled",
		SourceService:  "ostrakon-test",
		OccurredAtUTC:  at(15),
		EntityType:     "question",
		EntityID:       "Q1",
		PayloadVersion: 1,
	}
	for i := 0; i < 2; i++ {
		if err := store.AppendOutbox(context.Background(), envelope); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected a single outbox row, got %d", len(pending))
	}
}

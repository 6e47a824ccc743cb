package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"ostrakon/contexts/election-core/vote-processing/adapters/memory"
	"ostrakon/internal/shared/events"
)

var errBrokerDown = errors.New("broker down")

type fakePublisher struct {
	published []string // "topic/event_id"
	failOn    string   // event id to fail on
}

func (p *fakePublisher) Publish(_ context.Context, topic string, event events.Envelope) error {
	if event.EventID == p.failOn {
		return errBrokerDown
	}
	p.published = append(p.published, topic+"/"+event.EventID)
	return nil
}

func seedOutbox(t *testing.T, store *memory.Store, eventID string, eventType string) {
	t.Helper()
	err := store.AppendOutbox(context.Background(), events.Envelope{
		EventID:        eventID,
		EventType:      eventType,
		SourceService:  "ostrakon-test",
		OccurredAtUTC:  time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC),
		EntityType:     "question",
		EntityID:       "Q1",
		PayloadVersion: 1,
	})
	if err != nil {
		t.Fatalf("append outbox failed: %v", err)
	}
}

func TestOutboxRelayPublishesPendingRows(t *testing.T) {
	store := memory.NewStore(nil)
	seedOutbox(t, store, "evt-1", "election.votes_annulled")
	seedOutbox(t, store, "evt-2", "election.votes_selected")

	publisher := &fakePublisher{}
	relay := OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     store,
		BatchSize: 10,
	}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}

	if len(publisher.published) != 2 ||
		publisher.published[0] != "election.votes_annulled/evt-1" ||
		publisher.published[1] != "election.votes_selected/evt-2" {
		t.Fatalf("unexpected publishes: %v", publisher.published)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected all rows published, still pending: %v", pending)
	}
}

func TestOutboxRelayStopsOnFirstPublishFailure(t *testing.T) {
	store := memory.NewStore(nil)
	seedOutbox(t, store, "evt-1", "election.votes_annulled")
	seedOutbox(t, store, "evt-2", "election.votes_annulled")
	seedOutbox(t, store, "evt-3", "election.votes_annulled")

	publisher := &fakePublisher{failOn: "evt-2"}
	relay := OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     store,
		BatchSize: 10,
	}
	err := relay.RunOnce(context.Background())
	if !errors.Is(err, errBrokerDown) {
		t.Fatalf("expected broker failure to propagate, got %v", err)
	}

	if len(publisher.published) != 1 || publisher.published[0] != "election.votes_annulled/evt-1" {
		t.Fatalf("expected only evt-1 published, got %v", publisher.published)
	}
	pending, _ := store.ListPendingOutbox(context.Background(), 10)
	if len(pending) != 2 || pending[0].OutboxID != "evt-2" || pending[1].OutboxID != "evt-3" {
		t.Fatalf("expected evt-2 and evt-3 still pending, got %v", pending)
	}
}

func TestOutboxRelayWithEmptyOutboxIsANoOp(t *testing.T) {
	store := memory.NewStore(nil)
	publisher := &fakePublisher{}
	relay := OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     store,
	}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	if len(publisher.published) != 0 {
		t.Fatalf("expected no publishes, got %v", publisher.published)
	}
}

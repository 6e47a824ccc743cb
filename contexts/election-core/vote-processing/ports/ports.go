package ports

import (
	"context"
	"time"

	"ostrakon/contexts/election-core/vote-processing/domain/entities"
	"ostrakon/internal/shared/events"
	"ostrakon/internal/shared/outbox"
)

type VoteRepository interface {
	ListVotesByQuestion(ctx context.Context, questionID string) ([]entities.Vote, error)
	ListVotesCastBetween(ctx context.Context, questionID string, from, to time.Time) ([]entities.Vote, error)
	// MarkAnnulled and MarkSelected only touch votes still in the recorded
	// state, which keeps re-runs of a pass safe.
	MarkAnnulled(ctx context.Context, voteIDs []string, reason entities.AnnulmentReason, at time.Time) (int64, error)
	MarkSelected(ctx context.Context, voteIDs []string, at time.Time) (int64, error)
}

// PeriodSource resolves election schedule windows. A missing invalidated
// window means no votes are subject to annulment.
type PeriodSource interface {
	InvalidatedPeriod(ctx context.Context) (entities.Period, bool, error)
}

type OutboxRepository interface {
	AppendOutbox(ctx context.Context, envelope events.Envelope) error
	ListPendingOutbox(ctx context.Context, limit int) ([]outbox.Message, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

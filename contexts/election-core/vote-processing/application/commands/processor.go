package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	application "ostrakon/contexts/election-core/vote-processing/application"
	"ostrakon/contexts/election-core/vote-processing/domain/entities"
	domainerrors "ostrakon/contexts/election-core/vote-processing/domain/errors"
	"ostrakon/contexts/election-core/vote-processing/ports"
	"ostrakon/internal/shared/events"
)

const (
	EventTypeVotesAnnulled = "election.votes_annulled"
	EventTypeVotesSelected = "election.votes_selected"
)

type votesAnnulledPayload struct {
	QuestionID string   `json:"question_id"`
	Reason     string   `json:"reason"`
	VoteIDs    []string `json:"vote_ids"`
	Count      int      `json:"count"`
}

type votesSelectedPayload struct {
	QuestionID        string   `json:"question_id"`
	SelectedVoteIDs   []string `json:"selected_vote_ids"`
	SupersededVoteIDs []string `json:"superseded_vote_ids"`
}

// QuestionProcessor is a processing handle bound to exactly one question.
// Handles are constructed fresh per question and hold no cross-question state.
// Both operations are safe to re-run: the repository mark calls only touch
// votes still in the recorded state.
type QuestionProcessor struct {
	QuestionID    string
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

// AnnulInvalidatedPeriodVotes annuls every recorded vote for the question that
// was cast inside the invalidated voting window. The indent token prefixes the
// per-vote report lines under the question heading the dispatcher printed.
func (p QuestionProcessor) AnnulInvalidatedPeriodVotes(ctx context.Context, indent string) error {
	logger := application.ResolveLogger(p.Logger)
	questionID := strings.TrimSpace(p.QuestionID)
	if questionID == "" {
		return domainerrors.ErrQuestionRequired
	}

	period, declared, err := p.Periods.InvalidatedPeriod(ctx)
	if err != nil {
		return err
	}
	if !declared {
		logger.Info("no invalidated voting period declared",
			"event", "vote_processing_annul_noop",
			"module", "election-core/vote-processing",
			"layer", "application",
			"question_id", questionID,
		)
		return nil
	}

	votes, err := p.Votes.ListVotesCastBetween(ctx, questionID, period.Start, period.End)
	if err != nil {
		return err
	}

	voteIDs := make([]string, 0, len(votes))
	for _, vote := range votes {
		if vote.State != entities.VoteStateRecorded {
			continue
		}
		if !period.Contains(vote.CastAt) {
			continue
		}
		voteIDs = append(voteIDs, vote.VoteID)
	}
	if len(voteIDs) == 0 {
		logger.Info("no votes subject to annulment",
			"event", "vote_processing_annul_empty",
			"module", "election-core/vote-processing",
			"layer", "application",
			"question_id", questionID,
		)
		return nil
	}
	sort.Strings(voteIDs)

	now := p.now()
	annulled, err := p.Votes.MarkAnnulled(ctx, voteIDs, entities.ReasonInvalidatedPeriod, now)
	if err != nil {
		return err
	}
	p.reportVotes(indent, voteIDs)

	if err := p.appendEvent(ctx, EventTypeVotesAnnulled, questionID, now, votesAnnulledPayload{
		QuestionID: questionID,
		Reason:     string(entities.ReasonInvalidatedPeriod),
		VoteIDs:    voteIDs,
		Count:      len(voteIDs),
	}); err != nil {
		return err
	}

	logger.Info("invalidated period votes annulled",
		"event", "vote_processing_annul_completed",
		"module", "election-core/vote-processing",
		"layer", "application",
		"question_id", questionID,
		"annulled_count", annulled,
	)
	return nil
}

// SelectVotesForCounting marks each voter's latest valid vote for counting and
// annuls that voter's earlier recorded votes as superseded.
func (p QuestionProcessor) SelectVotesForCounting(ctx context.Context, indent string) error {
	logger := application.ResolveLogger(p.Logger)
	questionID := strings.TrimSpace(p.QuestionID)
	if questionID == "" {
		return domainerrors.ErrQuestionRequired
	}

	votes, err := p.Votes.ListVotesByQuestion(ctx, questionID)
	if err != nil {
		return err
	}

	latest := make(map[string]entities.Vote)
	var superseded []string
	for _, vote := range votes {
		if vote.State == entities.VoteStateAnnulled {
			continue
		}
		current, seen := latest[vote.VoterID]
		if !seen {
			latest[vote.VoterID] = vote
			continue
		}
		if current.CastBefore(vote) {
			if current.State == entities.VoteStateRecorded {
				superseded = append(superseded, current.VoteID)
			}
			latest[vote.VoterID] = vote
		} else if vote.State == entities.VoteStateRecorded {
			superseded = append(superseded, vote.VoteID)
		}
	}

	selectedIDs := make([]string, 0, len(latest))
	toSelect := make([]string, 0, len(latest))
	for _, vote := range latest {
		selectedIDs = append(selectedIDs, vote.VoteID)
		if vote.State == entities.VoteStateRecorded {
			toSelect = append(toSelect, vote.VoteID)
		}
	}
	sort.Strings(selectedIDs)
	sort.Strings(toSelect)
	sort.Strings(superseded)

	if len(selectedIDs) == 0 {
		logger.Info("no votes eligible for counting",
			"event", "vote_processing_select_empty",
			"module", "election-core/vote-processing",
			"layer", "application",
			"question_id", questionID,
		)
		return nil
	}

	now := p.now()
	if len(superseded) > 0 {
		if _, err := p.Votes.MarkAnnulled(ctx, superseded, entities.ReasonSuperseded, now); err != nil {
			return err
		}
	}
	if len(toSelect) > 0 {
		if _, err := p.Votes.MarkSelected(ctx, toSelect, now); err != nil {
			return err
		}
	}
	p.reportVotes(indent, selectedIDs)

	if err := p.appendEvent(ctx, EventTypeVotesSelected, questionID, now, votesSelectedPayload{
		QuestionID:        questionID,
		SelectedVoteIDs:   selectedIDs,
		SupersededVoteIDs: superseded,
	}); err != nil {
		return err
	}

	logger.Info("votes selected for counting",
		"event", "vote_processing_select_completed",
		"module", "election-core/vote-processing",
		"layer", "application",
		"question_id", questionID,
		"selected_count", len(selectedIDs),
		"superseded_count", len(superseded),
	)
	return nil
}

func (p QuestionProcessor) appendEvent(
	ctx context.Context,
	eventType string,
	questionID string,
	now time.Time,
	payload any,
) error {
	eventID, err := p.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	return p.Outbox.AppendOutbox(ctx, events.Envelope{
		EventID:        eventID,
		EventType:      eventType,
		SourceService:  p.SourceService,
		OccurredAtUTC:  now,
		CorrelationID:  p.CorrelationID,
		EntityType:     "question",
		EntityID:       questionID,
		PayloadVersion: 1,
		Payload:        payload,
	})
}

func (p QuestionProcessor) reportVotes(indent string, voteIDs []string) {
	if p.Report == nil {
		return
	}
	for _, voteID := range voteIDs {
		fmt.Fprintf(p.Report, "%s%s\n", indent, voteID)
	}
}

func (p QuestionProcessor) now() time.Time {
	if p.Clock == nil {
		return time.Now().UTC()
	}
	return p.Clock.Now().UTC()
}

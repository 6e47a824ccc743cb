package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"ostrakon/contexts/election-core/vote-processing/domain/entities"
	"ostrakon/internal/shared/events"
	"ostrakon/internal/shared/outbox"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) ListVotesByQuestion(ctx context.Context, questionID string) ([]entities.Vote, error) {
	var rows []voteModel
	err := r.db.WithContext(ctx).
		Where("question_id = ?", strings.TrimSpace(questionID)).
		Order("cast_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("vote_repo_list_by_question_failed", err,
			"question_id", strings.TrimSpace(questionID),
		)
	}
	return toVoteEntities(rows), nil
}

func (r *Repository) ListVotesCastBetween(
	ctx context.Context,
	questionID string,
	from time.Time,
	to time.Time,
) ([]entities.Vote, error) {
	var rows []voteModel
	err := r.db.WithContext(ctx).
		Where("question_id = ?", strings.TrimSpace(questionID)).
		Where("cast_at >= ? AND cast_at < ?", from, to).
		Order("cast_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("vote_repo_list_cast_between_failed", err,
			"question_id", strings.TrimSpace(questionID),
		)
	}
	return toVoteEntities(rows), nil
}

func (r *Repository) MarkAnnulled(
	ctx context.Context,
	voteIDs []string,
	reason entities.AnnulmentReason,
	at time.Time,
) (int64, error) {
	if len(voteIDs) == 0 {
		return 0, nil
	}
	update := r.db.WithContext(ctx).Model(&voteModel{}).
		Where("id IN ?", voteIDs).
		Where("state = ?", string(entities.VoteStateRecorded)).
		Updates(map[string]any{
			"state":            string(entities.VoteStateAnnulled),
			"annulment_reason": string(reason),
			"updated_at":       at,
		})
	if update.Error != nil {
		return 0, r.logError("vote_repo_mark_annulled_failed", update.Error,
			"vote_count", len(voteIDs),
		)
	}
	return update.RowsAffected, nil
}

func (r *Repository) MarkSelected(ctx context.Context, voteIDs []string, at time.Time) (int64, error) {
	if len(voteIDs) == 0 {
		return 0, nil
	}
	update := r.db.WithContext(ctx).Model(&voteModel{}).
		Where("id IN ?", voteIDs).
		Where("state = ?", string(entities.VoteStateRecorded)).
		Updates(map[string]any{
			"state":      string(entities.VoteStateSelected),
			"updated_at": at,
		})
	if update.Error != nil {
		return 0, r.logError("vote_repo_mark_selected_failed", update.Error,
			"vote_count", len(voteIDs),
		)
	}
	return update.RowsAffected, nil
}

func (r *Repository) InvalidatedPeriod(ctx context.Context) (entities.Period, bool, error) {
	var row electionPeriodModel
	err := r.db.WithContext(ctx).
		Where("kind = ?", entities.PeriodKindInvalidatedVoting).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Period{}, false, nil
		}
		return entities.Period{}, false, r.logError("vote_repo_invalidated_period_failed", err)
	}
	return row.toEntity(), true, nil
}

// AppendOutbox is idempotent on event id: replaying a pass that already wrote
// its summary event leaves the original row in place.
func (r *Repository) AppendOutbox(ctx context.Context, envelope events.Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal outbox envelope: %w", err)
	}
	row := outboxModel{
		ID:        envelope.EventID,
		EventType: envelope.EventType,
		Payload:   payload,
		Status:    outboxStatusPending,
		CreatedAt: envelope.OccurredAtUTC,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return r.logError("vote_repo_append_outbox_failed", err,
			"event_id", envelope.EventID,
			"event_type", envelope.EventType,
		)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]outbox.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("vote_repo_list_pending_outbox_failed", err)
	}

	messages := make([]outbox.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, outbox.Message{
			OutboxID:  row.ID,
			EventType: row.EventType,
			Payload:   row.Payload,
			Status:    row.Status,
			CreatedAt: row.CreatedAt,
		})
	}
	return messages, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	update := r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt,
		})
	if update.Error != nil {
		return r.logError("vote_repo_mark_outbox_published_failed", update.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := append([]any{
		"event", event,
		"module", "election-core/vote-processing",
		"layer", "adapter",
		"error", err.Error(),
	}, attrs...)
	r.logger.Error("vote processing repository operation failed", fields...)
	return err
}

type voteModel struct {
	ID              string    `gorm:"column:id;primaryKey"`
	QuestionID      string    `gorm:"column:question_id"`
	VoterID         string    `gorm:"column:voter_id"`
	CastAt          time.Time `gorm:"column:cast_at"`
	State           string    `gorm:"column:state"`
	AnnulmentReason string    `gorm:"column:annulment_reason"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (voteModel) TableName() string {
	return "votes"
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		VoteID:          m.ID,
		QuestionID:      m.QuestionID,
		VoterID:         m.VoterID,
		CastAt:          m.CastAt,
		State:           entities.VoteState(m.State),
		AnnulmentReason: entities.AnnulmentReason(m.AnnulmentReason),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

type electionPeriodModel struct {
	Kind     string    `gorm:"column:kind;primaryKey"`
	StartsAt time.Time `gorm:"column:starts_at"`
	EndsAt   time.Time `gorm:"column:ends_at"`
}

func (electionPeriodModel) TableName() string {
	return "election_periods"
}

func (m electionPeriodModel) toEntity() entities.Period {
	return entities.Period{
		Kind:  m.Kind,
		Start: m.StartsAt,
		End:   m.EndsAt,
	}
}

type outboxModel struct {
	ID          string     `gorm:"column:id;primaryKey"`
	EventType   string     `gorm:"column:event_type"`
	Payload     []byte     `gorm:"column:payload"`
	Status      string     `gorm:"column:status"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	PublishedAt *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "outbox_messages"
}

func toVoteEntities(rows []voteModel) []entities.Vote {
	votes := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		votes = append(votes, row.toEntity())
	}
	return votes
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

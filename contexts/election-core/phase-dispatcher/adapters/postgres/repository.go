package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"ostrakon/contexts/election-core/phase-dispatcher/domain/entities"
	domainerrors "ostrakon/contexts/election-core/phase-dispatcher/domain/errors"
)

// electionStateID is the primary key of the singleton election state row.
const electionStateID = "election"

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

func (r *Repository) GetCurrentPhase(ctx context.Context) (entities.Phase, error) {
	var row electionStateModel
	err := r.db.WithContext(ctx).
		Where("id = ?", electionStateID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domainerrors.ErrStateNotInitialized
		}
		return "", r.logError("dispatcher_repo_get_phase_failed", err)
	}
	return entities.Phase(row.Phase), nil
}

func (r *Repository) GetQuestions(ctx context.Context) ([]entities.Question, error) {
	var rows []questionModel
	err := r.db.WithContext(ctx).
		Order("ordinal ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("dispatcher_repo_list_questions_failed", err)
	}

	questions := make([]entities.Question, 0, len(rows))
	for _, row := range rows {
		questions = append(questions, entities.Question{
			QuestionID: row.ID,
			Title:      row.Title,
		})
	}
	return questions, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := append([]any{
		"event", event,
		"module", "election-core/phase-dispatcher",
		"layer", "adapter",
		"error", err.Error(),
	}, attrs...)
	r.logger.Error("dispatcher repository operation failed", fields...)
	return err
}

type electionStateModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Phase     string    `gorm:"column:phase"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (electionStateModel) TableName() string {
	return "election_state"
}

type questionModel struct {
	ID      string `gorm:"column:id;primaryKey"`
	Title   string `gorm:"column:title"`
	Ordinal int    `gorm:"column:ordinal"`
}

func (questionModel) TableName() string {
	return "questions"
}

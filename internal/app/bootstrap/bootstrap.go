package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	phasedispatcher "ostrakon/contexts/election-core/phase-dispatcher"
	dispatcherpostgres "ostrakon/contexts/election-core/phase-dispatcher/adapters/postgres"
	dispatcherentities "ostrakon/contexts/election-core/phase-dispatcher/domain/entities"
	dispatcherports "ostrakon/contexts/election-core/phase-dispatcher/ports"
	voteprocessing "ostrakon/contexts/election-core/vote-processing"
	votepostgres "ostrakon/contexts/election-core/vote-processing/adapters/postgres"
	workerapp "ostrakon/contexts/election-core/vote-processing/application/workers"
	"ostrakon/internal/platform/config"
	"ostrakon/internal/platform/db"
	"ostrakon/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type PhaseStepApp struct {
	dispatcher phasedispatcher.Module
	postgres   *db.Postgres
	logger     *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	bus          *messaging.Kafka
	outboxRelay  workerapp.OutboxRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

// processorFactory bridges the dispatcher's processor port to the
// vote-processing module without coupling the two contexts to each other.
type processorFactory struct {
	processing voteprocessing.Module
}

func (f processorFactory) ProcessorFor(question dispatcherentities.Question) dispatcherports.QuestionProcessor {
	return f.processing.ProcessorFor(question.QuestionID)
}

func BuildPhaseStep() (*PhaseStepApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "phasestep")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	voteRepo := votepostgres.NewRepository(pg.DB, logger)
	processing := voteprocessing.NewModule(voteprocessing.Dependencies{
		Votes:         voteRepo,
		Periods:       voteRepo,
		Outbox:        voteRepo,
		Clock:         votepostgres.SystemClock{},
		IDGen:         votepostgres.UUIDGenerator{},
		SourceService: cfg.ServiceName,
		CorrelationID: uuid.NewString(),
		Report:        os.Stdout,
		Logger:        logger,
	})

	dispatchRepo := dispatcherpostgres.NewRepository(pg.DB, logger)
	dispatcher := phasedispatcher.NewModule(phasedispatcher.Dependencies{
		State:      dispatchRepo,
		Questions:  dispatchRepo,
		Processors: processorFactory{processing: processing},
		Report:     os.Stdout,
		Logger:     logger,
	})

	return &PhaseStepApp{
		dispatcher: dispatcher,
		postgres:   pg,
		logger:     logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	repo := votepostgres.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		bus:      bus,
		outboxRelay: workerapp.OutboxRelay{
			Outbox:    repo,
			Publisher: bus,
			Clock:     votepostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		pollInterval: 2 * time.Second,
		logger:       logger,
	}, nil
}

func (a *PhaseStepApp) Run(ctx context.Context) error {
	if a.logger != nil {
		a.logger.Info("phase step started",
			"event", "bootstrap_phasestep_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.dispatcher.Dispatcher.Dispatch(ctx)
}

func (a *PhaseStepApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	var errs []error
	if w.bus != nil {
		if err := w.bus.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if w.postgres != nil {
		if err := w.postgres.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

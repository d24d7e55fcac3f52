package main

import (
	"context"
	"fmt"

	"digest-backend/internal/content/discovery"
	"digest-backend/internal/content/extractor"
	"digest-backend/internal/delivery/deliverer"
	execdomain "digest-backend/internal/execution/domain"
	"digest-backend/internal/execution/recorder"
	execrepo "digest-backend/internal/execution/repository"
	intdomain "digest-backend/internal/integration/domain"
	intrepo "digest-backend/internal/integration/repository"
	"digest-backend/internal/pipeline"
	scheddomain "digest-backend/internal/schedule/domain"
	schedrepo "digest-backend/internal/schedule/repository"
	"digest-backend/internal/summary/engine"
	"digest-backend/pkg/ai"
	"digest-backend/pkg/database"
	"digest-backend/pkg/notion"
	"digest-backend/pkg/telegram"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds the wired pipeline for one process.
type app struct {
	db           *gorm.DB
	schedules    schedrepo.ScheduleRepository
	integrations intrepo.IntegrationRepository
	service      *pipeline.Service
	backends     []string
}

func openDatabase() (*gorm.DB, error) {
	db, err := database.NewConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&scheddomain.Schedule{}, &intdomain.Integration{}, &execdomain.ExecutionRecord{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func newApp(ctx context.Context) (*app, error) {
	db, err := openDatabase()
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		return nil, err
	}

	// Initialize repositories (dependency injection)
	scheduleRepo := schedrepo.NewGormScheduleRepository(db)
	integrationRepo := intrepo.NewIntegrationRepository(db)
	executionRepo := execrepo.NewExecutionRepository(db)

	// A missing AI key fails each run at the summarizing stage instead of
	// refusing to start.
	backends, err := engine.BuildBackends(ctx, cfg, log)
	if err != nil {
		log.Warn("No AI backend available, runs will fail at summarizing", zap.Error(err))
		backends = []ai.Backend{}
	}
	summarizer := engine.New(backends, log)

	if cfg.TelegramBotToken == "" {
		log.Warn("TELEGRAM_BOT_TOKEN not set, deliveries will fail")
	}

	rec := recorder.New(executionRepo, log)
	runner := pipeline.NewRunner(pipeline.Deps{
		Integrations: integrationRepo,
		Discovery: discovery.New(
			notion.NewClient(cfg.NotionAPIBaseURL, cfg.NotionVersion),
			cfg.NotionPageSize, cfg.NotionFetchDelay, log),
		Extractor:    extractor.New(log),
		Summarizer:   summarizer,
		Deliverer:    deliverer.New(telegram.NewClient(cfg.TelegramAPIBaseURL, cfg.TelegramBotToken), log),
		Recorder:     rec,
		StageTimeout: cfg.StageTimeout,
	}, log)

	return &app{
		db:           db,
		schedules:    scheduleRepo,
		integrations: integrationRepo,
		service:      pipeline.NewService(scheduleRepo, runner, rec, log),
		backends:     summarizer.Backends(),
	}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

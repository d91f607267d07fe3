package main

import (
	"time"

	"github.com/launchdeck/launchdeck/backend/internal/config"
	"github.com/launchdeck/launchdeck/backend/internal/models"
	"github.com/launchdeck/launchdeck/backend/internal/services"
	"github.com/launchdeck/launchdeck/backend/internal/utils"
	"github.com/launchdeck/launchdeck/backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// appServices holds the long-lived dependencies shared by handlers.
type appServices struct {
	cfg          *config.Config
	views        *services.ViewCache
	blobs        services.BlobStore
	llm          services.TextGenerator
	taskQueue    services.TaskQueue
	worker       *services.Worker
	retention    *cron.Cron
	scoreTimeout time.Duration
}

// bootstrap initializes database, storage, queue and schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	db := models.GetDB()

	services.InitSystemLogger(db)
	retention := services.StartRetentionScheduler(db, cfg.Log.RetentionDays)

	blobs, err := services.NewBlobStore(&cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	// Uploaded documents are transcribed inline unless Redis is enabled
	transcriber := services.NewTranscriptionService(db, blobs)
	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(transcriber.Process)
	}

	var worker *services.Worker
	if taskQueue.IsAsync() {
		worker = services.NewWorker(&cfg.Redis, transcriber.Process)
		if err := worker.Start(); err != nil {
			logger.Warn().Err(err).Msg("Failed to start transcription worker")
			worker = nil
		}
	}

	llm := services.NewAIService(&cfg.LLM)
	if cfg.LLM.APIKey == "" && cfg.LLM.Provider != "ollama" {
		logger.Warnf("[Bootstrap] LLM API key not set, scoring will use fallback results")
	}

	return &appServices{
		cfg:          cfg,
		views:        services.NewViewCache(time.Duration(cfg.Cache.ViewTTLSeconds) * time.Second),
		blobs:        blobs,
		llm:          llm,
		taskQueue:    taskQueue,
		worker:       worker,
		retention:    retention,
		scoreTimeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	}
}

// shutdown gracefully stops background work.
func (s *appServices) shutdown() {
	if s.retention != nil {
		<-s.retention.Stop().Done()
	}
	logger.Info().Msg("Retention scheduler stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		if err := s.taskQueue.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close task queue")
		}
	}
}

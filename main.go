package main

import (
	"log"

	api "jobtrack-backend/cmd/api"
	appdomain "jobtrack-backend/internal/application/domain"
	appRepo "jobtrack-backend/internal/application/repository"
	syncdomain "jobtrack-backend/internal/sync/domain"
	syncRepo "jobtrack-backend/internal/sync/repository"
	"jobtrack-backend/internal/sync/scheduler"
	syncUsecase "jobtrack-backend/internal/sync/usecase"
	"jobtrack-backend/pkg/ai"
	"jobtrack-backend/pkg/config"
	"jobtrack-backend/pkg/database"
	"jobtrack-backend/pkg/gmail"
	"jobtrack-backend/pkg/imap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(&appdomain.JobApplication{}, &syncdomain.SyncCheckpoint{}, &syncdomain.SyncRunRecord{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	applicationRepo := appRepo.NewApplicationRepository(db)
	checkpointRepo := syncRepo.NewCheckpointRepository(db)
	runRecordRepo := syncRepo.NewRunRecordRepository(db)

	// Initialize mail provider
	var mailProvider syncdomain.MailProvider
	switch cfg.MailProvider {
	case "imap":
		mailProvider = imap.NewService(cfg.IMAPHost, cfg.IMAPPort, cfg.IMAPUsername, cfg.IMAPPassword)
	default:
		mailProvider = gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GmailAccessToken, cfg.GmailRefreshToken, nil)
	}

	// Initialize AI classifier
	classifier, err := ai.NewClassifierService(ai.Config{
		Provider:      ai.ProviderType(cfg.AIProvider),
		GeminiAPIKey:  cfg.GeminiAPIKey,
		OllamaBaseURL: cfg.OllamaBaseURL,
		OllamaModel:   cfg.OllamaModel,
	})
	if err != nil {
		log.Fatal("Failed to initialize AI classifier:", err)
	}

	// Wire the sync engine
	matcher := syncUsecase.NewApplicationMatcher(cfg.MatchMinScore, cfg.MatchAmbiguityDelta)
	updater := syncUsecase.NewStateUpdater(applicationRepo)
	orchestrator := syncUsecase.NewOrchestrator(
		mailProvider,
		classifier,
		matcher,
		updater,
		applicationRepo,
		checkpointRepo,
		runRecordRepo,
		cfg.ConfidenceThreshold,
		cfg.ClassifyMaxAttempts,
		cfg.ClassifyRetryDelay,
	)

	// Start the scheduler (interval + daily triggers)
	syncScheduler := scheduler.NewSyncScheduler(orchestrator, cfg.SyncInterval, cfg.SyncDailyHour)
	syncScheduler.Start()
	defer syncScheduler.Stop()

	// Initialize HTTP handler
	handler := api.NewHandler(syncScheduler, checkpointRepo, runRecordRepo, cfg)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

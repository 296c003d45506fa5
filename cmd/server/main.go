package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"challengearena/internal/api"
	"challengearena/internal/app/service"
	"challengearena/internal/app/worker"
	"challengearena/internal/common/security"
	"challengearena/internal/domain/repository"
	"challengearena/internal/platform/config"
	"challengearena/internal/platform/database"
	"challengearena/internal/platform/logging"
	"challengearena/internal/platform/queue"

	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	config.Load()

	logger, err := logging.New(config.AppConfig.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("configuration loaded")

	// 2. Initialize JWT
	security.InitJWT()

	// 3. Initialize database
	database.Connect()
	defer database.Close()
	logger.Info("database connected")

	// 4. Initialize Redis
	queue.ConnectRedis()
	defer queue.CloseRedis()
	logger.Info("redis connected")

	// 5. Initialize repositories
	profileRepo := repository.NewPgProfileRepository(database.DB)
	challengeRepo := repository.NewPgChallengeRepository(database.DB)
	participationRepo := repository.NewPgParticipationRepository(database.DB)
	submissionRepo := repository.NewPgSubmissionRepository(database.DB)
	evaluationJobRepo := repository.NewPgEvaluationJobRepository(database.DB)

	// 6. Initialize services
	authService := service.NewAuthService(profileRepo)
	profileService := service.NewProfileService(profileRepo)
	challengeService := service.NewChallengeService(challengeRepo)
	participationService := service.NewParticipationService(participationRepo, challengeRepo, database.DB)
	evaluationService := service.NewEvaluationService(
		evaluationJobRepo,
		submissionRepo,
		profileRepo,
		challengeRepo,
		queue.RDB,
		config.AppConfig.EvaluationQueueName,
		database.DB,
		logger,
	)
	submissionService := service.NewSubmissionService(
		submissionRepo,
		challengeRepo,
		participationRepo,
		evaluationService,
		database.DB,
		logger,
	)
	leaderboardService := service.NewLeaderboardService(
		submissionRepo,
		profileRepo,
		challengeRepo,
		queue.RDB,
		config.AppConfig.LeaderboardCacheTTL,
		logger,
	)
	dashboardService := service.NewDashboardService(profileRepo, challengeRepo, participationRepo, submissionRepo)

	// 7. Start the evaluation worker
	evaluationWorker := worker.NewEvaluationWorker(
		queue.RDB,
		evaluationJobRepo,
		submissionRepo,
		challengeRepo,
		evaluationService,
		worker.Config{
			QueueName:   config.AppConfig.EvaluationQueueName,
			MaxAttempts: config.AppConfig.EvaluationMaxAttempts,
			ScorerURL:   config.AppConfig.ScorerURL,
			WebhookURL:  config.AppConfig.ScorerWebhookURL,
		},
		logger,
	)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go evaluationWorker.Start(workerCtx)

	// 8. Router and HTTP server
	router := api.NewRouter(
		logger,
		config.AppConfig.CORSAllowedOrigins,
		authService,
		profileService,
		challengeService,
		participationService,
		submissionService,
		evaluationService,
		leaderboardService,
		dashboardService,
	)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("port", config.AppConfig.APIPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("could not start server", zap.Error(err))
		}
	}()

	<-stop

	logger.Info("shutting down server")
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server shutdown failed", zap.Error(err))
	}

	logger.Info("server and worker stopped")
}

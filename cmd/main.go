package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/yungbote/homework-backend/internal/clients/openai"
	"github.com/yungbote/homework-backend/internal/data/db"
	gamerepo "github.com/yungbote/homework-backend/internal/data/repos/game"
	hwrepo "github.com/yungbote/homework-backend/internal/data/repos/homework"
	userrepo "github.com/yungbote/homework-backend/internal/data/repos/user"
	"github.com/yungbote/homework-backend/internal/homework"
	"github.com/yungbote/homework-backend/internal/homework/steps"
	"github.com/yungbote/homework-backend/internal/http/handlers"
	"github.com/yungbote/homework-backend/internal/observability"
	"github.com/yungbote/homework-backend/internal/platform/envutil"
	"github.com/yungbote/homework-backend/internal/platform/localmedia"
	"github.com/yungbote/homework-backend/internal/platform/logger"
	"github.com/yungbote/homework-backend/internal/server"
	"github.com/yungbote/homework-backend/internal/services"
)

func main() {
	_ = godotenv.Load()

	// Logger
	logMode := envutil.Str("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	ctx := context.Background()
	if shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "homework-backend",
		Environment: envutil.Str("APP_ENV", "development"),
		Version:     envutil.Str("APP_VERSION", "dev"),
	}); shutdown != nil {
		defer func() { _ = shutdown(ctx) }()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos from main...")
	runRepo := hwrepo.NewRunRepo(thePG, log)
	taskRepo := hwrepo.NewTaskRepo(thePG, log)
	mediaRepo := hwrepo.NewMediaRepo(thePG, log)
	userRepo := userrepo.NewUserRepo(thePG, log)
	serverRepo := gamerepo.NewServerRepo(thePG, log)

	// Clients
	log.Info("Setting up clients from main...")
	bucketService, err := services.NewBucketService(log)
	if err != nil {
		log.Error("Could not init BucketService", "error", err)
		os.Exit(1)
	}
	openaiClient, err := openai.NewClient(log)
	if err != nil {
		log.Error("Could not init OpenAIClient", "error", err)
		os.Exit(1)
	}
	notifier, err := services.NewStepNotifier(log)
	if err != nil {
		log.Error("Could not init StepNotifier", "error", err)
		os.Exit(1)
	}
	defer notifier.Close()

	mediaTools := localmedia.New(log)
	if err := mediaTools.AssertReady(ctx); err != nil {
		log.Warn("local media tools not fully available; PDF uploads will fail", "error", err)
	}

	// Pipeline
	dispatcher := homework.NewDispatcher(log)
	registry := steps.DefaultRegistry(steps.Deps{
		Runs:   runRepo,
		Tasks:  taskRepo,
		Media:  mediaRepo,
		Blob:   bucketService,
		AI:     openaiClient,
		Tools:  mediaTools,
		Notify: notifier,
		Log:    log,
	})

	// Services
	log.Info("Setting up services from main...")
	homeworkService := services.NewHomeworkService(log, runRepo, taskRepo, mediaRepo, bucketService, openaiClient, registry, dispatcher)
	userService := services.NewUserService(log, userRepo)
	gameService := services.NewGameService(log, serverRepo)

	// Handlers
	log.Info("Setting up handlers from main...")
	router := server.NewRouter(server.RouterConfig{
		HealthHandler:   handlers.NewHealthHandler(),
		HomeworkHandler: handlers.NewHomeworkHandler(log, homeworkService),
		UserHandler:     handlers.NewUserHandler(log, userService),
		ServerHandler:   handlers.NewServerHandler(log, gameService),
	})

	port := envutil.Str("PORT", "8080")
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	redisclient "github.com/archalign/validation-backend/internal/clients/redis"
	"github.com/archalign/validation-backend/internal/db"
	"github.com/archalign/validation-backend/internal/handlers"
	"github.com/archalign/validation-backend/internal/logger"
	"github.com/archalign/validation-backend/internal/middleware"
	"github.com/archalign/validation-backend/internal/observability"
	"github.com/archalign/validation-backend/internal/repos"
	"github.com/archalign/validation-backend/internal/server"
	"github.com/archalign/validation-backend/internal/services"
	"github.com/archalign/validation-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Env
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "", log)
	if jwtSecretKey == "" {
		log.Fatal("JWT_SECRET_KEY is required")
	}
	workerPollSeconds := utils.GetEnvAsInt("CYCLE_WORKER_POLL_SECONDS", 1, log)
	staleRunningMinutes := utils.GetEnvAsInt("CYCLE_STALE_RUNNING_MINUTES", 5, log)

	// Tracing
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "validation-backend",
		Environment: utils.GetEnv("ENVIRONMENT", "development", nil),
		Version:     utils.GetEnv("SERVICE_VERSION", "dev", nil),
	})
	if otelShutdown != nil {
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = otelShutdown(shutdownCtx)
		}()
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

	// Redis (probe only; optional)
	var cacheProbe redisclient.Probe
	if probe, pErr := redisclient.NewProbe(log); pErr != nil {
		log.Warn("Redis probe unavailable", "error", pErr)
	} else {
		cacheProbe = probe
		defer cacheProbe.Close()
	}

	// Metrics
	metrics := observability.Init(log)
	metrics.StartProbes(ctx, postgresService, cacheProbe)

	// Repos
	log.Info("Setting up repos...")
	cycleRepo := repos.NewValidationCycleRepo(thePG, log)
	issueRepo := repos.NewValidationIssueRepo(thePG, log)
	ruleRepo := repos.NewValidationRuleRepo(thePG, log)
	exceptionRepo := repos.NewValidationExceptionRepo(thePG, log)
	scorecardRepo := repos.NewValidationScorecardRepo(thePG, log)
	matrixRepo := repos.NewTraceabilityMatrixRepo(thePG, log)
	elementRepo := repos.NewArchitectureElementRepo(thePG, log)
	relationshipRepo := repos.NewElementRelationshipRepo(thePG, log)

	// Services
	log.Info("Setting up services...")
	authService := services.NewAuthService(log, jwtSecretKey)
	cycleService := services.NewCycleService(thePG, log, cycleRepo)
	issueService := services.NewIssueService(thePG, log, issueRepo)
	ruleService := services.NewRuleService(thePG, log, ruleRepo)
	exceptionService := services.NewExceptionService(thePG, log, exceptionRepo, ruleRepo, issueRepo)
	scorecardService := services.NewScorecardService(thePG, log, cycleRepo, scorecardRepo)
	matrixService := services.NewMatrixService(thePG, log, matrixRepo, elementRepo, relationshipRepo)
	elementService := services.NewElementService(thePG, log, elementRepo, relationshipRepo)
	evaluatorService := services.NewEvaluatorService(log)

	if seeded, sErr := ruleService.SeedDefaults(ctx); sErr != nil {
		log.Error("Failed to seed default rules", "error", sErr)
		os.Exit(1)
	} else if seeded > 0 {
		log.Info("Default rule catalog seeded", "rules", seeded)
	}

	// Cycle worker
	var cycleMetrics services.CycleMetrics
	if metrics != nil {
		cycleMetrics = metrics
	}
	worker := services.NewCycleWorker(
		thePG,
		log,
		services.CycleWorkerConfig{
			PollInterval: time.Duration(workerPollSeconds) * time.Second,
			StaleRunning: time.Duration(staleRunningMinutes) * time.Minute,
		},
		cycleRepo,
		ruleRepo,
		issueRepo,
		elementRepo,
		relationshipRepo,
		exceptionRepo,
		scorecardRepo,
		evaluatorService,
		scorecardService,
		matrixService,
		cycleMetrics,
	)
	worker.Start(ctx)

	// Handlers
	log.Info("Setting up handlers...")
	cycleHandler := handlers.NewCycleHandler(log, cycleService)
	issueHandler := handlers.NewIssueHandler(log, issueService)
	scorecardHandler := handlers.NewScorecardHandler(log, scorecardService)
	matrixHandler := handlers.NewMatrixHandler(log, matrixService)
	exceptionHandler := handlers.NewExceptionHandler(log, exceptionService)
	ruleHandler := handlers.NewRuleHandler(log, ruleService)
	elementHandler := handlers.NewElementHandler(log, elementService)
	healthHandler := handlers.NewHealthHandler(log, postgresService, cacheProbe)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware:   authMiddleware,
		CycleHandler:     cycleHandler,
		IssueHandler:     issueHandler,
		ScorecardHandler: scorecardHandler,
		MatrixHandler:    matrixHandler,
		ExceptionHandler: exceptionHandler,
		RuleHandler:      ruleHandler,
		ElementHandler:   elementHandler,
		HealthHandler:    healthHandler,
		Metrics:          metrics,
		AllowOrigins:     server.ParseOrigins(utils.GetEnv("CORS_ALLOW_ORIGINS", "", nil)),
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}

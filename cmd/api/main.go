package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/imobflow/leadrotor/api/routes"
	"github.com/imobflow/leadrotor/internal/checkpoint"
	"github.com/imobflow/leadrotor/internal/enforcement"
	"github.com/imobflow/leadrotor/internal/health"
	"github.com/imobflow/leadrotor/internal/history"
	"github.com/imobflow/leadrotor/internal/queue"
	"github.com/imobflow/leadrotor/internal/redistribution"
	"github.com/imobflow/leadrotor/internal/rotation"
	"github.com/imobflow/leadrotor/pkg/config"
	"github.com/imobflow/leadrotor/pkg/db"
	"github.com/imobflow/leadrotor/pkg/logger"
	"github.com/imobflow/leadrotor/pkg/metrics"
	"github.com/imobflow/leadrotor/pkg/migrate"
	"github.com/imobflow/leadrotor/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	location, err := cfg.Rotation.Location()
	if err != nil {
		logg.Error(context.Background(), "failed to resolve rotation timezone", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	rotationMetrics := metrics.NewRotationMetrics(registry)

	gormDB := dbClient.DB()
	agentRepo := queue.NewRepository(gormDB)
	leadRepo := rotation.NewLeadRepository(gormDB)
	checkpointRepo := checkpoint.NewRepository(gormDB)
	historyRepo := history.NewRepository(gormDB)
	recordRepo := enforcement.NewRepository(gormDB)
	jobRepo := redistribution.NewRepository(gormDB)
	queueRepo := redistribution.NewQueueRepository(gormDB)

	settingsService, err := rotation.NewSettingsService(rotation.NewSettingsRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create settings service", err)
		os.Exit(1)
	}

	notifier := rotation.NewEventNotifier(logg, redisClient)

	scheduler, err := rotation.NewScheduler(rotation.SchedulerParams{
		Logger:      logg,
		DB:          dbClient,
		Agents:      agentRepo,
		Leads:       leadRepo,
		Checkpoints: checkpointRepo,
		Settings:    settingsService,
		History:     historyRepo,
		Location:    location,
		Metrics:     rotationMetrics,
		Notifier:    notifier,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create rotation scheduler", err)
		os.Exit(1)
	}

	enforcementService, err := enforcement.NewService(enforcement.ServiceParams{
		Logger:  logg,
		DB:      dbClient,
		Agents:  agentRepo,
		Records: recordRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create enforcement service", err)
		os.Exit(1)
	}

	evaluator, err := health.NewClient(cfg.Evaluator.BaseURL, cfg.Evaluator.Timeout)
	if err != nil {
		logg.Error(context.Background(), "failed to create health evaluator client", err)
		os.Exit(1)
	}

	checkpointService, err := checkpoint.NewService(checkpoint.ServiceParams{
		Logger:        logg,
		Agents:        agentRepo,
		Checkpoints:   checkpointRepo,
		Evaluator:     evaluator,
		Enforcer:      enforcementService,
		RunNowRetries: cfg.Checkpoint.RunNowRetries,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkpoint service", err)
		os.Exit(1)
	}

	redistributionService, err := redistribution.NewService(redistribution.ServiceParams{
		Logger: logg,
		DB:     dbClient,
		Jobs:   jobRepo,
		Queues: queueRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create redistribution service", err)
		os.Exit(1)
	}

	historyService, err := history.NewService(historyRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create history service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			scheduler,
			settingsService,
			checkpointService,
			enforcementService,
			redistributionService,
			historyService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

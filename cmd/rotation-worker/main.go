package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/imobflow/leadrotor/internal/checkpoint"
	"github.com/imobflow/leadrotor/internal/enforcement"
	"github.com/imobflow/leadrotor/internal/health"
	"github.com/imobflow/leadrotor/internal/history"
	"github.com/imobflow/leadrotor/internal/queue"
	"github.com/imobflow/leadrotor/internal/rotation"
	"github.com/imobflow/leadrotor/internal/sched"
	"github.com/imobflow/leadrotor/pkg/config"
	"github.com/imobflow/leadrotor/pkg/db"
	"github.com/imobflow/leadrotor/pkg/logger"
	"github.com/imobflow/leadrotor/pkg/metrics"
	"github.com/imobflow/leadrotor/pkg/migrate"
	"github.com/imobflow/leadrotor/pkg/redis"
)

// The tick loop runs every few seconds; checkpoint recompute piggybacks on
// the same cadence because ListDue only returns agents whose schedule has
// actually arrived.
func main() {
	logg := logger.New(logger.Options{ServiceName: "rotation-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "rotation-worker"

	logg = logger.New(logger.Options{
		ServiceName: "rotation-worker",
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

	rotationMetrics := metrics.NewRotationMetrics(prometheus.DefaultRegisterer)
	jobMetrics := metrics.NewJobMetrics(prometheus.DefaultRegisterer)

	gormDB := dbClient.DB()
	agentRepo := queue.NewRepository(gormDB)
	checkpointRepo := checkpoint.NewRepository(gormDB)

	settingsService, err := rotation.NewSettingsService(rotation.NewSettingsRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create settings service", err)
		os.Exit(1)
	}

	scheduler, err := rotation.NewScheduler(rotation.SchedulerParams{
		Logger:      logg,
		DB:          dbClient,
		Agents:      agentRepo,
		Leads:       rotation.NewLeadRepository(gormDB),
		Checkpoints: checkpointRepo,
		Settings:    settingsService,
		History:     history.NewRepository(gormDB),
		Location:    location,
		Metrics:     rotationMetrics,
		Notifier:    rotation.NewEventNotifier(logg, redisClient),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create rotation scheduler", err)
		os.Exit(1)
	}

	enforcementService, err := enforcement.NewService(enforcement.ServiceParams{
		Logger:  logg,
		DB:      dbClient,
		Agents:  agentRepo,
		Records: enforcement.NewRepository(gormDB),
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

	tickJob, err := sched.NewRotationTickJob(scheduler)
	if err != nil {
		logg.Error(context.Background(), "failed to create rotation tick job", err)
		os.Exit(1)
	}
	recomputeJob, err := sched.NewCheckpointRecomputeJob(checkpointService)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkpoint recompute job", err)
		os.Exit(1)
	}

	lock, err := sched.NewRedisLock(redisClient, redisClient.LockKey("rotation-worker"), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create worker lock", err)
		os.Exit(1)
	}

	service, err := sched.NewService(sched.ServiceParams{
		Logger:   logg,
		Registry: sched.NewRegistry(tickJob, recomputeJob),
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Rotation.TickInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting rotation worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "rotation worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "rotation worker shutting down gracefully")
}

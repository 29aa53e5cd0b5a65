package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/imobflow/leadrotor/internal/history"
	"github.com/imobflow/leadrotor/internal/redistribution"
	"github.com/imobflow/leadrotor/internal/rotation"
	"github.com/imobflow/leadrotor/internal/sched"
	"github.com/imobflow/leadrotor/pkg/config"
	"github.com/imobflow/leadrotor/pkg/db"
	"github.com/imobflow/leadrotor/pkg/logger"
	"github.com/imobflow/leadrotor/pkg/metrics"
	"github.com/imobflow/leadrotor/pkg/migrate"
	"github.com/imobflow/leadrotor/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "redistribution-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "redistribution-worker"

	logg = logger.New(logger.Options{
		ServiceName: "redistribution-worker",
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

	jobMetrics := metrics.NewJobMetrics(prometheus.DefaultRegisterer)

	gormDB := dbClient.DB()
	processor, err := redistribution.NewProcessor(redistribution.ProcessorParams{
		Logger:   logg,
		DB:       dbClient,
		Jobs:     redistribution.NewRepository(gormDB),
		Leads:    rotation.NewLeadRepository(gormDB),
		History:  history.NewRepository(gormDB),
		Metrics:  jobMetrics,
		Notifier: rotation.NewEventNotifier(logg, redisClient),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create batch processor", err)
		os.Exit(1)
	}

	drainJob, err := sched.NewRedistributionDrainJob(processor)
	if err != nil {
		logg.Error(context.Background(), "failed to create drain job", err)
		os.Exit(1)
	}

	lock, err := sched.NewRedisLock(redisClient, redisClient.LockKey("redistribution-worker"), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create worker lock", err)
		os.Exit(1)
	}

	service, err := sched.NewService(sched.ServiceParams{
		Logger:   logg,
		Registry: sched.NewRegistry(drainJob),
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Redistribution.PollInterval,
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
	logg.Info(ctx, "starting redistribution worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "redistribution worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "redistribution worker shutting down gracefully")
}

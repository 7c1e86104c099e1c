package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/provenly/backend/internal/audit"
	"github.com/provenly/backend/pkg/bigquery"
	"github.com/provenly/backend/pkg/config"
	"github.com/provenly/backend/pkg/instance"
	"github.com/provenly/backend/pkg/logger"
	"github.com/provenly/backend/pkg/outbox/idempotency"
	"github.com/provenly/backend/pkg/pubsub"
	"github.com/provenly/backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "audit-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "audit-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithField(ctx, "instance", instance.GetID())

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub", err)
		}
	}()

	bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap bigquery", err)
		os.Exit(1)
	}
	defer func() {
		if err := bqClient.Close(); err != nil {
			logg.Error(ctx, "error closing bigquery", err)
		}
	}()

	manager, err := idempotency.NewManager(redisClient, cfg.Idempotency.TTL)
	if err != nil {
		logg.Error(ctx, "failed to build idempotency manager", err)
		os.Exit(1)
	}

	ledgerArchiver, err := audit.NewArchiver(bqClient, cfg.BigQuery.AuditEventsTable, pubsubClient.LedgerSubscription(), manager, audit.RetryPolicy{}, logg)
	if err != nil {
		logg.Error(ctx, "failed to build ledger archiver", err)
		os.Exit(1)
	}
	accessArchiver, err := audit.NewArchiver(bqClient, cfg.BigQuery.AuditEventsTable, pubsubClient.AccessSubscription(), manager, audit.RetryPolicy{}, logg)
	if err != nil {
		logg.Error(ctx, "failed to build access archiver", err)
		os.Exit(1)
	}

	logg.Info(logg.WithField(ctx, "env", cfg.App.Env), "starting audit worker")

	errs := make(chan error, 2)
	go func() { errs <- ledgerArchiver.Run(ctx) }()
	go func() { errs <- accessArchiver.Run(ctx) }()

	if err := <-errs; err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "audit worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "audit worker shutting down")
}

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/provenly/backend/internal/notifications"
	"github.com/provenly/backend/pkg/config"
	"github.com/provenly/backend/pkg/db"
	"github.com/provenly/backend/pkg/instance"
	"github.com/provenly/backend/pkg/logger"
	"github.com/provenly/backend/pkg/outbox/idempotency"
	"github.com/provenly/backend/pkg/pubsub"
	"github.com/provenly/backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "notification-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "notification-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithField(ctx, "instance", instance.GetID())

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

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

	manager, err := idempotency.NewManager(redisClient, cfg.Idempotency.TTL)
	if err != nil {
		logg.Error(ctx, "failed to build idempotency manager", err)
		os.Exit(1)
	}

	repo := notifications.NewRepository(dbClient.DB())

	ledgerConsumer, err := notifications.NewConsumer(repo, pubsubClient.LedgerSubscription(), manager, logg)
	if err != nil {
		logg.Error(ctx, "failed to build ledger consumer", err)
		os.Exit(1)
	}
	accessConsumer, err := notifications.NewConsumer(repo, pubsubClient.AccessSubscription(), manager, logg)
	if err != nil {
		logg.Error(ctx, "failed to build access consumer", err)
		os.Exit(1)
	}

	logg.Info(logg.WithField(ctx, "env", cfg.App.Env), "starting notification worker")

	errs := make(chan error, 2)
	go func() { errs <- ledgerConsumer.Run(ctx) }()
	go func() { errs <- accessConsumer.Run(ctx) }()

	if err := <-errs; err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "notification worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "notification worker shutting down")
}

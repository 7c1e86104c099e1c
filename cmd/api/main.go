package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/provenly/backend/api/routes"
	"github.com/provenly/backend/internal/access"
	"github.com/provenly/backend/internal/history"
	"github.com/provenly/backend/internal/holdings"
	"github.com/provenly/backend/internal/identity"
	"github.com/provenly/backend/internal/notifications"
	"github.com/provenly/backend/internal/registry"
	"github.com/provenly/backend/pkg/auth/session"
	"github.com/provenly/backend/pkg/config"
	"github.com/provenly/backend/pkg/db"
	"github.com/provenly/backend/pkg/logger"
	"github.com/provenly/backend/pkg/metrics"
	"github.com/provenly/backend/pkg/migrate"
	"github.com/provenly/backend/pkg/outbox"
	"github.com/provenly/backend/pkg/redis"
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	ledgerMetrics := metrics.NewLedgerMetrics(promRegistry)

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	accessRepo := access.NewRepository(dbClient.DB())
	accessService, err := access.NewService(accessRepo, dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create access service", err)
		os.Exit(1)
	}

	historyRepo := history.NewRepository(dbClient.DB())
	holdingsRepo := holdings.NewRepository(dbClient.DB())
	itemsRepo := registry.NewRepository(dbClient.DB())

	registryService, err := registry.NewService(registry.ServiceParams{
		Items: itemsRepo,
		Checkpoints: func(tx *gorm.DB) registry.CheckpointStore {
			return historyRepo.WithTx(tx)
		},
		Holdings: func(tx *gorm.DB) registry.HoldingStore {
			return holdingsRepo.WithTx(tx)
		},
		Guard:    accessService,
		Tx:       dbClient,
		Recorder: outboxService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create registry service", err)
		os.Exit(1)
	}

	historyService, err := history.NewService(history.ServiceParams{
		Checkpoints: historyRepo,
		Items: func(tx *gorm.DB) history.ItemStore {
			return itemsRepo.WithTx(tx)
		},
		Guard:    accessService,
		Tx:       dbClient,
		Recorder: outboxService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create history service", err)
		os.Exit(1)
	}

	holdingsService, err := holdings.NewService(holdingsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create holdings service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	identityService, err := identity.NewService(identity.ServiceParams{
		Users:          identity.NewRepository(dbClient.DB()),
		Roles:          accessService,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create identity service", err)
		os.Exit(1)
	}

	if cfg.Admin.ActorID != "" {
		adminID, err := uuid.Parse(cfg.Admin.ActorID)
		if err != nil {
			logg.Error(context.Background(), "invalid admin actor id", err)
			os.Exit(1)
		}
		if err := accessService.EnsureAdministrator(context.Background(), adminID); err != nil {
			logg.Error(context.Background(), "failed to seed administrator", err)
			os.Exit(1)
		}
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
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Sessions:      sessionManager,
			Gatherer:      promRegistry,
			Metrics:       ledgerMetrics,
			Identity:      identityService,
			Registry:      registryService,
			History:       historyService,
			Holdings:      holdingsService,
			Access:        accessService,
			Notifications: notificationsService,
		}),
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-shutdown
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "graceful shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/streamvault-backend/internal/creators"
	"github.com/angelmondragon/streamvault-backend/internal/notifications"
	"github.com/angelmondragon/streamvault-backend/pkg/config"
	"github.com/angelmondragon/streamvault-backend/pkg/db"
	"github.com/angelmondragon/streamvault-backend/pkg/instance"
	"github.com/angelmondragon/streamvault-backend/pkg/logger"
	"github.com/angelmondragon/streamvault-backend/pkg/migrate"
	"github.com/angelmondragon/streamvault-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/streamvault-backend/pkg/pubsub"
	"github.com/angelmondragon/streamvault-backend/pkg/redis"
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

	cfg.Service.Kind = "notification-worker"

	logg = logger.New(logger.Options{
		ServiceName: "notification-worker",
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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	manager, err := idempotency.NewManager(redisClient, cfg.Outbox.IdempotencyTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency manager", err)
		os.Exit(1)
	}

	consumer, err := notifications.NewConsumer(
		notifications.NewRepository(dbClient.DB()),
		creators.NewRepository(dbClient.DB()),
		pubsubClient.NotificationSubscription(),
		manager,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification consumer", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:               cfg,
		Logger:               logg,
		DB:                   dbClient,
		Redis:                redisClient,
		PubSub:               pubsubClient,
		NotificationConsumer: consumer,
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
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting notification worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "notification worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "notification worker shutting down gracefully")
}

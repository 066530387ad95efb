package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/angelmondragon/streamvault-backend/api/routes"
	"github.com/angelmondragon/streamvault-backend/internal/adminops"
	"github.com/angelmondragon/streamvault-backend/internal/creators"
	"github.com/angelmondragon/streamvault-backend/internal/fraud"
	"github.com/angelmondragon/streamvault-backend/internal/ledger"
	"github.com/angelmondragon/streamvault-backend/internal/notifications"
	"github.com/angelmondragon/streamvault-backend/internal/offers"
	"github.com/angelmondragon/streamvault-backend/internal/payouts"
	"github.com/angelmondragon/streamvault-backend/internal/tiers"
	"github.com/angelmondragon/streamvault-backend/internal/wallets"
	"github.com/angelmondragon/streamvault-backend/pkg/auth/session"
	"github.com/angelmondragon/streamvault-backend/pkg/bigquery"
	"github.com/angelmondragon/streamvault-backend/pkg/config"
	"github.com/angelmondragon/streamvault-backend/pkg/db"
	"github.com/angelmondragon/streamvault-backend/pkg/logger"
	"github.com/angelmondragon/streamvault-backend/pkg/migrate"
	"github.com/angelmondragon/streamvault-backend/pkg/outbox"
	"github.com/angelmondragon/streamvault-backend/pkg/redis"
	"github.com/google/uuid"
)

// payoutRejectorHolder breaks the constructor cycle between the fraud monitor
// and the payout workflow. Fraud is built first against the holder; the payout
// service is plugged in once it exists.
type payoutRejectorHolder struct {
	svc payouts.Service
}

func (h *payoutRejectorHolder) ForceRejectOpen(ctx context.Context, tx *gorm.DB, creatorID uuid.UUID, reason string) error {
	return h.svc.ForceRejectOpen(ctx, tx, creatorID, reason)
}

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

	// The API only reads BigQuery health, never writes to it, so a reporting
	// outage must not block boot.
	var bigqueryPinger bigquery.Pinger
	bigqueryClient, err := bigquery.NewClient(context.Background(), cfg.GCP, cfg.BigQuery, logg)
	if err != nil {
		logg.Warn(logg.WithField(context.Background(), "error", err.Error()), "bigquery unavailable, readiness will report it skipped")
	} else {
		bigqueryPinger = bigqueryClient
		defer func() {
			if err := bigqueryClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing bigquery client", err)
			}
		}()
	}

	svcs, err := buildServices(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, bigqueryPinger, sessionManager, svcs, promhttp.Handler()),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (routes.Services, error) {
	gormDB := dbClient.DB()

	creatorsRepo := creators.NewRepository(gormDB)
	ledgerRepo := ledger.NewRepository(gormDB)
	payoutsRepo := payouts.NewRepository(gormDB)
	tiersRepo := tiers.NewRepository(gormDB)
	fraudRepo := fraud.NewRepository(gormDB)
	walletsRepo := wallets.NewRepository(gormDB)
	offersRepo := offers.NewRepository(gormDB)
	notificationsRepo := notifications.NewRepository(gormDB)

	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)

	ledgerSvc, err := ledger.NewService(ledgerRepo, dbClient, outboxSvc)
	if err != nil {
		return routes.Services{}, err
	}

	tierPolicy, err := tiers.NewPolicy(cfg.Tiers)
	if err != nil {
		return routes.Services{}, err
	}
	tiersSvc, err := tiers.NewService(tiersRepo, creatorsRepo, tierPolicy, dbClient, outboxSvc)
	if err != nil {
		return routes.Services{}, err
	}

	creatorsSvc, err := creators.NewService(creatorsRepo, dbClient, ledgerSvc, tiersSvc, cfg.Pin)
	if err != nil {
		return routes.Services{}, err
	}

	walletsSvc, err := wallets.NewService(walletsRepo)
	if err != nil {
		return routes.Services{}, err
	}

	rejector := &payoutRejectorHolder{}
	fraudSvc, err := fraud.NewService(fraudRepo, creatorsRepo, rejector, dbClient, outboxSvc)
	if err != nil {
		return routes.Services{}, err
	}

	payoutsSvc, err := payouts.NewService(payoutsRepo, creatorsRepo, ledgerRepo, walletsSvc, creatorsSvc, fraudSvc, dbClient, outboxSvc, cfg.Payout)
	if err != nil {
		return routes.Services{}, err
	}
	rejector.svc = payoutsSvc

	offersSvc, err := offers.NewService(offersRepo, ledgerRepo, ledgerSvc, dbClient)
	if err != nil {
		return routes.Services{}, err
	}

	notificationsSvc, err := notifications.NewService(notificationsRepo)
	if err != nil {
		return routes.Services{}, err
	}

	adminOpsSvc, err := adminops.NewService(creatorsRepo, ledgerSvc, dbClient, logg)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Creators:      creatorsSvc,
		Ledger:        ledgerSvc,
		Payouts:       payoutsSvc,
		Tiers:         tiersSvc,
		Fraud:         fraudSvc,
		Wallets:       walletsSvc,
		Offers:        offersSvc,
		Notifications: notificationsSvc,
		AdminOps:      adminOpsSvc,
	}, nil
}

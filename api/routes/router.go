package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/streamvault-backend/api/controllers"
	"github.com/angelmondragon/streamvault-backend/api/middleware"
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
	"github.com/angelmondragon/streamvault-backend/pkg/enums"
	"github.com/angelmondragon/streamvault-backend/pkg/logger"
	"github.com/angelmondragon/streamvault-backend/pkg/redis"
)

// SessionManager is the session surface the HTTP layer needs: validation for
// the auth middleware plus issuance, rotation, and revocation for the session
// endpoints. *session.Manager satisfies it.
type SessionManager interface {
	session.AccessSessionChecker
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// Services bundles the domain services the router mounts.
type Services struct {
	Creators      creators.Service
	Ledger        ledger.Service
	Payouts       payouts.Service
	Tiers         tiers.Service
	Fraud         fraud.Service
	Wallets       wallets.Service
	Offers        offers.Service
	Notifications notifications.Service
	AdminOps      adminops.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	bigqueryClient bigquery.Pinger,
	sessions SessionManager,
	svcs Services,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	withdrawalPolicy := middleware.NewThrottlePolicy(
		"withdrawals",
		cfg.Throttle.WithdrawalWindow,
		cfg.Throttle.WithdrawalIPLimit,
		cfg.Throttle.WithdrawalUserLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient, bigqueryClient))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Get("/api/public/ping", controllers.PublicPing())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/refresh", controllers.RefreshSession(cfg.JWT, sessions, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessions, logg))
			r.Use(middleware.Idempotency(redisClient, logg))

			r.Post("/auth/logout", controllers.Logout(sessions, logg))
			r.Get("/ping", controllers.PrivatePing())

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
				r.Post("/{notificationID}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.CreatorContext(logg))

				r.Get("/balance", controllers.CreatorBalance(svcs.Ledger, logg))
				r.Get("/tier-status", controllers.CreatorTierStatus(svcs.Tiers, logg))
				r.Put("/pin", controllers.CreatorSetPin(svcs.Creators, logg))

				r.Route("/withdrawals", func(r chi.Router) {
					r.With(middleware.Throttle(withdrawalPolicy, redisClient, logg)).
						Post("/", controllers.CreatorSubmitWithdrawal(svcs.Payouts, logg))
					r.Get("/", controllers.CreatorListWithdrawals(svcs.Payouts, logg))
					r.Get("/{payoutID}", controllers.CreatorWithdrawalDetail(svcs.Payouts, logg))
				})

				r.Route("/wallet", func(r chi.Router) {
					r.Get("/", controllers.CreatorGetWallet(svcs.Wallets, logg))
					r.Put("/", controllers.CreatorPutWallet(svcs.Wallets, logg))
					r.Delete("/", controllers.CreatorDeleteWallet(svcs.Wallets, logg))
				})

				r.Post("/offers/redeem", controllers.CreatorRedeemOffer(svcs.Offers, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.RequireRole(string(enums.RoleAdmin), logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.AdminPing())

		r.Route("/creators", func(r chi.Router) {
			r.Get("/", controllers.AdminListCreators(svcs.Creators, logg))
			r.Post("/bonus", controllers.AdminMassBonus(svcs.AdminOps, logg))
			r.Post("/{creatorID}/balance", controllers.AdminAdjustBalance(svcs.AdminOps, logg))
		})

		r.Route("/payouts", func(r chi.Router) {
			r.Get("/", controllers.AdminListPayouts(svcs.Payouts, logg))
			r.Post("/{payoutID}", controllers.AdminPayoutDecision(svcs.Payouts, logg))
		})

		r.Route("/tiers", func(r chi.Router) {
			r.Get("/", controllers.AdminListEligibleTiers(svcs.Tiers, logg))
			r.Post("/{creatorID}", controllers.AdminTierDecision(svcs.Tiers, logg))
		})

		r.Route("/fraud-flags", func(r chi.Router) {
			r.Get("/", controllers.AdminListFraudFlags(svcs.Fraud, logg))
			r.Post("/", controllers.AdminRaiseFraudFlag(svcs.Fraud, logg))
			r.Patch("/{flagID}", controllers.AdminUpdateFraudFlag(svcs.Fraud, logg))
		})

		r.Route("/offers", func(r chi.Router) {
			r.Get("/", controllers.AdminListOffers(svcs.Offers, logg))
			r.Post("/", controllers.AdminCreateOffer(svcs.Offers, logg))
			r.Delete("/{offerID}", controllers.AdminDeactivateOffer(svcs.Offers, logg))
		})
	})

	r.Route("/api/internal/v1", func(r chi.Router) {
		r.Use(middleware.ServiceToken(cfg.Ingestion.ServiceToken, logg))
		r.Post("/views", controllers.InternalRecordViews(svcs.Creators, logg))
		r.Post("/sessions", controllers.InternalIssueSession(cfg.JWT, sessions, logg))
	})

	return r
}

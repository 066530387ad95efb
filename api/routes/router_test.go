package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/streamvault-backend/internal/adminops"
	"github.com/angelmondragon/streamvault-backend/internal/creators"
	"github.com/angelmondragon/streamvault-backend/internal/fraud"
	"github.com/angelmondragon/streamvault-backend/internal/ledger"
	"github.com/angelmondragon/streamvault-backend/internal/notifications"
	"github.com/angelmondragon/streamvault-backend/internal/offers"
	"github.com/angelmondragon/streamvault-backend/internal/payouts"
	"github.com/angelmondragon/streamvault-backend/internal/tiers"
	"github.com/angelmondragon/streamvault-backend/internal/wallets"
	pkgAuth "github.com/angelmondragon/streamvault-backend/pkg/auth"
	"github.com/angelmondragon/streamvault-backend/pkg/auth/session"
	"github.com/angelmondragon/streamvault-backend/pkg/config"
	"github.com/angelmondragon/streamvault-backend/pkg/db/models"
	"github.com/angelmondragon/streamvault-backend/pkg/enums"
	"github.com/angelmondragon/streamvault-backend/pkg/logger"
	"github.com/angelmondragon/streamvault-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func (stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	return "refresh-" + accessID, nil
}

func (stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return "rotated-access-id", "rotated-refresh", nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	return nil
}

type stubCreatorsService struct{}

func (stubCreatorsService) CreateAccount(ctx context.Context, userID uuid.UUID) (*models.CreatorAccount, error) {
	panic("unimplemented")
}

func (stubCreatorsService) GetByID(ctx context.Context, id uuid.UUID) (*models.CreatorAccount, error) {
	panic("unimplemented")
}

func (stubCreatorsService) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.CreatorAccount, error) {
	panic("unimplemented")
}

func (stubCreatorsService) List(ctx context.Context, limit, offset int) ([]models.CreatorAccount, error) {
	return nil, nil
}

func (stubCreatorsService) AccrueViewEarning(ctx context.Context, input creators.AccrueInput) (*creators.AccrueResult, error) {
	return &creators.AccrueResult{Views: input.Views, Tier: enums.TierBronze}, nil
}

func (stubCreatorsService) RecordUpload(ctx context.Context, creatorID uuid.UUID) error {
	return nil
}

func (stubCreatorsService) SetPin(ctx context.Context, creatorID uuid.UUID, pin string) error {
	return nil
}

func (stubCreatorsService) VerifyPin(ctx context.Context, creatorID uuid.UUID, pin string) error {
	return nil
}

type stubLedgerService struct{}

func (stubLedgerService) RecordEntry(ctx context.Context, input ledger.RecordEntryInput) (*models.LedgerEntry, error) {
	panic("unimplemented")
}

func (stubLedgerService) RecordEntryTx(ctx context.Context, tx *gorm.DB, input ledger.RecordEntryInput) (*models.LedgerEntry, error) {
	panic("unimplemented")
}

func (stubLedgerService) Balance(ctx context.Context, creatorID uuid.UUID) (int64, error) {
	return 0, nil
}

func (stubLedgerService) History(ctx context.Context, creatorID uuid.UUID, limit int) ([]models.LedgerEntry, error) {
	return nil, nil
}

func (stubLedgerService) Totals(ctx context.Context, creatorID uuid.UUID) (ledger.Totals, error) {
	return ledger.Totals{}, nil
}

type stubPayoutsService struct{}

func (stubPayoutsService) Submit(ctx context.Context, input payouts.SubmitInput) (*models.PayoutRequest, error) {
	panic("unimplemented")
}

func (stubPayoutsService) Approve(ctx context.Context, input payouts.DecisionInput) (*models.PayoutRequest, error) {
	panic("unimplemented")
}

func (stubPayoutsService) Complete(ctx context.Context, input payouts.CompleteInput) (*models.PayoutRequest, error) {
	panic("unimplemented")
}

func (stubPayoutsService) Reject(ctx context.Context, input payouts.RejectInput) (*models.PayoutRequest, error) {
	panic("unimplemented")
}

func (stubPayoutsService) ForceRejectOpen(ctx context.Context, tx *gorm.DB, creatorID uuid.UUID, reason string) error {
	return nil
}

func (stubPayoutsService) GetByID(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error) {
	panic("unimplemented")
}

func (stubPayoutsService) ListByCreator(ctx context.Context, creatorID uuid.UUID, limit int) ([]models.PayoutRequest, error) {
	return nil, nil
}

func (stubPayoutsService) ListByStatus(ctx context.Context, status enums.PayoutStatus, limit, offset int) ([]models.PayoutRequest, error) {
	return nil, nil
}

type stubTiersService struct{}

func (stubTiersService) Status(ctx context.Context, creatorID uuid.UUID) (*tiers.Status, error) {
	return &tiers.Status{CreatorID: creatorID, CurrentTier: enums.TierBronze}, nil
}

func (stubTiersService) ListEligible(ctx context.Context) ([]tiers.Eligible, error) {
	return nil, nil
}

func (stubTiersService) Approve(ctx context.Context, input tiers.DecisionInput) (*models.TierState, error) {
	panic("unimplemented")
}

func (stubTiersService) Deny(ctx context.Context, input tiers.DecisionInput) error {
	panic("unimplemented")
}

func (stubTiersService) CurrentTier(ctx context.Context, tx *gorm.DB, creatorID uuid.UUID) (enums.Tier, error) {
	return enums.TierBronze, nil
}

func (stubTiersService) RateForTier(tier enums.Tier) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

type stubFraudService struct{}

func (stubFraudService) Raise(ctx context.Context, input fraud.RaiseInput) (*models.FraudFlag, error) {
	panic("unimplemented")
}

func (stubFraudService) StartInvestigation(ctx context.Context, flagID uuid.UUID, actor fraud.Actor) (*models.FraudFlag, error) {
	panic("unimplemented")
}

func (stubFraudService) Resolve(ctx context.Context, input fraud.ResolveInput) (*models.FraudFlag, error) {
	panic("unimplemented")
}

func (stubFraudService) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.FraudFlag, error) {
	return nil, nil
}

func (stubFraudService) ListOpen(ctx context.Context, limit, offset int) ([]models.FraudFlag, error) {
	return nil, nil
}

func (stubFraudService) HasBlockingFlag(ctx context.Context, creatorID uuid.UUID) (bool, error) {
	return false, nil
}

func (stubFraudService) HasBlockingFlagTx(ctx context.Context, tx *gorm.DB, creatorID uuid.UUID) (bool, error) {
	return false, nil
}

type stubWalletsService struct{}

func (stubWalletsService) Get(ctx context.Context, creatorID uuid.UUID) (*models.Wallet, error) {
	return &models.Wallet{CreatorID: creatorID}, nil
}

func (stubWalletsService) Set(ctx context.Context, input wallets.SetInput) (*models.Wallet, error) {
	panic("unimplemented")
}

func (stubWalletsService) Remove(ctx context.Context, creatorID uuid.UUID) error {
	return nil
}

type stubOffersService struct{}

func (stubOffersService) Create(ctx context.Context, input offers.CreateInput) (*models.Offer, error) {
	panic("unimplemented")
}

func (stubOffersService) ListActive(ctx context.Context) ([]models.Offer, error) {
	return nil, nil
}

func (stubOffersService) Deactivate(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (stubOffersService) Redeem(ctx context.Context, input offers.RedeemInput) (*models.LedgerEntry, error) {
	panic("unimplemented")
}

type stubNotificationsService struct {
	listFn func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error)
}

func (s stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

type stubAdminOpsService struct{}

func (stubAdminOpsService) Fund(ctx context.Context, input adminops.AdjustInput) (*models.LedgerEntry, error) {
	panic("unimplemented")
}

func (stubAdminOpsService) Debit(ctx context.Context, input adminops.AdjustInput) (*models.LedgerEntry, error) {
	panic("unimplemented")
}

func (stubAdminOpsService) MassBonus(ctx context.Context, input adminops.MassBonusInput) (*adminops.MassBonusReport, error) {
	panic("unimplemented")
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "streamvault",
			ExpirationMinutes: 60,
		},
		Ingestion: config.IngestionConfig{ServiceToken: "svc-token"},
		Throttle: config.ThrottleConfig{
			WithdrawalWindow:    time.Minute,
			WithdrawalIPLimit:   30,
			WithdrawalUserLimit: 5,
		},
	}
}

func stubServices() Services {
	return Services{
		Creators:      stubCreatorsService{},
		Ledger:        stubLedgerService{},
		Payouts:       stubPayoutsService{},
		Tiers:         stubTiersService{},
		Fraud:         stubFraudService{},
		Wallets:       stubWalletsService{},
		Offers:        stubOffersService{},
		Notifications: stubNotificationsService{},
		AdminOps:      stubAdminOpsService{},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		nil,
		stubSessionManager{},
		stubServices(),
		nil,
	)
}

func TestHealthLiveAlwaysOK(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+buildCreatorToken(t, cfg, uuid.New()))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for private ping got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	nonAdmin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/ping", nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildCreatorToken(t, cfg, uuid.New()))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/ping", nil)
	admin.Header.Set("Authorization", "Bearer "+buildAdminToken(t, cfg))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestCreatorRoutesRequireCreatorContext(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	// Admin tokens carry no creator id, so creator-scoped routes refuse them.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/balance", nil)
	req.Header.Set("Authorization", "Bearer "+buildAdminToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without creator context got %d", resp.Code)
	}

	creatorReq := httptest.NewRequest(http.MethodGet, "/api/v1/balance", nil)
	creatorReq.Header.Set("Authorization", "Bearer "+buildCreatorToken(t, cfg, uuid.New()))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, creatorReq)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for creator balance got %d", resp.Code)
	}
}

func TestInternalViewsRequiresServiceToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	body := `{"creator_id":"` + uuid.NewString() + `","view_count":100}`

	req := httptest.NewRequest(http.MethodPost, "/api/internal/v1/views", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without service token got %d", resp.Code)
	}

	authed := httptest.NewRequest(http.MethodPost, "/api/internal/v1/views", strings.NewReader(body))
	authed.Header.Set("Content-Type", "application/json")
	authed.Header.Set("X-Service-Token", "svc-token")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, authed)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for authed view batch got %d", resp.Code)
	}
}

func TestNotificationListDoesNotNeedCreatorContext(t *testing.T) {
	cfg := testConfig()
	svcs := stubServices()
	captured := uuid.Nil
	svcs.Notifications = stubNotificationsService{
		listFn: func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
			captured = params.UserID
			return &notifications.ListResult{Items: []models.Notification{}}, nil
		},
	}
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
	router := NewRouter(cfg, logg, stubPinger{}, (*redis.Client)(nil), nil, stubSessionManager{}, svcs, nil)

	userID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
	req.Header.Set("Authorization", "Bearer "+buildAdminTokenForUser(t, cfg, userID))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for notification list got %d", resp.Code)
	}
	if captured != userID {
		t.Fatalf("expected list scoped to caller %s got %s", userID, captured)
	}
}

func buildCreatorToken(t *testing.T, cfg *config.Config, creatorID uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:    uuid.New(),
		CreatorID: &creatorID,
		Role:      enums.RoleCreator,
		JTI:       session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func buildAdminToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	return buildAdminTokenForUser(t, cfg, uuid.New())
}

func buildAdminTokenForUser(t *testing.T, cfg *config.Config, userID uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Role:   enums.RoleAdmin,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestInternalSessionIssuance(t *testing.T) {
	router := newTestRouter(testConfig())

	body := `{"user_id":"` + uuid.NewString() + `","role":"creator","creator_id":"` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/internal/v1/sessions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without service token got %d", resp.Code)
	}

	authed := httptest.NewRequest(http.MethodPost, "/api/internal/v1/sessions", strings.NewReader(body))
	authed.Header.Set("Content-Type", "application/json")
	authed.Header.Set("X-Service-Token", "svc-token")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, authed)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for session issuance got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "access_token") {
		t.Fatalf("expected token pair in response, got %s", resp.Body.String())
	}
}

func TestAuthRefreshDoesNotRequireValidAccessToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	token := buildCreatorToken(t, cfg, uuid.New())
	body := `{"access_token":"` + token + `","refresh_token":"some-refresh"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for refresh got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "rotated-refresh") {
		t.Fatalf("expected rotated refresh token, got %s", resp.Body.String())
	}
}

func TestAuthLogoutRequiresJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}

	authed := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	authed.Header.Set("Authorization", "Bearer "+buildCreatorToken(t, cfg, uuid.New()))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, authed)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for logout got %d", resp.Code)
	}
}

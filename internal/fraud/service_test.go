package fraud

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/streamvault-backend/internal/creators"
	"github.com/angelmondragon/streamvault-backend/pkg/db/models"
	"github.com/angelmondragon/streamvault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/streamvault-backend/pkg/errors"
	"github.com/angelmondragon/streamvault-backend/pkg/outbox"
)

type fakeFlagRepo struct {
	flags map[uuid.UUID]*models.FraudFlag
}

func newFakeFlagRepo() *fakeFlagRepo {
	return &fakeFlagRepo{flags: map[uuid.UUID]*models.FraudFlag{}}
}

func (f *fakeFlagRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeFlagRepo) Create(ctx context.Context, flag *models.FraudFlag) error {
	flag.ID = uuid.New()
	f.flags[flag.ID] = flag
	return nil
}

func (f *fakeFlagRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.FraudFlag, error) {
	flag, ok := f.flags[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return flag, nil
}

func (f *fakeFlagRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.FraudFlag, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeFlagRepo) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.FraudFlag, error) {
	return nil, nil
}

func (f *fakeFlagRepo) ListOpen(ctx context.Context, limit, offset int) ([]models.FraudFlag, error) {
	return nil, nil
}

func (f *fakeFlagRepo) Update(ctx context.Context, flag *models.FraudFlag) error {
	f.flags[flag.ID] = flag
	return nil
}

func (f *fakeFlagRepo) HasBlockingFlag(ctx context.Context, creatorID uuid.UUID) (bool, error) {
	for _, flag := range f.flags {
		if flag.CreatorID == creatorID && flag.Status == enums.FraudFlagStatusPending && flag.Severity.Blocking() {
			return true, nil
		}
	}
	return false, nil
}

type fakeAccountsRepo struct {
	accounts map[uuid.UUID]*models.CreatorAccount
}

func newFakeAccountsRepo() *fakeAccountsRepo {
	return &fakeAccountsRepo{accounts: map[uuid.UUID]*models.CreatorAccount{}}
}

func (f *fakeAccountsRepo) WithTx(tx *gorm.DB) creators.Repository { return f }

func (f *fakeAccountsRepo) Create(ctx context.Context, account *models.CreatorAccount) error {
	return nil
}

func (f *fakeAccountsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.CreatorAccount, error) {
	account, ok := f.accounts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return account, nil
}

func (f *fakeAccountsRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.CreatorAccount, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAccountsRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.CreatorAccount, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeAccountsRepo) List(ctx context.Context, limit, offset int) ([]models.CreatorAccount, error) {
	return nil, nil
}

func (f *fakeAccountsRepo) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	return nil, nil
}

func (f *fakeAccountsRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CreatorStatus) error {
	f.accounts[id].Status = status
	return nil
}

func (f *fakeAccountsRepo) IncrementStrikes(ctx context.Context, id uuid.UUID) error {
	f.accounts[id].StrikeCount++
	return nil
}

func (f *fakeAccountsRepo) IncrementViews(ctx context.Context, id uuid.UUID, delta int64) error {
	return nil
}

func (f *fakeAccountsRepo) IncrementUploads(ctx context.Context, id uuid.UUID, delta int64) error {
	return nil
}

func (f *fakeAccountsRepo) SetPinHash(ctx context.Context, id uuid.UUID, hash string) error {
	return nil
}

type fakeRejector struct {
	calls   []uuid.UUID
	reasons []string
	err     error
}

func (f *fakeRejector) ForceRejectOpen(ctx context.Context, tx *gorm.DB, creatorID uuid.UUID, reason string) error {
	f.calls = append(f.calls, creatorID)
	f.reasons = append(f.reasons, reason)
	return f.err
}

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutbox) has(eventType enums.OutboxEventType) bool {
	for _, event := range f.events {
		if event.EventType == eventType {
			return true
		}
	}
	return false
}

type harness struct {
	svc      Service
	flags    *fakeFlagRepo
	accounts *fakeAccountsRepo
	rejector *fakeRejector
	outbox   *fakeOutbox
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		flags:    newFakeFlagRepo(),
		accounts: newFakeAccountsRepo(),
		rejector: &fakeRejector{},
		outbox:   &fakeOutbox{},
	}
	svc, err := NewService(h.flags, h.accounts, h.rejector, fakeTx{}, h.outbox)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	h.svc = svc
	return h
}

func (h *harness) seedAccount() *models.CreatorAccount {
	account := &models.CreatorAccount{ID: uuid.New(), UserID: uuid.New(), Status: enums.CreatorStatusActive}
	h.accounts.accounts[account.ID] = account
	return account
}

func (h *harness) seedFlag(creatorID uuid.UUID, severity enums.FraudSeverity) *models.FraudFlag {
	flag := &models.FraudFlag{
		ID:          uuid.New(),
		CreatorID:   creatorID,
		FlagType:    enums.FraudFlagTypeViewBotting,
		Severity:    severity,
		Description: "suspicious traffic pattern",
		Status:      enums.FraudFlagStatusPending,
	}
	h.flags.flags[flag.ID] = flag
	return flag
}

func TestService_Raise(t *testing.T) {
	h := newHarness(t)
	account := h.seedAccount()

	flag, err := h.svc.Raise(context.Background(), RaiseInput{
		CreatorID:   account.ID,
		FlagType:    enums.FraudFlagTypeViewBotting,
		Severity:    enums.FraudSeverityHigh,
		Description: "view spike from single ASN",
		Actor:       Actor{UserID: uuid.New(), Role: "admin"},
	})
	if err != nil {
		t.Fatalf("Raise error: %v", err)
	}
	if flag.Status != enums.FraudFlagStatusPending {
		t.Fatalf("new flags must start pending, got %q", flag.Status)
	}
	if !h.outbox.has(enums.EventFlagRaised) {
		t.Fatal("expected flag raised event")
	}
}

func TestService_RaiseUnknownCreator(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Raise(context.Background(), RaiseInput{
		CreatorID:   uuid.New(),
		FlagType:    enums.FraudFlagTypeViewBotting,
		Severity:    enums.FraudSeverityLow,
		Description: "x",
		Actor:       Actor{UserID: uuid.New()},
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestService_ResolveConfirmedSuspendsAndRejects(t *testing.T) {
	h := newHarness(t)
	account := h.seedAccount()
	flag := h.seedFlag(account.ID, enums.FraudSeverityCritical)

	action := "account suspended"
	updated, err := h.svc.Resolve(context.Background(), ResolveInput{
		FlagID:      flag.ID,
		Outcome:     OutcomeConfirmed,
		ActionTaken: &action,
		Actor:       Actor{UserID: uuid.New(), Role: "admin"},
	})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if updated.Status != enums.FraudFlagStatusConfirmed || updated.ResolvedAt == nil {
		t.Fatalf("unexpected flag state: %+v", updated)
	}
	if account.Status != enums.CreatorStatusSuspended {
		t.Fatal("confirming a flag must suspend the creator")
	}
	if account.StrikeCount != 1 {
		t.Fatalf("expected one strike, got %d", account.StrikeCount)
	}
	if len(h.rejector.calls) != 1 || h.rejector.calls[0] != account.ID {
		t.Fatal("open payout requests must be force-rejected")
	}
	if !strings.Contains(h.rejector.reasons[0], "suspended") {
		t.Fatalf("reject reason must name the suspension, got %q", h.rejector.reasons[0])
	}
	if !h.outbox.has(enums.EventFlagConfirmed) || !h.outbox.has(enums.EventCreatorSuspended) {
		t.Fatalf("missing lifecycle events: %+v", h.outbox.events)
	}
}

func TestService_ResolveCleared(t *testing.T) {
	h := newHarness(t)
	account := h.seedAccount()
	flag := h.seedFlag(account.ID, enums.FraudSeverityMedium)

	updated, err := h.svc.Resolve(context.Background(), ResolveInput{
		FlagID:  flag.ID,
		Outcome: OutcomeCleared,
		Actor:   Actor{UserID: uuid.New()},
	})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if updated.Status != enums.FraudFlagStatusResolved {
		t.Fatalf("expected resolved, got %q", updated.Status)
	}
	if account.Status != enums.CreatorStatusActive || account.StrikeCount != 0 {
		t.Fatal("clearing a flag must not touch the account")
	}
	if len(h.rejector.calls) != 0 {
		t.Fatal("clearing a flag must not touch payouts")
	}
}

func TestService_ResolveTerminalFlagConflicts(t *testing.T) {
	h := newHarness(t)
	account := h.seedAccount()
	flag := h.seedFlag(account.ID, enums.FraudSeverityHigh)
	flag.Status = enums.FraudFlagStatusResolved

	_, err := h.svc.Resolve(context.Background(), ResolveInput{
		FlagID:  flag.ID,
		Outcome: OutcomeConfirmed,
		Actor:   Actor{UserID: uuid.New()},
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestService_HasBlockingFlag(t *testing.T) {
	h := newHarness(t)
	account := h.seedAccount()
	h.seedFlag(account.ID, enums.FraudSeverityLow)

	blocked, err := h.svc.HasBlockingFlag(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("HasBlockingFlag error: %v", err)
	}
	if blocked {
		t.Fatal("low severity flags must not block")
	}

	flag := h.seedFlag(account.ID, enums.FraudSeverityHigh)
	blocked, err = h.svc.HasBlockingFlag(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("HasBlockingFlag error: %v", err)
	}
	if !blocked {
		t.Fatal("pending high severity flags must block")
	}

	flag.Status = enums.FraudFlagStatusInvestigating
	blocked, err = h.svc.HasBlockingFlag(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("HasBlockingFlag error: %v", err)
	}
	if blocked {
		t.Fatal("only pending flags block, not flags under investigation")
	}
}

func TestService_HasBlockingFlagSuspendedAccount(t *testing.T) {
	h := newHarness(t)
	account := h.seedAccount()
	account.Status = enums.CreatorStatusSuspended

	blocked, err := h.svc.HasBlockingFlag(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("HasBlockingFlag error: %v", err)
	}
	if !blocked {
		t.Fatal("suspended accounts must block even with no open flags")
	}
}

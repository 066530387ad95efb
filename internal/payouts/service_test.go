package payouts

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/streamvault-backend/internal/creators"
	"github.com/angelmondragon/streamvault-backend/internal/ledger"
	"github.com/angelmondragon/streamvault-backend/pkg/config"
	"github.com/angelmondragon/streamvault-backend/pkg/db/models"
	"github.com/angelmondragon/streamvault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/streamvault-backend/pkg/errors"
	"github.com/angelmondragon/streamvault-backend/pkg/outbox"
)

type fakePayoutRepo struct {
	requests map[uuid.UUID]*models.PayoutRequest
}

func newFakePayoutRepo() *fakePayoutRepo {
	return &fakePayoutRepo{requests: map[uuid.UUID]*models.PayoutRequest{}}
}

func (f *fakePayoutRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakePayoutRepo) Create(ctx context.Context, request *models.PayoutRequest) error {
	request.ID = uuid.New()
	request.RequestedAt = time.Now()
	f.requests[request.ID] = request
	return nil
}

func (f *fakePayoutRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error) {
	request, ok := f.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return request, nil
}

func (f *fakePayoutRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error) {
	return f.FindByID(ctx, id)
}

func (f *fakePayoutRepo) FindOpenByCreatorForUpdate(ctx context.Context, creatorID uuid.UUID) (*models.PayoutRequest, error) {
	for _, request := range f.requests {
		if request.CreatorID == creatorID && !request.Status.IsTerminal() {
			return request, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePayoutRepo) ListByCreator(ctx context.Context, creatorID uuid.UUID, limit int) ([]models.PayoutRequest, error) {
	return nil, nil
}

func (f *fakePayoutRepo) ListByStatus(ctx context.Context, status enums.PayoutStatus, limit, offset int) ([]models.PayoutRequest, error) {
	return nil, nil
}

func (f *fakePayoutRepo) Update(ctx context.Context, request *models.PayoutRequest) error {
	f.requests[request.ID] = request
	return nil
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

func (f *fakeAccountsRepo) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) { return nil, nil }

func (f *fakeAccountsRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CreatorStatus) error {
	return nil
}

func (f *fakeAccountsRepo) IncrementStrikes(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeAccountsRepo) IncrementViews(ctx context.Context, id uuid.UUID, delta int64) error {
	return nil
}

func (f *fakeAccountsRepo) IncrementUploads(ctx context.Context, id uuid.UUID, delta int64) error {
	return nil
}

func (f *fakeAccountsRepo) SetPinHash(ctx context.Context, id uuid.UUID, hash string) error {
	return nil
}

type fakeLedgerRepo struct {
	entries map[uuid.UUID][]models.LedgerEntry
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{entries: map[uuid.UUID][]models.LedgerEntry{}}
}

func (f *fakeLedgerRepo) WithTx(tx *gorm.DB) ledger.Repository { return f }

func (f *fakeLedgerRepo) Create(ctx context.Context, entry *models.LedgerEntry) error { return nil }

func (f *fakeLedgerRepo) SumUnpaid(ctx context.Context, creatorID uuid.UUID) (int64, error) {
	var total int64
	for _, entry := range f.entries[creatorID] {
		if !entry.Paid {
			total += entry.AmountCents
		}
	}
	return total, nil
}

func (f *fakeLedgerRepo) ListUnpaid(ctx context.Context, creatorID uuid.UUID) ([]models.LedgerEntry, error) {
	var unpaid []models.LedgerEntry
	for _, entry := range f.entries[creatorID] {
		if !entry.Paid {
			unpaid = append(unpaid, entry)
		}
	}
	return unpaid, nil
}

func (f *fakeLedgerRepo) ListByCreator(ctx context.Context, creatorID uuid.UUID, limit int) ([]models.LedgerEntry, error) {
	return nil, nil
}

func (f *fakeLedgerRepo) MarkPaid(ctx context.Context, entryIDs []uuid.UUID) (int64, error) {
	wanted := map[uuid.UUID]bool{}
	for _, id := range entryIDs {
		wanted[id] = true
	}
	var affected int64
	for creatorID, entries := range f.entries {
		for i := range entries {
			if wanted[entries[i].ID] && !entries[i].Paid {
				entries[i].Paid = true
				affected++
			}
		}
		f.entries[creatorID] = entries
	}
	return affected, nil
}

func (f *fakeLedgerRepo) SumPaid(ctx context.Context, creatorID uuid.UUID) (int64, error) {
	return 0, nil
}

func (f *fakeLedgerRepo) SumEarned(ctx context.Context, creatorID uuid.UUID) (int64, error) {
	return 0, nil
}

type fakeWallets struct {
	wallets map[uuid.UUID]*models.Wallet
}

func (f *fakeWallets) Get(ctx context.Context, creatorID uuid.UUID) (*models.Wallet, error) {
	wallet, ok := f.wallets[creatorID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return wallet, nil
}

type fakePins struct {
	err error
}

func (f *fakePins) VerifyPin(ctx context.Context, creatorID uuid.UUID, pin string) error {
	return f.err
}

type fakeFraud struct {
	blocked bool
}

func (f *fakeFraud) HasBlockingFlagTx(ctx context.Context, tx *gorm.DB, creatorID uuid.UUID) (bool, error) {
	return f.blocked, nil
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

func (f *fakeOutbox) last() *outbox.DomainEvent {
	if len(f.events) == 0 {
		return nil
	}
	return &f.events[len(f.events)-1]
}

type harness struct {
	svc      Service
	repo     *fakePayoutRepo
	accounts *fakeAccountsRepo
	entries  *fakeLedgerRepo
	wallets  *fakeWallets
	pins     *fakePins
	fraud    *fakeFraud
	outbox   *fakeOutbox
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		repo:     newFakePayoutRepo(),
		accounts: newFakeAccountsRepo(),
		entries:  newFakeLedgerRepo(),
		wallets:  &fakeWallets{wallets: map[uuid.UUID]*models.Wallet{}},
		pins:     &fakePins{},
		fraud:    &fakeFraud{},
		outbox:   &fakeOutbox{},
	}
	svc, err := NewService(
		h.repo, h.accounts, h.entries, h.wallets, h.pins, h.fraud,
		fakeTx{}, h.outbox,
		config.PayoutConfig{MinWithdrawalCents: 1800, FeePercent: 3},
	)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	h.svc = svc
	return h
}

func (h *harness) seedCreator(balanceCents ...int64) *models.CreatorAccount {
	account := &models.CreatorAccount{ID: uuid.New(), UserID: uuid.New(), Status: enums.CreatorStatusActive}
	h.accounts.accounts[account.ID] = account
	h.wallets.wallets[account.ID] = &models.Wallet{
		CreatorID:  account.ID,
		WalletType: enums.WalletTypeBitcoin,
		Address:    "bc1q7cyrfmck2ffu2ud3rn5l5a8lv6f0rnjsrycnt4",
	}
	now := time.Now()
	for i, amount := range balanceCents {
		h.entries.entries[account.ID] = append(h.entries.entries[account.ID], models.LedgerEntry{
			ID:          uuid.New(),
			CreatorID:   account.ID,
			Source:      enums.LedgerSourceViewEarning,
			AmountCents: amount,
			CreatedAt:   now.Add(time.Duration(i) * time.Minute),
		})
	}
	return account
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != code {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestService_Submit(t *testing.T) {
	h := newHarness(t)
	account := h.seedCreator(1000, 1500)

	request, err := h.svc.Submit(context.Background(), SubmitInput{CreatorID: account.ID, Pin: "4242"})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if request.Status != enums.PayoutStatusPending {
		t.Fatalf("expected pending, got %q", request.Status)
	}
	if request.AmountCents != 2500 {
		t.Fatalf("snapshot should equal the full balance, got %d", request.AmountCents)
	}
	// 3% of 2500 = 75
	if request.FeeCents != 75 {
		t.Fatalf("expected fee 75, got %d", request.FeeCents)
	}
	if request.WalletType != enums.WalletTypeBitcoin || request.WalletAddress == "" {
		t.Fatalf("wallet snapshot missing: %+v", request)
	}
	event := h.outbox.last()
	if event == nil || event.EventType != enums.EventPayoutRequested {
		t.Fatalf("expected payout requested event, got %+v", event)
	}
}

func TestService_SubmitBelowMinimum(t *testing.T) {
	h := newHarness(t)
	account := h.seedCreator(1799)

	_, err := h.svc.Submit(context.Background(), SubmitInput{CreatorID: account.ID, Pin: "4242"})
	expectCode(t, err, pkgerrors.CodePolicyBlock)
}

func TestService_SubmitDuplicate(t *testing.T) {
	h := newHarness(t)
	account := h.seedCreator(5000)

	if _, err := h.svc.Submit(context.Background(), SubmitInput{CreatorID: account.ID, Pin: "4242"}); err != nil {
		t.Fatalf("first Submit error: %v", err)
	}
	_, err := h.svc.Submit(context.Background(), SubmitInput{CreatorID: account.ID, Pin: "4242"})
	expectCode(t, err, pkgerrors.CodeConflict)
}

func TestService_SubmitNoWallet(t *testing.T) {
	h := newHarness(t)
	account := h.seedCreator(5000)
	delete(h.wallets.wallets, account.ID)

	_, err := h.svc.Submit(context.Background(), SubmitInput{CreatorID: account.ID, Pin: "4242"})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestService_SubmitBlockedByFraud(t *testing.T) {
	h := newHarness(t)
	account := h.seedCreator(5000)
	h.fraud.blocked = true

	_, err := h.svc.Submit(context.Background(), SubmitInput{CreatorID: account.ID, Pin: "4242"})
	expectCode(t, err, pkgerrors.CodePolicyBlock)
}

func TestService_SubmitBadPin(t *testing.T) {
	h := newHarness(t)
	account := h.seedCreator(5000)
	h.pins.err = pkgerrors.New(pkgerrors.CodeUnauthorized, "withdrawal pin verification failed")

	_, err := h.svc.Submit(context.Background(), SubmitInput{CreatorID: account.ID, Pin: "0000"})
	expectCode(t, err, pkgerrors.CodeUnauthorized)
	if len(h.repo.requests) != 0 {
		t.Fatal("no request should exist after a failed pin check")
	}
}

func TestService_ApproveLifecycle(t *testing.T) {
	h := newHarness(t)
	account := h.seedCreator(5000)

	request, err := h.svc.Submit(context.Background(), SubmitInput{CreatorID: account.ID, Pin: "4242"})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	admin := uuid.New()
	approved, err := h.svc.Approve(context.Background(), DecisionInput{
		PayoutID:    request.ID,
		ActorUserID: admin,
		ActorRole:   "admin",
	})
	if err != nil {
		t.Fatalf("Approve error: %v", err)
	}
	if approved.Status != enums.PayoutStatusApproved || approved.ApprovedAt == nil {
		t.Fatalf("unexpected request state: %+v", approved)
	}

	// Approving twice conflicts.
	_, err = h.svc.Approve(context.Background(), DecisionInput{PayoutID: request.ID, ActorUserID: admin})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestService_ApproveRechecksFraud(t *testing.T) {
	h := newHarness(t)
	account := h.seedCreator(5000)

	request, err := h.svc.Submit(context.Background(), SubmitInput{CreatorID: account.ID, Pin: "4242"})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	h.fraud.blocked = true
	_, err = h.svc.Approve(context.Background(), DecisionInput{PayoutID: request.ID, ActorUserID: uuid.New()})
	expectCode(t, err, pkgerrors.CodePolicyBlock)
}

func TestService_CompleteSettlesFIFO(t *testing.T) {
	h := newHarness(t)
	account := h.seedCreator(1000, 1500)

	request, err := h.svc.Submit(context.Background(), SubmitInput{CreatorID: account.ID, Pin: "4242"})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if _, err := h.svc.Approve(context.Background(), DecisionInput{PayoutID: request.ID, ActorUserID: uuid.New()}); err != nil {
		t.Fatalf("Approve error: %v", err)
	}

	completed, err := h.svc.Complete(context.Background(), CompleteInput{
		PayoutID:      request.ID,
		SettlementRef: "txid:0ab3",
		ActorUserID:   uuid.New(),
	})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if completed.Status != enums.PayoutStatusCompleted || completed.SettlementRef == nil {
		t.Fatalf("unexpected request state: %+v", completed)
	}

	balance, _ := h.entries.SumUnpaid(context.Background(), account.ID)
	if balance != 0 {
		t.Fatalf("all snapshot entries must be paid, balance is %d", balance)
	}
	event := h.outbox.last()
	if event == nil || event.EventType != enums.EventPayoutCompleted {
		t.Fatalf("expected payout completed event, got %+v", event)
	}
}

func TestService_CompleteLeavesNewerEarningsUnpaid(t *testing.T) {
	h := newHarness(t)
	account := h.seedCreator(2000)

	request, err := h.svc.Submit(context.Background(), SubmitInput{CreatorID: account.ID, Pin: "4242"})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if _, err := h.svc.Approve(context.Background(), DecisionInput{PayoutID: request.ID, ActorUserID: uuid.New()}); err != nil {
		t.Fatalf("Approve error: %v", err)
	}

	// Earnings accrued after submission must survive settlement untouched.
	h.entries.entries[account.ID] = append(h.entries.entries[account.ID], models.LedgerEntry{
		ID:          uuid.New(),
		CreatorID:   account.ID,
		Source:      enums.LedgerSourceViewEarning,
		AmountCents: 700,
		CreatedAt:   time.Now().Add(time.Hour),
	})

	if _, err := h.svc.Complete(context.Background(), CompleteInput{
		PayoutID:      request.ID,
		SettlementRef: "txid:77f1",
		ActorUserID:   uuid.New(),
	}); err != nil {
		t.Fatalf("Complete error: %v", err)
	}

	balance, _ := h.entries.SumUnpaid(context.Background(), account.ID)
	if balance != 700 {
		t.Fatalf("post-snapshot earnings must stay unpaid, balance is %d", balance)
	}
}

func TestService_CompleteAbortsOnLedgerDrift(t *testing.T) {
	h := newHarness(t)
	account := h.seedCreator(2000)

	request, err := h.svc.Submit(context.Background(), SubmitInput{CreatorID: account.ID, Pin: "4242"})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if _, err := h.svc.Approve(context.Background(), DecisionInput{PayoutID: request.ID, ActorUserID: uuid.New()}); err != nil {
		t.Fatalf("Approve error: %v", err)
	}

	// Simulate the snapshot entries vanishing out from under the request.
	h.entries.entries[account.ID] = nil

	_, err = h.svc.Complete(context.Background(), CompleteInput{
		PayoutID:      request.ID,
		SettlementRef: "txid:dead",
		ActorUserID:   uuid.New(),
	})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestService_CompleteRequiresSettlementRef(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Complete(context.Background(), CompleteInput{
		PayoutID:      uuid.New(),
		SettlementRef: "   ",
		ActorUserID:   uuid.New(),
	})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestService_Reject(t *testing.T) {
	h := newHarness(t)
	account := h.seedCreator(5000)

	request, err := h.svc.Submit(context.Background(), SubmitInput{CreatorID: account.ID, Pin: "4242"})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	rejected, err := h.svc.Reject(context.Background(), RejectInput{
		PayoutID:    request.ID,
		Reason:      "wallet address failed verification",
		ActorUserID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("Reject error: %v", err)
	}
	if rejected.Status != enums.PayoutStatusRejected || rejected.RejectReason == nil {
		t.Fatalf("unexpected request state: %+v", rejected)
	}

	balance, _ := h.entries.SumUnpaid(context.Background(), account.ID)
	if balance != 5000 {
		t.Fatal("rejection must not touch the ledger")
	}

	// Terminal requests cannot be rejected again.
	_, err = h.svc.Reject(context.Background(), RejectInput{
		PayoutID:    request.ID,
		Reason:      "again",
		ActorUserID: uuid.New(),
	})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestService_RejectRequiresReason(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Reject(context.Background(), RejectInput{PayoutID: uuid.New(), ActorUserID: uuid.New()})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestService_ForceRejectOpen(t *testing.T) {
	h := newHarness(t)
	account := h.seedCreator(5000)

	request, err := h.svc.Submit(context.Background(), SubmitInput{CreatorID: account.ID, Pin: "4242"})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	if err := h.svc.ForceRejectOpen(context.Background(), &gorm.DB{}, account.ID, "account suspended pending investigation"); err != nil {
		t.Fatalf("ForceRejectOpen error: %v", err)
	}
	rejected := h.repo.requests[request.ID]
	if rejected.Status != enums.PayoutStatusRejected {
		t.Fatal("open request must be rejected")
	}
	if rejected.RejectReason == nil || !strings.Contains(*rejected.RejectReason, "suspended") {
		t.Fatalf("reject reason must carry the suspension, got %v", rejected.RejectReason)
	}

	// A creator without an open request is a no-op.
	if err := h.svc.ForceRejectOpen(context.Background(), &gorm.DB{}, uuid.New(), "account suspended pending investigation"); err != nil {
		t.Fatalf("ForceRejectOpen no-op error: %v", err)
	}
}

package adminops

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/streamvault-backend/internal/creators"
	"github.com/angelmondragon/streamvault-backend/internal/ledger"
	"github.com/angelmondragon/streamvault-backend/pkg/db/models"
	"github.com/angelmondragon/streamvault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/streamvault-backend/pkg/errors"
)

type fakeAccountsRepo struct {
	accounts map[uuid.UUID]*models.CreatorAccount
	ordered  []uuid.UUID
}

func newFakeAccountsRepo() *fakeAccountsRepo {
	return &fakeAccountsRepo{accounts: map[uuid.UUID]*models.CreatorAccount{}}
}

func (f *fakeAccountsRepo) add(status enums.CreatorStatus) *models.CreatorAccount {
	account := &models.CreatorAccount{ID: uuid.New(), UserID: uuid.New(), Status: status}
	f.accounts[account.ID] = account
	f.ordered = append(f.ordered, account.ID)
	return account
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
	var ids []uuid.UUID
	for _, id := range f.ordered {
		if f.accounts[id].Status == enums.CreatorStatusActive {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

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

type fakeRecorder struct {
	inputs  []ledger.RecordEntryInput
	failFor map[uuid.UUID]error
}

func (f *fakeRecorder) RecordEntryTx(ctx context.Context, tx *gorm.DB, input ledger.RecordEntryInput) (*models.LedgerEntry, error) {
	if err, ok := f.failFor[input.CreatorID]; ok {
		return nil, err
	}
	f.inputs = append(f.inputs, input)
	return &models.LedgerEntry{ID: uuid.New(), CreatorID: input.CreatorID, AmountCents: input.AmountCents}, nil
}

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

func newTestService(t *testing.T, accounts *fakeAccountsRepo, recorder *fakeRecorder) Service {
	t.Helper()
	svc, err := NewService(accounts, recorder, fakeTx{}, nil)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func TestService_Fund(t *testing.T) {
	accounts := newFakeAccountsRepo()
	recorder := &fakeRecorder{}
	svc := newTestService(t, accounts, recorder)

	account := accounts.add(enums.CreatorStatusActive)
	entry, err := svc.Fund(context.Background(), AdjustInput{
		CreatorID:   account.ID,
		AmountCents: 2500,
		Reason:      "content contest prize",
		ActorUserID: uuid.New(),
		ActorRole:   "admin",
	})
	if err != nil {
		t.Fatalf("Fund error: %v", err)
	}
	if entry.AmountCents != 2500 {
		t.Fatalf("expected 2500, got %d", entry.AmountCents)
	}
	if recorder.inputs[0].Source != enums.LedgerSourceAdminBonus {
		t.Fatalf("expected admin bonus source, got %q", recorder.inputs[0].Source)
	}
}

func TestService_DebitIsNegative(t *testing.T) {
	accounts := newFakeAccountsRepo()
	recorder := &fakeRecorder{}
	svc := newTestService(t, accounts, recorder)

	account := accounts.add(enums.CreatorStatusActive)
	entry, err := svc.Debit(context.Background(), AdjustInput{
		CreatorID:   account.ID,
		AmountCents: 900,
		Reason:      "chargeback recovery",
		ActorUserID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("Debit error: %v", err)
	}
	if entry.AmountCents != -900 {
		t.Fatalf("debits must record negative amounts, got %d", entry.AmountCents)
	}
	if recorder.inputs[0].Source != enums.LedgerSourceAdminDeduction {
		t.Fatalf("expected deduction source, got %q", recorder.inputs[0].Source)
	}
}

func TestService_AdjustValidation(t *testing.T) {
	accounts := newFakeAccountsRepo()
	svc := newTestService(t, accounts, &fakeRecorder{})
	account := accounts.add(enums.CreatorStatusActive)

	cases := []AdjustInput{
		{AmountCents: 100, Reason: "r", ActorUserID: uuid.New()},
		{CreatorID: account.ID, AmountCents: 0, Reason: "r", ActorUserID: uuid.New()},
		{CreatorID: account.ID, AmountCents: 100, ActorUserID: uuid.New()},
	}
	for _, input := range cases {
		if _, err := svc.Fund(context.Background(), input); err == nil {
			t.Fatalf("expected error for %+v", input)
		}
	}

	_, err := svc.Fund(context.Background(), AdjustInput{
		CreatorID:   uuid.New(),
		AmountCents: 100,
		Reason:      "r",
		ActorUserID: uuid.New(),
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestService_MassBonusPartialFailure(t *testing.T) {
	accounts := newFakeAccountsRepo()
	good1 := accounts.add(enums.CreatorStatusActive)
	bad := accounts.add(enums.CreatorStatusActive)
	good2 := accounts.add(enums.CreatorStatusActive)
	accounts.add(enums.CreatorStatusSuspended)

	recorder := &fakeRecorder{failFor: map[uuid.UUID]error{
		bad.ID: errors.New("connection reset"),
	}}
	svc := newTestService(t, accounts, recorder)

	report, err := svc.MassBonus(context.Background(), MassBonusInput{
		AmountCents: 1000,
		Reason:      "anniversary bonus",
		ActorUserID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("MassBonus error: %v", err)
	}
	if report.Granted != 2 {
		t.Fatalf("expected 2 grants, got %d", report.Granted)
	}
	if len(report.Failed) != 1 || report.Failed[0].CreatorID != bad.ID {
		t.Fatalf("unexpected failure report: %+v", report.Failed)
	}

	granted := map[uuid.UUID]bool{}
	for _, input := range recorder.inputs {
		granted[input.CreatorID] = true
	}
	if !granted[good1.ID] || !granted[good2.ID] {
		t.Fatal("other creators must still receive the bonus")
	}
}

func TestService_MassBonusTotalFailure(t *testing.T) {
	accounts := newFakeAccountsRepo()
	bad := accounts.add(enums.CreatorStatusActive)

	recorder := &fakeRecorder{failFor: map[uuid.UUID]error{
		bad.ID: errors.New("connection reset"),
	}}
	svc := newTestService(t, accounts, recorder)

	report, err := svc.MassBonus(context.Background(), MassBonusInput{
		AmountCents: 1000,
		Reason:      "anniversary bonus",
		ActorUserID: uuid.New(),
	})
	if err == nil {
		t.Fatal("expected error when every grant fails")
	}
	if report == nil || report.Granted != 0 || len(report.Failed) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

package payouts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/streamvault-backend/internal/creators"
	"github.com/angelmondragon/streamvault-backend/internal/ledger"
	"github.com/angelmondragon/streamvault-backend/pkg/config"
	dbpkg "github.com/angelmondragon/streamvault-backend/pkg/db"
	"github.com/angelmondragon/streamvault-backend/pkg/db/models"
	"github.com/angelmondragon/streamvault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/streamvault-backend/pkg/errors"
	"github.com/angelmondragon/streamvault-backend/pkg/outbox"
	"github.com/angelmondragon/streamvault-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type walletReader interface {
	Get(ctx context.Context, creatorID uuid.UUID) (*models.Wallet, error)
}

type pinVerifier interface {
	VerifyPin(ctx context.Context, creatorID uuid.UUID, pin string) error
}

type fraudChecker interface {
	HasBlockingFlagTx(ctx context.Context, tx *gorm.DB, creatorID uuid.UUID) (bool, error)
}

// Service drives the payout request state machine:
//
//	pending -> approved -> completed
//	pending|approved -> rejected
//
// Completed and rejected are terminal. At most one non-terminal request per
// creator exists at any time.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*models.PayoutRequest, error)
	Approve(ctx context.Context, input DecisionInput) (*models.PayoutRequest, error)
	Complete(ctx context.Context, input CompleteInput) (*models.PayoutRequest, error)
	Reject(ctx context.Context, input RejectInput) (*models.PayoutRequest, error)
	ForceRejectOpen(ctx context.Context, tx *gorm.DB, creatorID uuid.UUID, reason string) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID, limit int) ([]models.PayoutRequest, error)
	ListByStatus(ctx context.Context, status enums.PayoutStatus, limit, offset int) ([]models.PayoutRequest, error)
}

type service struct {
	repo     Repository
	accounts creators.Repository
	entries  ledger.Repository
	wallets  walletReader
	pins     pinVerifier
	fraud    fraudChecker
	tx       txRunner
	outbox   outboxPublisher
	cfg      config.PayoutConfig
}

// SubmitInput opens a withdrawal for the creator's full current balance.
type SubmitInput struct {
	CreatorID uuid.UUID
	Pin       string
}

// DecisionInput carries an admin approval.
type DecisionInput struct {
	PayoutID    uuid.UUID
	AdminNote   *string
	ActorUserID uuid.UUID
	ActorRole   string
}

// CompleteInput finalizes an approved payout with the external transfer
// reference.
type CompleteInput struct {
	PayoutID      uuid.UUID
	SettlementRef string
	ActorUserID   uuid.UUID
	ActorRole     string
}

// RejectInput closes a request without paying it.
type RejectInput struct {
	PayoutID    uuid.UUID
	Reason      string
	ActorUserID uuid.UUID
	ActorRole   string
}

// NewService builds the payout workflow.
func NewService(
	repo Repository,
	accounts creators.Repository,
	entries ledger.Repository,
	wallets walletReader,
	pins pinVerifier,
	fraud fraudChecker,
	tx txRunner,
	outboxSvc outboxPublisher,
	cfg config.PayoutConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payouts repository required")
	}
	if accounts == nil {
		return nil, fmt.Errorf("creators repository required")
	}
	if entries == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if wallets == nil {
		return nil, fmt.Errorf("wallet reader required")
	}
	if pins == nil {
		return nil, fmt.Errorf("pin verifier required")
	}
	if fraud == nil {
		return nil, fmt.Errorf("fraud checker required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if cfg.MinWithdrawalCents <= 0 {
		return nil, fmt.Errorf("minimum withdrawal must be positive")
	}
	return &service{
		repo:     repo,
		accounts: accounts,
		entries:  entries,
		wallets:  wallets,
		pins:     pins,
		fraud:    fraud,
		tx:       tx,
		outbox:   outboxSvc,
		cfg:      cfg,
	}, nil
}

// Submit snapshots the creator's full unpaid balance and wallet into a new
// pending request. The creator row lock serializes against concurrent
// accruals and settlements, so the snapshot is exact.
func (s *service) Submit(ctx context.Context, input SubmitInput) (*models.PayoutRequest, error) {
	if input.CreatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "creator id required")
	}
	if err := s.pins.VerifyPin(ctx, input.CreatorID, input.Pin); err != nil {
		return nil, err
	}

	var request *models.PayoutRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		accounts := s.accounts.WithTx(tx)
		account, err := accounts.FindForUpdate(ctx, input.CreatorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "creator account not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock creator account")
		}
		if account.Status == enums.CreatorStatusSuspended {
			return pkgerrors.New(pkgerrors.CodePolicyBlock, "suspended creators cannot request payouts")
		}

		blocked, err := s.fraud.HasBlockingFlagTx(ctx, tx, account.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check fraud flags")
		}
		if blocked {
			return pkgerrors.New(pkgerrors.CodePolicyBlock, "payouts blocked pending fraud review")
		}

		if _, err := s.repo.WithTx(tx).FindOpenByCreatorForUpdate(ctx, account.ID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "a payout request is already open")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check open payout requests")
		}

		wallet, err := s.wallets.Get(ctx, account.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "no payout wallet configured")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payout wallet")
		}

		balance, err := s.entries.WithTx(tx).SumUnpaid(ctx, account.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute balance")
		}
		if balance < s.cfg.MinWithdrawalCents {
			return pkgerrors.New(pkgerrors.CodePolicyBlock,
				fmt.Sprintf("balance %d below minimum withdrawal %d", balance, s.cfg.MinWithdrawalCents))
		}

		request = &models.PayoutRequest{
			CreatorID:     account.ID,
			AmountCents:   balance,
			FeeCents:      FeeCents(balance, s.cfg.FeePercent),
			WalletType:    wallet.WalletType,
			WalletAddress: wallet.Address,
			Status:        enums.PayoutStatusPending,
		}
		if err := s.repo.WithTx(tx).Create(ctx, request); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_payout_requests_open_per_creator") {
				return pkgerrors.New(pkgerrors.CodeConflict, "a payout request is already open")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create payout request")
		}

		actor := &outbox.ActorRef{UserID: account.UserID, Role: "creator"}
		return s.emitPayoutEvent(ctx, tx, enums.EventPayoutRequested, request, actor)
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (s *service) Approve(ctx context.Context, input DecisionInput) (*models.PayoutRequest, error) {
	if input.PayoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin identity missing")
	}

	var updated *models.PayoutRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := repo.FindForUpdate(ctx, input.PayoutID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payout request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock payout request")
		}
		if request.Status != enums.PayoutStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot approve a %q request", request.Status))
		}

		blocked, err := s.fraud.HasBlockingFlagTx(ctx, tx, request.CreatorID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check fraud flags")
		}
		if blocked {
			return pkgerrors.New(pkgerrors.CodePolicyBlock, "payout blocked pending fraud review")
		}

		now := time.Now()
		request.Status = enums.PayoutStatusApproved
		request.ApprovedAt = &now
		request.AdminNote = input.AdminNote
		if err := repo.Update(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update payout request")
		}

		actor := &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole}
		if err := s.emitPayoutEvent(ctx, tx, enums.EventPayoutApproved, request, actor); err != nil {
			return err
		}
		updated = request
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Complete settles an approved request: the oldest unpaid entries summing to
// exactly the snapshot amount flip to paid, atomically with the status
// change. Any mismatch between the snapshot and the unpaid set aborts the
// transaction; nothing is partially settled.
func (s *service) Complete(ctx context.Context, input CompleteInput) (*models.PayoutRequest, error) {
	if input.PayoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}
	if strings.TrimSpace(input.SettlementRef) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "settlement reference required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin identity missing")
	}

	var updated *models.PayoutRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := repo.FindForUpdate(ctx, input.PayoutID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payout request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock payout request")
		}
		if request.Status != enums.PayoutStatusApproved {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot complete a %q request", request.Status))
		}

		// Lock the creator row so no accrual or other settlement can
		// reshape the unpaid set mid-settlement.
		if _, err := s.accounts.WithTx(tx).FindForUpdate(ctx, request.CreatorID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock creator account")
		}

		entriesRepo := s.entries.WithTx(tx)
		unpaid, err := entriesRepo.ListUnpaid(ctx, request.CreatorID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list unpaid entries")
		}
		ids, err := ledger.SelectForSettlement(unpaid, request.AmountCents)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "ledger does not match payout snapshot")
		}
		affected, err := entriesRepo.MarkPaid(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark entries paid")
		}
		if affected != int64(len(ids)) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("settlement updated %d of %d entries", affected, len(ids)))
		}

		now := time.Now()
		ref := input.SettlementRef
		request.Status = enums.PayoutStatusCompleted
		request.CompletedAt = &now
		request.SettlementRef = &ref
		if err := repo.Update(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update payout request")
		}

		actor := &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole}
		if err := s.emitPayoutEvent(ctx, tx, enums.EventPayoutCompleted, request, actor); err != nil {
			return err
		}
		updated = request
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Reject(ctx context.Context, input RejectInput) (*models.PayoutRequest, error) {
	if input.PayoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin identity missing")
	}

	var updated *models.PayoutRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := repo.FindForUpdate(ctx, input.PayoutID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payout request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock payout request")
		}
		if request.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot reject a %q request", request.Status))
		}

		actor := &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole}
		if err := s.rejectLocked(ctx, tx, request, input.Reason, actor); err != nil {
			return err
		}
		updated = request
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ForceRejectOpen rejects the creator's open request, if any, inside the
// caller's transaction. The fraud monitor calls this when confirming a flag.
func (s *service) ForceRejectOpen(ctx context.Context, tx *gorm.DB, creatorID uuid.UUID, reason string) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	request, err := s.repo.WithTx(tx).FindOpenByCreatorForUpdate(ctx, creatorID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock open payout request")
	}
	return s.rejectLocked(ctx, tx, request, reason, nil)
}

func (s *service) rejectLocked(ctx context.Context, tx *gorm.DB, request *models.PayoutRequest, reason string, actor *outbox.ActorRef) error {
	now := time.Now()
	request.Status = enums.PayoutStatusRejected
	request.RejectedAt = &now
	request.RejectReason = &reason
	if err := s.repo.WithTx(tx).Update(ctx, request); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update payout request")
	}
	return s.emitPayoutEvent(ctx, tx, enums.EventPayoutRejected, request, actor)
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payout request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payout request")
	}
	return request, nil
}

func (s *service) ListByCreator(ctx context.Context, creatorID uuid.UUID, limit int) ([]models.PayoutRequest, error) {
	if creatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "creator id required")
	}
	requests, err := s.repo.ListByCreator(ctx, creatorID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list payout requests")
	}
	return requests, nil
}

func (s *service) ListByStatus(ctx context.Context, status enums.PayoutStatus, limit, offset int) ([]models.PayoutRequest, error) {
	if status != "" && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payout status %q", status))
	}
	requests, err := s.repo.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list payout requests")
	}
	return requests, nil
}

func (s *service) emitPayoutEvent(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, request *models.PayoutRequest, actor *outbox.ActorRef) error {
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregatePayoutRequest,
		AggregateID:   request.ID,
		Actor:         actor,
		Data: payloads.PayoutEvent{
			PayoutID:      request.ID,
			CreatorID:     request.CreatorID,
			AmountCents:   request.AmountCents,
			FeeCents:      request.FeeCents,
			Status:        request.Status,
			SettlementRef: request.SettlementRef,
			RejectReason:  request.RejectReason,
		},
		Version: 1,
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit payout event")
	}
	return nil
}

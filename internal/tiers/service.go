package tiers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

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

type accountReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.CreatorAccount, error)
}

// Service exposes tier progression operations. Promotions never happen
// automatically: crossing a threshold only makes a creator eligible, and an
// admin approves or denies the move.
type Service interface {
	Status(ctx context.Context, creatorID uuid.UUID) (*Status, error)
	ListEligible(ctx context.Context) ([]Eligible, error)
	Approve(ctx context.Context, input DecisionInput) (*models.TierState, error)
	Deny(ctx context.Context, input DecisionInput) error
	CurrentTier(ctx context.Context, tx *gorm.DB, creatorID uuid.UUID) (enums.Tier, error)
	RateForTier(tier enums.Tier) (decimal.Decimal, error)
}

type service struct {
	repo     Repository
	accounts accountReader
	policy   *Policy
	tx       txRunner
	outbox   outboxPublisher
}

// Status describes where a creator sits on the ladder.
type Status struct {
	CreatorID       uuid.UUID  `json:"creator_id"`
	CurrentTier     enums.Tier `json:"current_tier"`
	ViewCount       int64      `json:"view_count"`
	EligibleTier    enums.Tier `json:"eligible_tier"`
	NextTier        enums.Tier `json:"next_tier,omitempty"`
	NextTierViews   int64      `json:"next_tier_views,omitempty"`
	RatePerView     string     `json:"rate_per_view"`
	PendingApproval bool       `json:"pending_approval"`
}

// Eligible is one creator awaiting an admin tier decision.
type Eligible struct {
	CreatorID    uuid.UUID  `json:"creator_id"`
	CurrentTier  enums.Tier `json:"current_tier"`
	EligibleTier enums.Tier `json:"eligible_tier"`
	ViewCount    int64      `json:"view_count"`
}

// DecisionInput carries an admin tier decision.
type DecisionInput struct {
	CreatorID   uuid.UUID
	Tier        enums.Tier
	Note        *string
	ActorUserID uuid.UUID
	ActorRole   string
}

// NewService builds the tier engine.
func NewService(repo Repository, accounts accountReader, policy *Policy, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tiers repository required")
	}
	if accounts == nil {
		return nil, fmt.Errorf("account reader required")
	}
	if policy == nil {
		return nil, fmt.Errorf("tier policy required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, accounts: accounts, policy: policy, tx: tx, outbox: outboxSvc}, nil
}

func (s *service) Status(ctx context.Context, creatorID uuid.UUID) (*Status, error) {
	if creatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "creator id required")
	}
	account, err := s.accounts.FindByID(ctx, creatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "creator account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load creator account")
	}
	state, err := s.repo.Get(ctx, creatorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load tier state")
	}

	eligible := s.policy.EligibleTier(account.ViewCount)
	rate, err := s.policy.RateForTier(state.Tier)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve tier rate")
	}

	status := &Status{
		CreatorID:       creatorID,
		CurrentTier:     state.Tier,
		ViewCount:       account.ViewCount,
		EligibleTier:    eligible,
		RatePerView:     rate.String(),
		PendingApproval: eligible.Rank() > state.Tier.Rank(),
	}
	if next, ok := NextTier(state.Tier); ok {
		status.NextTier = next
		if threshold, ok := s.policy.ThresholdFor(next); ok {
			status.NextTierViews = threshold
		}
	}
	return status, nil
}

func (s *service) ListEligible(ctx context.Context) ([]Eligible, error) {
	rows, err := s.repo.ListCandidates(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list tier candidates")
	}
	var eligible []Eligible
	for _, row := range rows {
		target := s.policy.EligibleTier(row.ViewCount)
		if target.Rank() > row.Tier.Rank() {
			eligible = append(eligible, Eligible{
				CreatorID:    row.CreatorID,
				CurrentTier:  row.Tier,
				EligibleTier: target,
				ViewCount:    row.ViewCount,
			})
		}
	}
	return eligible, nil
}

// Approve moves a creator up the ladder. The target must outrank the current
// tier and be exactly the tier the creator's view count implies; tiers never
// move down, and intermediate stops are not modeled.
func (s *service) Approve(ctx context.Context, input DecisionInput) (*models.TierState, error) {
	if err := validateDecision(input); err != nil {
		return nil, err
	}

	var updated *models.TierState
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		state, err := repo.GetForUpdate(ctx, input.CreatorID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock tier state")
		}
		if input.Tier.Rank() <= state.Tier.Rank() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("creator already at or above tier %q", input.Tier))
		}
		account, err := s.accounts.FindByID(ctx, input.CreatorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "creator account not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load creator account")
		}
		if eligible := s.policy.EligibleTier(account.ViewCount); eligible != input.Tier {
			return pkgerrors.New(pkgerrors.CodePolicyBlock,
				fmt.Sprintf("tier %q is not the view-implied tier %q", input.Tier, eligible))
		}

		previous := state.Tier
		state.Tier = input.Tier
		state.ViewsAtRecompute = account.ViewCount
		if err := repo.Upsert(ctx, state); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save tier state")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventTierApproved,
			AggregateType: enums.AggregateTierState,
			AggregateID:   input.CreatorID,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole},
			Data: payloads.TierDecisionEvent{
				CreatorID: input.CreatorID,
				Tier:      input.Tier,
				Previous:  previous,
				Note:      input.Note,
			},
			Version: 1,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit tier approved event")
		}
		updated = state
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Deny records an admin's refusal without touching the tier state. The event
// feeds the creator's notification inbox.
func (s *service) Deny(ctx context.Context, input DecisionInput) error {
	if err := validateDecision(input); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		event := outbox.DomainEvent{
			EventType:     enums.EventTierDenied,
			AggregateType: enums.AggregateTierState,
			AggregateID:   input.CreatorID,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole},
			Data: payloads.TierDecisionEvent{
				CreatorID: input.CreatorID,
				Tier:      input.Tier,
				Note:      input.Note,
			},
			Version: 1,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit tier denied event")
		}
		return nil
	})
}

// CurrentTier reads the tier inside an existing transaction. Earning accrual
// uses this so the rate matches the tier at accrual time.
func (s *service) CurrentTier(ctx context.Context, tx *gorm.DB, creatorID uuid.UUID) (enums.Tier, error) {
	state, err := s.repo.WithTx(tx).Get(ctx, creatorID)
	if err != nil {
		return "", err
	}
	return state.Tier, nil
}

func (s *service) RateForTier(tier enums.Tier) (decimal.Decimal, error) {
	return s.policy.RateForTier(tier)
}

func validateDecision(input DecisionInput) error {
	if input.CreatorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "creator id required")
	}
	if !input.Tier.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid tier %q", input.Tier))
	}
	if input.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "admin identity missing")
	}
	return nil
}

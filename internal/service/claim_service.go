package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"croco_webapp/internal/domain"
	"croco_webapp/internal/logger"
	"croco_webapp/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	msgClaimed         = "Reward claimed successfully"
	msgNoEgg           = "No active egg to claim"
	msgNotYet          = "Reward is not available yet"
	msgAlreadyClaimed  = "Reward already claimed"
	msgClaimFailed     = "Failed to claim reward"
	claimKindManual    = "manual"
	claimKindAutomatic = "auto"
)

// ClaimResult is returned for every claim attempt. Only a missing user is an error.
type ClaimResult struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message"`
	Reward       decimal.Decimal `json:"reward"`
	Multiplier   float64         `json:"multiplier"`
	Payouts      []Payout        `json:"referral_rewards"`
	CrocoBalance decimal.Decimal `json:"croco_balance"`
	Egg          *domain.Egg     `json:"egg,omitempty"`
	NextClaimAt  *time.Time      `json:"next_claim_at,omitempty"`
}

// ClaimService awards the periodic croco reward and pays the referral chain.
type ClaimService struct {
	store repository.Store
	clock Clock
	cycle time.Duration
	base  decimal.Decimal
	log   *slog.Logger
}

func NewClaimService(store repository.Store, clock Clock, cycle time.Duration, base decimal.Decimal) *ClaimService {
	return &ClaimService{
		store: store,
		clock: clock,
		cycle: cycle,
		base:  base,
		log:   logger.Component("claim"),
	}
}

func (s *ClaimService) Cycle() time.Duration { return s.cycle }

// ClaimReward pays the user for the current cycle and resets the egg.
func (s *ClaimService) ClaimReward(ctx context.Context, userID int64) (*ClaimResult, error) {
	return s.claim(ctx, userID, claimKindManual)
}

// AutoClaim pays the user for the current cycle on their behalf and advances
// the egg by one cycle of progress instead of resetting it.
func (s *ClaimService) AutoClaim(ctx context.Context, userID int64) (*ClaimResult, error) {
	return s.claim(ctx, userID, claimKindAutomatic)
}

func (s *ClaimService) claim(ctx context.Context, userID int64, kind string) (*ClaimResult, error) {
	now := s.clock.now()
	var res *ClaimResult

	err := s.store.InTx(ctx, func(st repository.Store) error {
		user, err := st.LockUser(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}

		egg, err := st.GetClaimableEgg(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && kind == claimKindAutomatic && !egg.IsActive()) {
			res = &ClaimResult{Success: false, Message: msgNoEgg}
			return nil
		}
		if err != nil {
			return fmt.Errorf("load egg: %w", err)
		}

		if !user.CanClaimAt(now, s.cycle) {
			next := user.NextClaimAt(s.cycle)
			res = &ClaimResult{Success: false, Message: msgNotYet, NextClaimAt: &next}
			return nil
		}

		mult, err := ResolveMultipliers(ctx, st, userID, now)
		if err != nil {
			return err
		}
		reward := s.base.Mul(decimal.NewFromFloat(mult.Effective()))

		payouts, err := Distribute(ctx, st, user, reward)
		if err != nil {
			return err
		}

		stamped, err := st.StampDailyReward(ctx, userID, now, now.Add(-s.cycle))
		if err != nil {
			return fmt.Errorf("stamp claim: %w", err)
		}
		if !stamped {
			res = &ClaimResult{Success: false, Message: msgAlreadyClaimed}
			return nil
		}

		balance, err := st.CreditClaim(ctx, userID, reward, TotalPayout(payouts))
		if err != nil {
			return fmt.Errorf("credit claimant: %w", err)
		}

		if kind == claimKindAutomatic {
			AdvanceProgress(egg, ProgressPerCycle)
		} else {
			ResetEgg(egg)
		}
		if err := st.UpdateEgg(ctx, egg); err != nil {
			return fmt.Errorf("update egg: %w", err)
		}

		txType := domain.TxClaimReward
		if kind == claimKindAutomatic {
			txType = domain.TxAutoClaimReward
		}
		if err := st.CreateTransaction(ctx, &domain.Transaction{
			UserID:   userID,
			Type:     txType,
			Amount:   reward,
			Currency: domain.CurrencyCroco,
			Meta: map[string]interface{}{
				"egg_id":     egg.ID,
				"multiplier": mult.Effective(),
			},
		}); err != nil {
			return fmt.Errorf("ledger claim: %w", err)
		}

		for _, p := range payouts {
			if err := st.CreditReferral(ctx, p.UserID, p.Amount); err != nil {
				return fmt.Errorf("credit level %d referrer: %w", p.Level, err)
			}
			if err := st.CreateTransaction(ctx, &domain.Transaction{
				UserID:   p.UserID,
				Type:     domain.TxReferralReward,
				Amount:   p.Amount,
				Currency: domain.CurrencyCroco,
				Meta: map[string]interface{}{
					"from_user_id": userID,
					"level":        p.Level,
				},
			}); err != nil {
				return fmt.Errorf("ledger referral: %w", err)
			}
		}

		next := now.Add(s.cycle)
		res = &ClaimResult{
			Success:      true,
			Message:      msgClaimed,
			Reward:       reward,
			Multiplier:   mult.Effective(),
			Payouts:      payouts,
			CrocoBalance: balance,
			Egg:          egg,
			NextClaimAt:  &next,
		}
		return nil
	})

	switch {
	case errors.Is(err, ErrUserNotFound):
		ClaimsTotal.WithLabelValues(kind, "user_not_found").Inc()
		return nil, err
	case err != nil:
		ClaimsTotal.WithLabelValues(kind, "error").Inc()
		s.log.Error("claim failed", "user_id", userID, "kind", kind, "error", err)
		return &ClaimResult{Success: false, Message: msgClaimFailed}, nil
	}

	if res.Success {
		ClaimsTotal.WithLabelValues(kind, "success").Inc()
		s.log.Info("reward claimed",
			"user_id", userID,
			"kind", kind,
			"reward", res.Reward.String(),
			"multiplier", res.Multiplier,
			"referral_payouts", len(res.Payouts),
		)
	} else {
		ClaimsTotal.WithLabelValues(kind, "rejected").Inc()
	}
	return res, nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"croco_webapp/internal/domain"
	"croco_webapp/internal/referral"
	"croco_webapp/internal/repository"

	"github.com/shopspring/decimal"
)

// Payout is one ancestor's share of a claim.
type Payout struct {
	Level  int             `json:"level"`
	UserID int64           `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

// Distribute computes the referral payouts for baseAmount earned by user.
// Ancestors whose code no longer resolves are skipped and their share is not
// passed on to anyone else. Nothing is written.
func Distribute(ctx context.Context, users repository.UserStore, user *domain.User, baseAmount decimal.Decimal) ([]Payout, error) {
	codes := referral.Ancestors(user.TreePath)
	payouts := make([]Payout, 0, len(codes))

	for i, code := range codes {
		level := i + 1
		if code == user.ReferralCode {
			continue
		}

		ancestor, err := users.GetUserByReferralCode(ctx, code)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve level %d referrer: %w", level, err)
		}

		payouts = append(payouts, Payout{
			Level:  level,
			UserID: ancestor.ID,
			Amount: baseAmount.Mul(referral.Rate(level)),
		})
	}
	return payouts, nil
}

// TotalPayout sums payout amounts.
func TotalPayout(payouts []Payout) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payouts {
		total = total.Add(p.Amount)
	}
	return total
}

// ChainMember is a resolved ancestor shown to the user.
type ChainMember struct {
	Level            int     `json:"level"`
	ID               int64   `json:"id"`
	Username         string  `json:"username"`
	ReferralCode     string  `json:"referral_code"`
	RewardPercentage float64 `json:"reward_percentage"`
}

// ReferralService exposes the referral tree to the HTTP layer.
type ReferralService struct {
	store repository.Store
}

func NewReferralService(store repository.Store) *ReferralService {
	return &ReferralService{store: store}
}

// Chain lists the user's resolved ancestors, direct referrer first.
func (s *ReferralService) Chain(ctx context.Context, userID int64) ([]ChainMember, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	chain := []ChainMember{}
	for i, code := range referral.Ancestors(user.TreePath) {
		ancestor, err := s.store.GetUserByReferralCode(ctx, code)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		pct, _ := referral.Rate(i + 1).Mul(decimal.NewFromInt(100)).Float64()
		chain = append(chain, ChainMember{
			Level:            i + 1,
			ID:               ancestor.ID,
			Username:         ancestor.Username,
			ReferralCode:     ancestor.ReferralCode,
			RewardPercentage: pct,
		})
	}
	return chain, nil
}

func (s *ReferralService) Referees(ctx context.Context, code string) ([]domain.Referee, error) {
	return s.store.ListReferees(ctx, code, 100)
}

func (s *ReferralService) TopReferrers(ctx context.Context, limit int) ([]domain.RankEntry, error) {
	return s.store.TopReferrers(ctx, limit)
}

func (s *ReferralService) TopCroco(ctx context.Context, limit int) ([]domain.RankEntry, error) {
	return s.store.TopCroco(ctx, limit)
}

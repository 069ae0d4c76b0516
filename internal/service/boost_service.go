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
)

const (
	InitialBoostWindow = 4 * time.Hour
	TotalBoostWindow   = 24 * time.Hour
	// BoostRewardMultiplier doubles croco during the initial window.
	BoostRewardMultiplier = 2
)

// CurrentBoosts describes a user's time-boxed shop boosts.
type CurrentBoosts struct {
	SpeedMultiplier       float64 `json:"speedMultiplier"`
	CrocoMultiplier       float64 `json:"crocoMultiplier"`
	InitialBoostRemaining float64 `json:"initialBoostRemaining"` // seconds
	TotalBoostRemaining   float64 `json:"totalBoostRemaining"`   // seconds
}

// BoostService sells fish-priced boosts.
type BoostService struct {
	store repository.Store
	clock Clock
	audit *AuditService
	log   *slog.Logger
}

func NewBoostService(store repository.Store, clock Clock, audit *AuditService) *BoostService {
	return &BoostService{store: store, clock: clock, audit: audit, log: logger.Component("boost")}
}

// PurchaseBoost charges the item's fish price and activates the item's speed
// with doubled croco for the initial window, then the speed alone until the
// total window ends.
func (s *BoostService) PurchaseBoost(ctx context.Context, userID, itemID int64) (*ActionResult, error) {
	now := s.clock.now()
	var (
		res  *ActionResult
		item *domain.BoostUpgradeItem
	)

	err := s.store.InTx(ctx, func(st repository.Store) error {
		var err error
		item, err = st.GetBoostItem(ctx, itemID)
		if errors.Is(err, repository.ErrNotFound) {
			res = fail("Boost package not found")
			return nil
		}
		if err != nil {
			return err
		}

		user, err := st.LockUser(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if user.FishBalance.LessThan(item.FishPrice) {
			res = fail(fmt.Sprintf("Insufficient fish balance. Need %s fish", item.FishPrice.String()))
			return nil
		}

		active, err := st.ActiveBoosts(ctx, userID, now)
		if err != nil {
			return err
		}
		for _, b := range active {
			if b.BoostType == domain.BoostSpeed || b.BoostType == domain.BoostCroco {
				res = fail("Another boost is already active")
				return nil
			}
		}

		if _, err := st.AdjustFish(ctx, userID, item.FishPrice.Neg()); err != nil {
			if errors.Is(err, repository.ErrInsufficientFunds) {
				res = fail(fmt.Sprintf("Insufficient fish balance. Need %s fish", item.FishPrice.String()))
				return nil
			}
			return err
		}

		for _, b := range []*domain.AutoBoost{
			{UserID: userID, BoostType: domain.BoostSpeed, Multiplier: item.Speed, ExpiresAt: now.Add(InitialBoostWindow)},
			{UserID: userID, BoostType: domain.BoostCroco, Multiplier: BoostRewardMultiplier, ExpiresAt: now.Add(InitialBoostWindow)},
			{UserID: userID, BoostType: domain.BoostSpeed, Multiplier: item.Speed, ExpiresAt: now.Add(TotalBoostWindow)},
		} {
			if err := st.CreateBoost(ctx, b); err != nil {
				return fmt.Errorf("create %s: %w", b.BoostType, err)
			}
		}

		if err := st.CreateTransaction(ctx, &domain.Transaction{
			UserID:   userID,
			Type:     domain.TxBoostPurchase,
			Amount:   item.FishPrice.Neg(),
			Currency: domain.CurrencyFish,
			Meta:     map[string]interface{}{"boost_item_id": item.ID, "speed": item.Speed},
		}); err != nil {
			return err
		}

		res = &ActionResult{
			Success: true,
			Message: fmt.Sprintf("Boost activated: %gx speed with %dx Croco for %d hours, then %gx speed for %d hours",
				item.Speed, BoostRewardMultiplier, int(InitialBoostWindow.Hours()),
				item.Speed, int((TotalBoostWindow - InitialBoostWindow).Hours())),
		}
		return nil
	})

	switch {
	case errors.Is(err, ErrUserNotFound):
		return nil, err
	case err != nil:
		PurchasesTotal.WithLabelValues("boost", "error").Inc()
		s.log.Error("boost purchase failed", "user_id", userID, "item_id", itemID, "error", err)
		return fail("Failed to activate boost"), nil
	}

	if res.Success {
		PurchasesTotal.WithLabelValues("boost", "success").Inc()
		s.audit.Log(ctx, userID, domain.AuditActionBoostPurchase, domain.AuditCategoryShop, map[string]interface{}{
			"item_id":    item.ID,
			"fish_price": item.FishPrice.String(),
		})
	} else {
		PurchasesTotal.WithLabelValues("boost", "rejected").Inc()
	}
	return res, nil
}

// CurrentBoosts reports the active shop boosts and how long they last.
func (s *BoostService) CurrentBoosts(ctx context.Context, userID int64) (*CurrentBoosts, error) {
	now := s.clock.now()
	active, err := s.store.ActiveBoosts(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	out := &CurrentBoosts{SpeedMultiplier: 1, CrocoMultiplier: 1}
	var initialEnd, totalEnd time.Time
	for _, b := range active {
		switch b.BoostType {
		case domain.BoostSpeed:
			if b.Multiplier > out.SpeedMultiplier {
				out.SpeedMultiplier = b.Multiplier
			}
			if b.ExpiresAt.After(totalEnd) {
				totalEnd = b.ExpiresAt
			}
		case domain.BoostCroco:
			if b.Multiplier > out.CrocoMultiplier {
				out.CrocoMultiplier = b.Multiplier
			}
			if b.ExpiresAt.After(initialEnd) {
				initialEnd = b.ExpiresAt
			}
		}
	}
	if !initialEnd.IsZero() {
		out.InitialBoostRemaining = initialEnd.Sub(now).Seconds()
	}
	if !totalEnd.IsZero() {
		out.TotalBoostRemaining = totalEnd.Sub(now).Seconds()
	}
	return out, nil
}

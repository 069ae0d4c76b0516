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
	SpeedUpgradeWindow = 4 * time.Hour
	SpeedLevelWindow   = 20 * time.Hour
)

// selectionExpiry keeps the speedSelected marker alive indefinitely.
var selectionExpiry = time.Date(2099, 12, 31, 0, 0, 0, 0, time.UTC)

// SpeedPackage is a speed ladder rung as shown to one user.
type SpeedPackage struct {
	ID       int64           `json:"id"`
	Speed    float64         `json:"speed"`
	Price    decimal.Decimal `json:"price"`
	Selected bool            `json:"selected"`
}

// SpeedUpgradeService sells the croco-priced speed ladder. A user climbs one
// level at a time: select the next rung, then purchase it.
type SpeedUpgradeService struct {
	store repository.Store
	clock Clock
	audit *AuditService
	log   *slog.Logger
}

func NewSpeedUpgradeService(store repository.Store, clock Clock, audit *AuditService) *SpeedUpgradeService {
	return &SpeedUpgradeService{store: store, clock: clock, audit: audit, log: logger.Component("speed_upgrade")}
}

type speedState struct {
	level    float64
	selected *domain.AutoBoost
}

func (s *SpeedUpgradeService) state(ctx context.Context, boosts repository.BoostStore, userID int64, now time.Time) (speedState, error) {
	st := speedState{level: 1}
	active, err := boosts.ActiveBoosts(ctx, userID, now)
	if err != nil {
		return st, err
	}
	for i := range active {
		b := active[i]
		switch b.BoostType {
		case domain.BoostSpeedLevel:
			if b.Multiplier > st.level {
				st.level = b.Multiplier
			}
		case domain.BoostSpeedSelected:
			st.selected = &b
		}
	}
	return st, nil
}

// CurrentLevel is the highest active speedLevel, 1 when none.
func (s *SpeedUpgradeService) CurrentLevel(ctx context.Context, userID int64) (float64, error) {
	st, err := s.state(ctx, s.store, userID, s.clock.now())
	return st.level, err
}

// AvailableUpgrades lists the rungs up to the next level.
func (s *SpeedUpgradeService) AvailableUpgrades(ctx context.Context, userID int64) ([]SpeedPackage, error) {
	st, err := s.state(ctx, s.store, userID, s.clock.now())
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListSpeedItems(ctx)
	if err != nil {
		return nil, err
	}

	out := []SpeedPackage{}
	for _, it := range items {
		if it.Speed > st.level+1 {
			continue
		}
		out = append(out, SpeedPackage{
			ID:       it.ID,
			Speed:    it.Speed,
			Price:    it.Price,
			Selected: st.selected != nil && st.selected.Multiplier == it.Speed,
		})
	}
	return out, nil
}

// SelectPackage remembers which rung the user intends to buy.
func (s *SpeedUpgradeService) SelectPackage(ctx context.Context, userID, packageID int64) (*ActionResult, error) {
	now := s.clock.now()
	item, err := s.store.GetSpeedItem(ctx, packageID)
	if errors.Is(err, repository.ErrNotFound) {
		return fail("Package not found"), nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := s.store.GetUser(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	st, err := s.state(ctx, s.store, userID, now)
	if err != nil {
		return nil, err
	}
	if item.Speed > st.level+1 {
		return fail(fmt.Sprintf("Must upgrade to x%g before selecting x%g", st.level+1, item.Speed)), nil
	}

	if err := s.store.UpsertBoost(ctx, &domain.AutoBoost{
		UserID:     userID,
		BoostType:  domain.BoostSpeedSelected,
		Multiplier: item.Speed,
		ExpiresAt:  selectionExpiry,
	}); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, userID, domain.AuditActionSpeedSelect, domain.AuditCategoryShop, map[string]interface{}{"speed": item.Speed})
	return &ActionResult{Success: true, Message: fmt.Sprintf("Selected x%g speed package", item.Speed)}, nil
}

// PurchaseUpgrade buys the selected rung. The new speed applies for the
// upgrade window, after which hatch speed falls back to the previous level
// until the level window ends.
func (s *SpeedUpgradeService) PurchaseUpgrade(ctx context.Context, userID int64) (*ActionResult, error) {
	now := s.clock.now()
	var (
		res  *ActionResult
		item *domain.SpeedUpgradeItem
	)

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		user, err := tx.LockUser(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		st, err := s.state(ctx, tx, userID, now)
		if err != nil {
			return err
		}
		if st.selected == nil {
			res = fail("No speed package selected")
			return nil
		}

		items, err := tx.ListSpeedItems(ctx)
		if err != nil {
			return err
		}
		for i := range items {
			if items[i].Speed == st.selected.Multiplier {
				item = &items[i]
				break
			}
		}
		if item == nil {
			res = fail("Selected package not found")
			return nil
		}

		if item.Speed != st.level+1 {
			res = fail(fmt.Sprintf("Must upgrade to x%g first", st.level+1))
			return nil
		}
		if user.CrocoBalance.LessThan(item.Price) {
			res = fail("Insufficient Croco balance")
			return nil
		}

		if _, err := tx.GetActiveEgg(ctx, userID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				res = fail("No active incubating egg found")
				return nil
			}
			return err
		}

		if _, err := tx.AdjustCroco(ctx, userID, item.Price.Neg()); err != nil {
			if errors.Is(err, repository.ErrInsufficientFunds) {
				res = fail("Insufficient Croco balance")
				return nil
			}
			return err
		}

		if err := tx.UpsertBoost(ctx, &domain.AutoBoost{
			UserID:     userID,
			BoostType:  domain.BoostSpeedLevel,
			Multiplier: item.Speed,
			ExpiresAt:  now.Add(SpeedLevelWindow),
		}); err != nil {
			return fmt.Errorf("upsert speed level: %w", err)
		}
		for _, b := range []*domain.AutoBoost{
			{UserID: userID, BoostType: domain.BoostHatchSpeed, Multiplier: item.Speed, ExpiresAt: now.Add(SpeedUpgradeWindow)},
			{UserID: userID, BoostType: domain.BoostHatchSpeed, Multiplier: st.level, ExpiresAt: now.Add(SpeedLevelWindow)},
		} {
			if err := tx.CreateBoost(ctx, b); err != nil {
				return fmt.Errorf("create hatch speed: %w", err)
			}
		}

		if err := tx.CreateTransaction(ctx, &domain.Transaction{
			UserID:   userID,
			Type:     domain.TxSpeedUpgrade,
			Amount:   item.Price.Neg(),
			Currency: domain.CurrencyCroco,
			Meta:     map[string]interface{}{"speed": item.Speed, "previous_level": st.level},
		}); err != nil {
			return err
		}

		res = &ActionResult{
			Success: true,
			Message: fmt.Sprintf("Speed upgraded to x%g for %d hours", item.Speed, int(SpeedUpgradeWindow.Hours())),
		}
		return nil
	})

	switch {
	case errors.Is(err, ErrUserNotFound):
		return nil, err
	case err != nil:
		PurchasesTotal.WithLabelValues("speed", "error").Inc()
		s.log.Error("speed upgrade failed", "user_id", userID, "error", err)
		return fail("Failed to purchase upgrade"), nil
	}

	if res.Success {
		PurchasesTotal.WithLabelValues("speed", "success").Inc()
		s.audit.Log(ctx, userID, domain.AuditActionSpeedUpgrade, domain.AuditCategoryShop, map[string]interface{}{
			"speed": item.Speed,
			"price": item.Price.String(),
		})
	} else {
		PurchasesTotal.WithLabelValues("speed", "rejected").Inc()
	}
	return res, nil
}

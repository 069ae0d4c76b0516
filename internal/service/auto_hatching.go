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

// AutoHatchingStatus tells the client whether claims happen on its behalf.
type AutoHatchingStatus struct {
	HasAutoHatching bool       `json:"hasAutoHatching"`
	NextClaimTime   *time.Time `json:"nextClaimTime,omitempty"`
}

// AutoHatchingService sells the auto-claim unlock and runs the periodic auto-claim pass.
type AutoHatchingService struct {
	store  repository.Store
	claims *ClaimService
	clock  Clock
	price  decimal.Decimal
	audit  *AuditService
	log    *slog.Logger
}

func NewAutoHatchingService(store repository.Store, claims *ClaimService, clock Clock, price decimal.Decimal, audit *AuditService) *AutoHatchingService {
	return &AutoHatchingService{
		store:  store,
		claims: claims,
		clock:  clock,
		price:  price,
		audit:  audit,
		log:    logger.Component("auto_hatching"),
	}
}

// Purchase unlocks auto hatching for the user. It is bought once and never expires.
func (s *AutoHatchingService) Purchase(ctx context.Context, userID int64) (*ActionResult, error) {
	var res *ActionResult
	err := s.store.InTx(ctx, func(st repository.Store) error {
		user, err := st.LockUser(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			res = fail("User not found")
			return nil
		}
		if err != nil {
			return err
		}

		_, err = st.GetAutoHatching(ctx, userID)
		if err == nil {
			res = fail("Auto hatching is already activated for this user")
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		insufficient := fail(fmt.Sprintf("Insufficient fish balance. Need %s fish", s.price.String()))
		if user.FishBalance.LessThan(s.price) {
			res = insufficient
			return nil
		}
		if _, err := st.AdjustFish(ctx, userID, s.price.Neg()); err != nil {
			if errors.Is(err, repository.ErrInsufficientFunds) {
				res = insufficient
				return nil
			}
			return err
		}

		if err := st.CreateAutoHatching(ctx, &domain.AutoHatching{UserID: userID, Price: s.price}); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("concurrent activation: %w", err)
			}
			return err
		}

		if err := st.CreateTransaction(ctx, &domain.Transaction{
			UserID:   userID,
			Type:     domain.TxAutoHatchPurchase,
			Amount:   s.price.Neg(),
			Currency: domain.CurrencyFish,
		}); err != nil {
			return err
		}

		res = &ActionResult{Success: true, Message: "Auto hatching activated successfully"}
		return nil
	})
	if err != nil {
		PurchasesTotal.WithLabelValues("auto_hatching", "error").Inc()
		s.log.Error("auto hatching purchase failed", "user_id", userID, "error", err)
		return fail("Failed to activate auto hatching"), nil
	}

	if res.Success {
		PurchasesTotal.WithLabelValues("auto_hatching", "success").Inc()
		s.audit.Log(ctx, userID, domain.AuditActionAutoHatchPurchase, domain.AuditCategoryShop, map[string]interface{}{
			"price": s.price.String(),
		})
	} else {
		PurchasesTotal.WithLabelValues("auto_hatching", "rejected").Inc()
	}
	return res, nil
}

// Status reports whether the user has auto hatching and when the next claim is due.
func (s *AutoHatchingService) Status(ctx context.Context, userID int64) (*AutoHatchingStatus, error) {
	_, err := s.store.GetAutoHatching(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return &AutoHatchingStatus{HasAutoHatching: false}, nil
	}
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	next := s.clock.now()
	if user.LastDailyReward != nil {
		next = user.NextClaimAt(s.claims.Cycle())
	}
	return &AutoHatchingStatus{HasAutoHatching: true, NextClaimTime: &next}, nil
}

// ProcessDue auto-claims for every eligible user. One user's failure does not
// stop the pass. It returns the number of successful claims.
func (s *AutoHatchingService) ProcessDue(ctx context.Context) (int, error) {
	now := s.clock.now()
	ids, err := s.store.ListAutoHatchingDue(ctx, now.Add(-s.claims.Cycle()), 0)
	if err != nil {
		return 0, fmt.Errorf("list due users: %w", err)
	}

	claimed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return claimed, err
		}
		res, err := s.claims.AutoClaim(ctx, id)
		if err != nil {
			s.log.Warn("auto claim skipped", "user_id", id, "error", err)
			continue
		}
		if !res.Success {
			s.log.Debug("auto claim rejected", "user_id", id, "message", res.Message)
			continue
		}
		claimed++
	}
	if claimed > 0 {
		s.log.Info("auto claims processed", "claimed", claimed, "due", len(ids))
	}
	return claimed, nil
}

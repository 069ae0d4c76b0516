package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"croco_webapp/internal/domain"
	"croco_webapp/internal/repository"

	"github.com/shopspring/decimal"
)

func TestInTxRollback(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := &domain.User{TelegramID: 1, ReferralCode: "AAAA2222"}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx repository.Store) error {
		if _, err := tx.AdjustCroco(ctx, u.ID, decimal.NewFromInt(10)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}

	got, _ := s.GetUser(ctx, u.ID)
	if !got.CrocoBalance.IsZero() {
		t.Fatalf("rollback leaked balance %s", got.CrocoBalance)
	}

	if err := s.InTx(ctx, func(tx repository.Store) error {
		_, err := tx.AdjustCroco(ctx, u.ID, decimal.NewFromInt(10))
		return err
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	got, _ = s.GetUser(ctx, u.ID)
	if !got.CrocoBalance.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("commit lost balance %s", got.CrocoBalance)
	}
}

func TestGuardedDecrement(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := &domain.User{TelegramID: 1, ReferralCode: "AAAA2222"}
	_ = s.CreateUser(ctx, u)

	if _, err := s.AdjustFish(ctx, u.ID, decimal.NewFromInt(-1)); !errors.Is(err, repository.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if _, err := s.AdjustFish(ctx, 99, decimal.NewFromInt(1)); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStampDailyReward(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := &domain.User{TelegramID: 1, ReferralCode: "AAAA2222"}
	_ = s.CreateUser(ctx, u)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cycle := 4 * time.Hour

	if ok, _ := s.StampDailyReward(ctx, u.ID, now, now.Add(-cycle)); !ok {
		t.Fatalf("first stamp must succeed")
	}
	if ok, _ := s.StampDailyReward(ctx, u.ID, now.Add(time.Hour), now.Add(time.Hour-cycle)); ok {
		t.Fatalf("stamp inside the cycle must fail")
	}
	if ok, _ := s.StampDailyReward(ctx, u.ID, now.Add(cycle), now); !ok {
		t.Fatalf("stamp after a full cycle must succeed")
	}
}

func TestUniqueUsers(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.CreateUser(ctx, &domain.User{TelegramID: 1, ReferralCode: "AAAA2222"})

	if err := s.CreateUser(ctx, &domain.User{TelegramID: 2, ReferralCode: "AAAA2222"}); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("duplicate code: %v", err)
	}
	if err := s.CreateUser(ctx, &domain.User{TelegramID: 1, ReferralCode: "BBBB2222"}); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("duplicate telegram id: %v", err)
	}
}

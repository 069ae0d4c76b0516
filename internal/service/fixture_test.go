package service

import (
	"context"
	"io"
	"testing"
	"time"

	"croco_webapp/internal/domain"
	"croco_webapp/internal/logger"
	"croco_webapp/internal/storetest"

	"github.com/shopspring/decimal"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const testCycle = 4 * time.Hour

func init() {
	logger.InitWriter(io.Discard, "error", false)
	InitJWT("test-secret")
}

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *storetest.Store
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{t: t, ctx: context.Background(), store: storetest.New(), now: t0}
	f.store.Now = f.clock()
	return f
}

func (f *fixture) clock() Clock {
	return func() time.Time { return f.now }
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) claims() *ClaimService {
	return NewClaimService(f.store, f.clock(), testCycle, decimal.NewFromInt(144))
}

// user creates a user with the given code and tree path.
func (f *fixture) user(code, treePath string) *domain.User {
	f.t.Helper()
	u := &domain.User{
		TelegramID:   nextTelegramID(),
		Username:     "user_" + code,
		ReferralCode: code,
		TreePath:     treePath,
	}
	if err := f.store.CreateUser(f.ctx, u); err != nil {
		f.t.Fatalf("create user %s: %v", code, err)
	}
	return u
}

var telegramSeq int64 = 100_000_000

func nextTelegramID() int64 {
	telegramSeq++
	return telegramSeq
}

func (f *fixture) fish(userID int64, amount int64) {
	f.t.Helper()
	if _, err := f.store.AdjustFish(f.ctx, userID, decimal.NewFromInt(amount)); err != nil {
		f.t.Fatalf("fund fish: %v", err)
	}
}

func (f *fixture) croco(userID int64, amount int64) {
	f.t.Helper()
	if _, err := f.store.AdjustCroco(f.ctx, userID, decimal.NewFromInt(amount)); err != nil {
		f.t.Fatalf("fund croco: %v", err)
	}
}

// claimedAt records a previous claim.
func (f *fixture) claimedAt(userID int64, at time.Time) {
	f.t.Helper()
	ok, err := f.store.StampDailyReward(f.ctx, userID, at, at)
	if err != nil || !ok {
		f.t.Fatalf("stamp claim: ok=%v err=%v", ok, err)
	}
}

func (f *fixture) egg(userID int64, progress float64, incubating bool) *domain.Egg {
	f.t.Helper()
	e := domain.NewEgg(userID)
	e.HatchProgress = progress
	e.IsIncubating = incubating
	if incubating {
		start := f.now
		e.LastIncubationStart = &start
	}
	if err := f.store.CreateEgg(f.ctx, e); err != nil {
		f.t.Fatalf("create egg: %v", err)
	}
	return e
}

func (f *fixture) boost(userID int64, typ domain.BoostType, mult float64, ttl time.Duration) {
	f.t.Helper()
	if err := f.store.CreateBoost(f.ctx, &domain.AutoBoost{
		UserID:     userID,
		BoostType:  typ,
		Multiplier: mult,
		ExpiresAt:  f.now.Add(ttl),
	}); err != nil {
		f.t.Fatalf("create boost: %v", err)
	}
}

func (f *fixture) reload(userID int64) *domain.User {
	f.t.Helper()
	u, err := f.store.GetUser(f.ctx, userID)
	if err != nil {
		f.t.Fatalf("get user: %v", err)
	}
	return u
}

func (f *fixture) reloadEgg(id int64) *domain.Egg {
	f.t.Helper()
	e, err := f.store.GetEgg(f.ctx, id)
	if err != nil {
		f.t.Fatalf("get egg: %v", err)
	}
	return e
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("%s = %s, want %s", name, got.String(), want)
	}
}

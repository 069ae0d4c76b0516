package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"croco_webapp/internal/domain"
)

func seedCatalog(f *fixture) {
	f.store.SetCatalog(
		[]domain.SpeedUpgradeItem{
			{ID: 1, Speed: 2, Price: dec("100")},
			{ID: 2, Speed: 3, Price: dec("250")},
			{ID: 3, Speed: 4, Price: dec("500")},
		},
		[]domain.BoostUpgradeItem{
			{ID: 1, Speed: 2, Duration: 1, FishPrice: dec("50")},
			{ID: 2, Speed: 5, Duration: 1, FishPrice: dec("400")},
		},
		[]domain.FishItem{
			{ID: 1, Amount: dec("100"), PriceTON: dec("0.5"), PriceStar: dec("50")},
		},
	)
}

func TestPurchaseBoost(t *testing.T) {
	f := newFixture(t)
	seedCatalog(f)
	u := f.user("AAAA2222", "")
	f.fish(u.ID, 120)
	audit := NewAuditService(f.store)
	svc := NewBoostService(f.store, f.clock(), audit)

	res, err := svc.PurchaseBoost(f.ctx, u.ID, 1)
	if err != nil || !res.Success {
		t.Fatalf("purchase: %v %+v", err, res)
	}
	assertDecimal(t, "fish", f.reload(u.ID).FishBalance, "70")

	boosts := f.store.Boosts(u.ID)
	if len(boosts) != 3 {
		t.Fatalf("expected 3 boost rows, got %+v", boosts)
	}
	want := []struct {
		typ  domain.BoostType
		mult float64
		ttl  time.Duration
	}{
		{domain.BoostSpeed, 2, InitialBoostWindow},
		{domain.BoostCroco, 2, InitialBoostWindow},
		{domain.BoostSpeed, 2, TotalBoostWindow},
	}
	for i, w := range want {
		b := boosts[i]
		if b.BoostType != w.typ || b.Multiplier != w.mult || !b.ExpiresAt.Equal(t0.Add(w.ttl)) {
			t.Fatalf("boost %d = %+v", i, b)
		}
	}

	cur, err := svc.CurrentBoosts(f.ctx, u.ID)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if cur.SpeedMultiplier != 2 || cur.CrocoMultiplier != 2 {
		t.Fatalf("unexpected current %+v", cur)
	}
	if cur.InitialBoostRemaining != InitialBoostWindow.Seconds() || cur.TotalBoostRemaining != TotalBoostWindow.Seconds() {
		t.Fatalf("unexpected remaining %+v", cur)
	}

	// overlapping purchase is refused and charges nothing
	res, err = svc.PurchaseBoost(f.ctx, u.ID, 1)
	if err != nil {
		t.Fatalf("second purchase: %v", err)
	}
	if res.Success || res.Message != "Another boost is already active" {
		t.Fatalf("expected overlap refusal, got %+v", res)
	}
	assertDecimal(t, "fish", f.reload(u.ID).FishBalance, "70")

	logs, _ := audit.Recent(f.ctx, u.ID, 10)
	if len(logs) != 1 || logs[0].Action != domain.AuditActionBoostPurchase {
		t.Fatalf("unexpected audit %+v", logs)
	}
}

func TestPurchaseBoost_Refusals(t *testing.T) {
	f := newFixture(t)
	seedCatalog(f)
	u := f.user("AAAA2222", "")
	f.fish(u.ID, 100)
	svc := NewBoostService(f.store, f.clock(), nil)

	res, err := svc.PurchaseBoost(f.ctx, u.ID, 99)
	if err != nil || res.Success || res.Message != "Boost package not found" {
		t.Fatalf("missing item: %v %+v", err, res)
	}

	res, err = svc.PurchaseBoost(f.ctx, u.ID, 2)
	if err != nil || res.Success || !strings.HasPrefix(res.Message, "Insufficient fish balance") {
		t.Fatalf("insufficient fish: %v %+v", err, res)
	}
	if len(f.store.Boosts(u.ID)) != 0 {
		t.Fatalf("refused purchase created boosts")
	}

	if _, err := svc.PurchaseBoost(f.ctx, 999, 1); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCurrentBoosts_None(t *testing.T) {
	f := newFixture(t)
	u := f.user("AAAA2222", "")

	cur, err := NewBoostService(f.store, f.clock(), nil).CurrentBoosts(f.ctx, u.ID)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if cur.SpeedMultiplier != 1 || cur.CrocoMultiplier != 1 || cur.InitialBoostRemaining != 0 || cur.TotalBoostRemaining != 0 {
		t.Fatalf("unexpected %+v", cur)
	}
}

func TestSpeedUpgradeLadder(t *testing.T) {
	f := newFixture(t)
	seedCatalog(f)
	u := f.user("AAAA2222", "")
	f.croco(u.ID, 300)
	f.egg(u.ID, 0, true)
	svc := NewSpeedUpgradeService(f.store, f.clock(), nil)

	level, err := svc.CurrentLevel(f.ctx, u.ID)
	if err != nil || level != 1 {
		t.Fatalf("initial level: %v %v", level, err)
	}

	pkgs, err := svc.AvailableUpgrades(f.ctx, u.ID)
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	if len(pkgs) != 1 || pkgs[0].Speed != 2 || pkgs[0].Selected {
		t.Fatalf("unexpected packages %+v", pkgs)
	}

	res, err := svc.PurchaseUpgrade(f.ctx, u.ID)
	if err != nil || res.Success || res.Message != "No speed package selected" {
		t.Fatalf("purchase without selection: %v %+v", err, res)
	}

	res, err = svc.SelectPackage(f.ctx, u.ID, 3)
	if err != nil || res.Success {
		t.Fatalf("skipping a rung must be refused: %v %+v", err, res)
	}
	res, err = svc.SelectPackage(f.ctx, u.ID, 1)
	if err != nil || !res.Success {
		t.Fatalf("select: %v %+v", err, res)
	}
	pkgs, _ = svc.AvailableUpgrades(f.ctx, u.ID)
	if !pkgs[0].Selected {
		t.Fatalf("selection not reflected %+v", pkgs)
	}

	res, err = svc.PurchaseUpgrade(f.ctx, u.ID)
	if err != nil || !res.Success {
		t.Fatalf("purchase: %v %+v", err, res)
	}
	assertDecimal(t, "croco", f.reload(u.ID).CrocoBalance, "200")

	if level, _ = svc.CurrentLevel(f.ctx, u.ID); level != 2 {
		t.Fatalf("level after purchase = %v", level)
	}
	m, _ := ResolveMultipliers(f.ctx, f.store, u.ID, f.now)
	if m.Speed != 2 {
		t.Fatalf("speed multiplier = %v", m.Speed)
	}

	var hatch []domain.AutoBoost
	for _, b := range f.store.Boosts(u.ID) {
		if b.BoostType == domain.BoostHatchSpeed {
			hatch = append(hatch, b)
		}
	}
	if len(hatch) != 2 ||
		hatch[0].Multiplier != 2 || !hatch[0].ExpiresAt.Equal(t0.Add(SpeedUpgradeWindow)) ||
		hatch[1].Multiplier != 1 || !hatch[1].ExpiresAt.Equal(t0.Add(SpeedLevelWindow)) {
		t.Fatalf("unexpected hatch speed rows %+v", hatch)
	}

	// next rung is too expensive
	if res, _ = svc.SelectPackage(f.ctx, u.ID, 2); !res.Success {
		t.Fatalf("select next rung: %+v", res)
	}
	res, err = svc.PurchaseUpgrade(f.ctx, u.ID)
	if err != nil || res.Success || res.Message != "Insufficient Croco balance" {
		t.Fatalf("expected insufficient croco, got %v %+v", err, res)
	}
}

func TestSpeedUpgrade_NeedsActiveEgg(t *testing.T) {
	f := newFixture(t)
	seedCatalog(f)
	u := f.user("AAAA2222", "")
	f.croco(u.ID, 300)
	svc := NewSpeedUpgradeService(f.store, f.clock(), nil)

	if res, _ := svc.SelectPackage(f.ctx, u.ID, 1); !res.Success {
		t.Fatalf("select: %+v", res)
	}
	res, err := svc.PurchaseUpgrade(f.ctx, u.ID)
	if err != nil || res.Success || res.Message != "No active incubating egg found" {
		t.Fatalf("expected egg refusal, got %v %+v", err, res)
	}
	assertDecimal(t, "croco", f.reload(u.ID).CrocoBalance, "300")
}

func TestAutoHatchingPurchase(t *testing.T) {
	f := newFixture(t)
	u := f.user("AAAA2222", "")
	svc := NewAutoHatchingService(f.store, f.claims(), f.clock(), dec("500"), nil)

	res, err := svc.Purchase(f.ctx, u.ID)
	if err != nil || res.Success || !strings.HasPrefix(res.Message, "Insufficient fish balance") {
		t.Fatalf("expected insufficient fish, got %v %+v", err, res)
	}

	f.fish(u.ID, 600)
	res, err = svc.Purchase(f.ctx, u.ID)
	if err != nil || !res.Success {
		t.Fatalf("purchase: %v %+v", err, res)
	}
	assertDecimal(t, "fish", f.reload(u.ID).FishBalance, "100")

	res, _ = svc.Purchase(f.ctx, u.ID)
	if res.Success || res.Message != "Auto hatching is already activated for this user" {
		t.Fatalf("expected already activated, got %+v", res)
	}

	res, _ = svc.Purchase(f.ctx, 999)
	if res.Success || res.Message != "User not found" {
		t.Fatalf("expected user not found, got %+v", res)
	}

	st, err := svc.Status(f.ctx, u.ID)
	if err != nil || !st.HasAutoHatching || st.NextClaimTime == nil || !st.NextClaimTime.Equal(t0) {
		t.Fatalf("status: %v %+v", err, st)
	}
}

func TestAutoHatchingProcessDue(t *testing.T) {
	f := newFixture(t)
	claims := f.claims()
	svc := NewAutoHatchingService(f.store, claims, f.clock(), dec("500"), nil)

	due := f.user("AAAA2222", "")
	f.fish(due.ID, 500)
	dueEgg := f.egg(due.ID, 0, true)
	if res, _ := svc.Purchase(f.ctx, due.ID); !res.Success {
		t.Fatalf("purchase: %+v", res)
	}

	idle := f.user("BBBB2222", "")
	f.fish(idle.ID, 500)
	f.egg(idle.ID, 0, false)
	if res, _ := svc.Purchase(f.ctx, idle.ID); !res.Success {
		t.Fatalf("purchase: %+v", res)
	}

	notUnlocked := f.user("CCCC2222", "")
	f.egg(notUnlocked.ID, 0, true)

	n, err := svc.ProcessDue(f.ctx)
	if err != nil || n != 1 {
		t.Fatalf("process: n=%d err=%v", n, err)
	}
	if e := f.reloadEgg(dueEgg.ID); e.HatchProgress != 25 || !e.IsIncubating {
		t.Fatalf("due egg = %+v", e)
	}
	assertDecimal(t, "due croco", f.reload(due.ID).CrocoBalance, "144")
	assertDecimal(t, "locked croco", f.reload(notUnlocked.ID).CrocoBalance, "0")

	// same cycle: nothing due
	if n, _ = svc.ProcessDue(f.ctx); n != 0 {
		t.Fatalf("expected nothing due, got %d", n)
	}

	f.advance(testCycle)
	if n, _ = svc.ProcessDue(f.ctx); n != 1 {
		t.Fatalf("expected one claim next cycle, got %d", n)
	}
	st, _ := svc.Status(f.ctx, due.ID)
	if !st.NextClaimTime.Equal(f.now.Add(testCycle)) {
		t.Fatalf("next claim = %v", st.NextClaimTime)
	}
}

func TestCatalogCache(t *testing.T) {
	f := newFixture(t)
	seedCatalog(f)
	calls := 0
	f.store.Fail = func(op string) error {
		if op == "ListBoostItems" {
			calls++
		}
		return nil
	}
	svc := NewCatalogService(f.store, f.clock())

	for i := 0; i < 3; i++ {
		items, err := svc.BoostList(f.ctx)
		if err != nil || len(items) != 2 {
			t.Fatalf("boost list: %v %+v", err, items)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one store read, got %d", calls)
	}

	f.advance(2 * time.Minute)
	if _, err := svc.BoostList(f.ctx); err != nil {
		t.Fatalf("boost list: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expired entry must reload, got %d reads", calls)
	}

	svc.Invalidate()
	if _, err := svc.BoostList(f.ctx); err != nil {
		t.Fatalf("boost list: %v", err)
	}
	if calls != 3 {
		t.Fatalf("invalidate must reload, got %d reads", calls)
	}

	speed, _ := svc.SpeedList(f.ctx)
	fish, _ := svc.FishList(f.ctx)
	if len(speed) != 3 || len(fish) != 1 {
		t.Fatalf("unexpected lists %d %d", len(speed), len(fish))
	}
}

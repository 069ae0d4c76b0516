package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"croco_webapp/internal/domain"
	"croco_webapp/internal/referral"
	"croco_webapp/internal/telegram"
)

type stubPhotos struct {
	url   string
	err   error
	calls int
}

func (p *stubPhotos) ProfilePhotoURL(ctx context.Context, telegramID int64) (string, error) {
	p.calls++
	return p.url, p.err
}

func (f *fixture) accounts(photos telegram.PhotoSource) *AccountService {
	audit := NewAuditService(f.store)
	eggs := NewEggService(f.store, f.clock(), audit)
	return NewAccountService(f.store, eggs, f.clock(), testCycle, telegram.DefaultAgeTable, photos, audit)
}

func TestLogin_SignUp(t *testing.T) {
	f := newFixture(t)
	svc := f.accounts(nil)

	res, err := svc.Login(f.ctx, LoginRequest{User: &telegram.WebAppUser{ID: 777, Username: "croc", FirstName: "Croco"}})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !res.IsNew || res.Token == "" || res.Egg == nil {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(res.User.ReferralCode) != referral.CodeLength {
		t.Fatalf("code %q has wrong length", res.User.ReferralCode)
	}
	for _, r := range res.User.ReferralCode {
		if !strings.ContainsRune(referral.CodeAlphabet, r) {
			t.Fatalf("code %q uses %q outside the alphabet", res.User.ReferralCode, r)
		}
	}
	if res.User.TreePath != "" || res.User.ReferredByCode != nil {
		t.Fatalf("user without invite must have no referrer: %+v", res.User)
	}
	if res.Egg.State() != domain.EggIdle {
		t.Fatalf("bootstrap egg must be idle: %+v", res.Egg)
	}

	userID, err := ParseJWT(res.Token, f.now)
	if err != nil || userID != res.User.ID {
		t.Fatalf("token: id=%d err=%v", userID, err)
	}

	logs, _ := f.store.ListAuditLogs(f.ctx, res.User.ID, 10)
	if len(logs) != 1 || logs[0].Action != domain.AuditActionSignup {
		t.Fatalf("unexpected audit %+v", logs)
	}
}

func TestLogin_ReturningUser(t *testing.T) {
	f := newFixture(t)
	svc := f.accounts(nil)

	first, err := svc.Login(f.ctx, LoginRequest{User: &telegram.WebAppUser{ID: 777, Username: "old"}})
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	f.advance(time.Hour)
	second, err := svc.Login(f.ctx, LoginRequest{User: &telegram.WebAppUser{ID: 777, Username: "new"}, ReferralCode: "IGNORED2"})
	if err != nil {
		t.Fatalf("second login: %v", err)
	}

	if second.IsNew || second.User.ID != first.User.ID {
		t.Fatalf("expected the same user, got %+v", second.User)
	}
	if second.User.ReferralCode != first.User.ReferralCode {
		t.Fatalf("referral code must not change")
	}
	if second.User.Username != "new" {
		t.Fatalf("profile not refreshed: %q", second.User.Username)
	}
	if second.Egg.ID != first.Egg.ID {
		t.Fatalf("returning user must keep the egg")
	}
}

func TestLogin_WithReferralCode(t *testing.T) {
	f := newFixture(t)
	svc := f.accounts(nil)
	root := f.user("ROOT2222", "")
	mid := f.user("MIDD2222", "ROOT2222")

	res, err := svc.Login(f.ctx, LoginRequest{
		User:         &telegram.WebAppUser{ID: 555},
		ReferralCode: " midd2222 ",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.User.ReferredByCode == nil || *res.User.ReferredByCode != mid.ReferralCode {
		t.Fatalf("referred by = %v", res.User.ReferredByCode)
	}
	if res.User.TreePath != root.ReferralCode+"."+mid.ReferralCode {
		t.Fatalf("tree path = %q", res.User.TreePath)
	}

	unknown, err := svc.Login(f.ctx, LoginRequest{User: &telegram.WebAppUser{ID: 556}, ReferralCode: "NOPE2222"})
	if err != nil {
		t.Fatalf("login with unknown code: %v", err)
	}
	if unknown.User.ReferredByCode != nil || unknown.User.TreePath != "" {
		t.Fatalf("unknown code must be ignored: %+v", unknown.User)
	}
}

func TestLogin_UniqueCodes(t *testing.T) {
	f := newFixture(t)
	svc := f.accounts(nil)

	seen := map[string]bool{}
	for i := int64(1); i <= 50; i++ {
		res, err := svc.Login(f.ctx, LoginRequest{User: &telegram.WebAppUser{ID: i}})
		if err != nil {
			t.Fatalf("login %d: %v", i, err)
		}
		if seen[res.User.ReferralCode] {
			t.Fatalf("duplicate code %q", res.User.ReferralCode)
		}
		seen[res.User.ReferralCode] = true
	}
}

func TestLogin_Photo(t *testing.T) {
	f := newFixture(t)

	photos := &stubPhotos{url: "https://api.telegram.org/file/botX/photos/1.jpg"}
	res, err := f.accounts(photos).Login(f.ctx, LoginRequest{User: &telegram.WebAppUser{ID: 1}})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.User.PhotoURL == nil || *res.User.PhotoURL != photos.url {
		t.Fatalf("photo = %v", res.User.PhotoURL)
	}

	// init data photo wins over the bot lookup
	res, err = f.accounts(photos).Login(f.ctx, LoginRequest{User: &telegram.WebAppUser{ID: 2, PhotoURL: "https://t.me/i/userpic/2.jpg"}})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if *res.User.PhotoURL != "https://t.me/i/userpic/2.jpg" || photos.calls != 1 {
		t.Fatalf("unexpected photo %v calls=%d", *res.User.PhotoURL, photos.calls)
	}

	failing := &stubPhotos{err: errors.New("telegram down")}
	res, err = f.accounts(failing).Login(f.ctx, LoginRequest{User: &telegram.WebAppUser{ID: 3}})
	if err != nil {
		t.Fatalf("photo failure must not fail login: %v", err)
	}
	if res.User.PhotoURL != nil {
		t.Fatalf("expected no photo")
	}
}

func TestLogin_RequiresUser(t *testing.T) {
	f := newFixture(t)
	if _, err := f.accounts(nil).Login(f.ctx, LoginRequest{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	svc := f.accounts(nil)

	login, err := svc.Login(f.ctx, LoginRequest{User: &telegram.WebAppUser{ID: 30_000_000}})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	f.boost(login.User.ID, domain.BoostCroco, 2, time.Hour)

	p, err := svc.Profile(f.ctx, login.User.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if p.AccountAge != 11 {
		t.Fatalf("account age = %v", p.AccountAge)
	}
	if p.Multipliers.Reward != 2 || p.Multipliers.Speed != 1 {
		t.Fatalf("multipliers = %+v", p.Multipliers)
	}
	if !p.CanClaim || p.NextClaimAt != nil {
		t.Fatalf("fresh user must be able to claim: %+v", p)
	}
	if p.Egg == nil || p.Egg.ID != login.Egg.ID {
		t.Fatalf("profile egg = %+v", p.Egg)
	}

	f.claimedAt(login.User.ID, f.now)
	p, _ = svc.Profile(f.ctx, login.User.ID)
	if p.CanClaim || p.NextClaimAt == nil || !p.NextClaimAt.Equal(f.now.Add(testCycle)) {
		t.Fatalf("after claim: %+v", p)
	}

	if _, err := svc.Profile(f.ctx, 999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

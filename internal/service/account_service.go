package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"croco_webapp/internal/domain"
	"croco_webapp/internal/logger"
	"croco_webapp/internal/referral"
	"croco_webapp/internal/repository"
	"croco_webapp/internal/telegram"
)

const (
	maxCodeAttempts    = 10
	photoLookupTimeout = 5 * time.Second
)

// LoginRequest is a verified Telegram identity plus the optional invite code.
type LoginRequest struct {
	User         *telegram.WebAppUser
	ReferralCode string
	IP           string
	UserAgent    string
}

type LoginResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
	Egg   *domain.Egg  `json:"egg"`
	IsNew bool         `json:"is_new"`
}

// Profile is what /user/me renders.
type Profile struct {
	User        *domain.User `json:"user"`
	Egg         *domain.Egg  `json:"egg"`
	Multipliers Multipliers  `json:"multipliers"`
	AccountAge  float64      `json:"account_age"`
	CanClaim    bool         `json:"can_claim"`
	NextClaimAt *time.Time   `json:"next_claim_at,omitempty"`
}

type AccountService struct {
	store  repository.Store
	eggs   *EggService
	clock  Clock
	cycle  time.Duration
	ages   telegram.AgeTable
	photos telegram.PhotoSource
	audit  *AuditService
	log    *slog.Logger
}

// NewAccountService wires login and profile. photos may be nil.
func NewAccountService(store repository.Store, eggs *EggService, clock Clock, cycle time.Duration, ages telegram.AgeTable, photos telegram.PhotoSource, audit *AuditService) *AccountService {
	return &AccountService{
		store:  store,
		eggs:   eggs,
		clock:  clock,
		cycle:  cycle,
		ages:   ages,
		photos: photos,
		audit:  audit,
		log:    logger.Component("account"),
	}
}

// Login upserts the Telegram user, bootstraps an egg and issues a session token.
func (s *AccountService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if req.User == nil || req.User.ID == 0 {
		return nil, errors.New("login without telegram user")
	}

	profile := s.profileFromTelegram(ctx, req.User)

	user, err := s.store.GetUserByTelegramID(ctx, req.User.ID)
	isNew := false
	switch {
	case err == nil:
		profile.ID = user.ID
		if err := s.store.UpdateUserProfile(ctx, profile); err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
		if user, err = s.store.GetUser(ctx, user.ID); err != nil {
			return nil, err
		}
	case errors.Is(err, repository.ErrNotFound):
		user, isNew, err = s.signUp(ctx, profile, req.ReferralCode)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	egg, err := s.eggs.EnsureEgg(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("ensure egg: %w", err)
	}

	token, err := GenerateJWT(user.ID, user.TelegramID, s.clock.now())
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	action := domain.AuditActionLogin
	if isNew {
		action = domain.AuditActionSignup
	}
	s.audit.LogWithRequest(ctx, user.ID, action, domain.AuditCategoryAuth, req.IP, req.UserAgent, map[string]interface{}{
		"telegram_id": user.TelegramID,
	})

	return &LoginResult{Token: token, User: user, Egg: egg, IsNew: isNew}, nil
}

// signUp creates the user with a fresh referral code. A conflict is either a
// code collision (retry) or a concurrent sign-up of the same Telegram user.
func (s *AccountService) signUp(ctx context.Context, u *domain.User, inviteCode string) (*domain.User, bool, error) {
	if err := s.attachReferrer(ctx, u, inviteCode); err != nil {
		return nil, false, err
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := referral.GenerateCode()
		if err != nil {
			return nil, false, err
		}
		u.ReferralCode = code

		err = s.store.CreateUser(ctx, u)
		if err == nil {
			s.log.Info("user signed up", "user_id", u.ID, "telegram_id", u.TelegramID, "referred_by", u.ReferredByCode)
			return u, true, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, false, fmt.Errorf("create user: %w", err)
		}

		existing, lookupErr := s.store.GetUserByTelegramID(ctx, u.TelegramID)
		if lookupErr == nil {
			return existing, false, nil
		}
		if !errors.Is(lookupErr, repository.ErrNotFound) {
			return nil, false, lookupErr
		}
	}
	return nil, false, errors.New("could not allocate a unique referral code")
}

// attachReferrer sets referred_by and the tree path from a valid invite code.
// Unknown codes are ignored.
func (s *AccountService) attachReferrer(ctx context.Context, u *domain.User, inviteCode string) error {
	code := strings.ToUpper(strings.TrimSpace(inviteCode))
	if code == "" {
		return nil
	}

	referrer, err := s.store.GetUserByReferralCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.Debug("unknown referral code", "code", code, "telegram_id", u.TelegramID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve referrer: %w", err)
	}
	if referrer.TelegramID == u.TelegramID {
		return nil
	}

	u.ReferredByCode = &referrer.ReferralCode
	u.TreePath = referral.BuildTreePath(referrer.TreePath, referrer.ReferralCode)
	return nil
}

func (s *AccountService) profileFromTelegram(ctx context.Context, tg *telegram.WebAppUser) *domain.User {
	u := &domain.User{
		TelegramID:   tg.ID,
		Username:     tg.Username,
		FirstName:    tg.FirstName,
		LastName:     tg.LastName,
		LanguageCode: tg.LanguageCode,
		IsPremium:    tg.IsPremium,
	}

	if tg.PhotoURL != "" {
		u.PhotoURL = &tg.PhotoURL
		return u
	}
	if s.photos == nil {
		return u
	}

	pctx, cancel := context.WithTimeout(ctx, photoLookupTimeout)
	defer cancel()
	url, err := s.photos.ProfilePhotoURL(pctx, tg.ID)
	if err != nil {
		// фото не критично для логина
		s.log.Warn("profile photo lookup failed", "telegram_id", tg.ID, "error", err)
		return u
	}
	if url != "" {
		u.PhotoURL = &url
	}
	return u
}

// Profile assembles the user's dashboard.
func (s *AccountService) Profile(ctx context.Context, userID int64) (*Profile, error) {
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	egg, err := s.store.GetLatestEgg(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	now := s.clock.now()
	mult, err := ResolveMultipliers(ctx, s.store, userID, now)
	if err != nil {
		return nil, err
	}

	p := &Profile{
		User:        user,
		Egg:         egg,
		Multipliers: mult,
		AccountAge:  s.ages.AccountAge(user.TelegramID),
		CanClaim:    user.CanClaimAt(now, s.cycle),
	}
	if next := user.NextClaimAt(s.cycle); !next.IsZero() {
		p.NextClaimAt = &next
	}
	return p, nil
}

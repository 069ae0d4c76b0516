package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           int64   `db:"id" json:"id"`
	TelegramID   int64   `db:"telegram_id" json:"telegram_id"`
	Username     string  `db:"username" json:"username"`
	FirstName    string  `db:"first_name" json:"first_name"`
	LastName     string  `db:"last_name" json:"last_name"`
	LanguageCode string  `db:"language_code" json:"language_code"`
	PhotoURL     *string `db:"photo_url" json:"photo_url"`
	IsPremium    bool    `db:"is_premium" json:"is_premium"`

	CrocoBalance       decimal.Decimal `db:"croco_balance" json:"croco_balance"`
	FishBalance        decimal.Decimal `db:"fish_balance" json:"fish_balance"`
	TotalTokenReferral decimal.Decimal `db:"total_token_referral" json:"total_token_referral"`
	ReferralToken      decimal.Decimal `db:"referral_token" json:"referral_token"`
	LastDailyReward    *time.Time      `db:"last_daily_reward" json:"last_daily_reward"`

	ReferralCode   string  `db:"referral_code" json:"referral_code"`
	ReferredByCode *string `db:"referred_by_code" json:"referred_by_code"`
	// TreePath is the dot-joined chain of ancestor referral codes, nearest ancestor last.
	TreePath string `db:"tree_path" json:"tree_path"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NextClaimAt returns the earliest instant a reward can be claimed again.
// Zero time means the user has never claimed.
func (u *User) NextClaimAt(cycle time.Duration) time.Time {
	if u.LastDailyReward == nil {
		return time.Time{}
	}
	return u.LastDailyReward.Add(cycle)
}

// CanClaimAt reports whether a full cycle has elapsed since the last claim.
func (u *User) CanClaimAt(now time.Time, cycle time.Duration) bool {
	if u.LastDailyReward == nil {
		return true
	}
	return !now.Before(u.LastDailyReward.Add(cycle))
}

// Referee is a user directly invited by a referral code.
type Referee struct {
	ID           int64           `json:"id"`
	Username     string          `json:"username"`
	FirstName    string          `json:"first_name"`
	PhotoURL     *string         `json:"photo_url"`
	CrocoBalance decimal.Decimal `json:"croco_balance"`
	CreatedAt    time.Time       `json:"created_at"`
}

// RankEntry is one row of a leaderboard.
type RankEntry struct {
	Rank      int             `json:"rank"`
	UserID    int64           `json:"user_id"`
	Username  string          `json:"username"`
	FirstName string          `json:"first_name"`
	PhotoURL  *string         `json:"photo_url"`
	Value     decimal.Decimal `json:"value"`
}

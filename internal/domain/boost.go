package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BoostType string

const (
	BoostSpeed         BoostType = "speedBoost"
	BoostSpeedLevel    BoostType = "speedLevel"
	BoostSpeedSelected BoostType = "speedSelected"
	BoostHatchSpeed    BoostType = "hatchSpeed"
	BoostCroco         BoostType = "crocoBoost"
)

// IsSpeed reports whether the boost scales hatch speed.
// speedSelected only marks the package picked in the shop and never counts.
func (t BoostType) IsSpeed() bool {
	switch t {
	case BoostSpeed, BoostSpeedLevel, BoostHatchSpeed:
		return true
	}
	return false
}

// IsReward reports whether the boost scales the croco reward.
func (t BoostType) IsReward() bool {
	return t == BoostCroco
}

type AutoBoost struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	BoostType  BoostType `db:"boost_type" json:"boost_type"`
	Multiplier float64   `db:"multiplier" json:"multiplier"`
	ExpiresAt  time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

func (b *AutoBoost) IsActive(at time.Time) bool {
	return b.ExpiresAt.After(at)
}

// AutoHatching marks a user who unlocked automatic claiming. It never expires.
type AutoHatching struct {
	ID        int64           `db:"id" json:"id"`
	UserID    int64           `db:"user_id" json:"user_id"`
	Price     decimal.Decimal `db:"price" json:"price"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

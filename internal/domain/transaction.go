package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	CurrencyCroco Currency = "croco"
	CurrencyFish  Currency = "fish"
)

// Ledger entry types
const (
	TxClaimReward       = "claim_reward"
	TxAutoClaimReward   = "auto_claim_reward"
	TxReferralReward    = "referral_reward"
	TxBoostPurchase     = "boost_purchase"
	TxSpeedUpgrade      = "speed_upgrade"
	TxAutoHatchPurchase = "auto_hatching_purchase"
)

type Transaction struct {
	ID        int64                  `db:"id" json:"id"`
	UserID    int64                  `db:"user_id" json:"user_id"`
	Type      string                 `db:"type" json:"type"`
	Amount    decimal.Decimal        `db:"amount" json:"amount"`
	Currency  Currency               `db:"currency" json:"currency"`
	Meta      map[string]interface{} `db:"meta" json:"meta,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

package domain

import "github.com/shopspring/decimal"

// SpeedUpgradeItem is a rung of the speed level ladder, paid in croco.
type SpeedUpgradeItem struct {
	ID    int64           `db:"id" json:"id" toml:"id"`
	Speed float64         `db:"speed" json:"speed" toml:"speed"`
	Price decimal.Decimal `db:"price" json:"price" toml:"price"`
}

// BoostUpgradeItem is a time-boxed speed boost paid in fish.
type BoostUpgradeItem struct {
	ID        int64           `db:"id" json:"id" toml:"id"`
	Speed     float64         `db:"speed" json:"speed" toml:"speed"`
	Duration  int             `db:"duration" json:"duration" toml:"duration"` // days
	FishPrice decimal.Decimal `db:"fish_price" json:"fishPrice" toml:"fish_price"`
}

// FishItem is a fish pack sold for TON or Telegram Stars.
type FishItem struct {
	ID        int64           `db:"id" json:"id" toml:"id"`
	Amount    decimal.Decimal `db:"amount" json:"amount" toml:"amount"`
	PriceTON  decimal.Decimal `db:"price_ton" json:"priceTON" toml:"price_ton"`
	PriceStar decimal.Decimal `db:"price_star" json:"priceStar" toml:"price_star"`
}

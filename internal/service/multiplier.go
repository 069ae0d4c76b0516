package service

import (
	"context"
	"fmt"
	"time"

	"croco_webapp/internal/repository"
)

// Multipliers are the boost factors in effect for a user at one instant.
type Multipliers struct {
	Speed  float64 `json:"speed"`
	Reward float64 `json:"reward"`
}

// Effective is the factor applied to the base claim reward.
func (m Multipliers) Effective() float64 {
	return m.Speed * m.Reward
}

// ResolveMultipliers picks the strongest active speed-type and reward-type
// boosts. Boosts never stack within a kind; a kind with no active boost is 1.
func ResolveMultipliers(ctx context.Context, boosts repository.BoostStore, userID int64, asOf time.Time) (Multipliers, error) {
	m := Multipliers{Speed: 1, Reward: 1}

	active, err := boosts.ActiveBoosts(ctx, userID, asOf)
	if err != nil {
		return m, fmt.Errorf("load boosts: %w", err)
	}

	for _, b := range active {
		if !b.IsActive(asOf) {
			continue
		}
		switch {
		case b.BoostType.IsSpeed():
			if b.Multiplier > m.Speed {
				m.Speed = b.Multiplier
			}
		case b.BoostType.IsReward():
			if b.Multiplier > m.Reward {
				m.Reward = b.Multiplier
			}
		}
	}
	return m, nil
}

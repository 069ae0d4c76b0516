package service

import (
	"context"
	"log/slog"
	"time"

	"croco_webapp/internal/logger"
	"croco_webapp/internal/repository"
)

// Sweeper reconciles state that drifts with time: expired boosts, abandoned
// incubations and egg speeds that no longer match the active boosts.
type Sweeper struct {
	store      repository.Store
	clock      Clock
	staleAfter time.Duration
	batch      int
	log        *slog.Logger
}

func NewSweeper(store repository.Store, clock Clock, staleAfter time.Duration) *Sweeper {
	return &Sweeper{
		store:      store,
		clock:      clock,
		staleAfter: staleAfter,
		batch:      1000,
		log:        logger.Component("sweeper"),
	}
}

// Sweep runs every pass once. A failing pass is logged and the others still run.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := s.clock.now()

	s.pass("expired_boosts", func() (int64, error) {
		return s.store.DeleteExpiredBoosts(ctx, now)
	})
	s.pass("stale_incubations", func() (int64, error) {
		return s.store.HaltStaleIncubations(ctx, now.Add(-s.staleAfter))
	})
	s.pass("hatch_speed", func() (int64, error) {
		return s.syncHatchSpeeds(ctx, now)
	})
}

func (s *Sweeper) pass(name string, fn func() (int64, error)) {
	n, err := fn()
	if err != nil {
		SweepRuns.WithLabelValues(name, "error").Inc()
		s.log.Error("sweep pass failed", "pass", name, "error", err)
		return
	}
	SweepRuns.WithLabelValues(name, "ok").Inc()
	SweepAffected.WithLabelValues(name).Add(float64(n))
	if n > 0 {
		s.log.Info("sweep pass done", "pass", name, "rows", n)
	}
}

// syncHatchSpeeds copies the current speed multiplier onto incubating eggs.
func (s *Sweeper) syncHatchSpeeds(ctx context.Context, now time.Time) (int64, error) {
	eggs, err := s.store.ListIncubatingEggs(ctx, s.batch)
	if err != nil {
		return 0, err
	}

	var changed int64
	for _, egg := range eggs {
		m, err := ResolveMultipliers(ctx, s.store, egg.UserID, now)
		if err != nil {
			s.log.Warn("resolve speed failed", "user_id", egg.UserID, "error", err)
			continue
		}
		if m.Speed == egg.HatchSpeed {
			continue
		}
		if err := s.store.SetHatchSpeed(ctx, egg.ID, m.Speed); err != nil {
			s.log.Warn("set hatch speed failed", "egg_id", egg.ID, "error", err)
			continue
		}
		changed++
	}
	return changed, nil
}

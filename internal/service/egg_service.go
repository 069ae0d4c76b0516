package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"croco_webapp/internal/domain"
	"croco_webapp/internal/logger"
	"croco_webapp/internal/repository"
)

// ProgressPerCycle is how far one claim cycle moves an incubating egg.
const ProgressPerCycle = 25

// EggService drives the egg lifecycle: Idle -> Incubating -> Complete -> (claim) -> Idle.
type EggService struct {
	store repository.Store
	clock Clock
	audit *AuditService
	log   *slog.Logger
}

func NewEggService(store repository.Store, clock Clock, audit *AuditService) *EggService {
	return &EggService{store: store, clock: clock, audit: audit, log: logger.Component("egg")}
}

// CreateEgg inserts a fresh Idle egg.
func (s *EggService) CreateEgg(ctx context.Context, userID int64) (*domain.Egg, error) {
	var egg *domain.Egg
	err := s.store.InTx(ctx, func(st repository.Store) error {
		if _, err := st.LockUser(ctx, userID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		_, err := st.GetActiveEgg(ctx, userID)
		switch {
		case err == nil:
			return ErrActiveEggExists
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		egg = domain.NewEgg(userID)
		return st.CreateEgg(ctx, egg)
	})
	return egg, err
}

// EnsureEgg gives the user an egg to work with: the newest one if it exists,
// otherwise a new Idle egg.
func (s *EggService) EnsureEgg(ctx context.Context, userID int64) (*domain.Egg, error) {
	egg, err := s.store.GetLatestEgg(ctx, userID)
	if err == nil {
		return egg, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return s.CreateEgg(ctx, userID)
}

// GetActiveEgg returns the incubating unfinished egg, or nil.
func (s *EggService) GetActiveEgg(ctx context.Context, userID int64) (*domain.Egg, error) {
	egg, err := s.store.GetActiveEgg(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return egg, err
}

// StartHatching moves the user's newest egg from Idle to Incubating.
func (s *EggService) StartHatching(ctx context.Context, userID int64) (*ActionResult, error) {
	var res *ActionResult
	err := s.store.InTx(ctx, func(st repository.Store) error {
		egg, err := st.GetLatestEgg(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrEggNotFound
			}
			return err
		}

		switch egg.State() {
		case domain.EggIncubating:
			res = fail("Egg is already incubating")
			return nil
		case domain.EggComplete:
			res = fail("Egg has hatched, claim the reward first")
			return nil
		}

		now := s.clock.now()
		egg.IsIncubating = true
		egg.LastIncubationStart = &now
		if err := st.UpdateEgg(ctx, egg); err != nil {
			return fmt.Errorf("update egg: %w", err)
		}
		res = &ActionResult{Success: true, Message: "Egg incubation started successfully", Egg: egg}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.Success {
		s.log.Info("incubation started", "user_id", userID, "egg_id", res.Egg.ID)
		s.audit.LogHatching(ctx, userID, domain.AuditActionHatchStart, res.Egg.ID)
	}
	return res, nil
}

// StopHatching halts incubation without touching progress.
func (s *EggService) StopHatching(ctx context.Context, userID, eggID int64) (*ActionResult, error) {
	var res *ActionResult
	err := s.store.InTx(ctx, func(st repository.Store) error {
		egg, err := st.GetEgg(ctx, eggID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrEggNotFound
			}
			return err
		}
		if egg.UserID != userID {
			return ErrEggNotFound
		}

		egg.IsIncubating = false
		if err := st.UpdateEgg(ctx, egg); err != nil {
			return fmt.Errorf("update egg: %w", err)
		}
		res = &ActionResult{Success: true, Message: "Egg incubation stopped", Egg: egg}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit.LogHatching(ctx, userID, domain.AuditActionHatchStop, eggID)
	return res, nil
}

// AdvanceProgress adds units to the egg's progress, clamped to [0,100].
// Reaching 100 completes the egg and stops incubation.
func AdvanceProgress(egg *domain.Egg, units float64) {
	p := egg.HatchProgress + units
	if p < domain.MinHatchProgress {
		p = domain.MinHatchProgress
	}
	if p >= domain.MaxHatchProgress {
		p = domain.MaxHatchProgress
		egg.IsIncubating = false
	}
	egg.HatchProgress = p
}

// ResetEgg returns the egg to a fresh Idle state.
func ResetEgg(egg *domain.Egg) {
	egg.HatchProgress = domain.MinHatchProgress
	egg.HatchSpeed = domain.DefaultHatchSpeed
	egg.IsIncubating = false
}

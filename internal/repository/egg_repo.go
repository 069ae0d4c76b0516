package repository

import (
	"context"
	"time"

	"croco_webapp/internal/domain"

	"github.com/jackc/pgx/v5"
)

const eggColumns = `id, user_id, hatch_progress, hatch_speed, is_incubating, last_incubation_start, created_at, updated_at`

func scanEgg(row pgx.Row) (*domain.Egg, error) {
	var e domain.Egg
	if err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.HatchProgress,
		&e.HatchSpeed,
		&e.IsIncubating,
		&e.LastIncubationStart,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (s *PgStore) CreateEgg(ctx context.Context, e *domain.Egg) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO eggs (user_id, hatch_progress, hatch_speed, is_incubating, last_incubation_start)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		e.UserID, e.HatchProgress, e.HatchSpeed, e.IsIncubating, e.LastIncubationStart,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

func (s *PgStore) GetEgg(ctx context.Context, id int64) (*domain.Egg, error) {
	return scanEgg(s.db.QueryRow(ctx, `SELECT `+eggColumns+` FROM eggs WHERE id = $1`, id))
}

func (s *PgStore) GetActiveEgg(ctx context.Context, userID int64) (*domain.Egg, error) {
	return scanEgg(s.db.QueryRow(ctx,
		`SELECT `+eggColumns+` FROM eggs
		 WHERE user_id = $1 AND is_incubating AND hatch_progress < 100
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`, userID))
}

func (s *PgStore) GetLatestEgg(ctx context.Context, userID int64) (*domain.Egg, error) {
	return scanEgg(s.db.QueryRow(ctx,
		`SELECT `+eggColumns+` FROM eggs
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`, userID))
}

func (s *PgStore) GetClaimableEgg(ctx context.Context, userID int64) (*domain.Egg, error) {
	return scanEgg(s.db.QueryRow(ctx,
		`SELECT `+eggColumns+` FROM eggs
		 WHERE user_id = $1 AND (is_incubating OR hatch_progress >= 100)
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1
		 FOR UPDATE`, userID))
}

func (s *PgStore) UpdateEgg(ctx context.Context, e *domain.Egg) error {
	err := s.db.QueryRow(ctx,
		`UPDATE eggs
		 SET hatch_progress = $1, hatch_speed = $2, is_incubating = $3, last_incubation_start = $4, updated_at = NOW()
		 WHERE id = $5
		 RETURNING updated_at`,
		e.HatchProgress, e.HatchSpeed, e.IsIncubating, e.LastIncubationStart, e.ID,
	).Scan(&e.UpdatedAt)
	return notFound(err)
}

func (s *PgStore) HaltStaleIncubations(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE eggs e
		 SET is_incubating = FALSE, updated_at = NOW()
		 FROM users u
		 WHERE u.id = e.user_id
		   AND e.is_incubating AND e.hatch_progress < 100
		   AND (u.last_daily_reward IS NULL OR u.last_daily_reward < $1)
		   AND (e.last_incubation_start IS NULL OR e.last_incubation_start < $1)`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PgStore) ListIncubatingEggs(ctx context.Context, limit int) ([]domain.Egg, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+eggColumns+` FROM eggs
		 WHERE is_incubating AND hatch_progress < 100
		 ORDER BY id
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Egg
	for rows.Next() {
		e, err := scanEgg(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *e)
	}
	return res, rows.Err()
}

func (s *PgStore) SetHatchSpeed(ctx context.Context, eggID int64, speed float64) error {
	_, err := s.db.Exec(ctx,
		`UPDATE eggs SET hatch_speed = $1, updated_at = NOW() WHERE id = $2 AND hatch_speed <> $1`,
		speed, eggID,
	)
	return err
}

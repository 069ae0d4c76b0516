package repository

import (
	"context"
	"time"

	"croco_webapp/internal/domain"
)

func (s *PgStore) GetAutoHatching(ctx context.Context, userID int64) (*domain.AutoHatching, error) {
	var a domain.AutoHatching
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, price, created_at FROM auto_hatchings WHERE user_id = $1`,
		userID,
	).Scan(&a.ID, &a.UserID, &a.Price, &a.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (s *PgStore) CreateAutoHatching(ctx context.Context, a *domain.AutoHatching) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO auto_hatchings (user_id, price) VALUES ($1, $2) RETURNING id, created_at`,
		a.UserID, a.Price,
	).Scan(&a.ID, &a.CreatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (s *PgStore) ListAutoHatchingDue(ctx context.Context, cutoff time.Time, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.db.Query(ctx,
		`SELECT u.id
		 FROM auto_hatchings ah
		 JOIN users u ON u.id = ah.user_id
		 WHERE (u.last_daily_reward IS NULL OR u.last_daily_reward <= $1)
		   AND EXISTS (
		       SELECT 1 FROM eggs e
		       WHERE e.user_id = u.id AND e.is_incubating AND e.hatch_progress < 100
		   )
		 ORDER BY u.last_daily_reward NULLS FIRST, u.id
		 LIMIT $2`,
		cutoff, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

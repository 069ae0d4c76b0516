package repository

import (
	"context"
	"time"

	"croco_webapp/internal/domain"
)

func (s *PgStore) ActiveBoosts(ctx context.Context, userID int64, at time.Time) ([]domain.AutoBoost, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, boost_type, multiplier, expires_at, created_at
		 FROM auto_boosts
		 WHERE user_id = $1 AND expires_at > $2
		 ORDER BY expires_at`,
		userID, at,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.AutoBoost
	for rows.Next() {
		var b domain.AutoBoost
		if err := rows.Scan(&b.ID, &b.UserID, &b.BoostType, &b.Multiplier, &b.ExpiresAt, &b.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	return res, rows.Err()
}

func (s *PgStore) CreateBoost(ctx context.Context, b *domain.AutoBoost) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO auto_boosts (user_id, boost_type, multiplier, expires_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		b.UserID, b.BoostType, b.Multiplier, b.ExpiresAt,
	).Scan(&b.ID, &b.CreatedAt)
}

func (s *PgStore) UpsertBoost(ctx context.Context, b *domain.AutoBoost) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO auto_boosts (user_id, boost_type, multiplier, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, boost_type) WHERE boost_type IN ('speedLevel', 'speedSelected')
		 DO UPDATE SET multiplier = EXCLUDED.multiplier, expires_at = EXCLUDED.expires_at
		 RETURNING id, created_at`,
		b.UserID, b.BoostType, b.Multiplier, b.ExpiresAt,
	).Scan(&b.ID, &b.CreatedAt)
}

func (s *PgStore) DeleteExpiredBoosts(ctx context.Context, at time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM auto_boosts WHERE expires_at < $1`, at)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

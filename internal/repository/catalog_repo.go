package repository

import (
	"context"
	"errors"

	"croco_webapp/internal/domain"

	"github.com/jackc/pgx/v5"
)

func (s *PgStore) ListSpeedItems(ctx context.Context) ([]domain.SpeedUpgradeItem, error) {
	rows, err := s.db.Query(ctx, `SELECT id, speed, price FROM speed_upgrade_items ORDER BY speed`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []domain.SpeedUpgradeItem{}
	for rows.Next() {
		var it domain.SpeedUpgradeItem
		if err := rows.Scan(&it.ID, &it.Speed, &it.Price); err != nil {
			return nil, err
		}
		res = append(res, it)
	}
	return res, rows.Err()
}

func (s *PgStore) ListBoostItems(ctx context.Context) ([]domain.BoostUpgradeItem, error) {
	rows, err := s.db.Query(ctx, `SELECT id, speed, duration, fish_price FROM boost_upgrade_items ORDER BY fish_price, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []domain.BoostUpgradeItem{}
	for rows.Next() {
		var it domain.BoostUpgradeItem
		if err := rows.Scan(&it.ID, &it.Speed, &it.Duration, &it.FishPrice); err != nil {
			return nil, err
		}
		res = append(res, it)
	}
	return res, rows.Err()
}

func (s *PgStore) ListFishItems(ctx context.Context) ([]domain.FishItem, error) {
	rows, err := s.db.Query(ctx, `SELECT id, amount, price_ton, price_star FROM fish_items ORDER BY amount`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []domain.FishItem{}
	for rows.Next() {
		var it domain.FishItem
		if err := rows.Scan(&it.ID, &it.Amount, &it.PriceTON, &it.PriceStar); err != nil {
			return nil, err
		}
		res = append(res, it)
	}
	return res, rows.Err()
}

func (s *PgStore) GetSpeedItem(ctx context.Context, id int64) (*domain.SpeedUpgradeItem, error) {
	var it domain.SpeedUpgradeItem
	err := s.db.QueryRow(ctx, `SELECT id, speed, price FROM speed_upgrade_items WHERE id = $1`, id).
		Scan(&it.ID, &it.Speed, &it.Price)
	if err != nil {
		return nil, notFound(err)
	}
	return &it, nil
}

func (s *PgStore) GetBoostItem(ctx context.Context, id int64) (*domain.BoostUpgradeItem, error) {
	var it domain.BoostUpgradeItem
	err := s.db.QueryRow(ctx, `SELECT id, speed, duration, fish_price FROM boost_upgrade_items WHERE id = $1`, id).
		Scan(&it.ID, &it.Speed, &it.Duration, &it.FishPrice)
	if err != nil {
		return nil, notFound(err)
	}
	return &it, nil
}

// Catalog is the full shop content loaded by cmd/seed.
type Catalog struct {
	Speed []domain.SpeedUpgradeItem `toml:"speed"`
	Boost []domain.BoostUpgradeItem `toml:"boost"`
	Fish  []domain.FishItem         `toml:"fish"`
}

// ReplaceCatalog upserts every item by id in one transaction and removes
// items that are no longer listed.
func (s *PgStore) ReplaceCatalog(ctx context.Context, c Catalog) error {
	if s.pool == nil {
		return errors.New("ReplaceCatalog needs a pool-backed store")
	}

	batch := &pgx.Batch{}

	batch.Queue(`DELETE FROM speed_upgrade_items WHERE NOT (id = ANY($1))`, speedIDs(c.Speed))
	for _, it := range c.Speed {
		batch.Queue(`INSERT INTO speed_upgrade_items (id, speed, price) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET speed = EXCLUDED.speed, price = EXCLUDED.price`,
			it.ID, it.Speed, it.Price)
	}

	batch.Queue(`DELETE FROM boost_upgrade_items WHERE NOT (id = ANY($1))`, boostIDs(c.Boost))
	for _, it := range c.Boost {
		batch.Queue(`INSERT INTO boost_upgrade_items (id, speed, duration, fish_price) VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET speed = EXCLUDED.speed, duration = EXCLUDED.duration, fish_price = EXCLUDED.fish_price`,
			it.ID, it.Speed, it.Duration, it.FishPrice)
	}

	batch.Queue(`DELETE FROM fish_items WHERE NOT (id = ANY($1))`, fishIDs(c.Fish))
	for _, it := range c.Fish {
		batch.Queue(`INSERT INTO fish_items (id, amount, price_ton, price_star) VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET amount = EXCLUDED.amount, price_ton = EXCLUDED.price_ton, price_star = EXCLUDED.price_star`,
			it.ID, it.Amount, it.PriceTON, it.PriceStar)
	}

	// sequences must move past explicit ids
	for _, table := range []string{"speed_upgrade_items", "boost_upgrade_items", "fish_items"} {
		batch.Queue(`SELECT setval(pg_get_serial_sequence('` + table + `', 'id'), GREATEST((SELECT MAX(id) FROM ` + table + `), 1))`)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func speedIDs(items []domain.SpeedUpgradeItem) []int64 {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}

func boostIDs(items []domain.BoostUpgradeItem) []int64 {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}

func fishIDs(items []domain.FishItem) []int64 {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}

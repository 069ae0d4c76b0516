package repository

import (
	"context"
	"encoding/json"

	"croco_webapp/internal/domain"

	"github.com/jackc/pgx/v5"
)

// CreateTransaction appends a ledger row. Callers run it inside the same
// transaction as the balance change it records.
func (s *PgStore) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	metaJSON, err := json.Marshal(tx.Meta)
	if err != nil || tx.Meta == nil {
		metaJSON = []byte("{}")
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO transactions (user_id, type, amount, currency, meta)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		tx.UserID, tx.Type, tx.Amount, tx.Currency, metaJSON,
	).Scan(&tx.ID, &tx.CreatedAt)
}

// ListTransactions returns recent ledger rows for a user
func (s *PgStore) ListTransactions(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, type, amount, currency, meta, created_at
		 FROM transactions
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var result []*domain.Transaction

	for rows.Next() {
		var (
			tx       domain.Transaction
			metaJSON []byte
		)

		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.Amount, &tx.Currency, &metaJSON, &tx.CreatedAt); err != nil {
			return nil, err
		}

		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &tx.Meta)
		}

		result = append(result, &tx)
	}

	return result, rows.Err()
}

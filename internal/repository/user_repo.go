package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"croco_webapp/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const userColumns = `id, telegram_id, username, first_name, last_name, language_code, photo_url, is_premium,
	croco_balance, fish_balance, total_token_referral, referral_token, last_daily_reward,
	referral_code, referred_by_code, tree_path, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.TelegramID,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.LanguageCode,
		&u.PhotoURL,
		&u.IsPremium,
		&u.CrocoBalance,
		&u.FishBalance,
		&u.TotalTokenReferral,
		&u.ReferralToken,
		&u.LastDailyReward,
		&u.ReferralCode,
		&u.ReferredByCode,
		&u.TreePath,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *PgStore) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *PgStore) GetUserByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	return scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID))
}

func (s *PgStore) GetUserByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	return scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE referral_code = $1`, code))
}

func (s *PgStore) LockUser(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
}

// CreateUser inserts a user with zero balances. A duplicate telegram id or
// referral code returns ErrConflict.
func (s *PgStore) CreateUser(ctx context.Context, u *domain.User) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (telegram_id, username, first_name, last_name, language_code, photo_url,
		                    is_premium, referral_code, referred_by_code, tree_path)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, croco_balance, fish_balance, total_token_referral, referral_token, created_at, updated_at`,
		u.TelegramID,
		u.Username,
		u.FirstName,
		u.LastName,
		u.LanguageCode,
		u.PhotoURL,
		u.IsPremium,
		u.ReferralCode,
		u.ReferredByCode,
		u.TreePath,
	).Scan(&u.ID, &u.CrocoBalance, &u.FishBalance, &u.TotalTokenReferral, &u.ReferralToken, &u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

// UpdateUserProfile refreshes the Telegram-sourced fields.
func (s *PgStore) UpdateUserProfile(ctx context.Context, u *domain.User) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users
		 SET username = $1, first_name = $2, last_name = $3, language_code = $4,
		     photo_url = COALESCE($5, photo_url), is_premium = $6, updated_at = NOW()
		 WHERE id = $7`,
		u.Username, u.FirstName, u.LastName, u.LanguageCode, u.PhotoURL, u.IsPremium, u.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PgStore) StampDailyReward(ctx context.Context, userID int64, now, cutoff time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE users
		 SET last_daily_reward = $2, updated_at = NOW()
		 WHERE id = $1 AND (last_daily_reward IS NULL OR last_daily_reward <= $3)`,
		userID, now, cutoff,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// CreditClaim adds the claim reward and the referral payout total to the claimant.
func (s *PgStore) CreditClaim(ctx context.Context, userID int64, reward, referralTotal decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.db.QueryRow(ctx,
		`UPDATE users
		 SET croco_balance = croco_balance + $1,
		     total_token_referral = total_token_referral + $2,
		     updated_at = NOW()
		 WHERE id = $3
		 RETURNING croco_balance`,
		reward, referralTotal, userID,
	).Scan(&balance)
	return balance, notFound(err)
}

func (s *PgStore) CreditReferral(ctx context.Context, userID int64, amount decimal.Decimal) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users
		 SET croco_balance = croco_balance + $1, referral_token = referral_token + $1, updated_at = NOW()
		 WHERE id = $2`,
		amount, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustFish applies delta to the fish balance, refusing to go below zero.
func (s *PgStore) AdjustFish(ctx context.Context, userID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	return s.adjustBalance(ctx, "fish_balance", userID, delta)
}

// AdjustCroco applies delta to the croco balance, refusing to go below zero.
func (s *PgStore) AdjustCroco(ctx context.Context, userID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	return s.adjustBalance(ctx, "croco_balance", userID, delta)
}

func (s *PgStore) adjustBalance(ctx context.Context, column string, userID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.db.QueryRow(ctx,
		fmt.Sprintf(`UPDATE users SET %[1]s = %[1]s + $1, updated_at = NOW()
		 WHERE id = $2 AND %[1]s + $1 >= 0
		 RETURNING %[1]s`, column),
		delta, userID,
	).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, err
	}

	// отличаем "нет пользователя" от "не хватает баланса"
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return decimal.Zero, err
	}
	if !exists {
		return decimal.Zero, ErrNotFound
	}
	return decimal.Zero, ErrInsufficientFunds
}

func (s *PgStore) ListReferees(ctx context.Context, code string, limit int) ([]domain.Referee, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, username, first_name, photo_url, croco_balance, created_at
		 FROM users
		 WHERE referred_by_code = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		code, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []domain.Referee{}
	for rows.Next() {
		var r domain.Referee
		if err := rows.Scan(&r.ID, &r.Username, &r.FirstName, &r.PhotoURL, &r.CrocoBalance, &r.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

// TopReferrers ranks users by the number of users they invited directly.
func (s *PgStore) TopReferrers(ctx context.Context, limit int) ([]domain.RankEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT u.id, u.username, u.first_name, u.photo_url, COUNT(r.id)::numeric AS referees
		FROM users u
		JOIN users r ON r.referred_by_code = u.referral_code
		GROUP BY u.id
		ORDER BY referees DESC, u.id
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRanking(rows)
}

// TopCroco ranks users by croco balance.
func (s *PgStore) TopCroco(ctx context.Context, limit int) ([]domain.RankEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, username, first_name, photo_url, croco_balance
		FROM users
		WHERE croco_balance > 0
		ORDER BY croco_balance DESC, id
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRanking(rows)
}

func scanRanking(rows pgx.Rows) ([]domain.RankEntry, error) {
	res := []domain.RankEntry{}
	rank := 1
	for rows.Next() {
		var e domain.RankEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.FirstName, &e.PhotoURL, &e.Value); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		res = append(res, e)
	}
	return res, rows.Err()
}

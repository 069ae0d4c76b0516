package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"croco_webapp/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrConflict          = errors.New("conflict")
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type UserStore interface {
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	GetUserByReferralCode(ctx context.Context, code string) (*domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUserProfile(ctx context.Context, u *domain.User) error
	// LockUser reads the user row and holds it until the surrounding transaction ends.
	LockUser(ctx context.Context, id int64) (*domain.User, error)
	// StampDailyReward sets last_daily_reward to now only if the previous value
	// is unset or not later than cutoff. It reports whether a row was updated.
	StampDailyReward(ctx context.Context, userID int64, now, cutoff time.Time) (bool, error)
	CreditClaim(ctx context.Context, userID int64, reward, referralTotal decimal.Decimal) (decimal.Decimal, error)
	CreditReferral(ctx context.Context, userID int64, amount decimal.Decimal) error
	AdjustFish(ctx context.Context, userID int64, delta decimal.Decimal) (decimal.Decimal, error)
	AdjustCroco(ctx context.Context, userID int64, delta decimal.Decimal) (decimal.Decimal, error)
	ListReferees(ctx context.Context, code string, limit int) ([]domain.Referee, error)
	TopReferrers(ctx context.Context, limit int) ([]domain.RankEntry, error)
	TopCroco(ctx context.Context, limit int) ([]domain.RankEntry, error)
}

type EggStore interface {
	CreateEgg(ctx context.Context, e *domain.Egg) error
	GetEgg(ctx context.Context, id int64) (*domain.Egg, error)
	// GetActiveEgg returns the newest incubating egg below full progress.
	GetActiveEgg(ctx context.Context, userID int64) (*domain.Egg, error)
	GetLatestEgg(ctx context.Context, userID int64) (*domain.Egg, error)
	// GetClaimableEgg locks the newest egg that is incubating or complete.
	GetClaimableEgg(ctx context.Context, userID int64) (*domain.Egg, error)
	UpdateEgg(ctx context.Context, e *domain.Egg) error
	// HaltStaleIncubations stops unfinished incubations whose owner has not
	// claimed and whose incubation started before cutoff.
	HaltStaleIncubations(ctx context.Context, cutoff time.Time) (int64, error)
	ListIncubatingEggs(ctx context.Context, limit int) ([]domain.Egg, error)
	SetHatchSpeed(ctx context.Context, eggID int64, speed float64) error
}

type BoostStore interface {
	ActiveBoosts(ctx context.Context, userID int64, at time.Time) ([]domain.AutoBoost, error)
	CreateBoost(ctx context.Context, b *domain.AutoBoost) error
	// UpsertBoost replaces the single speedLevel or speedSelected row of a user.
	UpsertBoost(ctx context.Context, b *domain.AutoBoost) error
	DeleteExpiredBoosts(ctx context.Context, at time.Time) (int64, error)
}

type AutoHatchingStore interface {
	GetAutoHatching(ctx context.Context, userID int64) (*domain.AutoHatching, error)
	CreateAutoHatching(ctx context.Context, a *domain.AutoHatching) error
	// ListAutoHatchingDue returns users with auto hatching, an unfinished
	// incubating egg and no claim after cutoff.
	ListAutoHatchingDue(ctx context.Context, cutoff time.Time, limit int) ([]int64, error)
}

type CatalogStore interface {
	ListSpeedItems(ctx context.Context) ([]domain.SpeedUpgradeItem, error)
	ListBoostItems(ctx context.Context) ([]domain.BoostUpgradeItem, error)
	ListFishItems(ctx context.Context) ([]domain.FishItem, error)
	GetSpeedItem(ctx context.Context, id int64) (*domain.SpeedUpgradeItem, error)
	GetBoostItem(ctx context.Context, id int64) (*domain.BoostUpgradeItem, error)
}

type LedgerStore interface {
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	ListTransactions(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error)
}

type AuditStore interface {
	CreateAuditLog(ctx context.Context, log *domain.AuditLog) error
	ListAuditLogs(ctx context.Context, userID int64, limit int) ([]*domain.AuditLog, error)
}

// Store is everything the services need from persistence.
type Store interface {
	UserStore
	EggStore
	BoostStore
	AutoHatchingStore
	CatalogStore
	LedgerStore
	AuditStore

	// InTx runs fn inside one database transaction. fn's error rolls it back.
	// Calling InTx on a store that is already transactional reuses the transaction.
	InTx(ctx context.Context, fn func(Store) error) error
}

// PgStore implements Store on PostgreSQL.
type PgStore struct {
	db   DBTX
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{db: pool, pool: pool}
}

func (s *PgStore) InTx(ctx context.Context, fn func(Store) error) error {
	if s.pool == nil {
		return fn(s)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&PgStore{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// notFound maps pgx.ErrNoRows to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Package storetest provides an in-memory repository.Store for service and
// handler tests. Transactions are serialized and applied copy-on-commit, so
// a failing InTx callback leaves no trace.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"croco_webapp/internal/domain"
	"croco_webapp/internal/repository"

	"github.com/shopspring/decimal"
)

type state struct {
	seq int64

	users  map[int64]domain.User
	eggs   map[int64]domain.Egg
	boosts map[int64]domain.AutoBoost
	autoH  map[int64]domain.AutoHatching // by user id

	speedItems []domain.SpeedUpgradeItem
	boostItems []domain.BoostUpgradeItem
	fishItems  []domain.FishItem

	txs    []domain.Transaction
	audits []domain.AuditLog
}

func newState() *state {
	return &state{
		users:  make(map[int64]domain.User),
		eggs:   make(map[int64]domain.Egg),
		boosts: make(map[int64]domain.AutoBoost),
		autoH:  make(map[int64]domain.AutoHatching),
	}
}

func (st *state) clone() *state {
	c := &state{
		seq:        st.seq,
		users:      make(map[int64]domain.User, len(st.users)),
		eggs:       make(map[int64]domain.Egg, len(st.eggs)),
		boosts:     make(map[int64]domain.AutoBoost, len(st.boosts)),
		autoH:      make(map[int64]domain.AutoHatching, len(st.autoH)),
		speedItems: append([]domain.SpeedUpgradeItem(nil), st.speedItems...),
		boostItems: append([]domain.BoostUpgradeItem(nil), st.boostItems...),
		fishItems:  append([]domain.FishItem(nil), st.fishItems...),
		txs:        append([]domain.Transaction(nil), st.txs...),
		audits:     append([]domain.AuditLog(nil), st.audits...),
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.eggs {
		c.eggs[k] = v
	}
	for k, v := range st.boosts {
		c.boosts[k] = v
	}
	for k, v := range st.autoH {
		c.autoH[k] = v
	}
	return c
}

func (st *state) nextID() int64 {
	st.seq++
	return st.seq
}

// Store is an in-memory repository.Store.
type Store struct {
	mu   *sync.Mutex
	root **state
	tx   *state // set inside InTx

	// Now stamps created_at columns. Defaults to time.Now.
	Now func() time.Time
	// Fail, when set, is consulted before every operation; a non-nil
	// result is returned as that operation's error.
	Fail func(op string) error
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	st := newState()
	return &Store{mu: &sync.Mutex{}, root: &st}
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// do runs fn against the visible state, taking the lock outside transactions.
func (s *Store) do(op string, fn func(st *state) error) error {
	if s.Fail != nil {
		if err := s.Fail(op); err != nil {
			return err
		}
	}
	if s.tx != nil {
		return fn(s.tx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(*s.root)
}

func (s *Store) InTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := (*s.root).clone()
	child := &Store{mu: s.mu, root: s.root, tx: work, Now: s.Now, Fail: s.Fail}
	if err := fn(child); err != nil {
		return err
	}
	*s.root = work
	return nil
}

// SetCatalog replaces the shop content.
func (s *Store) SetCatalog(speed []domain.SpeedUpgradeItem, boost []domain.BoostUpgradeItem, fish []domain.FishItem) {
	_ = s.do("SetCatalog", func(st *state) error {
		st.speedItems = append([]domain.SpeedUpgradeItem(nil), speed...)
		st.boostItems = append([]domain.BoostUpgradeItem(nil), boost...)
		st.fishItems = append([]domain.FishItem(nil), fish...)
		return nil
	})
}

// Users

func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.userByID("GetUser", id)
}

func (s *Store) LockUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.userByID("LockUser", id)
}

func (s *Store) userByID(op string, id int64) (*domain.User, error) {
	var out *domain.User
	err := s.do(op, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (s *Store) GetUserByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	return s.findUser("GetUserByTelegramID", func(u domain.User) bool { return u.TelegramID == telegramID })
}

func (s *Store) GetUserByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	return s.findUser("GetUserByReferralCode", func(u domain.User) bool { return u.ReferralCode == code })
}

func (s *Store) findUser(op string, match func(domain.User) bool) (*domain.User, error) {
	var out *domain.User
	err := s.do(op, func(st *state) error {
		for _, u := range st.users {
			if match(u) {
				u := u
				out = &u
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	return s.do("CreateUser", func(st *state) error {
		for _, other := range st.users {
			if other.TelegramID == u.TelegramID || other.ReferralCode == u.ReferralCode {
				return repository.ErrConflict
			}
		}
		u.ID = st.nextID()
		u.CrocoBalance = decimal.Zero
		u.FishBalance = decimal.Zero
		u.TotalTokenReferral = decimal.Zero
		u.ReferralToken = decimal.Zero
		u.CreatedAt = s.now()
		u.UpdatedAt = u.CreatedAt
		st.users[u.ID] = *u
		return nil
	})
}

func (s *Store) UpdateUserProfile(ctx context.Context, u *domain.User) error {
	return s.do("UpdateUserProfile", func(st *state) error {
		cur, ok := st.users[u.ID]
		if !ok {
			return repository.ErrNotFound
		}
		cur.Username = u.Username
		cur.FirstName = u.FirstName
		cur.LastName = u.LastName
		cur.LanguageCode = u.LanguageCode
		if u.PhotoURL != nil {
			cur.PhotoURL = u.PhotoURL
		}
		cur.IsPremium = u.IsPremium
		st.users[u.ID] = cur
		return nil
	})
}

func (s *Store) StampDailyReward(ctx context.Context, userID int64, now, cutoff time.Time) (bool, error) {
	var stamped bool
	err := s.do("StampDailyReward", func(st *state) error {
		u, ok := st.users[userID]
		if !ok {
			return nil
		}
		if u.LastDailyReward != nil && u.LastDailyReward.After(cutoff) {
			return nil
		}
		t := now
		u.LastDailyReward = &t
		st.users[userID] = u
		stamped = true
		return nil
	})
	return stamped, err
}

func (s *Store) CreditClaim(ctx context.Context, userID int64, reward, referralTotal decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.do("CreditClaim", func(st *state) error {
		u, ok := st.users[userID]
		if !ok {
			return repository.ErrNotFound
		}
		u.CrocoBalance = u.CrocoBalance.Add(reward)
		u.TotalTokenReferral = u.TotalTokenReferral.Add(referralTotal)
		st.users[userID] = u
		balance = u.CrocoBalance
		return nil
	})
	return balance, err
}

func (s *Store) CreditReferral(ctx context.Context, userID int64, amount decimal.Decimal) error {
	return s.do("CreditReferral", func(st *state) error {
		u, ok := st.users[userID]
		if !ok {
			return repository.ErrNotFound
		}
		u.CrocoBalance = u.CrocoBalance.Add(amount)
		u.ReferralToken = u.ReferralToken.Add(amount)
		st.users[userID] = u
		return nil
	})
}

func (s *Store) AdjustFish(ctx context.Context, userID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	return s.adjust("AdjustFish", userID, delta, func(u *domain.User) *decimal.Decimal { return &u.FishBalance })
}

func (s *Store) AdjustCroco(ctx context.Context, userID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	return s.adjust("AdjustCroco", userID, delta, func(u *domain.User) *decimal.Decimal { return &u.CrocoBalance })
}

func (s *Store) adjust(op string, userID int64, delta decimal.Decimal, field func(*domain.User) *decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.do(op, func(st *state) error {
		u, ok := st.users[userID]
		if !ok {
			return repository.ErrNotFound
		}
		f := field(&u)
		next := f.Add(delta)
		if next.IsNegative() {
			return repository.ErrInsufficientFunds
		}
		*f = next
		st.users[userID] = u
		balance = next
		return nil
	})
	return balance, err
}

func (s *Store) ListReferees(ctx context.Context, code string, limit int) ([]domain.Referee, error) {
	res := []domain.Referee{}
	err := s.do("ListReferees", func(st *state) error {
		for _, u := range st.users {
			if u.ReferredByCode != nil && *u.ReferredByCode == code {
				res = append(res, domain.Referee{
					ID:           u.ID,
					Username:     u.Username,
					FirstName:    u.FirstName,
					PhotoURL:     u.PhotoURL,
					CrocoBalance: u.CrocoBalance,
					CreatedAt:    u.CreatedAt,
				})
			}
		}
		return nil
	})
	sort.Slice(res, func(i, j int) bool { return res[i].ID > res[j].ID })
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, err
}

func (s *Store) TopReferrers(ctx context.Context, limit int) ([]domain.RankEntry, error) {
	var res []domain.RankEntry
	err := s.do("TopReferrers", func(st *state) error {
		counts := make(map[string]int64)
		for _, u := range st.users {
			if u.ReferredByCode != nil {
				counts[*u.ReferredByCode]++
			}
		}
		for _, u := range st.users {
			if n := counts[u.ReferralCode]; n > 0 {
				res = append(res, rankEntry(u, decimal.NewFromInt(n)))
			}
		}
		return nil
	})
	return rank(res, limit), err
}

func (s *Store) TopCroco(ctx context.Context, limit int) ([]domain.RankEntry, error) {
	var res []domain.RankEntry
	err := s.do("TopCroco", func(st *state) error {
		for _, u := range st.users {
			if u.CrocoBalance.IsPositive() {
				res = append(res, rankEntry(u, u.CrocoBalance))
			}
		}
		return nil
	})
	return rank(res, limit), err
}

func rankEntry(u domain.User, v decimal.Decimal) domain.RankEntry {
	return domain.RankEntry{UserID: u.ID, Username: u.Username, FirstName: u.FirstName, PhotoURL: u.PhotoURL, Value: v}
}

func rank(res []domain.RankEntry, limit int) []domain.RankEntry {
	sort.Slice(res, func(i, j int) bool {
		if c := res[i].Value.Cmp(res[j].Value); c != 0 {
			return c > 0
		}
		return res[i].UserID < res[j].UserID
	})
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	for i := range res {
		res[i].Rank = i + 1
	}
	if res == nil {
		res = []domain.RankEntry{}
	}
	return res
}

// Eggs

func (s *Store) CreateEgg(ctx context.Context, e *domain.Egg) error {
	return s.do("CreateEgg", func(st *state) error {
		if _, ok := st.users[e.UserID]; !ok {
			return repository.ErrNotFound
		}
		e.ID = st.nextID()
		e.CreatedAt = s.now()
		e.UpdatedAt = e.CreatedAt
		st.eggs[e.ID] = *e
		return nil
	})
}

func (s *Store) GetEgg(ctx context.Context, id int64) (*domain.Egg, error) {
	var out *domain.Egg
	err := s.do("GetEgg", func(st *state) error {
		e, ok := st.eggs[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &e
		return nil
	})
	return out, err
}

func (s *Store) GetActiveEgg(ctx context.Context, userID int64) (*domain.Egg, error) {
	return s.newestEgg("GetActiveEgg", userID, func(e domain.Egg) bool { return e.IsActive() })
}

func (s *Store) GetLatestEgg(ctx context.Context, userID int64) (*domain.Egg, error) {
	return s.newestEgg("GetLatestEgg", userID, func(domain.Egg) bool { return true })
}

func (s *Store) GetClaimableEgg(ctx context.Context, userID int64) (*domain.Egg, error) {
	return s.newestEgg("GetClaimableEgg", userID, func(e domain.Egg) bool {
		return e.IsIncubating || e.HatchProgress >= domain.MaxHatchProgress
	})
}

func (s *Store) newestEgg(op string, userID int64, match func(domain.Egg) bool) (*domain.Egg, error) {
	var out *domain.Egg
	err := s.do(op, func(st *state) error {
		for _, e := range st.eggs {
			if e.UserID != userID || !match(e) {
				continue
			}
			if out == nil || e.ID > out.ID {
				e := e
				out = &e
			}
		}
		if out == nil {
			return repository.ErrNotFound
		}
		return nil
	})
	return out, err
}

func (s *Store) UpdateEgg(ctx context.Context, e *domain.Egg) error {
	return s.do("UpdateEgg", func(st *state) error {
		if _, ok := st.eggs[e.ID]; !ok {
			return repository.ErrNotFound
		}
		e.UpdatedAt = s.now()
		st.eggs[e.ID] = *e
		return nil
	})
}

func (s *Store) HaltStaleIncubations(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := s.do("HaltStaleIncubations", func(st *state) error {
		for id, e := range st.eggs {
			if !e.IsActive() {
				continue
			}
			u := st.users[e.UserID]
			if u.LastDailyReward != nil && !u.LastDailyReward.Before(cutoff) {
				continue
			}
			if e.LastIncubationStart != nil && !e.LastIncubationStart.Before(cutoff) {
				continue
			}
			e.IsIncubating = false
			st.eggs[id] = e
			n++
		}
		return nil
	})
	return n, err
}

func (s *Store) ListIncubatingEggs(ctx context.Context, limit int) ([]domain.Egg, error) {
	var res []domain.Egg
	err := s.do("ListIncubatingEggs", func(st *state) error {
		for _, e := range st.eggs {
			if e.IsActive() {
				res = append(res, e)
			}
		}
		return nil
	})
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, err
}

func (s *Store) SetHatchSpeed(ctx context.Context, eggID int64, speed float64) error {
	return s.do("SetHatchSpeed", func(st *state) error {
		e, ok := st.eggs[eggID]
		if !ok {
			return nil
		}
		e.HatchSpeed = speed
		st.eggs[eggID] = e
		return nil
	})
}

// Boosts

func (s *Store) ActiveBoosts(ctx context.Context, userID int64, at time.Time) ([]domain.AutoBoost, error) {
	var res []domain.AutoBoost
	err := s.do("ActiveBoosts", func(st *state) error {
		for _, b := range st.boosts {
			if b.UserID == userID && b.IsActive(at) {
				res = append(res, b)
			}
		}
		return nil
	})
	sort.Slice(res, func(i, j int) bool { return res[i].ExpiresAt.Before(res[j].ExpiresAt) })
	return res, err
}

func (s *Store) CreateBoost(ctx context.Context, b *domain.AutoBoost) error {
	return s.do("CreateBoost", func(st *state) error {
		b.ID = st.nextID()
		b.CreatedAt = s.now()
		st.boosts[b.ID] = *b
		return nil
	})
}

func (s *Store) UpsertBoost(ctx context.Context, b *domain.AutoBoost) error {
	return s.do("UpsertBoost", func(st *state) error {
		for id, cur := range st.boosts {
			if cur.UserID == b.UserID && cur.BoostType == b.BoostType {
				b.ID = id
				b.CreatedAt = cur.CreatedAt
				st.boosts[id] = *b
				return nil
			}
		}
		b.ID = st.nextID()
		b.CreatedAt = s.now()
		st.boosts[b.ID] = *b
		return nil
	})
}

func (s *Store) DeleteExpiredBoosts(ctx context.Context, at time.Time) (int64, error) {
	var n int64
	err := s.do("DeleteExpiredBoosts", func(st *state) error {
		for id, b := range st.boosts {
			if b.ExpiresAt.Before(at) {
				delete(st.boosts, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

// Boosts returns every stored boost row, expired or not.
func (s *Store) Boosts(userID int64) []domain.AutoBoost {
	var res []domain.AutoBoost
	_ = s.do("Boosts", func(st *state) error {
		for _, b := range st.boosts {
			if b.UserID == userID {
				res = append(res, b)
			}
		}
		return nil
	})
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Auto hatching

func (s *Store) GetAutoHatching(ctx context.Context, userID int64) (*domain.AutoHatching, error) {
	var out *domain.AutoHatching
	err := s.do("GetAutoHatching", func(st *state) error {
		a, ok := st.autoH[userID]
		if !ok {
			return repository.ErrNotFound
		}
		out = &a
		return nil
	})
	return out, err
}

func (s *Store) CreateAutoHatching(ctx context.Context, a *domain.AutoHatching) error {
	return s.do("CreateAutoHatching", func(st *state) error {
		if _, ok := st.autoH[a.UserID]; ok {
			return repository.ErrConflict
		}
		a.ID = st.nextID()
		a.CreatedAt = s.now()
		st.autoH[a.UserID] = *a
		return nil
	})
}

func (s *Store) ListAutoHatchingDue(ctx context.Context, cutoff time.Time, limit int) ([]int64, error) {
	var ids []int64
	err := s.do("ListAutoHatchingDue", func(st *state) error {
		for userID := range st.autoH {
			u, ok := st.users[userID]
			if !ok || (u.LastDailyReward != nil && u.LastDailyReward.After(cutoff)) {
				continue
			}
			for _, e := range st.eggs {
				if e.UserID == userID && e.IsActive() {
					ids = append(ids, userID)
					break
				}
			}
		}
		return nil
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, err
}

// Catalog

func (s *Store) ListSpeedItems(ctx context.Context) ([]domain.SpeedUpgradeItem, error) {
	var res []domain.SpeedUpgradeItem
	err := s.do("ListSpeedItems", func(st *state) error {
		res = append([]domain.SpeedUpgradeItem{}, st.speedItems...)
		return nil
	})
	sort.Slice(res, func(i, j int) bool { return res[i].Speed < res[j].Speed })
	return res, err
}

func (s *Store) ListBoostItems(ctx context.Context) ([]domain.BoostUpgradeItem, error) {
	var res []domain.BoostUpgradeItem
	err := s.do("ListBoostItems", func(st *state) error {
		res = append([]domain.BoostUpgradeItem{}, st.boostItems...)
		return nil
	})
	return res, err
}

func (s *Store) ListFishItems(ctx context.Context) ([]domain.FishItem, error) {
	var res []domain.FishItem
	err := s.do("ListFishItems", func(st *state) error {
		res = append([]domain.FishItem{}, st.fishItems...)
		return nil
	})
	return res, err
}

func (s *Store) GetSpeedItem(ctx context.Context, id int64) (*domain.SpeedUpgradeItem, error) {
	var out *domain.SpeedUpgradeItem
	err := s.do("GetSpeedItem", func(st *state) error {
		for _, it := range st.speedItems {
			if it.ID == id {
				it := it
				out = &it
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (s *Store) GetBoostItem(ctx context.Context, id int64) (*domain.BoostUpgradeItem, error) {
	var out *domain.BoostUpgradeItem
	err := s.do("GetBoostItem", func(st *state) error {
		for _, it := range st.boostItems {
			if it.ID == id {
				it := it
				out = &it
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

// Ledger and audit

func (s *Store) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	return s.do("CreateTransaction", func(st *state) error {
		tx.ID = st.nextID()
		tx.CreatedAt = s.now()
		st.txs = append(st.txs, *tx)
		return nil
	})
}

func (s *Store) ListTransactions(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error) {
	var res []*domain.Transaction
	err := s.do("ListTransactions", func(st *state) error {
		for i := len(st.txs) - 1; i >= 0; i-- {
			if st.txs[i].UserID == userID {
				tx := st.txs[i]
				res = append(res, &tx)
			}
		}
		return nil
	})
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, err
}

func (s *Store) CreateAuditLog(ctx context.Context, log *domain.AuditLog) error {
	return s.do("CreateAuditLog", func(st *state) error {
		log.ID = st.nextID()
		log.CreatedAt = s.now()
		st.audits = append(st.audits, *log)
		return nil
	})
}

func (s *Store) ListAuditLogs(ctx context.Context, userID int64, limit int) ([]*domain.AuditLog, error) {
	var res []*domain.AuditLog
	err := s.do("ListAuditLogs", func(st *state) error {
		for i := len(st.audits) - 1; i >= 0; i-- {
			if st.audits[i].UserID == userID {
				l := st.audits[i]
				res = append(res, &l)
			}
		}
		return nil
	})
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, err
}

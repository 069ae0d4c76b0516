package service

import (
	"context"
	"sync"
	"time"

	"croco_webapp/internal/domain"
	"croco_webapp/internal/repository"

	lru "github.com/hashicorp/golang-lru"
)

const (
	catalogCacheSize = 16
	catalogCacheTTL  = time.Minute
)

type catalogEntry struct {
	value   interface{}
	expires time.Time
}

// CatalogService serves the read-only shop lists from an in-process LRU.
type CatalogService struct {
	store repository.CatalogStore
	clock Clock
	cache *lru.Cache
	mu    sync.Mutex // serializes loads of the same key
}

func NewCatalogService(store repository.CatalogStore, clock Clock) *CatalogService {
	cache, _ := lru.New(catalogCacheSize)
	return &CatalogService{store: store, clock: clock, cache: cache}
}

func (s *CatalogService) SpeedList(ctx context.Context) ([]domain.SpeedUpgradeItem, error) {
	v, err := s.cached(ctx, "speed", func(ctx context.Context) (interface{}, error) {
		return s.store.ListSpeedItems(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.SpeedUpgradeItem), nil
}

func (s *CatalogService) BoostList(ctx context.Context) ([]domain.BoostUpgradeItem, error) {
	v, err := s.cached(ctx, "boost", func(ctx context.Context) (interface{}, error) {
		return s.store.ListBoostItems(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.BoostUpgradeItem), nil
}

func (s *CatalogService) FishList(ctx context.Context) ([]domain.FishItem, error) {
	v, err := s.cached(ctx, "fish", func(ctx context.Context) (interface{}, error) {
		return s.store.ListFishItems(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.FishItem), nil
}

// Invalidate drops every cached list.
func (s *CatalogService) Invalidate() {
	s.cache.Purge()
}

func (s *CatalogService) cached(ctx context.Context, key string, load func(context.Context) (interface{}, error)) (interface{}, error) {
	now := s.clock.now()
	if v, ok := s.cache.Get(key); ok {
		if e := v.(catalogEntry); now.Before(e.expires) {
			return e.value, nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.cache.Get(key); ok {
		if e := v.(catalogEntry); now.Before(e.expires) {
			return e.value, nil
		}
	}

	value, err := load(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, catalogEntry{value: value, expires: now.Add(catalogCacheTTL)})
	return value, nil
}

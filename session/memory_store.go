package session

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/haven-platform/gateway/domain"
	"github.com/haven-platform/gateway/internal/metrics"
)

// MemoryStore implements Store using ttlcache. Suitable for a single
// gateway instance; use the Redis store when running more than one.
type MemoryStore struct {
	cache *ttlcache.Cache[string, *domain.Session]
	ttl   time.Duration
}

// NewMemoryStore creates an in-memory session store with automatic
// expiry. ttl is the session lifetime; each Put restarts it.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, *domain.Session](ttl),
		ttlcache.WithDisableTouchOnHit[string, *domain.Session](),
	)

	// Sessions that age out without ever being checked again still count
	// against the active-sessions gauge; settle it here.
	cache.OnEviction(func(_ context.Context, _ ttlcache.EvictionReason, item *ttlcache.Item[string, *domain.Session]) {
		if sess := item.Value(); sess != nil && sess.Authenticated {
			metrics.ActiveSessionsGauge.Dec()
		}
	})

	go cache.Start()

	return &MemoryStore{cache: cache, ttl: ttl}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*domain.Session, error) {
	item := s.cache.Get(id)
	if item == nil {
		return nil, nil
	}
	return item.Value(), nil
}

func (s *MemoryStore) Put(_ context.Context, sess *domain.Session) error {
	s.cache.Set(sess.ID, sess, s.ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.cache.Delete(id)
	return nil
}

// Stop halts the background expiry loop.
func (s *MemoryStore) Stop() {
	s.cache.Stop()
}

var _ Store = (*MemoryStore)(nil)

package odds

import (
	"context"
	"sync"
	"time"

	"github.com/radieske/betbot/pkg/contracts/events"
)

// MemoryCache é o cache de processo usado quando não há Redis (dev/testes)
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	sports  map[string]memEntry[[]events.OddsUpdate]
	matches map[string]memEntry[events.OddsUpdate]
}

type memEntry[T any] struct {
	v   T
	exp time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		sports:  map[string]memEntry[[]events.OddsUpdate]{},
		matches: map[string]memEntry[events.OddsUpdate]{},
	}
}

func (c *MemoryCache) SetSport(_ context.Context, sport string, updates []events.OddsUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	exp := c.now().Add(c.ttl)
	c.sports[sport] = memEntry[[]events.OddsUpdate]{v: append([]events.OddsUpdate(nil), updates...), exp: exp}
	for _, u := range updates {
		c.matches[u.MatchID] = memEntry[events.OddsUpdate]{v: u, exp: exp}
	}
	return nil
}

func (c *MemoryCache) Sport(_ context.Context, sport string) ([]events.OddsUpdate, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.sports[sport]
	if !ok || c.now().After(e.exp) {
		return nil, false, nil
	}
	return append([]events.OddsUpdate(nil), e.v...), true, nil
}

func (c *MemoryCache) Match(_ context.Context, matchID string) (*events.OddsUpdate, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.matches[matchID]
	if !ok || c.now().After(e.exp) {
		return nil, false, nil
	}
	u := e.v
	return &u, true, nil
}

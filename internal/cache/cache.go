package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultTTL is the time-to-live applied to cached tokens.
const DefaultTTL = time.Hour

type entry struct {
	token     string
	expiresAt time.Time
}

// TokenCache is a concurrency-safe store mapping a user ID to at most one
// cached downstream token. Entries expire after a fixed TTL; an expired entry
// is treated as absent and removed by whichever reader observes it first.
//
// All operations are pure in-memory map work under a single lock, no I/O.
type TokenCache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration

	// now is swappable for tests
	now func() time.Time
}

type Option func(*TokenCache)

// WithTTL overrides the default entry time-to-live.
func WithTTL(ttl time.Duration) Option {
	return func(c *TokenCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(c *TokenCache) {
		c.now = now
	}
}

func New(opts ...Option) *TokenCache {
	c := &TokenCache{
		entries: make(map[string]entry),
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached token for the user if it exists and has not expired.
// An expired entry is deleted as a side effect and reported as absent.
func (c *TokenCache) Get(userID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[userID]
	if !ok {
		return "", false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, userID)
		return "", false
	}
	return e.token, true
}

// Set stores a token for the user with expiry now+TTL, unconditionally
// replacing any existing entry.
func (c *TokenCache) Set(userID, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[userID] = entry{
		token:     token,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Invalidate removes the entry for the user. No-op if absent.
func (c *TokenCache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, userID)
}

// Clear removes all entries and returns how many were removed.
func (c *TokenCache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[string]entry)
	return n
}

// Sweep removes all expired entries and returns how many were removed.
// Callers that prefer proactive cleanup over lazy eviction on read can run
// this periodically, see Run.
func (c *TokenCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var removed int
	for userID, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, userID)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries currently held, expired ones included.
func (c *TokenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// TTL returns the configured entry time-to-live.
func (c *TokenCache) TTL() time.Duration {
	return c.ttl
}

// Run sweeps expired entries every interval until ctx is cancelled.
func (c *TokenCache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := c.Sweep(); removed > 0 {
				log.Debug().Int("removed", removed).Msg("swept expired cache entries")
			}
		}
	}
}

// Package cache provides the cache of unwrapped data keys used on the decrypt path.
package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	validation "github.com/jellydator/validation"
	"golang.org/x/sync/singleflight"

	cryptoDomain "github.com/suryadisoft/cipher/internal/crypto/domain"
	appValidation "github.com/suryadisoft/cipher/internal/validation"
)

// Resolver unwraps the data key identified by cacheKey. It is called at most once per
// key for any number of concurrent misses.
type Resolver func(ctx context.Context, cacheKey string) (cryptoDomain.KeyMaterial, error)

// Config sizes the cache.
type Config struct {
	// InitialCapacity and ConcurrencyLevel are sizing hints. They are validated but
	// the LRU allocates on demand.
	InitialCapacity  int
	ConcurrencyLevel int

	// MaximumSize is the number of entries kept before the least recently used is evicted.
	MaximumSize int

	// ExpireAfterAccess evicts an entry that has not been read for this long.
	ExpireAfterAccess time.Duration
}

// DefaultConfig returns 16/4/100 entries with a ten second idle expiry.
func DefaultConfig() Config {
	return Config{
		InitialCapacity:   16,
		ConcurrencyLevel:  4,
		MaximumSize:       100,
		ExpireAfterAccess: 10 * time.Second,
	}
}

// Validate checks that every size is positive.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.InitialCapacity, validation.Required, validation.Min(1)),
		validation.Field(&c.ConcurrencyLevel, validation.Required, validation.Min(1)),
		validation.Field(&c.MaximumSize, validation.Required, validation.Min(1)),
		validation.Field(&c.ExpireAfterAccess, validation.Required, validation.Min(time.Millisecond)),
	)
	return appValidation.WrapValidationError(err)
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits        uint64
	Misses      uint64
	Resolutions uint64
	Evictions   uint64
	Size        int
}

type entry struct {
	key        cryptoDomain.KeyMaterial
	lastAccess time.Time
}

// DataKeyCache maps wrapped data keys to their unwrapped key material.
//
// Lookups of a missing key are collapsed with singleflight so N concurrent callers
// trigger one resolution. Entries leave the cache only through LRU pressure or idle
// expiry; errors are never cached.
type DataKeyCache struct {
	cfg     Config
	resolve Resolver
	now     func() time.Time

	mu    sync.Mutex
	lru   *simplelru.LRU[string, *entry]
	group singleflight.Group

	hits        atomic.Uint64
	misses      atomic.Uint64
	resolutions atomic.Uint64
	evictions   atomic.Uint64
}

// New creates a cache that fills misses with resolve.
func New(cfg Config, resolve Resolver) (*DataKeyCache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if resolve == nil {
		return nil, fmt.Errorf("cache resolver is nil")
	}

	l, err := simplelru.NewLRU[string, *entry](cfg.MaximumSize, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru: %w", err)
	}

	return &DataKeyCache{
		cfg:     cfg,
		resolve: resolve,
		now:     time.Now,
		lru:     l,
	}, nil
}

// Get returns the key material for cacheKey, resolving it on a miss.
//
// The resolution runs detached from ctx so that one caller giving up does not fail
// the others waiting on the same key; a caller whose ctx ends returns ctx.Err().
func (c *DataKeyCache) Get(ctx context.Context, cacheKey string) (cryptoDomain.KeyMaterial, error) {
	if km, ok := c.lookup(cacheKey); ok {
		c.hits.Add(1)
		return km, nil
	}
	c.misses.Add(1)
	c.sweep()

	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(cacheKey, func() (any, error) {
		if km, ok := c.lookup(cacheKey); ok {
			return km, nil
		}

		km, err := c.resolve(flightCtx, cacheKey)
		if err != nil {
			return nil, err
		}
		c.resolutions.Add(1)
		c.store(cacheKey, km)
		return km, nil
	})

	select {
	case <-ctx.Done():
		return cryptoDomain.KeyMaterial{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return cryptoDomain.KeyMaterial{}, res.Err
		}
		return res.Val.(cryptoDomain.KeyMaterial), nil
	}
}

// lookup returns a live entry and refreshes its access time. An idle-expired entry is
// removed and reported as missing.
func (c *DataKeyCache) lookup(cacheKey string) (cryptoDomain.KeyMaterial, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Get(cacheKey)
	if !ok {
		return cryptoDomain.KeyMaterial{}, false
	}

	now := c.now()
	if c.expired(e, now) {
		c.lru.Remove(cacheKey)
		c.evictions.Add(1)
		return cryptoDomain.KeyMaterial{}, false
	}
	e.lastAccess = now
	return e.key, true
}

func (c *DataKeyCache) store(cacheKey string, km cryptoDomain.KeyMaterial) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lru.Add(cacheKey, &entry{key: km, lastAccess: c.now()}) {
		c.evictions.Add(1)
	}
}

// sweep drops every idle-expired entry.
func (c *DataKeyCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for _, k := range c.lru.Keys() {
		if e, ok := c.lru.Peek(k); ok && c.expired(e, now) {
			c.lru.Remove(k)
			c.evictions.Add(1)
		}
	}
}

func (c *DataKeyCache) expired(e *entry, now time.Time) bool {
	return now.Sub(e.lastAccess) >= c.cfg.ExpireAfterAccess
}

// Len returns the number of cached entries, including idle ones not yet swept.
func (c *DataKeyCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Purge drops every entry. Flights in progress still complete and store their result.
func (c *DataKeyCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// Stats returns a snapshot of the counters.
func (c *DataKeyCache) Stats() Stats {
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Resolutions: c.resolutions.Load(),
		Evictions:   c.evictions.Load(),
		Size:        c.Len(),
	}
}

// Config returns the configuration the cache was built with.
func (c *DataKeyCache) Config() Config {
	return c.cfg
}

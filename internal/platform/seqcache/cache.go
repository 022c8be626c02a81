package seqcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/singleflight"

	"github.com/kislikjeka/piclaim/pkg/logger"
)

// DefaultTTL is how long a fetched sequence number is considered fresh
const DefaultTTL = 30 * time.Second

// SequenceFetcher fetches the current sequence number of an account
type SequenceFetcher interface {
	AccountSequence(ctx context.Context, address string) (int64, error)
}

type entry struct {
	value     int64
	fetchedAt time.Time
}

// Cache is a short-TTL per-account cache of the last observed sequence
// number. Concurrent Get calls for the same address coalesce into a
// single underlying fetch.
type Cache struct {
	fetcher SequenceFetcher
	clock   clock.Clock
	ttl     time.Duration
	logger  *logger.Logger

	mu      sync.Mutex
	entries map[string]entry
	group   singleflight.Group
}

// New creates a new sequence cache
func New(fetcher SequenceFetcher, clk clock.Clock, ttl time.Duration, log *logger.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		fetcher: fetcher,
		clock:   clk,
		ttl:     ttl,
		logger:  log.WithField("component", "seqcache"),
		entries: make(map[string]entry),
	}
}

// Get returns the cached sequence number for an address if it is still
// fresh, fetching and storing it otherwise.
func (c *Cache) Get(ctx context.Context, address string) (int64, error) {
	c.mu.Lock()
	e, ok := c.entries[address]
	fresh := ok && c.clock.Now().Sub(e.fetchedAt) < c.ttl
	c.mu.Unlock()

	if fresh {
		c.logger.Debug("sequence cache hit", "address", address, "sequence", e.value)
		return e.value, nil
	}

	return c.fetch(ctx, address)
}

// Prime forces an unconditional fetch and store, bypassing freshness.
// Used by the pre-fetch task shortly before a balance unlocks.
func (c *Cache) Prime(ctx context.Context, address string) (int64, error) {
	return c.fetch(ctx, address)
}

// Invalidate removes the cached entry for an address. Called on any
// ledger rejection attributable to a stale sequence.
func (c *Cache) Invalidate(address string) {
	c.mu.Lock()
	delete(c.entries, address)
	c.mu.Unlock()
	c.logger.Debug("sequence cache invalidated", "address", address)
}

// fetch performs the underlying ledger call, coalescing concurrent
// callers for the same address into one request.
func (c *Cache) fetch(ctx context.Context, address string) (int64, error) {
	v, err, _ := c.group.Do(address, func() (interface{}, error) {
		seq, err := c.fetcher.AccountSequence(ctx, address)
		if err != nil {
			return int64(0), fmt.Errorf("failed to fetch sequence for %s: %w", address, err)
		}

		c.mu.Lock()
		c.entries[address] = entry{value: seq, fetchedAt: c.clock.Now()}
		c.mu.Unlock()

		return seq, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

package seqcache_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/piclaim/internal/platform/seqcache"
	"github.com/kislikjeka/piclaim/pkg/logger"
)

// countingFetcher counts ledger calls and can delay them to exercise
// in-flight coalescing.
type countingFetcher struct {
	calls int64
	delay time.Duration
	seq   int64
	err   error
}

func (f *countingFetcher) AccountSequence(ctx context.Context, address string) (int64, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return 0, f.err
	}
	return atomic.AddInt64(&f.seq, 1) + 1000, nil
}

func newCache(t *testing.T, f *countingFetcher) (*seqcache.Cache, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	log := logger.New("test", os.Stdout)
	return seqcache.New(f, mock, 30*time.Second, log), mock
}

func TestGet_CachesWithinTTL(t *testing.T) {
	f := &countingFetcher{}
	c, mock := newCache(t, f)
	ctx := context.Background()

	first, err := c.Get(ctx, "GADDR")
	require.NoError(t, err)

	mock.Add(29 * time.Second)
	second, err := c.Get(ctx, "GADDR")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), atomic.LoadInt64(&f.calls))
}

func TestGet_RefetchesAfterTTL(t *testing.T) {
	f := &countingFetcher{}
	c, mock := newCache(t, f)
	ctx := context.Background()

	_, err := c.Get(ctx, "GADDR")
	require.NoError(t, err)

	mock.Add(31 * time.Second)
	_, err = c.Get(ctx, "GADDR")
	require.NoError(t, err)

	assert.Equal(t, int64(2), atomic.LoadInt64(&f.calls))
}

func TestPrime_BypassesFreshness(t *testing.T) {
	f := &countingFetcher{}
	c, _ := newCache(t, f)
	ctx := context.Background()

	_, err := c.Get(ctx, "GADDR")
	require.NoError(t, err)

	primed, err := c.Prime(ctx, "GADDR")
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&f.calls))

	// The primed value is what subsequent Gets observe.
	got, err := c.Get(ctx, "GADDR")
	require.NoError(t, err)
	assert.Equal(t, primed, got)
}

func TestInvalidate_ForcesRefetch(t *testing.T) {
	f := &countingFetcher{}
	c, _ := newCache(t, f)
	ctx := context.Background()

	_, err := c.Get(ctx, "GADDR")
	require.NoError(t, err)

	c.Invalidate("GADDR")

	_, err = c.Get(ctx, "GADDR")
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&f.calls))
}

// Concurrent Gets for the same address during an in-flight fetch must
// result in exactly one underlying ledger call.
func TestGet_CoalescesConcurrentFetches(t *testing.T) {
	f := &countingFetcher{delay: 50 * time.Millisecond}
	c, _ := newCache(t, f)
	ctx := context.Background()

	const goroutines = 10
	results := make([]int64, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seq, err := c.Get(ctx, "GADDR")
			require.NoError(t, err)
			results[i] = seq
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&f.calls))
	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
}

func TestGet_IndependentAddresses(t *testing.T) {
	f := &countingFetcher{}
	c, _ := newCache(t, f)
	ctx := context.Background()

	a, err := c.Get(ctx, "GAAA")
	require.NoError(t, err)
	b, err := c.Get(ctx, "GBBB")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, int64(2), atomic.LoadInt64(&f.calls))

	c.Invalidate("GAAA")

	// GBBB entry survives GAAA invalidation.
	_, err = c.Get(ctx, "GBBB")
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&f.calls))
}

func TestGet_FetchErrorNotCached(t *testing.T) {
	f := &countingFetcher{err: errors.New("connection refused")}
	c, _ := newCache(t, f)
	ctx := context.Background()

	_, err := c.Get(ctx, "GADDR")
	require.Error(t, err)

	f.err = nil
	_, err = c.Get(ctx, "GADDR")
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&f.calls))
}

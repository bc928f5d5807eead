package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	cryptoDomain "github.com/suryadisoft/cipher/internal/crypto/domain"
	apperrors "github.com/suryadisoft/cipher/internal/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func keyFor(t *testing.T, b byte) cryptoDomain.KeyMaterial {
	t.Helper()
	dataKey := make([]byte, 32)
	nonce := make([]byte, cryptoDomain.NonceSize)
	dataKey[0], nonce[0] = b, b
	km, err := cryptoDomain.NewKeyMaterial(dataKey, nonce)
	require.NoError(t, err)
	return km
}

// countingResolver returns a key derived from the first byte of cacheKey.
type countingResolver struct {
	t     *testing.T
	calls atomic.Int32
	err   error
}

func (r *countingResolver) resolve(_ context.Context, cacheKey string) (cryptoDomain.KeyMaterial, error) {
	r.calls.Add(1)
	if r.err != nil {
		return cryptoDomain.KeyMaterial{}, r.err
	}
	return keyFor(r.t, cacheKey[0]), nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero maximum size", mutate: func(c *Config) { c.MaximumSize = 0 }, wantErr: true},
		{name: "negative maximum size", mutate: func(c *Config) { c.MaximumSize = -1 }, wantErr: true},
		{name: "zero initial capacity", mutate: func(c *Config) { c.InitialCapacity = 0 }, wantErr: true},
		{name: "zero concurrency level", mutate: func(c *Config) { c.ConcurrencyLevel = 0 }, wantErr: true},
		{name: "zero expiry", mutate: func(c *Config) { c.ExpireAfterAccess = 0 }, wantErr: true},
		{name: "sub-millisecond expiry", mutate: func(c *Config) { c.ExpireAfterAccess = time.Microsecond }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("nil resolver", func(t *testing.T) {
		c, err := New(DefaultConfig(), nil)
		assert.Error(t, err)
		assert.Nil(t, c)
	})

	t.Run("invalid config", func(t *testing.T) {
		c, err := New(Config{}, (&countingResolver{t: t}).resolve)
		assert.Error(t, err)
		assert.Nil(t, c)
	})
}

func TestDataKeyCache_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("miss then hit", func(t *testing.T) {
		r := &countingResolver{t: t}
		c, err := New(DefaultConfig(), r.resolve)
		require.NoError(t, err)

		first, err := c.Get(ctx, "a")
		require.NoError(t, err)
		second, err := c.Get(ctx, "a")
		require.NoError(t, err)

		assert.True(t, first.Equal(second))
		assert.Equal(t, int32(1), r.calls.Load())

		stats := c.Stats()
		assert.Equal(t, uint64(1), stats.Hits)
		assert.Equal(t, uint64(1), stats.Misses)
		assert.Equal(t, uint64(1), stats.Resolutions)
		assert.Equal(t, 1, stats.Size)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		r := &countingResolver{t: t, err: errors.New("unwrap failed")}
		c, err := New(DefaultConfig(), r.resolve)
		require.NoError(t, err)

		_, err = c.Get(ctx, "a")
		assert.EqualError(t, err, "unwrap failed")
		_, err = c.Get(ctx, "a")
		assert.Error(t, err)

		assert.Equal(t, int32(2), r.calls.Load())
		assert.Equal(t, 0, c.Len())
	})

	t.Run("lru eviction at maximum size", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaximumSize = 2
		r := &countingResolver{t: t}
		c, err := New(cfg, r.resolve)
		require.NoError(t, err)

		for _, k := range []string{"a", "b", "a", "c"} {
			_, err := c.Get(ctx, k)
			require.NoError(t, err)
		}

		assert.Equal(t, 2, c.Len())
		assert.Equal(t, uint64(1), c.Stats().Evictions)

		// "b" was least recently used
		_, err = c.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, int32(3), r.calls.Load())
		_, err = c.Get(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, int32(4), r.calls.Load())
	})

	t.Run("idle expiry", func(t *testing.T) {
		clock := &fakeClock{now: time.Unix(1700000000, 0)}
		cfg := DefaultConfig()
		cfg.ExpireAfterAccess = time.Second
		r := &countingResolver{t: t}
		c, err := New(cfg, r.resolve)
		require.NoError(t, err)
		c.now = clock.Now

		_, err = c.Get(ctx, "a")
		require.NoError(t, err)

		// Access refreshes the idle timer.
		clock.Advance(900 * time.Millisecond)
		_, err = c.Get(ctx, "a")
		require.NoError(t, err)
		clock.Advance(900 * time.Millisecond)
		_, err = c.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, int32(1), r.calls.Load())

		clock.Advance(time.Second)
		_, err = c.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, int32(2), r.calls.Load())
		assert.Equal(t, uint64(1), c.Stats().Evictions)
	})

	t.Run("miss sweeps expired entries", func(t *testing.T) {
		clock := &fakeClock{now: time.Unix(1700000000, 0)}
		cfg := DefaultConfig()
		cfg.ExpireAfterAccess = time.Second
		c, err := New(cfg, (&countingResolver{t: t}).resolve)
		require.NoError(t, err)
		c.now = clock.Now

		for _, k := range []string{"a", "b", "c"} {
			_, err := c.Get(ctx, k)
			require.NoError(t, err)
		}
		assert.Equal(t, 3, c.Len())

		clock.Advance(2 * time.Second)
		_, err = c.Get(ctx, "d")
		require.NoError(t, err)
		assert.Equal(t, 1, c.Len())
		assert.Equal(t, uint64(3), c.Stats().Evictions)
	})

	t.Run("purge", func(t *testing.T) {
		r := &countingResolver{t: t}
		c, err := New(DefaultConfig(), r.resolve)
		require.NoError(t, err)

		_, err = c.Get(ctx, "a")
		require.NoError(t, err)
		c.Purge()
		assert.Equal(t, 0, c.Len())

		_, err = c.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, int32(2), r.calls.Load())
	})
}

func TestDataKeyCache_SingleFlight(t *testing.T) {
	ctx := context.Background()
	const callers = 50

	var calls atomic.Int32
	release := make(chan struct{})
	want := keyFor(t, 7)
	resolve := func(context.Context, string) (cryptoDomain.KeyMaterial, error) {
		calls.Add(1)
		<-release
		return want, nil
	}

	c, err := New(DefaultConfig(), resolve)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var started sync.WaitGroup
	results := make([]cryptoDomain.KeyMaterial, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		started.Add(1)
		go func(i int) {
			defer wg.Done()
			started.Done()
			results[i], errs[i] = c.Get(ctx, "wrapped")
		}(i)
	}

	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.True(t, want.Equal(results[i]))
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, uint64(1), c.Stats().Resolutions)
}

func TestDataKeyCache_SingleFlightError(t *testing.T) {
	ctx := context.Background()
	const callers = 10

	release := make(chan struct{})
	var calls atomic.Int32
	resolve := func(context.Context, string) (cryptoDomain.KeyMaterial, error) {
		calls.Add(1)
		<-release
		return cryptoDomain.KeyMaterial{}, cryptoDomain.ErrRemoteProvider
	}

	c, err := New(DefaultConfig(), resolve)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Get(ctx, "wrapped")
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		assert.ErrorIs(t, err, cryptoDomain.ErrRemoteProvider)
	}
	assert.LessOrEqual(t, calls.Load(), int32(callers))
	assert.Equal(t, 0, c.Len())
}

func TestDataKeyCache_CancelledWaiter(t *testing.T) {
	release := make(chan struct{})
	resolved := make(chan struct{})
	want := keyFor(t, 9)
	resolve := func(ctx context.Context, _ string) (cryptoDomain.KeyMaterial, error) {
		defer close(resolved)
		<-release
		// The flight context is detached from the caller that started it.
		if err := ctx.Err(); err != nil {
			return cryptoDomain.KeyMaterial{}, err
		}
		return want, nil
	}

	c, err := New(DefaultConfig(), resolve)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx, "wrapped")
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	other := make(chan cryptoDomain.KeyMaterial, 1)
	go func() {
		km, _ := c.Get(context.Background(), "wrapped")
		other <- km
	}()

	close(release)
	<-resolved
	assert.True(t, want.Equal(<-other))
	assert.Equal(t, 1, c.Len())
}

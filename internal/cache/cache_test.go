package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"ptanalysis/internal/shared/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	c := New(ttl, nil, logger)
	t.Cleanup(c.Stop)
	return c
}

func counting(value any, calls *int32) LoadFunc {
	return func() (any, error) {
		atomic.AddInt32(calls, 1)
		return value, nil
	}
}

func TestGetCachesUntilFileChanges(t *testing.T) {
	ctx := context.Background()
	path := testutil.WriteFile(t, t.TempDir(), "usage.csv", "a,b\n1,2\n")
	c := newCache(t, time.Hour)

	var calls int32
	v, err := c.Get(ctx, path, counting("first", &calls))
	require.NoError(t, err)
	assert.Equal(t, "first", v)

	v, err = c.Get(ctx, path, counting("second", &calls))
	require.NoError(t, err)
	assert.Equal(t, "first", v)
	assert.EqualValues(t, 1, calls)

	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n3,4\n"), 0o644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	v, err = c.Get(ctx, path, counting("third", &calls))
	require.NoError(t, err)
	assert.Equal(t, "third", v)
	assert.EqualValues(t, 2, calls)

	s := c.Stats()
	assert.Equal(t, 1, s.Entries)
	assert.EqualValues(t, 1, s.Hits)
	assert.EqualValues(t, 2, s.Misses)
	assert.InDelta(t, 1.0/3.0, s.HitRatio, 1e-9)
	assert.EqualValues(t, len("a,b\n1,2\n3,4\n"), s.Bytes)
	assert.Equal(t, []string{path}, s.Keys)
}

func TestGetExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	path := testutil.WriteFile(t, t.TempDir(), "labels.csv", "x\n")
	c := newCache(t, time.Minute)

	now := time.Now()
	c.now = func() time.Time { return now }

	var calls int32
	_, err := c.Get(ctx, path, counting(1, &calls))
	require.NoError(t, err)

	now = now.Add(59 * time.Second)
	_, err = c.Get(ctx, path, counting(2, &calls))
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls)

	now = now.Add(2 * time.Second)
	v, err := c.Get(ctx, path, counting(3, &calls))
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.EqualValues(t, 2, calls)
}

func TestGetMissingFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "feedback.csv", "label\n")
	c := newCache(t, 0)

	var calls int32
	_, err := c.Get(ctx, path, counting("v", &calls))
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	_, err = c.Get(ctx, path, counting("v", &calls))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, 0, c.Stats().Entries)
	assert.EqualValues(t, 1, calls)

	_, err = c.Get(ctx, filepath.Join(dir, "nope.csv"), counting("v", &calls))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	path := testutil.WriteFile(t, t.TempDir(), "usage.csv", "a\n")
	c := newCache(t, time.Hour)

	boom := errors.New("missing column")
	_, err := c.Get(ctx, path, func() (any, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Stats().Entries)

	v, err := c.Get(ctx, path, func() (any, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestConcurrentMissesShareOneLoad(t *testing.T) {
	ctx := context.Background()
	path := testutil.WriteFile(t, t.TempDir(), "usage.csv", "a\n")
	c := newCache(t, time.Hour)

	var calls int32
	release := make(chan struct{})
	load := func() (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "shared", nil
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make([]any, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Get(ctx, path, load)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	for _, v := range results {
		assert.Equal(t, "shared", v)
	}
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	a := testutil.WriteFile(t, dir, "a.csv", "a\n")
	b := testutil.WriteFile(t, dir, "b.csv", "b\n")
	c := newCache(t, time.Hour)

	var calls int32
	for _, p := range []string{a, b} {
		_, err := c.Get(ctx, p, counting(p, &calls))
		require.NoError(t, err)
	}

	assert.True(t, c.Invalidate(ctx, a, "changed"))
	assert.False(t, c.Invalidate(ctx, a, "changed"))
	assert.Equal(t, []string{b}, c.Stats().Keys)

	_, err := c.Get(ctx, a, counting(a, &calls))
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls)

	assert.Equal(t, 2, c.InvalidateAll(ctx, "manual"))
	s := c.Stats()
	assert.Equal(t, 0, s.Entries)
	assert.False(t, s.LastPurged.IsZero())
}

func TestVariantsOfOneFile(t *testing.T) {
	ctx := context.Background()
	path := testutil.WriteFile(t, t.TempDir(), "labels.csv", "a\n")
	c := newCache(t, time.Hour)

	var calls int32
	tests := []struct {
		variant string
		value   string
	}{
		{"weekday_labels", "weekday"},
		{"weekend_labels", "weekend"},
	}
	for _, tt := range tests {
		v, err := c.GetVariant(ctx, path, tt.variant, counting(tt.value, &calls))
		require.NoError(t, err)
		assert.Equal(t, tt.value, v)
	}
	for _, tt := range tests {
		v, err := c.GetVariant(ctx, path, tt.variant, counting("reloaded", &calls))
		require.NoError(t, err)
		assert.Equal(t, tt.value, v)
	}
	assert.EqualValues(t, 2, calls)
	assert.Equal(t, []string{Key(path, "weekday_labels"), Key(path, "weekend_labels")}, c.Stats().Keys)

	assert.True(t, c.Invalidate(ctx, path, "changed"))
	assert.Equal(t, 0, c.Stats().Entries)
}

func TestPurgeExpired(t *testing.T) {
	ctx := context.Background()
	path := testutil.WriteFile(t, t.TempDir(), "a.csv", "a\n")
	c := newCache(t, time.Minute)

	now := time.Now()
	c.now = func() time.Time { return now }

	var calls int32
	_, err := c.Get(ctx, path, counting(1, &calls))
	require.NoError(t, err)

	assert.Equal(t, 0, c.purgeExpired())
	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, c.purgeExpired())
	assert.Equal(t, 0, c.Stats().Entries)
}

func TestStopIsIdempotent(t *testing.T) {
	c := New(0, nil, nil)
	c.Stop()
	c.Stop()
}

package biz

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntry(created time.Time) *DocEntry {
	return &DocEntry{
		Chunks:    []string{"chunk"},
		CreatedAt: created,
	}
}

func TestDocKey(t *testing.T) {
	// MD5 hex digest of the URL.
	assert.Equal(t, "c12a59c6ae9aca51028fca4c60f356b7", DocKey("https://example.com/policy.pdf"))
	assert.Len(t, DocKey("anything"), 32)
	assert.NotEqual(t, DocKey("a"), DocKey("b"))
}

func TestDocCache_GetOrBuild(t *testing.T) {
	cache := NewDocCache(DocCacheConfig{})
	ctx := context.Background()

	builds := 0
	build := func(ctx context.Context) (*DocEntry, error) {
		builds++
		return testEntry(time.Now()), nil
	}

	first, err := cache.GetOrBuild(ctx, "k1", build)
	require.NoError(t, err)

	second, err := cache.GetOrBuild(ctx, "k1", build)
	require.NoError(t, err)

	assert.Equal(t, 1, builds)
	assert.Same(t, first, second)
}

func TestDocCache_BuildErrorNotCached(t *testing.T) {
	cache := NewDocCache(DocCacheConfig{})
	ctx := context.Background()

	builds := 0
	_, err := cache.GetOrBuild(ctx, "k1", func(ctx context.Context) (*DocEntry, error) {
		builds++
		return nil, fmt.Errorf("boom")
	})
	require.Error(t, err)

	_, err = cache.GetOrBuild(ctx, "k1", func(ctx context.Context) (*DocEntry, error) {
		builds++
		return testEntry(time.Now()), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, builds)
}

func TestDocCache_TTLExpiryIsMiss(t *testing.T) {
	cache := NewDocCache(DocCacheConfig{TTL: 50 * time.Millisecond})
	ctx := context.Background()

	builds := 0
	build := func(ctx context.Context) (*DocEntry, error) {
		builds++
		return testEntry(time.Now()), nil
	}

	_, err := cache.GetOrBuild(ctx, "k1", build)
	require.NoError(t, err)

	time.Sleep(80 * time.Millisecond)

	_, err = cache.GetOrBuild(ctx, "k1", build)
	require.NoError(t, err)
	assert.Equal(t, 2, builds)
}

func TestDocCache_EvictsOldestAtCapacity(t *testing.T) {
	cache := NewDocCache(DocCacheConfig{Capacity: 3})
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 3; i++ {
		created := base.Add(time.Duration(i) * time.Second)
		_, err := cache.GetOrBuild(ctx, fmt.Sprintf("k%d", i), func(ctx context.Context) (*DocEntry, error) {
			return testEntry(created), nil
		})
		require.NoError(t, err)
	}

	// Inserting a fourth entry evicts k0, the oldest.
	_, err := cache.GetOrBuild(ctx, "k3", func(ctx context.Context) (*DocEntry, error) {
		return testEntry(base.Add(3 * time.Second)), nil
	})
	require.NoError(t, err)

	rebuilt := false
	_, err = cache.GetOrBuild(ctx, "k0", func(ctx context.Context) (*DocEntry, error) {
		rebuilt = true
		return testEntry(time.Now()), nil
	})
	require.NoError(t, err)
	assert.True(t, rebuilt, "oldest entry should have been evicted")

	// k1 survived the eviction; it must still hit.
	hit := true
	_, err = cache.GetOrBuild(ctx, "k1", func(ctx context.Context) (*DocEntry, error) {
		hit = false
		return testEntry(time.Now()), nil
	})
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestDocCache_ConcurrentBuildsShared(t *testing.T) {
	cache := NewDocCache(DocCacheConfig{})
	ctx := context.Background()

	var builds atomic.Int32
	build := func(ctx context.Context) (*DocEntry, error) {
		builds.Add(1)
		time.Sleep(20 * time.Millisecond)
		return testEntry(time.Now()), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.GetOrBuild(ctx, "shared", build)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load(), "concurrent callers must share one build")
}

func TestDocCache_Clear(t *testing.T) {
	cache := NewDocCache(DocCacheConfig{})
	ctx := context.Background()

	_, err := cache.GetOrBuild(ctx, "k1", func(ctx context.Context) (*DocEntry, error) {
		return testEntry(time.Now()), nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, cache.Stats()["size"])

	cache.Clear()
	assert.Equal(t, 0, cache.Stats()["size"])
}

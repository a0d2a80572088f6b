package rediscache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pet-adoption-api/internal/domain/pets"
)

func setupCache(t *testing.T, ttl time.Duration) (*PoolCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewPoolCache(rdb, ttl), mr
}

func TestPoolCache_RoundTripAndTTL(t *testing.T) {
	cache, mr := setupCache(t, 30*time.Second)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	listed := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	pool := []pets.Pet{
		{ID: "p1", Name: "Pancho", Species: pets.SpeciesCapybara, Description: "calm", DateListed: listed},
		{ID: "p2", Name: "Luna", Species: pets.SpeciesGuineaPig, Gallery: []string{"a.png"}},
	}
	require.NoError(t, cache.Set(ctx, pool))
	assert.Equal(t, 30*time.Second, mr.TTL(DefaultPoolKey))

	got, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, "Pancho", got[0].Name)
	assert.True(t, listed.Equal(got[0].DateListed))
	assert.Equal(t, []string{"a.png"}, got[1].Gallery)

	mr.FastForward(31 * time.Second)
	_, ok, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPoolCache_EmptyPoolIsAHit(t *testing.T) {
	cache, _ := setupCache(t, 0)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, nil))
	got, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestPoolCache_InvalidateAndCorruptEntry(t *testing.T) {
	cache, mr := setupCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, []pets.Pet{{ID: "p1"}}))
	require.NoError(t, cache.Invalidate(ctx))
	assert.False(t, mr.Exists(DefaultPoolKey))

	require.NoError(t, mr.Set(DefaultPoolKey, "{not json"))
	_, ok, err := cache.Get(ctx)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists(DefaultPoolKey))
}

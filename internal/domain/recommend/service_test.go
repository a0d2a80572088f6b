package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pet-adoption-api/internal/domain/pets"
	"pet-adoption-api/internal/ports/auth"
)

type fakeSource struct {
	pool  []pets.Pet
	err   error
	calls int
	seen  auth.Claims
}

func (f *fakeSource) AvailablePool(ctx context.Context, viewer auth.Claims, limit int) ([]pets.Pet, error) {
	f.calls++
	f.seen = viewer
	if f.err != nil {
		return nil, f.err
	}
	if len(f.pool) > limit {
		return f.pool[:limit], nil
	}
	return f.pool, nil
}

type fakeCache struct {
	pool        []pets.Pet
	has         bool
	invalidated int
}

func (c *fakeCache) Get(ctx context.Context) ([]pets.Pet, bool, error) {
	return c.pool, c.has, nil
}

func (c *fakeCache) Set(ctx context.Context, pool []pets.Pet) error {
	c.pool, c.has = pool, true
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context) error {
	c.pool, c.has = nil, false
	c.invalidated++
	return nil
}

func TestService_UsesCacheAfterFirstLoad(t *testing.T) {
	src := &fakeSource{pool: []pets.Pet{mkPet("a", pets.SpeciesCapybara, "")}}
	cache := &fakeCache{}
	svc := NewService(src, cache, nil)

	res, from := svc.Recommend(context.Background(), Answers{})
	require.Len(t, res, 1)
	assert.Equal(t, SourceStore, from)
	assert.False(t, src.seen.Authenticated(), "pool must be loaded as anonymous viewer")

	_, from = svc.Recommend(context.Background(), Answers{})
	assert.Equal(t, SourceCache, from)
	assert.Equal(t, 1, src.calls)

	svc.InvalidatePool(context.Background())
	_, from = svc.Recommend(context.Background(), Answers{})
	assert.Equal(t, SourceStore, from)
	assert.Equal(t, 2, src.calls)
	assert.Equal(t, 1, cache.invalidated)
}

func TestService_DegradesToEmptyPool(t *testing.T) {
	svc := NewService(&fakeSource{err: errors.New("db down")}, nil, nil)

	res, from := svc.Recommend(context.Background(), Answers{Species: "capybara"})
	assert.Empty(t, res)
	assert.Equal(t, SourceDegraded, from)
}

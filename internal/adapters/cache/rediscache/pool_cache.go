package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pet-adoption-api/internal/domain/pets"
)

const (
	DefaultPoolKey = "adopt:recommend:pool"
	DefaultPoolTTL = time.Minute
)

// PoolCache guarda el pool de recomendaciones como JSON bajo una sola clave.
type PoolCache struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func NewPoolCache(rdb *redis.Client, ttl time.Duration) *PoolCache {
	if ttl <= 0 {
		ttl = DefaultPoolTTL
	}
	return &PoolCache{rdb: rdb, key: DefaultPoolKey, ttl: ttl}
}

func (c *PoolCache) Get(ctx context.Context) ([]pets.Pet, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var pool []pets.Pet
	if err := json.Unmarshal(raw, &pool); err != nil {
		// entrada corrupta: se descarta y se recarga del store
		_ = c.rdb.Del(ctx, c.key).Err()
		return nil, false, fmt.Errorf("decode cached pool: %w", err)
	}
	return pool, true, nil
}

func (c *PoolCache) Set(ctx context.Context, pool []pets.Pet) error {
	if pool == nil {
		pool = []pets.Pet{}
	}
	raw, err := json.Marshal(pool)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key, raw, c.ttl).Err()
}

func (c *PoolCache) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, c.key).Err()
}

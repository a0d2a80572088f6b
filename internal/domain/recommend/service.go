package recommend

import (
	"context"

	"pet-adoption-api/internal/domain/pets"
	"pet-adoption-api/internal/platform/logger"
	"pet-adoption-api/internal/platform/metrics"
	"pet-adoption-api/internal/ports/auth"
)

// PoolSize es la cantidad máxima de mascotas disponibles que se evalúan.
const PoolSize = 50

// PoolSource es lo que necesitamos del servicio de pets.
type PoolSource interface {
	AvailablePool(ctx context.Context, viewer auth.Claims, limit int) ([]pets.Pet, error)
}

// PoolCache guarda el pool anónimo (sin notas internas) por un TTL corto.
type PoolCache interface {
	Get(ctx context.Context) ([]pets.Pet, bool, error)
	Set(ctx context.Context, pool []pets.Pet) error
	Invalidate(ctx context.Context) error
}

type Source string

const (
	SourceCache    Source = "cache"
	SourceStore    Source = "store"
	SourceDegraded Source = "degraded"
)

type Service struct {
	pool  PoolSource
	cache PoolCache
	log   logger.Logger
}

// NewService: cache puede ser nil (sin Redis configurado).
func NewService(pool PoolSource, cache PoolCache, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{pool: pool, cache: cache, log: log}
}

// Recommend nunca falla por el pool: si no se puede cargar, se recomienda sobre
// un pool vacío y la respuesta sale con source=degraded.
func (s *Service) Recommend(ctx context.Context, a Answers) ([]Result, Source) {
	pool, src := s.loadPool(ctx)
	metrics.RecommendationsServed.WithLabelValues(string(src)).Inc()
	return Recommend(pool, a), src
}

// InvalidatePool se registra como change hook del servicio de pets.
func (s *Service) InvalidatePool(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("recommendation pool invalidate failed", map[string]any{"error": err})
	}
}

func (s *Service) loadPool(ctx context.Context) ([]pets.Pet, Source) {
	if s.cache != nil {
		pool, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.log.Warn("recommendation pool cache read failed", map[string]any{"error": err})
		}
		if ok {
			return pool, SourceCache
		}
	}

	// Viewer anónimo: el pool nunca lleva notas internas.
	pool, err := s.pool.AvailablePool(ctx, auth.Claims{}, PoolSize)
	if err != nil {
		s.log.Warn("recommendation pool unavailable, degrading to empty pool", map[string]any{"error": err})
		return nil, SourceDegraded
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, pool); err != nil {
			s.log.Warn("recommendation pool cache write failed", map[string]any{"error": err})
		}
	}
	return pool, SourceStore
}

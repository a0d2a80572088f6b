package auditlog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"pet-adoption-api/internal/middleware"
	"pet-adoption-api/internal/platform/logger"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

type Service struct {
	repo Repository
	log  logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// Record agrega una entrada tomando actor/IP/User-Agent del contexto del request.
// Es best-effort: si falla el append se loguea y la operación principal sigue.
func (s *Service) Record(ctx context.Context, action Action, entityType EntityType, entityID string, details map[string]any) {
	actorID := ""
	if c, ok := middleware.GetClaims(ctx); ok {
		actorID = c.UserID
	}
	s.RecordAs(ctx, actorID, action, entityType, entityID, details)
}

// RecordAs es Record con un actor explícito (login/registro: todavía no hay claims en el contexto).
func (s *Service) RecordAs(ctx context.Context, actorID string, action Action, entityType EntityType, entityID string, details map[string]any) {
	meta := middleware.GetRequestMeta(ctx)
	e := Entry{
		ID:         uuid.NewString(),
		Action:     action,
		ActorID:    actorID,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
		CreatedAt:  s.now().UTC(),
	}

	if err := s.repo.Append(ctx, e); err != nil {
		s.log.Error("audit append failed", map[string]any{
			"action":      string(action),
			"entity_type": string(entityType),
			"entity_id":   entityID,
			"error":       err,
		})
	}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Entry, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultLimit
	}
	if filter.Limit > MaxLimit {
		filter.Limit = MaxLimit
	}
	return s.repo.List(ctx, filter)
}

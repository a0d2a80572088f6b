package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-adoption-api/internal/domain/auditlog"
)

type auditRepo struct {
	mu      sync.RWMutex
	entries []auditlog.Entry
}

func NewAuditRepo() auditlog.Repository {
	return &auditRepo{}
}

func (r *auditRepo) Append(ctx context.Context, e auditlog.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" {
		return errors.New("audit entry id required")
	}
	r.entries = append(r.entries, e)
	return nil
}

func (r *auditRepo) List(ctx context.Context, filter auditlog.ListFilter) ([]auditlog.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = auditlog.DefaultLimit
	}

	out := make([]auditlog.Entry, 0)
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if len(filter.Actions) > 0 {
			ok := false
			for _, a := range filter.Actions {
				if e.Action == a {
					ok = true
					break
				}
			}
			if !ok {
				continue
			}
		}
		if filter.EntityType != "" && e.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != "" && e.EntityID != filter.EntityID {
			continue
		}
		if filter.ActorID != "" && e.ActorID != filter.ActorID {
			continue
		}
		if filter.From != nil && e.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.CreatedAt.After(*filter.To) {
			continue
		}
		if q := strings.TrimSpace(filter.Query); q != "" {
			hay := strings.ToLower(string(e.Action) + " " + string(e.EntityType) + " " + e.EntityID)
			if !strings.Contains(hay, strings.ToLower(q)) {
				continue
			}
		}
		out = append(out, e)
	}

	// Más reciente primero; en empate gana la última agregada.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

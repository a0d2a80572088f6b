package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-adoption-api/internal/domain/pets"
)

type petRepo struct {
	mu      sync.RWMutex
	byID    map[string]pets.Pet
	nextRef int64
}

func NewPetRepo() pets.Repository {
	return &petRepo{
		byID: make(map[string]pets.Pet),
	}
}

func (r *petRepo) Create(ctx context.Context, p pets.Pet) (pets.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return pets.Pet{}, errors.New("pet id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return pets.Pet{}, errors.New("pet already exists")
	}
	r.nextRef++
	p.RefNumber = r.nextRef
	r.byID[p.ID] = clonePet(p)
	return clonePet(p), nil
}

func (r *petRepo) Update(ctx context.Context, p pets.Pet, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.byID[p.ID]
	if !exists {
		return pets.ErrNotFound
	}
	if current.Version != expectedVersion {
		return pets.ErrVersionConflict
	}
	p.RefNumber = current.RefNumber
	r.byID[p.ID] = clonePet(p)
	return nil
}

func (r *petRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return clonePet(p), nil
}

func (r *petRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return pets.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *petRepo) List(ctx context.Context, q pets.Query) ([]pets.Pet, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]pets.Pet, 0)
	for _, p := range r.byID {
		if q.Matches(p) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return q.Less(matched[i], matched[j])
	})

	total := len(matched)
	start := q.Offset()
	if start < 0 || start >= total || q.Limit <= 0 {
		return []pets.Pet{}, total, nil
	}
	end := start + q.Limit
	if end > total {
		end = total
	}

	out := make([]pets.Pet, 0, end-start)
	for _, p := range matched[start:end] {
		out = append(out, clonePet(p))
	}
	return out, total, nil
}

// el slice de galería no se comparte con quien llama.
func clonePet(p pets.Pet) pets.Pet {
	if p.Gallery != nil {
		p.Gallery = append([]string(nil), p.Gallery...)
	}
	if p.PromotedUntil != nil {
		t := *p.PromotedUntil
		p.PromotedUntil = &t
	}
	return p
}

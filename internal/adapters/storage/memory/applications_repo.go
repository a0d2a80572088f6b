package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"pet-adoption-api/internal/domain/applications"
)

type applicationRepo struct {
	mu   sync.RWMutex
	byID map[string]applications.Application
}

func NewApplicationRepo() applications.Repository {
	return &applicationRepo{
		byID: make(map[string]applications.Application),
	}
}

// Create rechaza una segunda pendiente del mismo usuario para la misma mascota.
func (r *applicationRepo) Create(ctx context.Context, a applications.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.ID == "" {
		return errors.New("application id required")
	}
	if _, exists := r.byID[a.ID]; exists {
		return errors.New("application already exists")
	}
	if a.Status == applications.StatusPending {
		for _, x := range r.byID {
			if x.Status == applications.StatusPending && x.PetID == a.PetID && x.ApplicantID == a.ApplicantID {
				return applications.ErrDuplicate
			}
		}
	}
	r.byID[a.ID] = a
	return nil
}

func (r *applicationRepo) GetByID(ctx context.Context, id string) (applications.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return applications.Application{}, applications.ErrNotFound
	}
	return a, nil
}

func (r *applicationRepo) Update(ctx context.Context, a applications.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[a.ID]; !exists {
		return applications.ErrNotFound
	}
	r.byID[a.ID] = a
	return nil
}

func (r *applicationRepo) List(ctx context.Context, f applications.ListFilter) ([]applications.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]applications.Application, 0)
	for _, a := range r.byID {
		if f.ApplicantID != "" && a.ApplicantID != f.ApplicantID {
			continue
		}
		if f.RescueID != "" && a.RescueID != f.RescueID {
			continue
		}
		if f.PetID != "" && a.PetID != f.PetID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

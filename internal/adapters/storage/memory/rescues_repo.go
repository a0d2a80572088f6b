package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-adoption-api/internal/domain/rescues"
)

type rescueRepo struct {
	mu   sync.RWMutex
	byID map[string]rescues.Rescue
}

func NewRescueRepo() rescues.Repository {
	return &rescueRepo{
		byID: make(map[string]rescues.Rescue),
	}
}

func (r *rescueRepo) Create(ctx context.Context, x rescues.Rescue) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x.ID == "" {
		return errors.New("rescue id required")
	}
	if _, exists := r.byID[x.ID]; exists {
		return errors.New("rescue already exists")
	}
	r.byID[x.ID] = x
	return nil
}

func (r *rescueRepo) GetByID(ctx context.Context, id string) (rescues.Rescue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	x, ok := r.byID[id]
	if !ok {
		return rescues.Rescue{}, rescues.ErrNotFound
	}
	return x, nil
}

func (r *rescueRepo) Update(ctx context.Context, x rescues.Rescue) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[x.ID]; !exists {
		return rescues.ErrNotFound
	}
	r.byID[x.ID] = x
	return nil
}

func (r *rescueRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return rescues.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *rescueRepo) List(ctx context.Context) ([]rescues.Rescue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]rescues.Rescue, 0, len(r.byID))
	for _, x := range r.byID {
		out = append(out, x)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a == b {
			return out[i].ID < out[j].ID
		}
		return a < b
	})
	return out, nil
}

type rescueRequestRepo struct {
	mu   sync.RWMutex
	byID map[string]rescues.Request
}

func NewRescueRequestRepo() rescues.RequestRepository {
	return &rescueRequestRepo{
		byID: make(map[string]rescues.Request),
	}
}

func (r *rescueRequestRepo) Create(ctx context.Context, x rescues.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x.ID == "" {
		return errors.New("rescue request id required")
	}
	if _, exists := r.byID[x.ID]; exists {
		return errors.New("rescue request already exists")
	}
	r.byID[x.ID] = x
	return nil
}

func (r *rescueRequestRepo) GetByID(ctx context.Context, id string) (rescues.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	x, ok := r.byID[id]
	if !ok {
		return rescues.Request{}, rescues.ErrRequestNotFound
	}
	return x, nil
}

func (r *rescueRequestRepo) Update(ctx context.Context, x rescues.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[x.ID]; !exists {
		return rescues.ErrRequestNotFound
	}
	r.byID[x.ID] = x
	return nil
}

func (r *rescueRequestRepo) List(ctx context.Context, userID string, status rescues.RequestStatus) ([]rescues.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]rescues.Request, 0)
	for _, x := range r.byID {
		if userID != "" && x.UserID != userID {
			continue
		}
		if status != "" && x.Status != status {
			continue
		}
		out = append(out, x)
	}
	// más nuevas primero; en empate por UpdatedAt
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

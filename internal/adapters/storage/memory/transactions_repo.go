package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"pet-adoption-api/internal/domain/transactions"
)

type transactionRepo struct {
	mu   sync.RWMutex
	byID map[string]transactions.Transaction
}

func NewTransactionRepo() transactions.Repository {
	return &transactionRepo{
		byID: make(map[string]transactions.Transaction),
	}
}

func (r *transactionRepo) Create(ctx context.Context, t transactions.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.ID == "" {
		return errors.New("transaction id required")
	}
	if _, exists := r.byID[t.ID]; exists {
		return errors.New("transaction already exists")
	}
	r.byID[t.ID] = t
	return nil
}

func (r *transactionRepo) GetByID(ctx context.Context, id string) (transactions.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byID[id]
	if !ok {
		return transactions.Transaction{}, transactions.ErrNotFound
	}
	return t, nil
}

func (r *transactionRepo) List(ctx context.Context, f transactions.ListFilter) ([]transactions.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]transactions.Transaction, 0)
	for _, t := range r.byID {
		if f.UserID != "" && t.UserID != f.UserID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

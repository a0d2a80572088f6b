package transactions

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("transaction not found")

type Repository interface {
	Create(ctx context.Context, t Transaction) error
	GetByID(ctx context.Context, id string) (Transaction, error)
	// List devuelve más recientes primero.
	List(ctx context.Context, f ListFilter) ([]Transaction, error)
}

type ListFilter struct {
	UserID string
	Status Status
	Limit  int
}

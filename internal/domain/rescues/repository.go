package rescues

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("rescue not found")
	ErrRequestNotFound = errors.New("rescue request not found")
)

type Repository interface {
	Create(ctx context.Context, r Rescue) error
	GetByID(ctx context.Context, id string) (Rescue, error)
	Update(ctx context.Context, r Rescue) error
	Delete(ctx context.Context, id string) error
	// List ordena por nombre.
	List(ctx context.Context) ([]Rescue, error)
}

type RequestRepository interface {
	Create(ctx context.Context, r Request) error
	GetByID(ctx context.Context, id string) (Request, error)
	Update(ctx context.Context, r Request) error
	// List: status vacío = todas; userID vacío = de todos. Más nuevas primero.
	List(ctx context.Context, userID string, status RequestStatus) ([]Request, error)
}

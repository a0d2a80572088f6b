package applications

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("application not found")
	// ErrDuplicate: el usuario ya tiene una solicitud pendiente para esa mascota.
	ErrDuplicate = errors.New("pending application already exists")
)

type ListFilter struct {
	ApplicantID string
	RescueID    string
	PetID       string
	Status      Status
}

type Repository interface {
	Create(ctx context.Context, a Application) error
	GetByID(ctx context.Context, id string) (Application, error)
	Update(ctx context.Context, a Application) error
	// List: filtros vacíos no filtran. Más nuevas primero.
	List(ctx context.Context, f ListFilter) ([]Application, error)
}

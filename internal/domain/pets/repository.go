package pets

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("pet not found")
	ErrVersionConflict = errors.New("pet was modified concurrently")
)

type Repository interface {
	// Create asigna RefNumber y devuelve la mascota persistida.
	Create(ctx context.Context, p Pet) (Pet, error)
	GetByID(ctx context.Context, id string) (Pet, error)
	// Update reemplaza la fila solo si la versión almacenada es expectedVersion.
	Update(ctx context.Context, p Pet, expectedVersion int) error
	Delete(ctx context.Context, id string) error
	// List devuelve la página pedida y el total que cumple el filtro.
	List(ctx context.Context, q Query) ([]Pet, int, error)
}

package users

import (
	"context"
	"errors"

	"pet-adoption-api/internal/ports/auth"
)

var (
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate: username o email ya registrados.
	ErrDuplicate = errors.New("username or email already registered")
)

type Repository interface {
	Create(ctx context.Context, u User) error
	GetByID(ctx context.Context, id string) (User, error)
	// GetByLogin busca por email o por username (sin distinguir mayúsculas).
	GetByLogin(ctx context.Context, login string) (User, error)
	Update(ctx context.Context, u User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f ListFilter) ([]User, error)

	SaveReset(ctx context.Context, r PasswordReset) error
	GetReset(ctx context.Context, tokenHash string) (PasswordReset, error)
	MarkResetUsed(ctx context.Context, tokenHash string) error
}

type ListFilter struct {
	Role     auth.Role
	RescueID string
	Query    string // username o email
	Limit    int
	Offset   int
}

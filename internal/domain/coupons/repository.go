package coupons

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("coupon not found")
	ErrDuplicate = errors.New("coupon code already exists")
	// ErrExhausted lo devuelve IncrementUsage cuando el tope ya se alcanzó
	// (dos compras concurrentes con el último uso disponible).
	ErrExhausted = errors.New("coupon usage limit reached")
)

type Repository interface {
	Create(ctx context.Context, c Coupon) error
	GetByCode(ctx context.Context, code string) (Coupon, error)
	Update(ctx context.Context, c Coupon) error
	Delete(ctx context.Context, code string) error
	List(ctx context.Context) ([]Coupon, error)

	// IncrementUsage suma un uso de forma atómica respetando MaxUses.
	IncrementUsage(ctx context.Context, code string, now time.Time) error
}

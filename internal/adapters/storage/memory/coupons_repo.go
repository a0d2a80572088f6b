package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"pet-adoption-api/internal/domain/coupons"
)

type couponRepo struct {
	mu     sync.RWMutex
	byCode map[string]coupons.Coupon
}

func NewCouponRepo() coupons.Repository {
	return &couponRepo{
		byCode: make(map[string]coupons.Coupon),
	}
}

func (r *couponRepo) Create(ctx context.Context, c coupons.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byCode[c.Code]; exists {
		return coupons.ErrDuplicate
	}
	r.byCode[c.Code] = c
	return nil
}

func (r *couponRepo) GetByCode(ctx context.Context, code string) (coupons.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byCode[code]
	if !ok {
		return coupons.Coupon{}, coupons.ErrNotFound
	}
	return c, nil
}

func (r *couponRepo) Update(ctx context.Context, c coupons.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byCode[c.Code]
	if !ok {
		return coupons.ErrNotFound
	}
	// los usos solo los mueve IncrementUsage
	c.TimesUsed = current.TimesUsed
	r.byCode[c.Code] = c
	return nil
}

func (r *couponRepo) Delete(ctx context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byCode[code]; !ok {
		return coupons.ErrNotFound
	}
	delete(r.byCode, code)
	return nil
}

func (r *couponRepo) List(ctx context.Context) ([]coupons.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]coupons.Coupon, 0, len(r.byCode))
	for _, c := range r.byCode {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// IncrementUsage chequea el tope y suma bajo el mismo lock.
func (r *couponRepo) IncrementUsage(ctx context.Context, code string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byCode[code]
	if !ok {
		return coupons.ErrNotFound
	}
	if c.MaxUses != nil && c.TimesUsed >= *c.MaxUses {
		return coupons.ErrExhausted
	}
	c.TimesUsed++
	c.UpdatedAt = now
	r.byCode[code] = c
	return nil
}

package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pet-adoption-api/internal/domain/coupons"
)

func TestCouponRepo_IncrementUsageRespectsCapUnderContention(t *testing.T) {
	repo := NewCouponRepo()
	ctx := context.Background()
	maxUses := 5
	require.NoError(t, repo.Create(ctx, coupons.Coupon{
		Code: "FIVE", DiscountType: coupons.DiscountPercentage, Value: 100,
		AppliesTo: coupons.AppliesToPromotion, MaxUses: &maxUses, Active: true,
	}))

	var ok, exhausted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.IncrementUsage(ctx, "FIVE", time.Now())
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, coupons.ErrExhausted):
				exhausted.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), ok.Load())
	assert.Equal(t, int32(15), exhausted.Load())

	c, err := repo.GetByCode(ctx, "FIVE")
	require.NoError(t, err)
	assert.Equal(t, 5, c.TimesUsed)
}

func TestCouponRepo_CRUD(t *testing.T) {
	repo := NewCouponRepo()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, coupons.Coupon{Code: "B"}))
	require.NoError(t, repo.Create(ctx, coupons.Coupon{Code: "A"}))
	assert.ErrorIs(t, repo.Create(ctx, coupons.Coupon{Code: "A"}), coupons.ErrDuplicate)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].Code)

	assert.ErrorIs(t, repo.Update(ctx, coupons.Coupon{Code: "Z"}), coupons.ErrNotFound)
	assert.ErrorIs(t, repo.IncrementUsage(ctx, "Z", time.Now()), coupons.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "A"))
	_, err = repo.GetByCode(ctx, "A")
	assert.ErrorIs(t, err, coupons.ErrNotFound)
}

func TestCouponRepo_UpdateKeepsUsageCount(t *testing.T) {
	repo := NewCouponRepo()
	ctx := context.Background()
	maxUses := 2
	require.NoError(t, repo.Create(ctx, coupons.Coupon{Code: "TWO", MaxUses: &maxUses, Active: true}))

	stale, err := repo.GetByCode(ctx, "TWO")
	require.NoError(t, err)

	// un canje entre la lectura y el update no se pierde
	require.NoError(t, repo.IncrementUsage(ctx, "TWO", time.Now()))
	stale.Active = false
	require.NoError(t, repo.Update(ctx, stale))

	got, err := repo.GetByCode(ctx, "TWO")
	require.NoError(t, err)
	assert.Equal(t, 1, got.TimesUsed)
	assert.False(t, got.Active)
}

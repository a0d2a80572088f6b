package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pet-adoption-api/internal/platform/validation"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byCode map[string]Coupon
}

func newTestRepo() *testRepo {
	return &testRepo{byCode: map[string]Coupon{}}
}

func (r *testRepo) Create(ctx context.Context, c Coupon) error {
	if _, ok := r.byCode[c.Code]; ok {
		return ErrDuplicate
	}
	r.byCode[c.Code] = c
	return nil
}

func (r *testRepo) GetByCode(ctx context.Context, code string) (Coupon, error) {
	c, ok := r.byCode[code]
	if !ok {
		return Coupon{}, ErrNotFound
	}
	return c, nil
}

func (r *testRepo) Update(ctx context.Context, c Coupon) error {
	if _, ok := r.byCode[c.Code]; !ok {
		return ErrNotFound
	}
	r.byCode[c.Code] = c
	return nil
}

func (r *testRepo) Delete(ctx context.Context, code string) error {
	if _, ok := r.byCode[code]; !ok {
		return ErrNotFound
	}
	delete(r.byCode, code)
	return nil
}

func (r *testRepo) List(ctx context.Context) ([]Coupon, error) {
	out := make([]Coupon, 0, len(r.byCode))
	for _, c := range r.byCode {
		out = append(out, c)
	}
	return out, nil
}

func (r *testRepo) IncrementUsage(ctx context.Context, code string, now time.Time) error {
	c, ok := r.byCode[code]
	if !ok {
		return ErrNotFound
	}
	if c.MaxUses != nil && c.TimesUsed >= *c.MaxUses {
		return ErrExhausted
	}
	c.TimesUsed++
	c.UpdatedAt = now
	r.byCode[code] = c
	return nil
}

func newTestService() (*Service, *testRepo) {
	repo := newTestRepo()
	svc := NewService(repo)
	svc.now = func() time.Time { return evalNow }
	return svc, repo
}

func TestService_CreateNormalizesCode(t *testing.T) {
	svc, repo := newTestService()

	c, err := svc.Create(context.Background(), CreateInput{
		Code:         "  spring10 ",
		DiscountType: "percentage",
		Value:        10,
		AppliesTo:    "promotion",
	})
	require.NoError(t, err)
	assert.Equal(t, "SPRING10", c.Code)
	assert.True(t, c.Active)

	_, ok := repo.byCode["SPRING10"]
	assert.True(t, ok)

	_, err = svc.Create(context.Background(), CreateInput{
		Code: "spring10", DiscountType: "percentage", Value: 5, AppliesTo: "promotion",
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestService_CreateValidation(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateInput{
		Code:         "",
		DiscountType: "bogus",
		Value:        0,
		AppliesTo:    "everything",
		MaxUses:      intPtr(0),
	})
	fields, ok := validation.Fields(err)
	require.True(t, ok)
	assert.Contains(t, fields, "code")
	assert.Contains(t, fields, "discount_type")
	assert.Contains(t, fields, "applies_to")
	assert.Contains(t, fields, "max_uses")

	_, err = svc.Create(context.Background(), CreateInput{
		Code: "BIG", DiscountType: "percentage", Value: 120, AppliesTo: "promotion",
	})
	fields, ok = validation.Fields(err)
	require.True(t, ok)
	assert.Contains(t, fields, "value")
}

func TestService_EvaluateLooksUpCaseInsensitive(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), CreateInput{
		Code: "FREEPROMO", DiscountType: "percentage", Value: 100, AppliesTo: "promotion",
	})
	require.NoError(t, err)

	ev, err := svc.Evaluate(context.Background(), "freepromo", AppliesToPromotion, 500)
	require.NoError(t, err)
	assert.True(t, ev.Valid)
	assert.True(t, ev.Free)

	ev, err = svc.Evaluate(context.Background(), "nope", AppliesToPromotion, 500)
	require.NoError(t, err)
	assert.False(t, ev.Valid)
	assert.Equal(t, ReasonNotFound, ev.Reason)
}

func TestService_RedeemStopsAtMaxUses(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), CreateInput{
		Code: "ONCE", DiscountType: "fixed_amount", Value: 1, AppliesTo: "promotion", MaxUses: intPtr(1),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Redeem(context.Background(), "once"))
	assert.ErrorIs(t, svc.Redeem(context.Background(), "ONCE"), ErrExhausted)

	ev, err := svc.Evaluate(context.Background(), "ONCE", AppliesToPromotion, 500)
	require.NoError(t, err)
	assert.Equal(t, ReasonExhausted, ev.Reason)
}

func TestService_UpdateClearsLimits(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), CreateInput{
		Code: "LIMITED", DiscountType: "percentage", Value: 10, AppliesTo: "rescue_fee",
		MaxUses: intPtr(1), ExpiresAt: timePtr(evalNow.Add(time.Hour)),
	})
	require.NoError(t, err)

	inactive := false
	c, err := svc.Update(context.Background(), "limited", UpdateInput{
		ClearMaxUses: true,
		ClearExpiry:  true,
		Active:       &inactive,
	})
	require.NoError(t, err)
	assert.Nil(t, c.MaxUses)
	assert.Nil(t, c.ExpiresAt)
	assert.False(t, c.Active)

	_, err = svc.Update(context.Background(), "missing", UpdateInput{})
	assert.ErrorIs(t, err, ErrNotFound)
}

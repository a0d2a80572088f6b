package coupons

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var evalNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func promo(dt DiscountType, v float64) *Coupon {
	return &Coupon{Code: "X", DiscountType: dt, Value: v, AppliesTo: AppliesToPromotion, Active: true}
}

func TestEvaluate_PercentageHundredIsFree(t *testing.T) {
	ev := Evaluate(promo(DiscountPercentage, 100), AppliesToPromotion, 500, evalNow)

	assert.True(t, ev.Valid)
	assert.Equal(t, int64(0), ev.FinalFeeCents)
	assert.Equal(t, int64(500), ev.DiscountCents)
	assert.True(t, ev.Free)
}

func TestEvaluate_Discounts(t *testing.T) {
	cases := []struct {
		name  string
		c     *Coupon
		base  int64
		final int64
	}{
		{"percentage 20", promo(DiscountPercentage, 20), 500, 400},
		{"percentage rounds to cents", promo(DiscountPercentage, 33), 500, 335},
		{"fixed 2 units", promo(DiscountFixedAmount, 2), 500, 300},
		{"fixed larger than base floors at 0", promo(DiscountFixedAmount, 50), 500, 0},
		{"percentage over 100 floors at 0", promo(DiscountPercentage, 150), 500, 0},
		{"negative percentage never raises the fee", promo(DiscountPercentage, -10), 500, 500},
		{"negative fixed never raises the fee", promo(DiscountFixedAmount, -1), 500, 500},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev := Evaluate(tc.c, AppliesToPromotion, tc.base, evalNow)
			assert.True(t, ev.Valid)
			assert.Equal(t, tc.final, ev.FinalFeeCents)
			assert.GreaterOrEqual(t, ev.FinalFeeCents, int64(0))
			assert.LessOrEqual(t, ev.FinalFeeCents, tc.base)
			assert.Equal(t, tc.final == 0, ev.Free)
		})
	}
}

func TestEvaluate_ValidityOrder(t *testing.T) {
	expired := promo(DiscountPercentage, 10)
	expired.ExpiresAt = timePtr(evalNow.Add(-time.Hour))

	exhausted := promo(DiscountPercentage, 10)
	exhausted.MaxUses = intPtr(3)
	exhausted.TimesUsed = 3

	// Inactivo y vencido: gana inactivo por el orden de validación.
	inactiveAndExpired := promo(DiscountPercentage, 10)
	inactiveAndExpired.Active = false
	inactiveAndExpired.ExpiresAt = timePtr(evalNow.Add(-time.Hour))

	// Vencido y agotado: gana vencido.
	expiredAndExhausted := promo(DiscountPercentage, 10)
	expiredAndExhausted.ExpiresAt = timePtr(evalNow)
	expiredAndExhausted.MaxUses = intPtr(1)
	expiredAndExhausted.TimesUsed = 1

	wrongCtx := promo(DiscountPercentage, 10)
	wrongCtx.AppliesTo = AppliesToRescueFee

	cases := []struct {
		name   string
		c      *Coupon
		reason Reason
	}{
		{"missing", nil, ReasonNotFound},
		{"expired", expired, ReasonExpired},
		{"exhausted", exhausted, ReasonExhausted},
		{"inactive before expired", inactiveAndExpired, ReasonInactive},
		{"expiry at now is expired", expiredAndExhausted, ReasonExpired},
		{"wrong context", wrongCtx, ReasonWrongContext},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev := Evaluate(tc.c, AppliesToPromotion, 500, evalNow)
			assert.False(t, ev.Valid)
			assert.Equal(t, tc.reason, ev.Reason)
			assert.NotEmpty(t, ev.Message)
			assert.Equal(t, int64(500), ev.FinalFeeCents)
			assert.Zero(t, ev.DiscountCents)
			assert.False(t, ev.Free)
		})
	}
}

func TestEvaluate_UnderCapAndFutureExpiryIsValid(t *testing.T) {
	c := promo(DiscountFixedAmount, 1)
	c.MaxUses = intPtr(2)
	c.TimesUsed = 1
	c.ExpiresAt = timePtr(evalNow.Add(24 * time.Hour))

	ev := Evaluate(c, AppliesToPromotion, 500, evalNow)
	assert.True(t, ev.Valid)
	assert.Equal(t, int64(400), ev.FinalFeeCents)
}

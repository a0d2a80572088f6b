package coupons

import (
	"math"
	"time"
)

// Reason identifica por qué un cupón no es válido (también es la etiqueta de métricas).
type Reason string

const (
	ReasonOK           Reason = "valid"
	ReasonNotFound     Reason = "not_found"
	ReasonInactive     Reason = "inactive"
	ReasonExpired      Reason = "expired"
	ReasonExhausted    Reason = "exhausted"
	ReasonWrongContext Reason = "wrong_context"
)

// Evaluation es el resultado de aplicar un cupón a un monto base.
// Si Valid es false, FinalFeeCents es el monto base sin descuento.
type Evaluation struct {
	Valid         bool   `json:"valid"`
	Reason        Reason `json:"reason"`
	Message       string `json:"message"`
	BaseFeeCents  int64  `json:"base_fee_cents"`
	DiscountCents int64  `json:"discount_cents"`
	FinalFeeCents int64  `json:"final_fee_cents"`
	// Free: no hay nada que cobrar (no se piden datos de tarjeta ni se llama al gateway).
	Free bool `json:"free"`
}

// Evaluate valida c para el contexto dado y calcula el monto final.
// El orden de las validaciones es fijo: existe, activo, vencimiento, usos, contexto.
// c == nil significa que el código no existe.
func Evaluate(c *Coupon, ctx AppliesTo, baseFeeCents int64, now time.Time) Evaluation {
	if baseFeeCents < 0 {
		baseFeeCents = 0
	}

	reject := func(reason Reason, msg string) Evaluation {
		return Evaluation{
			Valid:         false,
			Reason:        reason,
			Message:       msg,
			BaseFeeCents:  baseFeeCents,
			FinalFeeCents: baseFeeCents,
			Free:          baseFeeCents == 0,
		}
	}

	switch {
	case c == nil:
		return reject(ReasonNotFound, "coupon code not found")
	case !c.Active:
		return reject(ReasonInactive, "coupon is not active")
	case c.ExpiresAt != nil && !c.ExpiresAt.After(now):
		return reject(ReasonExpired, "coupon has expired")
	case c.MaxUses != nil && c.TimesUsed >= *c.MaxUses:
		return reject(ReasonExhausted, "coupon has reached its usage limit")
	case c.AppliesTo != ctx:
		return reject(ReasonWrongContext, "coupon does not apply to "+string(ctx))
	}

	final := applyDiscount(c.DiscountType, c.Value, baseFeeCents)
	return Evaluation{
		Valid:         true,
		Reason:        ReasonOK,
		Message:       "coupon applied",
		BaseFeeCents:  baseFeeCents,
		DiscountCents: baseFeeCents - final,
		FinalFeeCents: final,
		Free:          final == 0,
	}
}

// applyDiscount devuelve el monto final acotado a [0, base].
func applyDiscount(t DiscountType, value float64, base int64) int64 {
	var final int64
	switch t {
	case DiscountPercentage:
		final = int64(math.Round(float64(base) * (1 - value/100)))
	case DiscountFixedAmount:
		final = base - int64(math.Round(value*100))
	default:
		final = base
	}

	if final < 0 {
		return 0
	}
	if final > base {
		return base
	}
	return final
}

package coupons

import (
	"strings"
	"time"
)

// DiscountType define cómo se aplica el descuento.
// @Enum percentage, fixed_amount
type DiscountType string

const (
	DiscountPercentage  DiscountType = "percentage"
	DiscountFixedAmount DiscountType = "fixed_amount"
)

func ParseDiscountType(s string) (DiscountType, bool) {
	switch DiscountType(strings.ToLower(strings.TrimSpace(s))) {
	case DiscountPercentage:
		return DiscountPercentage, true
	case DiscountFixedAmount:
		return DiscountFixedAmount, true
	default:
		return "", false
	}
}

// AppliesTo es el contexto de cobro en el que el cupón es válido.
// @Enum rescue_fee, promotion
type AppliesTo string

const (
	AppliesToRescueFee AppliesTo = "rescue_fee"
	AppliesToPromotion AppliesTo = "promotion"
)

func ParseAppliesTo(s string) (AppliesTo, bool) {
	switch AppliesTo(strings.ToLower(strings.TrimSpace(s))) {
	case AppliesToRescueFee:
		return AppliesToRescueFee, true
	case AppliesToPromotion:
		return AppliesToPromotion, true
	default:
		return "", false
	}
}

type Coupon struct {
	Code         string // único, siempre en mayúsculas
	DiscountType DiscountType
	// Value: porcentaje (0-100) o monto fijo en unidades de moneda.
	Value     float64
	AppliesTo AppliesTo

	MaxUses   *int // nil = sin tope
	TimesUsed int
	ExpiresAt *time.Time // nil = no vence
	Active    bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeCode: los códigos se comparan sin importar mayúsculas ni espacios.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

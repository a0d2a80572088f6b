package transactions

import (
	"strings"
	"time"
)

// @Enum success, pending, failure, error
type Status string

const (
	StatusSuccess Status = "success"
	StatusPending Status = "pending"
	StatusFailure Status = "failure"
	StatusError   Status = "error"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusSuccess:
		return StatusSuccess, true
	case StatusPending:
		return StatusPending, true
	case StatusFailure:
		return StatusFailure, true
	case StatusError:
		return StatusError, true
	default:
		return "", false
	}
}

// @Enum sale, refund, fee
type Kind string

const (
	KindSale   Kind = "sale"
	KindRefund Kind = "refund"
	KindFee    Kind = "fee"
)

// GatewayNone es el gateway de las transacciones gratuitas (monto final 0).
const GatewayNone = "none"

// Transaction registra un cobro. Details nunca guarda el número de tarjeta:
// solo últimos 4 dígitos, marca y datos del cupón.
type Transaction struct {
	ID string

	AmountCents int64
	Currency    string
	Status      Status
	Kind        Kind

	Gateway      string
	GatewayTxnID string
	Details      map[string]any

	UserID     string
	PetID      string
	CouponCode string

	CreatedAt time.Time
}

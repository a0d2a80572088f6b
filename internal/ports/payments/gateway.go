package payments

import (
	"context"
	"errors"
)

var (
	ErrDeclined = errors.New("payment declined")
	ErrUpstream = errors.New("payment gateway error")
)

// Card son los datos de tarjeta tal como llegan del formulario.
// Nunca se persisten; solo Last4/Brand van a los detalles de la transacción.
type Card struct {
	Number      string
	ExpiryMonth int
	ExpiryYear  int
	CVC         string
	HolderName  string
}

func (c Card) Last4() string {
	n := len(c.Number)
	if n < 4 {
		return c.Number
	}
	return c.Number[n-4:]
}

type ChargeRequest struct {
	AmountCents int64
	Currency    string
	Card        Card
	Description string
	// IdempotencyKey evita cobros duplicados si el cliente reintenta.
	IdempotencyKey string
}

type ChargeResult struct {
	Gateway       string
	TransactionID string
	Brand         string
}

// Gateway cobra contra un procesador de pagos.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

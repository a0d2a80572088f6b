package sandbox

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	adapters "pet-adoption-api/internal/adapters/payments"
	"pet-adoption-api/internal/ports/payments"
)

const Name = "sandbox"

// Tarjetas de prueba con resultado fijo; cualquier otra se aprueba.
const (
	DeclineCard = "4000000000000002"
	ErrorCard   = "4000000000000119"
)

// Gateway simula un procesador en memoria. Reintentos con la misma
// IdempotencyKey devuelven el mismo resultado sin volver a cobrar.
type Gateway struct {
	mu   sync.Mutex
	seen map[string]ChargeRecord
}

type ChargeRecord struct {
	Result payments.ChargeResult
	Amount int64
	Err    error
}

func New() *Gateway {
	return &Gateway{seen: make(map[string]ChargeRecord)}
}

func (g *Gateway) Charge(ctx context.Context, req payments.ChargeRequest) (payments.ChargeResult, error) {
	res := payments.ChargeResult{Gateway: Name, Brand: adapters.Brand(req.Card.Number)}
	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("%w: %v", payments.ErrUpstream, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	key := strings.TrimSpace(req.IdempotencyKey)
	if key != "" {
		if prev, ok := g.seen[key]; ok {
			return prev.Result, prev.Err
		}
	}

	var err error
	switch {
	case req.AmountCents <= 0:
		err = fmt.Errorf("%w: amount must be positive", payments.ErrUpstream)
	case req.Card.Number == DeclineCard:
		err = fmt.Errorf("%w: card_declined", payments.ErrDeclined)
	case req.Card.Number == ErrorCard:
		err = fmt.Errorf("%w: processing_error", payments.ErrUpstream)
	default:
		res.TransactionID = "sbx_" + uuid.NewString()
	}

	if key != "" {
		g.seen[key] = ChargeRecord{Result: res, Amount: req.AmountCents, Err: err}
	}
	return res, err
}

// Charges devuelve los cobros registrados por clave (tests).
func (g *Gateway) Charges() map[string]ChargeRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]ChargeRecord, len(g.seen))
	for k, v := range g.seen {
		out[k] = v
	}
	return out
}

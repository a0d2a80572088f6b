package sandbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pet-adoption-api/internal/ports/payments"
)

func charge(number, key string) payments.ChargeRequest {
	return payments.ChargeRequest{
		AmountCents:    450,
		Currency:       "USD",
		Card:           payments.Card{Number: number, ExpiryMonth: 12, ExpiryYear: 2030, CVC: "123"},
		IdempotencyKey: key,
	}
}

func TestCharge_Outcomes(t *testing.T) {
	cases := []struct {
		name    string
		number  string
		wantErr error
		brand   string
	}{
		{"approved visa", "4242424242424242", nil, "visa"},
		{"approved mastercard", "5555555555554444", nil, "mastercard"},
		{"declined", DeclineCard, payments.ErrDeclined, "visa"},
		{"processing error", ErrorCard, payments.ErrUpstream, "visa"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := New().Charge(context.Background(), charge(tc.number, ""))
			assert.Equal(t, Name, res.Gateway)
			assert.Equal(t, tc.brand, res.Brand)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Empty(t, res.TransactionID)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, res.TransactionID, "sbx_")
		})
	}
}

func TestCharge_IdempotencyKeyReplaysResult(t *testing.T) {
	gw := New()
	ctx := context.Background()

	first, err := gw.Charge(ctx, charge("4242424242424242", "k-1"))
	require.NoError(t, err)
	second, err := gw.Charge(ctx, charge("4242424242424242", "k-1"))
	require.NoError(t, err)

	assert.Equal(t, first.TransactionID, second.TransactionID)
	assert.Len(t, gw.Charges(), 1)
}

func TestCharge_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := New().Charge(ctx, charge("4242424242424242", ""))
	assert.ErrorIs(t, err, payments.ErrUpstream)
	assert.Equal(t, Name, res.Gateway)
}

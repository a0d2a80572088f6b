package httpgateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pet-adoption-api/internal/ports/payments"
)

func testRequest() payments.ChargeRequest {
	return payments.ChargeRequest{
		AmountCents:    450,
		Currency:       "USD",
		Description:    "Pet promotion p-1",
		Card:           payments.Card{Number: "4242424242424242", ExpiryMonth: 12, ExpiryYear: 2030, CVC: "123"},
		IdempotencyKey: "idem-1",
	}
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(Config{BaseURL: "http://x"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCharge_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/charges", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "idem-1", r.Header.Get("Idempotency-Key"))

		var body chargeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(450), body.Amount)
		assert.Equal(t, "usd", body.Currency)
		assert.Equal(t, 12, body.Card.ExpMonth)

		_ = json.NewEncoder(w).Encode(chargeResponse{ID: "ch_1", Status: "succeeded", Brand: "visa"})
	}))
	defer srv.Close()

	gw, err := New(Config{BaseURL: srv.URL, APIKey: "secret"})
	require.NoError(t, err)

	res, err := gw.Charge(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, payments.ChargeResult{Gateway: Name, TransactionID: "ch_1", Brand: "visa"}, res)
}

func TestCharge_Failures(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"402 is a decline", http.StatusPaymentRequired, `{"error":"insufficient_funds"}`, payments.ErrDeclined},
		{"declined status", http.StatusOK, `{"id":"ch_2","status":"declined","decline_reason":"do_not_honor"}`, payments.ErrDeclined},
		{"5xx", http.StatusBadGateway, `oops`, payments.ErrUpstream},
		{"unknown status", http.StatusOK, `{"id":"ch_3","status":"pending"}`, payments.ErrUpstream},
		{"broken json", http.StatusOK, `{`, payments.ErrUpstream},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			gw, err := New(Config{BaseURL: srv.URL, APIKey: "secret"})
			require.NoError(t, err)

			res, err := gw.Charge(context.Background(), testRequest())
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, Name, res.Gateway)
		})
	}
}

package httpgateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	adapters "pet-adoption-api/internal/adapters/payments"
	"pet-adoption-api/internal/platform/httpclient"
	"pet-adoption-api/internal/ports/payments"
)

const Name = "http"

var ErrNotConfigured = errors.New("payment gateway client not configured")

type Config struct {
	BaseURL string
	APIKey  string

	// Opcional: nombre del header donde se manda la API key.
	// Si está vacío, se usa "X-Api-Key".
	APIKeyHeader string
	Timeout      time.Duration
}

// Gateway cobra contra un procesador externo por HTTP/JSON.
type Gateway struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
}

func New(cfg Config) (*Gateway, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	c, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), cfg.Timeout)
	if err != nil {
		return nil, err
	}
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}
	return &Gateway{http: c, apiKey: strings.TrimSpace(cfg.APIKey), apiKeyHeader: h}, nil
}

type chargeRequest struct {
	Amount      int64      `json:"amount"`
	Currency    string     `json:"currency"`
	Description string     `json:"description,omitempty"`
	Card        chargeCard `json:"card"`
}

type chargeCard struct {
	Number   string `json:"number"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
	CVC      string `json:"cvc"`
	Name     string `json:"name,omitempty"`
}

type chargeResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	Brand         string `json:"brand"`
	DeclineReason string `json:"decline_reason"`
}

// Charge siempre devuelve Gateway (y Brand) aunque falle, para que el
// ledger registre el intento.
func (g *Gateway) Charge(ctx context.Context, req payments.ChargeRequest) (payments.ChargeResult, error) {
	res := payments.ChargeResult{Gateway: Name, Brand: adapters.Brand(req.Card.Number)}

	headers := map[string]string{g.apiKeyHeader: g.apiKey}
	if req.IdempotencyKey != "" {
		headers["Idempotency-Key"] = req.IdempotencyKey
	}

	var out chargeResponse
	err := g.http.DoJSON(ctx, http.MethodPost, "/v1/charges", headers, chargeRequest{
		Amount:      req.AmountCents,
		Currency:    strings.ToLower(req.Currency),
		Description: req.Description,
		Card: chargeCard{
			Number:   req.Card.Number,
			ExpMonth: req.Card.ExpiryMonth,
			ExpYear:  req.Card.ExpiryYear,
			CVC:      req.Card.CVC,
			Name:     req.Card.HolderName,
		},
	}, &out)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusPaymentRequired {
			return res, fmt.Errorf("%w: %s", payments.ErrDeclined, httpErr.Body)
		}
		return res, fmt.Errorf("%w: %v", payments.ErrUpstream, err)
	}

	if out.Brand != "" {
		res.Brand = out.Brand
	}
	res.TransactionID = out.ID

	switch strings.ToLower(out.Status) {
	case "succeeded", "success", "paid":
		if out.ID == "" {
			return res, fmt.Errorf("%w: response missing id", payments.ErrUpstream)
		}
		return res, nil
	case "declined", "failed":
		return res, fmt.Errorf("%w: %s", payments.ErrDeclined, out.DeclineReason)
	default:
		return res, fmt.Errorf("%w: unexpected status %q", payments.ErrUpstream, out.Status)
	}
}

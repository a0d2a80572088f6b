package transactions

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"pet-adoption-api/internal/middleware"
	"pet-adoption-api/internal/platform/web"
)

// RegisterRoutes: /transactions propias del usuario autenticado.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.With(middleware.RequireAuth).Get("/transactions", listMyTransactionsHandler(svc))
}

// RegisterAdminRoutes: /transactions dentro de /admin.
func RegisterAdminRoutes(r chi.Router, svc *Service) {
	r.Get("/transactions", listAllTransactionsHandler(svc))
}

type transactionResponse struct {
	ID           string         `json:"id"`
	AmountCents  int64          `json:"amount_cents"`
	Currency     string         `json:"currency"`
	Status       Status         `json:"status"`
	Kind         Kind           `json:"kind"`
	Gateway      string         `json:"gateway"`
	GatewayTxnID string         `json:"gateway_transaction_id,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	UserID       string         `json:"user_id"`
	PetID        string         `json:"pet_id,omitempty"`
	CouponCode   string         `json:"coupon_code,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// listMyTransactionsHandler godoc
// @Summary Mis transacciones
// @Tags transactions
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param limit query int false "1-200"
// @Success 200 {array} transactionResponse
// @Failure 401 {object} web.ErrorBody
// @Router /transactions [get]
func listMyTransactionsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())

		limit, err := web.QueryInt(r, "limit", DefaultLimit)
		if err != nil {
			web.Error(w, http.StatusBadRequest, "limit must be an integer")
			return
		}

		items, err := svc.ListForUser(r.Context(), claims.UserID, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, toResponses(items))
	}
}

// listAllTransactionsHandler godoc
// @Summary Listar transacciones (admin)
// @Tags admin
// @Produce json
// @Param status query string false "success | pending | failure | error"
// @Param user_id query string false "Filtra por usuario"
// @Param limit query int false "1-200"
// @Success 200 {array} transactionResponse
// @Failure 400 {object} web.ErrorBody
// @Router /admin/transactions [get]
func listAllTransactionsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := web.QueryInt(r, "limit", DefaultLimit)
		if err != nil {
			web.Error(w, http.StatusBadRequest, "limit must be an integer")
			return
		}

		f := ListFilter{
			UserID: strings.TrimSpace(r.URL.Query().Get("user_id")),
			Limit:  limit,
		}
		if raw := r.URL.Query().Get("status"); strings.TrimSpace(raw) != "" {
			st, ok := ParseStatus(raw)
			if !ok {
				web.FieldErrors(w, http.StatusBadRequest, "validation failed", map[string]string{
					"status": "must be one of success, pending, failure, error",
				})
				return
			}
			f.Status = st
		}

		items, err := svc.List(r.Context(), f)
		if err != nil {
			writeError(w, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, toResponses(items))
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		web.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		web.Error(w, http.StatusNotFound, err.Error())
	default:
		web.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func toResponses(items []Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(items))
	for _, t := range items {
		out = append(out, transactionResponse{
			ID:           t.ID,
			AmountCents:  t.AmountCents,
			Currency:     t.Currency,
			Status:       t.Status,
			Kind:         t.Kind,
			Gateway:      t.Gateway,
			GatewayTxnID: t.GatewayTxnID,
			Details:      t.Details,
			UserID:       t.UserID,
			PetID:        t.PetID,
			CouponCode:   t.CouponCode,
			CreatedAt:    t.CreatedAt,
		})
	}
	return out
}

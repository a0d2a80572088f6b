package promotions

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pet-adoption-api/internal/domain/auditlog"
	"pet-adoption-api/internal/domain/coupons"
	"pet-adoption-api/internal/domain/pets"
	"pet-adoption-api/internal/middleware"
	"pet-adoption-api/internal/platform/validation"
	"pet-adoption-api/internal/platform/web"
	"pet-adoption-api/internal/ports/auth"
	"pet-adoption-api/internal/ports/payments"
)

func RegisterRoutes(r chi.Router, svc *Service, audit *auditlog.Service) {
	r.Route("/promotions", func(pr chi.Router) {
		pr.Post("/validate-coupon", validateCouponHandler(svc))
		pr.With(middleware.RequireRole(auth.RoleRescue, auth.RoleAdmin)).
			Post("/pets/{petID}", purchaseHandler(svc, audit))
	})
}

type validateCouponRequest struct {
	Code         string `json:"code"`
	AppliesTo    string `json:"applies_to" enums:"promotion,rescue_fee"` // default promotion
	BaseFeeCents *int64 `json:"base_fee_cents"`                          // solo rescue_fee
}

type cardRequest struct {
	Number      string `json:"number"`
	ExpiryMonth int    `json:"expiry_month"`
	ExpiryYear  int    `json:"expiry_year"`
	CVC         string `json:"cvc"`
	HolderName  string `json:"holder_name"`
}

type purchaseRequest struct {
	CouponCode string       `json:"coupon_code"`
	Card       *cardRequest `json:"card"`
}

type purchaseResponse struct {
	PetID         string             `json:"pet_id"`
	PromotedUntil string             `json:"promoted_until"`
	TransactionID string             `json:"transaction_id"`
	AmountCents   int64              `json:"amount_cents"`
	Currency      string             `json:"currency"`
	Free          bool               `json:"free"`
	Coupon        coupons.Evaluation `json:"coupon"`
}

// validateCouponHandler godoc
// @Summary Validar cupón
// @Description Nunca falla por un cupón inválido: responde 200 con valid=false y el motivo.
// @Tags promotions
// @Accept json
// @Produce json
// @Param payload body validateCouponRequest true "Código"
// @Success 200 {object} coupons.Evaluation
// @Failure 400 {object} web.ErrorBody
// @Router /promotions/validate-coupon [post]
func validateCouponHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req validateCouponRequest
		if err := web.DecodeJSON(r, &req); err != nil {
			web.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		appliesTo := coupons.AppliesToPromotion
		if req.AppliesTo != "" {
			at, ok := coupons.ParseAppliesTo(req.AppliesTo)
			if !ok {
				web.FieldErrors(w, http.StatusBadRequest, "validation failed", map[string]string{
					"applies_to": "must be rescue_fee or promotion",
				})
				return
			}
			appliesTo = at
		}
		if appliesTo == coupons.AppliesToRescueFee && req.BaseFeeCents == nil {
			web.FieldErrors(w, http.StatusBadRequest, "validation failed", map[string]string{
				"base_fee_cents": "is required for rescue_fee",
			})
			return
		}

		ev, err := svc.ValidateCoupon(r.Context(), req.Code, appliesTo, req.BaseFeeCents)
		if err != nil {
			writeError(w, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, ev)
	}
}

// purchaseHandler godoc
// @Summary Destacar mascota
// @Description Cobra la promoción (monto base configurable, por defecto 5.00). Con monto final 0 no se piden datos de tarjeta.
// @Tags promotions
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param petID path string true "ID de la mascota"
// @Param payload body purchaseRequest true "Cupón y tarjeta"
// @Success 201 {object} purchaseResponse
// @Failure 400 {object} web.ErrorBody
// @Failure 402 {object} web.ErrorBody
// @Failure 403 {object} web.ErrorBody
// @Failure 404 {object} web.ErrorBody
// @Failure 409 {object} web.ErrorBody
// @Failure 422 {object} coupons.Evaluation
// @Router /promotions/pets/{petID} [post]
func purchaseHandler(svc *Service, audit *auditlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := middleware.GetClaims(r.Context())

		var req purchaseRequest
		if err := web.DecodeJSON(r, &req); err != nil {
			web.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		in := PurchaseInput{
			PetID:      chi.URLParam(r, "petID"),
			CouponCode: req.CouponCode,
		}
		if req.Card != nil {
			in.Card = &payments.Card{
				Number:      req.Card.Number,
				ExpiryMonth: req.Card.ExpiryMonth,
				ExpiryYear:  req.Card.ExpiryYear,
				CVC:         req.Card.CVC,
				HolderName:  req.Card.HolderName,
			}
		}

		receipt, err := svc.Purchase(r.Context(), viewer, in)
		if err != nil {
			if errors.Is(err, ErrCouponInvalid) {
				web.WriteJSON(w, http.StatusUnprocessableEntity, receipt.Evaluation)
				return
			}
			writeError(w, err)
			return
		}

		audit.Record(r.Context(), auditlog.ActionPetPromoted, auditlog.EntityPet, receipt.Pet.ID, map[string]any{
			"transaction_id": receipt.Transaction.ID,
			"amount_cents":   receipt.Transaction.AmountCents,
			"coupon_code":    receipt.Transaction.CouponCode,
		})

		out := purchaseResponse{
			PetID:         receipt.Pet.ID,
			TransactionID: receipt.Transaction.ID,
			AmountCents:   receipt.Transaction.AmountCents,
			Currency:      receipt.Transaction.Currency,
			Free:          receipt.Transaction.AmountCents == 0,
			Coupon:        receipt.Evaluation,
		}
		if receipt.Pet.PromotedUntil != nil {
			out.PromotedUntil = receipt.Pet.PromotedUntil.Format(time.RFC3339)
		}
		web.WriteJSON(w, http.StatusCreated, out)
	}
}

func writeError(w http.ResponseWriter, err error) {
	if fields, ok := validation.Fields(err); ok {
		web.FieldErrors(w, http.StatusBadRequest, "validation failed", fields)
		return
	}
	switch {
	case errors.Is(err, ErrCardRequired):
		web.FieldErrors(w, http.StatusBadRequest, err.Error(), map[string]string{"card": "is required"})
	case errors.Is(err, ErrNegativeAmount):
		web.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrForbidden):
		web.Error(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, pets.ErrNotFound):
		web.Error(w, http.StatusNotFound, "pet not found")
	case errors.Is(err, ErrPetAdopted):
		web.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrPaymentFailed):
		msg := "payment failed"
		if errors.Is(err, payments.ErrDeclined) {
			msg = "payment declined"
		}
		web.Error(w, http.StatusPaymentRequired, msg)
	default:
		web.Error(w, http.StatusInternalServerError, "internal error")
	}
}

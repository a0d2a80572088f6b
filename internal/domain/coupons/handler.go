package coupons

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pet-adoption-api/internal/domain/auditlog"
	"pet-adoption-api/internal/platform/validation"
	"pet-adoption-api/internal/platform/web"
)

// RegisterAdminRoutes monta /coupon-codes dentro de /admin.
func RegisterAdminRoutes(r chi.Router, svc *Service, audit *auditlog.Service) {
	r.Route("/coupon-codes", func(cr chi.Router) {
		cr.Get("/", listCouponsHandler(svc))
		cr.Post("/", createCouponHandler(svc, audit))
		cr.Patch("/{code}", updateCouponHandler(svc, audit))
		cr.Delete("/{code}", deleteCouponHandler(svc, audit))
	})
}

type createCouponRequest struct {
	Code         string     `json:"code"`
	DiscountType string     `json:"discount_type" enums:"percentage,fixed_amount"`
	Value        float64    `json:"value"`
	AppliesTo    string     `json:"applies_to" enums:"rescue_fee,promotion"`
	MaxUses      *int       `json:"max_uses"`
	ExpiresAt    *time.Time `json:"expires_at"`
	Active       *bool      `json:"active"`
}

type updateCouponRequest struct {
	DiscountType *string    `json:"discount_type"`
	Value        *float64   `json:"value"`
	AppliesTo    *string    `json:"applies_to"`
	MaxUses      *int       `json:"max_uses"`
	ClearMaxUses bool       `json:"clear_max_uses"`
	ExpiresAt    *time.Time `json:"expires_at"`
	ClearExpiry  bool       `json:"clear_expiry"`
	Active       *bool      `json:"active"`
}

type couponResponse struct {
	Code         string       `json:"code"`
	DiscountType DiscountType `json:"discount_type"`
	Value        float64      `json:"value"`
	AppliesTo    AppliesTo    `json:"applies_to"`
	MaxUses      *int         `json:"max_uses,omitempty"`
	TimesUsed    int          `json:"times_used"`
	ExpiresAt    *time.Time   `json:"expires_at,omitempty"`
	Active       bool         `json:"active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// listCouponsHandler godoc
// @Summary Listar cupones
// @Tags admin
// @Produce json
// @Success 200 {array} couponResponse
// @Failure 403 {object} web.ErrorBody
// @Router /admin/coupon-codes [get]
func listCouponsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]couponResponse, 0, len(items))
		for _, c := range items {
			out = append(out, toCouponResponse(c))
		}
		web.WriteJSON(w, http.StatusOK, out)
	}
}

// createCouponHandler godoc
// @Summary Crear cupón
// @Tags admin
// @Accept json
// @Produce json
// @Param payload body createCouponRequest true "Cupón"
// @Success 201 {object} couponResponse
// @Failure 400 {object} web.ErrorBody
// @Failure 409 {object} web.ErrorBody
// @Router /admin/coupon-codes [post]
func createCouponHandler(svc *Service, audit *auditlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createCouponRequest
		if err := web.DecodeJSON(r, &req); err != nil {
			web.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		c, err := svc.Create(r.Context(), CreateInput{
			Code:         req.Code,
			DiscountType: req.DiscountType,
			Value:        req.Value,
			AppliesTo:    req.AppliesTo,
			MaxUses:      req.MaxUses,
			ExpiresAt:    req.ExpiresAt,
			Active:       req.Active,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		audit.Record(r.Context(), auditlog.ActionCouponCreated, auditlog.EntityCoupon, c.Code, map[string]any{
			"discount_type": string(c.DiscountType),
			"value":         c.Value,
			"applies_to":    string(c.AppliesTo),
		})
		web.WriteJSON(w, http.StatusCreated, toCouponResponse(c))
	}
}

func updateCouponHandler(svc *Service, audit *auditlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateCouponRequest
		if err := web.DecodeJSON(r, &req); err != nil {
			web.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		c, err := svc.Update(r.Context(), chi.URLParam(r, "code"), UpdateInput{
			DiscountType: req.DiscountType,
			Value:        req.Value,
			AppliesTo:    req.AppliesTo,
			MaxUses:      req.MaxUses,
			ClearMaxUses: req.ClearMaxUses,
			ExpiresAt:    req.ExpiresAt,
			ClearExpiry:  req.ClearExpiry,
			Active:       req.Active,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		audit.Record(r.Context(), auditlog.ActionCouponUpdated, auditlog.EntityCoupon, c.Code, map[string]any{
			"active": c.Active,
		})
		web.WriteJSON(w, http.StatusOK, toCouponResponse(c))
	}
}

func deleteCouponHandler(svc *Service, audit *auditlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := NormalizeCode(chi.URLParam(r, "code"))
		if err := svc.Delete(r.Context(), code); err != nil {
			writeError(w, err)
			return
		}
		audit.Record(r.Context(), auditlog.ActionCouponDeleted, auditlog.EntityCoupon, code, nil)
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeError(w http.ResponseWriter, err error) {
	if fields, ok := validation.Fields(err); ok {
		web.FieldErrors(w, http.StatusBadRequest, "validation failed", fields)
		return
	}
	switch {
	case errors.Is(err, ErrNotFound):
		web.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicate):
		web.Error(w, http.StatusConflict, err.Error())
	default:
		web.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func toCouponResponse(c Coupon) couponResponse {
	return couponResponse{
		Code:         c.Code,
		DiscountType: c.DiscountType,
		Value:        c.Value,
		AppliesTo:    c.AppliesTo,
		MaxUses:      c.MaxUses,
		TimesUsed:    c.TimesUsed,
		ExpiresAt:    c.ExpiresAt,
		Active:       c.Active,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

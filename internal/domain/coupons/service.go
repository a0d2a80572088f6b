package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-adoption-api/internal/platform/metrics"
	"pet-adoption-api/internal/platform/validation"
)

const (
	MaxCodeLen = 32
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Evaluate busca el código y lo evalúa. Un código inexistente no es error: es
// una evaluación inválida con ReasonNotFound.
func (s *Service) Evaluate(ctx context.Context, code string, appliesTo AppliesTo, baseFeeCents int64) (Evaluation, error) {
	var c *Coupon
	found, err := s.repo.GetByCode(ctx, NormalizeCode(code))
	switch {
	case err == nil:
		c = &found
	case errors.Is(err, ErrNotFound):
	default:
		return Evaluation{}, fmt.Errorf("get coupon: %w", err)
	}

	ev := Evaluate(c, appliesTo, baseFeeCents, s.now().UTC())
	metrics.CouponEvaluations.WithLabelValues(string(ev.Reason)).Inc()
	return ev, nil
}

// Redeem consume un uso. Se llama solo después de que el cobro se completó.
func (s *Service) Redeem(ctx context.Context, code string) error {
	return s.repo.IncrementUsage(ctx, NormalizeCode(code), s.now().UTC())
}

type CreateInput struct {
	Code         string
	DiscountType string
	Value        float64
	AppliesTo    string
	MaxUses      *int
	ExpiresAt    *time.Time
	Active       *bool // nil = activo
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Coupon, error) {
	errs := validation.Errors{}

	code := NormalizeCode(in.Code)
	validation.Required(errs, "code", code)
	validation.MaxLen(errs, "code", code, MaxCodeLen)
	if strings.ContainsAny(code, " \t") {
		errs.Add("code", "must not contain spaces")
	}

	dt, ok := ParseDiscountType(in.DiscountType)
	if !ok {
		errs.Add("discount_type", "must be percentage or fixed_amount")
	}
	at, ok := ParseAppliesTo(in.AppliesTo)
	if !ok {
		errs.Add("applies_to", "must be rescue_fee or promotion")
	}
	validateValue(errs, dt, in.Value)
	validateMaxUses(errs, in.MaxUses)
	if err := errs.Err(); err != nil {
		return Coupon{}, err
	}

	now := s.now().UTC()
	c := Coupon{
		Code:         code,
		DiscountType: dt,
		Value:        in.Value,
		AppliesTo:    at,
		MaxUses:      in.MaxUses,
		ExpiresAt:    in.ExpiresAt,
		Active:       in.Active == nil || *in.Active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return Coupon{}, err
	}
	return c, nil
}

type UpdateInput struct {
	DiscountType *string
	Value        *float64
	AppliesTo    *string
	MaxUses      *int
	ClearMaxUses bool
	ExpiresAt    *time.Time
	ClearExpiry  bool
	Active       *bool
}

func (s *Service) Update(ctx context.Context, code string, in UpdateInput) (Coupon, error) {
	c, err := s.repo.GetByCode(ctx, NormalizeCode(code))
	if err != nil {
		return Coupon{}, err
	}

	errs := validation.Errors{}
	if in.DiscountType != nil {
		dt, ok := ParseDiscountType(*in.DiscountType)
		if !ok {
			errs.Add("discount_type", "must be percentage or fixed_amount")
		}
		c.DiscountType = dt
	}
	if in.Value != nil {
		c.Value = *in.Value
	}
	if in.AppliesTo != nil {
		at, ok := ParseAppliesTo(*in.AppliesTo)
		if !ok {
			errs.Add("applies_to", "must be rescue_fee or promotion")
		}
		c.AppliesTo = at
	}
	switch {
	case in.ClearMaxUses:
		c.MaxUses = nil
	case in.MaxUses != nil:
		validateMaxUses(errs, in.MaxUses)
		c.MaxUses = in.MaxUses
	}
	switch {
	case in.ClearExpiry:
		c.ExpiresAt = nil
	case in.ExpiresAt != nil:
		c.ExpiresAt = in.ExpiresAt
	}
	if in.Active != nil {
		c.Active = *in.Active
	}
	validateValue(errs, c.DiscountType, c.Value)
	if err := errs.Err(); err != nil {
		return Coupon{}, err
	}

	c.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, c); err != nil {
		return Coupon{}, err
	}
	return s.repo.GetByCode(ctx, c.Code)
}

func (s *Service) Delete(ctx context.Context, code string) error {
	return s.repo.Delete(ctx, NormalizeCode(code))
}

func (s *Service) List(ctx context.Context) ([]Coupon, error) {
	return s.repo.List(ctx)
}

func validateValue(errs validation.Errors, dt DiscountType, v float64) {
	switch dt {
	case DiscountPercentage:
		if v <= 0 || v > 100 {
			errs.Add("value", "percentage must be in (0, 100]")
		}
	case DiscountFixedAmount:
		if v <= 0 {
			errs.Add("value", "amount must be positive")
		}
	}
}

func validateMaxUses(errs validation.Errors, maxUses *int) {
	if maxUses != nil && *maxUses < 1 {
		errs.Add("max_uses", "must be >= 1")
	}
}

package promotions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"pet-adoption-api/internal/domain/coupons"
	"pet-adoption-api/internal/domain/pets"
	"pet-adoption-api/internal/domain/transactions"
	"pet-adoption-api/internal/platform/logger"
	"pet-adoption-api/internal/platform/metrics"
	"pet-adoption-api/internal/ports/auth"
	"pet-adoption-api/internal/ports/payments"
)

var (
	ErrForbidden      = errors.New("forbidden")
	ErrPetAdopted     = errors.New("adopted pets cannot be promoted")
	ErrCouponInvalid  = errors.New("coupon is not valid")
	ErrCardRequired   = errors.New("card details are required")
	ErrPaymentFailed  = errors.New("payment failed")
	ErrNegativeAmount = errors.New("base fee must not be negative")
)

const (
	DefaultBaseFeeCents = 500
	DefaultCurrency     = "USD"
	DefaultDuration     = 30 * 24 * time.Hour
)

// Pets es lo que promotions necesita del servicio de mascotas.
type Pets interface {
	GetByID(ctx context.Context, id string) (pets.Pet, error)
	Promote(ctx context.Context, id string, d time.Duration) (pets.Pet, error)
}

type Coupons interface {
	Evaluate(ctx context.Context, code string, appliesTo coupons.AppliesTo, baseFeeCents int64) (coupons.Evaluation, error)
	Redeem(ctx context.Context, code string) error
}

type Ledger interface {
	Record(ctx context.Context, t transactions.Transaction) (transactions.Transaction, error)
}

type Config struct {
	BaseFeeCents int64
	Currency     string
	Duration     time.Duration
}

type Service struct {
	pets    Pets
	coupons Coupons
	ledger  Ledger
	gateway payments.Gateway
	cfg     Config
	log     logger.Logger
	now     func() time.Time
}

func NewService(p Pets, c Coupons, l Ledger, gw payments.Gateway, cfg Config, log logger.Logger) *Service {
	if cfg.BaseFeeCents < 0 {
		cfg.BaseFeeCents = DefaultBaseFeeCents
	}
	if strings.TrimSpace(cfg.Currency) == "" {
		cfg.Currency = DefaultCurrency
	}
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultDuration
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		pets:    p,
		coupons: c,
		ledger:  l,
		gateway: gw,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
	}
}

func (s *Service) BaseFeeCents() int64 { return s.cfg.BaseFeeCents }

// ValidateCoupon evalúa un código sin consumirlo. Para promociones el monto
// base sale de la configuración; para rescue_fee lo indica quien llama.
func (s *Service) ValidateCoupon(ctx context.Context, code string, appliesTo coupons.AppliesTo, baseFeeCents *int64) (coupons.Evaluation, error) {
	base := s.cfg.BaseFeeCents
	if appliesTo != coupons.AppliesToPromotion && baseFeeCents != nil {
		base = *baseFeeCents
	}
	if base < 0 {
		return coupons.Evaluation{}, ErrNegativeAmount
	}
	return s.coupons.Evaluate(ctx, code, appliesTo, base)
}

type PurchaseInput struct {
	PetID      string
	CouponCode string
	Card       *payments.Card
}

type Receipt struct {
	Pet         pets.Pet
	Transaction transactions.Transaction
	Evaluation  coupons.Evaluation
}

// Purchase destaca una mascota. Si el monto final es 0 no se piden datos de
// tarjeta ni se llama al gateway. Un cupón inválido corta antes de cobrar.
func (s *Service) Purchase(ctx context.Context, viewer auth.Claims, in PurchaseInput) (Receipt, error) {
	pet, err := s.pets.GetByID(ctx, in.PetID)
	if err != nil {
		return Receipt{}, err
	}
	if !viewer.CanManageRescue(pet.RescueID) {
		return Receipt{}, ErrForbidden
	}
	if pet.Adopted {
		return Receipt{}, ErrPetAdopted
	}

	code := coupons.NormalizeCode(in.CouponCode)
	ev := coupons.Evaluation{
		Valid:         false,
		BaseFeeCents:  s.cfg.BaseFeeCents,
		FinalFeeCents: s.cfg.BaseFeeCents,
		Free:          s.cfg.BaseFeeCents == 0,
	}
	if code != "" {
		ev, err = s.coupons.Evaluate(ctx, code, coupons.AppliesToPromotion, s.cfg.BaseFeeCents)
		if err != nil {
			return Receipt{}, err
		}
		if !ev.Valid {
			metrics.PromotionsPurchased.WithLabelValues(path(ev), "coupon_rejected").Inc()
			return Receipt{Evaluation: ev}, ErrCouponInvalid
		}
	}

	if ev.Free {
		return s.completeFree(ctx, viewer, pet, code, ev)
	}
	return s.completePaid(ctx, viewer, pet, code, ev, in.Card)
}

func (s *Service) completeFree(ctx context.Context, viewer auth.Claims, pet pets.Pet, code string, ev coupons.Evaluation) (Receipt, error) {
	if code != "" {
		if err := s.coupons.Redeem(ctx, code); err != nil {
			if errors.Is(err, coupons.ErrExhausted) {
				ev.Valid, ev.Reason, ev.Message = false, coupons.ReasonExhausted, "coupon has reached its usage limit"
				ev.FinalFeeCents, ev.DiscountCents, ev.Free = ev.BaseFeeCents, 0, false
				metrics.PromotionsPurchased.WithLabelValues("free", "coupon_rejected").Inc()
				return Receipt{Evaluation: ev}, ErrCouponInvalid
			}
			return Receipt{}, fmt.Errorf("redeem coupon: %w", err)
		}
	}

	txn, err := s.ledger.Record(ctx, transactions.Transaction{
		AmountCents: 0,
		Currency:    s.cfg.Currency,
		Status:      transactions.StatusSuccess,
		Kind:        transactions.KindFee,
		Gateway:     transactions.GatewayNone,
		Details:     details(ev, code, nil, ""),
		UserID:      viewer.UserID,
		PetID:       pet.ID,
		CouponCode:  code,
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("record transaction: %w", err)
	}

	promoted, err := s.pets.Promote(ctx, pet.ID, s.cfg.Duration)
	if err != nil {
		return Receipt{}, fmt.Errorf("promote pet: %w", err)
	}

	metrics.PromotionsPurchased.WithLabelValues("free", "success").Inc()
	return Receipt{Pet: promoted, Transaction: txn, Evaluation: ev}, nil
}

func (s *Service) completePaid(ctx context.Context, viewer auth.Claims, pet pets.Pet, code string, ev coupons.Evaluation, card *payments.Card) (Receipt, error) {
	if card == nil {
		return Receipt{Evaluation: ev}, ErrCardRequired
	}
	c := normalizeCard(*card)
	if err := validateCard(c, s.now().UTC()); err != nil {
		return Receipt{Evaluation: ev}, err
	}

	res, chargeErr := s.gateway.Charge(ctx, payments.ChargeRequest{
		AmountCents:    ev.FinalFeeCents,
		Currency:       s.cfg.Currency,
		Card:           c,
		Description:    "Pet promotion " + pet.ID,
		IdempotencyKey: uuid.NewString(),
	})

	txn := transactions.Transaction{
		AmountCents:  ev.FinalFeeCents,
		Currency:     s.cfg.Currency,
		Kind:         transactions.KindFee,
		Gateway:      res.Gateway,
		GatewayTxnID: res.TransactionID,
		Details:      details(ev, code, &c, res.Brand),
		UserID:       viewer.UserID,
		PetID:        pet.ID,
		CouponCode:   code,
	}

	if chargeErr != nil {
		outcome := "error"
		txn.Status = transactions.StatusError
		if errors.Is(chargeErr, payments.ErrDeclined) {
			outcome = "declined"
			txn.Status = transactions.StatusFailure
		}
		txn.Details["error"] = chargeErr.Error()
		if _, err := s.ledger.Record(ctx, txn); err != nil {
			s.log.Error("record failed transaction", map[string]any{"pet_id": pet.ID, "error": err})
		}
		metrics.PromotionsPurchased.WithLabelValues("paid", outcome).Inc()
		return Receipt{Evaluation: ev}, fmt.Errorf("%w: %w", ErrPaymentFailed, chargeErr)
	}

	txn.Status = transactions.StatusSuccess
	recorded, err := s.ledger.Record(ctx, txn)
	if err != nil {
		return Receipt{}, fmt.Errorf("record transaction: %w", err)
	}

	if code != "" {
		// El cobro ya se hizo con descuento; si justo se agotó el cupón solo se registra.
		if err := s.coupons.Redeem(ctx, code); err != nil {
			s.log.Warn("coupon redeem after charge failed", map[string]any{
				"coupon":         code,
				"transaction_id": recorded.ID,
				"error":          err,
			})
		}
	}

	promoted, err := s.pets.Promote(ctx, pet.ID, s.cfg.Duration)
	if err != nil {
		return Receipt{}, fmt.Errorf("promote pet: %w", err)
	}

	metrics.PromotionsPurchased.WithLabelValues("paid", "success").Inc()
	return Receipt{Pet: promoted, Transaction: recorded, Evaluation: ev}, nil
}

func details(ev coupons.Evaluation, code string, card *payments.Card, brand string) map[string]any {
	d := map[string]any{
		"purpose":         "promotion",
		"base_fee_cents":  ev.BaseFeeCents,
		"discount_cents":  ev.DiscountCents,
		"final_fee_cents": ev.FinalFeeCents,
	}
	if code != "" {
		d["coupon_code"] = code
	}
	if card != nil {
		d["card_last4"] = card.Last4()
		if brand != "" {
			d["card_brand"] = brand
		}
	}
	return d
}

func path(ev coupons.Evaluation) string {
	if ev.Free {
		return "free"
	}
	return "paid"
}

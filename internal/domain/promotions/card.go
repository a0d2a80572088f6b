package promotions

import (
	"strings"
	"time"

	"pet-adoption-api/internal/platform/validation"
	"pet-adoption-api/internal/ports/payments"
)

// normalizeCard quita espacios y guiones del número.
func normalizeCard(c payments.Card) payments.Card {
	c.Number = strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, c.Number)
	c.CVC = strings.TrimSpace(c.CVC)
	c.HolderName = strings.TrimSpace(c.HolderName)
	return c
}

// validateCard es la validación de servidor del formulario de pago.
func validateCard(c payments.Card, now time.Time) error {
	errs := validation.Errors{}

	if n := len(c.Number); n < 12 || n > 19 || !allDigits(c.Number) {
		errs.Add("card.number", "must be 12 to 19 digits")
	} else if !luhn(c.Number) {
		errs.Add("card.number", "is not a valid card number")
	}

	if c.ExpiryMonth < 1 || c.ExpiryMonth > 12 {
		errs.Add("card.expiry_month", "must be between 1 and 12")
	} else {
		// La tarjeta vence al final del mes indicado.
		end := time.Date(c.ExpiryYear, time.Month(c.ExpiryMonth)+1, 1, 0, 0, 0, 0, time.UTC)
		if !end.After(now) {
			errs.Add("card.expiry_year", "card has expired")
		}
	}

	if n := len(c.CVC); n < 3 || n > 4 || !allDigits(c.CVC) {
		errs.Add("card.cvc", "must be 3 or 4 digits")
	}
	validation.Required(errs, "card.holder_name", c.HolderName)

	return errs.Err()
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func luhn(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

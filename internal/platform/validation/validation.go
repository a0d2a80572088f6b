package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strings"
)

// Errors acumula mensajes por campo. Un Errors vacío no es error (ver Err).
type Errors map[string]string

func (e Errors) Add(field, msg string) {
	if _, exists := e[field]; exists {
		return
	}
	e[field] = msg
}

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Err devuelve nil si no hay errores acumulados.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Fields extrae los mensajes por campo si err es (o envuelve) un Errors.
func Fields(err error) (map[string]string, bool) {
	var ve Errors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

func Required(errs Errors, field, value string) {
	if strings.TrimSpace(value) == "" {
		errs.Add(field, "is required")
	}
}

func MaxLen(errs Errors, field, value string, n int) {
	if len([]rune(value)) > n {
		errs.Add(field, fmt.Sprintf("must be at most %d characters", n))
	}
}

func Email(errs Errors, field, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		errs.Add(field, "is required")
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		errs.Add(field, "must be a valid email address")
	}
}

// Package web junta los helpers HTTP que antes estaban duplicados en cada handler
// (writeJSON). Con más de tres módulos ya conviene tenerlos en un solo lugar.
package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// MaxBodyBytes limita el cuerpo JSON de cualquier request.
const MaxBodyBytes = 1 << 20

// ErrorBody es el cuerpo estándar de error.
type ErrorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func Error(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorBody{Error: msg})
}

func FieldErrors(w http.ResponseWriter, status int, msg string, fields map[string]string) {
	WriteJSON(w, status, ErrorBody{Error: msg, Fields: fields})
}

// DecodeJSON decodifica el body rechazando campos desconocidos y basura al final.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after json body")
	}
	return nil
}

// QueryInt lee un entero del query string; vacío => def.
func QueryInt(r *http.Request, key string, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

// QueryList acepta CSV (?species=a,b) y parámetros repetidos (?species=a&species=b).
func QueryList(r *http.Request, key string) []string {
	raw := r.URL.Query()[key]
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		for _, p := range strings.Split(v, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// QueryBool interpreta "true/1/yes"; cualquier otra cosa es false.
func QueryBool(r *http.Request, key string) bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get(key))) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

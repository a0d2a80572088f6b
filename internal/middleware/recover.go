package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	chimw "github.com/go-chi/chi/v5/middleware"

	"pet-adoption-api/internal/platform/logger"
	"pet-adoption-api/internal/platform/web"
)

// Recover reemplaza chimw.Recoverer para loguear el panic con nuestro logger
// y devolver el error en JSON como el resto de la API.
func Recover(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("panic recovered", map[string]any{
					"request_id": chimw.GetReqID(r.Context()),
					"panic":      fmt.Sprint(rec),
					"stack":      string(debug.Stack()),
				})
				web.Error(w, http.StatusInternalServerError, "internal error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}

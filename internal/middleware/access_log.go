package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"pet-adoption-api/internal/platform/logger"
	"pet-adoption-api/internal/platform/metrics"
)

// AccessLog loguea cada request y alimenta las métricas HTTP.
// Usa el route pattern de chi como label para no explotar cardinalidad con IDs.
func AccessLog(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)

			metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
			metrics.HTTPDuration.WithLabelValues(route, r.Method).Observe(elapsed.Seconds())

			fields := map[string]any{
				"request_id":  chimw.GetReqID(r.Context()),
				"method":      r.Method,
				"route":       route,
				"path":        r.URL.Path,
				"status":      status,
				"bytes":       ww.BytesWritten(),
				"duration_ms": elapsed.Milliseconds(),
			}
			if c, ok := GetClaims(r.Context()); ok {
				fields["user_id"] = c.UserID
			}

			switch {
			case status >= 500:
				log.Error("http request", fields)
			case status >= 400:
				log.Warn("http request", fields)
			default:
				log.Info("http request", fields)
			}
		})
	}
}

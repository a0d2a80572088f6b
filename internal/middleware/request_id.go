package middleware

import (
	"context"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

const metaKey ctxKey = "request_meta"

// RequestMeta es lo que el audit log necesita saber del request.
type RequestMeta struct {
	RequestID string
	IP        string
	UserAgent string
}

// RequestInfo guarda IP/User-Agent/RequestID en el contexto.
// Va después de chimw.RequestID y chimw.RealIP.
func RequestInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta := RequestMeta{
			RequestID: chimw.GetReqID(r.Context()),
			IP:        r.RemoteAddr,
			UserAgent: r.UserAgent(),
		}
		ctx := context.WithValue(r.Context(), metaKey, meta)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRequestMeta(ctx context.Context) RequestMeta {
	m, _ := ctx.Value(metaKey).(RequestMeta)
	return m
}

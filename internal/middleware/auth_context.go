package middleware

import (
	"context"
	"net/http"
	"strings"

	"pet-adoption-api/internal/platform/web"
	"pet-adoption-api/internal/ports/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// AuthContext:
// - Si viene Bearer token y verifier != nil => intenta Verify() y setea claims.
// - Si devMode => acepta X-Debug-User-ID / X-Debug-Role / X-Debug-Rescue-ID (tests y dev local).
// - Si no hay claims, el request sigue igual; RequireAuth/RequireRole deciden 401/403.
func AuthContext(verifier auth.AuthVerifier, devMode bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := bearerToken(r.Header.Get("Authorization")); token != "" && verifier != nil {
				claims, err := verifier.Verify(r.Context(), token)
				if err == nil {
					next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
					return
				}
				// Token inválido: seguimos como anónimo, el handler decide.
			}

			if devMode {
				if uid := strings.TrimSpace(r.Header.Get("X-Debug-User-ID")); uid != "" {
					role, ok := auth.ParseRole(r.Header.Get("X-Debug-Role"))
					if !ok {
						role = auth.RoleUser
					}
					claims := auth.Claims{
						UserID:   uid,
						Role:     role,
						RescueID: strings.TrimSpace(r.Header.Get("X-Debug-Rescue-ID")),
					}
					next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	return c, ok
}

// RequireAuth corta con 401 si no hay claims.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := GetClaims(r.Context())
		if !ok || !c.Authenticated() {
			web.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole exige autenticación y uno de los roles indicados.
func RequireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := GetClaims(r.Context())
			if !ok || !c.Authenticated() {
				web.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			for _, role := range roles {
				if c.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			web.Error(w, http.StatusForbidden, "forbidden")
		})
	}
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

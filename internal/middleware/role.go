package middleware

import (
	"net/http"

	"github.com/prismai/prismai/internal/auth"
)

// RequireAdmin returns middleware that restricts a route to admin users.
// Must be applied after Auth middleware. A known caller without the admin
// role gets 403 - a distinct signal from 401, since the identity is valid
// but lacks privilege.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := auth.AuthFromContext(r.Context())
			if authCtx == nil {
				writeAuthError(w)
				return
			}

			if !authCtx.IsAdmin() {
				writeForbiddenError(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeForbiddenError writes a 403 Forbidden response.
func writeForbiddenError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":{"code":"FORBIDDEN","message":"Admin privileges required"}}`))
}

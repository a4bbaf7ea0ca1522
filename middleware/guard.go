package middleware

import (
	"context"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

type validationContextKey struct{}

// ValidationFromContext returns the session validation result injected by
// [Guard] for the current request.
func ValidationFromContext(ctx context.Context) (goSession.ValidationResult, bool) {
	res, ok := ctx.Value(validationContextKey{}).(goSession.ValidationResult)
	return res, ok
}

// Guard requires a valid session for the wrapped handler. Unauthenticated
// requests are redirected to loginPath; the validation result is injected
// into the request context for downstream handlers.
func Guard(client *goSession.Client, loginPath string) func(http.Handler) http.Handler {
	if loginPath == "" {
		loginPath = "/login"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if client == nil {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}

			result := client.ValidateSession(r.Context())
			if !result.Valid {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), validationContextKey{}, result)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole is [Guard] plus a role-membership check. A valid session with
// the wrong role gets 403 rather than a login redirect.
func RequireRole(client *goSession.Client, loginPath string, roles ...string) func(http.Handler) http.Handler {
	guard := Guard(client, loginPath)
	return func(next http.Handler) http.Handler {
		return guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !client.HasRole(r.Context(), roles...) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

package auth

import (
	"net/http"
	"strings"

	"github.com/NUbem000/NubemERP/internal/platform/httpx"
	"github.com/NUbem000/NubemERP/internal/shared"
)

// RequireAuth validates the bearer access token and attaches the
// authenticated identity to the request context.
func RequireAuth(tokens *TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}

			identity, err := tokens.Verify(parts[1])
			if err != nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), identity)))
		})
	}
}

// RequireRole allows only identities carrying one of the given roles.
// It must run after RequireAuth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := shared.IdentityFromContext(r.Context())
			if identity == nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			for _, role := range roles {
				if identity.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.RespondError(w, httpx.ErrForbidden)
		})
	}
}

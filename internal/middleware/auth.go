package middleware

import (
	"net/http"
	"strings"

	"github.com/ayush/partners-api/internal/auth"
)

// PrincipalResolver turns a bearer token into a principal.
type PrincipalResolver interface {
	CurrentPrincipal(token string) (*auth.Principal, error)
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireAuth is middleware that validates the bearer token and injects the
// principal into the request context. Requests without a valid token never
// reach next.
func RequireAuth(resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				auth.Unauthorized(w, "not authenticated")
				return
			}

			principal, err := resolver.CurrentPrincipal(token)
			if err != nil || principal == nil {
				auth.Unauthorized(w, "could not validate credentials")
				return
			}

			ctx := auth.WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

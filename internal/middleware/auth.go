package middleware

import (
	"net/http"
	"strings"

	"github.com/finsight/backend/internal/auth"
	"github.com/finsight/backend/internal/problem"
)

// TokenVerifier reduces a raw bearer token to a principal.
type TokenVerifier interface {
	Verify(tokenString string) (*auth.Principal, error)
}

// Authenticator extracts the Authorization bearer token, verifies it
// and attaches the principal to the request context. Any failure is a
// 401 problem; requests never reach the handler unauthenticated.
func Authenticator(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				problem.Render(w, r, err)
				return
			}

			principal, err := verifier.Verify(tokenString)
			if err != nil {
				problem.Render(w, r, problem.Unauthorized("Invalid token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireScope rejects authenticated requests lacking the given
// authority with a 403 problem.
func RequireScope(authority string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.FromContext(r.Context())
			if !ok {
				problem.Render(w, r, problem.Unauthorized("Authentication required"))
				return
			}
			if !principal.HasScope(authority) {
				problem.Render(w, r, problem.Forbidden("Insufficient scope"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", problem.Unauthorized("Authorization header required")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", problem.Unauthorized("Invalid authorization header format")
	}
	return parts[1], nil
}

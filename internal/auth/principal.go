// Package auth reduces bearer tokens to verified principals.
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// ScopePrefix is prepended to each name from the token's scope claim to
// form an authority, e.g. scope "fin:app" -> authority "SCOPE_fin:app".
const ScopePrefix = "SCOPE_"

// Principal is the caller identity derived from a verified token.
// Subject is immutable for the life of the request.
type Principal struct {
	Subject string
	Scopes  map[string]struct{}
	Claims  jwt.MapClaims
}

// HasScope reports whether the principal holds the given authority
// (including the SCOPE_ prefix).
func (p *Principal) HasScope(authority string) bool {
	_, ok := p.Scopes[authority]
	return ok
}

type principalKey struct{}

// WithPrincipal attaches a principal to the request context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal attached by the authenticator, if any.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok
}

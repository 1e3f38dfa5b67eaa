package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates bearer tokens against a trusted issuer and maps
// them to principals. Signature keys come from the issuer's JWKS via
// the keyfunc; standard claim checks cover iss, exp, nbf and aud, with
// azp enforced when the claim is present.
type Verifier struct {
	issuer   string
	audience string
	parser   *jwt.Parser
	keyfunc  jwt.Keyfunc
}

// NewVerifier discovers the issuer's JWKS endpoint through OIDC
// discovery and builds a verifier whose key set refreshes in the
// background for the life of ctx.
func NewVerifier(ctx context.Context, issuerURI, audience string) (*Verifier, error) {
	jwksURI, err := discoverJWKS(ctx, issuerURI)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	kf, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURI})
	if err != nil {
		return nil, fmt.Errorf("jwks init: %w", err)
	}

	log.Printf("[AUTH] JWKS loaded from %s", jwksURI)
	return NewVerifierWithKeyfunc(issuerURI, audience, kf.Keyfunc), nil
}

// NewVerifierWithKeyfunc builds a verifier around an explicit key
// resolver. Tests and alternative key sources use this directly.
func NewVerifierWithKeyfunc(issuerURI, audience string, kf jwt.Keyfunc) *Verifier {
	return &Verifier{
		issuer:   issuerURI,
		audience: audience,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{"RS256", "RS384", "RS512", "ES256"}),
			jwt.WithIssuer(issuerURI),
			jwt.WithAudience(audience),
			jwt.WithExpirationRequired(),
		),
		keyfunc: kf,
	}
}

// Verify parses and validates a raw bearer token and returns the
// principal it represents.
func (v *Verifier) Verify(tokenString string) (*Principal, error) {
	claims := jwt.MapClaims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, v.keyfunc)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}

	// azp must match the audience when the claim is present.
	if azp, ok := claims["azp"]; ok {
		s, _ := azp.(string)
		if s != v.audience {
			return nil, fmt.Errorf("%w: azp mismatch", jwt.ErrTokenInvalidClaims)
		}
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("%w: missing sub", jwt.ErrTokenInvalidClaims)
	}

	return &Principal{
		Subject: sub,
		Scopes:  parseScopes(claims),
		Claims:  claims,
	}, nil
}

// parseScopes splits the space-delimited scope claim into the
// authority set.
func parseScopes(claims jwt.MapClaims) map[string]struct{} {
	scopes := map[string]struct{}{}
	raw, _ := claims["scope"].(string)
	for _, s := range strings.Fields(raw) {
		scopes[ScopePrefix+s] = struct{}{}
	}
	return scopes
}

// discoverJWKS resolves the jwks_uri from the issuer's OIDC
// configuration document.
func discoverJWKS(ctx context.Context, issuerURI string) (string, error) {
	wellKnown := strings.TrimSuffix(issuerURI, "/") + "/.well-known/openid-configuration"

	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wellKnown, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("issuer metadata returned status %d", resp.StatusCode)
	}

	var doc struct {
		JWKSURI string `json:"jwks_uri"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return "", err
	}
	if doc.JWKSURI == "" {
		return "", fmt.Errorf("issuer metadata has no jwks_uri")
	}
	return doc.JWKSURI, nil
}

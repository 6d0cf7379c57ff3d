package identity

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"

	"clinic-admin/internal/config"
)

// Verifier resolves bearer credentials in-process, without a network round
// trip to the identity service. It substitutes for remote exchange in
// deployments where the gateway already verifies tokens, and in dev/test
// environments running on a shared HS256 secret.
//
// Tokens are mapped to a User the same way remote exchange would: subject
// claim becomes the user ID, plus email and app_metadata claims.

// OIDCVerifier verifies tokens against the identity provider's JWKS.
type OIDCVerifier struct {
	verifier       *oidc.IDTokenVerifier
	allowedIssuers map[string]bool
}

var _ TokenExchanger = (*OIDCVerifier)(nil)

// NewOIDCVerifier creates a verifier via OIDC discovery on the issuer URL,
// or from an explicit JWKS URL when discovery is unavailable.
func NewOIDCVerifier(ctx context.Context, cfg *config.AuthConfig) (*OIDCVerifier, error) {
	var verifier *oidc.IDTokenVerifier
	switch {
	case cfg.JWKSURL != "":
		keySet := oidc.NewRemoteKeySet(ctx, cfg.JWKSURL)
		verifier = oidc.NewVerifier(cfg.IssuerURL, keySet, &oidc.Config{ClientID: cfg.Audience})
	case cfg.IssuerURL != "":
		provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
		if err != nil {
			return nil, fmt.Errorf("oidc provider discovery: %w", err)
		}
		verifier = provider.Verifier(&oidc.Config{ClientID: cfg.Audience})
	default:
		return nil, fmt.Errorf("oidc verifier requires AUTH_ISSUER_URL or AUTH_JWKS_URL")
	}

	issuers := make(map[string]bool, len(cfg.AllowedIssuers))
	for _, iss := range cfg.AllowedIssuers {
		issuers[iss] = true
	}
	if len(issuers) == 0 && cfg.IssuerURL != "" {
		issuers[cfg.IssuerURL] = true
	}
	return &OIDCVerifier{verifier: verifier, allowedIssuers: issuers}, nil
}

func (v *OIDCVerifier) UserFromToken(ctx context.Context, token string) (*User, error) {
	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if len(v.allowedIssuers) > 0 && !v.allowedIssuers[idToken.Issuer] {
		return nil, ErrInvalidToken
	}

	var raw map[string]any
	if err := idToken.Claims(&raw); err != nil {
		return nil, ErrInvalidToken
	}
	return userFromClaims(idToken.Subject, raw)
}

// HS256Verifier verifies tokens signed with a shared HS256 secret.
type HS256Verifier struct {
	secret []byte
}

var _ TokenExchanger = (*HS256Verifier)(nil)

// NewHS256Verifier creates a verifier for local/dev HS256 tokens.
func NewHS256Verifier(secret string) (*HS256Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	return &HS256Verifier{secret: []byte(secret)}, nil
}

func (v *HS256Verifier) UserFromToken(_ context.Context, token string) (*User, error) {
	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}

	raw, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, _ := raw["sub"].(string)
	return userFromClaims(sub, map[string]any(raw))
}

func userFromClaims(subject string, raw map[string]any) (*User, error) {
	if subject == "" {
		return nil, ErrInvalidToken
	}
	u := &User{ID: subject}
	if email, ok := raw["email"].(string); ok {
		u.Email = email
	}
	if bag, ok := raw["app_metadata"].(map[string]any); ok {
		u.AppMetadata = bag
	}
	if bag, ok := raw["user_metadata"].(map[string]any); ok {
		u.UserMetadata = bag
	}
	return u, nil
}

package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// ProviderClaims are the claims of a Stack Auth access token.
type ProviderClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	DisplayName   string `json:"name"`
	jwt.RegisteredClaims
}

// ProviderVerifier fully verifies identity-provider bearer tokens against the provider's JWKS.
type ProviderVerifier struct {
	keyfunc  jwt.Keyfunc
	issuer   string
	audience string
}

// NewProviderVerifier fetches the JWKS at jwksURL and keeps it refreshed in the background.
func NewProviderVerifier(jwksURL, issuer, audience string) (*ProviderVerifier, error) {
	if strings.TrimSpace(jwksURL) == "" {
		return nil, errors.New("jwks url must not be empty")
	}
	k, err := keyfunc.NewDefault([]string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("load jwks: %w", err)
	}
	return NewProviderVerifierWithKeyfunc(k.Keyfunc, issuer, audience)
}

// NewProviderVerifierWithKeyfunc builds a verifier around an existing key lookup.
func NewProviderVerifierWithKeyfunc(kf jwt.Keyfunc, issuer, audience string) (*ProviderVerifier, error) {
	if kf == nil {
		return nil, errors.New("keyfunc must not be nil")
	}
	if strings.TrimSpace(audience) == "" {
		return nil, errors.New("provider audience must not be empty")
	}
	return &ProviderVerifier{
		keyfunc:  kf,
		issuer:   strings.TrimSpace(issuer),
		audience: strings.TrimSpace(audience),
	}, nil
}

// Verify checks signature, algorithm, issuer, audience and expiry.
func (v *ProviderVerifier) Verify(tokenString string) (*ProviderClaims, error) {
	if v == nil {
		return nil, errors.New("provider verifier is nil")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg(), jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, &ProviderClaims{}, v.keyfunc)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*ProviderClaims)
	if !ok || !token.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, errors.New("invalid provider token claims")
	}
	return claims, nil
}

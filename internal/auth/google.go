// AngelaMos | 2026
// google.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

const googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

var ErrMalformedAssertion = errors.New("malformed identity assertion")

// GoogleClaims is the profile extracted from a Google ID token.
type GoogleClaims struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// GoogleVerifier extracts identity claims from Google ID tokens.
//
// When requireSignature is false the assertion's signature is NOT checked:
// the payload segment is decoded and trusted as-is, on the assumption that
// the caller (the frontend's OAuth flow) obtained the token directly from
// Google over TLS. Enable auth.google_require_signature to verify signatures
// against Google's published JWKS instead.
type GoogleVerifier struct {
	requireSignature bool

	mu        sync.Mutex
	keySet    jwk.Set
	fetchedAt time.Time
}

const keySetTTL = time.Hour

func NewGoogleVerifier(requireSignature bool) *GoogleVerifier {
	return &GoogleVerifier{requireSignature: requireSignature}
}

func (v *GoogleVerifier) Decode(
	ctx context.Context,
	assertion string,
) (*GoogleClaims, error) {
	if assertion == "" {
		return nil, fmt.Errorf("decode assertion: %w", ErrMalformedAssertion)
	}

	var tok jwt.Token
	var err error

	if v.requireSignature {
		tok, err = v.parseVerified(ctx, assertion)
	} else {
		tok, err = jwt.ParseInsecure([]byte(assertion))
	}
	if err != nil {
		return nil, fmt.Errorf("decode assertion: %w", ErrMalformedAssertion)
	}

	claims := &GoogleClaims{}

	if subject, ok := tok.Subject(); ok {
		claims.Subject = subject
	}
	if err := tok.Get("email", &claims.Email); err != nil ||
		claims.Email == "" {
		return nil, fmt.Errorf(
			"decode assertion: missing email: %w",
			ErrMalformedAssertion,
		)
	}

	//nolint:errcheck // name and picture are optional claims
	_ = tok.Get("name", &claims.Name)
	//nolint:errcheck // name and picture are optional claims
	_ = tok.Get("picture", &claims.Picture)

	return claims, nil
}

func (v *GoogleVerifier) parseVerified(
	ctx context.Context,
	assertion string,
) (jwt.Token, error) {
	set, err := v.keys(ctx)
	if err != nil {
		return nil, err
	}

	return jwt.Parse(
		[]byte(assertion),
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
		jwt.WithIssuer("https://accounts.google.com"),
	)
}

func (v *GoogleVerifier) keys(ctx context.Context) (jwk.Set, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.keySet != nil && time.Since(v.fetchedAt) < keySetTTL {
		return v.keySet, nil
	}

	set, err := jwk.Fetch(ctx, googleJWKSURL)
	if err != nil {
		if v.keySet != nil {
			// Stale keys beat no keys while Google is unreachable.
			return v.keySet, nil
		}
		return nil, fmt.Errorf("fetch google jwks: %w", err)
	}

	v.keySet = set
	v.fetchedAt = time.Now()

	return set, nil
}

// AngelaMos | 2026
// google_test.go

package auth_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cit-submit/go-backend/internal/auth"
)

// signAssertion builds a throwaway Google-shaped ID token signed with a
// fresh EC key. The unsigned-mode verifier never checks the signature, so
// any well-formed JWS carrying the claims will do.
func signAssertion(t *testing.T, claims map[string]any) string {
	t.Helper()

	builder := jwt.NewBuilder().
		Issuer("https://accounts.google.com").
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(time.Hour))

	for name, value := range claims {
		builder = builder.Claim(name, value)
	}

	tok, err := builder.Build()
	require.NoError(t, err)

	rawKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	key, err := jwk.Import(rawKey)
	require.NoError(t, err)

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.ES256(), key))
	require.NoError(t, err)

	return string(signed)
}

func TestDecodeExtractsProfile(t *testing.T) {
	t.Parallel()

	verifier := auth.NewGoogleVerifier(false)

	assertion := signAssertion(t, map[string]any{
		"sub":     "google-oauth2|12345",
		"email":   "s@cit.edu",
		"name":    "Ana Santos",
		"picture": "https://example.com/p.png",
	})

	claims, err := verifier.Decode(context.Background(), assertion)
	require.NoError(t, err)

	assert.Equal(t, "google-oauth2|12345", claims.Subject)
	assert.Equal(t, "s@cit.edu", claims.Email)
	assert.Equal(t, "Ana Santos", claims.Name)
	assert.Equal(t, "https://example.com/p.png", claims.Picture)
}

func TestDecodeNamePictureOptional(t *testing.T) {
	t.Parallel()

	verifier := auth.NewGoogleVerifier(false)

	assertion := signAssertion(t, map[string]any{
		"sub":   "google-oauth2|12345",
		"email": "s@cit.edu",
	})

	claims, err := verifier.Decode(context.Background(), assertion)
	require.NoError(t, err)

	assert.Equal(t, "s@cit.edu", claims.Email)
	assert.Empty(t, claims.Name)
	assert.Empty(t, claims.Picture)
}

func TestDecodeRequiresEmail(t *testing.T) {
	t.Parallel()

	verifier := auth.NewGoogleVerifier(false)

	assertion := signAssertion(t, map[string]any{
		"sub": "google-oauth2|12345",
	})

	_, err := verifier.Decode(context.Background(), assertion)
	assert.ErrorIs(t, err, auth.ErrMalformedAssertion)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	t.Parallel()

	verifier := auth.NewGoogleVerifier(false)

	for _, assertion := range []string{
		"",
		"not-a-jwt",
		"a.b",
		"!!!.@@@.###",
	} {
		_, err := verifier.Decode(context.Background(), assertion)
		assert.ErrorIs(t, err, auth.ErrMalformedAssertion, assertion)
	}
}

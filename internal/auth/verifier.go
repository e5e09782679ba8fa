// AngelaMos | 2026
// verifier.go

package auth

import (
	"context"

	"github.com/cit-submit/go-backend/internal/middleware"
	"github.com/cit-submit/go-backend/internal/token"
)

// AccessVerifier adapts the token codec to the middleware's verifier
// contract. Verification here is purely structural; the authorization gate
// resolves the live account separately.
type AccessVerifier struct {
	codec token.Codec
}

func NewAccessVerifier(codec token.Codec) *AccessVerifier {
	return &AccessVerifier{codec: codec}
}

func (v *AccessVerifier) VerifyAccessToken(
	_ context.Context,
	tokenString string,
) (*middleware.TokenSubject, error) {
	claims, err := v.codec.Verify(tokenString)
	if err != nil {
		return nil, err
	}

	return &middleware.TokenSubject{
		UserID: claims.UserID,
		Email:  claims.Email,
	}, nil
}

var _ middleware.TokenVerifier = (*AccessVerifier)(nil)

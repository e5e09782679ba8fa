// AngelaMos | 2026
// codec.go

package token

import (
	"fmt"
	"time"

	"github.com/cit-submit/go-backend/internal/config"
)

// Subject is the identity bound into an access token at mint time.
type Subject struct {
	UserID string
	Email  string
}

// Claims is what a verified access token asserts. Verification is stateless:
// no codec consults storage, so Verify is safe for unbounded parallel use.
type Claims struct {
	UserID   string
	Email    string
	IssuedAt time.Time
}

// Codec issues and verifies bearer access tokens. Verify must map every
// structurally malformed input to core.ErrTokenInvalid without panicking;
// partial or garbled tokens are indistinguishable from forged ones and are
// rejected identically, with no detail leaked to the caller.
type Codec interface {
	Issue(sub Subject) (string, error)
	Verify(token string) (*Claims, error)
}

// New selects the codec from config: "legacy" preserves the historical
// unsigned format, "signed" uses ES256 JWTs.
func New(cfg config.TokenConfig) (Codec, error) {
	switch cfg.Format {
	case config.TokenFormatLegacy:
		return NewLegacyCodec(), nil
	case config.TokenFormatSigned:
		return NewSignedCodec(cfg)
	default:
		return nil, fmt.Errorf("unknown token format %q", cfg.Format)
	}
}

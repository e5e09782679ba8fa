// AngelaMos | 2026
// legacy.go

package token

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cit-submit/go-backend/internal/core"
)

// LegacyCodec implements the historical access-token wire format:
//
//	base64("<user-id>:<email>:<issued-at-millis>") + "." + <random uuid>
//
// The payload is tamper-evident only in the trivial sense that garbling it
// fails decoding; it is NOT signed. The uuid suffix is an anti-replay salt so
// two tokens minted in the same millisecond are still distinct. This format is
// kept for wire compatibility with existing clients; deployments that do not
// need it should configure the signed codec instead.
type LegacyCodec struct {
	now func() time.Time
}

func NewLegacyCodec() *LegacyCodec {
	return &LegacyCodec{now: time.Now}
}

// NewLegacyCodecAt uses the given clock. Intended for tests.
func NewLegacyCodecAt(now func() time.Time) *LegacyCodec {
	return &LegacyCodec{now: now}
}

func (c *LegacyCodec) Issue(sub Subject) (string, error) {
	if sub.UserID == "" || sub.Email == "" {
		return "", fmt.Errorf("issue token: empty subject")
	}

	payload := fmt.Sprintf("%s:%s:%d", sub.UserID, sub.Email, c.now().UnixMilli())
	encoded := base64.StdEncoding.EncodeToString([]byte(payload))

	return encoded + "." + uuid.New().String(), nil
}

func (c *LegacyCodec) Verify(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	raw, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	fields := strings.Split(string(raw), ":")
	if len(fields) < 3 {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	userID := fields[0]
	email := strings.Join(fields[1:len(fields)-1], ":")
	millis, err := strconv.ParseInt(fields[len(fields)-1], 10, 64)
	if err != nil || userID == "" || email == "" {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	return &Claims{
		UserID:   userID,
		Email:    email,
		IssuedAt: time.UnixMilli(millis),
	}, nil
}

// AngelaMos | 2026
// legacy_test.go

package token

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cit-submit/go-backend/internal/core"
)

func TestLegacyIssueVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	minted := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	codec := NewLegacyCodecAt(func() time.Time { return minted })

	tok, err := codec.Issue(Subject{UserID: "42", Email: "s@cit.edu"})
	require.NoError(t, err)

	claims, err := codec.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.UserID)
	assert.Equal(t, "s@cit.edu", claims.Email)
	assert.Equal(t, minted.UnixMilli(), claims.IssuedAt.UnixMilli())
}

func TestLegacyTokenShape(t *testing.T) {
	t.Parallel()

	codec := NewLegacyCodec()
	tok, err := codec.Issue(Subject{UserID: "42", Email: "s@cit.edu"})
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 2)

	payload, err := base64.StdEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(payload), "42:s@cit.edu:"))
	assert.NotEmpty(t, parts[1])
}

func TestLegacyTokensAreDistinct(t *testing.T) {
	t.Parallel()

	// Same instant, same subject: the random suffix must still differ.
	minted := time.Now()
	codec := NewLegacyCodecAt(func() time.Time { return minted })

	a, err := codec.Issue(Subject{UserID: "1", Email: "a@cit.edu"})
	require.NoError(t, err)
	b, err := codec.Issue(Subject{UserID: "1", Email: "a@cit.edu"})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestLegacyVerifyRejectsMalformed(t *testing.T) {
	t.Parallel()

	codec := NewLegacyCodec()

	valid, err := codec.Issue(Subject{UserID: "7", Email: "x@cit.edu"})
	require.NoError(t, err)

	inputs := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"no separator", "abcdef"},
		{"too many separators", valid + ".extra"},
		{"empty payload", ".suffix"},
		{"empty suffix", strings.Split(valid, ".")[0] + "."},
		{"bad base64", "!!!not-base64!!!.suffix"},
		{"too few fields", base64.StdEncoding.EncodeToString([]byte("only:two")) + ".s"},
		{"non-numeric timestamp", base64.StdEncoding.EncodeToString([]byte("1:a@cit.edu:soon")) + ".s"},
		{"empty user id", base64.StdEncoding.EncodeToString([]byte(":a@cit.edu:123")) + ".s"},
		{"binary garbage", string([]byte{0x00, 0xff, 0x13}) + "." + string([]byte{0x7f})},
	}

	for _, tt := range inputs {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			claims, verr := codec.Verify(tt.token)
			assert.Nil(t, claims)
			assert.True(t, errors.Is(verr, core.ErrTokenInvalid),
				"expected ErrTokenInvalid, got %v", verr)
		})
	}
}

func TestLegacyIssueRejectsEmptySubject(t *testing.T) {
	t.Parallel()

	codec := NewLegacyCodec()

	_, err := codec.Issue(Subject{})
	assert.Error(t, err)

	_, err = codec.Issue(Subject{UserID: "1"})
	assert.Error(t, err)
}

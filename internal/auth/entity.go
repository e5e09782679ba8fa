// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

// RefreshToken is the single live renewal credential for a user. The
// refresh_tokens table carries a unique constraint on user_id, so at most one
// row per user can exist at any instant.
type RefreshToken struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	TokenHash string    `db:"token_hash"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

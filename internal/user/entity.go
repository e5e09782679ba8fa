// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

// User is the canonical identity record. Email is unique and immutable after
// creation; AccountStatus and Active are kept consistent (DEACTIVATED implies
// Active=false). Users are never hard-deleted: deactivation is the terminal
// soft delete.
type User struct {
	ID              string     `db:"id"`
	Email           string     `db:"email"`
	Name            string     `db:"name"`
	PasswordHash    *string    `db:"password_hash"`
	Role            string     `db:"role"`
	AuthProvider    string     `db:"auth_provider"`
	EmailVerified   bool       `db:"email_verified"`
	Active          bool       `db:"active"`
	AccountStatus   string     `db:"account_status"`
	Picture         string     `db:"picture"`
	ProfileComplete bool       `db:"profile_complete"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
	ApprovedAt      *time.Time `db:"approved_at"`
}

const (
	RoleMember  = "MEMBER"
	RoleManager = "MANAGER"
	RoleAdmin   = "ADMIN"
)

const (
	StatusPending     = "PENDING"
	StatusActive      = "ACTIVE"
	StatusDeactivated = "DEACTIVATED"
)

const (
	ProviderEmail  = "email"
	ProviderGoogle = "google"
)

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ValidRole reports whether role belongs to the closed role set.
func ValidRole(role string) bool {
	switch role {
	case RoleMember, RoleManager, RoleAdmin:
		return true
	default:
		return false
	}
}

// Deactivate flips both the flag and the status so the two never diverge.
func (u *User) Deactivate() {
	u.Active = false
	u.AccountStatus = StatusDeactivated
}

func (u *User) Reactivate() {
	u.Active = true
	u.AccountStatus = StatusActive
}

// MarkVerified records email verification and account approval.
func (u *User) MarkVerified(now time.Time) {
	u.EmailVerified = true
	if u.AccountStatus == StatusPending {
		u.AccountStatus = StatusActive
		u.Active = true
	}
	if u.ApprovedAt == nil {
		u.ApprovedAt = &now
	}
}

// AngelaMos | 2026
// context.go

package middleware

// contextKey is a private type so middleware context values cannot collide
// with keys set by other packages.
type contextKey string

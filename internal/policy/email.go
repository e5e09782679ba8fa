// AngelaMos | 2026
// email.go

package policy

import (
	"strings"
)

// Allowlist holds the institutional email domains eligible for accounts.
// Matching is by exact domain or any dot-separated subdomain, case-insensitive.
// Rejecting foreign domains is a security boundary enforced on every
// account-creation and identity-binding path, not a UX convenience.
type Allowlist struct {
	domains []string
}

func NewAllowlist(domains []string) *Allowlist {
	normalized := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			normalized = append(normalized, d)
		}
	}
	return &Allowlist{domains: normalized}
}

// IsInstitutionalEmail reports whether the address belongs to an allow-listed
// domain. Addresses without an "@" are rejected. Pure, no side effects.
func (a *Allowlist) IsInstitutionalEmail(email string) bool {
	domain, ok := Domain(email)
	if !ok {
		return false
	}

	for _, allowed := range a.domains {
		if domain == allowed || strings.HasSuffix(domain, "."+allowed) {
			return true
		}
	}

	return false
}

// Domain extracts the lowercased domain part of an address. The second return
// is false for addresses with no "@".
func Domain(email string) (string, bool) {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return "", false
	}
	return strings.ToLower(email[at+1:]), true
}

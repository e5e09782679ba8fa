// AngelaMos | 2026
// auth_test.go

package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cit-submit/go-backend/internal/core"
	"github.com/cit-submit/go-backend/internal/middleware"
)

type staticVerifier struct {
	subjects map[string]*middleware.TokenSubject
}

func (v *staticVerifier) VerifyAccessToken(
	_ context.Context,
	token string,
) (*middleware.TokenSubject, error) {
	sub, ok := v.subjects[token]
	if !ok {
		return nil, core.ErrTokenInvalid
	}
	return sub, nil
}

type staticLoader struct {
	users map[string]*middleware.AuthUser
}

func (l *staticLoader) LoadAuthUser(
	_ context.Context,
	id string,
) (*middleware.AuthUser, error) {
	u, ok := l.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return u, nil
}

func newGate(users ...*middleware.AuthUser) func(http.Handler) http.Handler {
	verifier := &staticVerifier{
		subjects: make(map[string]*middleware.TokenSubject),
	}
	loader := &staticLoader{users: make(map[string]*middleware.AuthUser)}

	for _, u := range users {
		verifier.subjects["token-"+u.ID] = &middleware.TokenSubject{
			UserID: u.ID,
			Email:  u.Email,
		}
		loader.users[u.ID] = u
	}

	return middleware.Authenticator(verifier, loader)
}

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Test-User", middleware.GetUserID(r.Context()))
		w.Header().Set("X-Test-Role", middleware.GetUserRole(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(
	t *testing.T,
	handler http.Handler,
	authorization string,
) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticatorRejectsMissingToken(t *testing.T) {
	t.Parallel()

	handler := newGate()(echoIdentity())

	rec := doRequest(t, handler, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticatorRejectsForgedToken(t *testing.T) {
	t.Parallel()

	handler := newGate()(echoIdentity())

	rec := doRequest(t, handler, "Bearer not-a-real-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticatorRejectsDeletedUser(t *testing.T) {
	t.Parallel()

	u := &middleware.AuthUser{
		ID:     "u1",
		Email:  "s@cit.edu",
		Role:   "MEMBER",
		Active: true,
	}
	verifier := &staticVerifier{
		subjects: map[string]*middleware.TokenSubject{
			"token-u1": {UserID: "u1", Email: u.Email},
		},
	}
	// Token verifies, but the account behind it is gone.
	loader := &staticLoader{users: map[string]*middleware.AuthUser{}}

	handler := middleware.Authenticator(verifier, loader)(echoIdentity())

	rec := doRequest(t, handler, "Bearer token-u1")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticatorRejectsDeactivatedUser(t *testing.T) {
	t.Parallel()

	u := &middleware.AuthUser{
		ID:            "u1",
		Email:         "s@cit.edu",
		Role:          "MEMBER",
		AccountStatus: "DEACTIVATED",
		Active:        false,
	}
	handler := newGate(u)(echoIdentity())

	rec := doRequest(t, handler, "Bearer token-u1")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "account is deactivated")
}

func TestAuthenticatorSetsIdentityContext(t *testing.T) {
	t.Parallel()

	u := &middleware.AuthUser{
		ID:            "u1",
		Email:         "s@cit.edu",
		Role:          "MANAGER",
		AccountStatus: "ACTIVE",
		Active:        true,
	}
	handler := newGate(u)(echoIdentity())

	rec := doRequest(t, handler, "Bearer token-u1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Header().Get("X-Test-User"))
	assert.Equal(t, "MANAGER", rec.Header().Get("X-Test-Role"))
}

func TestRequireAdminDeniesMember(t *testing.T) {
	t.Parallel()

	u := &middleware.AuthUser{
		ID:            "u1",
		Email:         "s@cit.edu",
		Role:          "MEMBER",
		AccountStatus: "ACTIVE",
		Active:        true,
	}
	handler := newGate(u)(middleware.RequireAdmin(echoIdentity()))

	rec := doRequest(t, handler, "Bearer token-u1")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAdminAllowsAdmin(t *testing.T) {
	t.Parallel()

	u := &middleware.AuthUser{
		ID:            "u1",
		Email:         "a@cit.edu",
		Role:          "ADMIN",
		AccountStatus: "ACTIVE",
		Active:        true,
	}
	handler := newGate(u)(middleware.RequireAdmin(echoIdentity()))

	rec := doRequest(t, handler, "Bearer token-u1")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireManagerAllowsAdminAndManager(t *testing.T) {
	t.Parallel()

	for _, role := range []string{"MANAGER", "ADMIN"} {
		u := &middleware.AuthUser{
			ID:            "u-" + role,
			Email:         "x@cit.edu",
			Role:          role,
			AccountStatus: "ACTIVE",
			Active:        true,
		}
		handler := newGate(u)(middleware.RequireManager(echoIdentity()))

		rec := doRequest(t, handler, "Bearer token-u-"+role)
		assert.Equal(t, http.StatusOK, rec.Code, role)
	}
}

func TestExtractToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"bearer", "Bearer abc123", "abc123"},
		{"lowercase scheme", "bearer abc123", "abc123"},
		{"no header", "", ""},
		{"wrong scheme", "Basic abc123", ""},
		{"scheme only", "Bearer", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, middleware.ExtractToken(req))
		})
	}
}

// AngelaMos | 2026
// ratelimit_test.go

package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cit-submit/go-backend/internal/middleware"
)

// unreachableRedis forces the limiter onto its local in-process fallback so
// the tests are deterministic without a running redis.
func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 10 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func asRole(
	next http.Handler,
	userID, role string,
) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = context.WithValue(ctx, middleware.UserIDKey, userID)
		ctx = context.WithValue(ctx, middleware.UserRoleKey, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRoleRateLimiterUsesRoleLimit(t *testing.T) {
	t.Parallel()

	limiter := middleware.RoleRateLimiter(
		unreachableRedis(),
		middleware.DefaultRoleLimits,
	)
	handler := asRole(limiter(okHandler()), "u-admin", "ADMIN")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/admin/users", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "600", rec.Header().Get("X-RateLimit-Limit"))
}

func TestRoleRateLimiterDefaultsUnknownRoleToMember(t *testing.T) {
	t.Parallel()

	limiter := middleware.RoleRateLimiter(
		unreachableRedis(),
		middleware.DefaultRoleLimits,
	)
	handler := asRole(limiter(okHandler()), "u1", "INTERN")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/users/me", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("X-RateLimit-Limit"))
}

func TestRoleRateLimiterBlocksPastBurst(t *testing.T) {
	t.Parallel()

	limits := map[string]middleware.RoleLimit{
		"MEMBER": {RequestsPerMinute: 60, BurstSize: 1},
	}
	limiter := middleware.RoleRateLimiter(unreachableRedis(), limits)
	handler := asRole(limiter(okHandler()), "u1", "MEMBER")

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/v1/users/me", nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/v1/users/me", nil))

	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}

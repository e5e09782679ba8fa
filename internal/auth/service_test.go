// AngelaMos | 2026
// service_test.go

package auth_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cit-submit/go-backend/internal/auth"
	"github.com/cit-submit/go-backend/internal/config"
	"github.com/cit-submit/go-backend/internal/core"
	"github.com/cit-submit/go-backend/internal/email"
	"github.com/cit-submit/go-backend/internal/policy"
	"github.com/cit-submit/go-backend/internal/token"
)

type fakeUsers struct {
	mu      sync.Mutex
	byID    map[string]*auth.UserInfo
	byEmail map[string]*auth.UserInfo
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		byID:    make(map[string]*auth.UserInfo),
		byEmail: make(map[string]*auth.UserInfo),
	}
}

func (f *fakeUsers) add(u *auth.UserInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
}

func (f *fakeUsers) GetByEmail(
	_ context.Context,
	emailAddr string,
) (*auth.UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byEmail[emailAddr]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUsers) GetByID(
	_ context.Context,
	id string,
) (*auth.UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUsers) Create(
	_ context.Context,
	params auth.CreateUserParams,
) (*auth.UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byEmail[params.Email]; exists {
		return nil, core.ErrDuplicateKey
	}
	u := &auth.UserInfo{
		ID:            uuid.New().String(),
		Email:         params.Email,
		Name:          params.Name,
		PasswordHash:  params.PasswordHash,
		Role:          "MEMBER",
		AuthProvider:  params.Provider,
		Picture:       params.Picture,
		EmailVerified: params.EmailVerified,
		Active:        params.AccountStatus == "ACTIVE",
		AccountStatus: params.AccountStatus,
	}
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
	copied := *u
	return &copied, nil
}

func (f *fakeUsers) SyncOAuthProfile(
	_ context.Context,
	id, name, picture string,
) (*auth.UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	if name != "" {
		u.Name = name
	}
	if picture != "" {
		u.Picture = picture
	}
	u.EmailVerified = true
	if u.AccountStatus == "PENDING" {
		u.AccountStatus = "ACTIVE"
		u.Active = true
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUsers) MarkVerified(
	_ context.Context,
	id string,
) (*auth.UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	u.EmailVerified = true
	u.AccountStatus = "ACTIVE"
	u.Active = true
	copied := *u
	return &copied, nil
}

func (f *fakeUsers) UpdatePassword(
	_ context.Context,
	id, passwordHash string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return core.ErrNotFound
	}
	u.PasswordHash = &passwordHash
	return nil
}

type fakeStore struct {
	mu     sync.Mutex
	byHash map[string]auth.RefreshToken
}

func newFakeStore() *fakeStore {
	return &fakeStore{byHash: make(map[string]auth.RefreshToken)}
}

func (f *fakeStore) Replace(
	_ context.Context,
	tok *auth.RefreshToken,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for hash, existing := range f.byHash {
		if existing.UserID == tok.UserID {
			delete(f.byHash, hash)
		}
	}
	tok.CreatedAt = time.Now()
	f.byHash[tok.TokenHash] = *tok
	return nil
}

func (f *fakeStore) FindByHash(
	_ context.Context,
	tokenHash string,
) (*auth.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tok, ok := f.byHash[tokenHash]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &tok, nil
}

func (f *fakeStore) DeleteByID(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for hash, tok := range f.byHash {
		if tok.ID == id {
			delete(f.byHash, hash)
		}
	}
	return nil
}

func (f *fakeStore) DeleteByUser(
	_ context.Context,
	userID string,
) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for hash, tok := range f.byHash {
		if tok.UserID == userID {
			delete(f.byHash, hash)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeStore) DeleteExpired(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for hash, tok := range f.byHash {
		if time.Now().After(tok.ExpiresAt) {
			delete(f.byHash, hash)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byHash)
}

func (f *fakeStore) countForUser(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, tok := range f.byHash {
		if tok.UserID == userID {
			n++
		}
	}
	return n
}

func newTestService(
	users *fakeUsers,
	store *fakeStore,
	refreshTTL time.Duration,
) *auth.Service {
	cfg := config.AuthConfig{
		AllowedDomains:    []string{"cit.edu"},
		PasswordMinLength: 6,
	}

	return auth.NewService(
		store,
		token.NewLegacyCodec(),
		users,
		policy.NewAllowlist(cfg.AllowedDomains),
		auth.NewGoogleVerifier(false),
		email.NewSender(config.EmailConfig{}, slog.Default()),
		nil,
		cfg,
		refreshTTL,
	)
}

func seedUser(
	t *testing.T,
	users *fakeUsers,
	emailAddr, password string,
	verified, active bool,
) *auth.UserInfo {
	t.Helper()

	hash, err := core.HashPassword(password)
	require.NoError(t, err)

	status := "PENDING"
	if active {
		status = "ACTIVE"
	} else if verified {
		status = "DEACTIVATED"
	}

	u := &auth.UserInfo{
		ID:            uuid.New().String(),
		Email:         emailAddr,
		Name:          "Ana",
		PasswordHash:  &hash,
		Role:          "MEMBER",
		AuthProvider:  "email",
		EmailVerified: verified,
		Active:        active,
		AccountStatus: status,
	}
	users.add(u)
	return u
}

func TestRegisterIssuesTokensWhenVerificationDisabled(t *testing.T) {
	t.Parallel()

	users := newFakeUsers()
	store := newFakeStore()
	svc := newTestService(users, store, time.Hour)

	resp, err := svc.Register(context.Background(), auth.RegisterRequest{
		Email:    "s@cit.edu",
		Password: "secret1",
		Name:     "Ana",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "s@cit.edu", resp.User.Email)
	assert.Equal(t, "MEMBER", resp.User.Role)
	assert.Equal(t, 1, store.count())
}

func TestRegisterRejectsForeignDomain(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeUsers(), newFakeStore(), time.Hour)

	_, err := svc.Register(context.Background(), auth.RegisterRequest{
		Email:    "s@gmail.com",
		Password: "secret1",
		Name:     "Ana",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidDomain)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeUsers(), newFakeStore(), time.Hour)

	_, err := svc.Register(context.Background(), auth.RegisterRequest{
		Email:    "s@cit.edu",
		Password: "short",
		Name:     "Ana",
	})
	assert.ErrorIs(t, err, auth.ErrWeakPassword)
}

func TestRegisterDuplicateEmailFails(t *testing.T) {
	t.Parallel()

	users := newFakeUsers()
	svc := newTestService(users, newFakeStore(), time.Hour)

	req := auth.RegisterRequest{
		Email:    "s@cit.edu",
		Password: "secret1",
		Name:     "Ana",
	}

	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, auth.ErrEmailExists)
	assert.Len(t, users.byEmail, 1)
}

func TestLoginUnknownEmailFailsClosed(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeUsers(), newFakeStore(), time.Hour)

	_, err := svc.Login(context.Background(), auth.LoginRequest{
		Email:    "nobody@cit.edu",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()

	users := newFakeUsers()
	seedUser(t, users, "s@cit.edu", "secret1", true, true)
	svc := newTestService(users, newFakeStore(), time.Hour)

	_, err := svc.Login(context.Background(), auth.LoginRequest{
		Email:    "s@cit.edu",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLoginUnverifiedUserRejected(t *testing.T) {
	t.Parallel()

	users := newFakeUsers()
	u := seedUser(t, users, "s@cit.edu", "secret1", false, false)
	svc := newTestService(users, newFakeStore(), time.Hour)

	_, err := svc.Login(context.Background(), auth.LoginRequest{
		Email:    "s@cit.edu",
		Password: "secret1",
	})
	assert.ErrorIs(t, err, auth.ErrUnverified)

	_, err = users.MarkVerified(context.Background(), u.ID)
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), auth.LoginRequest{
		Email:    "s@cit.edu",
		Password: "secret1",
	})
	require.NoError(t, err)

	claims, err := token.NewLegacyCodec().Verify(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "s@cit.edu", claims.Email)
}

func TestLoginDeactivatedUserRejected(t *testing.T) {
	t.Parallel()

	users := newFakeUsers()
	seedUser(t, users, "s@cit.edu", "secret1", true, false)
	svc := newTestService(users, newFakeStore(), time.Hour)

	_, err := svc.Login(context.Background(), auth.LoginRequest{
		Email:    "s@cit.edu",
		Password: "secret1",
	})
	assert.ErrorIs(t, err, auth.ErrAccountDeactivated)
}

func TestSecondLoginLeavesExactlyOneLiveToken(t *testing.T) {
	t.Parallel()

	users := newFakeUsers()
	u := seedUser(t, users, "s@cit.edu", "secret1", true, true)
	store := newFakeStore()
	svc := newTestService(users, store, time.Hour)

	req := auth.LoginRequest{Email: "s@cit.edu", Password: "secret1"}

	first, err := svc.Login(context.Background(), req)
	require.NoError(t, err)

	second, err := svc.Login(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, 1, store.countForUser(u.ID))

	// The surviving token is the second one; the first is dead.
	_, err = store.FindByHash(
		context.Background(),
		core.HashToken(second.RefreshToken),
	)
	assert.NoError(t, err)

	_, err = store.FindByHash(
		context.Background(),
		core.HashToken(first.RefreshToken),
	)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRefreshReturnsSameRefreshToken(t *testing.T) {
	t.Parallel()

	users := newFakeUsers()
	seedUser(t, users, "s@cit.edu", "secret1", true, true)
	store := newFakeStore()
	svc := newTestService(users, store, time.Hour)

	login, err := svc.Login(context.Background(), auth.LoginRequest{
		Email:    "s@cit.edu",
		Password: "secret1",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)

	assert.Equal(t, login.RefreshToken, refreshed.RefreshToken)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, "s@cit.edu", refreshed.User.Email)
	assert.Equal(t, 1, store.count())
}

func TestRefreshUnknownTokenFailsNotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeUsers(), newFakeStore(), time.Hour)

	_, err := svc.Refresh(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, auth.ErrRefreshNotFound)
}

func TestRefreshExpiredTokenIsDeleted(t *testing.T) {
	t.Parallel()

	users := newFakeUsers()
	seedUser(t, users, "s@cit.edu", "secret1", true, true)
	store := newFakeStore()

	// Negative TTL: the token is already expired the moment it is issued.
	svc := newTestService(users, store, -time.Minute)

	login, err := svc.Login(context.Background(), auth.LoginRequest{
		Email:    "s@cit.edu",
		Password: "secret1",
	})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrRefreshExpired)

	// Expiry consumed the token: a retry is indistinguishable from a token
	// that never existed.
	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrRefreshNotFound)
	assert.Equal(t, 0, store.count())
}

func TestRefreshDeactivatedUserRejected(t *testing.T) {
	t.Parallel()

	users := newFakeUsers()
	u := seedUser(t, users, "s@cit.edu", "secret1", true, true)
	store := newFakeStore()
	svc := newTestService(users, store, time.Hour)

	login, err := svc.Login(context.Background(), auth.LoginRequest{
		Email:    "s@cit.edu",
		Password: "secret1",
	})
	require.NoError(t, err)

	users.mu.Lock()
	users.byID[u.ID].Active = false
	users.byID[u.ID].AccountStatus = "DEACTIVATED"
	users.mu.Unlock()

	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrAccountDeactivated)
}

func TestLogoutIsIdempotent(t *testing.T) {
	t.Parallel()

	users := newFakeUsers()
	u := seedUser(t, users, "s@cit.edu", "secret1", true, true)
	store := newFakeStore()
	svc := newTestService(users, store, time.Hour)

	_, err := svc.Login(context.Background(), auth.LoginRequest{
		Email:    "s@cit.edu",
		Password: "secret1",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), u.ID))
	assert.Equal(t, 0, store.count())

	// No live token left; revoking again is still not an error.
	assert.NoError(t, svc.Logout(context.Background(), u.ID))
}

func TestOAuthSignInCreatesThenUpdates(t *testing.T) {
	t.Parallel()

	users := newFakeUsers()
	store := newFakeStore()
	svc := newTestService(users, store, time.Hour)

	first, err := svc.OAuthSignIn(
		context.Background(),
		"google",
		"s@cit.edu",
		"Ana",
		"https://example.com/p.png",
	)
	require.NoError(t, err)
	assert.Equal(t, "Ana", first.User.Name)
	assert.Equal(t, 1, len(users.byEmail))

	second, err := svc.OAuthSignIn(
		context.Background(),
		"google",
		"s@cit.edu",
		"Ana Maria",
		"https://example.com/p2.png",
	)
	require.NoError(t, err)

	// Same account, refreshed profile, fresh token pair.
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, "Ana Maria", second.User.Name)
	assert.Equal(t, 1, len(users.byEmail))
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, 1, store.count())
}

func TestOAuthSignInRejectsForeignDomain(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeUsers(), newFakeStore(), time.Hour)

	_, err := svc.OAuthSignIn(
		context.Background(),
		"google",
		"s@gmail.com",
		"Ana",
		"",
	)
	assert.ErrorIs(t, err, auth.ErrInvalidDomain)
}

var _ auth.Store = (*fakeStore)(nil)
var _ auth.UserProvider = (*fakeUsers)(nil)

func TestPurgeExpiredRemovesOnlyExpiredTokens(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := newTestService(newFakeUsers(), store, time.Hour)

	live := &auth.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    "u-live",
		TokenHash: "hash-live",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	dead := &auth.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    "u-dead",
		TokenHash: "hash-dead",
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, store.Replace(context.Background(), live))
	require.NoError(t, store.Replace(context.Background(), dead))

	purged, err := svc.PurgeExpired(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), purged)
	assert.Equal(t, 1, store.count())

	_, err = store.FindByHash(context.Background(), "hash-live")
	assert.NoError(t, err)
}

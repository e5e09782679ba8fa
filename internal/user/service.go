// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cit-submit/go-backend/internal/auth"
	"github.com/cit-submit/go-backend/internal/core"
	"github.com/cit-submit/go-backend/internal/middleware"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) Create(
	ctx context.Context,
	params auth.CreateUserParams,
) (*auth.UserInfo, error) {
	now := time.Now().UTC()

	user := &User{
		ID:            uuid.New().String(),
		Email:         strings.ToLower(params.Email),
		PasswordHash:  params.PasswordHash,
		Name:          params.Name,
		Role:          RoleMember,
		AuthProvider:  params.Provider,
		EmailVerified: params.EmailVerified,
		AccountStatus: params.AccountStatus,
		Active:        params.AccountStatus == StatusActive,
		Picture:       params.Picture,
	}
	user.ProfileComplete = profileComplete(user)
	if user.Active {
		user.ApprovedAt = &now
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

// SyncOAuthProfile refreshes name and picture from the identity provider on
// every OAuth sign-in and treats the provider's email assertion as
// verification.
func (s *Service) SyncOAuthProfile(
	ctx context.Context,
	id, name, picture string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != "" {
		user.Name = name
	}
	if picture != "" {
		user.Picture = picture
	}
	if !user.EmailVerified {
		user.MarkVerified(time.Now().UTC())
	}
	user.ProfileComplete = profileComplete(user)

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) MarkVerified(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.MarkVerified(time.Now().UTC())

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, id, passwordHash)
}

// LoadAuthUser backs the per-request authorization gate: every authenticated
// request resolves the caller from storage so role and status changes take
// effect immediately, without waiting for token expiry.
func (s *Service) LoadAuthUser(
	ctx context.Context,
	id string,
) (*middleware.AuthUser, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &middleware.AuthUser{
		ID:            user.ID,
		Email:         user.Email,
		Role:          user.Role,
		AccountStatus: user.AccountStatus,
		Active:        user.Active,
	}, nil
}

func (s *Service) GetMe(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	return s.repo.GetByID(ctx, userID)
}

func (s *Service) UpdateMe(
	ctx context.Context,
	userID string,
	req UpdateProfileRequest,
) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if len(name) < 2 {
			return nil, fmt.Errorf(
				"update me: name too short: %w",
				core.ErrInvalidInput,
			)
		}
		user.Name = name
	}

	if req.Picture != nil {
		user.Picture = *req.Picture
	}

	user.ProfileComplete = profileComplete(user)

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) EmailExists(
	ctx context.Context,
	email string,
) (bool, error) {
	return s.repo.ExistsByEmail(ctx, strings.ToLower(email))
}

func profileComplete(u *User) bool {
	return len(strings.TrimSpace(u.Name)) >= 2 && u.Picture != ""
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		PasswordHash:  u.PasswordHash,
		Role:          u.Role,
		AuthProvider:  u.AuthProvider,
		Picture:       u.Picture,
		EmailVerified: u.EmailVerified,
		Active:        u.Active,
		AccountStatus: u.AccountStatus,
	}
}

var _ auth.UserProvider = (*Service)(nil)
var _ middleware.UserLoader = (*Service)(nil)

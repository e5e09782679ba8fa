// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

type UpdateProfileRequest struct {
	Name    *string `json:"name,omitempty"    validate:"omitempty,min=2,max=100"`
	Picture *string `json:"picture,omitempty" validate:"omitempty,url,max=512"`
}

type UserResponse struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	Role            string     `json:"role"`
	AuthProvider    string     `json:"auth_provider"`
	EmailVerified   bool       `json:"email_verified"`
	Active          bool       `json:"active"`
	AccountStatus   string     `json:"account_status"`
	Picture         string     `json:"picture,omitempty"`
	ProfileComplete bool       `json:"profile_complete"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
}

type ListUsersParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		Role:            u.Role,
		AuthProvider:    u.AuthProvider,
		EmailVerified:   u.EmailVerified,
		Active:          u.Active,
		AccountStatus:   u.AccountStatus,
		Picture:         u.Picture,
		ProfileComplete: u.ProfileComplete,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
		ApprovedAt:      u.ApprovedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, ToUserResponse(&u))
	}
	return responses
}

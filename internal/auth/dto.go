// AngelaMos | 2026
// dto.go

package auth

type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Name     string `json:"name"     validate:"required,min=2,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

type GoogleSignInRequest struct {
	Token string `json:"token" validate:"required"`
}

type OAuthSignInRequest struct {
	Provider string `json:"provider" validate:"required,max=32"`
	Email    string `json:"email"    validate:"required,email,max=255"`
	Name     string `json:"name"     validate:"omitempty,max=100"`
	Picture  string `json:"picture"  validate:"omitempty,url,max=512"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// AuthUserPayload is the client-facing identity projection returned by every
// sign-in flavor.
type AuthUserPayload struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
	Role    string `json:"role"`
}

type AuthResponse struct {
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	Role         string          `json:"role"`
	User         AuthUserPayload `json:"user"`
}

type RegisterResponse struct {
	AccessToken  string          `json:"accessToken,omitempty"`
	RefreshToken string          `json:"refreshToken,omitempty"`
	Message      string          `json:"message"`
	User         AuthUserPayload `json:"user"`
}

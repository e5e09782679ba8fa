// AngelaMos | 2026
// dto.go

package admin

type CreateUserRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Name     string `json:"name"     validate:"required,min=2,max=100"`
	Role     string `json:"role"     validate:"omitempty,oneof=MEMBER MANAGER ADMIN"`
}

type UpdateUserRequest struct {
	Name    *string `json:"name,omitempty"    validate:"omitempty,min=2,max=100"`
	Picture *string `json:"picture,omitempty" validate:"omitempty,url,max=512"`
	Role    *string `json:"role,omitempty"    validate:"omitempty,oneof=MEMBER MANAGER ADMIN"`
	Active  *bool   `json:"active,omitempty"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=MEMBER MANAGER ADMIN"`
}

package users

import "github.com/backline-erp/backline/internal/shared"

// UpdateUserRequest is the admin PUT payload; nil fields stay unchanged.
// Passwords are never set here, only through the auth endpoints.
type UpdateUserRequest struct {
	Email    *string      `json:"email,omitempty" validate:"omitempty,email"`
	Role     *shared.Role `json:"role,omitempty"`
	IsActive *bool        `json:"is_active,omitempty"`
}

// ListUsersRequest captures list filters.
type ListUsersRequest struct {
	Search string
	Role   *shared.Role
	Page   int
	Limit  int
}

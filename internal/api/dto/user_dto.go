package dto

import (
	"time"

	"github.com/spec-kit/learning-platform/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginRequest payload for password login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateRoleRequest payload for role finalization.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// UserResponse is the public summary of an account.
type UserResponse struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Role           domain.Role `json:"role"`
	ProfilePicture *string     `json:"profile_picture,omitempty"`
	HasPassword    bool        `json:"has_password"`
}

// AuthResponse standard response for endpoints that start a session.
type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

// PrincipalResponse describes the identity asserted by a session slot.
type PrincipalResponse struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// NewUserResponse maps a domain user to its public summary.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		Role:           user.Role,
		ProfilePicture: user.ProfilePicture,
		HasPassword:    user.HasPassword(),
	}
}

package dto

import (
	"time"

	"github.com/SscSPs/water_permits_app/internal/core/domain"
)

// LoginRequest represents the credentials posted to the login endpoint.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the response for a successful login.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// CreateUserRequest defines the data needed to provision a user account.
type CreateUserRequest struct {
	Username string          `json:"username" validate:"required,min=3,max=64"`
	Name     string          `json:"name" validate:"required,max=255"`
	Email    string          `json:"email" validate:"omitempty,email"`
	Role     domain.UserRole `json:"role" validate:"required,oneof=permitting_officer chairperson catchment_manager catchment_chairperson permit_supervisor ict"`
	Password string          `json:"password" validate:"required,min=8"`
}

// UserResponse defines the user data exposed over the API.
type UserResponse struct {
	UserID   string          `json:"userID"`
	Username string          `json:"username"`
	Name     string          `json:"name"`
	Role     domain.UserRole `json:"role"`
}

// ToUserResponse converts a domain.User to UserResponse DTO.
func ToUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		UserID:   user.UserID,
		Username: user.Username,
		Name:     user.Name,
		Role:     user.Role,
	}
}

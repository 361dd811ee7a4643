package services

import (
	"context"
	"time"

	"github.com/SscSPs/water_permits_app/internal/core/domain"
	"github.com/SscSPs/water_permits_app/internal/dto"
)

// UserSvcFacade defines user account operations.
type UserSvcFacade interface {
	// CreateUser provisions an account with a bcrypt password hash.
	CreateUser(ctx context.Context, req dto.CreateUserRequest, creatorUserID string) (*domain.User, error)

	// GetUserByID retrieves a user.
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
}

// AuthSvcFacade defines credential login and token issuing.
type AuthSvcFacade interface {
	// Login checks credentials and returns a signed access token.
	Login(ctx context.Context, username, password string) (*domain.User, string, time.Time, error)

	// GenerateAccessToken creates a JWT carrying the user's id and role.
	GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error)
}

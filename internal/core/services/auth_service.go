package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/water_permits_app/internal/apperrors"
	"github.com/SscSPs/water_permits_app/internal/core/domain"
	portsrepo "github.com/SscSPs/water_permits_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/water_permits_app/internal/core/ports/services"
	"github.com/SscSPs/water_permits_app/internal/platform/config"
	"github.com/SscSPs/water_permits_app/internal/utils"
)

// authService checks local credentials and issues JWT access tokens carrying the user's role.
type authService struct {
	BaseService
	cfg      *config.Config
	userRepo portsrepo.UserReader
	audit    portssvc.AuditRecorderSvc
}

// NewAuthService creates a new instance of authService.
func NewAuthService(cfg *config.Config, userRepo portsrepo.UserReader, audit portssvc.AuditRecorderSvc) portssvc.AuthSvcFacade {
	return &authService{
		BaseService: newBaseService(),
		cfg:         cfg,
		userRepo:    userRepo,
		audit:       audit,
	}
}

// Login checks a username and password. Unknown users, inactive users and wrong passwords all
// return apperrors.ErrUnauthorized.
func (s *authService) Login(ctx context.Context, username, password string) (*domain.User, string, time.Time, error) {
	user, err := s.userRepo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.LogWarn(ctx, "Login for unknown user", slog.String("username", username))
			return nil, "", time.Time{}, apperrors.ErrUnauthorized
		}
		return nil, "", time.Time{}, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive || !utils.CheckPasswordHash(password, user.PasswordHash) {
		s.LogWarn(ctx, "Login rejected", slog.String("user_id", user.UserID))
		return nil, "", time.Time{}, apperrors.ErrUnauthorized
	}

	token, expiresAt, err := s.GenerateAccessToken(ctx, user)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	actor := domain.Actor{UserID: user.UserID, Name: user.Name, Role: user.Role}
	s.audit.Record(ctx, actor, domain.ActionLogin, nil, fmt.Sprintf("User %s logged in", user.Username))
	return user, token, expiresAt, nil
}

// GenerateAccessToken creates a new JWT access token for the given user.
func (s *authService) GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error) {
	expiryTime := time.Now().Add(s.cfg.JWTExpiryDuration)

	token, err := utils.GenerateJWT(user.UserID, user.Name, string(user.Role), s.cfg.JWTSecret, s.cfg.JWTExpiryDuration, s.cfg.JWTIssuer)
	if err != nil {
		s.LogError(ctx, err, "Failed to generate access token", slog.String("user_id", user.UserID))
		return "", time.Time{}, err
	}
	return token, expiryTime, nil
}

var _ portssvc.AuthSvcFacade = (*authService)(nil)

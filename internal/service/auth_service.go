package service

import (
	"context"
	"errors"

	"restaurantai/internal/dto"
	"restaurantai/pkg/auth"
	"restaurantai/pkg/config"

	"go.uber.org/zap"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService signs in the single operator account configured through
// ADMIN_USERNAME and ADMIN_PASSWORD_HASH.
type AuthService struct {
	admin      config.AdminConfig
	jwtManager *auth.JWTManager
	logger     *zap.Logger
}

func NewAuthService(admin config.AdminConfig, jwtManager *auth.JWTManager, logger *zap.Logger) *AuthService {
	if admin.PasswordHash == "" {
		logger.Warn("ADMIN_PASSWORD_HASH is empty, logins will be rejected")
	}
	return &AuthService{
		admin:      admin,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

func (s *AuthService) Login(_ context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if s.admin.PasswordHash == "" || req.Username != s.admin.Username {
		return nil, ErrInvalidCredentials
	}
	if !auth.CheckPasswordHash(req.Password, s.admin.PasswordHash) {
		s.logger.Warn("Failed login attempt", zap.String("username", req.Username))
		return nil, ErrInvalidCredentials
	}
	return s.issue(req.Username)
}

func (s *AuthService) RefreshToken(_ context.Context, refreshToken string) (*dto.AuthResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil || claims.Username != s.admin.Username {
		return nil, ErrInvalidCredentials
	}
	return s.issue(claims.Username)
}

func (s *AuthService) issue(username string) (*dto.AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateToken(username)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(username)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwtManager.GetTokenDuration().Seconds()),
		Username:     username,
	}, nil
}

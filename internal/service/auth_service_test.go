package service

import (
	"context"
	"testing"
	"time"

	"restaurantai/internal/dto"
	"restaurantai/pkg/auth"
	"restaurantai/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthService(t *testing.T, password string) *AuthService {
	t.Helper()
	admin := config.AdminConfig{Username: "admin"}
	if password != "" {
		hash, err := auth.HashPassword(password)
		require.NoError(t, err)
		admin.PasswordHash = hash
	}
	return NewAuthService(admin, auth.NewJWTManager("secret", time.Hour, 24*time.Hour), zap.NewNop())
}

func TestAuthLogin(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t, "s3creta")

	resp, err := svc.Login(ctx, &dto.LoginRequest{Username: "admin", Password: "s3creta"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.EqualValues(t, 3600, resp.ExpiresIn)

	_, err = svc.Login(ctx, &dto.LoginRequest{Username: "admin", Password: "otra"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, &dto.LoginRequest{Username: "root", Password: "s3creta"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthLoginWithoutConfiguredHash(t *testing.T) {
	_, err := newAuthService(t, "").Login(context.Background(), &dto.LoginRequest{Username: "admin", Password: ""})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthRefreshToken(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t, "s3creta")
	resp, err := svc.Login(ctx, &dto.LoginRequest{Username: "admin", Password: "s3creta"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(ctx, resp.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", refreshed.Username)

	_, err = svc.RefreshToken(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "")
	t.Setenv("AUTH_REFRESH_TOKEN_TTL_HOURS", "")
	t.Setenv("APP_FRONTEND_URL", "http://localhost:3000/")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL())
	require.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTokenTTL())
	require.Equal(t, "http://localhost:3000", cfg.App.FrontendURL)
	require.False(t, cfg.App.IsProduction())
	require.False(t, cfg.Auth.StrictTokenClass)
}

func TestValidateProduction(t *testing.T) {
	cfg := &Config{App: AppConfig{Env: "production"}, Auth: AuthConfig{JWTSecret: defaultJWTSecret}}
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "AUTH_JWT_SECRET")
	require.Contains(t, err.Error(), "GOOGLE_CLIENT_ID")

	cfg.Auth.JWTSecret = "a-long-random-secret"
	cfg.Google = GoogleConfig{ClientID: "id", ClientSecret: "secret"}
	require.NoError(t, cfg.Validate())
}

func TestValidateSkipsDevelopment(t *testing.T) {
	cfg := &Config{App: AppConfig{Env: "development"}}
	require.NoError(t, cfg.Validate())
}

func TestGetEnvAsBoolFallsBackOnGarbage(t *testing.T) {
	t.Setenv("AUTH_STRICT_TOKEN_CLASS", "maybe")
	require.True(t, getEnvAsBool("AUTH_STRICT_TOKEN_CLASS", true))
	t.Setenv("AUTH_STRICT_TOKEN_CLASS", "true")
	require.True(t, getEnvAsBool("AUTH_STRICT_TOKEN_CLASS", false))
}

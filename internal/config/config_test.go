package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/caregraph")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PREDICTOR_BASE_URL", "http://localhost:5000")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Environment)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 10*time.Second, cfg.Cascade.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Predictor.Timeout)
	assert.Equal(t, 10000.0, cfg.Locator.DefaultRadiusMeters)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Security.EncryptionKey)
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("CASCADE_TIMEOUT", "3s")
	t.Setenv("LOCATOR_DEFAULT_RADIUS_METERS", "25000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "production", cfg.Server.Environment)
	assert.Equal(t, 3*time.Second, cfg.Cascade.Timeout)
	assert.Equal(t, 25000.0, cfg.Locator.DefaultRadiusMeters)
}

func TestLoad_MissingRequiredValues(t *testing.T) {
	testCases := []struct {
		name string
		omit string
	}{
		{name: "database url", omit: "DATABASE_URL"},
		{name: "jwt secret", omit: "JWT_SECRET"},
		{name: "predictor base url", omit: "PREDICTOR_BASE_URL"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tc.omit, "")

			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoad_EncryptionKeyLength(t *testing.T) {
	setRequiredEnv(t)

	t.Setenv("ENCRYPTION_KEY", "too short")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Len(t, cfg.Security.EncryptionKey, 32)
}

func TestValidate_RadiusMustBePositive(t *testing.T) {
	cfg := &Config{
		Database:  DatabaseConfig{URL: "postgres://localhost/db"},
		Auth:      AuthConfig{JWTSecret: "s"},
		Predictor: PredictorConfig{BaseURL: "http://localhost:5000"},
		Locator:   LocatorConfig{DefaultRadiusMeters: -5},
	}
	require.Error(t, cfg.Validate())

	cfg.Locator.DefaultRadiusMeters = 100
	require.NoError(t, cfg.Validate())
}

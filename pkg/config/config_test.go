package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")
	t.Setenv("PERSPECTIVE_API_KEY", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.PerspectiveAPIKey)
	assert.Equal(t, DefaultThresholds(), cfg.Thresholds)
	assert.Equal(t, 0.7, cfg.Thresholds.Threat)
	assert.Equal(t, 15*time.Minute, cfg.AppLockSessionTTL)
	assert.Nil(t, cfg.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "a-long-random-production-secret")
	t.Setenv("PERSPECTIVE_API_KEY", "key")
	t.Setenv("THRESHOLD_TOXICITY", "0.5")
	t.Setenv("THRESHOLD_INSULT", "not-a-number")
	t.Setenv("PRESENCE_THRESHOLD", "45s")
	t.Setenv("MODERATION_WORKER_ENABLED", "true")
	t.Setenv("APP_LOCK_SESSION_TTL", "60")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "key", cfg.PerspectiveAPIKey)
	assert.Equal(t, 0.5, cfg.Thresholds.Toxicity)
	assert.Equal(t, 0.8, cfg.Thresholds.Insult)
	assert.Equal(t, 45*time.Second, cfg.PresenceThreshold)
	assert.True(t, cfg.ModerationWorkerEnabled)
	assert.Equal(t, time.Minute, cfg.AppLockSessionTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoad_RejectsGuessableSecretOutsideDevelopment(t *testing.T) {
	tests := []struct {
		name   string
		env    string
		secret *string
	}{
		{"unset in production", "production", nil},
		{"default in production", "production", strPtr("your-secret-key")},
		{"blank in staging", "staging", strPtr("   ")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", tt.env)
			t.Setenv("JWT_SECRET", "")
			if tt.secret == nil {
				os.Unsetenv("JWT_SECRET")
			} else {
				t.Setenv("JWT_SECRET", *tt.secret)
			}

			cfg, err := Load()
			assert.ErrorIs(t, err, ErrInsecureJWTSecret)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoad_DevelopmentAllowsDefaultSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "your-secret-key", cfg.JWTSecret)
}

func strPtr(s string) *string { return &s }

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnv(t *testing.T) {
	// Clears every variable the loader reads so the host environment cannot leak in.
	reset := func(t *testing.T) {
		t.Helper()
		for _, key := range []string{
			"JWT_SECRET_KEY", "LLM_PROVIDER", "GEMINI_API_KEY", "GOOGLE_API_KEY", "GEMINI_MODEL",
			"GROQ_API_KEY", "GROQ_MODEL", "DATABASE_DRIVER", "DATABASE_URL", "PORT",
			"TOKEN_TTL_MINUTES", "PLAN_MAX_RETRIES", "GENERATION_TIMEOUT_SECONDS", "LOG_LEVEL", "LOG_FORMAT",
			"CORS_ALLOWED_ORIGINS", "AUTH_RATE_LIMIT_PER_MINUTE",
		} {
			t.Setenv(key, "")
		}
	}

	t.Run("Defaults", func(t *testing.T) {
		reset(t)
		t.Setenv("JWT_SECRET_KEY", "secret")
		t.Setenv("GEMINI_API_KEY", "gemini_key")

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "secret", cfg.JWTSecret)
		assert.Equal(t, ProviderGemini, cfg.LLMProvider)
		assert.Equal(t, "gemini-2.0-flash-lite", cfg.GeminiModel)
		assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
		assert.Equal(t, 3, cfg.PlanMaxRetries)
		assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
		assert.Equal(t, "data/fitmate.db", cfg.DatabaseURL)
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	})

	t.Run("GoogleAPIKeyFallback", func(t *testing.T) {
		reset(t)
		t.Setenv("JWT_SECRET_KEY", "secret")
		t.Setenv("GOOGLE_API_KEY", "google_key")

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "google_key", cfg.GeminiAPIKey)
	})

	t.Run("GroqProvider", func(t *testing.T) {
		reset(t)
		t.Setenv("JWT_SECRET_KEY", "secret")
		t.Setenv("LLM_PROVIDER", "groq")
		t.Setenv("GROQ_API_KEY", "groq_key")
		t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://fitmate.app")

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "groq_key", cfg.GroqAPIKey)
		assert.Equal(t, []string{"http://localhost:3000", "https://fitmate.app"}, cfg.CORSAllowedOrigins)
	})

	t.Run("MissingJWTSecret", func(t *testing.T) {
		reset(t)
		t.Setenv("GEMINI_API_KEY", "gemini_key")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Equal(t, "JWT_SECRET_KEY environment variable not set", err.Error())
	})

	t.Run("MissingGeminiAPIKey", func(t *testing.T) {
		reset(t)
		t.Setenv("JWT_SECRET_KEY", "secret")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Equal(t, "GEMINI_API_KEY environment variable not set", err.Error())
	})

	t.Run("MissingGroqAPIKey", func(t *testing.T) {
		reset(t)
		t.Setenv("JWT_SECRET_KEY", "secret")
		t.Setenv("LLM_PROVIDER", "groq")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Equal(t, "GROQ_API_KEY environment variable not set", err.Error())
	})

	t.Run("PostgresRequiresURL", func(t *testing.T) {
		reset(t)
		t.Setenv("JWT_SECRET_KEY", "secret")
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("DATABASE_DRIVER", "postgres")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Equal(t, "DATABASE_URL environment variable not set", err.Error())
	})

	t.Run("InvalidRetryBudget", func(t *testing.T) {
		reset(t)
		t.Setenv("JWT_SECRET_KEY", "secret")
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("PLAN_MAX_RETRIES", "0")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PLAN_MAX_RETRIES")
	})

	t.Run("NonNumericTTL", func(t *testing.T) {
		reset(t)
		t.Setenv("JWT_SECRET_KEY", "secret")
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("TOKEN_TTL_MINUTES", "half-hour")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid TOKEN_TTL_MINUTES")
	})

	t.Run("DatabaseOnly", func(t *testing.T) {
		reset(t)
		t.Setenv("DATABASE_DRIVER", "postgres")
		t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/fitmate")

		cfg, err := DatabaseFromEnv()
		require.NoError(t, err)
		assert.Equal(t, DriverPostgres, cfg.DatabaseDriver)
		assert.Equal(t, "postgres://u:p@localhost:5432/fitmate", cfg.DatabaseURL)
		assert.Empty(t, cfg.JWTSecret)
	})

	t.Run("DatabaseOnlyStillValidatesDriver", func(t *testing.T) {
		reset(t)
		t.Setenv("DATABASE_DRIVER", "mysql")

		_, err := DatabaseFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported DATABASE_DRIVER")
	})

	t.Run("ModelOnly", func(t *testing.T) {
		reset(t)
		t.Setenv("LLM_PROVIDER", "groq")
		t.Setenv("GROQ_API_KEY", "groq_key")

		cfg, err := ModelFromEnv()
		require.NoError(t, err)
		assert.Equal(t, ProviderGroq, cfg.LLMProvider)
		assert.Equal(t, 3, cfg.PlanMaxRetries)
		assert.Empty(t, cfg.DatabaseURL)
	})
}

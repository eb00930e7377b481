package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("DISCORD_APPLICATION_ID", "12345")
	t.Setenv("DISCORD_CLIENT_ID", "client")
	t.Setenv("DISCORD_CLIENT_SECRET", "secret")
	t.Setenv("JWT_SECRET_KEY", "jwt-secret")
}

func TestLoad(t *testing.T) {
	t.Run("fails when required variables missing", func(t *testing.T) {
		os.Unsetenv("DISCORD_TOKEN")
		os.Unsetenv("DISCORD_APPLICATION_ID")
		os.Unsetenv("DISCORD_CLIENT_ID")
		os.Unsetenv("DISCORD_CLIENT_SECRET")
		os.Unsetenv("JWT_SECRET_KEY")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DISCORD_TOKEN")
	})

	t.Run("loads with defaults", func(t *testing.T) {
		setRequiredEnv(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "disblox", cfg.DBName)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.False(t, cfg.RobloxConfigured())
	})

	t.Run("rejects invalid port", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("PORT", "not-a-port")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PORT")
	})

	t.Run("detects roblox configuration", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("ROBLOX_CLIENT_ID", "rbx")
		t.Setenv("ROBLOX_CLIENT_SECRET", "rbx-secret")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.RobloxConfigured())
	})
}

func TestGetDBConnString(t *testing.T) {
	cfg := &Config{
		DBUser:     "user",
		DBPassword: "pass",
		DBHost:     "db",
		DBPort:     "5433",
		DBName:     "disblox",
	}
	assert.Equal(t, "postgres://user:pass@db:5433/disblox?sslmode=disable", cfg.GetDBConnString())
}

func TestGetEnvAsSlice(t *testing.T) {
	t.Run("returns nil when unset", func(t *testing.T) {
		os.Unsetenv("TEST_SLICE_VAR")
		assert.Nil(t, getEnvAsSlice("TEST_SLICE_VAR"))
	})

	t.Run("splits and trims entries", func(t *testing.T) {
		t.Setenv("TEST_SLICE_VAR", "10.0.0.1, 10.0.0.2 ,")
		assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, getEnvAsSlice("TEST_SLICE_VAR"))
	})
}

func TestGetEnvAsInt(t *testing.T) {
	t.Run("returns default value when env var not set", func(t *testing.T) {
		os.Unsetenv("TEST_INT_VAR")
		assert.Equal(t, 42, getEnvAsInt("TEST_INT_VAR", 42))
	})

	t.Run("parses valid integer from env var", func(t *testing.T) {
		t.Setenv("TEST_INT_VAR", "100")
		assert.Equal(t, 100, getEnvAsInt("TEST_INT_VAR", 42))
	})

	t.Run("returns default for invalid integer", func(t *testing.T) {
		t.Setenv("TEST_INT_VAR", "not-a-number")
		assert.Equal(t, 42, getEnvAsInt("TEST_INT_VAR", 42))
	})
}

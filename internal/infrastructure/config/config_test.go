package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())

	assert.Equal(t, "/websocket", cfg.Realtime.Path)
	assert.Equal(t, 256, cfg.Realtime.SendBuffer)

	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "o3", cfg.AI.Model)
	assert.Equal(t, 1536, cfg.AI.EmbeddingDimensions)
	assert.Equal(t, 720*time.Hour, cfg.LinkedIn.ProfileTTL)
	assert.Equal(t, []string{"authjs.session-token", "__Secure-authjs.session-token"}, cfg.Auth.SessionCookies)

	require.NoError(t, cfg.Validate())
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":            "9000",
		"REDIS_ADDR":      "redis:6379",
		"WS_PATH":         "/ws",
		"WS_SEND_BUFFER":  "8",
		"AI_MODEL":        "gpt-4.1",
		"AGENT_TIMEOUT":   "30s",
		"SESSION_COOKIES": "sid",
		"LOG_DEV":         "true",
	}
	for k, v := range envVars {
		t.Setenv(k, v)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "/ws", cfg.Realtime.Path)
	assert.Equal(t, 8, cfg.Realtime.SendBuffer)
	assert.Equal(t, "gpt-4.1", cfg.AI.Model)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
	assert.Equal(t, []string{"sid"}, cfg.Auth.SessionCookies)
	assert.True(t, cfg.Logging.Development)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "relative ws path", mutate: func(c *Config) { c.Realtime.Path = "websocket" }},
		{name: "empty ws path", mutate: func(c *Config) { c.Realtime.Path = "" }},
		{name: "zero send buffer", mutate: func(c *Config) { c.Realtime.SendBuffer = 0 }},
		{name: "zero agent steps", mutate: func(c *Config) { c.AI.MaxSteps = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadOrDefaultFallsBack(t *testing.T) {
	t.Setenv("WS_SEND_BUFFER", "not-a-number")

	cfg := LoadOrDefault()
	assert.Equal(t, 256, cfg.Realtime.SendBuffer)
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "0123456789abcdef0123")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.RedisHost)
	assert.Equal(t, uint16(6379), cfg.RedisPort)
	assert.Equal(t, 0, cfg.RedisDb)
	assert.Equal(t, "HS256", cfg.Algorithm)
	assert.Equal(t, 30, cfg.AccessTokenExpireMinutes)
	assert.Equal(t, 500, cfg.HistoryMaxLen)
	assert.Equal(t, 100, cfg.HistoryReplay)
	assert.Equal(t, uint16(8085), cfg.HttpServerPort)
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("SECRET_KEY", "")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SECRET_KEY", "0123456789abcdef0123")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("ALGORITHM", "HS512")
	t.Setenv("HISTORY_MAX_LEN", "50")
	t.Setenv("HISTORY_REPLAY", "10")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.RedisHost)
	assert.Equal(t, 3, cfg.RedisDb)
	assert.Equal(t, "HS512", cfg.Algorithm)
	assert.Equal(t, 50, cfg.HistoryMaxLen)
	assert.Equal(t, 10, cfg.HistoryReplay)
}

func TestValidateRejects(t *testing.T) {
	base := func() Config {
		return Config{
			RedisPort:                6379,
			SecretKey:                "0123456789abcdef0123",
			Algorithm:                "HS256",
			AccessTokenExpireMinutes: 30,
			BcryptCost:               12,
			HistoryMaxLen:            500,
			HistoryReplay:            100,
			MaxMessageSize:           4096,
			HttpServerPort:           8085,
			LogFormat:                "console",
		}
	}

	good := base()
	require.NoError(t, Validate(&good))

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown algorithm", func(c *Config) { c.Algorithm = "RS256" }},
		{"short secret", func(c *Config) { c.SecretKey = "short" }},
		{"replay above cap", func(c *Config) { c.HistoryReplay = 501 }},
		{"redis db out of range", func(c *Config) { c.RedisDb = 16 }},
		{"bcrypt cost too low", func(c *Config) { c.BcryptCost = 2 }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			assert.Error(t, Validate(&c))
		})
	}
}

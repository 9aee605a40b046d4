package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults with required env", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/wordle")
		t.Setenv("JWT_SECRET", "secret")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "development", cfg.Environment)
		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "postgres", cfg.DatabaseDriver)
		assert.Equal(t, "memory", cfg.LeaderboardBackend)
		assert.Equal(t, 5, cfg.SecretPickAttempts)
		assert.Equal(t, time.Hour*24*7, cfg.JWTExpiration)
		assert.Empty(t, cfg.ReplicaURLs())
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "file:wordle.db")
		t.Setenv("DATABASE_DRIVER", "sqlite")
		t.Setenv("DATABASE_REPLICA_URLS", "postgres://r1/wordle, postgres://r2/wordle,")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("PORT", "9090")
		t.Setenv("LEADERBOARD_MAX_BACKOFF", "250ms")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Port)
		assert.Equal(t, "sqlite", cfg.DatabaseDriver)
		assert.Equal(t, 250*time.Millisecond, cfg.LeaderboardMaxBackoff)
		assert.Equal(t, []string{"postgres://r1/wordle", "postgres://r2/wordle"}, cfg.ReplicaURLs())
	})

	t.Run("missing database url", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("JWT_SECRET", "secret")

		_, err := Load()
		assert.EqualError(t, err, "DATABASE_URL is required")
	})
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			DatabaseDriver:     "postgres",
			DatabaseURL:        "postgres://localhost/wordle",
			JWTSecret:          "secret",
			LeaderboardBackend: "memory",
			SecretPickAttempts: 1,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"unknown driver", func(c *Config) { c.DatabaseDriver = "mysql" }, true},
		{"unknown backend", func(c *Config) { c.LeaderboardBackend = "memcached" }, true},
		{"redis without address", func(c *Config) { c.LeaderboardBackend = "redis" }, true},
		{"redis via elasticache", func(c *Config) {
			c.LeaderboardBackend = "redis"
			c.ElastiCacheReplicationGroup = "wordle-lb"
		}, false},
		{"no pick attempts", func(c *Config) { c.SecretPickAttempts = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	// Server
	Port            int           `mapstructure:"PORT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	RateLimitRPS    float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst  int           `mapstructure:"RATE_LIMIT_BURST"`

	// Database
	DatabaseDriver      string `mapstructure:"DATABASE_DRIVER"`
	DatabaseURL         string `mapstructure:"DATABASE_URL"`
	DatabaseReplicaURLs string `mapstructure:"DATABASE_REPLICA_URLS"`

	// JWT
	JWTSecret     string        `mapstructure:"JWT_SECRET"`
	JWTExpiration time.Duration `mapstructure:"JWT_EXPIRATION"`

	// Game
	SecretPickAttempts int `mapstructure:"GAME_SECRET_PICK_ATTEMPTS"`

	// Leaderboard
	LeaderboardBackend     string        `mapstructure:"LEADERBOARD_BACKEND"`
	LeaderboardMaxAttempts int           `mapstructure:"LEADERBOARD_MAX_ATTEMPTS"`
	LeaderboardMaxBackoff  time.Duration `mapstructure:"LEADERBOARD_MAX_BACKOFF"`

	// Redis
	RedisURL                    string `mapstructure:"REDIS_URL"`
	ElastiCacheReplicationGroup string `mapstructure:"ELASTICACHE_REPLICATION_GROUP"`

	// AWS
	AWSRegion     string `mapstructure:"AWS_REGION"`
	DynamoDBTable string `mapstructure:"DYNAMODB_TABLE"`

	// Word lists, local paths or s3://bucket/key
	WordsAnswersSource string `mapstructure:"WORDS_ANSWERS_SOURCE"`
	WordsValidSource   string `mapstructure:"WORDS_VALID_SOURCE"`
}

// ReplicaURLs splits DATABASE_REPLICA_URLS on commas.
func (c *Config) ReplicaURLs() []string {
	var urls []string
	for _, u := range strings.Split(c.DatabaseReplicaURLs, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func Load() (*Config, error) {
	// A missing .env is fine; real deployments use the environment.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables take precedence
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", 8080)
	v.SetDefault("SHUTDOWN_TIMEOUT", time.Second*30)
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_REPLICA_URLS", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRATION", time.Hour*24*7)
	v.SetDefault("GAME_SECRET_PICK_ATTEMPTS", 5)
	v.SetDefault("LEADERBOARD_BACKEND", "memory")
	v.SetDefault("LEADERBOARD_MAX_ATTEMPTS", 0)
	v.SetDefault("LEADERBOARD_MAX_BACKOFF", time.Second)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("ELASTICACHE_REPLICATION_GROUP", "")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("DYNAMODB_TABLE", "wordle_leaderboard")
	v.SetDefault("WORDS_ANSWERS_SOURCE", "share/correct.json")
	v.SetDefault("WORDS_VALID_SOURCE", "share/valid.json")
	// AutomaticEnv only resolves keys viper already knows about.
	v.SetDefault("DATABASE_URL", "")
}

func fromViper(v *viper.Viper) (*Config, error) {
	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks required fields and enumerations.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", c.DatabaseDriver)
	}
	switch c.LeaderboardBackend {
	case "memory", "dynamodb":
	case "redis":
		if c.RedisURL == "" && c.ElastiCacheReplicationGroup == "" {
			return fmt.Errorf("REDIS_URL or ELASTICACHE_REPLICATION_GROUP is required for the redis leaderboard")
		}
	default:
		return fmt.Errorf("LEADERBOARD_BACKEND must be memory, redis or dynamodb, got %q", c.LeaderboardBackend)
	}
	if c.SecretPickAttempts < 1 {
		return fmt.Errorf("GAME_SECRET_PICK_ATTEMPTS must be at least 1")
	}
	return nil
}

// Command wordle serves the game, account and leaderboard API.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"wordle-go/config"
	"wordle-go/internal/auth"
	"wordle-go/internal/game"
	awsinfra "wordle-go/internal/infrastructure/aws"
	"wordle-go/internal/infrastructure/aws/elasticache"
	"wordle-go/internal/leaderboard"
	"wordle-go/internal/logging"
	"wordle-go/internal/server"
	"wordle-go/internal/storage/sqlstore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "wordle: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stdout, cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cluster, err := sqlstore.OpenCluster(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.ReplicaURLs())
	if err != nil {
		return err
	}
	defer cluster.Close()

	if err := sqlstore.Migrate(cluster.Primary); err != nil {
		return err
	}

	backend, closer, err := newLeaderboardBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	board := leaderboard.NewStore(backend, logger, leaderboard.Options{
		MaxAttempts: cfg.LeaderboardMaxAttempts,
		MaxBackoff:  cfg.LeaderboardMaxBackoff,
	})
	games := game.NewGameService(sqlstore.NewGameStore(cluster), board, logger, cfg.SecretPickAttempts)
	authService := auth.NewService(cluster.Primary, []byte(cfg.JWTSecret), cfg.JWTExpiration)

	srv := server.New(server.Config{
		Port:            cfg.Port,
		ShutdownTimeout: cfg.ShutdownTimeout,
		RateLimitRPS:    cfg.RateLimitRPS,
		RateLimitBurst:  cfg.RateLimitBurst,
	}, logger, authService, games, board)

	return srv.Run(ctx)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newLeaderboardBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (leaderboard.Backend, io.Closer, error) {
	switch cfg.LeaderboardBackend {
	case "redis":
		opts, err := redisOptions(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
		}
		logger.Info("using redis leaderboard", "addr", opts.Addr)
		return leaderboard.NewRedisBackend(client), client, nil

	case "dynamodb":
		awsCfg, err := awsinfra.NewAWSConfig(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, nil, fmt.Errorf("load aws config: %w", err)
		}
		logger.Info("using dynamodb leaderboard", "table", cfg.DynamoDBTable, "region", cfg.AWSRegion)
		return leaderboard.NewDynamoDBBackend(awsCfg.DynamoDB, cfg.DynamoDBTable), nopCloser{}, nil

	default:
		logger.Warn("using in-memory leaderboard, scores are lost on restart")
		return leaderboard.NewMemoryBackend(), nopCloser{}, nil
	}
}

// redisOptions prefers REDIS_URL and falls back to discovering the
// ElastiCache replication group endpoint.
func redisOptions(ctx context.Context, cfg *config.Config) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		return opts, nil
	}

	awsCfg, err := awsinfra.NewAWSConfig(ctx, cfg.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	addr, err := elasticache.ResolveRedisAddr(ctx, awsCfg.Cache, cfg.ElastiCacheReplicationGroup)
	if err != nil {
		return nil, err
	}
	return &redis.Options{Addr: addr}, nil
}

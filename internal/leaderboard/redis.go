package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultRankingKey = "leaderboard"
	userKeyPrefix     = "user:"
	gameFieldPrefix   = "game:"
)

// RedisBackend stores each player's scores in a hash user:<name> with fields
// game:<id>, and the ranking in a sorted set scored by mean.
type RedisBackend struct {
	client     redis.UniversalClient
	rankingKey string
}

func NewRedisBackend(client redis.UniversalClient) *RedisBackend {
	return &RedisBackend{
		client:     client,
		rankingKey: DefaultRankingKey,
	}
}

func userKey(user string) string {
	return userKeyPrefix + user
}

func (b *RedisBackend) Transact(ctx context.Context, user string, fn TransactFunc) error {
	key := userKey(user)

	err := b.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		scores, err := decodeScores(raw)
		if err != nil {
			return err
		}

		w, err := fn(scores)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, gameFieldPrefix+w.GameID, w.Score)
			pipe.ZAdd(ctx, b.rankingKey, redis.Z{Score: w.Mean, Member: user})
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return ErrConflict
	}
	return err
}

func (b *RedisBackend) Scores(ctx context.Context, user string) (map[string]int, error) {
	raw, err := b.client.HGetAll(ctx, userKey(user)).Result()
	if err != nil {
		return nil, err
	}
	return decodeScores(raw)
}

// Top relies on ZREVRANGE, so equal means come back in reverse lexicographic
// member order.
func (b *RedisBackend) Top(ctx context.Context, n int) ([]Entry, error) {
	zs, err := b.client.ZRevRangeWithScores(ctx, b.rankingKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected ranking member %v", z.Member)
		}
		entries = append(entries, Entry{User: member, Mean: z.Score})
	}
	return entries, nil
}

func decodeScores(raw map[string]string) (map[string]int, error) {
	scores := make(map[string]int, len(raw))
	for field, value := range raw {
		gameID, ok := strings.CutPrefix(field, gameFieldPrefix)
		if !ok {
			continue
		}
		score, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("score for %s: %w", field, err)
		}
		scores[gameID] = score
	}
	return scores, nil
}

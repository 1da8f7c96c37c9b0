// Package state - Redis-backed repository (the shared low-latency store)
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/luckyreel/rgs/internal/domain"
)

const touchedIndex = "state:touched"

// RedisRepository keeps records as JSON values with a TTL, plus a sorted-set
// index of last-save times driving idle eviction.
type RedisRepository struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

// NewRedisRepository creates a repository over the given client. ttl bounds
// how long an untouched record survives even if the sweeper never runs.
func NewRedisRepository(rdb redis.UniversalClient, ttl time.Duration) *RedisRepository {
	return &RedisRepository{rdb: rdb, ttl: ttl}
}

func stateKey(userID, gameID string) string {
	return "state:" + gameID + ":" + userID
}

func pairMember(userID, gameID string) string {
	return gameID + "|" + userID
}

func (r *RedisRepository) Load(ctx context.Context, userID, gameID string) (*domain.PlayerGameState, error) {
	data, err := r.rdb.Get(ctx, stateKey(userID, gameID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	var s domain.PlayerGameState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &s, nil
}

func (r *RedisRepository) Save(ctx context.Context, s *domain.PlayerGameState) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}

	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, stateKey(s.UserID, s.GameID), data, r.ttl)
	pipe.ZAdd(ctx, touchedIndex, redis.Z{
		Score:  float64(time.Now().UnixMilli()),
		Member: pairMember(s.UserID, s.GameID),
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisRepository) Delete(ctx context.Context, userID, gameID string) error {
	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, stateKey(userID, gameID))
	pipe.ZRem(ctx, touchedIndex, pairMember(userID, gameID))
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisRepository) IdlePairs(ctx context.Context, olderThan time.Time) ([]Pair, error) {
	members, err := r.rdb.ZRangeByScore(ctx, touchedIndex, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", olderThan.UnixMilli()),
	}).Result()
	if err != nil {
		return nil, err
	}

	pairs := make([]Pair, 0, len(members))
	for _, m := range members {
		gameID, userID, ok := strings.Cut(m, "|")
		if !ok {
			continue
		}
		pairs = append(pairs, Pair{UserID: userID, GameID: gameID})
	}
	return pairs, nil
}

var _ Repository = (*RedisRepository)(nil)

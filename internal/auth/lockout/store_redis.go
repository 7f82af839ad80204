package lockout

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	failuresKeyPrefix = "dossier:login:failures:"
	lockKeyPrefix     = "dossier:login:locked:"
)

// RedisStore keeps failures in a sorted set scored by unix nanoseconds, so
// the window slides across every server instance.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) LockedUntil(ctx context.Context, key string, now time.Time) (time.Time, bool, error) {
	raw, err := s.client.Get(ctx, lockKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	nanos, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, err
	}
	until := time.Unix(0, nanos)
	if !now.Before(until) {
		return time.Time{}, false, nil
	}
	return until, true, nil
}

func (s *RedisStore) RecordFailure(ctx context.Context, key string, now time.Time, window time.Duration) (int, error) {
	k := failuresKeyPrefix + key
	score := float64(now.UnixNano())
	var card *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, k, "-inf", strconv.FormatInt(now.Add(-window).UnixNano(), 10))
		pipe.ZAdd(ctx, k, redis.Z{Score: score, Member: uuid.NewString()})
		card = pipe.ZCard(ctx, k)
		pipe.Expire(ctx, k, window)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(card.Val()), nil
}

func (s *RedisStore) Lock(ctx context.Context, key string, now, until time.Time) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, lockKeyPrefix+key, strconv.FormatInt(until.UnixNano(), 10), until.Sub(now))
		pipe.Del(ctx, failuresKeyPrefix+key)
		return nil
	})
	return err
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, failuresKeyPrefix+key, lockKeyPrefix+key).Err()
}

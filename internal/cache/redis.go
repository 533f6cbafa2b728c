package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "apilot:cache:"

// RedisStore keeps entries in Redis: one key per fingerprint for O(1) exact
// lookup plus a per-owner index set driving similarity scans.
type RedisStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStore connects to Redis. ttl of zero means entries never expire.
func NewRedisStore(redisURL string, ttl time.Duration, logger *zap.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info("redis cache store connected")
	return &RedisStore{rdb: rdb, ttl: ttl, logger: logger}, nil
}

func entryKey(ownerID, fingerprint string) string {
	return keyPrefix + ownerID + ":" + fingerprint
}

func indexKey(ownerID string) string {
	return keyPrefix + "index:" + ownerID
}

// Put stores the entry and registers its fingerprint in the owner index.
func (s *RedisStore) Put(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, entryKey(e.OwnerID, e.Fingerprint), data, s.ttl)
	pipe.SAdd(ctx, indexKey(e.OwnerID), e.Fingerprint)
	if s.ttl > 0 {
		pipe.Expire(ctx, indexKey(e.OwnerID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store entry %s: %w", e.Fingerprint, err)
	}
	return nil
}

// GetByFingerprint fetches a single entry; redis.Nil maps to ErrNotFound.
func (s *RedisStore) GetByFingerprint(ctx context.Context, ownerID, fingerprint string) (Entry, error) {
	data, err := s.rdb.Get(ctx, entryKey(ownerID, fingerprint)).Bytes()
	if err == redis.Nil {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("redis get: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("decode entry %s: %w", fingerprint, err)
	}
	return e, nil
}

// ListByOwner loads all live entries from the owner index. Fingerprints
// whose entry key has expired are pruned from the index as a side effect.
func (s *RedisStore) ListByOwner(ctx context.Context, ownerID string) ([]Entry, error) {
	fps, err := s.rdb.SMembers(ctx, indexKey(ownerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	if len(fps) == 0 {
		return nil, nil
	}

	keys := make([]string, len(fps))
	for i, fp := range fps {
		keys[i] = entryKey(ownerID, fp)
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	entries := make([]Entry, 0, len(values))
	var stale []interface{}
	for i, v := range values {
		if v == nil {
			stale = append(stale, fps[i])
			continue
		}
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			s.logger.Warn("skipping corrupt cache entry",
				zap.String("fingerprint", fps[i]), zap.Error(err))
			continue
		}
		entries = append(entries, e)
	}

	if len(stale) > 0 {
		if err := s.rdb.SRem(ctx, indexKey(ownerID), stale...).Err(); err != nil {
			s.logger.Warn("pruning stale index entries failed", zap.Error(err))
		}
	}
	return entries, nil
}

// Close shuts down the Redis client.
func (s *RedisStore) Close() {
	if err := s.rdb.Close(); err != nil {
		s.logger.Warn("redis close failed", zap.Error(err))
	}
}

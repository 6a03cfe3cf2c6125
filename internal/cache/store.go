package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store caches encoded responses by key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
}

// Keys for the ledger routes that are cached.
func PeriodsKey(unitID int64) string      { return fmt.Sprintf("financials:all:%d", unitID) }
func LatestPeriodKey(unitID int64) string { return fmt.Sprintf("financials:latest:%d", unitID) }
func TransactionsKey(unitID int64) string { return fmt.Sprintf("transactions:club:%d", unitID) }

// UnitKeys lists every cached key derived from a unit's records.
func UnitKeys(unitID int64) []string {
	return []string{PeriodsKey(unitID), LatestPeriodKey(unitID), TransactionsKey(unitID)}
}

// LRUStore adapts LRUCache to Store.
type LRUStore struct {
	cache *LRUCache[[]byte]
}

func NewLRUStore(maxSize int, ttl time.Duration) *LRUStore {
	return &LRUStore{cache: NewLRUCache[[]byte](maxSize, ttl)}
}

// Cleaner exposes the underlying cache for a Manager.
func (s *LRUStore) Cleaner() Cleaner { return s.cache }

func (s *LRUStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, ok := s.cache.Get(key)
	return data, ok, nil
}

func (s *LRUStore) Set(_ context.Context, key string, data []byte) error {
	s.cache.Set(key, data)
	return nil
}

func (s *LRUStore) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		s.cache.Delete(k)
	}
	return nil
}

func (s *LRUStore) Ping(context.Context) error { return nil }

func (s *LRUStore) Close() error {
	s.cache.Clear()
	return nil
}

// RedisStore keeps entries in Redis with a fixed TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// ParseRedisURL accepts a full redis:// URL or a bare host:port.
func ParseRedisURL(raw string) (*redis.Options, error) {
	if !strings.Contains(raw, "://") {
		raw = "redis://" + raw
	}
	opt, err := redis.ParseURL(raw)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return opt, nil
}

// NewRedisStore connects and pings. Keys are namespaced with prefix.
func NewRedisStore(ctx context.Context, rawURL, prefix string, ttl time.Duration) (*RedisStore, error) {
	opt, err := ParseRedisURL(rawURL)
	if err != nil {
		return nil, err
	}
	s := &RedisStore{client: redis.NewClient(opt), prefix: prefix, ttl: ttl}
	if err := s.Ping(ctx); err != nil {
		s.client.Close()
		return nil, err
	}
	return s, nil
}

func (s *RedisStore) key(k string) string { return s.prefix + k }

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, data []byte) error {
	if err := s.client.SetEx(ctx, s.key(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

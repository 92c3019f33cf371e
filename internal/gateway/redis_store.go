package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares snapshots between processes through Redis. Each tag keeps
// a set of its snapshot keys so invalidation can drop them together.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to redisURL. ttl bounds how long an unused snapshot
// survives; zero keeps snapshots until invalidated.
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisStoreWithClient(client, ttl), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: "terramo:", ttl: ttl}
}

func (s *RedisStore) snapKey(key string) string { return s.prefix + "snap:" + key }
func (s *RedisStore) tagKey(tag Tag) string     { return s.prefix + "tag:" + string(tag) }

func (s *RedisStore) Get(ctx context.Context, key string) (Snapshot, bool, error) {
	raw, err := s.client.Get(ctx, s.snapKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("redis get snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, snap Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.snapKey(key), raw, s.ttl)
	pipe.SAdd(ctx, s.tagKey(snap.Tag), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis put snapshot: %w", err)
	}
	return nil
}

func (s *RedisStore) DropTag(ctx context.Context, tag Tag) error {
	keys, err := s.client.SMembers(ctx, s.tagKey(tag)).Result()
	if err != nil {
		return fmt.Errorf("redis list tag %s: %w", tag, err)
	}
	del := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		del = append(del, s.snapKey(k))
	}
	del = append(del, s.tagKey(tag))
	if err := s.client.Del(ctx, del...).Err(); err != nil {
		return fmt.Errorf("redis drop tag %s: %w", tag, err)
	}
	return nil
}

func (s *RedisStore) NextVersion(ctx context.Context) (uint64, error) {
	v, err := s.client.Incr(ctx, s.prefix+"version").Result()
	if err != nil {
		return 0, fmt.Errorf("redis next version: %w", err)
	}
	return uint64(v), nil
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"hmo-finder/models"
)

// redisBlobClient is the subset of *redis.Client the persister needs.
type redisBlobClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisPersister keeps the whole cache document under a single Redis key.
// Redis is only the durable blob here; the cache itself stays in-process.
type RedisPersister struct {
	client redisBlobClient
	key    string
}

// NewRedisPersister stores the cache document under key.
func NewRedisPersister(client redisBlobClient, key string) *RedisPersister {
	return &RedisPersister{client: client, key: key}
}

// DialRedis opens a client and checks it answers before handing it back.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	return rdb, nil
}

// Load returns an empty map when the key does not exist yet.
func (p *RedisPersister) Load(ctx context.Context) (map[string]models.CacheEntry, error) {
	data, err := p.client.Get(ctx, p.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return map[string]models.CacheEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get %q: %w", p.key, err)
	}
	entries, err := decodeEntries(data)
	if err != nil {
		return nil, fmt.Errorf("redis: decode %q: %w", p.key, err)
	}
	return entries, nil
}

func (p *RedisPersister) Save(ctx context.Context, entries map[string]models.CacheEntry) error {
	data, err := encodeEntries(entries)
	if err != nil {
		return fmt.Errorf("redis: encode: %w", err)
	}
	if err := p.client.Set(ctx, p.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis: set %q: %w", p.key, err)
	}
	return nil
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nikbrunner/bmsync/internal/model"
)

// DefaultRedisKey is the key holding the bookmark blob.
const DefaultRedisKey = "bm:bookmark-storage"

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration // default 5s
	PingTimeout time.Duration // default 3s
}

// DialRedis connects and pings Redis once.
func DialRedis(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = 3 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis unavailable at %s: %w", opts.Addr, err)
	}
	return client, nil
}

// RedisStorage implements Storage with a single Redis string key.
type RedisStorage struct {
	client *redis.Client
	key    string
}

// NewRedisStorage stores the blob under key (DefaultRedisKey when empty).
func NewRedisStorage(client *redis.Client, key string) *RedisStorage {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStorage{client: client, key: key}
}

// Load reads the blob. A missing key is an empty store.
func (s *RedisStorage) Load(ctx context.Context) (*model.Store, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.NewStore(), nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.key, err)
	}

	var store model.Store
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.key, err)
	}
	store.Normalize()
	return &store, nil
}

// Save overwrites the blob.
func (s *RedisStorage) Save(ctx context.Context, store *model.Store) error {
	data, err := json.Marshal(store)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.key, err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisStorage) Close() error {
	return s.client.Close()
}

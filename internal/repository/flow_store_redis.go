package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"nextstop/internal/workflow"
)

const flowKeyPrefix = "nextstop:flow:"

// RedisFlowStore shares flows between server instances. Expiry is left to
// Redis key TTLs, refreshed on every save.
type RedisFlowStore struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects and pings.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func NewRedisFlowStore(client *redis.Client, ttl time.Duration) *RedisFlowStore {
	return &RedisFlowStore{client: client, ttl: ttl}
}

func (s *RedisFlowStore) Get(ctx context.Context, id string) (*workflow.Flow, error) {
	data, err := s.client.Get(ctx, flowKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, workflow.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading flow %s: %w", id, err)
	}
	var f workflow.Flow
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding flow %s: %w", id, err)
	}
	return &f, nil
}

func (s *RedisFlowStore) Save(ctx context.Context, f *workflow.Flow) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encoding flow %s: %w", f.ID, err)
	}
	if err := s.client.Set(ctx, flowKeyPrefix+f.ID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("saving flow %s: %w", f.ID, err)
	}
	return nil
}

func (s *RedisFlowStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, flowKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("deleting flow %s: %w", id, err)
	}
	return nil
}

package config

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// RedisClient wraps the go-redis client with health checking
type RedisClient struct {
	*redis.Client
}

// ConnectRedis creates a Redis client. Returns nil when REDIS_URL is empty.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*RedisClient, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	log.Printf("✅ Redis connected [%s]", opts.Addr)
	return &RedisClient{Client: client}, nil
}

// Health checks if the Redis connection is healthy
func (c *RedisClient) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

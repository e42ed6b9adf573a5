// File: utils/cache.go
package utils

import (
	"context"
	"fmt"
	"time"

	"bloomify-scheduler/config"

	"github.com/go-redis/redis/v8"
)

// CacheClient is the schedule cache client.
var CacheClient *redis.Client

// NewRedisClient connects to the configured Redis server on the given DB and pings it.
func NewRedisClient(db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis (db %d): %w", db, err)
	}
	return client, nil
}

// InitCache initializes the schedule cache client.
func InitCache() error {
	client, err := NewRedisClient(config.AppConfig.RedisCacheDB)
	if err != nil {
		return err
	}
	CacheClient = client
	return nil
}

// Package redisstore shares client state across machines through Redis.
package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Options mirror the lease.redis config block.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient connects and pings.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}

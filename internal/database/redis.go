package database

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns a Redis client for realtime participation updates.
// Returns nil when the server is unreachable; callers degrade to poll-only
// reconciliation in that case.
func ConnectRedis(addr string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("warning: redis unreachable at %s, realtime updates disabled: %v", addr, err)
		return nil
	}

	return client
}

package config

import (
	"sync"

	"github.com/redis/go-redis/v9"
)

// SetRedisClientForTest injects a Redis client (usually a redismock instance
// or nil) into the singleton. Test use only.
func SetRedisClientForTest(client *redis.Client) {
	redisClient = client
}

// ResetRedisClientForTest clears the singleton so ConnectRedis can run again.
// Test use only.
func ResetRedisClientForTest() {
	redisClient = nil
	redisOnce = sync.Once{}
}

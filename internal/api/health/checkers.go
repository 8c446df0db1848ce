package health

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Pinger is implemented by storage backends that support ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatabaseChecker checks database connectivity.
type DatabaseChecker struct {
	pinger Pinger
}

// NewDatabaseChecker creates a new database health checker.
func NewDatabaseChecker(p Pinger) *DatabaseChecker {
	return &DatabaseChecker{pinger: p}
}

// Name returns the checker name.
func (c *DatabaseChecker) Name() string {
	return "database"
}

// Check verifies the database is accessible.
func (c *DatabaseChecker) Check(ctx context.Context) error {
	if c.pinger == nil {
		return fmt.Errorf("database not initialized")
	}
	return c.pinger.Ping(ctx)
}

// RedisChecker checks the Redis server backing the generation lock.
type RedisChecker struct {
	client redis.UniversalClient
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{client: client}
}

// Name returns the checker name.
func (c *RedisChecker) Name() string {
	return "redis"
}

// Check verifies Redis answers PING.
func (c *RedisChecker) Check(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis not configured")
	}
	return c.client.Ping(ctx).Err()
}

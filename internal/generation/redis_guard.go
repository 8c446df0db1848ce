package generation

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultLeaseTTL bounds how long a crashed replica can hold a key.
const DefaultLeaseTTL = 5 * time.Minute

// releaseScript deletes the key only while it still holds our token, so an
// expired lease taken over by another replica is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard is a FlightGuard shared by several replicas through Redis.
// Each key is a SET NX PX lease holding a random token.
type RedisGuard struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisGuard creates a guard using client. A zero ttl uses DefaultLeaseTTL.
func NewRedisGuard(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = DefaultLeaseTTL
	}
	if prefix == "" {
		prefix = "estate:flight:"
	}
	return &RedisGuard{client: client, prefix: prefix, ttl: ttl}
}

// Acquire takes the lease for key.
func (g *RedisGuard) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.New().String()
	redisKey := g.prefix + key

	ok, err := g.client.SetNX(ctx, redisKey, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire flight lease %s: %w", key, err)
	}
	if !ok {
		return nil, ErrAlreadyInProgress
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, g.client, []string{redisKey}, token).Err(); err != nil {
				log.Printf("release flight lease %s error: %v", key, err)
			}
		})
	}, nil
}

package lib

import (
	"context"
	"errors"
	"log"
	"loketkita/src/config"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

var ErrLeaseHeld = errors.New("lease is held by another instance")

func GetRedisClient() *redis.Client {
	if redisClient != nil {
		return redisClient
	}
	opt, err := redis.ParseURL(config.Load().RedisURL)
	if err != nil {
		log.Printf("[redis] Error parsing connection string: %s\n", err.Error())
		return nil
	}
	rdb := redis.NewClient(opt)
	redisClient = rdb
	return rdb
}

// NewRedisClient Replace redis instance with custom client implementation
func NewRedisClient(c *redis.Client) *redis.Client {
	redisClient = c
	return redisClient
}

// Lease is a best-effort distributed lock held in a single redis key.
type Lease struct {
	rdb   *redis.Client
	key   string
	token string
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// AcquireLease takes key for ttl. It returns ErrLeaseHeld when another
// holder already has it.
func AcquireLease(ctx context.Context, rdb *redis.Client, key string, ttl time.Duration) (*Lease, error) {
	token := uuid.NewString()
	ok, err := rdb.SetNX(ctx, leaseKey(key), token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLeaseHeld
	}
	return &Lease{rdb: rdb, key: leaseKey(key), token: token}, nil
}

// Release drops the lease if it is still ours.
func (l *Lease) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, l.rdb, []string{l.key}, l.token).Err()
}

func leaseKey(name string) string {
	return "lease:" + name
}

// WithLease runs fn while holding the named lease. Only a lease held
// elsewhere skips the run. Without a reachable redis fn runs unguarded.
func WithLease(ctx context.Context, rdb *redis.Client, name string, ttl time.Duration, fn func(context.Context) error) error {
	if rdb == nil {
		return fn(ctx)
	}
	lease, err := AcquireLease(ctx, rdb, name, ttl)
	if errors.Is(err, ErrLeaseHeld) {
		log.Printf("[redis] Skipping %s, lease held elsewhere\n", name)
		return nil
	}
	if err != nil {
		log.Printf("[redis] Error acquiring lease %s, running unguarded: %s\n", name, err.Error())
		return fn(ctx)
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			log.Printf("[redis] Error releasing lease %s: %s\n", name, err.Error())
		}
	}()
	ctx, cancel := context.WithTimeout(ctx, ttl)
	defer cancel()
	return fn(ctx)
}

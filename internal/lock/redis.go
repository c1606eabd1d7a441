package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a multi-node Locker built on SET NX PX. Each key holds a random
// token so a holder only ever deletes its own lock; TTL bounds how long a
// crashed holder can block a resource.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
	poll   time.Duration
}

func NewRedis(client *redis.Client, ttl, wait time.Duration) *Redis {
	return &Redis{
		client: client,
		prefix: "venuebook:lock:",
		ttl:    ttl,
		wait:   wait,
		poll:   25 * time.Millisecond,
	}
}

func (r *Redis) Acquire(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, r.wait)
	defer cancel()

	held := make([]string, 0, len(keys))
	for _, k := range keys {
		if err := r.lock(ctx, r.prefix+k, token); err != nil {
			r.unlockAll(held, token)
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, k, err)
		}
		held = append(held, r.prefix+k)
	}

	var once sync.Once
	return func() {
		once.Do(func() { r.unlockAll(held, token) })
	}, nil
}

func (r *Redis) lock(ctx context.Context, key, token string) error {
	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		t := time.NewTimer(r.poll)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (r *Redis) unlockAll(keys []string, token string) {
	// Release must happen even if the caller's context is gone.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := len(keys) - 1; i >= 0; i-- {
		_ = releaseScript.Run(ctx, r.client, []string{keys[i]}, token).Err()
	}
}

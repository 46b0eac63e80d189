package throttle

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// windowScript increments the window counter and starts its expiry on the
// first hit. Returns {count, pttl}.
var windowScript = redis.NewScript(`
local c = redis.call('INCR', KEYS[1])
if c == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {c, redis.call('PTTL', KEYS[1])}
`)

// Redis implements Throttle with Redis keys that expire on their own.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis returns a Redis-backed Throttle. Keys are namespaced with prefix.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "throttle:"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Cooldown(ctx context.Context, key string, d time.Duration) (bool, time.Duration, error) {
	fk := r.prefix + "cooldown:" + key

	acquired, err := r.client.SetNX(ctx, fk, 1, d).Result()
	if err != nil {
		return false, 0, err
	}
	if acquired {
		return true, 0, nil
	}

	ttl, err := r.client.PTTL(ctx, fk).Result()
	if err != nil {
		return false, 0, err
	}
	if ttl < 0 {
		ttl = d
	}

	return false, ttl, nil
}

func (r *Redis) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	fk := r.prefix + "window:" + key

	res, err := windowScript.Run(ctx, r.client, []string{fk}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(res) != 2 {
		return false, 0, errors.New("throttle: unexpected script reply")
	}

	if res[0] <= int64(limit) {
		return true, 0, nil
	}

	ttl := time.Duration(res[1]) * time.Millisecond
	if ttl < 0 {
		ttl = window
	}

	return false, ttl, nil
}

func (r *Redis) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+"cooldown:"+key, r.prefix+"window:"+key).Err()
}

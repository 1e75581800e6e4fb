package redis

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/avatarctic/vehicle-trading/go/internal/core/ports"
)

// Entries are stored as a hash so the sliding window and the absolute
// deadline survive across reads:
//
//	data    payload
//	absexp  absolute deadline, unix ms (-1 when unset)
//	sldexp  sliding window, ms (-1 when unset)
const (
	fieldData     = "data"
	fieldAbsolute = "absexp"
	fieldSliding  = "sldexp"
	notPresent    = -1
)

// getScript returns the payload and refreshes the sliding window, never past
// the absolute deadline. ARGV[1] is the caller's clock in unix ms.
var getScript = redis.NewScript(`
local v = redis.call('HMGET', KEYS[1], 'data', 'absexp', 'sldexp')
if not v[1] then
	return false
end
local now = tonumber(ARGV[1])
local abs = tonumber(v[2]) or -1
local sld = tonumber(v[3]) or -1
if abs > 0 and now >= abs then
	redis.call('DEL', KEYS[1])
	return false
end
if sld > 0 then
	local ttl = sld
	if abs > 0 and abs - now < ttl then
		ttl = abs - now
	end
	redis.call('PEXPIRE', KEYS[1], ttl)
end
return v[1]
`)

// RedisCache implements ports.Cache using a Redis client.
type RedisCache struct {
	r redis.Cmdable
	// optional key prefix to namespace entries
	prefix string
	now    func() time.Time
}

// NewRedisCache creates a new Redis-backed cache.
func NewRedisCache(r redis.Cmdable, prefix string) *RedisCache {
	return &RedisCache{r: r, prefix: prefix, now: time.Now}
}

func (c *RedisCache) namespaced(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

// Get implements Cache.Get.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ns := c.namespaced(key)
	val, err := getScript.Run(ctx, c.r, []string{ns}, c.now().UnixMilli()).Text()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(val), true, nil
}

// Set implements Cache.Set. The key TTL is the shorter of the two windows so
// Redis evicts the entry on its own even if it is never read again.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, exp ports.Expiry) error {
	ns := c.namespaced(key)
	now := c.now()
	abs, sld := int64(notPresent), int64(notPresent)
	var ttl time.Duration
	if exp.Absolute > 0 {
		abs = now.Add(exp.Absolute).UnixMilli()
		ttl = exp.Absolute
	}
	if exp.Sliding > 0 {
		sld = exp.Sliding.Milliseconds()
		if ttl == 0 || exp.Sliding < ttl {
			ttl = exp.Sliding
		}
	}
	_, err := c.r.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, ns)
		pipe.HSet(ctx, ns, fieldData, value, fieldAbsolute, abs, fieldSliding, sld)
		if ttl > 0 {
			pipe.PExpire(ctx, ns, ttl)
		}
		return nil
	})
	return err
}

// Remove implements Cache.Remove.
func (c *RedisCache) Remove(ctx context.Context, key string) error {
	ns := c.namespaced(key)
	return c.r.Del(ctx, ns).Err()
}

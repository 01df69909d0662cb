// Package cache implements the shared user cache on Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

const (
	keyPrefix        = "user:"
	generationPrefix = "usergen:"

	// generationTTL must comfortably outlive any in-flight read.
	generationTTL = 24 * time.Hour
)

// setIfCurrent stores KEYS[1] only while KEYS[2] still holds the generation
// the caller read. A missing generation reads as 0.
var setIfCurrent = redis.NewScript(`
local gen = redis.call('GET', KEYS[2])
if (gen or '0') ~= ARGV[1] then
  return 0
end
if tonumber(ARGV[3]) > 0 then
  redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
  redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

var invalidate = redis.NewScript(`
redis.call('DEL', KEYS[1])
redis.call('INCR', KEYS[2])
redis.call('PEXPIRE', KEYS[2], ARGV[1])
return 1
`)

// Client is the subset of redis.Cmdable the cache needs.
type Client interface {
	redis.Scripter
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

// RedisUserCache stores JSON-encoded users under "user:<username>" with a
// TTL and the entry's generation under "usergen:<username>".
type RedisUserCache struct {
	client Client
	ttl    time.Duration
}

func NewRedisUserCache(client Client, ttl time.Duration) *RedisUserCache {
	return &RedisUserCache{client: client, ttl: ttl}
}

// Connect parses a redis:// URL, opens a client and pings it.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, oops.Code("REDIS_URL_INVALID").Wrap(err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, oops.Code("REDIS_UNREACHABLE").With("addr", opts.Addr).Wrap(err)
	}
	return client, nil
}

func keys(username string) []string {
	return []string{keyPrefix + username, generationPrefix + username}
}

// Get returns a nil user on a miss. The generation is returned either way.
func (c *RedisUserCache) Get(ctx context.Context, username string) (*models.User, int64, error) {
	vals, err := c.client.MGet(ctx, keys(username)...).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("redis mget: %w", err)
	}
	if len(vals) != 2 {
		return nil, 0, fmt.Errorf("redis mget: %d values", len(vals))
	}

	var gen int64
	if s, ok := vals[1].(string); ok {
		if gen, err = strconv.ParseInt(s, 10, 64); err != nil {
			return nil, 0, fmt.Errorf("decode generation: %w", err)
		}
	}

	raw, ok := vals[0].(string)
	if !ok {
		return nil, gen, nil
	}
	u := &models.User{}
	if err := json.Unmarshal([]byte(raw), u); err != nil {
		return nil, 0, fmt.Errorf("decode cached user: %w", err)
	}
	return u, gen, nil
}

// Set is a no-op if the user was invalidated after generation was read.
func (c *RedisUserCache) Set(ctx context.Context, u *models.User, generation int64) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	err = setIfCurrent.Run(ctx, c.client, keys(u.Username),
		strconv.FormatInt(generation, 10), string(raw), c.ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete drops the entry and advances its generation.
func (c *RedisUserCache) Delete(ctx context.Context, username string) error {
	err := invalidate.Run(ctx, c.client, keys(username), generationTTL.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("redis invalidate: %w", err)
	}
	return nil
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Redis caches values under Prefix+key+":"+version, where the version lives
// at Prefix+key+":v" and is advanced by Invalidate. A fill racing an
// invalidation writes under the superseded version, which no later reader
// consults. A Redis outage degrades to calling the producer directly; only
// producer errors are returned.
type Redis struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
	group  singleflight.Group
}

func NewRedis(client redis.UniversalClient, prefix string, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: client, prefix: prefix, logger: logger}
}

func (c *Redis) GetOrPopulate(ctx context.Context, key string, ttl time.Duration, dest any, produce func(context.Context) (any, error)) error {
	version, err := c.version(ctx, key)
	if err != nil {
		c.logger.Warn("cache version read failed", "key", c.prefix+key, "err", err)
		return c.fill(ctx, "", ttl, dest, produce)
	}

	full := c.prefix + key + ":" + strconv.FormatInt(version, 10)
	data, err := c.client.Get(ctx, full).Bytes()
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(data, dest); jsonErr == nil {
			return nil
		}
		c.logger.Warn("cache entry undecodable, repopulating", "key", full)
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("cache read failed", "key", full, "err", err)
	}
	return c.fill(ctx, full, ttl, dest, produce)
}

// fill runs produce once per versioned key and stores the result under it.
// An empty key skips both coalescing and the write.
func (c *Redis) fill(ctx context.Context, full string, ttl time.Duration, dest any, produce func(context.Context) (any, error)) error {
	run := func() (any, error) {
		value, err := produce(ctx)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("cache: encode %s: %w", full, err)
		}
		if full == "" {
			return encoded, nil
		}
		if err := c.client.Set(ctx, full, encoded, ttl).Err(); err != nil {
			c.logger.Warn("cache write failed", "key", full, "err", err)
		}
		return encoded, nil
	}

	var (
		v   any
		err error
	)
	if full == "" {
		v, err = run()
	} else {
		v, err, _ = c.group.Do(full, run)
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(v.([]byte), dest)
}

func (c *Redis) Invalidate(ctx context.Context, key string) error {
	return c.client.Incr(ctx, c.versionKey(key)).Err()
}

func (c *Redis) version(ctx context.Context, key string) (int64, error) {
	v, err := c.client.Get(ctx, c.versionKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *Redis) versionKey(key string) string {
	return c.prefix + key + ":v"
}

// Ping is suitable as a readiness check.
func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

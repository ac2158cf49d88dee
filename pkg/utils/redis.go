package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig controls redis client behavior.
// Keep it config-driven; defaults should be safe and conservative.
type RedisConfig struct {
	Addr string

	// Basic timeouts
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Pool tuning
	PoolSize        int
	MinIdleConns    int
	PoolTimeout     time.Duration
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration

	PingTimeout time.Duration
}

func (c RedisConfig) withDefaults() RedisConfig {
	out := c
	if out.DialTimeout <= 0 {
		out.DialTimeout = 3 * time.Second
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = 2 * time.Second
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = 2 * time.Second
	}
	if out.PoolSize <= 0 {
		out.PoolSize = 20
	}
	if out.MinIdleConns < 0 {
		out.MinIdleConns = 0
	}
	if out.PoolTimeout <= 0 {
		out.PoolTimeout = 4 * time.Second
	}
	if out.ConnMaxIdleTime <= 0 {
		out.ConnMaxIdleTime = 5 * time.Minute
	}
	if out.ConnMaxLifetime <= 0 {
		out.ConnMaxLifetime = 30 * time.Minute
	}
	if out.PingTimeout <= 0 {
		out.PingTimeout = 2 * time.Second
	}
	return out
}

// OpenRedis initializes a Redis client and validates connectivity via PING.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	cfg = cfg.withDefaults()
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Addr,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		PoolTimeout:     cfg.PoolTimeout,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

var callSlotAcquireScript = redis.NewScript(`
-- KEYS[1] = per-user set of in-flight call ids
-- ARGV[1] = limit (int)
-- ARGV[2] = ttl_ms (int)
-- ARGV[3] = call id
--
-- Returns:
--  1 if acquired (or already held by this call id)
--  0 if rejected (limit reached)
if redis.call('SISMEMBER', KEYS[1], ARGV[3]) == 1 then
  return 1
end
if redis.call('SCARD', KEYS[1]) >= tonumber(ARGV[1]) then
  return 0
end
redis.call('SADD', KEYS[1], ARGV[3])
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return 1
`)

var callSlotReleaseScript = redis.NewScript(`
-- KEYS[1] = per-user set of in-flight call ids
-- ARGV[1] = call id
-- SREM of an absent member is a no-op, so duplicate releases and releases
-- for calls that never acquired a slot cannot free someone else's slot.
redis.call('SREM', KEYS[1], ARGV[1])
if redis.call('SCARD', KEYS[1]) == 0 then
  redis.call('DEL', KEYS[1])
end
return 1
`)

func callSlotKey(userID string) string {
	return "calls:active:" + userID
}

// RedisCallSlots bounds concurrent outbound calls per user. Slots are keyed
// by call id in a per-user set, so acquire and release are idempotent per
// call. The TTL prevents leaked slots on process crash or a lost provider
// callback.
type RedisCallSlots struct {
	Client *redis.Client
	Limit  int
	TTL    time.Duration
}

func (s *RedisCallSlots) limit() int {
	if s.Limit > 0 {
		return s.Limit
	}
	return 3
}

func (s *RedisCallSlots) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	// Ring timeout plus maximum call duration plus callback slack.
	return 3 * time.Minute
}

// Acquire claims a slot for one call. Returns false when the user is at the
// limit; re-acquiring for the same call id succeeds without consuming a new
// slot.
func (s *RedisCallSlots) Acquire(ctx context.Context, userID, callID string) (bool, error) {
	if s.Client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	if userID == "" || callID == "" {
		return false, fmt.Errorf("user id and call id are required")
	}
	res, err := callSlotAcquireScript.Run(ctx, s.Client,
		[]string{callSlotKey(userID)}, s.limit(), s.ttl().Milliseconds(), callID).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// Release frees the slot held by one call, if any.
func (s *RedisCallSlots) Release(ctx context.Context, userID, callID string) error {
	if s.Client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if userID == "" || callID == "" {
		return fmt.Errorf("user id and call id are required")
	}
	_, err := callSlotReleaseScript.Run(ctx, s.Client, []string{callSlotKey(userID)}, callID).Result()
	return err
}

// MarkOnce sets a flag key if absent. It returns true when this caller won the
// race, i.e. the flag was not previously set. Used to make one-shot side
// effects (cancellation notices) idempotent across duplicate requests.
func MarkOnce(ctx context.Context, rdb *redis.Client, key string, ttl time.Duration) (bool, error) {
	if rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	if key == "" {
		return false, fmt.Errorf("key is required")
	}
	return rdb.SetNX(ctx, key, "1", ttl).Result()
}

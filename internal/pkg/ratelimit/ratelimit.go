// Package ratelimit throttles repeated requests per key with a cooldown
// between requests and a cap per rolling window.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of a throttle check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter decides whether a request for key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Config sets the limits. A zero Cooldown disables the cooldown; a zero
// MaxPerWindow disables the window cap.
type Config struct {
	Prefix       string
	Cooldown     time.Duration
	Window       time.Duration
	MaxPerWindow int
}

// KEYS[1] cooldown marker, KEYS[2] window counter.
// ARGV[1] cooldown ms, ARGV[2] window ms, ARGV[3] max per window.
// Returns {allowed, retry_after_ms}.
var allowScript = redis.NewScript(`
local cooldown = redis.call('PTTL', KEYS[1])
if cooldown > 0 then
	return {0, cooldown}
end

local max = tonumber(ARGV[3])
if max > 0 then
	local count = redis.call('INCR', KEYS[2])
	if count == 1 then
		redis.call('PEXPIRE', KEYS[2], ARGV[2])
	end
	if count > max then
		return {0, redis.call('PTTL', KEYS[2])}
	end
end

if tonumber(ARGV[1]) > 0 then
	redis.call('SET', KEYS[1], '1', 'PX', ARGV[1])
end

return {1, 0}
`)

// Redis is a Limiter whose state lives in Redis; every check is one script
// call, so concurrent callers cannot slip past the limits.
type Redis struct {
	client redis.UniversalClient
	cfg    Config
}

// NewRedis returns a Redis-backed Limiter.
func NewRedis(client redis.UniversalClient, cfg Config) *Redis {
	if cfg.Prefix == "" {
		cfg.Prefix = "ratelimit"
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}

	return &Redis{client: client, cfg: cfg}
}

// Allow records a request for key and reports whether it is within limits.
func (r *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	// shared hash tag keeps both keys in one cluster slot
	base := fmt.Sprintf("%s:{%s}", r.cfg.Prefix, key)

	res, err := allowScript.Run(ctx, r.client,
		[]string{base + ":cooldown", base + ":count"},
		r.cfg.Cooldown.Milliseconds(),
		r.cfg.Window.Milliseconds(),
		r.cfg.MaxPerWindow,
	).Int64Slice()
	if err != nil {
		return Decision{}, err
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("ratelimit: unexpected script reply %v", res)
	}

	return Decision{
		Allowed:    res[0] == 1,
		RetryAfter: time.Duration(res[1]) * time.Millisecond,
	}, nil
}

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces limiter counters.
const DefaultKeyPrefix = "pshare:rl:"

// admitScript increments the window counter only when quota remains, so a
// denial leaves the counter untouched. The first admission starts the window.
var admitScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local points = tonumber(ARGV[1])
if current >= points then
  return {0, current, redis.call('PTTL', KEYS[1])}
end
current = redis.call('INCR', KEYS[1])
if current == 1 or redis.call('PTTL', KEYS[1]) < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return {1, current, redis.call('PTTL', KEYS[1])}
`)

// Redis is a fixed window limiter shared by every replica pointing at the
// same Redis instance.
type Redis struct {
	client redis.Scripter
	cfg    Config
	prefix string
}

var _ Limiter = (*Redis)(nil)

// NewRedis creates a Redis backed limiter. An empty prefix uses DefaultKeyPrefix.
func NewRedis(client redis.Scripter, cfg Config, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Redis{client: client, cfg: cfg.withDefaults(), prefix: prefix}
}

// Admit implements Limiter.
func (l *Redis) Admit(ctx context.Context, key string) (Decision, error) {
	res, err := admitScript.Run(ctx, l.client,
		[]string{l.prefix + key},
		l.cfg.Points, l.cfg.Window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("failed to run rate limit script: %w", err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("unexpected rate limit reply: %v", res)
	}

	count := int(res[1])
	if res[0] == 1 {
		remaining := l.cfg.Points - count
		if remaining < 0 {
			remaining = 0
		}
		return Decision{Allowed: true, Limit: l.cfg.Points, Remaining: remaining}, nil
	}

	retry := time.Duration(res[2]) * time.Millisecond
	if retry < time.Second {
		retry = time.Second
	}
	return Decision{Allowed: false, Limit: l.cfg.Points, Remaining: 0, RetryAfter: retry}, nil
}

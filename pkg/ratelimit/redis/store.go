// Package redis stores rate limit request logs in Redis so several API
// instances share one quota. Each identity has a sorted set of requests
// scored by timestamp and a violation counter. A Lua script prunes,
// counts and records in one step. Keys expire one window after their
// last update, which replaces the idle-log sweep.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/eyesofazrael/azrael/pkg/models"
)

const keyPrefix = "azrael:rate_limits:"

// KEYS[1]: sorted set of "<type>|<id>" members scored by epoch millis
// KEYS[2]: violation counter
// ARGV: now, cutoff, type, limit, max violations, ttl millis, member
//
// Returns {allowed, count, violations, block}.
var recordScript = goredis.NewScript(`
local key = KEYS[1]
local vkey = KEYS[2]
local limit = tonumber(ARGV[4])
local maxv = tonumber(ARGV[5])

redis.call('ZREMRANGEBYSCORE', key, '-inf', ARGV[2])

local prefix = ARGV[3] .. '|'
local count = 0
for _, m in ipairs(redis.call('ZRANGE', key, 0, -1)) do
  if string.sub(m, 1, #prefix) == prefix then
    count = count + 1
  end
end

local allowed = 0
local block = 0
local violations = tonumber(redis.call('GET', vkey) or '0')

if count < limit then
  redis.call('ZADD', key, ARGV[1], ARGV[7])
  allowed = 1
elseif maxv > 0 then
  violations = violations + 1
  if violations >= maxv then
    violations = 0
    block = 1
  end
  redis.call('SET', vkey, violations)
end

redis.call('PEXPIRE', key, ARGV[6])
redis.call('PEXPIRE', vkey, ARGV[6])
return {allowed, count, violations, block}
`)

// Requests is a ratelimit.RequestRepository on Redis.
type Requests struct {
	client *goredis.Client
	window time.Duration
}

// New returns a Requests store. Logs expire window after their last update.
func New(client *goredis.Client, window time.Duration) *Requests {
	return &Requests{client: client, window: window}
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return client, nil
}

func (r *Requests) Record(ctx context.Context, a models.RequestAttempt) (models.AttemptOutcome, error) {
	ttl := r.window.Milliseconds()
	if ttl < 1 {
		ttl = 1
	}
	key := keyPrefix + a.Identifier
	member := a.Type + "|" + uuid.NewString()

	vals, err := recordScript.Run(ctx, r.client, []string{key, key + ":violations"},
		a.Now, a.Cutoff, a.Type, a.Limit, a.MaxViolations, ttl, member,
	).Int64Slice()
	if err != nil {
		return models.AttemptOutcome{}, fmt.Errorf("redis record %s: %w", a.Identifier, err)
	}
	if len(vals) != 4 {
		return models.AttemptOutcome{}, fmt.Errorf("redis record %s: unexpected reply %v", a.Identifier, vals)
	}
	return models.AttemptOutcome{
		Allowed:    vals[0] == 1,
		Count:      int(vals[1]),
		Violations: int(vals[2]),
		Block:      vals[3] == 1,
	}, nil
}

// DeleteIdle is a no-op; idle keys expire on their own.
func (r *Requests) DeleteIdle(context.Context, int64) (int64, error) {
	return 0, nil
}

package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-ops/internal/config"
	"github.com/iliyamo/event-ops/internal/model"
)

// bucketScript refills KEYS[1] by whole intervals and then tries to take
// ARGV[6] tokens.  It returns {allowed, remaining, retry_after_ms}.
var bucketScript = redis.NewScript(`
local key      = KEYS[1]
local now      = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill   = tonumber(ARGV[3])
local interval = tonumber(ARGV[4])
local ttl      = tonumber(ARGV[5])
local cost     = tonumber(ARGV[6])

local st = redis.call('HMGET', key, 'tokens', 'at')
local tokens = tonumber(st[1]) or capacity
local at = tonumber(st[2]) or now

local steps = math.floor(math.max(0, now - at) / interval)
if steps > 0 then
	tokens = math.min(capacity, tokens + steps * refill)
	at = at + steps * interval
end

local allowed, retry = 0, 0
if tokens >= cost then
	allowed = 1
	tokens = tokens - cost
else
	local missing = math.ceil((cost - tokens) / refill)
	retry = math.max(0, missing * interval - (now - at))
end

redis.call('HSET', key, 'tokens', tokens, 'at', at)
redis.call('EXPIRE', key, ttl)
return {allowed, tokens, retry}
`)

type bucketResult struct {
	allowed   bool
	remaining int64
	retry     time.Duration
}

func parseBucket(v any) (bucketResult, bool) {
	arr, ok := v.([]any)
	if !ok || len(arr) != 3 {
		return bucketResult{}, false
	}
	return bucketResult{
		allowed:   asInt64(arr[0]) == 1,
		remaining: asInt64(arr[1]),
		retry:     time.Duration(asInt64(arr[2])) * time.Millisecond,
	}, true
}

// NewTokenBucket limits requests per key with a token bucket kept in Redis,
// so every API instance draws from the same bucket.  Writes cost
// cfg.WriteCost tokens, reads one.  A Redis failure lets the request
// through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			cost := 1
			if isWrite(c.Request().Method) && cfg.WriteCost > 1 {
				cost = min(cfg.WriteCost, cfg.Capacity)
			}
			v, err := bucketScript.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL/time.Second),
				cost,
			).Result()
			if err != nil {
				c.Logger().Warnf("[ratelimit] redis error for key=%s: %v", key, err)
				return next(c)
			}
			res, ok := parseBucket(v)
			if !ok {
				c.Logger().Warnf("[ratelimit] unexpected script result for key=%s: %#v", key, v)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if res.allowed {
				return next(c)
			}

			secs := int(math.Ceil(res.retry.Seconds()))
			h.Set("Retry-After", strconv.Itoa(secs))
			if cfg.Debug {
				c.Logger().Infof("[ratelimit] block key=%s cost=%d retry=%s", key, cost, res.retry)
			}
			return c.JSON(http.StatusTooManyRequests, model.Error{
				Code:    model.CodeUnavailable,
				Message: fmt.Sprintf("rate limit exceeded, retry in %ds", secs),
			})
		}
	}
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	}
	return 0
}

// buildRateKey joins the prefix with the parts named by the key strategy,
// e.g. "ip_user" -> prefix:ip:<ip>:user:<uid>.  Unknown parts are ignored;
// an empty result falls back to ip, user and route.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	values := map[string]func() string{
		"ip": func() string {
			if ip := c.RealIP(); ip != "" {
				return ip
			}
			return "unknown"
		},
		"user":  func() string { return currentUserID(c) },
		"route": func() string { return c.Request().Method + " " + c.Path() },
	}
	parts := []string{cfg.Prefix}
	for _, name := range strings.Split(strings.ToLower(cfg.KeyStrategy), "_") {
		if fn, ok := values[name]; ok {
			parts = append(parts, name, fn())
		}
	}
	if len(parts) == 1 {
		for _, name := range []string{"ip", "user", "route"} {
			parts = append(parts, name, values[name]())
		}
	}
	return strings.Join(parts, ":")
}

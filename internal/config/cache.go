package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware.
// Methods lists the HTTP methods to cache.  KeyStrategy determines which
// parts of the request contribute to the key.  InvalidateOnWrite purges
// every cached entry under Prefix after a successful mutating request, so a
// client that writes and then reads sees its own write.
type CacheConfig struct {
	Enabled           bool
	Methods           map[string]bool
	TTL               time.Duration
	KeyStrategy       string
	Prefix            string
	MaxBodyBytes      int
	InvalidateOnWrite bool
}

// LoadCacheConfig reads CACHE_* variables with defaults.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:           envBool("CACHE_ENABLED", true),
		Methods:           parseMethods(envStr("CACHE_METHODS", "GET")),
		TTL:               envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:       envStr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:            envStr("CACHE_PREFIX", "eventops:cache"),
		MaxBodyBytes:      envInt("CACHE_MAX_BODY_BYTES", 1<<20),
		InvalidateOnWrite: envBool("CACHE_INVALIDATE_ON_WRITE", true),
	}
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}

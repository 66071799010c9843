package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig describes one token bucket. The API runs two: a global
// per-IP bucket and a stricter one on the login route.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

// DefaultRateLimit allows 300 requests per 5 minutes per IP.
var DefaultRateLimit = RateLimitConfig{
	Enabled:        true,
	Capacity:       300,
	RefillTokens:   300,
	RefillInterval: 5 * time.Minute,
	KeyStrategy:    "ip",
	Prefix:         "rl",
}

// DefaultLoginRateLimit allows 5 login attempts per 20 seconds per IP.
var DefaultLoginRateLimit = RateLimitConfig{
	Enabled:        true,
	Capacity:       5,
	RefillTokens:   5,
	RefillInterval: 20 * time.Second,
	KeyStrategy:    "ip",
	Prefix:         "rl:login",
}

// LoadRateLimitConfig reads <prefix>_ENABLED, <prefix>_CAPACITY,
// <prefix>_REFILL_TOKENS, <prefix>_REFILL_INTERVAL, <prefix>_TTL,
// <prefix>_KEY_STRATEGY, <prefix>_PREFIX and <prefix>_DEBUG over def.
func LoadRateLimitConfig(prefix string, def RateLimitConfig) RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        envBool(prefix+"_ENABLED", def.Enabled),
		Capacity:       envInt(prefix+"_CAPACITY", def.Capacity),
		RefillTokens:   envInt(prefix+"_REFILL_TOKENS", def.RefillTokens),
		RefillInterval: envDur(prefix+"_REFILL_INTERVAL", def.RefillInterval),
		TTL:            envDur(prefix+"_TTL", def.TTL),
		KeyStrategy:    envStr(prefix+"_KEY_STRATEGY", def.KeyStrategy),
		Prefix:         envStr(prefix+"_PREFIX", def.Prefix),
		Debug:          envBool(prefix+"_DEBUG", def.Debug),
	}
	return cfg.normalized()
}

func (c RateLimitConfig) normalized() RateLimitConfig {
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.RefillTokens < 1 {
		c.RefillTokens = 1
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	if minTTL := 2 * c.RefillInterval; c.TTL < minTTL {
		c.TTL = minTTL
	}
	return c
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}

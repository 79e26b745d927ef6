package config

import "time"

// CacheConfig defines settings for the catalog response cache. Only
// GET responses are cached, and the TTL defaults to a few seconds:
// the availability view must never lag far behind the claim store,
// and connected clients converge through the event stream anyway.
// When Enabled is false or no Redis client is configured, caching is
// disabled and reads go straight to the store.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads the CACHE_* environment variables.
func LoadCacheConfig() CacheConfig {
	cfg := CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 3*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 3 * time.Second
	}
	return cfg
}

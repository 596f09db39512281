// Package config loads the edge and origin process configuration from YAML
// with ${ENV_VAR} expansion, so every knob can be environment-provided.
package config

import (
	"strconv"
	"time"
)

// DefaultCacheTTLSeconds is applied when the TTL is unset or non-numeric.
const DefaultCacheTTLSeconds = 3600

// DefaultBypassPrefixes are path prefixes the edge never caches. The list
// is a correctness boundary: caching an authenticated or state-mutating
// response is a security defect.
var DefaultBypassPrefixes = []string{"/app", "/sign_in", "/sign_out", "/auth", "/api"}

// EdgeConfig configures the edge cache gateway process.
type EdgeConfig struct {
	Listen     string        `yaml:"listen"`
	OriginURL  string        `yaml:"origin_url"`
	BaseDomain string        `yaml:"base_domain"`
	Cache      CacheConfig   `yaml:"cache"`
	Redis      RedisConfig   `yaml:"redis"`
	// BypassPrefixes overrides DefaultBypassPrefixes when non-empty.
	BypassPrefixes []string      `yaml:"bypass_prefixes"`
	Metrics        MetricsConfig `yaml:"metrics"`
	Logging        LoggingConfig `yaml:"logging"`
}

// CacheConfig configures the edge response cache.
type CacheConfig struct {
	// TTLSeconds is kept as a string so an unset or non-numeric value
	// (e.g. an unexpanded environment variable) falls back to the default
	// instead of failing the load.
	TTLSeconds string `yaml:"ttl_seconds"`
	MaxEntries int    `yaml:"max_entries"`
	// Mode selects the store backend: "memory" (default) or "distributed".
	Mode string `yaml:"mode"`
}

// TTL returns the configured time-to-live, defaulting to one hour.
func (c CacheConfig) TTL() time.Duration {
	secs, err := strconv.Atoi(c.TTLSeconds)
	if err != nil || secs <= 0 {
		secs = DefaultCacheTTLSeconds
	}
	return time.Duration(secs) * time.Second
}

// RedisConfig configures the distributed cache backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MetricsConfig configures the Prometheus scrape listener.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// OriginConfig configures the origin server process.
type OriginConfig struct {
	Listen      string        `yaml:"listen"`
	BaseDomain  string        `yaml:"base_domain"`
	DatabaseURL string        `yaml:"database_url"`
	Auth        AuthConfig    `yaml:"auth"`
	Metrics     MetricsConfig `yaml:"metrics"`
	Logging     LoggingConfig `yaml:"logging"`
}

// AuthConfig points at the external auth/session service.
type AuthConfig struct {
	// BaseURL of the auth service, e.g. "https://auth.internal".
	BaseURL string `yaml:"base_url"`
	// JWTSecret verifies the session token signature locally before the
	// remote revalidation round trip.
	JWTSecret string `yaml:"jwt_secret"`
	// CookieName carrying the session token. Defaults to "session_token".
	CookieName string `yaml:"cookie_name"`
}

// DefaultEdgeConfig returns an EdgeConfig with defaults applied.
func DefaultEdgeConfig() *EdgeConfig {
	return &EdgeConfig{
		Listen: ":8080",
		Cache: CacheConfig{
			MaxEntries: 10000,
			Mode:       "memory",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// DefaultOriginConfig returns an OriginConfig with defaults applied.
func DefaultOriginConfig() *OriginConfig {
	return &OriginConfig{
		Listen:  ":8090",
		Auth:    AuthConfig{CookieName: "session_token"},
		Logging: LoggingConfig{Level: "info"},
	}
}

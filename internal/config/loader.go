package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/goccy/go-yaml"
)

// Loader handles configuration loading and parsing.
type Loader struct {
	envPattern *regexp.Regexp
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		envPattern: regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`),
	}
}

// LoadEdge reads and parses an edge gateway configuration file.
func (l *Loader) LoadEdge(path string) (*EdgeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return l.ParseEdge(data)
}

// ParseEdge parses edge configuration from YAML bytes.
func (l *Loader) ParseEdge(data []byte) (*EdgeConfig, error) {
	cfg := DefaultEdgeConfig()
	if err := yaml.Unmarshal([]byte(l.expandEnvVars(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(cfg.BypassPrefixes) == 0 {
		cfg.BypassPrefixes = append([]string(nil), DefaultBypassPrefixes...)
	}

	if err := l.validateEdge(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadOrigin reads and parses an origin server configuration file.
func (l *Loader) LoadOrigin(path string) (*OriginConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return l.ParseOrigin(data)
}

// ParseOrigin parses origin configuration from YAML bytes.
func (l *Loader) ParseOrigin(data []byte) (*OriginConfig, error) {
	cfg := DefaultOriginConfig()
	if err := yaml.Unmarshal([]byte(l.expandEnvVars(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "session_token"
	}

	if err := l.validateOrigin(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) validateEdge(cfg *EdgeConfig) error {
	if cfg.BaseDomain == "" {
		return fmt.Errorf("base_domain is required")
	}
	if cfg.OriginURL == "" {
		return fmt.Errorf("origin_url is required")
	}
	if cfg.Cache.Mode != "" && cfg.Cache.Mode != "memory" && cfg.Cache.Mode != "distributed" {
		return fmt.Errorf("cache.mode must be \"memory\" or \"distributed\", got %q", cfg.Cache.Mode)
	}
	if cfg.Cache.Mode == "distributed" && cfg.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required for distributed cache mode")
	}
	return nil
}

func (l *Loader) validateOrigin(cfg *OriginConfig) error {
	if cfg.BaseDomain == "" {
		return fmt.Errorf("base_domain is required")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database_url is required")
	}
	return nil
}

// expandEnvVars replaces ${VAR} references with environment values. Unset
// variables expand to the empty string.
func (l *Loader) expandEnvVars(s string) string {
	return l.envPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := l.envPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}

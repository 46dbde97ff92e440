package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

type Config struct {
	Exchange ExchangeConfig `yaml:"exchange"`
	Sessions SessionsConfig `yaml:"sessions"`
	Cache    CacheConfig    `yaml:"cache"`
	Audit    AuditConfig    `yaml:"audit"`
	Server   ServerConfig   `yaml:"server"`
}

// ExchangeConfig holds configuration for the downstream exchange endpoint.
type ExchangeConfig struct {
	Name   string         `yaml:"name"`
	Type   string         `yaml:"type"`    // e.g., "oauth2", "static"
	Config map[string]any `yaml:",inline"` // Capture remaining fields
}

// SessionsConfig holds configuration for upstream session resolution.
type SessionsConfig struct {
	// ProviderAliases are the upstream provider names tried, in order, when
	// resolving a user's session. Different deployments label the same IdP
	// differently (e.g. "okta" vs "oidc").
	ProviderAliases []string `yaml:"provider_aliases"`
}

// CacheConfig holds configuration for the downstream token cache.
type CacheConfig struct {
	// TTL is the time-to-live for cached tokens. Zero means the default (1h).
	TTL time.Duration `yaml:"ttl"`

	// SweepInterval enables the periodic background sweep when positive.
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// AuditConfig holds configuration for auditing.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Type    string `yaml:"type"` // e.g., "file", "memory"
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	// SigningKey is the HMAC key used to verify admin session tokens.
	// Supports ${ENV} expansion.
	SigningKey string `yaml:"signing_key"`
}

// Load reads and parses the configuration file at the given path.
// It returns a Config struct or an error if loading/parsing/validation fails.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.expandEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}
	return &cfg, nil
}

// expandEnv resolves ${VAR} references in secret-bearing fields so credentials
// never have to live in the config file itself.
func (c *Config) expandEnv() {
	for key, val := range c.Exchange.Config {
		if s, ok := val.(string); ok {
			c.Exchange.Config[key] = os.ExpandEnv(s)
		}
	}
	c.Server.SigningKey = os.ExpandEnv(c.Server.SigningKey)
}

func (c *Config) Validate() error {
	if c.Exchange.Name == "" {
		return fmt.Errorf("exchange has empty name")
	}
	if c.Exchange.Type == "" {
		return fmt.Errorf("exchange '%s' has empty type", c.Exchange.Name)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}
	if c.Cache.SweepInterval < 0 {
		return fmt.Errorf("cache sweep_interval must not be negative")
	}
	if c.Audit.Enabled && c.Audit.Type == "file" && c.Audit.Path == "" {
		return fmt.Errorf("file audit requires a path")
	}
	return nil
}

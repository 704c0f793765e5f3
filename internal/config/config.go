package config

import (
	"time"

	"github.com/ninjaexa/ninjaexa/internal/core/ratelimit"
)

// Config represents the complete application configuration, built once at
// startup and passed to every component that needs it.
// Layer 1: compiled defaults (SetDefaults)
// Layer 2: user overrides ($XDG_CONFIG_HOME/ninjaexa/config.yaml, ./config, --config)
// Layer 3: NINJAEXA_* environment variables and runtime overrides
type Config struct {
	RateLimit ratelimit.Config `mapstructure:"rate_limit"`
	StateFile string           `mapstructure:"state_file"`
	API       APIConfig        `mapstructure:"api"`
	Logging   LoggingConfig    `mapstructure:"logging"`
}

// APIConfig contains Exa endpoint configuration.
type APIConfig struct {
	MCPURL    string        `mapstructure:"mcp_url"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`

	// KeyCacheFile holds a discovered API key for KeyCacheTTL.
	KeyCacheFile string        `mapstructure:"key_cache_file"`
	KeyCacheTTL  time.Duration `mapstructure:"key_cache_ttl"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: debug, info, warn, error
	Level string `mapstructure:"level"`
}

// Package config provides centralized configuration management for ninjaexa.
// Defaults are compiled in, a YAML file may override them, and NINJAEXA_*
// environment variables override both.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/ninjaexa/ninjaexa/internal/core/ratelimit"
)

const (
	// AppName is used for XDG directories and the config file name.
	AppName = "ninjaexa"

	DefaultMCPURL  = "https://mcp.exa.ai/mcp"
	DefaultBaseURL = "https://api.exa.ai"
)

// Truthy decodes "1", "true" and "yes" (any case) as true and anything else
// as false.
type Truthy bool

// Decode implements envconfig.Decoder.
func (t *Truthy) Decode(value string) error {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		*t = true
	default:
		*t = false
	}
	return nil
}

// envOverrides maps NINJAEXA_* variables. Tags carry the full name and are
// processed without a prefix, so envconfig never falls back to bare names
// such as STATE_FILE. Pointer fields stay nil when the variable is unset so
// file values survive.
type envOverrides struct {
	PerMinute   *int   `envconfig:"NINJAEXA_RATE_PER_MIN"`
	Per10Min    *int   `envconfig:"NINJAEXA_RATE_PER_10MIN"`
	PerHour     *int   `envconfig:"NINJAEXA_RATE_PER_HOUR"`
	PerDay      *int   `envconfig:"NINJAEXA_RATE_PER_DAY"`
	StateFile   string `envconfig:"NINJAEXA_STATE_FILE"`
	NoRateLimit Truthy `envconfig:"NINJAEXA_NO_RATE_LIMIT"`
}

// SetDefaults registers compiled defaults on v.
func SetDefaults(v *viper.Viper) {
	rl := ratelimit.DefaultConfig()
	v.SetDefault("rate_limit.per_minute", rl.PerMinute)
	v.SetDefault("rate_limit.per_10min", rl.Per10Min)
	v.SetDefault("rate_limit.per_hour", rl.PerHour)
	v.SetDefault("rate_limit.per_day", rl.PerDay)
	v.SetDefault("rate_limit.base_penalty", rl.BasePenalty.String())
	v.SetDefault("rate_limit.max_penalty", rl.MaxPenalty.String())
	v.SetDefault("rate_limit.penalty_multiplier", rl.PenaltyMultiplier)
	v.SetDefault("rate_limit.decay_period", rl.DecayPeriod.String())
	v.SetDefault("rate_limit.warning_ratio", rl.WarningRatio)
	v.SetDefault("rate_limit.delay_ratio", rl.DelayRatio)
	v.SetDefault("rate_limit.disabled", false)

	v.SetDefault("state_file", DefaultStatePath())

	v.SetDefault("api.mcp_url", DefaultMCPURL)
	v.SetDefault("api.base_url", DefaultBaseURL)
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.user_agent", AppName)
	v.SetDefault("api.key_cache_file", DefaultKeyCachePath())
	v.SetDefault("api.key_cache_ttl", "24h")

	v.SetDefault("logging.level", "info")
}

// Load decodes v into a Config, applies environment and runtime overrides and
// validates the result. Any fault here is a configuration error.
func Load(ctx context.Context, v *viper.Viper, runtimeOverrides ...map[string]any) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)

	for _, override := range runtimeOverrides {
		if err := v.MergeConfigMap(override); err != nil {
			return nil, fmt.Errorf("failed to apply runtime overrides: %w", err)
		}
	}

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToFloat64HookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.StateFile = expandHome(strings.TrimSpace(cfg.StateFile))
	if cfg.StateFile == "" {
		cfg.StateFile = DefaultStatePath()
	}
	cfg.API.KeyCacheFile = expandHome(strings.TrimSpace(cfg.API.KeyCacheFile))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports invalid settings.
func (c *Config) Validate() error {
	var errs []error
	if err := c.RateLimit.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("rate_limit: %w", err))
	}
	if strings.TrimSpace(c.API.MCPURL) == "" {
		errs = append(errs, errors.New("api.mcp_url is required"))
	}
	if strings.TrimSpace(c.API.BaseURL) == "" {
		errs = append(errs, errors.New("api.base_url is required"))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "trace", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	return errors.Join(errs...)
}

func applyEnvOverrides(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}

	if env.PerMinute != nil {
		cfg.RateLimit.PerMinute = *env.PerMinute
	}
	if env.Per10Min != nil {
		cfg.RateLimit.Per10Min = *env.Per10Min
	}
	if env.PerHour != nil {
		cfg.RateLimit.PerHour = *env.PerHour
	}
	if env.PerDay != nil {
		cfg.RateLimit.PerDay = *env.PerDay
	}
	if env.NoRateLimit {
		cfg.RateLimit.Disabled = true
	}
	if env.StateFile != "" {
		cfg.StateFile = env.StateFile
	}
	return nil
}

// LoadDotEnv loads KEY=value pairs from a .env file in the working directory
// without overriding variables that are already set. A missing file is not an
// error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath() string {
	configDir := gfconfig.GetAppConfigDir(AppName)
	if strings.TrimSpace(configDir) == "" {
		return ""
	}
	return filepath.Join(configDir, "config.yaml")
}

// DefaultStatePath returns ~/.cache/ninjaexa_rate_state.json, falling back to
// the XDG cache directory when the home directory is unknown.
func DefaultStatePath() string {
	return cacheFile("ninjaexa_rate_state.json")
}

// DefaultKeyCachePath returns ~/.cache/ninjaexa_api_key.
func DefaultKeyCachePath() string {
	return cacheFile("ninjaexa_api_key")
}

func cacheFile(name string) string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".cache", name)
	}
	if dir := gfconfig.GetAppCacheDir(AppName); strings.TrimSpace(dir) != "" {
		return filepath.Join(dir, name)
	}
	return name
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("LoadDefaults", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)

		cfg, err := Load(ctx, viper.New())
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, 15, cfg.RateLimit.PerMinute)
		assert.Equal(t, 60, cfg.RateLimit.Per10Min)
		assert.Equal(t, 200, cfg.RateLimit.PerHour)
		assert.Equal(t, 1000, cfg.RateLimit.PerDay)
		assert.Equal(t, 3*time.Second, cfg.RateLimit.BasePenalty)
		assert.Equal(t, 600*time.Second, cfg.RateLimit.MaxPenalty)
		assert.Equal(t, 2.0, cfg.RateLimit.PenaltyMultiplier)
		assert.Equal(t, 10*time.Minute, cfg.RateLimit.DecayPeriod)
		assert.Equal(t, 1.5, cfg.RateLimit.WarningRatio)
		assert.Equal(t, 2.0, cfg.RateLimit.DelayRatio)
		assert.False(t, cfg.RateLimit.Disabled)

		assert.Equal(t, filepath.Join(home, ".cache", "ninjaexa_rate_state.json"), cfg.StateFile)
		assert.Equal(t, filepath.Join(home, ".cache", "ninjaexa_api_key"), cfg.API.KeyCacheFile)
		assert.Equal(t, 24*time.Hour, cfg.API.KeyCacheTTL)
		assert.Equal(t, DefaultMCPURL, cfg.API.MCPURL)
		assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
		assert.Equal(t, 30*time.Second, cfg.API.Timeout)
		assert.Equal(t, "info", cfg.Logging.Level)
	})

	t.Run("ConfigFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
rate_limit:
  per_minute: 5
  decay_period: 2m
  penalty_multiplier: 3
state_file: ~/state.json
api:
  timeout: 45s
`), 0o600))

		home := t.TempDir()
		t.Setenv("HOME", home)

		v := viper.New()
		v.SetConfigFile(path)
		require.NoError(t, v.ReadInConfig())

		cfg, err := Load(ctx, v)
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.RateLimit.PerMinute)
		assert.Equal(t, 60, cfg.RateLimit.Per10Min)
		assert.Equal(t, 2*time.Minute, cfg.RateLimit.DecayPeriod)
		assert.Equal(t, 3.0, cfg.RateLimit.PenaltyMultiplier)
		assert.Equal(t, 45*time.Second, cfg.API.Timeout)
		assert.Equal(t, filepath.Join(home, "state.json"), cfg.StateFile)
	})

	t.Run("EnvOverrides", func(t *testing.T) {
		t.Setenv("NINJAEXA_RATE_PER_MIN", "30")
		t.Setenv("NINJAEXA_RATE_PER_10MIN", "120")
		t.Setenv("NINJAEXA_RATE_PER_HOUR", "400")
		t.Setenv("NINJAEXA_RATE_PER_DAY", "2000")
		t.Setenv("NINJAEXA_STATE_FILE", "/tmp/custom-state.json")

		cfg, err := Load(ctx, viper.New())
		require.NoError(t, err)
		assert.Equal(t, 30, cfg.RateLimit.PerMinute)
		assert.Equal(t, 120, cfg.RateLimit.Per10Min)
		assert.Equal(t, 400, cfg.RateLimit.PerHour)
		assert.Equal(t, 2000, cfg.RateLimit.PerDay)
		assert.Equal(t, "/tmp/custom-state.json", cfg.StateFile)
	})

	t.Run("EnvBeatsConfigFile", func(t *testing.T) {
		t.Setenv("NINJAEXA_RATE_PER_MIN", "7")

		v := viper.New()
		require.NoError(t, v.MergeConfigMap(map[string]any{
			"rate_limit": map[string]any{"per_minute": 99, "per_hour": 150},
		}))

		cfg, err := Load(ctx, v)
		require.NoError(t, err)
		assert.Equal(t, 7, cfg.RateLimit.PerMinute)
		assert.Equal(t, 150, cfg.RateLimit.PerHour)
	})

	t.Run("RuntimeOverrides", func(t *testing.T) {
		overrides := map[string]any{
			"logging": map[string]any{"level": "debug"},
			"api":     map[string]any{"mcp_url": "http://127.0.0.1:9/mcp"},
		}

		cfg, err := Load(ctx, viper.New(), overrides)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, "http://127.0.0.1:9/mcp", cfg.API.MCPURL)
		assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	})

	t.Run("NonNumericLimitFailsFast", func(t *testing.T) {
		t.Setenv("NINJAEXA_RATE_PER_HOUR", "lots")

		_, err := Load(ctx, viper.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid environment override")
	})

	t.Run("InvalidLimitFailsFast", func(t *testing.T) {
		t.Setenv("NINJAEXA_RATE_PER_MIN", "0")

		_, err := Load(ctx, viper.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "per_minute")
	})

	t.Run("InvalidLogLevel", func(t *testing.T) {
		_, err := Load(ctx, viper.New(), map[string]any{"logging": map[string]any{"level": "loud"}})
		require.ErrorContains(t, err, "logging.level")
	})

	t.Run("UnprefixedEnvIgnored", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		t.Setenv("STATE_FILE", "/tmp/someone_elses_state")
		t.Setenv("RATE_PER_MIN", "1")
		t.Setenv("RATE_PER_10MIN", "2")
		t.Setenv("RATE_PER_HOUR", "3")
		t.Setenv("RATE_PER_DAY", "4")
		t.Setenv("NO_RATE_LIMIT", "1")

		cfg, err := Load(ctx, viper.New())
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(home, ".cache", "ninjaexa_rate_state.json"), cfg.StateFile)
		assert.Equal(t, 15, cfg.RateLimit.PerMinute)
		assert.Equal(t, 60, cfg.RateLimit.Per10Min)
		assert.Equal(t, 200, cfg.RateLimit.PerHour)
		assert.Equal(t, 1000, cfg.RateLimit.PerDay)
		assert.False(t, cfg.RateLimit.Disabled)
	})

	t.Run("TraceLogLevelAccepted", func(t *testing.T) {
		cfg, err := Load(ctx, viper.New(), map[string]any{"logging": map[string]any{"level": "trace"}})
		require.NoError(t, err)
		assert.Equal(t, "trace", cfg.Logging.Level)
	})
}

func TestNoRateLimitEnv(t *testing.T) {
	ctx := context.Background()

	cases := map[string]bool{
		"1":     true,
		"true":  true,
		"TRUE":  true,
		"yes":   true,
		"Yes":   true,
		"0":     false,
		"false": false,
		"no":    false,
		"":      false,
		"on":    false,
	}
	for value, want := range cases {
		t.Run("value="+value, func(t *testing.T) {
			t.Setenv("NINJAEXA_NO_RATE_LIMIT", value)

			cfg, err := Load(ctx, viper.New())
			require.NoError(t, err)
			assert.Equal(t, want, cfg.RateLimit.Disabled)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("NINJAEXA_TEST_DOTENV=from-file\nNINJAEXA_TEST_PRESET=from-file\n"), 0o600))

	t.Setenv("NINJAEXA_TEST_PRESET", "from-env")
	t.Setenv("NINJAEXA_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("NINJAEXA_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("NINJAEXA_TEST_DOTENV"))
	assert.Equal(t, "from-env", os.Getenv("NINJAEXA_TEST_PRESET"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path := DefaultConfigPath()
	require.NotEmpty(t, path)
	assert.Equal(t, "config.yaml", filepath.Base(path))
	assert.Contains(t, path, AppName)
}

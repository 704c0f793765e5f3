package ratelimit

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jpillora/backoff"
)

// Config holds limiter thresholds and backoff tuning.
type Config struct {
	PerMinute int `mapstructure:"per_minute" json:"per_minute" yaml:"per_minute"`
	Per10Min  int `mapstructure:"per_10min" json:"per_10min" yaml:"per_10min"`
	PerHour   int `mapstructure:"per_hour" json:"per_hour" yaml:"per_hour"`
	PerDay    int `mapstructure:"per_day" json:"per_day" yaml:"per_day"`

	BasePenalty       time.Duration `mapstructure:"base_penalty" json:"base_penalty" yaml:"base_penalty"`
	MaxPenalty        time.Duration `mapstructure:"max_penalty" json:"max_penalty" yaml:"max_penalty"`
	PenaltyMultiplier float64       `mapstructure:"penalty_multiplier" json:"penalty_multiplier" yaml:"penalty_multiplier"`
	DecayPeriod       time.Duration `mapstructure:"decay_period" json:"decay_period" yaml:"decay_period"`

	// WarningRatio and DelayRatio are observed/limit ratios. Crossing the
	// first only warns; crossing the second escalates the penalty level.
	WarningRatio float64 `mapstructure:"warning_ratio" json:"warning_ratio" yaml:"warning_ratio"`
	DelayRatio   float64 `mapstructure:"delay_ratio" json:"delay_ratio" yaml:"delay_ratio"`

	Disabled bool `mapstructure:"disabled" json:"disabled" yaml:"disabled"`
}

// DefaultConfig returns the stock limits: 15/min, 60/10min, 200/hour, 1000/day.
func DefaultConfig() Config {
	return Config{
		PerMinute:         15,
		Per10Min:          60,
		PerHour:           200,
		PerDay:            1000,
		BasePenalty:       3 * time.Second,
		MaxPenalty:        600 * time.Second,
		PenaltyMultiplier: 2.0,
		DecayPeriod:       10 * time.Minute,
		WarningRatio:      1.5,
		DelayRatio:        2.0,
	}
}

// Validate reports configuration that would make limiting unsafe.
func (c Config) Validate() error {
	var errs []error
	limits := []struct {
		name  string
		value int
	}{
		{"per_minute", c.PerMinute},
		{"per_10min", c.Per10Min},
		{"per_hour", c.PerHour},
		{"per_day", c.PerDay},
	}
	for _, limit := range limits {
		if limit.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", limit.name, limit.value))
		}
	}
	if c.BasePenalty <= 0 {
		errs = append(errs, fmt.Errorf("base_penalty must be positive, got %s", c.BasePenalty))
	}
	if c.MaxPenalty < c.BasePenalty {
		errs = append(errs, fmt.Errorf("max_penalty (%s) must not be below base_penalty (%s)", c.MaxPenalty, c.BasePenalty))
	}
	if c.PenaltyMultiplier < 1 || math.IsNaN(c.PenaltyMultiplier) || math.IsInf(c.PenaltyMultiplier, 0) {
		errs = append(errs, fmt.Errorf("penalty_multiplier must be >= 1, got %v", c.PenaltyMultiplier))
	}
	if c.DecayPeriod <= 0 {
		errs = append(errs, fmt.Errorf("decay_period must be positive, got %s", c.DecayPeriod))
	}
	if c.WarningRatio <= 0 || c.DelayRatio <= 0 {
		errs = append(errs, errors.New("warning_ratio and delay_ratio must be positive"))
	} else if c.WarningRatio > c.DelayRatio {
		errs = append(errs, fmt.Errorf("warning_ratio (%v) must not exceed delay_ratio (%v)", c.WarningRatio, c.DelayRatio))
	}
	return errors.Join(errs...)
}

// Limits returns the four request ceilings.
func (c Config) Limits() Limits {
	return Limits{
		PerMinute: c.PerMinute,
		Per10Min:  c.Per10Min,
		PerHour:   c.PerHour,
		PerDay:    c.PerDay,
	}
}

// penaltyFor returns base * multiplier^(level-1), capped at MaxPenalty.
// Fractional levels come from continuous decay.
func (c Config) penaltyFor(level float64) time.Duration {
	if level <= 0 {
		return 0
	}
	if level < 1 {
		// backoff clamps below its minimum, so the sub-base tail is computed directly.
		d := time.Duration(float64(c.BasePenalty) * math.Pow(c.PenaltyMultiplier, level-1))
		return min(d, c.MaxPenalty)
	}

	b := backoff.Backoff{
		Min:    c.BasePenalty,
		Max:    c.MaxPenalty,
		Factor: c.PenaltyMultiplier,
		Jitter: false,
	}
	return b.ForAttempt(level - 1)
}

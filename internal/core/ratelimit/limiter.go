// Package ratelimit governs outbound API calls with a persistent, multi-window
// request limiter. State lives in a single JSON file shared by every
// invocation of the CLI, so short-lived processes still see each other's
// traffic.
//
// Per-minute and per-10-minute windows are soft: exceeding them by the delay
// ratio escalates an exponential penalty that decays with good behavior.
// Hourly and daily counters are hard caps that refuse calls outright.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Limiter decides whether an outbound call may proceed and records calls that
// completed. It holds no request history of its own; every call loads and
// persists state through Store.
type Limiter struct {
	Store  Store
	Config Config
	Clock  func() time.Time
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(l *Limiter) {
		l.Clock = clock
	}
}

// New returns a limiter using cfg and store.
func New(cfg Config, store Store, opts ...Option) *Limiter {
	l := &Limiter{
		Store:  store,
		Config: cfg,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Persistence reports best-effort state file faults. They never change a
// decision and are never returned as errors.
type Persistence struct {
	LoadErr error `json:"-"`
	SaveErr error `json:"-"`
}

// Err joins load and save faults, or returns nil.
func (p Persistence) Err() error {
	return errors.Join(p.LoadErr, p.SaveErr)
}

// Decision is the outcome of Check.
type Decision struct {
	// Allowed is false only when an hourly or daily cap is reached.
	Allowed bool
	// Delay is how long the caller should wait before proceeding.
	Delay time.Duration
	// Message is empty when nothing noteworthy happened.
	Message string
	// Violation is true when this check escalated the penalty level.
	Violation    bool
	PenaltyLevel int

	Persistence
}

// Limits holds the request ceilings.
type Limits struct {
	PerMinute int `json:"per_minute" yaml:"per_minute"`
	Per10Min  int `json:"per_10min" yaml:"per_10min"`
	PerHour   int `json:"per_hour" yaml:"per_hour"`
	PerDay    int `json:"per_day" yaml:"per_day"`
}

// Status is a read-only diagnostic snapshot.
type Status struct {
	Requests1Min  int           `json:"requests_1min" yaml:"requests_1min"`
	Requests10Min int           `json:"requests_10min" yaml:"requests_10min"`
	RequestsHour  int           `json:"requests_hour" yaml:"requests_hour"`
	RequestsDay   int           `json:"requests_day" yaml:"requests_day"`
	PenaltyLevel  int           `json:"penalty_level" yaml:"penalty_level"`
	CurrentDelay  time.Duration `json:"current_delay" yaml:"current_delay"`
	HourlyResetIn time.Duration `json:"hourly_reset_in" yaml:"hourly_reset_in"`
	DailyResetIn  time.Duration `json:"daily_reset_in" yaml:"daily_reset_in"`
	Limits        Limits        `json:"limits" yaml:"limits"`
	Disabled      bool          `json:"disabled" yaml:"disabled"`

	LoadErr error `json:"-" yaml:"-"`
}

// Check decides whether the next outbound call may proceed and after what
// delay. It must be called before every call. The limiter itself never sleeps.
func (l *Limiter) Check(ctx context.Context) Decision {
	if l == nil || l.Config.Disabled {
		return Decision{Allowed: true}
	}

	cfg := l.Config
	now := unixSeconds(l.now())
	state, loadErr := l.load(ctx)
	state.normalize(now)

	count1m := state.countSince(now, minuteWindow)
	count10m := state.countSince(now, tenMinuteWindow)

	if state.HourlyCount >= cfg.PerHour {
		minutes := int((state.HourlyReset - now) / 60)
		return Decision{
			Allowed:      false,
			Message:      fmt.Sprintf("[BLOCKED] Hourly limit reached (%d/hour). Resets in %d minutes.", cfg.PerHour, minutes),
			PenaltyLevel: state.PenaltyLevel,
			Persistence:  Persistence{LoadErr: loadErr},
		}
	}
	if state.DailyCount >= cfg.PerDay {
		hours := int((state.DailyReset - now) / 3600)
		return Decision{
			Allowed:      false,
			Message:      fmt.Sprintf("[BLOCKED] Daily limit reached (%d/day). Resets in %d hours.", cfg.PerDay, hours),
			PenaltyLevel: state.PenaltyLevel,
			Persistence:  Persistence{LoadErr: loadErr},
		}
	}

	ratio := max(windowRatio(count1m, cfg.PerMinute), windowRatio(count10m, cfg.Per10Min))
	current := l.currentPenalty(state, now)

	decision := Decision{Allowed: true}
	switch {
	case ratio >= cfg.DelayRatio:
		decision.Violation = true
		state.PenaltyLevel = min(state.PenaltyLevel+1, MaxPenaltyLevel)
		state.LastViolationTime = now
		decision.Delay = cfg.penaltyFor(float64(state.PenaltyLevel))
		decision.Message = fmt.Sprintf(
			"[RATE LIMITED] Too many requests (%d/min, %d/10min). Penalty level %d: waiting %.1fs. Slow down to avoid longer delays.",
			count1m, count10m, state.PenaltyLevel, decision.Delay.Seconds())
	case ratio >= cfg.WarningRatio:
		decision.Message = fmt.Sprintf(
			"[WARNING] High request rate (%d/min, %d/10min). Limit: %d/min. Slow down to avoid delays.",
			count1m, count10m, cfg.PerMinute)
		if current > 0 {
			decision.Delay = current
			decision.Message += fmt.Sprintf(" (Existing penalty: %.1fs delay)", current.Seconds())
		}
	case current > 0:
		decision.Delay = current
		decision.Message = fmt.Sprintf("[COOLDOWN] Penalty from earlier abuse: %.1fs delay remaining.", current.Seconds())
	}

	// Discrete good-behavior decay, independent of the continuous decay above.
	if !decision.Violation && ratio < 1.0 && state.PenaltyLevel > 0 && now-state.LastViolationTime > minuteWindow {
		state.PenaltyLevel--
	}

	decision.PenaltyLevel = state.PenaltyLevel
	decision.Persistence = Persistence{
		LoadErr: loadErr,
		SaveErr: l.save(ctx, state),
	}
	return decision
}

// Record counts a successfully completed call. It must be called exactly once
// per success and never on failure.
func (l *Limiter) Record(ctx context.Context) Persistence {
	if l == nil || l.Config.Disabled {
		return Persistence{}
	}

	now := unixSeconds(l.now())
	state, loadErr := l.load(ctx)

	state.Timestamps = append(state.Timestamps, now)
	state.normalize(now)
	state.HourlyCount++
	state.DailyCount++
	state.LastRequestTime = now

	return Persistence{
		LoadErr: loadErr,
		SaveErr: l.save(ctx, state),
	}
}

// Status returns a diagnostic snapshot. It normalizes a private copy of the
// state and never writes it back.
func (l *Limiter) Status(ctx context.Context) Status {
	if l == nil {
		return Status{}
	}

	cfg := l.Config
	now := unixSeconds(l.now())
	state, loadErr := l.load(ctx)
	state.normalize(now)

	return Status{
		Requests1Min:  state.countSince(now, minuteWindow),
		Requests10Min: state.countSince(now, tenMinuteWindow),
		RequestsHour:  state.HourlyCount,
		RequestsDay:   state.DailyCount,
		PenaltyLevel:  state.PenaltyLevel,
		CurrentDelay:  l.currentPenalty(state, now),
		HourlyResetIn: secondsToDuration(state.HourlyReset - now),
		DailyResetIn:  secondsToDuration(state.DailyReset - now),
		Limits:        cfg.Limits(),
		Disabled:      cfg.Disabled,
		LoadErr:       loadErr,
	}
}

// Reset deletes all persisted state.
func (l *Limiter) Reset(ctx context.Context) error {
	if l == nil || l.Store == nil {
		return nil
	}
	return l.Store.Delete(ctx)
}

// currentPenalty decays the stored level by elapsed/DecayPeriod and converts
// the effective level into a delay.
func (l *Limiter) currentPenalty(state *State, now float64) time.Duration {
	if state.PenaltyLevel == 0 {
		return 0
	}
	elapsed := max(now-state.LastViolationTime, 0)
	periods := elapsed / l.Config.DecayPeriod.Seconds()
	effective := float64(state.PenaltyLevel) - periods
	if effective <= 0 {
		return 0
	}
	return l.Config.penaltyFor(effective)
}

func (l *Limiter) load(ctx context.Context) (*State, error) {
	if l.Store == nil {
		return NewState(), nil
	}
	state, err := l.Store.Load(ctx)
	if state == nil {
		state = NewState()
	}
	state.sanitize()
	return state, err
}

func (l *Limiter) save(ctx context.Context, state *State) error {
	if l.Store == nil {
		return nil
	}
	return l.Store.Save(ctx, state)
}

func (l *Limiter) now() time.Time {
	if l != nil && l.Clock != nil {
		return l.Clock()
	}
	return time.Now().UTC()
}

func windowRatio(count, limit int) float64 {
	if limit <= 0 {
		return 0
	}
	return float64(count) / float64(limit)
}

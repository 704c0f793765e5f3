package ratelimit

import "time"

const (
	// StateVersion is the schema tag written to the state file.
	StateVersion = 1

	// MaxPenaltyLevel caps the number of compounding backoff doublings.
	MaxPenaltyLevel = 10

	maxPersistedTimestamps = 500

	minuteWindow    = 60.0
	tenMinuteWindow = 600.0
	hourWindow      = 3600.0
	dayWindow       = 86400.0
)

// State is the persisted limiter state. Instants are unix seconds.
type State struct {
	Version           int       `json:"version"`
	Timestamps        []float64 `json:"timestamps"`
	PenaltyLevel      int       `json:"penalty_level"`
	LastViolationTime float64   `json:"last_violation_time"`
	LastRequestTime   float64   `json:"last_request_time"`
	HourlyCount       int       `json:"hourly_count"`
	HourlyReset       float64   `json:"hourly_reset"`
	DailyCount        int       `json:"daily_count"`
	DailyReset        float64   `json:"daily_reset"`
}

// NewState returns an empty state with no request history.
func NewState() *State {
	return &State{
		Version:    StateVersion,
		Timestamps: []float64{},
	}
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	if s == nil {
		return NewState()
	}
	clone := *s
	clone.Timestamps = append([]float64(nil), s.Timestamps...)
	return &clone
}

// sanitize repairs values a hand-edited or older file may carry.
func (s *State) sanitize() {
	if s.Version <= 0 {
		s.Version = StateVersion
	}
	if s.Timestamps == nil {
		s.Timestamps = []float64{}
	}
	if s.PenaltyLevel < 0 {
		s.PenaltyLevel = 0
	}
	if s.PenaltyLevel > MaxPenaltyLevel {
		s.PenaltyLevel = MaxPenaltyLevel
	}
	if s.HourlyCount < 0 {
		s.HourlyCount = 0
	}
	if s.DailyCount < 0 {
		s.DailyCount = 0
	}
}

// normalize prunes old timestamps and rolls the fixed hourly/daily windows.
func (s *State) normalize(now float64) {
	s.prune(now)
	s.resetCounters(now)
}

func (s *State) prune(now float64) {
	cutoff := now - hourWindow
	kept := make([]float64, 0, len(s.Timestamps))
	for _, ts := range s.Timestamps {
		if ts > cutoff {
			kept = append(kept, ts)
		}
	}
	s.Timestamps = kept
}

func (s *State) resetCounters(now float64) {
	if now >= s.HourlyReset {
		s.HourlyCount = 0
		s.HourlyReset = now + hourWindow
	}
	if now >= s.DailyReset {
		s.DailyCount = 0
		s.DailyReset = now + dayWindow
	}
}

// countSince counts timestamps strictly newer than now-window.
func (s *State) countSince(now, window float64) int {
	cutoff := now - window
	count := 0
	for _, ts := range s.Timestamps {
		if ts > cutoff {
			count++
		}
	}
	return count
}

// persistable returns the copy written to disk, keeping only the newest timestamps.
func (s *State) persistable() *State {
	out := s.Clone()
	if n := len(out.Timestamps); n > maxPersistedTimestamps {
		out.Timestamps = out.Timestamps[n-maxPersistedTimestamps:]
	}
	return out
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func secondsToDuration(seconds float64) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

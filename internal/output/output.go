// Package output renders search results and limiter diagnostics for the
// terminal.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/ninjaexa/ninjaexa/internal/core/ratelimit"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// Formatter renders a limiter status snapshot.
type Formatter interface {
	FormatStatus(status ratelimit.Status) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable), "text":
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatYAML), "yml":
		return FormatYAML, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatYAML:
		return &YAMLFormatter{}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}

// RenderStatus writes status to w in the requested format.
func RenderStatus(w io.Writer, format Format, status ratelimit.Status) error {
	rendered, err := NewFormatter(format).FormatStatus(status)
	if err != nil {
		return err
	}
	if !strings.HasSuffix(rendered, "\n") {
		rendered += "\n"
	}
	_, err = io.WriteString(w, rendered)
	return err
}

// statusView is the serialized form of a status snapshot. Durations are
// reported in seconds.
type statusView struct {
	Requests1Min       int              `json:"requests_1min" yaml:"requests_1min"`
	Requests10Min      int              `json:"requests_10min" yaml:"requests_10min"`
	RequestsHour       int              `json:"requests_hour" yaml:"requests_hour"`
	RequestsDay        int              `json:"requests_day" yaml:"requests_day"`
	PenaltyLevel       int              `json:"penalty_level" yaml:"penalty_level"`
	CurrentDelay       float64          `json:"current_delay" yaml:"current_delay"`
	HourlyResetSeconds float64          `json:"hourly_reset_seconds" yaml:"hourly_reset_seconds"`
	DailyResetSeconds  float64          `json:"daily_reset_seconds" yaml:"daily_reset_seconds"`
	Limits             ratelimit.Limits `json:"limits" yaml:"limits"`
	Disabled           bool             `json:"disabled" yaml:"disabled"`
}

func newStatusView(status ratelimit.Status) statusView {
	return statusView{
		Requests1Min:       status.Requests1Min,
		Requests10Min:      status.Requests10Min,
		RequestsHour:       status.RequestsHour,
		RequestsDay:        status.RequestsDay,
		PenaltyLevel:       status.PenaltyLevel,
		CurrentDelay:       roundTenth(status.CurrentDelay.Seconds()),
		HourlyResetSeconds: roundTenth(status.HourlyResetIn.Seconds()),
		DailyResetSeconds:  roundTenth(status.DailyResetIn.Seconds()),
		Limits:             status.Limits,
		Disabled:           status.Disabled,
	}
}

func roundTenth(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}

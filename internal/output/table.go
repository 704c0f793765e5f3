package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ninjaexa/ninjaexa/internal/core/ratelimit"
)

// EnvOverrideHelp lists the environment variables that adjust the limiter.
var EnvOverrideHelp = []string{
	"NINJAEXA_RATE_PER_MIN    - Limit per minute",
	"NINJAEXA_RATE_PER_10MIN  - Limit per 10 minutes",
	"NINJAEXA_RATE_PER_HOUR   - Limit per hour",
	"NINJAEXA_RATE_PER_DAY    - Limit per day",
	"NINJAEXA_NO_RATE_LIMIT   - Set to 1 to disable (testing only)",
}

// TableFormatter renders status as an ASCII table.
type TableFormatter struct{}

// FormatStatus renders a status snapshot as a table.
func (f *TableFormatter) FormatStatus(status ratelimit.Status) (string, error) {
	var sb strings.Builder
	sb.WriteString("=== NinjaExa Rate Limiter Status ===\n\n")
	if status.Disabled {
		sb.WriteString("[WARNING] Rate limiting is DISABLED (NINJAEXA_NO_RATE_LIMIT=1)\n\n")
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Window", "Requests", "Limit"})
	for _, row := range windowRows(status) {
		t.AppendRow(table.Row{row.label, row.count, row.limit})
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{
		"penalty",
		fmt.Sprintf("level %d", status.PenaltyLevel),
		delayLabel(status.CurrentDelay),
	})
	sb.WriteString(t.Render())
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Hourly window resets in %s\n", resetLabel(status.HourlyResetIn)))
	sb.WriteString(fmt.Sprintf("Daily window resets in %s\n", resetLabel(status.DailyResetIn)))

	sb.WriteString("\nEnvironment overrides:\n")
	for _, line := range EnvOverrideHelp {
		sb.WriteString("  " + line + "\n")
	}
	return sb.String(), nil
}

type windowRow struct {
	label string
	count int
	limit int
}

func windowRows(status ratelimit.Status) []windowRow {
	return []windowRow{
		{"1 min", status.Requests1Min, status.Limits.PerMinute},
		{"10 min", status.Requests10Min, status.Limits.Per10Min},
		{"hour", status.RequestsHour, status.Limits.PerHour},
		{"day", status.RequestsDay, status.Limits.PerDay},
	}
}

func delayLabel(d time.Duration) string {
	if d <= 0 {
		return "no delay"
	}
	return fmt.Sprintf("%.1fs delay", d.Seconds())
}

func resetLabel(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	return d.Round(time.Second).String()
}

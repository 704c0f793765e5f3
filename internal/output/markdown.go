package output

import (
	"fmt"
	"strings"

	"github.com/ninjaexa/ninjaexa/internal/core/ratelimit"
)

// MarkdownFormatter renders status as a markdown table.
type MarkdownFormatter struct{}

// FormatStatus renders a status snapshot as Markdown.
func (f *MarkdownFormatter) FormatStatus(status ratelimit.Status) (string, error) {
	var sb strings.Builder
	sb.WriteString("## Rate limiter status\n\n")
	if status.Disabled {
		sb.WriteString("> Rate limiting is **disabled**.\n\n")
	}
	sb.WriteString("| Window | Requests | Limit |\n")
	sb.WriteString("|--------|----------|-------|\n")
	for _, row := range windowRows(status) {
		sb.WriteString(fmt.Sprintf("| %s | %d | %d |\n", escapeMarkdownCell(row.label), row.count, row.limit))
	}
	sb.WriteString(fmt.Sprintf("\n**Penalty**: level %d, %s\n", status.PenaltyLevel, delayLabel(status.CurrentDelay)))
	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}

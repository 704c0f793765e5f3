package output

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ninjaexa/ninjaexa/internal/exa"
)

// Result kinds for FormatResults and FormatAPIResults.
const (
	KindWeb     = "web"
	KindCode    = "code"
	KindDeep    = "deep"
	KindSearch  = "search"
	KindSimilar = "similar"
)

const excerptChars = 500

var resultTitles = map[string]string{
	KindWeb:  "Web Search",
	KindCode: "Code Search",
	KindDeep: "Deep Research",
}

// FormatResults wraps MCP tool text with a header, or with search hints when
// the tool returned nothing.
func FormatResults(query, text, kind string) string {
	title, ok := resultTitles[kind]
	if !ok {
		title = "Search"
	}

	lines := []string{
		fmt.Sprintf("=== Exa %s Results ===", title),
		"Query: " + query,
		"",
	}
	if text != "" {
		lines = append(lines, text)
	} else {
		lines = append(lines,
			"No results found. Try:",
			"  - Using more specific search terms",
			"  - Including relevant keywords (language, framework, etc.)",
			"  - Checking for spelling errors",
		)
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// FormatAPIResults renders a direct API response. kind selects the header:
// KindSimilar names the source URL, anything else the query.
func FormatAPIResults(resp *exa.SearchResponse, queryOrURL, kind string) string {
	var lines []string
	if kind == KindSimilar {
		lines = append(lines, "=== Exa Find Similar Results ===", "Similar to: "+queryOrURL)
	} else {
		lines = append(lines, "=== Exa Search Results ===", "Query: "+queryOrURL)
	}

	var results []exa.Result
	if resp != nil {
		results = resp.Results
	}
	lines = append(lines, fmt.Sprintf("Found: %d results", len(results)))
	if resp != nil && resp.CostDollars != nil && resp.CostDollars.Valid {
		lines = append(lines, fmt.Sprintf("Cost: $%.4f", resp.CostDollars.Total))
	}
	lines = append(lines, "")

	if len(results) == 0 {
		lines = append(lines, "No results found.")
		return strings.Join(lines, "\n")
	}

	for i, r := range results {
		lines = append(lines, fmt.Sprintf("--- Result %d ---", i+1))

		title := r.Title
		if title == "" {
			title = "No title"
		}
		lines = append(lines, "Title: "+title, "URL: "+r.URL)
		if r.PublishedDate != "" {
			lines = append(lines, "Published: "+prefix(r.PublishedDate, 10))
		}
		if r.Summary != "" {
			lines = append(lines, "Summary: "+r.Summary)
		}
		if len(r.Highlights) > 0 {
			lines = append(lines, "Highlights:")
			for _, h := range r.Highlights[:min(3, len(r.Highlights))] {
				lines = append(lines, "  - "+h)
			}
		}
		if r.Summary == "" && len(r.Highlights) == 0 && r.Text != "" {
			lines = append(lines, "Content: "+TruncateAtSentence(r.Text, excerptChars))
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

// TruncateAtSentence shortens text to roughly maxChars characters, preferring
// to end on a sentence boundary, then a word boundary. Truncation other than
// at a sentence end is marked with "...".
func TruncateAtSentence(text string, maxChars int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}

	window := runes[:min(len(runes), maxChars+50)]
	best := 0
	for _, end := range sentenceEnds(window) {
		if end <= maxChars {
			best = end
		} else if end <= maxChars+30 && best == 0 {
			best = end
		}
	}
	if best > 0 && float64(best) >= float64(maxChars)*0.5 {
		return strings.TrimSpace(string(runes[:best]))
	}

	truncated := runes[:maxChars]
	lastSpace := -1
	for i := len(truncated) - 1; i >= 0; i-- {
		if truncated[i] == ' ' {
			lastSpace = i
			break
		}
	}
	if float64(lastSpace) > float64(maxChars)*0.7 {
		return strings.TrimSpace(string(truncated[:lastSpace])) + "..."
	}
	return strings.TrimSpace(string(truncated)) + "..."
}

// sentenceEnds returns the offsets just past each terminator (.!?) that is
// followed by whitespace or the end of text, including the whitespace run.
func sentenceEnds(runes []rune) []int {
	var ends []int
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
		default:
			continue
		}
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if j == i+1 && j < len(runes) {
			continue
		}
		ends = append(ends, j)
		i = j - 1
	}
	return ends
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

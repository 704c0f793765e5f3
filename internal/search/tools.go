package search

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ninjaexa/ninjaexa/internal/exa"
	"github.com/ninjaexa/ninjaexa/internal/output"
)

const DefaultDeepResults = 10

var validURL = regexp.MustCompile(`(?i)^https?://[^\s/$.?#].[^\s]*$`)

// DeepSearch asks the deep search tool to expand and synthesize query.
// numResults is clamped to 1..50.
func (s *Searcher) DeepSearch(ctx context.Context, query string, numResults int) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("empty query")
	}
	if numResults == 0 {
		numResults = DefaultDeepResults
	}

	text, err := s.Backend.CallTool(ctx, exa.ToolDeepSearch, map[string]any{
		"objective":  query,
		"numResults": max(1, min(50, numResults)),
	})
	if err != nil {
		return "", err
	}
	return output.FormatResults(query, text, output.KindDeep), nil
}

// NormalizeURL trims rawURL and adds an https:// scheme when none is given.
func NormalizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	lower := strings.ToLower(rawURL)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		rawURL = "https://" + rawURL
	}
	return rawURL
}

// ValidURL reports whether rawURL looks like an http(s) URL.
func ValidURL(rawURL string) bool {
	return validURL.MatchString(rawURL)
}

// Crawl extracts the content of a single page.
func (s *Searcher) Crawl(ctx context.Context, rawURL string) (string, error) {
	target := NormalizeURL(rawURL)
	if !ValidURL(target) {
		return "", fmt.Errorf("invalid URL format: %s", target)
	}

	text, err := s.Backend.CallTool(ctx, exa.ToolCrawling, map[string]any{"url": target})
	if err != nil {
		return "", err
	}

	lines := []string{
		"=== Exa URL Content Extraction ===",
		"URL: " + target,
		"",
	}
	if text != "" {
		lines = append(lines, text)
	} else {
		lines = append(lines,
			"[WARNING] No content extracted from URL.",
			"Possible reasons:",
			"  - URL not in Exa's cache",
			"  - Site blocks all crawlers",
			"  - Content behind login/paywall",
			"  - URL may be incorrect",
		)
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n"), nil
}

// Similar finds pages like req.URL. It requires an API key.
func (s *Searcher) Similar(ctx context.Context, req exa.SimilarRequest) (string, error) {
	if !s.Backend.HasAPIKey() {
		return "", exa.ErrMissingAPIKey
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		return "", fmt.Errorf("empty URL")
	}

	resp, err := s.Backend.FindSimilar(ctx, req)
	if err != nil {
		return "", err
	}
	return output.FormatAPIResults(resp, req.URL, output.KindSimilar), nil
}

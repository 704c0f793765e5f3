// Package search routes a query to the best Exa tool, runs it, and renders
// the combined report.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ninjaexa/ninjaexa/internal/classify"
	"github.com/ninjaexa/ninjaexa/internal/exa"
	"github.com/ninjaexa/ninjaexa/internal/output"
)

const (
	DefaultNumResults = 8
	DefaultCodeTokens = 5000
	ModeAuto          = "auto"

	webContextChars = 8000
)

// Backend is the subset of *exa.Client a Searcher needs.
type Backend interface {
	CallTool(ctx context.Context, tool string, args map[string]any) (string, error)
	Search(ctx context.Context, req exa.SearchRequest) (*exa.SearchResponse, error)
	FindSimilar(ctx context.Context, req exa.SimilarRequest) (*exa.SearchResponse, error)
	HasAPIKey() bool
}

// Searcher runs smart searches against a Backend.
type Searcher struct {
	Backend Backend
}

// New returns a Searcher.
func New(backend Backend) *Searcher {
	return &Searcher{Backend: backend}
}

// Options controls a smart search.
type Options struct {
	Query      string
	Mode       string
	NumResults int
	CodeTokens int
	Type       string
	Livecrawl  string

	Category       string
	IncludeDomains []string
	ExcludeDomains []string
	StartDate      string
	EndDate        string
	Highlights     bool
	Summary        bool

	// Raw prints result URLs only, one per line.
	Raw bool
}

func (o Options) withDefaults() Options {
	o.Query = strings.TrimSpace(o.Query)
	if o.Mode == "" {
		o.Mode = ModeAuto
	}
	if o.NumResults <= 0 {
		o.NumResults = DefaultNumResults
	}
	if o.CodeTokens <= 0 {
		o.CodeTokens = DefaultCodeTokens
	}
	if o.Type == "" {
		o.Type = "auto"
	}
	if o.Livecrawl == "" {
		o.Livecrawl = exa.LivecrawlFallback
	}
	return o
}

func (o Options) wantsAdvanced() bool {
	return o.Category != "" ||
		len(o.IncludeDomains) > 0 ||
		len(o.ExcludeDomains) > 0 ||
		o.StartDate != "" ||
		o.EndDate != "" ||
		o.Highlights ||
		o.Summary
}

func (o Options) searchRequest() exa.SearchRequest {
	return exa.SearchRequest{
		Query:              o.Query,
		NumResults:         o.NumResults,
		Type:               o.Type,
		Category:           o.Category,
		IncludeDomains:     o.IncludeDomains,
		ExcludeDomains:     o.ExcludeDomains,
		StartPublishedDate: o.StartDate,
		EndPublishedDate:   o.EndDate,
		Highlights:         o.Highlights,
		Summary:            o.Summary,
		Livecrawl:          o.Livecrawl,
	}
}

// Run performs a smart search and returns the report. Problems with the
// query or the search itself are reported inline in the text; the error is
// non-nil only for rate-limit refusals and cancellation.
func (s *Searcher) Run(ctx context.Context, opts Options) (string, error) {
	opts = opts.withDefaults()
	if opts.Query == "" {
		return "[ERROR] Empty query. Please provide a search term.", nil
	}

	hasKey := s.Backend.HasAPIKey()
	mode := opts.Mode
	modeInfo := mode
	if mode == ModeAuto {
		detected := classify.Classify(opts.Query)
		mode = string(detected.Mode)
		modeInfo = mode + " (auto-detected)"
		if opts.Category == "" && detected.Category != "" && hasKey {
			opts.Category = detected.Category
		}
	}
	advanced := opts.wantsAdvanced() && hasKey

	if opts.Raw {
		if !hasKey {
			return "[ERROR] --raw mode requires EXA_API_KEY (needed for structured results)", nil
		}
		return s.rawURLs(ctx, opts)
	}

	lines := []string{
		"=== Exa Smart Search ===",
		"Query: " + opts.Query,
		"Mode: " + modeInfo,
	}
	if opts.Category != "" {
		lines = append(lines, "Category: "+opts.Category)
	}
	if advanced {
		lines = append(lines, "[Using advanced API features]")
	}
	lines = append(lines, "")

	body, err := s.runMode(ctx, mode, opts, advanced)
	if err != nil {
		if fatal(err) {
			return "", err
		}
		body = []string{fmt.Sprintf("[ERROR] Search failed: %v", err)}
	}
	lines = append(lines, body...)
	lines = append(lines, "")
	return strings.Join(lines, "\n"), nil
}

func (s *Searcher) runMode(ctx context.Context, mode string, opts Options, advanced bool) ([]string, error) {
	switch classify.Mode(mode) {
	case classify.ModeCode:
		text, err := s.codeSearch(ctx, opts)
		if err != nil {
			return nil, err
		}
		return section("--- Code/Documentation Results ---", text), nil

	case classify.ModeNews:
		if opts.Livecrawl == exa.LivecrawlFallback {
			opts.Livecrawl = exa.LivecrawlPreferred
		}
		var (
			text string
			err  error
		)
		if advanced {
			if opts.Category == "" {
				opts.Category = "news"
			}
			text, err = s.advancedSearch(ctx, opts.searchRequest())
		} else {
			text, err = s.webSearch(ctx, opts)
		}
		if err != nil {
			return nil, err
		}
		return section("--- News/Recent Results ---", text), nil

	case classify.ModeDual:
		return s.dual(ctx, opts, advanced)

	default:
		var (
			text string
			err  error
		)
		if advanced {
			text, err = s.advancedSearch(ctx, opts.searchRequest())
		} else {
			text, err = s.webSearch(ctx, opts)
		}
		if err != nil {
			return nil, err
		}
		return section("--- Web Results ---", text), nil
	}
}

// dual runs web and code searches in parallel. A failure in one branch is
// reported in its section and does not affect the other.
func (s *Searcher) dual(ctx context.Context, opts Options, advanced bool) ([]string, error) {
	var (
		webText, codeText string
		webErr, codeErr   error
	)

	g := &errgroup.Group{}
	g.Go(func() error {
		if advanced {
			req := opts.searchRequest()
			req.Highlights = true
			req.Summary = false
			req.IncludeDomains = nil
			req.ExcludeDomains = nil
			req.StartPublishedDate = ""
			req.EndPublishedDate = ""
			webText, webErr = s.advancedSearch(ctx, req)
		} else {
			webText, webErr = s.webSearch(ctx, opts)
		}
		if fatal(webErr) {
			return webErr
		}
		return nil
	})
	g.Go(func() error {
		codeText, codeErr = s.codeSearch(ctx, opts)
		if fatal(codeErr) {
			return codeErr
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lines := []string{"### Web Results ###"}
	switch {
	case webText != "":
		lines = append(lines, webText)
	case webErr != nil:
		lines = append(lines, fmt.Sprintf("[Web search failed: %v]", webErr))
	default:
		lines = append(lines, "No web results found.")
	}
	lines = append(lines, "", "### Code/Documentation Results ###")
	switch {
	case codeText != "":
		lines = append(lines, codeText)
	case codeErr != nil:
		lines = append(lines, fmt.Sprintf("[Code search failed: %v]", codeErr))
	default:
		lines = append(lines, "No code results found.")
	}
	return lines, nil
}

func (s *Searcher) webSearch(ctx context.Context, opts Options) (string, error) {
	return s.Backend.CallTool(ctx, exa.ToolWebSearch, map[string]any{
		"query":                opts.Query,
		"numResults":           opts.NumResults,
		"type":                 opts.Type,
		"livecrawl":            opts.Livecrawl,
		"contextMaxCharacters": webContextChars,
	})
}

func (s *Searcher) codeSearch(ctx context.Context, opts Options) (string, error) {
	return s.Backend.CallTool(ctx, exa.ToolCodeContext, map[string]any{
		"query":     opts.Query,
		"tokensNum": opts.CodeTokens,
	})
}

func (s *Searcher) advancedSearch(ctx context.Context, req exa.SearchRequest) (string, error) {
	resp, err := s.Backend.Search(ctx, req)
	if err != nil {
		return "", err
	}
	return output.FormatAPIResults(resp, req.Query, output.KindSearch), nil
}

func (s *Searcher) rawURLs(ctx context.Context, opts Options) (string, error) {
	req := opts.searchRequest()
	req.Highlights = false
	req.Summary = false

	resp, err := s.Backend.Search(ctx, req)
	if err != nil {
		if fatal(err) {
			return "", err
		}
		return fmt.Sprintf("[ERROR] %v", err), nil
	}
	if len(resp.Results) == 0 {
		return "# No results found", nil
	}

	urls := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.URL != "" {
			urls = append(urls, r.URL)
		}
	}
	return strings.Join(urls, "\n"), nil
}

func section(title, text string) []string {
	if text == "" {
		text = "No results found."
	}
	return []string{title, text}
}

// fatal reports errors that abort the command instead of being shown inline.
func fatal(err error) bool {
	if err == nil {
		return false
	}
	var blocked *exa.BlockedError
	return errors.As(err, &blocked) ||
		errors.Is(err, context.Canceled)
}

// SinceDays returns the ISO 8601 start-of-day timestamp days before now, in
// the form the direct API accepts for published-date filters.
func SinceDays(now time.Time, days int) string {
	return now.AddDate(0, 0, -days).Format("2006-01-02") + "T00:00:00.000Z"
}

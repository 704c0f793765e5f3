package cmd

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ninjaexa/ninjaexa/internal/exa"
	"github.com/ninjaexa/ninjaexa/internal/search"
)

var (
	searchModes       = []string{search.ModeAuto, "web", "code", "news", "dual"}
	searchTypes       = []string{"auto", "fast", "deep"}
	livecrawlSettings = []string{exa.LivecrawlNever, exa.LivecrawlFallback, exa.LivecrawlPreferred, exa.LivecrawlAlways}
)

// filterFlags are shared by search and similar.
type filterFlags struct {
	numResults     int
	category       string
	includeDomains string
	excludeDomains string
	days           int
	startDate      string
	endDate        string
	highlights     bool
	summary        bool
	out            string
}

type searchFlags struct {
	filterFlags
	mode       string
	codeTokens int
	searchType string
	livecrawl  string
	raw        bool
}

var searchOpts searchFlags

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Smart search: auto-detects the query type and picks the best strategy",
	Long: `Search the web and code documentation through Exa.

Auto-detection modes:
  code  - programming, APIs, libraries -> code documentation search
  news  - recent events, releases      -> web search with fresh content
  dual  - technical and current         -> parallel web + code search
  web   - everything else               -> standard web search

Category, domain, date, highlight and summary filters use the direct API and
require EXA_API_KEY. Without a key they are ignored.`,
	Example: `  ninjaexa search python asyncio patterns
  ninjaexa search "react 19 release notes" --mode dual
  ninjaexa search prisma orm --category github --highlights
  ninjaexa search "llm agents" --days 30 --raw`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		if a == nil {
			return fmt.Errorf("search not initialized")
		}

		opts, err := searchOpts.options(args, time.Now())
		if err != nil {
			return err
		}

		report, err := a.searcher.Run(cmd.Context(), opts)
		if err != nil {
			return err
		}
		return writeReport(searchOpts.out, report)
	},
}

func (f searchFlags) options(args []string, now time.Time) (search.Options, error) {
	if !slices.Contains(searchModes, f.mode) {
		return search.Options{}, fmt.Errorf("invalid --mode %q (choose from %s)", f.mode, strings.Join(searchModes, ", "))
	}
	if !slices.Contains(searchTypes, f.searchType) {
		return search.Options{}, fmt.Errorf("invalid --type %q (choose from %s)", f.searchType, strings.Join(searchTypes, ", "))
	}
	if !slices.Contains(livecrawlSettings, f.livecrawl) {
		return search.Options{}, fmt.Errorf("invalid --livecrawl %q (choose from %s)", f.livecrawl, strings.Join(livecrawlSettings, ", "))
	}
	if err := validateCategory(f.category); err != nil {
		return search.Options{}, err
	}

	start, end := f.dateRange(now)
	return search.Options{
		Query:          strings.Join(args, " "),
		Mode:           f.mode,
		NumResults:     f.numResults,
		CodeTokens:     f.codeTokens,
		Type:           f.searchType,
		Livecrawl:      f.livecrawl,
		Category:       strings.ToLower(strings.TrimSpace(f.category)),
		IncludeDomains: splitList(f.includeDomains),
		ExcludeDomains: splitList(f.excludeDomains),
		StartDate:      start,
		EndDate:        end,
		Highlights:     f.highlights,
		Summary:        f.summary,
		Raw:            f.raw,
	}, nil
}

// dateRange resolves --days into a start date unless --start-date is set.
func (f filterFlags) dateRange(now time.Time) (start, end string) {
	start = strings.TrimSpace(f.startDate)
	if f.days > 0 && start == "" {
		start = search.SinceDays(now, f.days)
	}
	return start, strings.TrimSpace(f.endDate)
}

func validateCategory(category string) error {
	if strings.TrimSpace(category) == "" || exa.IsValidCategory(category) {
		return nil
	}
	return fmt.Errorf("invalid --category %q (choose from %s)", category, strings.Join(exa.ValidCategories, ", "))
}

// splitList parses a comma-separated flag value, dropping empty entries.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func addFilterFlags(cmd *cobra.Command, f *filterFlags, defaultResults int) {
	cmd.Flags().IntVarP(&f.numResults, "num-results", "n", defaultResults, "Number of results")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "Filter by category: "+strings.Join(exa.ValidCategories, ", "))
	cmd.Flags().StringVar(&f.includeDomains, "include-domains", "", "Comma-separated domains to include")
	cmd.Flags().StringVar(&f.excludeDomains, "exclude-domains", "", "Comma-separated domains to exclude")
	cmd.Flags().IntVar(&f.days, "days", 0, "Only content published within the last N days")
	cmd.Flags().StringVar(&f.startDate, "start-date", "", "Only content published after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.endDate, "end-date", "", "Only content published before this date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&f.highlights, "highlights", false, "Include AI-selected snippets")
	cmd.Flags().BoolVar(&f.summary, "summary", false, "Include an AI-generated summary per result")
	cmd.Flags().StringVar(&f.out, "out", "", "Write output to a file (default stdout)")
}

func init() {
	addFilterFlags(searchCmd, &searchOpts.filterFlags, search.DefaultNumResults)
	searchCmd.Flags().StringVarP(&searchOpts.mode, "mode", "m", search.ModeAuto, "Search mode: "+strings.Join(searchModes, ", "))
	searchCmd.Flags().IntVarP(&searchOpts.codeTokens, "code-tokens", "t", search.DefaultCodeTokens, "Tokens for code search")
	searchCmd.Flags().StringVar(&searchOpts.searchType, "type", "auto", "Search depth: auto, fast, deep")
	searchCmd.Flags().StringVar(&searchOpts.livecrawl, "livecrawl", exa.LivecrawlFallback, "Fresh content: never, fallback, preferred, always")
	searchCmd.Flags().BoolVar(&searchOpts.raw, "raw", false, "Output URLs only, one per line (requires EXA_API_KEY)")
	rootCmd.AddCommand(searchCmd)
}

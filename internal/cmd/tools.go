package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ninjaexa/ninjaexa/internal/exa"
	"github.com/ninjaexa/ninjaexa/internal/search"
)

var (
	similarOpts         filterFlags
	similarIncludeSrc   bool
	deepNumResults      int
	deepOut, crawlOut   string
	freeToolsHelpString = fmt.Sprintf("The free MCP endpoint only includes: %s, %s", exa.ToolWebSearch, exa.ToolCodeContext)
)

var similarCmd = &cobra.Command{
	Use:   "similar <url>",
	Short: "Find pages similar to a URL (requires EXA_API_KEY)",
	Example: `  ninjaexa similar https://cursor.sh --category company -n 10
  ninjaexa similar https://github.com/prisma/prisma --category github
  ninjaexa similar https://stripe.com/docs/api --highlights --summary`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		if a == nil {
			return fmt.Errorf("similar not initialized")
		}
		req, err := similarRequest(args[0], similarOpts, similarIncludeSrc, time.Now())
		if err != nil {
			return err
		}

		report, err := a.searcher.Similar(cmd.Context(), req)
		if errors.Is(err, exa.ErrMissingAPIKey) {
			writeHints(cmd.ErrOrStderr(),
				"EXA_API_KEY not set. FindSimilar requires an API key.",
				"Get one at https://exa.ai and set: export EXA_API_KEY='your-key'",
			)
		}
		if err != nil {
			return err
		}
		return writeReport(similarOpts.out, report)
	},
}

func similarRequest(target string, f filterFlags, includeSource bool, now time.Time) (exa.SimilarRequest, error) {
	if err := validateCategory(f.category); err != nil {
		return exa.SimilarRequest{}, err
	}
	start, end := f.dateRange(now)
	return exa.SimilarRequest{
		URL:                 target,
		NumResults:          f.numResults,
		Category:            f.category,
		IncludeDomains:      splitList(f.includeDomains),
		ExcludeDomains:      splitList(f.excludeDomains),
		ExcludeSourceDomain: !includeSource,
		StartPublishedDate:  start,
		EndPublishedDate:    end,
		Highlights:          f.highlights,
		Summary:             f.summary,
	}, nil
}

var crawlCmd = &cobra.Command{
	Use:   "crawl <url>",
	Short: "Extract the content of a URL from Exa's crawl cache",
	Long: `Extract clean text from a page using Exa's pre-crawled index. This often
works on bot-protected or JavaScript-heavy sites and on PDFs.

The https:// prefix is optional.`,
	Example: `  ninjaexa crawl react.dev/blog/2024/04/25/react-19
  ninjaexa crawl https://arxiv.org/pdf/2301.00001.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		if a == nil {
			return fmt.Errorf("crawl not initialized")
		}
		report, err := a.searcher.Crawl(cmd.Context(), args[0])
		if err != nil {
			toolUnavailableHints(cmd.ErrOrStderr(), exa.ToolCrawling, err,
				"Use a regular web fetch (may be blocked on some sites)")
			return err
		}
		return writeReport(crawlOut, report)
	},
}

var deepCmd = &cobra.Command{
	Use:   "deep <query...>",
	Short: "Deep research: query expansion and synthesized summaries",
	Long: `Run Exa's deep search tool. Unlike "search --type deep", the query is
rewritten and expanded and the findings are synthesized across sources.`,
	Example: `  ninjaexa deep "React state management comparison 2025"
  ninjaexa deep microservices architecture patterns -n 15`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		if a == nil {
			return fmt.Errorf("deep search not initialized")
		}
		report, err := a.searcher.DeepSearch(cmd.Context(), strings.Join(args, " "), deepNumResults)
		if err != nil {
			toolUnavailableHints(cmd.ErrOrStderr(), exa.ToolDeepSearch, err,
				`Use "ninjaexa search --type deep" (similar but without AI summaries)`)
			return err
		}
		return writeReport(deepOut, report)
	},
}

// toolUnavailableHints explains how to reach a premium tool when the
// endpoint reports it missing.
func toolUnavailableHints(w io.Writer, tool string, err error, alternative string) {
	var rpcErr *exa.RPCError
	if !errors.As(err, &rpcErr) || !rpcErr.ToolUnavailable() {
		return
	}
	writeHints(w,
		"",
		tool+" requires an Exa API key or explicit tool enablement.",
		freeToolsHelpString,
		"",
		"Alternatives:",
		"  1. "+alternative,
		"  2. Get an Exa API key from https://exa.ai and set EXA_API_KEY",
	)
}

func writeHints(w io.Writer, lines ...string) {
	for _, line := range lines {
		_, _ = fmt.Fprintln(w, "[INFO] "+line)
	}
}

func init() {
	addFilterFlags(similarCmd, &similarOpts, 10)
	similarCmd.Flags().BoolVar(&similarIncludeSrc, "include-source", false, "Include results from the source URL's domain")
	rootCmd.AddCommand(similarCmd)

	crawlCmd.Flags().StringVar(&crawlOut, "out", "", "Write output to a file (default stdout)")
	rootCmd.AddCommand(crawlCmd)

	deepCmd.Flags().IntVarP(&deepNumResults, "num-results", "n", search.DefaultDeepResults, "Number of results to synthesize (1-50)")
	deepCmd.Flags().StringVar(&deepOut, "out", "", "Write output to a file (default stdout)")
	rootCmd.AddCommand(deepCmd)
}

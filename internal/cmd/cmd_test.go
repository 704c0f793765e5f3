package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/stretchr/testify/require"

	"github.com/ninjaexa/ninjaexa/internal/core/ratelimit"
	"github.com/ninjaexa/ninjaexa/internal/exa"
	"github.com/ninjaexa/ninjaexa/internal/search"
)

func TestSearchFlagsOptions(t *testing.T) {
	flags := searchFlags{
		filterFlags: filterFlags{
			numResults:     5,
			category:       " GitHub ",
			includeDomains: "github.com, ,gitlab.com",
			days:           7,
			highlights:     true,
		},
		mode:       "dual",
		codeTokens: 3000,
		searchType: "fast",
		livecrawl:  exa.LivecrawlAlways,
	}
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	opts, err := flags.options([]string{"prisma", "orm"}, now)
	require.NoError(t, err)
	require.Equal(t, search.Options{
		Query:          "prisma orm",
		Mode:           "dual",
		NumResults:     5,
		CodeTokens:     3000,
		Type:           "fast",
		Livecrawl:      exa.LivecrawlAlways,
		Category:       "github",
		IncludeDomains: []string{"github.com", "gitlab.com"},
		StartDate:      "2025-06-08T00:00:00.000Z",
		Highlights:     true,
	}, opts)
}

func TestSearchFlagsExplicitStartDateWins(t *testing.T) {
	flags := searchFlags{
		filterFlags: filterFlags{days: 30, startDate: "2024-01-01", endDate: "2024-02-01"},
		mode:        search.ModeAuto,
		searchType:  "auto",
		livecrawl:   exa.LivecrawlFallback,
	}

	opts, err := flags.options([]string{"q"}, time.Now())
	require.NoError(t, err)
	require.Equal(t, "2024-01-01", opts.StartDate)
	require.Equal(t, "2024-02-01", opts.EndDate)
}

func TestSearchFlagsRejectsInvalidChoices(t *testing.T) {
	valid := searchFlags{mode: search.ModeAuto, searchType: "auto", livecrawl: exa.LivecrawlFallback}

	tests := []struct {
		name   string
		mutate func(*searchFlags)
		want   string
	}{
		{"Mode", func(f *searchFlags) { f.mode = "images" }, "invalid --mode"},
		{"Type", func(f *searchFlags) { f.searchType = "slow" }, "invalid --type"},
		{"Livecrawl", func(f *searchFlags) { f.livecrawl = "sometimes" }, "invalid --livecrawl"},
		{"Category", func(f *searchFlags) { f.category = "podcast" }, "invalid --category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := valid
			tt.mutate(&flags)
			_, err := flags.options([]string{"q"}, time.Now())
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSimilarRequest(t *testing.T) {
	req, err := similarRequest("https://exa.ai", filterFlags{numResults: 10, excludeDomains: "x.com"}, false, time.Now())
	require.NoError(t, err)
	require.True(t, req.ExcludeSourceDomain)
	require.Equal(t, []string{"x.com"}, req.ExcludeDomains)

	req, err = similarRequest("https://exa.ai", filterFlags{}, true, time.Now())
	require.NoError(t, err)
	require.False(t, req.ExcludeSourceDomain)
	require.Nil(t, req.IncludeDomains)
}

func TestSplitList(t *testing.T) {
	require.Nil(t, splitList(""))
	require.Equal(t, []string{"a.com", "b.com"}, splitList(" a.com ,, b.com "))
}

func TestWriteTestDecision(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTestDecision(&buf, ratelimit.Decision{Allowed: true}))
	require.Equal(t, "Allowed: true\nDelay: 0.0s\nMessage: (none)\n", buf.String())

	buf.Reset()
	require.NoError(t, writeTestDecision(&buf, ratelimit.Decision{
		Allowed: false,
		Message: "[BLOCKED] Daily limit reached (1000/day). Resets in 3 hours.",
	}))
	require.Contains(t, buf.String(), "Allowed: false\n")
	require.Contains(t, buf.String(), "Message: [BLOCKED] Daily limit reached")
}

func TestExitCodeFor(t *testing.T) {
	require.Equal(t, foundry.ExitCode(foundry.ExitFailure), ExitCodeFor(errors.New("boom")))
	require.Equal(t, foundry.ExitCode(foundry.ExitConfigInvalid), ExitCodeFor(&configError{err: errors.New("rate_limit: per_minute must be positive")}))
	require.Equal(t, foundry.ExitCode(foundry.ExitFailure), ExitCodeFor(&exa.BlockedError{Message: "[BLOCKED]"}))
	require.Equal(t, foundry.ExitCode(foundry.ExitFailure), ExitCodeFor(&quietExit{code: foundry.ExitFailure}))
}

func TestToolUnavailableHints(t *testing.T) {
	var buf bytes.Buffer
	toolUnavailableHints(&buf, exa.ToolCrawling, errors.New("network error: boom"), "alt")
	require.Empty(t, buf.String())

	toolUnavailableHints(&buf, exa.ToolCrawling, &exa.RPCError{Code: -32602, Message: "Tool not found"}, "alt")
	require.Contains(t, buf.String(), "[INFO] crawling_exa requires an Exa API key")
	require.Contains(t, buf.String(), "[INFO]   1. alt")
}

func TestRateLimitCommand(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("EXA_API_KEY", "")
	statePath := filepath.Join(home, "state.json")
	t.Setenv("NINJAEXA_STATE_FILE", statePath)
	outDir := t.TempDir()

	run := func(args ...string) error {
		rootCmd.SetArgs(args)
		return rootCmd.Execute()
	}

	resetOut := filepath.Join(outDir, "reset.txt")
	require.NoError(t, run("rate-limit", "--reset", "--test=false", "--out", resetOut))
	raw, err := os.ReadFile(resetOut)
	require.NoError(t, err)
	require.Equal(t, "[OK] Rate limiter state reset\n", string(raw))

	testOut := filepath.Join(outDir, "test.txt")
	require.NoError(t, run("ratelimit", "--reset=false", "--test", "--out", testOut))
	raw, err = os.ReadFile(testOut)
	require.NoError(t, err)
	require.Equal(t, "Allowed: true\nDelay: 0.0s\nMessage: (none)\n", string(raw))
	require.FileExists(t, statePath)

	statusOut := filepath.Join(outDir, "status.json")
	require.NoError(t, run("rate-limit", "--reset=false", "--test=false", "--output-format", "json", "--out", statusOut))
	raw, err = os.ReadFile(statusOut)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Equal(t, float64(0), doc["requests_day"])
	require.Equal(t, float64(0), doc["penalty_level"])
}

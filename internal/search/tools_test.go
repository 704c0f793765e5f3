package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ninjaexa/ninjaexa/internal/exa"
)

func TestDeepSearch(t *testing.T) {
	backend := &fakeBackend{toolText: map[string]string{exa.ToolDeepSearch: "synthesis"}}

	out, err := New(backend).DeepSearch(context.Background(), "rust vs go", 500)
	require.NoError(t, err)
	require.Contains(t, out, "=== Exa Deep Research Results ===\nQuery: rust vs go\n\nsynthesis")

	require.Len(t, backend.calls, 1)
	require.Equal(t, "rust vs go", backend.calls[0].args["objective"])
	require.Equal(t, 50, backend.calls[0].args["numResults"])
	require.NotContains(t, backend.calls[0].args, "query")
}

func TestDeepSearchDefaultsAndErrors(t *testing.T) {
	backend := &fakeBackend{}
	_, err := New(backend).DeepSearch(context.Background(), "topic", 0)
	require.NoError(t, err)
	require.Equal(t, DefaultDeepResults, backend.calls[0].args["numResults"])

	_, err = New(backend).DeepSearch(context.Background(), "  ", 5)
	require.Error(t, err)

	backend = &fakeBackend{toolErr: map[string]error{exa.ToolDeepSearch: &exa.RPCError{Code: -32602, Message: "Tool deep_search_exa not found"}}}
	_, err = New(backend).DeepSearch(context.Background(), "topic", 5)
	var rpcErr *exa.RPCError
	require.ErrorAs(t, err, &rpcErr)
	require.True(t, rpcErr.ToolUnavailable())
}

func TestNormalizeAndValidateURL(t *testing.T) {
	require.Equal(t, "https://react.dev/learn", NormalizeURL("  react.dev/learn "))
	require.Equal(t, "http://example.com", NormalizeURL("http://example.com"))
	require.Equal(t, "HTTPS://EXAMPLE.COM", NormalizeURL("HTTPS://EXAMPLE.COM"))

	require.True(t, ValidURL("https://arxiv.org/pdf/2301.00001.pdf"))
	require.True(t, ValidURL("HTTP://example.com"))
	require.False(t, ValidURL("https://"))
	require.False(t, ValidURL("https://exa mple.com"))
	require.False(t, ValidURL("ftp://example.com"))
}

func TestCrawl(t *testing.T) {
	backend := &fakeBackend{toolText: map[string]string{exa.ToolCrawling: "page body"}}

	out, err := New(backend).Crawl(context.Background(), "example.com/post")
	require.NoError(t, err)
	require.Equal(t, "=== Exa URL Content Extraction ===\nURL: https://example.com/post\n\npage body\n", out)
	require.Equal(t, map[string]any{"url": "https://example.com/post"}, backend.calls[0].args)
}

func TestCrawlEmptyContent(t *testing.T) {
	out, err := New(&fakeBackend{}).Crawl(context.Background(), "https://example.com")
	require.NoError(t, err)
	require.Contains(t, out, "[WARNING] No content extracted from URL.")
	require.Contains(t, out, "Content behind login/paywall")
}

func TestCrawlInvalidURL(t *testing.T) {
	backend := &fakeBackend{}
	_, err := New(backend).Crawl(context.Background(), "https://bad url")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid URL format")
	require.Empty(t, backend.calls)
}

func TestSimilar(t *testing.T) {
	_, err := New(&fakeBackend{}).Similar(context.Background(), exa.SimilarRequest{URL: "https://exa.ai"})
	require.ErrorIs(t, err, exa.ErrMissingAPIKey)

	backend := &fakeBackend{
		hasKey:    true,
		searchRes: &exa.SearchResponse{Results: []exa.Result{{Title: "Peer", URL: "https://peer.example"}}},
	}
	out, err := New(backend).Similar(context.Background(), exa.SimilarRequest{URL: " https://exa.ai ", NumResults: 5})
	require.NoError(t, err)
	require.Contains(t, out, "=== Exa Find Similar Results ===\nSimilar to: https://exa.ai\nFound: 1 results")
	require.Equal(t, "https://exa.ai", backend.similars[0].URL)
}

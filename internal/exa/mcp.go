package exa

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/google/uuid"
)

// MCP tool names.
const (
	ToolWebSearch           = "web_search_exa"
	ToolCodeContext         = "get_code_context_exa"
	ToolDeepSearch          = "deep_search_exa"
	ToolCrawling            = "crawling_exa"
	ToolCompanyResearch     = "company_research_exa"
	ToolLinkedInSearch      = "linkedin_search_exa"
	ToolDeepResearcherStart = "deep_researcher_start"
	ToolDeepResearcherCheck = "deep_researcher_check"
)

var freeTools = map[string]bool{
	ToolWebSearch:   true,
	ToolCodeContext: true,
}

var premiumTools = map[string]bool{
	ToolDeepSearch:          true,
	ToolCrawling:            true,
	ToolCompanyResearch:     true,
	ToolLinkedInSearch:      true,
	ToolDeepResearcherStart: true,
	ToolDeepResearcherCheck: true,
}

// IsPremiumTool reports whether the hosted endpoint needs a key for tool.
func IsPremiumTool(tool string) bool {
	return premiumTools[tool]
}

type rpcRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      string         `json:"id"`
	Method  string         `json:"method"`
	Params  toolCallParams `json:"params"`
}

type toolCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// CallTool invokes an MCP tool and returns its text result.
func (c *Client) CallTool(ctx context.Context, tool string, args map[string]any) (string, error) {
	if c == nil {
		return "", fmt.Errorf("exa client not configured")
	}
	if args == nil {
		args = map[string]any{}
	}

	if err := c.acquire(ctx); err != nil {
		return "", err
	}

	endpoint, err := c.toolURL(tool)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  "tools/call",
		Params:  toolCallParams{Name: tool, Arguments: args},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	respBody, err := c.post(ctx, endpoint, body, map[string]string{
		"Accept": "application/json, text/event-stream",
	})
	if err != nil {
		return "", err
	}

	text, err := ParseSSE(respBody)
	if err != nil {
		return "", err
	}
	c.record(ctx)
	return text, nil
}

// toolURL returns the endpoint for tool. Premium tools get the key and the
// tool enablement appended when a key is configured.
func (c *Client) toolURL(tool string) (string, error) {
	if freeTools[tool] || !c.HasAPIKey() {
		return c.MCPURL, nil
	}

	u, err := url.Parse(c.MCPURL)
	if err != nil {
		return "", fmt.Errorf("invalid MCP URL: %w", err)
	}
	q := u.Query()
	q.Set("exaApiKey", c.APIKey)
	q.Set("tools", tool)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

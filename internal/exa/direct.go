package exa

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ValidCategories lists the categories accepted by the direct API.
var ValidCategories = []string{
	"company",
	"research paper",
	"news",
	"pdf",
	"github",
	"tweet",
	"personal site",
	"linkedin profile",
	"financial report",
}

// IsValidCategory reports whether category (any case) is accepted.
func IsValidCategory(category string) bool {
	category = strings.ToLower(strings.TrimSpace(category))
	for _, valid := range ValidCategories {
		if valid == category {
			return true
		}
	}
	return false
}

// Livecrawl modes.
const (
	LivecrawlNever     = "never"
	LivecrawlFallback  = "fallback"
	LivecrawlPreferred = "preferred"
	LivecrawlAlways    = "always"
)

func isValidLivecrawl(mode string) bool {
	switch mode {
	case LivecrawlNever, LivecrawlFallback, LivecrawlPreferred, LivecrawlAlways:
		return true
	default:
		return false
	}
}

// SearchRequest describes a direct API search.
type SearchRequest struct {
	Query              string
	NumResults         int
	Type               string
	Category           string
	IncludeDomains     []string
	ExcludeDomains     []string
	StartPublishedDate string
	EndPublishedDate   string
	IncludeText        []string
	ExcludeText        []string
	Highlights         bool
	HighlightsPerURL   int
	NumSentences       int
	Summary            bool
	Livecrawl          string
}

// SimilarRequest describes a findSimilar call.
type SimilarRequest struct {
	URL                 string
	NumResults          int
	Category            string
	IncludeDomains      []string
	ExcludeDomains      []string
	ExcludeSourceDomain bool
	StartPublishedDate  string
	EndPublishedDate    string
	Highlights          bool
	Summary             bool
}

// SearchResponse is the direct API reply shared by search and findSimilar.
type SearchResponse struct {
	RequestID   string   `json:"requestId,omitempty"`
	Results     []Result `json:"results"`
	CostDollars *Cost    `json:"costDollars,omitempty"`
}

// Result is one search hit.
type Result struct {
	ID            string   `json:"id,omitempty"`
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	PublishedDate string   `json:"publishedDate,omitempty"`
	Author        string   `json:"author,omitempty"`
	Score         float64  `json:"score,omitempty"`
	Text          string   `json:"text,omitempty"`
	Summary       string   `json:"summary,omitempty"`
	Highlights    []string `json:"highlights,omitempty"`
}

// Cost is the billing block. Valid is false when the service sent something
// other than an object.
type Cost struct {
	Total float64 `json:"total"`
	Valid bool    `json:"-"`
}

func (c *Cost) UnmarshalJSON(data []byte) error {
	var obj struct {
		Total float64 `json:"total"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		*c = Cost{}
		return nil
	}
	*c = Cost{Total: obj.Total, Valid: true}
	return nil
}

type highlightsPayload struct {
	NumSentences     int `json:"numSentences"`
	HighlightsPerURL int `json:"highlightsPerUrl"`
}

type contentsPayload struct {
	Text       bool               `json:"text"`
	Highlights *highlightsPayload `json:"highlights,omitempty"`
	Summary    bool               `json:"summary,omitempty"`
	Livecrawl  string             `json:"livecrawl,omitempty"`
}

type searchPayload struct {
	Query              string          `json:"query"`
	NumResults         int             `json:"numResults"`
	Type               string          `json:"type"`
	Category           string          `json:"category,omitempty"`
	IncludeDomains     []string        `json:"includeDomains,omitempty"`
	ExcludeDomains     []string        `json:"excludeDomains,omitempty"`
	StartPublishedDate string          `json:"startPublishedDate,omitempty"`
	EndPublishedDate   string          `json:"endPublishedDate,omitempty"`
	IncludeText        []string        `json:"includeText,omitempty"`
	ExcludeText        []string        `json:"excludeText,omitempty"`
	Contents           contentsPayload `json:"contents"`
}

type similarPayload struct {
	URL                 string          `json:"url"`
	NumResults          int             `json:"numResults"`
	ExcludeSourceDomain bool            `json:"excludeSourceDomain"`
	Category            string          `json:"category,omitempty"`
	IncludeDomains      []string        `json:"includeDomains,omitempty"`
	ExcludeDomains      []string        `json:"excludeDomains,omitempty"`
	StartPublishedDate  string          `json:"startPublishedDate,omitempty"`
	EndPublishedDate    string          `json:"endPublishedDate,omitempty"`
	Contents            contentsPayload `json:"contents"`
}

func buildSearchPayload(req SearchRequest) searchPayload {
	payload := searchPayload{
		Query:              req.Query,
		NumResults:         clamp(req.NumResults, 1, 100),
		Type:               req.Type,
		IncludeDomains:     req.IncludeDomains,
		ExcludeDomains:     req.ExcludeDomains,
		StartPublishedDate: req.StartPublishedDate,
		EndPublishedDate:   req.EndPublishedDate,
		IncludeText:        firstOnly(req.IncludeText),
		ExcludeText:        firstOnly(req.ExcludeText),
		Contents:           contentsPayload{Text: true, Summary: req.Summary},
	}
	if payload.Type == "" {
		payload.Type = "auto"
	}
	if IsValidCategory(req.Category) {
		payload.Category = strings.ToLower(strings.TrimSpace(req.Category))
	}
	if req.Highlights {
		payload.Contents.Highlights = &highlightsPayload{
			NumSentences:     defaultInt(req.NumSentences, 3),
			HighlightsPerURL: defaultInt(req.HighlightsPerURL, 1),
		}
	}
	if isValidLivecrawl(req.Livecrawl) {
		payload.Contents.Livecrawl = req.Livecrawl
	}
	return payload
}

func buildSimilarPayload(req SimilarRequest) similarPayload {
	payload := similarPayload{
		URL:                 req.URL,
		NumResults:          clamp(req.NumResults, 1, 100),
		ExcludeSourceDomain: req.ExcludeSourceDomain,
		IncludeDomains:      req.IncludeDomains,
		ExcludeDomains:      req.ExcludeDomains,
		StartPublishedDate:  req.StartPublishedDate,
		EndPublishedDate:    req.EndPublishedDate,
		Contents:            contentsPayload{Text: true, Summary: req.Summary},
	}
	if IsValidCategory(req.Category) {
		payload.Category = strings.ToLower(strings.TrimSpace(req.Category))
	}
	if req.Highlights {
		payload.Contents.Highlights = &highlightsPayload{NumSentences: 3, HighlightsPerURL: 2}
	}
	return payload
}

// Search runs a direct API search. It requires an API key.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	return c.direct(ctx, "/search", buildSearchPayload(req))
}

// FindSimilar returns pages similar to req.URL. It requires an API key.
func (c *Client) FindSimilar(ctx context.Context, req SimilarRequest) (*SearchResponse, error) {
	return c.direct(ctx, "/findSimilar", buildSimilarPayload(req))
}

func (c *Client) direct(ctx context.Context, path string, payload any) (*SearchResponse, error) {
	if c == nil {
		return nil, fmt.Errorf("exa client not configured")
	}
	if !c.HasAPIKey() {
		return nil, ErrMissingAPIKey
	}

	if err := c.acquire(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	endpoint := strings.TrimRight(c.BaseURL, "/") + path
	respBody, err := c.post(ctx, endpoint, body, map[string]string{
		"Accept":    "application/json",
		"x-api-key": c.APIKey,
	})
	if err != nil {
		return nil, err
	}

	var parsed SearchResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	c.record(ctx)
	return &parsed, nil
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

func defaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func firstOnly(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	return values[:1]
}

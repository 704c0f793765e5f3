// Package exa talks to the Exa search service through its hosted MCP endpoint
// and its direct REST API. Every outbound call passes through a Gate.
package exa

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ninjaexa/ninjaexa/internal/core/ratelimit"
)

const (
	DefaultMCPURL  = "https://mcp.exa.ai/mcp"
	DefaultBaseURL = "https://api.exa.ai"
	DefaultTimeout = 30 * time.Second

	defaultUserAgent = "ninjaexa"
	maxResponseBytes = 16 << 20
)

// Gate decides whether an outbound call may proceed and counts calls that
// succeeded. *ratelimit.Limiter satisfies it.
type Gate interface {
	Check(ctx context.Context) ratelimit.Decision
	Record(ctx context.Context) ratelimit.Persistence
}

// Logger is the subset of the CLI logger the client needs.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
}

// Client calls Exa endpoints.
type Client struct {
	MCPURL     string
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Gate       Gate
	Logger     Logger
	Timeout    time.Duration
	UserAgent  string

	// Sleep waits out limiter delays. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Option customizes a Client.
type Option func(*Client)

func WithMCPURL(endpoint string) Option {
	return func(c *Client) {
		c.MCPURL = strings.TrimSpace(endpoint)
	}
}

func WithBaseURL(endpoint string) Option {
	return func(c *Client) {
		c.BaseURL = strings.TrimSpace(endpoint)
	}
}

func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.APIKey = strings.TrimSpace(key)
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.HTTPClient = client
	}
}

func WithGate(gate Gate) Option {
	return func(c *Client) {
		c.Gate = gate
	}
}

func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.Logger = logger
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.Timeout = timeout
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.UserAgent = ua
	}
}

func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.Sleep = sleep
	}
}

// NewClient returns a client with defaults applied.
func NewClient(opts ...Option) *Client {
	c := &Client{
		MCPURL:    DefaultMCPURL,
		BaseURL:   DefaultBaseURL,
		Timeout:   DefaultTimeout,
		UserAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.MCPURL == "" {
		c.MCPURL = DefaultMCPURL
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	return c
}

// HasAPIKey reports whether premium features are available.
func (c *Client) HasAPIKey() bool {
	return c != nil && strings.TrimSpace(c.APIKey) != ""
}

// acquire consults the gate before a network call. A refusal becomes a
// BlockedError; a delay is announced and waited out.
func (c *Client) acquire(ctx context.Context) error {
	if c.Gate == nil {
		return nil
	}

	decision := c.Gate.Check(ctx)
	c.logPersistence("check", decision.Persistence)

	if !decision.Allowed {
		return &BlockedError{Message: decision.Message}
	}
	if decision.Message != "" && c.Logger != nil {
		c.Logger.Warn(decision.Message,
			zap.Duration("delay", decision.Delay),
			zap.Int("penalty_level", decision.PenaltyLevel))
	}
	if decision.Delay > 0 {
		sleep := c.Sleep
		if sleep == nil {
			sleep = sleepContext
		}
		if err := sleep(ctx, decision.Delay); err != nil {
			return err
		}
	}
	return nil
}

// record counts a successful call.
func (c *Client) record(ctx context.Context) {
	if c.Gate == nil {
		return
	}
	c.logPersistence("record", c.Gate.Record(ctx))
}

func (c *Client) logPersistence(op string, p ratelimit.Persistence) {
	if c.Logger == nil {
		return
	}
	if err := p.Err(); err != nil {
		c.Logger.Debug("Rate limit state not persisted", zap.String("op", op), zap.Error(err))
	}
}

// post sends body to endpoint and returns the response body of a 2xx reply.
func (c *Client) post(ctx context.Context, endpoint string, body []byte, headers map[string]string) ([]byte, error) {
	ctx, cancel := withTimeout(ctx, c.Timeout)
	if cancel != nil {
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.UserAgent)
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, c.transportError(err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.transportError(err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}
	return respBody, nil
}

func (c *Client) transportError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = redactURL(urlErr.URL)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("request timed out after %s: %w", c.Timeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("network error: %w", err)
}

// redactURL hides the API key carried in premium tool URLs.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Get("exaApiKey") == "" {
		return raw
	}
	q.Set("exaApiKey", "REDACTED")
	u.RawQuery = q.Encode()
	return u.String()
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, nil
	}
	return context.WithTimeout(ctx, timeout)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

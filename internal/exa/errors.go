package exa

import (
	"errors"
	"fmt"
)

var (
	// ErrRateLimited is wrapped by BlockedError when the limiter refuses a call.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrMissingAPIKey is returned by direct API calls when no key was found.
	ErrMissingAPIKey = errors.New("EXA_API_KEY not set. Direct API features require an API key")

	// ErrNoResponseData is returned when an MCP response carries no result text.
	ErrNoResponseData = errors.New("no valid response data found. The search may have returned empty results")
)

// BlockedError carries the limiter's refusal message.
type BlockedError struct {
	Message string
}

func (e *BlockedError) Error() string {
	if e == nil || e.Message == "" {
		return ErrRateLimited.Error()
	}
	return e.Message
}

func (e *BlockedError) Unwrap() error {
	return ErrRateLimited
}

// RPCError is a JSON-RPC error object returned by the MCP endpoint.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	if e == nil {
		return "MCP error"
	}
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// ToolUnavailable reports whether the endpoint rejected the tool itself,
// which usually means a premium tool was called without a key.
func (e *RPCError) ToolUnavailable() bool {
	if e == nil {
		return false
	}
	return e.Code == -32602 || containsFold(e.Message, "not found")
}

// APIError is returned when an endpoint responds with a non-2xx status.
//
// Message must never include API keys.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return "Exa API error"
	}
	return fmt.Sprintf("Exa API error (%d): %s", e.StatusCode, e.Message)
}

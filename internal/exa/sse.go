package exa

import (
	"bytes"
	"strings"

	"github.com/valyala/fastjson"
)

// ParseSSE extracts the first result text from an MCP response. The body is
// a Server-Sent Events stream whose "data: " lines carry JSON-RPC messages;
// lines that are not valid JSON are skipped. A bare JSON body is accepted too.
func ParseSSE(body []byte) (string, error) {
	var p fastjson.Parser

	payloads := make([]string, 0, 4)
	for _, line := range strings.Split(strings.TrimSpace(string(body)), "\n") {
		line = strings.TrimRight(line, "\r")
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			payloads = append(payloads, data)
		}
	}
	if len(payloads) == 0 {
		if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '{' {
			payloads = append(payloads, string(trimmed))
		}
	}

	for _, data := range payloads {
		v, err := p.Parse(data)
		if err != nil {
			continue
		}

		if rpcErr := v.Get("error"); rpcErr != nil && rpcErr.Type() == fastjson.TypeObject {
			msg := string(rpcErr.GetStringBytes("message"))
			if msg == "" {
				msg = "Unknown error"
			}
			return "", &RPCError{Code: rpcErr.GetInt("code"), Message: msg}
		}

		content := v.GetArray("result", "content")
		if len(content) > 0 {
			return string(content[0].GetStringBytes("text")), nil
		}
	}

	return "", ErrNoResponseData
}

// errorMessage pulls the "error" field out of a JSON error body, falling back
// to the raw body.
func errorMessage(body []byte) string {
	raw := strings.TrimSpace(string(body))
	v, err := fastjson.ParseBytes(body)
	if err != nil {
		return raw
	}
	field := v.Get("error")
	if field == nil {
		return raw
	}
	if field.Type() == fastjson.TypeString {
		return string(field.GetStringBytes())
	}
	return field.String()
}

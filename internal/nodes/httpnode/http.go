// Package httpnode contributes the outbound HTTP request node.
package httpnode

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"engine/internal/flow"
	"engine/internal/schema"
)

const DefaultTimeoutMs = 30000

// Package exports the integration: no secrets, one node. defaultTimeoutMs
// becomes the timeout applied to node instances that do not configure one;
// zero or negative selects the built-in default.
func Package(defaultTimeoutMs int) flow.Package {
	if defaultTimeoutMs <= 0 {
		defaultTimeoutMs = DefaultTimeoutMs
	}
	return flow.Package{
		Name:  "http",
		Nodes: []*flow.Definition{requestDefinition(defaultTimeoutMs)},
	}
}

func requestDefinition(defaultTimeoutMs int) *flow.Definition {
	return &flow.Definition{
		Name:        "httpRequest",
		Title:       "HTTP Request",
		Description: "Performs an outbound HTTP request and returns status, headers and body",
		Icon:        "globe",
		NodeType:    flow.NodeTypeAction,
		Category:    "Network",
		Properties: schema.Object(
			schema.N("method", &schema.Field{
				Kind:    schema.KindEnum,
				Title:   "Method",
				Values:  []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
				Default: "GET",
				Widget:  schema.WidgetSelect,
			}),
			schema.N("url", &schema.Field{
				Kind:     schema.KindString,
				Title:    "URL",
				Required: true,
				Format:   schema.FormatURL,
			}),
			schema.N("headers", withTitle(schema.KeyValueList(), "Headers")),
			schema.N("body", &schema.Field{
				Kind:   schema.KindString,
				Title:  "Body",
				Widget: schema.WidgetTextarea,
			}),
			schema.N("timeout", &schema.Field{
				Kind:        schema.KindNumber,
				Title:       "Timeout (ms)",
				Description: "Request is aborted after this many milliseconds",
				Default:     defaultTimeoutMs,
			}),
		),
		Result: schema.Object(
			schema.N("statusCode", &schema.Field{Kind: schema.KindNumber, Required: true}),
			schema.N("headers", &schema.Field{Kind: schema.KindObject, Description: "First value per response header name"}),
			schema.N("body", &schema.Field{Kind: schema.KindString, Required: true}),
			schema.N("responseTime", &schema.Field{Kind: schema.KindNumber, Required: true, Description: "Elapsed wall-clock milliseconds"}),
		),
		Execute: execute,
	}
}

func withTitle(f *schema.Field, title string) *schema.Field {
	f.Title = title
	return f
}

func execute(ctx context.Context, inv *flow.Invocation) (map[string]any, error) {
	method, _ := inv.Properties["method"].(string)
	url, _ := inv.Properties["url"].(string)
	timeoutMs := DefaultTimeoutMs
	if t, ok := inv.Properties["timeout"].(float64); ok && t > 0 {
		timeoutMs = int(t)
	}

	// Body is only attached for non-GET methods.
	var reqBody io.Reader
	if body, ok := inv.Properties["body"].(string); ok && body != "" && method != http.MethodGet {
		reqBody = strings.NewReader(body)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, flow.NewFailure(flow.FailureTransportError, "failed to build request: %v", err)
	}
	applyHeaders(req, inv.Properties["headers"])

	// Response time covers issuing the request through fully reading the
	// body, not just the status line.
	started := time.Now()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, classifyTransport(err, timeoutMs)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(err, timeoutMs)
	}
	elapsed := time.Since(started).Milliseconds()

	// A 4xx/5xx status is data for downstream nodes, not a failure.
	headers := make(map[string]any, len(resp.Header))
	for name := range resp.Header {
		headers[name] = resp.Header.Get(name)
	}

	return map[string]any{
		"statusCode":   resp.StatusCode,
		"headers":      headers,
		"body":         string(body),
		"responseTime": elapsed,
	}, nil
}

func applyHeaders(req *http.Request, raw any) {
	items, ok := raw.([]any)
	if !ok {
		return
	}
	for _, item := range items {
		kv, ok := item.(map[string]any)
		if !ok {
			continue
		}
		key, _ := kv["key"].(string)
		value, _ := kv["value"].(string)
		if key != "" {
			req.Header.Set(key, value)
		}
	}
}

func classifyTransport(err error, timeoutMs int) *flow.Failure {
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		f := flow.NewFailure(flow.FailureTimeout, "request timed out after %dms", timeoutMs)
		f.Payload = map[string]any{"timeout": timeoutMs}
		return f
	}
	return flow.NewFailure(flow.FailureTransportError, "%s", err.Error())
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	if errors.As(err, &t) {
		return t.Timeout()
	}
	return false
}

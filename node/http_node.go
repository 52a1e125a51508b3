package node

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var _ Handler = new(httpNode)

// httpNode performs one HTTP request. JSON response bodies are decoded;
// anything else is returned as a string.
type httpNode struct {
	client *http.Client
}

func (n *httpNode) Run(ctx context.Context, inv Invocation) (any, error) {
	url := configString(inv.Config, "url", "")
	if url == "" {
		return nil, fmt.Errorf("http_request requires a url")
	}
	method := strings.ToUpper(configString(inv.Config, "method", http.MethodGet))

	timeout := 30 * time.Second
	if seconds, ok := inv.Config["timeout"].(float64); ok && seconds > 0 {
		timeout = time.Duration(seconds * float64(time.Second))
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	contentType := ""
	switch payload := inv.Config["body"].(type) {
	case nil:
	case string:
		body = strings.NewReader(payload)
	default:
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if headers, ok := inv.Config["headers"].(map[string]any); ok {
		for name, value := range headers {
			req.Header.Set(name, fmt.Sprintf("%v", value))
		}
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed any = string(raw)
	if strings.Contains(resp.Header.Get("Content-Type"), "json") {
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err == nil {
			parsed = decoded
		}
	}
	return map[string]any{
		"status": resp.StatusCode,
		"body":   parsed,
	}, nil
}

func HttpRequestDescriptor() Descriptor {
	return Descriptor{
		Kind:        KIND_HTTP_REQUEST,
		DisplayName: "HTTP Request",
		Description: "Make an HTTP request to an external API",
		Category:    "Integration",
		// remote calls are effectful and answer differently over time
		Cacheable: false,
		ConfigSchema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"url":     {Type: "string"},
				"method":  {Type: "string", Default: "GET"},
				"headers": {Type: "object"},
				"body":    {},
				"timeout": {Type: "number", Default: 30},
			},
			Required: []string{"url"},
		},
		InputSchema:  Schema{Type: "object"},
		OutputSchema: Schema{Type: "object"},
		Factory:      func() Handler { return &httpNode{client: &http.Client{}} },
	}
}

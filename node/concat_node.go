package node

import (
	"context"
	"fmt"
	"strings"
)

var _ Handler = new(concatNode)

type concatNode struct{}

func (n *concatNode) Run(ctx context.Context, inv Invocation) (any, error) {
	if parts, ok := inv.Config["parts"].([]any); ok {
		separator := configString(inv.Config, "separator", "")
		rendered := make([]string, len(parts))
		for i, part := range parts {
			if s, ok := part.(string); ok {
				rendered[i] = s
			} else {
				rendered[i] = fmt.Sprintf("%v", part)
			}
		}
		return strings.Join(rendered, separator), nil
	}
	if text, ok := inv.Config["text"].(string); ok {
		return text, nil
	}
	return nil, fmt.Errorf("concat requires either parts or text")
}

func ConcatDescriptor() Descriptor {
	return Descriptor{
		Kind:        KIND_CONCAT,
		DisplayName: "Concat",
		Description: "Join values into a single string",
		Category:    "Data",
		Cacheable:   true,
		ConfigSchema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"parts":     {Type: "array"},
				"separator": {Type: "string", Default: ""},
				"text":      {Type: "string"},
			},
		},
		InputSchema:  Schema{Type: "object"},
		OutputSchema: Schema{Type: "string"},
		Factory:      func() Handler { return &concatNode{} },
	}
}

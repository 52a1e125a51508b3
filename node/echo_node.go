package node

import "context"

var _ Handler = new(echoNode)

type echoNode struct{}

func (n *echoNode) Run(ctx context.Context, inv Invocation) (any, error) {
	prefix := configString(inv.Config, "prefix", "")
	text := configString(inv.Config, "text", "")
	return prefix + text, nil
}

func EchoDescriptor() Descriptor {
	return Descriptor{
		Kind:        KIND_ECHO,
		DisplayName: "Echo",
		Description: "Emit a text value with an optional prefix",
		Category:    "Data",
		Cacheable:   true,
		ConfigSchema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"text":   {Type: "string"},
				"prefix": {Type: "string", Default: ""},
			},
			Required: []string{"text"},
		},
		InputSchema:  Schema{Type: "object"},
		OutputSchema: Schema{Type: "string"},
		Factory:      func() Handler { return &echoNode{} },
	}
}

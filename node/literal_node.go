package node

import "context"

var _ Handler = new(literalNode)

type literalNode struct{}

func (n *literalNode) Run(ctx context.Context, inv Invocation) (any, error) {
	return inv.Config["value"], nil
}

func LiteralDescriptor() Descriptor {
	return Descriptor{
		Kind:        KIND_LITERAL,
		DisplayName: "Literal",
		Description: "Emit a constant value",
		Category:    "Data",
		Cacheable:   true,
		ConfigSchema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"value": {Description: "The value to emit"},
			},
			Required: []string{"value"},
		},
		InputSchema:  Schema{Type: "object"},
		OutputSchema: Schema{},
		Factory:      func() Handler { return &literalNode{} },
	}
}

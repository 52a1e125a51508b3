package node

import "context"

var _ Handler = new(inputNode)

// inputNode surfaces the caller-supplied execution input. With a key
// configured it emits that single input value, otherwise the whole map.
type inputNode struct{}

func (n *inputNode) Run(ctx context.Context, inv Invocation) (any, error) {
	if key := configString(inv.Config, "key", ""); key != "" {
		if value, ok := inv.CallerInputs[key]; ok {
			return value, nil
		}
		return inv.Config["default"], nil
	}
	out := make(map[string]any, len(inv.CallerInputs))
	for k, v := range inv.CallerInputs {
		out[k] = v
	}
	return out, nil
}

func InputDescriptor() Descriptor {
	return Descriptor{
		Kind:        KIND_INPUT,
		DisplayName: "User Input",
		Description: "Surface caller-provided input data",
		Category:    "Input/Output",
		// output depends on the execution's input map, which is not part
		// of the cache fingerprint
		Cacheable: false,
		ConfigSchema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"key":     {Type: "string"},
				"default": {},
			},
		},
		InputSchema:  Schema{Type: "object"},
		OutputSchema: Schema{},
		Factory:      func() Handler { return &inputNode{} },
	}
}

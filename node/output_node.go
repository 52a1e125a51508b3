package node

import (
	"context"

	"github.com/loomworks/loom/template"
)

var _ Handler = new(outputNode)

// outputNode is the sink kind. It shapes the data arriving from its
// predecessors into the execution's final output: a resolved template
// string, a selection of dot-path fields, or the raw input payload.
type outputNode struct{}

func (n *outputNode) Run(ctx context.Context, inv Invocation) (any, error) {
	if tmpl := configString(inv.Config, "template", ""); tmpl != "" {
		return tmpl, nil
	}
	if fields, ok := inv.Config["fields"].([]any); ok && len(fields) > 0 {
		out := make(map[string]any, len(fields))
		for _, field := range fields {
			path, ok := field.(string)
			if !ok {
				continue
			}
			value, err := template.Lookup(inv.Inputs, path)
			if err != nil {
				value = nil
			}
			out[path] = value
		}
		return out, nil
	}
	if len(inv.Inputs) == 1 {
		for _, value := range inv.Inputs {
			return value, nil
		}
	}
	out := make(map[string]any, len(inv.Inputs))
	for k, v := range inv.Inputs {
		out[k] = v
	}
	return out, nil
}

func OutputDescriptor() Descriptor {
	return Descriptor{
		Kind:        KIND_OUTPUT,
		DisplayName: "Output",
		Description: "Collect and shape the final workflow output",
		Category:    "Input/Output",
		Cacheable:   true,
		ConfigSchema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"template": {Type: "string"},
				"fields":   {Type: "array"},
			},
		},
		InputSchema:  Schema{Type: "object"},
		OutputSchema: Schema{},
		Factory:      func() Handler { return &outputNode{} },
	}
}

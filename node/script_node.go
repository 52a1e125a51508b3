package node

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dop251/goja"
)

var _ Handler = new(scriptNode)

// scriptNode evaluates a javascript expression. The node's inputs map is
// bound as the global `inputs`; the value of the final expression becomes
// the node output.
type scriptNode struct{}

func (n *scriptNode) Run(ctx context.Context, inv Invocation) (any, error) {
	script := configString(inv.Config, "script", "")
	vm := goja.New()
	if err := vm.Set("inputs", inv.Inputs); err != nil {
		return nil, err
	}
	value, err := vm.RunString(script)
	if err != nil {
		return nil, fmt.Errorf("error executing javascript %w", err)
	}
	return normalize(value.Export())
}

// normalize round-trips the exported value through JSON so downstream
// consumers see the same shapes as any other node output.
func normalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func ScriptDescriptor() Descriptor {
	return Descriptor{
		Kind:        KIND_SCRIPT,
		DisplayName: "Script",
		Description: "Evaluate a javascript expression over the node inputs",
		Category:    "Logic",
		Cacheable:   true,
		ConfigSchema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"script": {Type: "string"},
			},
			Required: []string{"script"},
		},
		InputSchema:  Schema{Type: "object"},
		OutputSchema: Schema{},
		Factory:      func() Handler { return &scriptNode{} },
	}
}

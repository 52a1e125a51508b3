package node

import (
	"context"
	"fmt"
	"strconv"

	"github.com/oliveagle/jsonpath"
)

var _ Handler = new(switchNode)

// switchNode evaluates a jsonpath expression against its inputs map and
// emits the matching case. The expression value is folded to a string the
// same way for numbers, booleans and strings so cases can be written as
// plain JSON keys.
type switchNode struct{}

func (n *switchNode) Run(ctx context.Context, inv Invocation) (any, error) {
	expression := configString(inv.Config, "expression", "")
	value, err := jsonpath.JsonPathLookup(inv.Inputs, expression)
	if err != nil {
		return nil, fmt.Errorf("switch expression %q: %w", expression, err)
	}
	var caseKey string
	switch v := value.(type) {
	case string:
		caseKey = v
	case bool:
		caseKey = strconv.FormatBool(v)
	case int:
		caseKey = strconv.Itoa(v)
	case int64:
		caseKey = strconv.FormatInt(v, 10)
	case float64:
		caseKey = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		caseKey = fmt.Sprintf("%v", v)
	}
	out := map[string]any{"case": caseKey}
	if cases, ok := inv.Config["cases"].(map[string]any); ok {
		if matched, ok := cases[caseKey]; ok {
			out["value"] = matched
		} else if fallback, ok := cases["default"]; ok {
			out["value"] = fallback
		}
	}
	return out, nil
}

func SwitchDescriptor() Descriptor {
	return Descriptor{
		Kind:        KIND_SWITCH,
		DisplayName: "Switch",
		Description: "Select a case by evaluating a jsonpath expression over the node inputs",
		Category:    "Logic",
		Cacheable:   true,
		ConfigSchema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"expression": {Type: "string", Description: "jsonpath expression, e.g. $.check.flag"},
				"cases":      {Type: "object"},
			},
			Required: []string{"expression"},
		},
		InputSchema:  Schema{Type: "object"},
		OutputSchema: Schema{Type: "object"},
		Factory:      func() Handler { return &switchNode{} },
	}
}

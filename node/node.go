package node

import (
	"context"
	"fmt"
)

const KIND_LITERAL = "literal"
const KIND_ECHO = "echo"
const KIND_CONCAT = "concat"
const KIND_INPUT = "input"
const KIND_OUTPUT = "output"
const KIND_SWITCH = "switch"
const KIND_SCRIPT = "script"
const KIND_HTTP_REQUEST = "http_request"

// SinkKind is the designated output kind: results of nodes of this kind
// form the execution's final output.
const SinkKind = KIND_OUTPUT

// Invocation carries everything a handler may see for one run. Config is
// already template-resolved and Inputs maps predecessor id to that
// predecessor's output; handlers do no interpolation of their own.
// CallerInputs is the original execution input map and must be treated as
// read-only.
type Invocation struct {
	WorkflowId   string
	ExecutionId  string
	NodeId       string
	Config       map[string]any
	Inputs       map[string]any
	CallerInputs map[string]any
}

// Handler is the contract every node kind implements. Run may block on I/O
// and must honour ctx cancellation; it must be safe to invoke concurrently
// across distinct instances. A failure is signalled by returning an error.
type Handler interface {
	Run(ctx context.Context, inv Invocation) (any, error)
}

// Descriptor describes a registered node kind. Factory builds a fresh
// handler per invocation. Kinds whose output is not a pure function of
// (config, inputs) must set Cacheable to false.
type Descriptor struct {
	Kind         string         `json:"kind"`
	DisplayName  string         `json:"display_name"`
	Description  string         `json:"description"`
	Category     string         `json:"category"`
	Cacheable    bool           `json:"cacheable"`
	ConfigSchema Schema         `json:"config_schema"`
	InputSchema  Schema         `json:"input_schema"`
	OutputSchema Schema         `json:"output_schema"`
	Factory      func() Handler `json:"-"`
}

// Schema is the structural descriptor used to validate node configuration
// and to describe inputs/outputs to preview tooling.
type Schema struct {
	Type       string              `json:"type,omitempty"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

type Property struct {
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`
}

// ValidateConfig checks required fields and property types. Properties with
// an empty type accept any value.
func (s Schema) ValidateConfig(config map[string]any) error {
	for _, field := range s.Required {
		if _, ok := config[field]; !ok {
			return fmt.Errorf("missing required config field %q", field)
		}
	}
	for name, prop := range s.Properties {
		value, ok := config[name]
		if !ok || value == nil || prop.Type == "" {
			continue
		}
		if !typeMatches(prop.Type, value) {
			return fmt.Errorf("config field %q must be of type %s", name, prop.Type)
		}
	}
	return nil
}

func typeMatches(schemaType string, value any) bool {
	switch schemaType {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		switch value.(type) {
		case int, int32, int64, float32, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	}
	return true
}

func configString(config map[string]any, key string, def string) string {
	if v, ok := config[key].(string); ok {
		return v
	}
	return def
}

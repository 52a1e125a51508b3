package node

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, desc Descriptor, inv Invocation) any {
	t.Helper()
	output, err := desc.Factory().Run(context.Background(), inv)
	require.NoError(t, err)
	return output
}

func TestLiteralNode(t *testing.T) {
	out := run(t, LiteralDescriptor(), Invocation{Config: map[string]any{"value": "hi"}})
	require.Equal(t, "hi", out)

	out = run(t, LiteralDescriptor(), Invocation{Config: map[string]any{"value": float64(42)}})
	require.Equal(t, float64(42), out)
}

func TestEchoNode(t *testing.T) {
	out := run(t, EchoDescriptor(), Invocation{Config: map[string]any{"prefix": "X-", "text": "hi"}})
	require.Equal(t, "X-hi", out)

	out = run(t, EchoDescriptor(), Invocation{Config: map[string]any{"text": "plain"}})
	require.Equal(t, "plain", out)
}

func TestConcatNode(t *testing.T) {
	out := run(t, ConcatDescriptor(), Invocation{Config: map[string]any{
		"parts":     []any{"a", "b", float64(3)},
		"separator": "|",
	}})
	require.Equal(t, "a|b|3", out)

	out = run(t, ConcatDescriptor(), Invocation{Config: map[string]any{"text": "42|42"}})
	require.Equal(t, "42|42", out)

	_, err := ConcatDescriptor().Factory().Run(context.Background(), Invocation{Config: map[string]any{}})
	require.Error(t, err)
}

func TestInputNode(t *testing.T) {
	callerInputs := map[string]any{"topic": "go", "limit": float64(3)}

	out := run(t, InputDescriptor(), Invocation{Config: map[string]any{}, CallerInputs: callerInputs})
	require.Equal(t, callerInputs, out)

	out = run(t, InputDescriptor(), Invocation{Config: map[string]any{"key": "topic"}, CallerInputs: callerInputs})
	require.Equal(t, "go", out)

	out = run(t, InputDescriptor(), Invocation{Config: map[string]any{"key": "missing", "default": "fallback"}, CallerInputs: callerInputs})
	require.Equal(t, "fallback", out)
}

func TestOutputNode(t *testing.T) {
	inputs := map[string]any{
		"gen": map[string]any{"text": "result", "score": float64(9)},
	}

	// single input collapses to its value
	out := run(t, OutputDescriptor(), Invocation{Config: map[string]any{}, Inputs: inputs})
	require.Equal(t, inputs["gen"], out)

	// template mode returns the resolved template verbatim
	out = run(t, OutputDescriptor(), Invocation{Config: map[string]any{"template": "done"}, Inputs: inputs})
	require.Equal(t, "done", out)

	// field selection digs dot paths out of the inputs
	out = run(t, OutputDescriptor(), Invocation{Config: map[string]any{"fields": []any{"gen.text"}}, Inputs: inputs})
	require.Equal(t, map[string]any{"gen.text": "result"}, out)

	// several inputs come back as a map
	multi := map[string]any{"a": "x", "b": "y"}
	out = run(t, OutputDescriptor(), Invocation{Config: map[string]any{}, Inputs: multi})
	require.Equal(t, multi, out)
}

func TestSwitchNode(t *testing.T) {
	inputs := map[string]any{
		"check": map[string]any{"flag": true, "mode": "fast"},
	}

	out := run(t, SwitchDescriptor(), Invocation{
		Config: map[string]any{"expression": "$.check.flag"},
		Inputs: inputs,
	})
	require.Equal(t, map[string]any{"case": "true"}, out)

	out = run(t, SwitchDescriptor(), Invocation{
		Config: map[string]any{
			"expression": "$.check.mode",
			"cases":      map[string]any{"fast": float64(1), "slow": float64(2)},
		},
		Inputs: inputs,
	})
	require.Equal(t, map[string]any{"case": "fast", "value": float64(1)}, out)

	_, err := SwitchDescriptor().Factory().Run(context.Background(), Invocation{
		Config: map[string]any{"expression": "$.absent.path"},
		Inputs: inputs,
	})
	require.Error(t, err)
}

func TestScriptNode(t *testing.T) {
	out := run(t, ScriptDescriptor(), Invocation{
		Config: map[string]any{"script": "inputs.a + inputs.b"},
		Inputs: map[string]any{"a": float64(2), "b": float64(3)},
	})
	require.Equal(t, float64(5), out)

	out = run(t, ScriptDescriptor(), Invocation{
		Config: map[string]any{"script": `({total: inputs.a * 2, tag: "x"})`},
		Inputs: map[string]any{"a": float64(4)},
	})
	require.Equal(t, map[string]any{"total": float64(8), "tag": "x"}, out)

	_, err := ScriptDescriptor().Factory().Run(context.Background(), Invocation{
		Config: map[string]any{"script": "syntax error here"},
	})
	require.Error(t, err)
}

func TestHttpNode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	out := run(t, HttpRequestDescriptor(), Invocation{Config: map[string]any{"url": server.URL}})
	payload := out.(map[string]any)
	require.Equal(t, 200, payload["status"])
	require.Equal(t, map[string]any{"ok": true}, payload["body"])
}

func TestHttpNodePost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte("created"))
	}))
	defer server.Close()

	out := run(t, HttpRequestDescriptor(), Invocation{Config: map[string]any{
		"url":    server.URL,
		"method": "POST",
		"body":   map[string]any{"name": "loom"},
	}})
	payload := out.(map[string]any)
	require.Equal(t, 200, payload["status"])
	require.Equal(t, "created", payload["body"])
}

func TestHttpNodeRequiresUrl(t *testing.T) {
	_, err := HttpRequestDescriptor().Factory().Run(context.Background(), Invocation{Config: map[string]any{}})
	require.Error(t, err)
}

func TestSchemaValidateConfig(t *testing.T) {
	schema := Schema{
		Type: "object",
		Properties: map[string]Property{
			"text":  {Type: "string"},
			"count": {Type: "number"},
			"flags": {Type: "array"},
		},
		Required: []string{"text"},
	}
	require.NoError(t, schema.ValidateConfig(map[string]any{"text": "hi", "count": float64(1)}))
	require.Error(t, schema.ValidateConfig(map[string]any{"count": float64(1)}))
	require.Error(t, schema.ValidateConfig(map[string]any{"text": float64(1)}))
	require.Error(t, schema.ValidateConfig(map[string]any{"text": "hi", "flags": "not a list"}))
}

func TestBuiltinsAreWellFormed(t *testing.T) {
	seen := map[string]bool{}
	for _, desc := range Builtins() {
		require.NotEmpty(t, desc.Kind)
		require.NotNil(t, desc.Factory)
		require.False(t, seen[desc.Kind], "duplicate kind %s", desc.Kind)
		seen[desc.Kind] = true
	}
	require.True(t, seen[SinkKind])
}

package template

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/oliveagle/jsonpath"
)

// tokenRegex matches {{path}} placeholders. The first path segment is an
// identifier; later segments may also be list indices.
var tokenRegex = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z0-9_]+)*)\s*\}\}`)

// ResolveString substitutes every {{path}} placeholder in s with the value
// found at that path in data. Placeholders whose path cannot be resolved are
// left unchanged. Substituted content is never rescanned.
func ResolveString(s string, data map[string]any) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	return tokenRegex.ReplaceAllStringFunc(s, func(token string) string {
		path := tokenRegex.FindStringSubmatch(token)[1]
		value, err := Lookup(data, path)
		if err != nil {
			return token
		}
		return render(value)
	})
}

// Lookup resolves a dot-separated path against data. Digit-only segments
// index into lists; all other segments are map keys.
func Lookup(data map[string]any, path string) (any, error) {
	return jsonpath.JsonPathLookup(data, toJsonPath(path))
}

func toJsonPath(path string) string {
	var b strings.Builder
	b.WriteString("$")
	for _, segment := range strings.Split(path, ".") {
		if isIndex(segment) {
			b.WriteString("[" + segment + "]")
		} else {
			b.WriteString("." + segment)
		}
	}
	return b.String()
}

func isIndex(segment string) bool {
	if len(segment) == 0 {
		return false
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func render(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(data)
	}
}

// Resolve walks a structured configuration value and resolves every string
// leaf against data. Non-string leaves are returned unchanged.
func Resolve(value any, data map[string]any) any {
	switch v := value.(type) {
	case string:
		return ResolveString(v, data)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = Resolve(item, data)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Resolve(item, data)
		}
		return out
	default:
		return value
	}
}

// ResolveConfig resolves a node configuration map against data.
func ResolveConfig(config map[string]any, data map[string]any) map[string]any {
	if config == nil {
		return map[string]any{}
	}
	return Resolve(config, data).(map[string]any)
}

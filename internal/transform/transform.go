package transform

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"forminput/internal/logging"

	"github.com/Knetic/govaluate"
)

// Func is a pure value-to-value transformation usable as a custom cast.
type Func func(value interface{}) interface{}

// factory builds a Func from the shorthand part of a transform spec
// ("regexExtract:^(\d+)" has shorthand "^(\d+)") and explicit params.
type factory func(shorthand string, params map[string]interface{}) (Func, error)

// registry maps lowercase transform names to their factories.
var registry = map[string]factory{
	"trim":         simple(trim),
	"touppercase":  simple(toUpperCase),
	"tolowercase":  simple(toLowerCase),
	"tostring":     simple(toString),
	"replaceall":   newReplaceAll,
	"substring":    newSubstring,
	"regexextract": newRegexExtract,
	"expr":         newExpression,
}

// Known reports whether name (without shorthand) is a registered transform.
func Known(name string) bool {
	base, _, _ := strings.Cut(name, ":")
	_, ok := registry[strings.ToLower(strings.TrimSpace(base))]
	return ok
}

// Names lists the registered transform names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build resolves a transform spec such as "toUpperCase" or "expr:value * 100"
// into a Func. Patterns and expressions are compiled here, once.
func Build(spec string, params map[string]interface{}) (Func, error) {
	name, shorthand, _ := strings.Cut(spec, ":")
	name = strings.ToLower(strings.TrimSpace(name))
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown transform '%s'", name)
	}
	fn, err := f(strings.TrimSpace(shorthand), params)
	if err != nil {
		return nil, fmt.Errorf("transform '%s': %w", name, err)
	}
	logging.Logf(logging.Debug, "Built transform '%s' (shorthand=%q, params=%v)", name, shorthand, params)
	return fn, nil
}

func simple(fn Func) factory {
	return func(string, map[string]interface{}) (Func, error) {
		return fn, nil
	}
}

func trim(value interface{}) interface{} {
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}
	return value
}

func toUpperCase(value interface{}) interface{} {
	if s, ok := value.(string); ok {
		return strings.ToUpper(s)
	}
	return value
}

func toLowerCase(value interface{}) interface{} {
	if s, ok := value.(string); ok {
		return strings.ToLower(s)
	}
	return value
}

func toString(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprintf("%v", value)
}

func newReplaceAll(_ string, params map[string]interface{}) (Func, error) {
	old, ok := stringParam(params, "old")
	if !ok || old == "" {
		return nil, fmt.Errorf("requires a non-empty 'old' string parameter")
	}
	replacement, _ := stringParam(params, "new")
	return func(value interface{}) interface{} {
		if s, ok := value.(string); ok {
			return strings.ReplaceAll(s, old, replacement)
		}
		return value
	}, nil
}

func newSubstring(_ string, params map[string]interface{}) (Func, error) {
	start, ok := intParam(params, "start")
	if !ok || start < 0 {
		return nil, fmt.Errorf("requires a non-negative integer 'start' parameter")
	}
	length, hasLength := intParam(params, "length")
	if hasLength && length < 0 {
		return nil, fmt.Errorf("'length' must not be negative")
	}
	return func(value interface{}) interface{} {
		s, ok := value.(string)
		if !ok {
			return value
		}
		runes := []rune(s)
		if start >= len(runes) {
			return ""
		}
		end := len(runes)
		if hasLength && start+length < end {
			end = start + length
		}
		return string(runes[start:end])
	}, nil
}

func newRegexExtract(shorthand string, params map[string]interface{}) (Func, error) {
	pattern := shorthand
	if p, ok := stringParam(params, "pattern"); ok {
		pattern = p
	}
	if pattern == "" {
		return nil, fmt.Errorf("requires a pattern")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern '%s': %w", pattern, err)
	}
	return func(value interface{}) interface{} {
		s, ok := value.(string)
		if !ok {
			return nil
		}
		if m := re.FindStringSubmatch(s); len(m) >= 2 {
			return m[1]
		}
		return nil
	}, nil
}

// newExpression compiles a govaluate expression. The expression sees the
// field value as `value` (numeric strings are read as numbers) and the
// untouched input as `raw`. Evaluation failures keep the input unchanged.
func newExpression(shorthand string, params map[string]interface{}) (Func, error) {
	source := shorthand
	if e, ok := stringParam(params, "expression"); ok {
		source = e
	}
	if source == "" {
		return nil, fmt.Errorf("requires an expression")
	}
	expr, err := govaluate.NewEvaluableExpression(source)
	if err != nil {
		return nil, fmt.Errorf("invalid expression '%s': %w", source, err)
	}
	return func(value interface{}) interface{} {
		result, err := expr.Evaluate(map[string]interface{}{
			"value": expressionOperand(value),
			"raw":   value,
		})
		if err != nil {
			logging.Logf(logging.Warning, "expr: evaluating '%s' with value %v failed: %v", source, value, err)
			return value
		}
		return result
	}, nil
}

func expressionOperand(value interface{}) interface{} {
	s, ok := value.(string)
	if !ok {
		return value
	}
	trimmed := strings.TrimSpace(s)
	if trimmed != "" && numericPrefix(trimmed) == trimmed {
		return ToFloat(trimmed)
	}
	return s
}

func stringParam(params map[string]interface{}, key string) (string, bool) {
	v, ok := params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func intParam(params map[string]interface{}, key string) (int, bool) {
	v, ok := params[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case string:
		trimmed := strings.TrimSpace(n)
		if trimmed == "" || numericPrefix(trimmed) != trimmed {
			return 0, false
		}
	case bool:
		return 0, false
	}
	return int(ToInt(v)), true
}

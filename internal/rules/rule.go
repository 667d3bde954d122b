package rules

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRule is returned when a rule chain names a rule the engine does
// not implement.
var ErrUnknownRule = errors.New("unknown rule")

// ErrInvalidRule is returned when a known rule is given unusable parameters.
var ErrInvalidRule = errors.New("invalid rule")

// Rule is one entry of a chain such as "between:1,10".
type Rule struct {
	Name   string
	Params []string
}

func (r Rule) String() string {
	if len(r.Params) == 0 {
		return r.Name
	}
	return r.Name + ":" + strings.Join(r.Params, ",")
}

// Chain is the parsed form of a pipe-separated rule string.
type Chain []Rule

// Has reports whether the chain contains a rule called name.
func (c Chain) Has(name string) bool {
	for _, r := range c {
		if r.Name == name {
			return true
		}
	}
	return false
}

// Parse splits a chain such as "required|email|max:255" into rules and
// checks each against the engine's rule set. Empty segments are ignored.
// The regex rule keeps its parameter whole, commas included.
func Parse(chain string) (Chain, error) {
	var out Chain
	for _, segment := range strings.Split(chain, "|") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		name, rawParams, hasParams := strings.Cut(segment, ":")
		name = strings.ToLower(strings.TrimSpace(name))

		def, ok := definitions[name]
		if !ok {
			return nil, fmt.Errorf("%w '%s'", ErrUnknownRule, name)
		}

		var params []string
		if hasParams {
			if def.wholeParam {
				params = []string{rawParams}
			} else {
				for _, p := range strings.Split(rawParams, ",") {
					params = append(params, strings.TrimSpace(p))
				}
			}
		}
		if len(params) < def.minParams {
			return nil, fmt.Errorf("%w: '%s' needs at least %d parameter(s)", ErrInvalidRule, name, def.minParams)
		}
		out = append(out, Rule{Name: name, Params: params})
	}
	return out, nil
}

// Check reports whether chain parses with known rules only.
func Check(chain string) error {
	_, err := Parse(chain)
	return err
}

// Known reports whether name is an implemented rule.
func Known(name string) bool {
	_, ok := definitions[strings.ToLower(name)]
	return ok
}

// Package forms builds input.Form implementations from configuration.
package forms

import (
	"fmt"
	"sort"
	"strings"

	"forminput/internal/config"
	"forminput/internal/input"
	"forminput/internal/transform"
	"forminput/internal/util"
)

// Definition is a form declared in configuration. It implements
// input.Form, input.Defaulter, input.MessageProvider and input.Caster.
type Definition struct {
	name     string
	rules    input.Rules
	defaults input.Values
	messages input.Messages
	casts    input.Casts
}

// New builds a Definition, resolving every field cast. A cast is either a
// kind understood by input.ParseCast or a named transform.
func New(name string, cfg config.FormConfig) (*Definition, error) {
	d := &Definition{
		name:     name,
		rules:    make(input.Rules, len(cfg.Fields)),
		defaults: input.Values{},
		messages: make(input.Messages, len(cfg.Messages)),
		casts:    input.Casts{},
	}
	for _, field := range util.SortedKeys(cfg.Fields) {
		fc := cfg.Fields[field]
		d.rules[field] = fc.Rules
		if fc.Default != nil {
			d.defaults[field] = fc.Default
		}
		if fc.Cast == "" {
			continue
		}
		c, err := resolveCast(fc.Cast, fc.Params)
		if err != nil {
			return nil, fmt.Errorf("form '%s' field '%s': %w", name, field, err)
		}
		d.casts[field] = c
	}
	for k, v := range cfg.Messages {
		d.messages[k] = v
	}
	return d, nil
}

func resolveCast(name string, params map[string]interface{}) (input.Cast, error) {
	if c, err := input.ParseCast(name); err == nil {
		return c, nil
	}
	if !transform.Known(name) {
		return input.Cast{}, fmt.Errorf("%w: '%s'", input.ErrInvalidCast, name)
	}
	fn, err := transform.Build(name, params)
	if err != nil {
		return input.Cast{}, err
	}
	label, _, _ := strings.Cut(strings.TrimSpace(name), ":")
	return input.Named(label, fn), nil
}

// Name returns the form's configured name.
func (d *Definition) Name() string { return d.name }

// Fields returns the declared field names in sorted order.
func (d *Definition) Fields() []string {
	fields := make([]string, 0, len(d.rules))
	for f := range d.rules {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Rules returns a copy of the rule chains; fields declared without rules
// map to "".
func (d *Definition) Rules() input.Rules {
	out := make(input.Rules, len(d.rules))
	for k, v := range d.rules {
		out[k] = v
	}
	return out
}

func (d *Definition) Defaults() input.Values {
	out := make(input.Values, len(d.defaults))
	for k, v := range d.defaults {
		out[k] = v
	}
	return out
}

func (d *Definition) Messages() input.Messages {
	out := make(input.Messages, len(d.messages))
	for k, v := range d.messages {
		out[k] = v
	}
	return out
}

func (d *Definition) Casts() input.Casts {
	out := make(input.Casts, len(d.casts))
	for k, v := range d.casts {
		out[k] = v
	}
	return out
}

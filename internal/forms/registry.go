package forms

import (
	"errors"
	"fmt"

	"forminput/internal/config"
	"forminput/internal/input"
	"forminput/internal/logging"
	"forminput/internal/util"
)

// ErrUnknownForm is returned for a form name that is not registered.
var ErrUnknownForm = errors.New("unknown form")

// Registry holds forms by name. It is read-only after construction.
type Registry struct {
	forms map[string]*Definition
}

// NewRegistry builds every form in cfg.
func NewRegistry(cfg map[string]config.FormConfig) (*Registry, error) {
	r := &Registry{forms: make(map[string]*Definition, len(cfg))}
	for _, name := range util.SortedKeys(cfg) {
		d, err := New(name, cfg[name])
		if err != nil {
			return nil, err
		}
		r.forms[name] = d
		logging.Logf(logging.Debug, "Registered form '%s' with fields %v", name, d.Fields())
	}
	return r, nil
}

// Lookup returns the named form.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	d, ok := r.forms[name]
	return d, ok
}

// Names returns the registered form names in sorted order.
func (r *Registry) Names() []string {
	return util.SortedKeys(r.forms)
}

// Processor starts processing raw input with the named form.
func (r *Registry) Processor(name string, raw map[string]any, engine input.Validator) (*input.Processor, error) {
	d, ok := r.forms[name]
	if !ok {
		return nil, fmt.Errorf("%w '%s'", ErrUnknownForm, name)
	}
	return input.New(d, raw, engine), nil
}

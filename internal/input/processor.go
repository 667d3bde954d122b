package input

import (
	"fmt"

	"forminput/internal/logging"
	"forminput/internal/util"
)

type validationState int

const (
	unevaluated validationState = iota
	passed
	failed
)

// Processor holds one request's input for a Form. It is not safe for
// concurrent use; create one per request.
type Processor struct {
	form    Form
	engine  Validator
	input   Values
	state   validationState
	failure *Failure
}

// New filters raw down to the fields named by form.Rules(), then fills
// absent fields from form.Defaults(). Fields declared in the rules but
// missing from raw stay absent unless a default covers them.
func New(form Form, raw map[string]any, engine Validator) *Processor {
	return newProcessor(form, raw, engine, false)
}

// NewPadded is New with every declared field present: fields missing from
// raw are set to "" before defaults are applied, so defaults only cover
// fields that declare no rule.
func NewPadded(form Form, raw map[string]any, engine Validator) *Processor {
	return newProcessor(form, raw, engine, true)
}

func newProcessor(form Form, raw map[string]any, engine Validator, pad bool) *Processor {
	p := &Processor{form: form, engine: engine}
	p.input = p.fillDefaults(p.filter(raw, pad))
	logging.Logf(logging.Debug, "input: normalized %d raw fields to %v", len(raw), util.MaskSensitiveData(p.input))
	return p
}

func (p *Processor) filter(raw map[string]any, pad bool) Values {
	rules := p.form.Rules()
	out := make(Values, len(rules))
	for field := range rules {
		if value, ok := raw[field]; ok {
			out[field] = value
		} else if pad {
			out[field] = ""
		}
	}
	return out
}

func (p *Processor) fillDefaults(values Values) Values {
	for field, value := range defaultsOf(p.form) {
		if _, ok := values[field]; !ok {
			values[field] = value
		}
	}
	return values
}

// SetInput sets key to value. Cached validation results are kept.
func (p *Processor) SetInput(key string, value any) {
	p.input[key] = value
}

// RemoveInput deletes key if present. Cached validation results are kept.
func (p *Processor) RemoveInput(key string) {
	delete(p.input, key)
}

// Validate runs the engine over the current input. With merge set, rules
// overlays the form's rules and messages overlays the default and form
// messages; without it, rules and messages are used exactly as given.
// IDPlaceholder is resolved before the engine sees the rules.
//
// A rule violation is reported as false with the detail kept for
// Validation; the error is only for engine faults and leaves the previous
// result in place.
func (p *Processor) Validate(rules Rules, messages Messages, merge bool) (bool, error) {
	if merge {
		rules = mergeRules(p.form.Rules(), rules)
		messages = mergeMessages(defaultMessages, messagesOf(p.form), messages)
	}
	rules = UniqueUpdates(rules, p.input)

	errs, err := p.engine.Evaluate(p.input, rules, messages)
	if err != nil {
		return false, fmt.Errorf("validating input: %w", err)
	}
	if len(errs) > 0 {
		p.state = failed
		p.failure = &Failure{Errors: errs}
		logging.Logf(logging.Debug, "input: validation failed for fields %v", p.failure.Fields())
		return false, nil
	}
	p.state = passed
	p.failure = nil
	return true, nil
}

// Validation returns the detail of the last failed validation, or nil if it
// passed. Without a prior Validate call it validates with the form's rules.
func (p *Processor) Validation() (*Failure, error) {
	if p.state == unevaluated {
		if _, err := p.Validate(nil, nil, true); err != nil {
			return nil, err
		}
	}
	return p.failure, nil
}

// Passed reports whether Validation is nil.
func (p *Processor) Passed() (bool, error) {
	f, err := p.Validation()
	return err == nil && f == nil, err
}

// Input returns the current input. With cast unset it is a copy of the
// stored values; otherwise the form's casts are applied to a copy. Casting
// fails with ErrInvalidCast when a declared cast is unusable.
func (p *Processor) Input(cast bool) (Values, error) {
	if !cast {
		out := make(Values, len(p.input))
		for k, v := range p.input {
			out[k] = v
		}
		return out, nil
	}
	return castValues(p.input, castsOf(p.form))
}

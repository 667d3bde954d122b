// Package rules is a rule-string validation engine for form input. Rule
// chains look like "required|email|max:255"; most format and size checks are
// delegated to go-playground/validator, while presence, comparison and
// database rules are evaluated here.
package rules

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"forminput/internal/logging"
	"forminput/internal/util"
)

// ErrNoLookup is returned when unique or exists is used on an engine built
// without a Lookup.
var ErrNoLookup = errors.New("no lookup configured for database rules")

// Default time allowed for a single unique/exists lookup.
const defaultLookupTimeout = 5 * time.Second

// Lookup counts rows for the unique and exists rules. When exceptColumn is
// non-empty, rows whose exceptColumn equals except are not counted.
type Lookup interface {
	Count(ctx context.Context, table, column string, value any, exceptColumn, except string) (int64, error)
}

// Engine evaluates rule chains. It is safe for concurrent use once built.
type Engine struct {
	validate *validator.Validate
	lookup   Lookup
	timeout  time.Duration
	patterns sync.Map // pattern string -> *regexp.Regexp
}

// Option configures an Engine.
type Option func(*Engine)

// WithLookup enables the unique and exists rules.
func WithLookup(l Lookup) Option {
	return func(e *Engine) { e.lookup = l }
}

// WithTimeout bounds each lookup call. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// New builds an Engine.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{validate: validator.New(), timeout: defaultLookupTimeout}
	if err := e.validate.RegisterValidation(alphaDashTag, validateAlphaDash); err != nil {
		return nil, fmt.Errorf("registering %s: %w", alphaDashTag, err)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Evaluate is EvaluateContext with a background context.
func (e *Engine) Evaluate(data map[string]any, rules map[string]string, messages map[string]string) (map[string][]string, error) {
	return e.EvaluateContext(context.Background(), data, rules, messages)
}

// EvaluateContext checks data against rules and returns the messages for
// each failing field; an empty result means everything passed. Errors are
// engine faults: an unknown rule, bad parameters or a failed lookup.
func (e *Engine) EvaluateContext(ctx context.Context, data map[string]any, rules map[string]string, messages map[string]string) (map[string][]string, error) {
	fields := util.SortedKeys(rules)
	chains := make(map[string]Chain, len(rules))
	for _, field := range fields {
		chain, err := Parse(rules[field])
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w", field, err)
		}
		chains[field] = chain
	}

	failures := map[string][]string{}
	for _, field := range fields {
		value, present := data[field]
		s := &subject{field: field, value: value, present: present, data: data, chain: chains[field]}

		msgs, err := e.evaluateField(ctx, s, messages)
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w", field, err)
		}
		if len(msgs) > 0 {
			failures[field] = msgs
		}
	}
	logging.Logf(logging.Debug, "rules: %d field(s) checked, %d failed", len(fields), len(failures))
	return failures, nil
}

func (e *Engine) evaluateField(ctx context.Context, s *subject, messages map[string]string) ([]string, error) {
	if s.chain.Has("sometimes") && !s.present {
		return nil, nil
	}
	if s.chain.Has("nullable") && isEmpty(s.value) {
		return nil, nil
	}
	bail := s.chain.Has("bail")

	var msgs []string
	for _, r := range s.chain {
		def := definitions[r.Name]
		if def.check == nil {
			continue
		}
		if !def.implicit && isEmpty(s.value) {
			continue
		}
		ok, err := def.check(ctx, e, s, r)
		if err != nil {
			return nil, fmt.Errorf("rule '%s': %w", r.Name, err)
		}
		if ok {
			continue
		}
		msgs = append(msgs, message(s, r, messages))
		if bail {
			break
		}
	}
	return msgs, nil
}

// passes runs a go-playground tag against value.
func (e *Engine) passes(value any, tag string) (bool, error) {
	err := e.validate.Var(value, tag)
	if err == nil {
		return true, nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return false, nil
	}
	return false, fmt.Errorf("evaluating '%s': %w", tag, err)
}

func (e *Engine) count(ctx context.Context, table, column string, value any, exceptColumn, except string) (int64, error) {
	if e.lookup == nil {
		return 0, ErrNoLookup
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	n, err := e.lookup.Count(ctx, table, column, value, exceptColumn, except)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, fmt.Errorf("lookup on %s.%s timed out: %w", table, column, err)
		}
		return 0, fmt.Errorf("lookup on %s.%s: %w", table, column, err)
	}
	return n, nil
}

// pattern compiles a regex rule parameter. Delimited patterns such as
// "/^[a-z]+$/i" are accepted; trailing i, m, s and U flags are honoured.
func (e *Engine) pattern(raw string) (*regexp.Regexp, error) {
	if cached, ok := e.patterns.Load(raw); ok {
		return cached.(*regexp.Regexp), nil
	}
	expr := raw
	if len(raw) > 1 && raw[0] == '/' {
		if end := strings.LastIndex(raw, "/"); end > 0 {
			expr = raw[1:end]
			var flags strings.Builder
			for _, f := range raw[end+1:] {
				if strings.ContainsRune("imsU", f) {
					flags.WriteRune(f)
				}
			}
			if flags.Len() > 0 {
				expr = "(?" + flags.String() + ")" + expr
			}
		}
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: bad pattern '%s': %v", ErrInvalidRule, raw, err)
	}
	e.patterns.Store(raw, re)
	return re, nil
}

// Package input prepares submitted form fields for a create or update
// operation: it filters unknown fields, fills defaults, validates through a
// rule engine and casts the surviving values into typed output.
package input

// Values maps field names to submitted (or cast) values.
type Values map[string]any

// Rules maps a field name to a pipe-separated rule chain, e.g.
// "required|email|unique:users,email,{:id}".
type Rules map[string]string

// Messages maps a rule name ("required") or a field-qualified rule
// ("email.unique") to an error message template.
type Messages map[string]string

// Form declares the fields a Processor accepts. Only fields named by Rules
// survive filtering.
type Form interface {
	Rules() Rules
}

// Defaulter is implemented by forms that supply values for absent fields.
type Defaulter interface {
	Defaults() Values
}

// MessageProvider is implemented by forms with their own message templates.
type MessageProvider interface {
	Messages() Messages
}

// Caster is implemented by forms that convert fields on read.
type Caster interface {
	Casts() Casts
}

// Validator evaluates data against rules. A nil or empty result means the
// data passed; otherwise it holds the messages per failing field. The error
// is reserved for engine faults such as unknown rules or a failed lookup.
type Validator interface {
	Evaluate(data map[string]any, rules map[string]string, messages map[string]string) (map[string][]string, error)
}

// ValidatorFunc adapts a plain function to the Validator interface.
type ValidatorFunc func(data map[string]any, rules map[string]string, messages map[string]string) (map[string][]string, error)

// Evaluate calls f.
func (f ValidatorFunc) Evaluate(data map[string]any, rules map[string]string, messages map[string]string) (map[string][]string, error) {
	return f(data, rules, messages)
}

func defaultsOf(form Form) Values {
	if d, ok := form.(Defaulter); ok {
		return d.Defaults()
	}
	return nil
}

func messagesOf(form Form) Messages {
	if m, ok := form.(MessageProvider); ok {
		return m.Messages()
	}
	return nil
}

func castsOf(form Form) Casts {
	if c, ok := form.(Caster); ok {
		return c.Casts()
	}
	return nil
}

package input

import (
	"sort"
	"strings"
)

// Failure holds the messages reported for each failing field.
type Failure struct {
	Errors map[string][]string
}

// Fields returns the failing field names in sorted order.
func (f *Failure) Fields() []string {
	if f == nil {
		return nil
	}
	fields := make([]string, 0, len(f.Errors))
	for field := range f.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Has reports whether field failed.
func (f *Failure) Has(field string) bool {
	return f != nil && len(f.Errors[field]) > 0
}

// First returns the first message for field, or "".
func (f *Failure) First(field string) string {
	if !f.Has(field) {
		return ""
	}
	return f.Errors[field][0]
}

// Error lists every message as "field: message", fields in sorted order.
func (f *Failure) Error() string {
	if f == nil {
		return "validation failed"
	}
	var parts []string
	for _, field := range f.Fields() {
		for _, msg := range f.Errors[field] {
			parts = append(parts, field+": "+msg)
		}
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

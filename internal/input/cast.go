package input

import (
	"errors"
	"fmt"
	"strings"

	"forminput/internal/transform"
)

// ErrInvalidCast reports a cast declaration that names no known conversion.
// It indicates a mistake in a form's Casts, not bad user input.
var ErrInvalidCast = errors.New("invalid cast descriptor")

// CastKind enumerates the supported conversions.
type CastKind int

const (
	castUnset CastKind = iota
	CastInteger
	CastFloat
	CastBoolean
	CastTimestamp
	CastTransform
)

func (k CastKind) String() string {
	switch k {
	case CastInteger:
		return "integer"
	case CastFloat:
		return "float"
	case CastBoolean:
		return "boolean"
	case CastTimestamp:
		return "timestamp"
	case CastTransform:
		return "transform"
	case castUnset:
		return "unset"
	}
	return fmt.Sprintf("CastKind(%d)", int(k))
}

// Cast describes how one field is converted when input is read.
// The zero Cast is invalid.
type Cast struct {
	kind CastKind
	fn   func(any) any
	name string
}

// Casts maps field names to their conversion.
type Casts map[string]Cast

// AsInt converts to int64 using the leading numeric part of the value.
func AsInt() Cast { return Cast{kind: CastInteger} }

// AsFloat converts to float64 using the leading numeric part of the value.
func AsFloat() Cast { return Cast{kind: CastFloat} }

// AsBool converts by truthiness: "", "0", 0, nil and false are false.
func AsBool() Cast { return Cast{kind: CastBoolean} }

// AsTimestamp parses the value into a time.Time.
func AsTimestamp() Cast { return Cast{kind: CastTimestamp} }

// Using converts with fn.
func Using(fn func(any) any) Cast { return Cast{kind: CastTransform, fn: fn} }

// Named is Using with a label that shows up in errors and logs.
func Named(name string, fn func(any) any) Cast {
	return Cast{kind: CastTransform, fn: fn, name: name}
}

// Kind returns the conversion kind.
func (c Cast) Kind() CastKind { return c.kind }

func (c Cast) String() string {
	switch {
	case c.kind == CastTransform && c.name != "":
		return "transform(" + c.name + ")"
	case c.kind == castUnset && c.name != "":
		return "'" + c.name + "'"
	}
	return c.kind.String()
}

// ParseCast resolves a descriptor name. Accepted names are int/integer,
// float/double, bool/boolean and timestamp/datetime/date/carbon.
func ParseCast(name string) (Cast, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "int", "integer":
		return AsInt(), nil
	case "float", "double":
		return AsFloat(), nil
	case "bool", "boolean":
		return AsBool(), nil
	case "timestamp", "datetime", "date", "carbon":
		return AsTimestamp(), nil
	}
	return Cast{}, fmt.Errorf("%w: '%s'", ErrInvalidCast, name)
}

// FromName is ParseCast without the error: an unknown name yields a Cast
// that fails with ErrInvalidCast, naming the field, when input is read.
func FromName(name string) Cast {
	c, err := ParseCast(name)
	if err != nil {
		return Cast{name: name}
	}
	return c
}

// apply converts value for field.
func (c Cast) apply(field string, value any) (any, error) {
	switch c.kind {
	case CastInteger:
		return transform.ToInt(value), nil
	case CastFloat:
		return transform.ToFloat(value), nil
	case CastBoolean:
		return transform.Truthy(value), nil
	case CastTimestamp:
		if value == nil || value == "" {
			return nil, nil
		}
		t, err := transform.ParseTimestamp(value)
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w", field, err)
		}
		return t, nil
	case CastTransform:
		if c.fn != nil {
			return c.fn(value), nil
		}
	}
	return nil, fmt.Errorf("%w for field '%s': %s", ErrInvalidCast, field, c)
}

// castValues applies casts to a copy of values.
func castValues(values Values, casts Casts) (Values, error) {
	out := make(Values, len(values))
	for key, value := range values {
		c, ok := casts[key]
		if !ok {
			out[key] = value
			continue
		}
		cast, err := c.apply(key, value)
		if err != nil {
			return nil, err
		}
		out[key] = cast
	}
	return out, nil
}

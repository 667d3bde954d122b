package input

import (
	"reflect"
	"testing"
)

func TestUniqueUpdates(t *testing.T) {
	rules := Rules{
		"email": "required|email|unique:users,email,{:id}",
		"slug":  "unique:pages,slug,{:id}|alpha_dash",
		"name":  "required",
	}

	testCases := []struct {
		name  string
		input Values
		want  Rules
	}{
		{
			name:  "string id",
			input: Values{"id": "123"},
			want: Rules{
				"email": "required|email|unique:users,email,123",
				"slug":  "unique:pages,slug,123|alpha_dash",
				"name":  "required",
			},
		},
		{
			name:  "json number id",
			input: Values{"id": float64(42)},
			want: Rules{
				"email": "required|email|unique:users,email,42",
				"slug":  "unique:pages,slug,42|alpha_dash",
				"name":  "required",
			},
		},
		{
			name:  "no id",
			input: Values{},
			want: Rules{
				"email": "required|email|unique:users,email",
				"slug":  "unique:pages,slug|alpha_dash",
				"name":  "required",
			},
		},
		{
			name:  "string zero id",
			input: Values{"id": "0"},
			want: Rules{
				"email": "required|email|unique:users,email",
				"slug":  "unique:pages,slug|alpha_dash",
				"name":  "required",
			},
		},
		{
			name:  "nil id",
			input: Values{"id": nil},
			want: Rules{
				"email": "required|email|unique:users,email",
				"slug":  "unique:pages,slug|alpha_dash",
				"name":  "required",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := UniqueUpdates(rules, tc.input)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("UniqueUpdates() = %#v, want %#v", got, tc.want)
			}
		})
	}

	if rules["email"] != "required|email|unique:users,email,{:id}" {
		t.Errorf("UniqueUpdates modified its argument: %q", rules["email"])
	}
}

func TestParseCast(t *testing.T) {
	testCases := map[string]CastKind{
		"int":       CastInteger,
		"Integer":   CastInteger,
		"float":     CastFloat,
		"double":    CastFloat,
		"bool":      CastBoolean,
		"boolean":   CastBoolean,
		"timestamp": CastTimestamp,
		"carbon":    CastTimestamp,
		" date ":    CastTimestamp,
	}
	for name, want := range testCases {
		c, err := ParseCast(name)
		if err != nil {
			t.Errorf("ParseCast(%q) unexpected error: %v", name, err)
			continue
		}
		if c.Kind() != want {
			t.Errorf("ParseCast(%q).Kind() = %v, want %v", name, c.Kind(), want)
		}
	}

	if _, err := ParseCast("money"); err == nil {
		t.Error("ParseCast(money) expected error")
	}
	if got := FromName("money").String(); got != "'money'" {
		t.Errorf("FromName(money).String() = %q", got)
	}
	if got := Named("upper", func(v any) any { return v }).String(); got != "transform(upper)" {
		t.Errorf("Named().String() = %q", got)
	}
}

func TestFailureError(t *testing.T) {
	var none *Failure
	if none.Has("x") || none.First("x") != "" || none.Fields() != nil {
		t.Error("nil Failure should report nothing")
	}
	f := &Failure{Errors: map[string][]string{"name": {"required"}, "email": {"invalid", "taken"}}}
	want := "validation failed: email: invalid; email: taken; name: required"
	if got := f.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

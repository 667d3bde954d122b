package transform

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestToInt(t *testing.T) {
	testCases := []struct {
		name  string
		input interface{}
		want  int64
	}{
		{name: "plain digits", input: "21", want: 21},
		{name: "leading whitespace", input: "  42", want: 42},
		{name: "signed", input: "-7", want: -7},
		{name: "explicit plus", input: "+5", want: 5},
		{name: "decimal truncates", input: "3.9", want: 3},
		{name: "negative decimal truncates", input: "-3.9", want: -3},
		{name: "exponent", input: "1e3", want: 1000},
		{name: "trailing garbage", input: "12abc", want: 12},
		{name: "no digits", input: "abc", want: 0},
		{name: "empty", input: "", want: 0},
		{name: "lone sign", input: "-", want: 0},
		{name: "overflow clamps", input: "99999999999999999999", want: math.MaxInt64},
		{name: "int", input: 88, want: 88},
		{name: "int32", input: int32(-4), want: -4},
		{name: "uint64", input: uint64(9), want: 9},
		{name: "float", input: 2.75, want: 2},
		{name: "NaN", input: math.NaN(), want: 0},
		{name: "true", input: true, want: 1},
		{name: "false", input: false, want: 0},
		{name: "nil", input: nil, want: 0},
		{name: "bytes", input: []byte("17"), want: 17},
		{name: "non-empty slice", input: []interface{}{"a"}, want: 1},
		{name: "empty slice", input: []interface{}{}, want: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ToInt(tc.input); got != tc.want {
				t.Errorf("ToInt(%#v) = %d, want %d", tc.input, got, tc.want)
			}
		})
	}
}

func TestToFloat(t *testing.T) {
	testCases := []struct {
		name  string
		input interface{}
		want  float64
	}{
		{name: "decimal", input: "3.141", want: 3.141},
		{name: "leading dot", input: ".5", want: 0.5},
		{name: "trailing dot", input: "5.", want: 5},
		{name: "exponent", input: "2.5e2", want: 250},
		{name: "dangling exponent ignored", input: "4e", want: 4},
		{name: "trailing garbage", input: "1.5kg", want: 1.5},
		{name: "no digits", input: "pi", want: 0},
		{name: "int", input: 3, want: 3},
		{name: "uint8", input: uint8(200), want: 200},
		{name: "float32", input: float32(0.5), want: 0.5},
		{name: "true", input: true, want: 1},
		{name: "nil", input: nil, want: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ToFloat(tc.input); got != tc.want {
				t.Errorf("ToFloat(%#v) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestTruthy(t *testing.T) {
	var nilPtr *int
	one := 1

	testCases := []struct {
		name  string
		input interface{}
		want  bool
	}{
		{name: "one", input: "1", want: true},
		{name: "zero string", input: "0", want: false},
		{name: "empty string", input: "", want: false},
		{name: "word false is truthy", input: "false", want: true},
		{name: "whitespace is truthy", input: " ", want: true},
		{name: "zero point zero string is truthy", input: "0.0", want: true},
		{name: "bool true", input: true, want: true},
		{name: "bool false", input: false, want: false},
		{name: "int zero", input: 0, want: false},
		{name: "int non-zero", input: -3, want: true},
		{name: "uint zero", input: uint(0), want: false},
		{name: "float zero", input: 0.0, want: false},
		{name: "float non-zero", input: 0.1, want: true},
		{name: "nil", input: nil, want: false},
		{name: "nil pointer", input: nilPtr, want: false},
		{name: "pointer", input: &one, want: true},
		{name: "empty slice", input: []string{}, want: false},
		{name: "slice", input: []string{"a"}, want: true},
		{name: "empty map", input: map[string]interface{}{}, want: false},
		{name: "time", input: time.Time{}, want: true},
		{name: "struct", input: struct{}{}, want: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Truthy(tc.input); got != tc.want {
				t.Errorf("Truthy(%#v) = %t, want %t", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	june1 := time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name    string
		input   interface{}
		want    time.Time
		wantErr bool
	}{
		{name: "day month year", input: "1 June 2020", want: june1},
		{name: "abbreviated month", input: "1 Jun 2020", want: june1},
		{name: "american long form", input: "June 1, 2020", want: june1},
		{name: "iso date", input: "2020-06-01", want: june1},
		{name: "iso date time", input: "2020-06-01 13:45:00", want: time.Date(2020, time.June, 1, 13, 45, 0, 0, time.UTC)},
		{name: "rfc3339 keeps instant", input: "2020-06-01T02:00:00+02:00", want: time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC)},
		{name: "slashes are month first", input: "06/01/2020", want: june1},
		{name: "compact", input: "20200601", want: june1},
		{name: "surrounding whitespace", input: "  2020-06-01 ", want: june1},
		{name: "unix marker", input: "@1590969600", want: june1},
		{name: "unix seconds int", input: int64(1590969600), want: june1},
		{name: "time passthrough", input: june1, want: june1},
		{name: "garbage", input: "not a date", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "nil", input: nil, wantErr: true},
		{name: "bool", input: true, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTimestamp(tc.input)
			if tc.wantErr {
				if !errors.Is(err, ErrUnparsableTimestamp) {
					t.Fatalf("ParseTimestamp(%#v) error = %v, want ErrUnparsableTimestamp", tc.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimestamp(%#v) unexpected error: %v", tc.input, err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("ParseTimestamp(%#v) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestNumericPrefix(t *testing.T) {
	testCases := map[string]string{
		"123":      "123",
		"  -1.5e3x": "-1.5e3",
		"1e+":      "1",
		"..5":      "",
		"-.5":      "-.5",
		"abc":      "",
		"":         "",
	}
	for input, want := range testCases {
		if got := numericPrefix(input); got != want {
			t.Errorf("numericPrefix(%q) = %q, want %q", input, got, want)
		}
	}
}

package transform

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// ErrUnparsableTimestamp is returned when a value cannot be read as a date/time.
var ErrUnparsableTimestamp = errors.New("unparsable timestamp")

// timestampLayouts are tried in order by ParseTimestamp.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"2 January 2006",
	"2 Jan 2006",
	"2 January 2006 15:04",
	"2 January 2006 15:04:05",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Monday, 2 January 2006",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"20060102",
}

// ToInt converts value to an int64 the way a loosely typed form layer does:
// the leading numeric part of a string counts ("12abc" is 12, "3.9" is 3),
// anything unreadable is 0, booleans are 0 or 1.
func ToInt(value interface{}) int64 {
	switch v := value.(type) {
	case nil:
		return 0
	case bool:
		if v {
			return 1
		}
		return 0
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case uint, uint8, uint16, uint32, uint64:
		u := reflect.ValueOf(v).Uint()
		if u > math.MaxInt64 {
			return math.MaxInt64
		}
		return int64(u)
	case float32:
		return floatToInt(float64(v))
	case float64:
		return floatToInt(v)
	case string:
		prefix := numericPrefix(v)
		if prefix == "" {
			return 0
		}
		if i, err := strconv.ParseInt(prefix, 10, 64); err == nil {
			return i
		}
		f, _ := strconv.ParseFloat(prefix, 64)
		return floatToInt(f)
	case []byte:
		return ToInt(string(v))
	}
	if Truthy(value) && isCollection(value) {
		return 1
	}
	return 0
}

// ToFloat converts value to a float64 using the same leading-number rule as ToInt.
func ToFloat(value interface{}) float64 {
	switch v := value.(type) {
	case nil:
		return 0
	case bool:
		if v {
			return 1
		}
		return 0
	case int, int8, int16, int32, int64:
		return float64(reflect.ValueOf(v).Int())
	case uint, uint8, uint16, uint32, uint64:
		return float64(reflect.ValueOf(v).Uint())
	case float32:
		return float64(v)
	case float64:
		return v
	case string:
		f, _ := strconv.ParseFloat(numericPrefix(v), 64)
		return f
	case []byte:
		return ToFloat(string(v))
	}
	if Truthy(value) && isCollection(value) {
		return 1
	}
	return 0
}

// Truthy reports the truthiness of a raw form value. nil, false, "", "0",
// numeric zero and empty collections are false; everything else is true.
func Truthy(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != "" && v != "0"
	case []byte:
		return len(v) != 0 && string(v) != "0"
	case time.Time:
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() != 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// ParseTimestamp reads value as a calendar date/time. Strings are tried
// against a list of common layouts (zone-less layouts are read as UTC),
// "@<seconds>" and numbers are Unix seconds, time.Time passes through.
func ParseTimestamp(value interface{}) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v != nil {
			return *v, nil
		}
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return time.Unix(ToInt(v), 0).UTC(), nil
	case float32, float64:
		f := ToFloat(v)
		sec, frac := math.Modf(f)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
	case string:
		s := strings.TrimSpace(v)
		if strings.HasPrefix(s, "@") {
			if sec, err := strconv.ParseInt(s[1:], 10, 64); err == nil {
				return time.Unix(sec, 0).UTC(), nil
			}
		}
		for _, layout := range timestampLayouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("%w: %v (type %T)", ErrUnparsableTimestamp, value, value)
}

// numericPrefix returns the longest leading substring of s (after leading
// whitespace) that reads as a decimal number, or "" if there is none.
func numericPrefix(s string) string {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if digits > 0 || frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return ""
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		exp := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			exp++
		}
		if exp > 0 {
			i = j
		}
	}
	return s[:i]
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func floatToInt(f float64) int64 {
	switch {
	case math.IsNaN(f), math.IsInf(f, 0):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

func isCollection(value interface{}) bool {
	switch reflect.ValueOf(value).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return true
	}
	return false
}

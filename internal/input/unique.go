package input

import (
	"fmt"
	"strings"

	"forminput/internal/transform"
)

// IDPlaceholder marks where the current record's id goes in a rule, as in
// "unique:users,email,{:id}".
const IDPlaceholder = ",{:id}"

// IDField is the input field holding the current record's id.
const IDField = "id"

// UniqueUpdates rewrites IDPlaceholder in every rule. With a non-empty id in
// input the placeholder becomes ",<id>" so a uniqueness check skips the record
// being updated; without one (absent, "", "0", 0 or false) it is dropped.
func UniqueUpdates(rules Rules, input Values) Rules {
	replacement := ""
	if id, ok := input[IDField]; ok && transform.Truthy(id) {
		replacement = "," + idString(id)
	}
	out := make(Rules, len(rules))
	for field, rule := range rules {
		out[field] = strings.ReplaceAll(rule, IDPlaceholder, replacement)
	}
	return out
}

func idString(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case float32, float64:
		f := transform.ToFloat(v)
		if f == float64(int64(f)) {
			return fmt.Sprintf("%d", int64(f))
		}
	}
	return fmt.Sprintf("%v", id)
}

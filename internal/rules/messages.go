package rules

import (
	"strings"
)

const genericMessage = "The :attribute field is invalid."

// builtinMessages are used when neither the caller nor the form supplies one.
// Size rules are keyed by what is being measured.
var builtinMessages = map[string]string{
	"required":         "The :attribute field is required.",
	"required_with":    "The :attribute field is required when :values is present.",
	"required_without": "The :attribute field is required when :values is not present.",
	"accepted":         "The :attribute must be accepted.",
	"present":          "The :attribute field must be present.",
	"confirmed":        "The :attribute confirmation does not match.",
	"email":            "The :attribute must be a valid email address.",
	"url":              "The :attribute format is invalid.",
	"alpha":            "The :attribute may only contain letters.",
	"alpha_num":        "The :attribute may only contain letters and numbers.",
	"alpha_dash":       "The :attribute may only contain letters, numbers, dashes and underscores.",
	"numeric":          "The :attribute must be a number.",
	"integer":          "The :attribute must be an integer.",
	"uuid":             "The :attribute must be a valid UUID.",
	"ip":               "The :attribute must be a valid IP address.",
	"json":             "The :attribute must be a valid JSON string.",
	"boolean":          "The :attribute field must be true or false.",
	"lowercase":        "The :attribute must be lowercase.",
	"uppercase":        "The :attribute must be uppercase.",
	"string":           "The :attribute must be a string.",
	"array":            "The :attribute must be an array.",
	"date":             "The :attribute is not a valid date.",
	"in":               "The selected :attribute is invalid.",
	"not_in":           "The selected :attribute is invalid.",
	"regex":            "The :attribute format is invalid.",
	"same":             "The :attribute and :other must match.",
	"different":        "The :attribute and :other must be different.",
	"unique":           "The :attribute has already been taken.",
	"exists":           "The selected :attribute is invalid.",

	"min.numeric":     "The :attribute must be at least :min.",
	"min.string":      "The :attribute must be at least :min characters.",
	"min.array":       "The :attribute must have at least :min items.",
	"max.numeric":     "The :attribute may not be greater than :max.",
	"max.string":      "The :attribute may not be greater than :max characters.",
	"max.array":       "The :attribute may not have more than :max items.",
	"size.numeric":    "The :attribute must be :size.",
	"size.string":     "The :attribute must be :size characters.",
	"size.array":      "The :attribute must contain :size items.",
	"between.numeric": "The :attribute must be between :min and :max.",
	"between.string":  "The :attribute must be between :min and :max characters.",
	"between.array":   "The :attribute must have between :min and :max items.",
}

// message picks the template for a failed rule, trying "field.rule", then
// "rule", then the built-in text, and fills in its placeholders.
func message(s *subject, r Rule, custom map[string]string) string {
	template, ok := custom[s.field+"."+r.Name]
	if !ok {
		template, ok = custom[r.Name]
	}
	if !ok {
		template, ok = builtinMessages[r.Name+"."+s.sizeKind().String()]
	}
	if !ok {
		template, ok = builtinMessages[r.Name]
	}
	if !ok {
		template = genericMessage
	}
	return replacer(s, r).Replace(template)
}

func replacer(s *subject, r Rule) *strings.Replacer {
	param := func(i int) string {
		if i < len(r.Params) {
			return r.Params[i]
		}
		return ""
	}
	minParam, maxParam := param(0), param(0)
	if r.Name == "between" {
		maxParam = param(1)
	}
	values := make([]string, len(r.Params))
	for i, p := range r.Params {
		values[i] = attributeName(p)
	}
	if r.Name == "in" || r.Name == "not_in" {
		values = r.Params
	}
	return strings.NewReplacer(
		":attribute", attributeName(s.field),
		":values", strings.Join(values, ", "),
		":value", stringOf(s.value),
		":other", attributeName(param(0)),
		":min", minParam,
		":max", maxParam,
		":size", param(0),
	)
}

func attributeName(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

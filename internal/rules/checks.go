package rules

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"forminput/internal/transform"
)

// subject is the field currently being checked.
type subject struct {
	field   string
	value   any
	present bool
	data    map[string]any
	chain   Chain
}

type sizeKind int

const (
	sizeString sizeKind = iota
	sizeNumeric
	sizeArray
)

func (k sizeKind) String() string {
	switch k {
	case sizeNumeric:
		return "numeric"
	case sizeArray:
		return "array"
	}
	return "string"
}

func (s *subject) sizeKind() sizeKind {
	if s.chain.Has("numeric") || s.chain.Has("integer") {
		return sizeNumeric
	}
	if isCollection(s.value) {
		return sizeArray
	}
	return sizeString
}

type checkFunc func(ctx context.Context, e *Engine, s *subject, r Rule) (bool, error)

type definition struct {
	// implicit rules also run when the value is absent or empty.
	implicit   bool
	minParams  int
	wholeParam bool
	check      checkFunc
}

// definitions lists every rule the engine understands. A nil check marks a
// flag that changes how the chain runs.
var definitions = map[string]definition{
	"bail":      {},
	"nullable":  {},
	"sometimes": {},

	"required":         {implicit: true, check: checkRequired},
	"required_with":    {implicit: true, minParams: 1, check: checkRequiredWith},
	"required_without": {implicit: true, minParams: 1, check: checkRequiredWithout},
	"accepted":         {implicit: true, check: checkAccepted},
	"present":          {implicit: true, check: checkPresent},
	"confirmed":        {implicit: true, check: checkConfirmed},

	"email":      {check: tagCheck("email")},
	"url":        {check: tagCheck("url")},
	"alpha":      {check: tagCheck("alpha")},
	"alpha_num":  {check: tagCheck("alphanum")},
	"alpha_dash": {check: tagCheck(alphaDashTag)},
	"numeric":    {check: checkNumeric},
	"uuid":       {check: tagCheck("uuid")},
	"ip":         {check: tagCheck("ip")},
	"json":       {check: tagCheck("json")},
	"boolean":    {check: checkBoolean},
	"lowercase":  {check: tagCheck("lowercase")},
	"uppercase":  {check: tagCheck("uppercase")},

	"min":     {minParams: 1, check: sizeCheck("min")},
	"max":     {minParams: 1, check: sizeCheck("max")},
	"size":    {minParams: 1, check: sizeCheck("len")},
	"between": {minParams: 2, check: checkBetween},

	"integer":   {check: checkInteger},
	"string":    {check: checkString},
	"array":     {check: checkArray},
	"date":      {check: checkDate},
	"in":        {minParams: 1, check: checkIn},
	"not_in":    {minParams: 1, check: checkNotIn},
	"regex":     {minParams: 1, wholeParam: true, check: checkRegex},
	"same":      {minParams: 1, check: checkSame},
	"different": {minParams: 1, check: checkDifferent},

	"unique": {minParams: 1, check: checkUnique},
	"exists": {minParams: 1, check: checkExists},
}

const alphaDashTag = "alpha_dash"

var alphaDashRegex = regexp.MustCompile(`^[\pL\pM\pN_-]+$`)

func validateAlphaDash(fl validator.FieldLevel) bool {
	return alphaDashRegex.MatchString(fl.Field().String())
}

func tagCheck(tag string) checkFunc {
	return func(_ context.Context, e *Engine, s *subject, _ Rule) (bool, error) {
		str, ok := s.value.(string)
		if !ok {
			str = stringOf(s.value)
		}
		return e.passes(str, tag)
	}
}

func sizeCheck(tag string) checkFunc {
	return func(_ context.Context, e *Engine, s *subject, r Rule) (bool, error) {
		return e.size(s, tag+"="+r.Params[0], r.Params[0])
	}
}

func checkBetween(_ context.Context, e *Engine, s *subject, r Rule) (bool, error) {
	return e.size(s, "min="+r.Params[0]+",max="+r.Params[1], r.Params[0], r.Params[1])
}

// size runs a go-playground size tag against the value measured the way the
// chain asks for: numerically, by element count or by character count.
func (e *Engine) size(s *subject, tag string, params ...string) (bool, error) {
	kind := s.sizeKind()
	for _, p := range params {
		if err := checkSizeParam(kind, p); err != nil {
			return false, err
		}
	}
	switch kind {
	case sizeNumeric:
		n, ok := number(s.value)
		if !ok {
			return false, nil
		}
		return e.passes(n, tag)
	case sizeArray:
		return e.passes(s.value, tag)
	}
	return e.passes(stringOf(s.value), tag)
}

func checkSizeParam(kind sizeKind, p string) error {
	if kind == sizeNumeric {
		if _, err := strconv.ParseFloat(p, 64); err != nil {
			return fmt.Errorf("%w: size parameter '%s' is not a number", ErrInvalidRule, p)
		}
		return nil
	}
	if _, err := strconv.Atoi(p); err != nil {
		return fmt.Errorf("%w: %s size parameter '%s' is not a whole number", ErrInvalidRule, kind, p)
	}
	return nil
}

func checkRequired(_ context.Context, _ *Engine, s *subject, _ Rule) (bool, error) {
	return s.present && !isEmpty(s.value), nil
}

func checkRequiredWith(ctx context.Context, e *Engine, s *subject, r Rule) (bool, error) {
	for _, other := range r.Params {
		if !isEmpty(s.data[other]) {
			return checkRequired(ctx, e, s, r)
		}
	}
	return true, nil
}

func checkRequiredWithout(ctx context.Context, e *Engine, s *subject, r Rule) (bool, error) {
	for _, other := range r.Params {
		if isEmpty(s.data[other]) {
			return checkRequired(ctx, e, s, r)
		}
	}
	return true, nil
}

func checkPresent(_ context.Context, _ *Engine, s *subject, _ Rule) (bool, error) {
	return s.present, nil
}

func checkAccepted(_ context.Context, _ *Engine, s *subject, _ Rule) (bool, error) {
	switch strings.ToLower(stringOf(s.value)) {
	case "yes", "on", "1", "true":
		return true, nil
	}
	return false, nil
}

func checkConfirmed(_ context.Context, _ *Engine, s *subject, _ Rule) (bool, error) {
	confirmation := s.data[s.field+"_confirmation"]
	if isEmpty(s.value) && isEmpty(confirmation) {
		return true, nil
	}
	return stringOf(s.value) == stringOf(confirmation), nil
}

func checkNumeric(_ context.Context, _ *Engine, s *subject, _ Rule) (bool, error) {
	_, ok := number(s.value)
	return ok, nil
}

func checkBoolean(_ context.Context, e *Engine, s *subject, _ Rule) (bool, error) {
	switch v := s.value.(type) {
	case bool:
		return true, nil
	case string:
		return e.passes(v, "boolean")
	}
	n, ok := number(s.value)
	return ok && (n == 0 || n == 1), nil
}

func checkInteger(_ context.Context, _ *Engine, s *subject, _ Rule) (bool, error) {
	switch v := s.value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true, nil
	case float32, float64:
		f := transform.ToFloat(v)
		return !math.IsInf(f, 0) && f == math.Trunc(f), nil
	case string:
		_, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return err == nil, nil
	}
	return false, nil
}

func checkString(_ context.Context, _ *Engine, s *subject, _ Rule) (bool, error) {
	_, ok := s.value.(string)
	return ok, nil
}

func checkArray(_ context.Context, _ *Engine, s *subject, _ Rule) (bool, error) {
	return isCollection(s.value), nil
}

func checkDate(_ context.Context, _ *Engine, s *subject, _ Rule) (bool, error) {
	_, err := transform.ParseTimestamp(s.value)
	return err == nil, nil
}

func checkIn(_ context.Context, _ *Engine, s *subject, r Rule) (bool, error) {
	value := stringOf(s.value)
	for _, allowed := range r.Params {
		if value == allowed {
			return true, nil
		}
	}
	return false, nil
}

func checkNotIn(ctx context.Context, e *Engine, s *subject, r Rule) (bool, error) {
	in, err := checkIn(ctx, e, s, r)
	return !in, err
}

func checkRegex(_ context.Context, e *Engine, s *subject, r Rule) (bool, error) {
	re, err := e.pattern(r.Params[0])
	if err != nil {
		return false, err
	}
	return re.MatchString(stringOf(s.value)), nil
}

func checkSame(_ context.Context, _ *Engine, s *subject, r Rule) (bool, error) {
	other, ok := s.data[r.Params[0]]
	return ok && stringOf(s.value) == stringOf(other), nil
}

func checkDifferent(ctx context.Context, e *Engine, s *subject, r Rule) (bool, error) {
	same, err := checkSame(ctx, e, s, r)
	return !same, err
}

// checkUnique handles unique:table[,column[,except[,idColumn]]]. An except
// value of "" or "NULL" means no row is excluded.
func checkUnique(ctx context.Context, e *Engine, s *subject, r Rule) (bool, error) {
	table, column := r.Params[0], s.field
	if len(r.Params) > 1 && r.Params[1] != "" {
		column = r.Params[1]
	}
	exceptColumn, except := "", ""
	if len(r.Params) > 2 && r.Params[2] != "" && !strings.EqualFold(r.Params[2], "null") {
		except = r.Params[2]
		exceptColumn = "id"
		if len(r.Params) > 3 && r.Params[3] != "" {
			exceptColumn = r.Params[3]
		}
	}
	n, err := e.count(ctx, table, column, s.value, exceptColumn, except)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

func checkExists(ctx context.Context, e *Engine, s *subject, r Rule) (bool, error) {
	table, column := r.Params[0], s.field
	if len(r.Params) > 1 && r.Params[1] != "" {
		column = r.Params[1]
	}
	n, err := e.count(ctx, table, column, s.value, "", "")
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// isEmpty is true for nil, blank strings and empty collections.
func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func isCollection(value any) bool {
	if value == nil {
		return false
	}
	switch reflect.ValueOf(value).Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return true
	}
	return false
}

// number reads value as a float64 if it is a number or a numeric string.
func number(value any) (float64, bool) {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		f := transform.ToFloat(v)
		return f, !math.IsNaN(f) && !math.IsInf(f, 0)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func stringOf(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return fmt.Sprint(value)
}

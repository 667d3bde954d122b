package input

import (
	"bytes"
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"forminput/internal/logging"
)

type testForm struct {
	rules    Rules
	defaults Values
	messages Messages
	casts    Casts
}

func (f testForm) Rules() Rules       { return f.rules }
func (f testForm) Defaults() Values   { return f.defaults }
func (f testForm) Messages() Messages { return f.messages }
func (f testForm) Casts() Casts       { return f.casts }

type rulesOnly Rules

func (r rulesOnly) Rules() Rules { return Rules(r) }

// recorder fails every field whose rule chain contains "required" and whose
// value is missing or empty, and remembers what it was called with.
type recorder struct {
	calls    int
	rules    map[string]string
	messages map[string]string
	err      error
}

func (r *recorder) Evaluate(data map[string]any, rules map[string]string, messages map[string]string) (map[string][]string, error) {
	r.calls++
	r.rules = rules
	r.messages = messages
	if r.err != nil {
		return nil, r.err
	}
	errs := map[string][]string{}
	for field, chain := range rules {
		if !strings.Contains(chain, "required") {
			continue
		}
		if v, ok := data[field]; !ok || v == nil || v == "" {
			errs[field] = []string{messages["required"]}
		}
	}
	return errs, nil
}

func TestNewFiltersAndFillsDefaults(t *testing.T) {
	testCases := []struct {
		name string
		form Form
		raw  map[string]any
		want Values
	}{
		{
			name: "unknown keys dropped",
			form: rulesOnly{"name": "required", "email": "email"},
			raw:  map[string]any{"name": "Barry", "email": "b@example.com", "admin": true},
			want: Values{"name": "Barry", "email": "b@example.com"},
		},
		{
			name: "declared but absent stays absent",
			form: rulesOnly{"name": "required", "email": "email"},
			raw:  map[string]any{"name": "Barry"},
			want: Values{"name": "Barry"},
		},
		{
			name: "defaults fill absent fields",
			form: testForm{rules: Rules{"name": "required"}, defaults: Values{"country": "NZ", "name": "nobody"}},
			raw:  map[string]any{"name": "Barry"},
			want: Values{"name": "Barry", "country": "NZ"},
		},
		{
			name: "present empty value is not replaced by default",
			form: testForm{rules: Rules{"name": ""}, defaults: Values{"name": "nobody"}},
			raw:  map[string]any{"name": ""},
			want: Values{"name": ""},
		},
		{
			name: "nil raw",
			form: testForm{rules: Rules{"name": "required"}, defaults: Values{"role": "member"}},
			raw:  nil,
			want: Values{"role": "member"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := New(tc.form, tc.raw, &recorder{})
			got, err := p.Input(false)
			if err != nil {
				t.Fatalf("Input(false) unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Input(false) = %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestNewPadded(t *testing.T) {
	form := testForm{rules: Rules{"name": "required", "email": "email"}, defaults: Values{"email": "x@example.com", "role": "member"}}
	p := NewPadded(form, map[string]any{"name": "Barry", "extra": 1}, &recorder{})
	got, _ := p.Input(false)
	want := Values{"name": "Barry", "email": "", "role": "member"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Input(false) = %#v, want %#v", got, want)
	}
}

func TestConstructorsLogMaskedInput(t *testing.T) {
	origLevel := logging.GetLevel()
	buf := &bytes.Buffer{}
	logging.SetOutput(buf)
	logging.SetLevel(logging.Debug)
	t.Cleanup(func() {
		logging.SetOutput(os.Stderr)
		logging.SetLevel(origLevel)
	})

	form := rulesOnly{"name": "required", "password": "required"}
	raw := map[string]any{"name": "Barry", "password": "hunter2"}
	for name, build := range map[string]func(Form, map[string]any, Validator) *Processor{"New": New, "NewPadded": NewPadded} {
		buf.Reset()
		build(form, raw, &recorder{})
		got := buf.String()
		if !strings.Contains(got, "input: normalized 2 raw fields") {
			t.Errorf("%s did not log normalization: %q", name, got)
		}
		if strings.Contains(got, "hunter2") {
			t.Errorf("%s logged an unmasked password: %q", name, got)
		}
	}
}

func TestNewIsIdempotent(t *testing.T) {
	form := testForm{rules: Rules{"name": "required", "age": "integer"}, defaults: Values{"age": "18", "role": "member"}}
	first, _ := New(form, map[string]any{"name": "Barry", "junk": "x"}, &recorder{}).Input(false)
	second, _ := New(form, first, &recorder{}).Input(false)
	// role is not declared in the rules, so a second pass filters it and refills it.
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second normalization = %#v, want %#v", second, first)
	}
}

func TestSetAndRemoveInput(t *testing.T) {
	form := testForm{rules: Rules{"age": "integer", "name": "required"}, casts: Casts{"age": AsInt()}}
	p := New(form, map[string]any{"age": "21", "name": "Barry"}, &recorder{})

	p.SetInput("age", 88)
	p.SetInput("nickname", "baz")
	p.RemoveInput("name")
	p.RemoveInput("missing")

	got, _ := p.Input(false)
	want := Values{"age": 88, "nickname": "baz"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Input(false) = %#v, want %#v", got, want)
	}
}

func TestInputReturnsCopy(t *testing.T) {
	p := New(rulesOnly{"name": ""}, map[string]any{"name": "Barry"}, &recorder{})
	got, _ := p.Input(false)
	got["name"] = "changed"
	again, _ := p.Input(false)
	if again["name"] != "Barry" {
		t.Errorf("mutating Input result leaked into processor: name = %v", again["name"])
	}
}

func TestValidateMergesRulesAndMessages(t *testing.T) {
	engine := &recorder{}
	form := testForm{
		rules:    Rules{"name": "required", "email": "required|email"},
		messages: Messages{"required": "fill it in", "name.required": "who are you?"},
	}
	p := New(form, map[string]any{"email": "b@example.com"}, engine)

	ok, err := p.Validate(Rules{"email": "email", "age": "integer"}, Messages{"email": "bad email"}, true)
	if err != nil {
		t.Fatalf("Validate unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("Validate = true, want false (name is required)")
	}

	wantRules := map[string]string{"name": "required", "email": "email", "age": "integer"}
	if !reflect.DeepEqual(engine.rules, wantRules) {
		t.Errorf("engine rules = %#v, want %#v", engine.rules, wantRules)
	}
	wantMessages := map[string]string{
		"required":      "fill it in",
		"name.required": "who are you?",
		"in":            "Please make a selection",
		"email":         "bad email",
		"email.unique":  "This email address is already registered",
	}
	if !reflect.DeepEqual(engine.messages, wantMessages) {
		t.Errorf("engine messages = %#v, want %#v", engine.messages, wantMessages)
	}
}

func TestValidateWithoutMerge(t *testing.T) {
	engine := &recorder{}
	form := testForm{rules: Rules{"name": "required"}, messages: Messages{"required": "form message"}}
	p := New(form, map[string]any{}, engine)

	ok, err := p.Validate(Rules{"email": "email"}, nil, false)
	if err != nil || !ok {
		t.Fatalf("Validate = %t, %v; want true, nil", ok, err)
	}
	if !reflect.DeepEqual(engine.rules, map[string]string{"email": "email"}) {
		t.Errorf("engine rules = %#v, want only the override", engine.rules)
	}
	if len(engine.messages) != 0 {
		t.Errorf("engine messages = %#v, want none", engine.messages)
	}
}

func TestValidateResolvesIDPlaceholder(t *testing.T) {
	testCases := []struct {
		name string
		raw  map[string]any
		want string
	}{
		{name: "with id", raw: map[string]any{"id": "123", "email": "a@b.c"}, want: "unique:users,email,123"},
		{name: "without id", raw: map[string]any{"email": "a@b.c"}, want: "unique:users,email"},
		{name: "zero id", raw: map[string]any{"id": 0, "email": "a@b.c"}, want: "unique:users,email"},
		{name: "empty id", raw: map[string]any{"id": "", "email": "a@b.c"}, want: "unique:users,email"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			engine := &recorder{}
			p := New(rulesOnly{"id": "", "email": "unique:users,email,{:id}"}, tc.raw, engine)
			if _, err := p.Validate(nil, nil, true); err != nil {
				t.Fatalf("Validate unexpected error: %v", err)
			}
			if got := engine.rules["email"]; got != tc.want {
				t.Errorf("engine saw email rule %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValidationIsLazy(t *testing.T) {
	engine := &recorder{}
	p := New(rulesOnly{"name": "required"}, map[string]any{}, engine)
	if engine.calls != 0 {
		t.Fatalf("construction ran the engine %d times", engine.calls)
	}

	f, err := p.Validation()
	if err != nil {
		t.Fatalf("Validation unexpected error: %v", err)
	}
	if !f.Has("name") {
		t.Fatalf("Validation() = %v, want a failure for name", f)
	}
	if got := f.First("name"); got != "This field is required" {
		t.Errorf("First(name) = %q, want the default required message", got)
	}

	// Cached: neither mutation nor a second read re-runs the engine.
	p.SetInput("name", "Barry")
	if f2, _ := p.Validation(); f2 != f {
		t.Errorf("Validation() after SetInput = %v, want cached %v", f2, f)
	}
	if engine.calls != 1 {
		t.Errorf("engine ran %d times, want 1", engine.calls)
	}

	ok, _ := p.Validate(nil, nil, true)
	passed, _ := p.Passed()
	if !ok || !passed {
		t.Errorf("after explicit Validate: ok=%t passed=%t, want both true", ok, passed)
	}
	if f3, _ := p.Validation(); f3 != nil {
		t.Errorf("Validation() = %v, want nil after passing", f3)
	}
}

func TestValidateEngineFault(t *testing.T) {
	boom := errors.New("lookup unavailable")
	engine := &recorder{}
	p := New(rulesOnly{"name": "required"}, map[string]any{}, engine)
	if ok, _ := p.Validate(nil, nil, true); ok {
		t.Fatal("Validate = true, want false")
	}
	before, _ := p.Validation()

	engine.err = boom
	ok, err := p.Validate(nil, nil, true)
	if ok || !errors.Is(err, boom) {
		t.Fatalf("Validate = %t, %v; want false wrapping %v", ok, err, boom)
	}
	after, _ := p.Validation()
	if after != before {
		t.Errorf("engine fault replaced cached failure: %v -> %v", before, after)
	}

	fresh := New(rulesOnly{"name": "required"}, nil, &recorder{err: boom})
	if _, err := fresh.Validation(); !errors.Is(err, boom) {
		t.Errorf("lazy Validation() error = %v, want %v", err, boom)
	}
}

func TestInputCasting(t *testing.T) {
	form := testForm{
		rules: Rules{"age": "integer", "pi": "numeric", "subscribe": "", "oneday": "date", "name": "required", "note": ""},
		casts: Casts{
			"age":       AsInt(),
			"pi":        AsFloat(),
			"subscribe": AsBool(),
			"oneday":    AsTimestamp(),
			"name":      Using(func(v any) any { return strings.ToUpper(v.(string)) }),
		},
	}
	raw := map[string]any{"age": "21", "pi": "3.141", "subscribe": "1", "oneday": "1 June 2020", "name": "Barry", "note": "kept"}
	p := New(form, raw, &recorder{})

	got, err := p.Input(true)
	if err != nil {
		t.Fatalf("Input(true) unexpected error: %v", err)
	}
	want := Values{
		"age":       int64(21),
		"pi":        3.141,
		"subscribe": true,
		"oneday":    time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC),
		"name":      "BARRY",
		"note":      "kept",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Input(true) = %#v, want %#v", got, want)
	}

	uncast, _ := p.Input(false)
	if uncast["age"] != "21" {
		t.Errorf("Input(true) mutated stored input: age = %#v", uncast["age"])
	}

	p.SetInput("age", 88)
	if got, _ := p.Input(false); got["age"] != 88 {
		t.Errorf("Input(false) age = %#v, want 88 untouched", got["age"])
	}
}

func TestInputCastErrors(t *testing.T) {
	testCases := []struct {
		name    string
		cast    Cast
		value   any
		wantErr error
	}{
		{name: "unknown descriptor", cast: FromName("not-a-real-kind"), value: "1", wantErr: ErrInvalidCast},
		{name: "zero cast", cast: Cast{}, value: "1", wantErr: ErrInvalidCast},
		{name: "nil transform", cast: Using(nil), value: "1", wantErr: ErrInvalidCast},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			form := testForm{rules: Rules{"x": ""}, casts: Casts{"x": tc.cast}}
			_, err := New(form, map[string]any{"x": tc.value}, &recorder{}).Input(true)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Input(true) error = %v, want %v", err, tc.wantErr)
			}
			if !strings.Contains(err.Error(), "'x'") {
				t.Errorf("error %q does not name the field", err)
			}
		})
	}
}

func TestTimestampCastEdgeCases(t *testing.T) {
	form := testForm{rules: Rules{"when": ""}, casts: Casts{"when": AsTimestamp()}}

	got, err := New(form, map[string]any{"when": ""}, &recorder{}).Input(true)
	if err != nil || got["when"] != nil {
		t.Errorf("empty timestamp = %#v, %v; want nil, nil", got["when"], err)
	}

	_, err = New(form, map[string]any{"when": "whenever"}, &recorder{}).Input(true)
	if err == nil || !strings.Contains(err.Error(), "'when'") {
		t.Errorf("unparsable timestamp error = %v, want one naming the field", err)
	}
}

func TestDefaultMessagesIsCopy(t *testing.T) {
	m := DefaultMessages()
	m["required"] = "changed"
	if DefaultMessages()["required"] != "This field is required" {
		t.Error("DefaultMessages() exposed the shared table")
	}
	if len(DefaultMessages()) != 4 {
		t.Errorf("DefaultMessages() has %d entries, want 4", len(DefaultMessages()))
	}
}

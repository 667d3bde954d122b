package forms

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forminput/internal/config"
	"forminput/internal/input"
	"forminput/internal/rules"
	"forminput/internal/store"
)

func signupConfig() map[string]config.FormConfig {
	return map[string]config.FormConfig{
		"signup": {
			Fields: map[string]config.FieldConfig{
				"id":     {},
				"email":  {Rules: "required|email|unique:users,email,{:id}", Cast: "toLowerCase"},
				"age":    {Rules: "required|integer|min:18", Cast: "int"},
				"born":   {Rules: "date", Cast: "timestamp"},
				"phone":  {Cast: "replaceAll", Params: map[string]interface{}{"old": "-", "new": ""}},
				"role":   {Rules: "in:member,admin", Default: "member"},
				"points": {Cast: "expr:value * 10"},
			},
			Messages: map[string]string{"email.unique": "That address is taken"},
		},
	}
}

func TestNewDefinition(t *testing.T) {
	d, err := New("signup", signupConfig()["signup"])
	require.NoError(t, err)

	assert.Equal(t, "signup", d.Name())
	assert.Equal(t, []string{"age", "born", "email", "id", "phone", "points", "role"}, d.Fields())
	assert.Equal(t, "", d.Rules()["id"])
	assert.Equal(t, input.Values{"role": "member"}, d.Defaults())
	assert.Equal(t, input.Messages{"email.unique": "That address is taken"}, d.Messages())

	casts := d.Casts()
	assert.Equal(t, input.CastInteger, casts["age"].Kind())
	assert.Equal(t, input.CastTimestamp, casts["born"].Kind())
	assert.Equal(t, input.CastTransform, casts["email"].Kind())
	assert.Equal(t, "transform(expr)", casts["points"].String())
	assert.NotContains(t, casts, "role")

	rulesCopy := d.Rules()
	rulesCopy["email"] = "changed"
	assert.NotEqual(t, "changed", d.Rules()["email"])
}

func TestNewDefinitionBadCast(t *testing.T) {
	_, err := New("f", config.FormConfig{Fields: map[string]config.FieldConfig{"a": {Cast: "money"}}})
	require.ErrorIs(t, err, input.ErrInvalidCast)
	assert.Contains(t, err.Error(), "field 'a'")

	_, err = New("f", config.FormConfig{Fields: map[string]config.FieldConfig{"a": {Cast: "substring"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'start'")
}

func TestRegistryEndToEnd(t *testing.T) {
	reg, err := NewRegistry(signupConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"signup"}, reg.Names())

	engine, err := rules.New(rules.WithLookup(store.NewMemoryLookup(map[string][]map[string]any{
		"users": {{"id": 7, "email": "Taken@Example.com"}},
	})))
	require.NoError(t, err)

	p, err := reg.Processor("signup", map[string]any{
		"email":  "New@Example.com",
		"age":    "21",
		"born":   "1 June 2000",
		"phone":  "021-555-0192",
		"points": "4",
		"admin":  "yes",
	}, engine)
	require.NoError(t, err)

	ok, err := p.Validate(nil, nil, true)
	require.NoError(t, err)
	require.True(t, ok)

	out, err := p.Input(true)
	require.NoError(t, err)
	assert.Equal(t, input.Values{
		"email":  "new@example.com",
		"age":    int64(21),
		"born":   time.Date(2000, time.June, 1, 0, 0, 0, 0, time.UTC),
		"phone":  "0215550192",
		"points": float64(40),
		"role":   "member",
	}, out)

	taken, err := reg.Processor("signup", map[string]any{"email": "Taken@Example.com", "age": "30"}, engine)
	require.NoError(t, err)
	f, err := taken.Validation()
	require.NoError(t, err)
	assert.Equal(t, "That address is taken", f.First("email"))

	// Updating record 7 may keep its own address.
	own, err := reg.Processor("signup", map[string]any{"id": "7", "email": "Taken@Example.com", "age": "30"}, engine)
	require.NoError(t, err)
	passed, err := own.Passed()
	require.NoError(t, err)
	assert.True(t, passed)

	_, err = reg.Processor("missing", nil, engine)
	assert.True(t, errors.Is(err, ErrUnknownForm))
}

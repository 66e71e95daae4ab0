package setup

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSections = []iniSection{
	{Name: "ONE", Fields: []iniField{
		{Name: "req", Rule: required},
		{Name: "opt"},
		{Name: "opt_default", Default: "yes"},
		{Name: "calc", Rule: derived},
	}},
	{Name: "TWO", Fields: []iniField{
		{Name: "constant", Rule: fixed, Default: "42"},
	}},
}

func TestRenderINI(t *testing.T) {
	out, err := renderINI("test", testSections, iniValues{
		settings: map[string]string{"req": "a", "opt": "b", "unused": "c"},
		derived:  map[string]string{"calc": "d"},
	})
	require.NoError(t, err)
	assert.Equal(t, "[ONE]\nreq = a\nopt = b\nopt_default = yes\ncalc = d\n\n[TWO]\nconstant = 42\n", out)
}

func TestRenderINI_OmitsAbsentOptional(t *testing.T) {
	out, err := renderINI("test", testSections, iniValues{
		settings: map[string]string{"req": "a", "opt_default": "no", "calc": "ignored"},
	})
	require.NoError(t, err)
	assert.Equal(t, "[ONE]\nreq = a\nopt_default = no\n\n[TWO]\nconstant = 42\n", out)
}

func TestRenderINI_MissingRequired(t *testing.T) {
	_, err := renderINI("shard Master", testSections, iniValues{})

	var missing *MissingRequiredFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "req", missing.Field)
	assert.Equal(t, "shard Master", missing.Scope)
	assert.Equal(t, `shard Master: required field "req" is not set`, err.Error())
}

package setup

import (
	"strings"
)

// fieldRule says where an INI field's value comes from.
type fieldRule int

const (
	// optional emits the configured value, else the default, else nothing.
	optional fieldRule = iota
	// required emits the configured value or fails with MissingRequiredFieldError.
	required
	// derived is computed by the renderer and never read from settings.
	// It is omitted when the renderer supplies no value.
	derived
	// fixed always emits the declared default.
	fixed
)

type iniField struct {
	Name    string
	Rule    fieldRule
	Default string
}

type iniSection struct {
	Name   string
	Fields []iniField
}

// iniValues are the two value sources a section table is rendered against.
type iniValues struct {
	settings map[string]string
	derived  map[string]string
}

// renderINI renders sections in declaration order. scope names the owner of
// settings in MissingRequiredFieldError.
func renderINI(scope string, sections []iniSection, values iniValues) (string, error) {
	var b strings.Builder
	for i, section := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("[" + section.Name + "]\n")
		for _, f := range section.Fields {
			value, ok, err := f.resolve(scope, values)
			if err != nil {
				return "", err
			}
			if ok {
				b.WriteString(f.Name + " = " + value + "\n")
			}
		}
	}
	return b.String(), nil
}

func (f iniField) resolve(scope string, values iniValues) (string, bool, error) {
	switch f.Rule {
	case required:
		v, ok := values.settings[f.Name]
		if !ok {
			return "", false, &MissingRequiredFieldError{Scope: scope, Field: f.Name}
		}
		return v, true, nil
	case derived:
		v, ok := values.derived[f.Name]
		return v, ok, nil
	case fixed:
		return f.Default, true, nil
	default:
		if v, ok := values.settings[f.Name]; ok {
			return v, true, nil
		}
		return f.Default, f.Default != "", nil
	}
}

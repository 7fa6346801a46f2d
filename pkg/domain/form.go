package domain

import "fmt"

// FieldType determines which extraction strategy applies to a field.
type FieldType string

const (
	FieldText    FieldType = "text"
	FieldNumber  FieldType = "number"
	FieldDate    FieldType = "date"
	FieldSelect  FieldType = "select"
	FieldBoolean FieldType = "boolean" // extracted as free text
)

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldNumber, FieldDate, FieldSelect, FieldBoolean:
		return true
	}
	return false
}

// FieldSpec describes one slot of a form.
type FieldSpec struct {
	ID       string    `json:"id" yaml:"id"`
	Label    string    `json:"label" yaml:"label"`
	Type     FieldType `json:"type" yaml:"type"`
	Required bool      `json:"required" yaml:"required"`
	// Options is only meaningful for FieldSelect.
	Options []string `json:"options,omitempty" yaml:"options,omitempty"`
}

// FormDefinition is an immutable template loaded once by the catalog.
type FormDefinition struct {
	ID                 string      `json:"id" yaml:"id"`
	Name               string      `json:"name" yaml:"name"`
	Category           string      `json:"category" yaml:"category"`
	ExternalServiceRef string      `json:"service_ref,omitempty" yaml:"service_ref,omitempty"`
	Fields             []FieldSpec `json:"fields" yaml:"fields"`
	// Triggers are the keyword phrases that start this form, in priority order.
	Triggers []string `json:"triggers,omitempty" yaml:"triggers,omitempty"`
}

// Field returns the field with the given id.
func (f FormDefinition) Field(id string) (FieldSpec, bool) {
	for _, field := range f.Fields {
		if field.ID == id {
			return field, true
		}
	}
	return FieldSpec{}, false
}

// RequiredFields returns the required fields in declared order.
func (f FormDefinition) RequiredFields() []FieldSpec {
	var out []FieldSpec
	for _, field := range f.Fields {
		if field.Required {
			out = append(out, field)
		}
	}
	return out
}

// NextRequired returns the first required field, in declared order, that has no
// value in collected. It returns false when every required field is present.
func (f FormDefinition) NextRequired(collected map[string]string) (FieldSpec, bool) {
	for _, field := range f.Fields {
		if !field.Required {
			continue
		}
		if _, ok := collected[field.ID]; !ok {
			return field, true
		}
	}
	return FieldSpec{}, false
}

// Validate checks the structural rules every catalog source must satisfy.
func (f FormDefinition) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("form has empty id")
	}
	if f.Name == "" {
		return fmt.Errorf("form %q has empty name", f.ID)
	}
	seen := make(map[string]bool, len(f.Fields))
	for i, field := range f.Fields {
		if field.ID == "" {
			return fmt.Errorf("form %q: field #%d has empty id", f.ID, i)
		}
		if seen[field.ID] {
			return fmt.Errorf("form %q: duplicate field id %q", f.ID, field.ID)
		}
		seen[field.ID] = true
		if !field.Type.Valid() {
			return fmt.Errorf("form %q: field %q has unknown type %q", f.ID, field.ID, field.Type)
		}
		if field.Type == FieldSelect && len(field.Options) == 0 {
			return fmt.Errorf("form %q: select field %q has no options", f.ID, field.ID)
		}
	}
	for _, phrase := range f.Triggers {
		if phrase == "" {
			return fmt.Errorf("form %q has an empty trigger phrase", f.ID)
		}
	}
	return nil
}

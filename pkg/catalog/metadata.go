package catalog

import (
	"fmt"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// FormMetadata is the on-disk shape of a form definition.
// It uses "mapstructure" tags to match front matter and YAML keys.
type FormMetadata struct {
	ID         string          `json:"id" mapstructure:"id"`
	Name       string          `json:"name" mapstructure:"name"`
	Category   string          `json:"category" mapstructure:"category"`
	ServiceRef string          `json:"service_ref" mapstructure:"service_ref"`
	Triggers   []string        `json:"triggers" mapstructure:"triggers"`
	Fields     []FieldMetadata `json:"fields" mapstructure:"fields"`
	// Order sorts forms loaded from a directory; lower comes first.
	Order int `json:"order" mapstructure:"order"`
}

// FieldMetadata is the on-disk shape of a field.
type FieldMetadata struct {
	ID       string   `json:"id" mapstructure:"id"`
	Label    string   `json:"label" mapstructure:"label"`
	Type     string   `json:"type" mapstructure:"type"`
	Required bool     `json:"required" mapstructure:"required"`
	Options  []string `json:"options" mapstructure:"options"`
}

// ToDomain converts metadata into a form definition.
func (m FormMetadata) ToDomain() domain.FormDefinition {
	form := domain.FormDefinition{
		ID:                 m.ID,
		Name:               m.Name,
		Category:           m.Category,
		ExternalServiceRef: m.ServiceRef,
		Triggers:           m.Triggers,
		Fields:             make([]domain.FieldSpec, len(m.Fields)),
	}
	for i, f := range m.Fields {
		typ := domain.FieldType(f.Type)
		if typ == "" {
			typ = domain.FieldText
		}
		form.Fields[i] = domain.FieldSpec{
			ID:       f.ID,
			Label:    f.Label,
			Type:     typ,
			Required: f.Required,
			Options:  f.Options,
		}
	}
	return form
}

// decodeMetadata maps loosely typed YAML into FormMetadata. Weak typing lets
// unquoted scalars such as select options 1, 2, 3 decode as strings.
func decodeMetadata(raw any) (FormMetadata, error) {
	var meta FormMetadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &meta,
	})
	if err != nil {
		return meta, err
	}
	if err := dec.Decode(raw); err != nil {
		return meta, fmt.Errorf("decode form metadata: %w", err)
	}
	return meta, nil
}

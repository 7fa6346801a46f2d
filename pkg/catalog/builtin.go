package catalog

import (
	_ "embed"
	"fmt"

	"github.com/aretw0/concierge/pkg/domain"
	"gopkg.in/yaml.v3"
)

//go:embed forms.yaml
var builtinYAML []byte

// Builtin returns the embedded catalog.
func Builtin() (*Catalog, error) {
	return Parse(builtinYAML)
}

// MustBuiltin is like Builtin but panics on error. The embedded data is covered
// by tests, so a failure here is a build defect.
func MustBuiltin() *Catalog {
	c, err := Builtin()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse reads a YAML list of forms.
func Parse(data []byte) (*Catalog, error) {
	var raw []map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog yaml: %w", err)
	}
	forms := make([]domain.FormDefinition, 0, len(raw))
	for i, item := range raw {
		meta, err := decodeMetadata(item)
		if err != nil {
			return nil, fmt.Errorf("form #%d: %w", i, err)
		}
		forms = append(forms, meta.ToDomain())
	}
	return New(forms...)
}

package catalog

import (
	"fmt"
	"slices"

	"github.com/aretw0/concierge/pkg/domain"
)

// Trigger pairs a keyword phrase with the form it starts.
type Trigger struct {
	Phrase string
	FormID string
}

// Catalog holds forms in declared order.
type Catalog struct {
	forms     []domain.FormDefinition
	byID      map[string]int
	byService map[string]int
}

// New validates forms and builds a catalog. Declared order is kept: it decides
// trigger priority.
func New(forms ...domain.FormDefinition) (*Catalog, error) {
	c := &Catalog{
		forms:     make([]domain.FormDefinition, 0, len(forms)),
		byID:      make(map[string]int, len(forms)),
		byService: make(map[string]int),
	}
	for _, f := range forms {
		if err := f.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[f.ID]; dup {
			return nil, fmt.Errorf("duplicate form id %q", f.ID)
		}
		if f.ExternalServiceRef != "" {
			if other, dup := c.byService[f.ExternalServiceRef]; dup {
				return nil, fmt.Errorf("forms %q and %q share service ref %q", c.forms[other].ID, f.ID, f.ExternalServiceRef)
			}
			c.byService[f.ExternalServiceRef] = len(c.forms)
		}
		c.byID[f.ID] = len(c.forms)
		c.forms = append(c.forms, clone(f))
	}
	return c, nil
}

// ByID returns the form with the given id or domain.ErrFormNotFound.
func (c *Catalog) ByID(id string) (domain.FormDefinition, error) {
	i, ok := c.byID[id]
	if !ok {
		return domain.FormDefinition{}, fmt.Errorf("%w: %s", domain.ErrFormNotFound, id)
	}
	return clone(c.forms[i]), nil
}

// ByServiceRef returns the form linked to an external service offering.
func (c *Catalog) ByServiceRef(ref string) (domain.FormDefinition, error) {
	i, ok := c.byService[ref]
	if !ok {
		return domain.FormDefinition{}, fmt.Errorf("%w: service %s", domain.ErrFormNotFound, ref)
	}
	return clone(c.forms[i]), nil
}

// All returns every form in declared order.
func (c *Catalog) All() []domain.FormDefinition {
	out := make([]domain.FormDefinition, len(c.forms))
	for i, f := range c.forms {
		out[i] = clone(f)
	}
	return out
}

// Triggers returns every keyword phrase in priority order: forms in declared
// order, and each form's phrases in their own order.
func (c *Catalog) Triggers() []Trigger {
	var out []Trigger
	for _, f := range c.forms {
		for _, phrase := range f.Triggers {
			out = append(out, Trigger{Phrase: phrase, FormID: f.ID})
		}
	}
	return out
}

// Len returns the number of forms.
func (c *Catalog) Len() int {
	return len(c.forms)
}

func clone(f domain.FormDefinition) domain.FormDefinition {
	f.Triggers = slices.Clone(f.Triggers)
	fields := make([]domain.FieldSpec, len(f.Fields))
	for i, field := range f.Fields {
		field.Options = slices.Clone(field.Options)
		fields[i] = field
	}
	f.Fields = fields
	return f
}

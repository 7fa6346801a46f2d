package catalog

import "github.com/aretw0/concierge/pkg/domain"

// Builder manages catalog construction.
type Builder struct {
	forms []*FormBuilder
}

// NewBuilder creates an empty catalog builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Form starts a new form. Forms keep the order in which they are added.
func (b *Builder) Form(id, name string) *FormBuilder {
	fb := &FormBuilder{form: domain.FormDefinition{ID: id, Name: name}, builder: b}
	b.forms = append(b.forms, fb)
	return fb
}

// Build validates and returns the catalog.
func (b *Builder) Build() (*Catalog, error) {
	forms := make([]domain.FormDefinition, len(b.forms))
	for i, fb := range b.forms {
		forms[i] = fb.form
	}
	return New(forms...)
}

// FormBuilder provides a fluent API for configuring a form.
type FormBuilder struct {
	form    domain.FormDefinition
	builder *Builder
}

// Category sets the form category.
func (f *FormBuilder) Category(category string) *FormBuilder {
	f.form.Category = category
	return f
}

// ServiceRef links the form to an external service offering.
func (f *FormBuilder) ServiceRef(ref string) *FormBuilder {
	f.form.ExternalServiceRef = ref
	return f
}

// Triggers appends keyword phrases that start the form.
func (f *FormBuilder) Triggers(phrases ...string) *FormBuilder {
	f.form.Triggers = append(f.form.Triggers, phrases...)
	return f
}

// Text adds a required free-text field.
func (f *FormBuilder) Text(id, label string) *FormBuilder {
	return f.field(id, label, domain.FieldText)
}

// Number adds a required numeric field.
func (f *FormBuilder) Number(id, label string) *FormBuilder {
	return f.field(id, label, domain.FieldNumber)
}

// Date adds a required date field.
func (f *FormBuilder) Date(id, label string) *FormBuilder {
	return f.field(id, label, domain.FieldDate)
}

// Boolean adds a required yes/no field.
func (f *FormBuilder) Boolean(id, label string) *FormBuilder {
	return f.field(id, label, domain.FieldBoolean)
}

// Select adds a required field constrained to options.
func (f *FormBuilder) Select(id, label string, options ...string) *FormBuilder {
	f.field(id, label, domain.FieldSelect)
	f.form.Fields[len(f.form.Fields)-1].Options = options
	return f
}

// Optional marks the last added field as not required.
func (f *FormBuilder) Optional() *FormBuilder {
	if n := len(f.form.Fields); n > 0 {
		f.form.Fields[n-1].Required = false
	}
	return f
}

// Form starts the next form on the same builder.
func (f *FormBuilder) Form(id, name string) *FormBuilder {
	return f.builder.Form(id, name)
}

// Build validates and returns the catalog.
func (f *FormBuilder) Build() (*Catalog, error) {
	return f.builder.Build()
}

func (f *FormBuilder) field(id, label string, typ domain.FieldType) *FormBuilder {
	f.form.Fields = append(f.form.Fields, domain.FieldSpec{ID: id, Label: label, Type: typ, Required: true})
	return f
}

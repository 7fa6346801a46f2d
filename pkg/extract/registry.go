package extract

import (
	"sync"
	"time"

	"github.com/aretw0/concierge/pkg/domain"
)

// Registry dispatches extraction by field type.
type Registry struct {
	mu         sync.RWMutex
	extractors map[domain.FieldType]Extractor
}

type options struct {
	date Date
	text Text
}

// Option configures the default registry.
type Option func(*options)

// WithClock sets the clock used to resolve relative dates.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.date.Now = now
	}
}

// WithLocation sets the time zone used to resolve relative dates.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		o.date.Location = loc
	}
}

// WithPreserveCase keeps the casing of text and boolean answers.
func WithPreserveCase(enabled bool) Option {
	return func(o *options) {
		o.text.PreserveCase = enabled
	}
}

// NewRegistry returns a registry with the standard extractor for every field type.
func NewRegistry(opts ...Option) *Registry {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry{
		extractors: map[domain.FieldType]Extractor{
			domain.FieldText:    o.text,
			domain.FieldBoolean: o.text,
			domain.FieldNumber:  Number{},
			domain.FieldDate:    o.date,
			domain.FieldSelect:  Select{},
		},
	}
}

// Register replaces the extractor for a field type.
func (r *Registry) Register(t domain.FieldType, e Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[t] = e
}

// Extract runs the extractor registered for field.Type.
// Fields of an unregistered type never yield a value.
func (r *Registry) Extract(utterance string, field domain.FieldSpec) (string, bool) {
	r.mu.RLock()
	e, ok := r.extractors[field.Type]
	r.mu.RUnlock()
	if !ok {
		return "", false
	}
	return e.Extract(utterance, field)
}

// Package trigger decides whether an utterance starts a form.
package trigger

import (
	"strings"

	"github.com/aretw0/concierge/pkg/catalog"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/extract"
)

type phrase struct {
	folded string
	form   domain.FormDefinition
}

// Detector matches utterances against the catalog's keyword phrases.
type Detector struct {
	phrases []phrase
	strict  bool
}

// Option configures a Detector.
type Option func(*Detector)

// WithStrict makes Detect report an AmbiguousTriggerError when phrases of more
// than one form match, instead of picking the first.
func WithStrict() Option {
	return func(d *Detector) {
		d.strict = true
	}
}

// New builds a detector over the catalog's triggers. Forms without required
// fields are left out: there would be nothing to ask.
func New(c *catalog.Catalog, opts ...Option) *Detector {
	d := &Detector{}
	for _, opt := range opts {
		opt(d)
	}
	for _, t := range c.Triggers() {
		form, err := c.ByID(t.FormID)
		if err != nil || len(form.RequiredFields()) == 0 {
			continue
		}
		if folded := extract.Fold(t.Phrase); folded != "" {
			d.phrases = append(d.phrases, phrase{folded: folded, form: form})
		}
	}
	return d
}

// Detect returns the form whose phrase is contained in the utterance, ignoring
// case. The first phrase in catalog order wins. In strict mode an utterance that
// matches several forms yields *domain.AmbiguousTriggerError.
func (d *Detector) Detect(utterance string) (domain.FormDefinition, bool, error) {
	folded := extract.Fold(utterance)
	if folded == "" {
		return domain.FormDefinition{}, false, nil
	}

	var matches []domain.FormDefinition
	seen := make(map[string]bool)
	for _, p := range d.phrases {
		if !strings.Contains(folded, p.folded) {
			continue
		}
		if !d.strict {
			return p.form, true, nil
		}
		if !seen[p.form.ID] {
			seen[p.form.ID] = true
			matches = append(matches, p.form)
		}
	}

	switch len(matches) {
	case 0:
		return domain.FormDefinition{}, false, nil
	case 1:
		return matches[0], true, nil
	}
	return domain.FormDefinition{}, false, &domain.AmbiguousTriggerError{Candidates: matches}
}

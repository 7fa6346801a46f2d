package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/concierge/pkg/domain"
)

// Extractor returns the value of field found in utterance, if any.
type Extractor interface {
	Extract(utterance string, field domain.FieldSpec) (string, bool)
}

// Func adapts a function to Extractor.
type Func func(utterance string, field domain.FieldSpec) (string, bool)

func (f Func) Extract(utterance string, field domain.FieldSpec) (string, bool) {
	return f(utterance, field)
}

// Text returns the whole utterance, folded to lower case. Boolean fields use
// it too. PreserveCase keeps the casing the user typed.
type Text struct {
	PreserveCase bool
}

func (x Text) Extract(utterance string, _ domain.FieldSpec) (string, bool) {
	v := Fold(utterance)
	if x.PreserveCase {
		v = Normalize(utterance)
	}
	return v, v != ""
}

var digits = regexp.MustCompile(`[0-9]+`)

// Number returns the first run of ASCII digits. Signs, decimals and
// thousands separators are not understood.
type Number struct{}

func (Number) Extract(utterance string, _ domain.FieldSpec) (string, bool) {
	v := digits.FindString(utterance)
	return v, v != ""
}

var (
	datePattern  = regexp.MustCompile(`[0-9]{4}-[0-9]{2}-[0-9]{2}|[0-9]{2}/[0-9]{2}/[0-9]{4}`)
	todayPattern = regexp.MustCompile(`\b(hoje|today)\b`)
)

// Date returns the first yyyy-mm-dd or dd/mm/yyyy literal, verbatim. Otherwise
// "hoje" or "today" resolves to the current date as yyyy-mm-dd.
type Date struct {
	// Now defaults to time.Now.
	Now func() time.Time
	// Location defaults to time.Local.
	Location *time.Location
}

func (d Date) Extract(utterance string, _ domain.FieldSpec) (string, bool) {
	if v := datePattern.FindString(utterance); v != "" {
		return v, true
	}
	if !todayPattern.MatchString(Fold(utterance)) {
		return "", false
	}
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	return now().In(loc).Format(time.DateOnly), true
}

// Select returns the first option, in declared order, contained in the
// utterance ignoring case. The option is returned as declared.
type Select struct{}

func (Select) Extract(utterance string, field domain.FieldSpec) (string, bool) {
	folded := Fold(utterance)
	for _, opt := range field.Options {
		o := Fold(opt)
		if o != "" && strings.Contains(folded, o) {
			return opt, true
		}
	}
	return "", false
}

package extract_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/extract"
	"github.com/stretchr/testify/assert"
)

var fixedNow = time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC)

func registry() *extract.Registry {
	return extract.NewRegistry(
		extract.WithClock(func() time.Time { return fixedNow }),
		extract.WithLocation(time.UTC),
	)
}

func field(typ domain.FieldType, options ...string) domain.FieldSpec {
	return domain.FieldSpec{ID: "f", Label: "F", Type: typ, Required: true, Options: options}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name      string
		field     domain.FieldSpec
		utterance string
		want      string
		ok        bool
	}{
		{"text lower-cased", field(domain.FieldText), "Ricardo Gomes", "ricardo gomes", true},
		{"text normalized", field(domain.FieldText), "  Rua   das Flores,\t12  ", "rua das flores, 12", true},
		{"text empty", field(domain.FieldText), "   ", "", false},
		{"boolean as text", field(domain.FieldBoolean), "Sim", "sim", true},

		{"number first run", field(domain.FieldNumber), "tenho 24 meses e 3 dias", "24", true},
		{"number no digits", field(domain.FieldNumber), "vinte e quatro", "", false},
		{"number ignores sign", field(domain.FieldNumber), "-5", "5", true},
		{"number stops at separator", field(domain.FieldNumber), "1.500", "1", true},

		{"date iso", field(domain.FieldDate), "nasceu a 2015-07-21", "2015-07-21", true},
		{"date european", field(domain.FieldDate), "foi 21/07/2015", "21/07/2015", true},
		{"date first literal wins", field(domain.FieldDate), "01/02/2020 ou 2021-03-04", "01/02/2020", true},
		{"date today pt", field(domain.FieldDate), "Comecei hoje", "2026-03-14", true},
		{"date today en", field(domain.FieldDate), "TODAY", "2026-03-14", true},
		{"date literal beats today", field(domain.FieldDate), "hoje não, 2020-01-01", "2020-01-01", true},
		{"date today inside word", field(domain.FieldDate), "hojeiro", "", false},
		{"date unparseable", field(domain.FieldDate), "ontem", "", false},
		{"date partial", field(domain.FieldDate), "2015-7-21", "", false},

		{"select exact", field(domain.FieldSelect, "1", "2", "3"), "2", "2", true},
		{"select contained", field(domain.FieldSelect, "Solteiro(a)", "Casado(a)"), "sou casado(a) há anos", "Casado(a)", true},
		{"select declared order", field(domain.FieldSelect, "1", "2", "3"), "entre 3 e 1", "1", true},
		{"select accents", field(domain.FieldSelect, "Viúvo(a)"), "VIÚVO(A)", "Viúvo(a)", true},
		{"select no fuzzy", field(domain.FieldSelect, "Casado(a)"), "casado", "", false},

		{"unknown type", field("color"), "red", "", false},
	}

	r := registry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Extract(tt.utterance, tt.field)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDate_UsesLocation(t *testing.T) {
	lisbon := time.FixedZone("WEST", 3600)
	d := extract.Date{Now: func() time.Time { return fixedNow }, Location: lisbon}
	got, ok := d.Extract("hoje", domain.FieldSpec{})
	assert.True(t, ok)
	assert.Equal(t, "2026-03-15", got, "23:30 UTC is already tomorrow in UTC+1")
}

func TestRegistry_PreserveCase(t *testing.T) {
	r := extract.NewRegistry(extract.WithPreserveCase(true))

	got, ok := r.Extract("  Ricardo   Gomes ", field(domain.FieldText))
	assert.True(t, ok)
	assert.Equal(t, "Ricardo Gomes", got)

	got, _ = r.Extract("Sim", field(domain.FieldBoolean))
	assert.Equal(t, "Sim", got)
}

func TestNormalize_ComposesUnicode(t *testing.T) {
	decomposed := "Familia\u0301" // a + combining acute
	assert.Equal(t, "Familiá", extract.Normalize(decomposed))
	assert.Equal(t, "familiá", extract.Fold(decomposed))
}

func TestRegistry_Register(t *testing.T) {
	r := registry()
	r.Register(domain.FieldBoolean, extract.Func(func(u string, _ domain.FieldSpec) (string, bool) {
		switch extract.Fold(u) {
		case "sim", "yes":
			return "true", true
		case "não", "no":
			return "false", true
		}
		return "", false
	}))

	got, ok := r.Extract("Sim", field(domain.FieldBoolean))
	assert.True(t, ok)
	assert.Equal(t, "true", got)

	_, ok = r.Extract("talvez", field(domain.FieldBoolean))
	assert.False(t, ok)
}

func TestExtract_NeverPanics(t *testing.T) {
	r := registry()
	inputs := []string{"", "\x00\xff\xfe", strings.Repeat("9", 10000), "🙂 2020-01-01 🙂", "‮"}
	types := []domain.FieldSpec{
		field(domain.FieldText), field(domain.FieldNumber), field(domain.FieldDate),
		field(domain.FieldSelect, "a", ""), field(domain.FieldBoolean),
	}
	for _, in := range inputs {
		for _, f := range types {
			assert.NotPanics(t, func() { r.Extract(in, f) })
		}
	}
}

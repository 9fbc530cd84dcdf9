package docfill

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(loadTestRegistry(t), "")
	require.NoError(t, err)
	return r
}

func TestResolver_Resolve(t *testing.T) {
	r := newTestResolver(t)
	ctx := ValueContext{
		"etude": {
			"location":      "Paris",
			"numeroMission": "E2024-001",
			"dateDebut":     time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
		},
		"client": {
			"nom": "société générale d'études",
			"adresse": map[string]any{
				"ville": "Lyon",
			},
		},
	}

	tests := []struct {
		token string
		want  string
		ok    bool
	}{
		{"etude_lieu", "Paris", true},
		{"etude_numero", "E2024-001", true},
		{"etude_date", "05/03/2024", true},
		{"client_nom", "SOCIÉTÉ GÉNÉRALE D'ÉTUDES", true},
		{"client_ville", "Lyon", true},
		{"client_adresse", "", false},
		{"etude", "", false},
		{"inconnu", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, ok := r.Resolve(tt.token, ctx)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestResolver_MissingCategory(t *testing.T) {
	r := newTestResolver(t)

	got, ok := r.Resolve("etude_lieu", ValueContext{"client": {"nom": "x"}})
	assert.Equal(t, "", got)
	assert.False(t, ok)

	got, ok = r.Resolve("etude_lieu", nil)
	assert.Equal(t, "", got)
	assert.False(t, ok)
}

func TestResolver_EmptyStringIsResolved(t *testing.T) {
	r := newTestResolver(t)

	got, ok := r.Resolve("etude_lieu", ValueContext{"etude": {"location": ""}})
	assert.Equal(t, "", got)
	assert.True(t, ok)
}

func TestResolver_RegisterCategory(t *testing.T) {
	r := newTestResolver(t)

	err := r.RegisterCategory("etude", func(ctx ValueContext, def TagDefinition) (any, bool) {
		if def.Field == "numeroMission" {
			return "computed", true
		}
		return FieldAccessor(ctx, def)
	})
	require.NoError(t, err)

	got, ok := r.Resolve("etude_numero", nil)
	assert.True(t, ok)
	assert.Equal(t, "computed", got)

	got, _ = r.Resolve("etude_lieu", ValueContext{"etude": {"location": "Nantes"}})
	assert.Equal(t, "Nantes", got)

	assert.Error(t, r.RegisterCategory("", FieldAccessor))
	assert.Error(t, r.RegisterCategory("x", nil))
}

func TestResolver_Transforms(t *testing.T) {
	reg, err := NewRegistry([]TagDefinition{
		{Name: "u", Category: "c", Field: "v", Transform: TransformUpper},
		{Name: "l", Category: "c", Field: "v", Transform: TransformLower},
		{Name: "t", Category: "c", Field: "v", Transform: TransformTitle},
	})
	require.NoError(t, err)
	ctx := ValueContext{"c": {"v": "éLOÏSE de la FONTAINE"}}

	r, err := NewResolver(reg, "fr")
	require.NoError(t, err)

	u, _ := r.Resolve("u", ctx)
	l, _ := r.Resolve("l", ctx)
	ti, _ := r.Resolve("t", ctx)
	assert.Equal(t, "ÉLOÏSE DE LA FONTAINE", u)
	assert.Equal(t, "éloïse de la fontaine", l)
	assert.Equal(t, "Éloïse De La Fontaine", ti)

	tr, err := NewResolver(reg, "tr")
	require.NoError(t, err)
	got, _ := tr.Resolve("u", ValueContext{"c": {"v": "istanbul"}})
	assert.Equal(t, "İSTANBUL", got)
}

func TestNewResolver_InvalidLocale(t *testing.T) {
	_, err := NewResolver(loadTestRegistry(t), "not a locale!")
	assert.Error(t, err)

	_, err = NewResolver(nil, "")
	assert.Error(t, err)
}

type reference string

func (r reference) String() string { return "REF-" + string(r) }

func TestFormatValue(t *testing.T) {
	date := time.Date(2024, time.December, 24, 15, 4, 0, 0, time.UTC)

	tests := []struct {
		name   string
		value  any
		layout string
		want   string
	}{
		{"string", "texte", "", "texte"},
		{"int", 42, "", "42"},
		{"negative int64", int64(-7), "", "-7"},
		{"uint8", uint8(200), "", "200"},
		{"float without exponent", 1234567.5, "", "1234567.5"},
		{"large float", 1e21, "", "1000000000000000000000"},
		{"float32", float32(0.25), "", "0.25"},
		{"bool", true, "", "true"},
		{"time default layout", date, "", "24/12/2024"},
		{"time custom layout", date, "2006-01-02 15:04", "2024-12-24 15:04"},
		{"time pointer", &date, "", "24/12/2024"},
		{"stringer", reference("12"), "", "REF-12"},
		{"bytes", []byte("brut"), "", "brut"},
		{"fallback", []int{1, 2}, "", "[1 2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.value, tt.layout))
		})
	}
}

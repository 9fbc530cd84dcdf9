package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type breaks []int

func (b breaks) BreakWithin(start, end int) bool {
	for _, k := range b {
		if k > start && k < end {
			return true
		}
	}
	return false
}

func newMatcher(t *testing.T, opts ...Option) *Matcher {
	t.Helper()
	m, err := New(opts...)
	require.NoError(t, err)
	return m
}

func TestFind_Exact(t *testing.T) {
	m := newMatcher(t)
	text := []rune("Dossier <etude_numero> du <date_jour>, suivi <etude_numero>.")

	res := m.Find(text, []string{"etude_numero", "date_jour"}, nil)

	require.Len(t, res.Spans, 3)
	assert.Equal(t, Span{Token: "etude_numero", Start: 8, End: 22, Exact: true}, res.Spans[0])
	assert.Equal(t, "date_jour", res.Spans[1].Token)
	assert.Equal(t, "<date_jour>", string(text[res.Spans[1].Start:res.Spans[1].End]))
	assert.Equal(t, "etude_numero", res.Spans[2].Token)
	assert.Empty(t, res.Ambiguities)
	assert.Empty(t, res.Rejected)
}

func TestFind_BareNameNeverMatches(t *testing.T) {
	m := newMatcher(t)
	text := []rune("Le numero de l'etude est inscrit en marge: etude_numero.")

	res := m.Find(text, []string{"etude_numero", "etude"}, nil)

	assert.Empty(t, res.Spans)
}

func TestFind_PrefixTokens(t *testing.T) {
	m := newMatcher(t)

	res := m.Find([]rune("<etude_numero>"), []string{"etude", "etude_numero"}, nil)
	require.Len(t, res.Spans, 1)
	assert.Equal(t, "etude_numero", res.Spans[0].Token)

	res = m.Find([]rune("<etude_numero> <etude>"), []string{"etude", "etude_numero"}, nil)
	require.Len(t, res.Spans, 2)
	assert.Equal(t, "etude_numero", res.Spans[0].Token)
	assert.Equal(t, "etude", res.Spans[1].Token)
}

func TestFind_OverlapRecordsAmbiguity(t *testing.T) {
	m := newMatcher(t, WithDelimiters("[", "]"))
	text := []rune("[a[b]")

	res := m.Find(text, []string{"a[b", "b"}, nil)

	require.Len(t, res.Spans, 1)
	assert.Equal(t, "a[b", res.Spans[0].Token)
	require.Len(t, res.Ambiguities, 1)
	assert.Equal(t, "b", res.Ambiguities[0].Dropped.Token)
}

func TestFind_Window(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		match bool
	}{
		{"leading padding", "x < nom> y", "< nom>", true},
		{"both sides", "<  nom  >", "<  nom  >", true},
		{"non breaking space", "< nom>", "< nom>", true},
		{"too much padding", "<   nom   >", "", false},
		{"non whitespace padding", "<.nom>", "", false},
		{"missing close", "< nom", "", false},
		{"missing open", "nom >", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMatcher(t)
			text := []rune(tt.text)
			res := m.Find(text, []string{"nom"}, nil)
			if !tt.match {
				assert.Empty(t, res.Spans)
				return
			}
			require.Len(t, res.Spans, 1)
			s := res.Spans[0]
			assert.False(t, s.Exact)
			assert.Equal(t, tt.want, string(text[s.Start:s.End]))
		})
	}
}

func TestFind_WindowOnlyWithoutExact(t *testing.T) {
	m := newMatcher(t)
	text := []rune("<nom> et < nom >")

	res := m.Find(text, []string{"nom"}, nil)

	require.Len(t, res.Spans, 1)
	assert.True(t, res.Spans[0].Exact)
	assert.Equal(t, 0, res.Spans[0].Start)
}

func TestFind_WindowDisabled(t *testing.T) {
	m := newMatcher(t, WithWindow(0))
	res := m.Find([]rune("< nom>"), []string{"nom"}, nil)
	assert.Empty(t, res.Spans)
}

func TestFind_Boundaries(t *testing.T) {
	text := []rune("<etude_numero>")
	// paragraph break between "<etude" and "_numero>"
	b := breaks{0, 6, 14}

	t.Run("rejected by default", func(t *testing.T) {
		res := newMatcher(t).Find(text, []string{"etude_numero"}, b)
		assert.Empty(t, res.Spans)
		require.Len(t, res.Rejected, 1)
		assert.Equal(t, "etude_numero", res.Rejected[0].Token)
	})

	t.Run("allowed when configured", func(t *testing.T) {
		res := newMatcher(t, WithBreaksAllowed(true)).Find(text, []string{"etude_numero"}, b)
		require.Len(t, res.Spans, 1)
		assert.Empty(t, res.Rejected)
	})

	t.Run("boundary at the edges is fine", func(t *testing.T) {
		res := newMatcher(t).Find(text, []string{"etude_numero"}, breaks{0, 14})
		require.Len(t, res.Spans, 1)
	})
}

func TestFind_Deterministic(t *testing.T) {
	m := newMatcher(t)
	text := []rune("<b> <a> <c> <a>")

	first := m.Find(text, []string{"c", "a", "b"}, nil)
	second := m.Find(text, []string{"b", "c", "a"}, nil)

	assert.Equal(t, first, second)
	var order []string
	for _, s := range first.Spans {
		order = append(order, s.Token)
	}
	assert.Equal(t, []string{"b", "a", "c", "a"}, order)
}

func TestFind_NonASCII(t *testing.T) {
	m := newMatcher(t)
	text := []rune("Réf. «<étude_numéro>» ")

	res := m.Find(text, []string{"étude_numéro"}, nil)

	require.Len(t, res.Spans, 1)
	s := res.Spans[0]
	assert.Equal(t, "<étude_numéro>", string(text[s.Start:s.End]))
}

func TestUnknown(t *testing.T) {
	m := newMatcher(t)
	known := func(name string) bool { return name == "nom" }
	text := []rune("<nom> <prenom> < espace> <ville.code> <>")

	got := m.Unknown(text, known)

	require.Len(t, got, 2)
	assert.Equal(t, "prenom", got[0].Token)
	assert.Equal(t, "ville.code", got[1].Token)
}

func TestCheckName(t *testing.T) {
	m := newMatcher(t)
	assert.NoError(t, m.CheckName("etude_numero"))
	assert.Error(t, m.CheckName(""))
	assert.Error(t, m.CheckName("etude numero"))
	assert.Error(t, m.CheckName("a<b"))
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(WithDelimiters("", ">"))
	assert.Error(t, err)
	_, err = New(WithWindow(-1))
	assert.Error(t, err)
}

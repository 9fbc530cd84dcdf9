package docfill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/go-docfill/pkg/docfill/internal/docxtest"
	"github.com/benjaminschreck/go-docfill/pkg/docfill/parts"
)

func TestScan(t *testing.T) {
	engine := newTestEngine(t, nil)
	input := docxtest.Docx(t,
		docxtest.Paragraph("&lt;etude_", "numero&gt; &lt;inconnu&gt; &lt; etude_lieu&gt;")+
			docxtest.Paragraph("&lt;etude_numero&gt; &lt;autre.champ&gt; &lt;inconnu&gt;"),
		docxtest.File{Name: "word/header1.xml", Content: docxtest.WordHeader(docxtest.Paragraph("&lt;client_nom&gt;"))},
	)

	report, err := engine.Scan(input, WordProcessor)
	require.NoError(t, err)

	assert.Equal(t, WordProcessor, report.Kind)
	require.Len(t, report.Parts, 2)

	body := report.Parts[0]
	assert.Equal(t, "word/document.xml", body.Path)
	assert.Equal(t, parts.RoleBody, body.Role)
	assert.Equal(t, []TokenOccurrence{
		{Token: "etude_numero", Text: "<etude_numero>", Exact: true},
		{Token: "etude_lieu", Text: "< etude_lieu>", Exact: false},
		{Token: "etude_numero", Text: "<etude_numero>", Exact: true},
	}, body.Tokens)
	assert.Equal(t, []string{"inconnu", "autre.champ", "inconnu"}, body.Unknown)

	header := report.Parts[1]
	assert.Equal(t, parts.RoleHeader, header.Role)
	assert.Empty(t, header.Unknown)

	assert.Equal(t, map[string]int{"etude_numero": 2, "etude_lieu": 1, "client_nom": 1}, report.Counts)
	assert.Equal(t, []string{"inconnu", "autre.champ"}, report.Unknown)
	assert.Equal(t, []string{"client_adresse", "client_ville", "etude", "etude_date"}, report.Unused)
}

func TestScan_SameFatalConditionsAsGenerate(t *testing.T) {
	engine := newTestEngine(t, nil)

	_, err := engine.Scan([]byte("garbage"), WordProcessor)
	assert.True(t, IsArchiveReadError(err))

	_, err = engine.Scan(docxtest.Docx(t, "<w:p>"), WordProcessor)
	assert.True(t, IsPartParseError(err))

	_, err = engine.Scan(docxtest.Docx(t, ""), DocumentKind("odt"))
	assert.True(t, IsDocumentKindError(err))
}

func TestScan_SlideDeck(t *testing.T) {
	engine := newTestEngine(t, nil)
	input := docxtest.Pptx(t, []string{docxtest.Shape("&lt;etude_lieu&gt;")},
		docxtest.File{Name: "ppt/notesSlides/notesSlide1.xml", Content: docxtest.Slide(docxtest.Shape("&lt;etude&gt;"))})

	report, err := engine.Scan(input, SlideDeck)
	require.NoError(t, err)

	require.Len(t, report.Parts, 1)
	assert.Equal(t, "ppt/slides/slide1.xml", report.Parts[0].Path)
	assert.Equal(t, 1, report.Counts["etude_lieu"])
	assert.Zero(t, report.Counts["etude"])
}

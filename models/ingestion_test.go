package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractedUnit_Heading(t *testing.T) {
	assert.Equal(t, "foto.png", ExtractedUnit{SourceName: "foto.png"}.Heading())
	assert.Equal(t, "contract.pdf (pagina 3)", ExtractedUnit{SourceName: "contract.pdf", PageNumber: 3}.Heading())
}

func TestExtractedUnit_Content(t *testing.T) {
	tests := []struct {
		name string
		unit ExtractedUnit
		want string
	}{
		{
			name: "text only",
			unit: ExtractedUnit{RawText: "Artikel 1. Partijen komen overeen."},
			want: "Artikel 1. Partijen komen overeen.",
		},
		{
			name: "text with visual description",
			unit: ExtractedUnit{RawText: "Kenteken 1-ABC-123", VisualDescription: "Foto van een beschadigde auto."},
			want: "Kenteken 1-ABC-123\n\n" + VisualSectionLabel + "\nFoto van een beschadigde auto.",
		},
		{
			name: "visual description without text",
			unit: ExtractedUnit{VisualDescription: "Foto van waterschade aan een plafond."},
			want: VisualSectionLabel + "\nFoto van waterschade aan een plafond.",
		},
		{
			name: "failed unit renders an error marker",
			unit: ExtractedUnit{RawText: "wordt genegeerd", Failed: true, FailureReason: "Geen response ontvangen"},
			want: "ERROR: Geen response ontvangen",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.unit.Content())
		})
	}
}

func TestIngestionBlob_Text(t *testing.T) {
	blob := IngestionBlob{Units: []ExtractedUnit{
		{SourceName: "contract.pdf", PageNumber: 1, RawText: "Pagina een."},
		{SourceName: "contract.pdf", PageNumber: 2, Failed: true, FailureReason: "pagina onleesbaar"},
		{SourceName: "foto.png", RawText: "Opschrift op de gevel."},
	}}

	text := blob.Text()

	// Every unit sits between its own delimiters, failures included
	assert.Contains(t, text, "=== DOCUMENT: contract.pdf (pagina 1) ===\nPagina een.\n=== EINDE DOCUMENT ===")
	assert.Contains(t, text, "=== DOCUMENT: contract.pdf (pagina 2) ===\nERROR: pagina onleesbaar\n=== EINDE DOCUMENT ===")
	assert.Contains(t, text, "=== DOCUMENT: foto.png ===\nOpschrift op de gevel.\n=== EINDE DOCUMENT ===")

	// Units keep their order
	assert.Less(t, strings.Index(text, "pagina 1"), strings.Index(text, "pagina 2"))
	assert.Less(t, strings.Index(text, "pagina 2"), strings.Index(text, "foto.png"))
}

func TestParseSegments_RoundTrip(t *testing.T) {
	blob := IngestionBlob{Units: []ExtractedUnit{
		{SourceName: "contract.pdf", PageNumber: 1, RawText: "Eerste pagina.\nMet twee regels."},
		{SourceName: "contract.pdf", PageNumber: 2, Failed: true, FailureReason: "pagina onleesbaar"},
		{SourceName: "foto.png", RawText: "Tekst op de foto.", VisualDescription: "Beschadigde laptop op een bureau."},
	}}

	segments := ParseSegments(blob.Text())
	require.Len(t, segments, len(blob.Units))

	for i, unit := range blob.Units {
		assert.Equal(t, unit.SourceName, segments[i].SourceName)
		assert.Equal(t, unit.PageNumber, segments[i].PageNumber)
		assert.Equal(t, unit.Content(), segments[i].Content)
	}
}

func TestParseSegments_IgnoresTextOutsideDelimiters(t *testing.T) {
	text := "ruis vooraf\n" +
		"=== DOCUMENT: nota.pdf ===\ninhoud\n=== EINDE DOCUMENT ===\n" +
		"ruis achteraf"

	segments := ParseSegments(text)
	require.Len(t, segments, 1)
	assert.Equal(t, "nota.pdf", segments[0].SourceName)
	assert.Equal(t, 0, segments[0].PageNumber)
	assert.Equal(t, "inhoud", segments[0].Content)
}

func TestParseSegments_HeadingWithoutValidPageNumber(t *testing.T) {
	text := "=== DOCUMENT: raar (pagina x) ===\ninhoud\n=== EINDE DOCUMENT ==="

	segments := ParseSegments(text)
	require.Len(t, segments, 1)
	assert.Equal(t, "raar (pagina x)", segments[0].SourceName)
	assert.Equal(t, 0, segments[0].PageNumber)
}

func TestIngestionBlob_Summary(t *testing.T) {
	blob := IngestionBlob{Units: []ExtractedUnit{
		{SourceName: "a.pdf", PageNumber: 1},
		{SourceName: "a.pdf", PageNumber: 2, Failed: true, FailureReason: "render mislukt"},
		{SourceName: "b.png"},
	}}

	sum := blob.Summary()
	assert.Equal(t, 3, sum.TotalUnits)
	assert.Equal(t, 1, sum.FailedUnits)
	require.Len(t, sum.Units, 3)
	assert.Equal(t, "ok", sum.Units[0].Status)
	assert.Equal(t, "failed", sum.Units[1].Status)
	assert.Equal(t, "render mislukt", sum.Units[1].Reason)
	assert.Equal(t, "ok", sum.Units[2].Status)
}

func TestIngestionBlob_Empty(t *testing.T) {
	assert.True(t, IngestionBlob{}.Empty())
	assert.False(t, IngestionBlob{Units: []ExtractedUnit{{SourceName: "x"}}}.Empty())
}

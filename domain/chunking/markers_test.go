package chunking

import (
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestClassifyMarker(t *testing.T) {
	tests := []struct {
		marker string
		want   MarkerType
	}{
		{"(1)", MarkerSubsection},
		{"(12)", MarkerSubsection},
		{"(1.1)", MarkerSubsection},
		{"(a)", MarkerParagraph},
		{"(b)", MarkerParagraph},
		{"(c)", MarkerParagraph},
		{"(d)", MarkerParagraph},
		{"(l)", MarkerParagraph},
		{"(m)", MarkerParagraph},
		{"(z)", MarkerParagraph},
		{"(i)", MarkerSubparagraph},
		{"(ii)", MarkerSubparagraph},
		{"(iv)", MarkerSubparagraph},
		{"(v)", MarkerSubparagraph},
		{"(xv)", MarkerSubparagraph},
		{"(A)", MarkerClause},
		{"(B)", MarkerClause},
		{"(ab)", MarkerNone},
		{"(xvi)", MarkerNone},
		{"()", MarkerNone},
	}

	for _, tt := range tests {
		t.Run(tt.marker, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyMarker(tt.marker))
		})
	}
}

func TestClassify_RomanLettersAfterPredecessor(t *testing.T) {
	assert.Equal(t, MarkerParagraph, classify("i", "h"))
	assert.Equal(t, MarkerParagraph, classify("v", "u"))
	assert.Equal(t, MarkerParagraph, classify("x", "w"))
	assert.Equal(t, MarkerSubparagraph, classify("i", "b"))
	assert.Equal(t, MarkerSubparagraph, classify("ii", "h"))
}

func unitTexts(units []LegalUnit) []string {
	return lo.Map(units, func(u LegalUnit, _ int) string { return u.Text })
}

func TestSplitLegalUnits(t *testing.T) {
	text := "1 The Minister may\n" +
		"(a) issue permits; and\n" +
		"(b) revoke a permit issued under paragraph (a), if\n" +
		"(i) the holder consents, or\n" +
		"(ii) a court orders it."

	units := SplitLegalUnits(text)

	assert.Equal(t, []string{
		"1 The Minister may\n",
		"(a) issue permits; and\n",
		"(b) revoke a permit issued under paragraph (a), if\n",
		"(i) the holder consents, or\n",
		"(ii) a court orders it.",
	}, unitTexts(units))
	assert.Equal(t, []MarkerType{MarkerNone, MarkerParagraph, MarkerParagraph, MarkerSubparagraph, MarkerSubparagraph},
		lo.Map(units, func(u LegalUnit, _ int) MarkerType { return u.Type }))
	assert.Equal(t, "(ii)", units[4].Marker)
	assert.Equal(t, text, strings.Join(unitTexts(units), ""))
	for _, u := range units {
		assert.Equal(t, u.Text, text[u.Start:u.Start+len(u.Text)])
	}
}

func TestSplitLegalUnits_References(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"reference words", "as described in paragraphs (a) and (b) of subsection (2)", 1},
		{"french reference", "visé à l'alinéa (a) ou (b)", 1},
		{"marker glued to text", "(a)b is not a marker", 1},
		{"inline enumeration", "the following: (a) one; (b) two", 3},
		{"line-start after or", "first; or\n(b) second", 2},
		{"paragraph h then i", "(h) eighth;\n(i) ninth;\n(j) tenth", 3},
		{"unknown marker", "(ab) is not a marker", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			units := SplitLegalUnits(tt.text)
			assert.Len(t, units, tt.want)
			assert.Equal(t, tt.text, strings.Join(unitTexts(units), ""))
		})
	}

	units := SplitLegalUnits("(h) eighth;\n(i) ninth;\n(j) tenth")
	assert.Equal(t, []MarkerType{MarkerParagraph, MarkerSubparagraph, MarkerParagraph},
		[]MarkerType{units[0].Type, units[1].Type, units[2].Type},
		"a single i reads as a subparagraph whatever precedes it")
	assert.Nil(t, SplitLegalUnits(""))
}

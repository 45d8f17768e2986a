package legislation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDefinedTerms(t *testing.T) {
	doc := loadDocument(t, "act_en.xml")

	require.Len(t, doc.DefinedTerms, 3)

	barrier := doc.DefinedTerms[0]
	assert.Equal(t, "barrier", barrier.Term)
	assert.Equal(t, "barrier", barrier.NormalizedKey)
	assert.Equal(t, "barrière", barrier.PairedTerm)
	assert.Equal(t, "A-99/2/barrier", barrier.NaturalID)
	assert.Equal(t, "A-99/2/barrier/en", barrier.ID)
	assert.Equal(t, "A-99/2/barrier/fr", barrier.PairedTermID)
	assert.Equal(t, "2", barrier.SectionLabel)
	assert.Contains(t, barrier.Definition, "anything that hinders participation")
	assert.Equal(t, Scope{Type: ScopePart, Raw: "The following definitions apply in this Part."}, barrier.Scope)

	minister := doc.DefinedTerms[1]
	assert.Equal(t, "Minister", minister.Term)
	assert.Equal(t, "minister", minister.NormalizedKey)
	assert.Equal(t, "ministre", minister.PairedTerm)

	employer := doc.DefinedTerms[2]
	assert.Equal(t, "3", employer.SectionLabel)
	assert.Equal(t, ScopeSection, employer.Scope.Type)
	assert.Equal(t, []string{"3", "5", "6", "7"}, employer.Scope.Sections)
}

func TestExtractDefinedTerms_FrenchSharesNaturalID(t *testing.T) {
	en := loadDocument(t, "act_en.xml")
	fr := loadDocument(t, "act_fr.xml")

	require.Len(t, fr.DefinedTerms, 1)
	barriere := fr.DefinedTerms[0]
	assert.Equal(t, "barrière", barriere.Term)
	assert.Equal(t, "barriere", barriere.NormalizedKey)
	assert.Equal(t, "barrier", barriere.PairedTerm)
	assert.Equal(t, en.DefinedTerms[0].NaturalID, barriere.NaturalID)
	assert.Equal(t, en.DefinedTerms[0].PairedTermID, barriere.ID)
	assert.Equal(t, ScopeAct, barriere.Scope.Type)
}

func TestPairIndex(t *testing.T) {
	en := loadDocument(t, "act_en.xml")
	fr := loadDocument(t, "act_fr.xml")

	idx := NewPairIndex()
	idx.Add(fr.DefinedTerms...)
	assert.Equal(t, 1, idx.Len())

	terms := append([]DefinedTerm(nil), en.DefinedTerms...)
	for i := range terms {
		terms[i].PairedTermID = ""
	}

	assert.Equal(t, 1, idx.Link(terms))
	assert.Equal(t, fr.DefinedTerms[0].ID, terms[0].PairedTermID)
	assert.Empty(t, terms[1].PairedTermID)

	_, ok := idx.Pair(DefinedTerm{DocumentID: "A-99", Language: "en"})
	assert.False(t, ok)
}

func parseString(t *testing.T, xml string) *Document {
	t.Helper()
	doc, err := ParseDocument("inline.xml", strings.NewReader(xml))
	require.NoError(t, err)
	return doc
}

const peaceOfficerFr = `<Statute xmlns:lims="http://justice.gc.ca/lims" xml:lang="fr">
  <Identification>
    <ShortTitle>Loi sur la paix</ShortTitle>
    <Chapter><ConsolidatedNumber>A-99</ConsolidatedNumber></Chapter>
  </Identification>
  <Body>
    <Section>
      <Label>2</Label>
      <Text>Les définitions qui suivent s’appliquent à la présente loi.</Text>
      <Definition><Text><DefinedTermFr>agent de la paix</DefinedTermFr> ou <DefinedTermFr>agente de la paix</DefinedTermFr> Personne désignée. (<DefinedTermEn>peace officer</DefinedTermEn>)</Text></Definition>
    </Section>
  </Body>
</Statute>`

const peaceOfficerEn = `<Statute xmlns:lims="http://justice.gc.ca/lims" xml:lang="en">
  <Identification>
    <ShortTitle>Peace Act</ShortTitle>
    <Chapter><ConsolidatedNumber>A-99</ConsolidatedNumber></Chapter>
  </Identification>
  <Body>
    <Section>
      <Label>2</Label>
      <Text>The following definitions apply in this Act.</Text>
      <Definition><Text><DefinedTermEn>peace officer</DefinedTermEn> means a designated person. (<DefinedTermFr>agent de la paix</DefinedTermFr> ou <DefinedTermFr>agente de la paix</DefinedTermFr>)</Text></Definition>
    </Section>
  </Body>
</Statute>`

func TestExtractDefinedTerms_UnevenTermLists(t *testing.T) {
	fr := parseString(t, peaceOfficerFr)
	en := parseString(t, peaceOfficerEn)

	require.Len(t, fr.DefinedTerms, 2)
	agent, agente := fr.DefinedTerms[0], fr.DefinedTerms[1]
	assert.Equal(t, "A-99/2/agent de la paix", agent.NaturalID)
	assert.Equal(t, "A-99/2/agente de la paix", agente.NaturalID)
	assert.NotEqual(t, agent.ID, agente.ID)

	require.Len(t, en.DefinedTerms, 1)
	officer := en.DefinedTerms[0]
	assert.Equal(t, "A-99/2/peace officer", officer.NaturalID)
	assert.Equal(t, officer.ID, agent.PairedTermID)
	assert.Equal(t, officer.ID, agente.PairedTermID)
	assert.Equal(t, agent.ID, officer.PairedTermID)
}

func TestExtractDefinedTerms_RepeatedTermIsNumbered(t *testing.T) {
	doc := parseString(t, `<Statute xmlns:lims="http://justice.gc.ca/lims" xml:lang="en">
  <Identification><ShortTitle>Act</ShortTitle><Chapter><ConsolidatedNumber>A-99</ConsolidatedNumber></Chapter></Identification>
  <Body>
    <Section>
      <Label>2</Label>
      <Definition><Text><DefinedTermEn>vessel</DefinedTermEn> means a ship. (<DefinedTermFr>bâtiment</DefinedTermFr>)</Text></Definition>
      <Definition><Text><DefinedTermEn>vessel</DefinedTermEn> includes a barge. (<DefinedTermFr>bâtiment</DefinedTermFr>)</Text></Definition>
    </Section>
  </Body>
</Statute>`)

	require.Len(t, doc.DefinedTerms, 2)
	assert.Equal(t, "A-99/2/vessel", doc.DefinedTerms[0].NaturalID)
	assert.Equal(t, "A-99/2/vessel#2", doc.DefinedTerms[1].NaturalID)
}

func TestExtractDefinedTerms_RegulationPairAcrossInstrumentNumbers(t *testing.T) {
	regulation := func(lang, number, def string) string {
		return `<Regulation xmlns:lims="http://justice.gc.ca/lims" xml:lang="` + lang + `">
  <Identification><InstrumentNumber>` + number + `</InstrumentNumber><LongTitle>Fees</LongTitle></Identification>
  <Body><Section><Label>1</Label><Definition><Text>` + def + `</Text></Definition></Section></Body>
</Regulation>`
	}
	en := parseString(t, regulation("en", "SOR/2007-151",
		`<DefinedTermEn>fee</DefinedTermEn> means the charge. (<DefinedTermFr>droit</DefinedTermFr>)`))
	fr := parseString(t, regulation("fr", "DORS/2007-151",
		`<DefinedTermFr>droit</DefinedTermFr> Le prix exigé. (<DefinedTermEn>fee</DefinedTermEn>)`))

	assert.Equal(t, "DORS/2007-151", fr.ID, "the printed number is kept")
	assert.Equal(t, en.NaturalID(), fr.NaturalID())
	assert.Equal(t, "SOR/2007-151/1/fee", fr.DefinedTerms[0].NaturalID)
	assert.Equal(t, en.DefinedTerms[0].PairedTermID, fr.DefinedTerms[0].ID)

	idx := NewPairIndex()
	idx.Add(fr.DefinedTerms...)
	id, ok := idx.Pair(en.DefinedTerms[0])
	require.True(t, ok)
	assert.Equal(t, fr.DefinedTerms[0].ID, id)
}

func TestParseScope(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		label string
		want  Scope
		ok    bool
	}{
		{
			name: "act",
			text: "The following definitions apply in this Act.",
			want: Scope{Type: ScopeAct, Raw: "The following definitions apply in this Act."},
			ok:   true,
		},
		{
			name: "in this act",
			text: "In this Act,",
			want: Scope{Type: ScopeAct, Raw: "In this Act,"},
			ok:   true,
		},
		{
			name: "regulations",
			text: "The following definitions apply in these Regulations.",
			want: Scope{Type: ScopeRegulation, Raw: "The following definitions apply in these Regulations."},
			ok:   true,
		},
		{
			name: "part",
			text: "The following definitions apply in this Part.",
			want: Scope{Type: ScopePart, Raw: "The following definitions apply in this Part."},
			ok:   true,
		},
		{
			name:  "this section",
			text:  "The definitions in this subsection apply in this section.",
			label: "8",
			want:  Scope{Type: ScopeSection, Sections: []string{"8"}, Raw: "The definitions in this subsection apply in this section."},
			ok:    true,
		},
		{
			name:  "section list",
			text:  "The following definitions apply in sections 5 to 7, 9 and 12.1.",
			label: "4",
			want:  Scope{Type: ScopeSection, Sections: []string{"5", "6", "7", "9", "12.1"}, Raw: "The following definitions apply in sections 5 to 7, 9 and 12.1."},
			ok:    true,
		},
		{
			name: "french act",
			text: "Les définitions qui suivent s’appliquent à la présente loi.",
			want: Scope{Type: ScopeAct, Raw: "Les définitions qui suivent s’appliquent à la présente loi."},
			ok:   true,
		},
		{
			name:  "french articles",
			text:  "Les définitions qui suivent s’appliquent au présent article et aux articles 10 à 12.",
			label: "9",
			want:  Scope{Type: ScopeSection, Sections: []string{"9", "10", "11", "12"}, Raw: "Les définitions qui suivent s’appliquent au présent article et aux articles 10 à 12."},
			ok:    true,
		},
		{
			name: "french regulation",
			text: "Les définitions qui suivent s’appliquent au présent règlement.",
			want: Scope{Type: ScopeRegulation, Raw: "Les définitions qui suivent s’appliquent au présent règlement."},
			ok:   true,
		},
		{name: "ordinary sentence", text: "Every employer must comply."},
		{name: "definitions without extent", text: "Definitions follow."},
		{name: "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseScope(tt.text, tt.label)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

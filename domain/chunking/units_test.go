package chunking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-company/lims-pipeline/domain/legislation"
	"github.com/emergent-company/lims-pipeline/pkg/reskey"
)

const scheduleRegulation = `<?xml version="1.0" encoding="UTF-8"?>
<Regulation xmlns:lims="http://justice.gc.ca/lims" xml:lang="en">
  <Identification>
    <InstrumentNumber>SOR/2020-15</InstrumentNumber>
    <LongTitle>Barrier Fee Regulations</LongTitle>
  </Identification>
  <Body>
    <Section><Label>1</Label><Text>The fees are set out in the schedule.</Text></Section>
  </Body>
  <Schedule>
    <ScheduleFormHeading><Label>SCHEDULE</Label></ScheduleFormHeading>
    <TableGroup>
      <table>
        <tgroup cols="2">
          <tbody>
            <row><entry>Ramp inspection</entry><entry>$100</entry></row>
            <row><entry>Elevator inspection</entry><entry>$250</entry></row>
          </tbody>
        </tgroup>
      </table>
    </TableGroup>
  </Schedule>
</Regulation>`

const enactingAct = `<?xml version="1.0" encoding="UTF-8"?>
<Statute xmlns:lims="http://justice.gc.ca/lims" xml:lang="fr">
  <Identification>
    <ShortTitle>Loi sur les barrières</ShortTitle>
    <Chapter><ConsolidatedNumber>A-99</ConsolidatedNumber></Chapter>
  </Identification>
  <Introduction>
    <Enacts><Provision><Text>Sa Majesté, sur l’avis et avec le consentement du Sénat et de la Chambre des communes du Canada, édicte :</Text></Provision></Enacts>
  </Introduction>
  <Body>
    <Section>
      <MarginalNote>Définitions</MarginalNote>
      <Label>2</Label>
      <Text>Les définitions qui suivent s’appliquent à la présente loi.</Text>
      <Definition><Text><DefinedTermFr>barrière</DefinedTermFr> Tout obstacle. (<DefinedTermEn>barrier</DefinedTermEn>)</Text></Definition>
    </Section>
    <Section>
      <Label>3</Label>
      <Text>Voir l’article <XRefInternal>2</XRefInternal> et le <XRefExternal reference-type="act" link="C-46">Code criminel</XRefExternal>.<FootnoteRef idref="n1">*</FootnoteRef></Text>
      <Footnote id="n1"><Label>*</Label><Text>L.C. 2004, ch. 9</Text></Footnote>
      <HistoricalNote><HistoricalNoteSubItem>2019, ch. 10, art. 1</HistoricalNoteSubItem></HistoricalNote>
    </Section>
  </Body>
</Statute>`

type staticTitles map[string]string

func (s staticTitles) Title(id, lang string) (string, bool) {
	title, ok := s[id+"|"+lang]
	return title, ok
}

func parseDoc(t *testing.T, xml string) *legislation.Document {
	t.Helper()
	doc, err := legislation.ParseDocument("test.xml", strings.NewReader(xml))
	require.NoError(t, err)
	return doc
}

func chunksBySource(chunks []Chunk, source reskey.SourceType) []Chunk {
	var out []Chunk
	for _, c := range chunks {
		if c.Metadata["source_type"] == string(source) {
			out = append(out, c)
		}
	}
	return out
}

func TestChunkDocument_ScheduleTableSingleChunk(t *testing.T) {
	doc := parseDoc(t, scheduleRegulation)
	c := New(Options{MaxTokens: 512, OverlapTokens: 64}, nil)

	schedules := chunksBySource(c.ChunkDocument(doc), reskey.Schedule)

	require.Len(t, schedules, 1)
	chunk := schedules[0]
	assert.Equal(t, 0, chunk.ChunkIndex)
	assert.Equal(t, 1, chunk.TotalChunks)
	assert.Equal(t, "schedule:SOR/2020-15/1:en:0", chunk.ResourceKey)
	assert.Equal(t, "schedule:SOR/2020-15/1:fr:0", chunk.PairedResourceKey)
	assert.Contains(t, chunk.Content, "Barrier Fee Regulations")
	assert.Contains(t, chunk.Content, "SCHEDULE")
	assert.Contains(t, chunk.Content, "Ramp inspection | $100")
	assert.Contains(t, chunk.Content, "Elevator inspection | $250")
	assert.LessOrEqual(t, chunk.TokenCount, 512)
	assert.Equal(t, "schedule", chunk.Metadata["section_type"])
	assert.Equal(t, "regulation", chunk.Metadata["document_kind"])

	sections := chunksBySource(c.ChunkDocument(doc), reskey.RegulationSection)
	require.Len(t, sections, 1)
	assert.Equal(t, "regulation_section:SOR/2020-15/section-1:en:0", sections[0].ResourceKey)
}

func TestUnits_FrenchAct(t *testing.T) {
	doc := parseDoc(t, enactingAct)
	c := New(Options{}, nil)

	units := c.Units(doc)

	sources := make(map[reskey.SourceType]int)
	for _, u := range units {
		sources[u.Source]++
		assert.Equal(t, "fr", u.Language)
	}
	assert.Equal(t, map[reskey.SourceType]int{
		reskey.ActSection:     3,
		reskey.DefinedTerm:    1,
		reskey.CrossReference: 1,
		reskey.Footnote:       1,
	}, sources)

	enacts := units[0]
	assert.Equal(t, "A-99/0", enacts.NaturalID)
	assert.Equal(t, "Loi sur les barrières\nEnacting Clause", enacts.Header)
	assert.Equal(t, "enacts", enacts.Metadata["section_type"])

	section3 := units[2]
	assert.Equal(t, "Loi sur les barrières\nArticle 3\n2019, ch. 10, art. 1", section3.Header)
	assert.NotContains(t, section3.Text, "L.C. 2004")

	term := units[3]
	assert.Equal(t, reskey.DefinedTerm, term.Source)
	assert.Equal(t, "A-99/2/barrier", term.NaturalID)
	assert.Equal(t, "barrière", term.Metadata["term"])
	assert.Equal(t, "barrier", term.Metadata["paired_term"])
	assert.Equal(t, "act", term.Metadata["scope_type"])

	refs := units[4]
	assert.Equal(t, reskey.CrossReference, refs.Source)
	assert.Equal(t, "A-99/section-3", refs.NaturalID)
	assert.Equal(t, "section 2\nCode criminel (C-46)", refs.Text)
	assert.Equal(t, []string{"2", "C-46"}, refs.Metadata["targets"])
	assert.Equal(t, []string{"internal", "act"}, refs.Metadata["target_types"])

	footnote := units[5]
	assert.Equal(t, "A-99/section-3/n1", footnote.NaturalID)
	assert.Equal(t, "Loi sur les barrières\nNote *", footnote.Header)
	assert.Equal(t, "L.C. 2004, ch. 9", footnote.Text)
}

// bilingualRegulation renders the same regulation in either language. The
// French version carries an extra heading, which must not shift the keys
// of the sections after it.
func bilingualRegulation(lang string) string {
	number, title, heading, text := "SOR/2007-151", "Fee Regulations", "", "The fee is payable."
	defs := `<DefinedTermEn>fee</DefinedTermEn> means the charge. (<DefinedTermFr>droit</DefinedTermFr>)`
	if lang == "fr" {
		number, title, text = "DORS/2007-151", "Règlement sur les droits", "Le droit est exigible."
		heading = `<Heading level="1"><TitleText>Dispositions générales</TitleText></Heading>`
		defs = `<DefinedTermFr>droit</DefinedTermFr> Le prix exigé. (<DefinedTermEn>fee</DefinedTermEn>)`
	}
	return `<Regulation xmlns:lims="http://justice.gc.ca/lims" xml:lang="` + lang + `">
  <Identification><InstrumentNumber>` + number + `</InstrumentNumber><LongTitle>` + title + `</LongTitle></Identification>
  <Body>` + heading + `
    <Section><Label>1</Label><Definition><Text>` + defs + `</Text></Definition></Section>
    <Section><Label>2</Label><Text>` + text + `</Text></Section>
  </Body>
</Regulation>`
}

func TestChunkDocument_RegulationPairsAcrossLanguages(t *testing.T) {
	c := New(Options{}, nil)
	en := c.ChunkDocument(parseDoc(t, bilingualRegulation("en")))
	fr := c.ChunkDocument(parseDoc(t, bilingualRegulation("fr")))

	frKeys := make(map[string]bool, len(fr))
	for _, ch := range fr {
		frKeys[ch.ResourceKey] = true
		assert.Equal(t, "DORS/2007-151", ch.Metadata["document_id"])
		assert.Equal(t, "SOR/2007-151", ch.Metadata["natural_id"])
	}

	for _, source := range []reskey.SourceType{reskey.RegulationSection, reskey.DefinedTerm} {
		enChunks := chunksBySource(en, source)
		require.NotEmpty(t, enChunks, source)
		for _, ch := range enChunks {
			assert.True(t, frKeys[ch.PairedResourceKey], "%s has no French counterpart", ch.ResourceKey)
		}
	}

	enSection2 := chunksBySource(en, reskey.RegulationSection)[1]
	assert.Equal(t, "regulation_section:SOR/2007-151/section-2:en:0", enSection2.ResourceKey)
	assert.Contains(t, frKeys, enSection2.PairedResourceKey)
}

func TestChunkDocument_UniqueKeysForUnevenTerms(t *testing.T) {
	doc := parseDoc(t, `<Statute xmlns:lims="http://justice.gc.ca/lims" xml:lang="fr">
  <Identification><ShortTitle>Loi</ShortTitle><Chapter><ConsolidatedNumber>A-99</ConsolidatedNumber></Chapter></Identification>
  <Body>
    <Section>
      <Label>2</Label>
      <Definition><Text><DefinedTermFr>agent de la paix</DefinedTermFr> ou <DefinedTermFr>agente de la paix</DefinedTermFr> Personne désignée. (<DefinedTermEn>peace officer</DefinedTermEn>)</Text></Definition>
    </Section>
  </Body>
</Statute>`)

	chunks := New(Options{}, nil).ChunkDocument(doc)

	seen := make(map[string]int)
	for _, ch := range chunks {
		seen[ch.ResourceKey]++
	}
	for key, n := range seen {
		assert.Equal(t, 1, n, "resource key %q", key)
	}
	assert.Len(t, chunksBySource(chunks, reskey.DefinedTerm), 2)
}

func TestSectionNaturalIDs(t *testing.T) {
	doc := &legislation.Document{ID: "DORS/2020-15", Sections: []legislation.Section{
		{Order: 0, Type: legislation.TypeEnacts, Label: "Enacting Clause"},
		{Order: 1, Type: legislation.TypeHeading, Label: "PART 1"},
		{Order: 2, Type: legislation.TypeSection, Label: "1"},
		{Order: 3, Type: legislation.TypeSection, Label: "1"},
		{Order: 4, Type: legislation.TypeSection},
		{Order: 5, Type: legislation.TypeSchedule, Label: "SCHEDULE"},
	}}

	assert.Equal(t, map[int]string{
		0: "SOR/2020-15/0",
		1: "SOR/2020-15/1",
		2: "SOR/2020-15/section-1",
		3: "SOR/2020-15/3",
		4: "SOR/2020-15/4",
		5: "SOR/2020-15/5",
	}, SectionNaturalIDs(doc))
}

func TestChunker_TitleResolver(t *testing.T) {
	doc := parseDoc(t, scheduleRegulation)
	c := New(Options{}, staticTitles{"SOR/2020-15|en": "Barrier Fees"})

	assert.Equal(t, "Barrier Fees", c.Title(doc))
	for _, ch := range c.ChunkDocument(doc) {
		assert.True(t, strings.HasPrefix(ch.Content, "Barrier Fees\n"), ch.Content)
		assert.Equal(t, "Barrier Fees", ch.Metadata["document_title"])
	}

	assert.Equal(t, "Barrier Fee Regulations", New(Options{}, staticTitles{}).Title(doc))
}

func TestChunker_KeysAcrossChunks(t *testing.T) {
	c := New(Options{MaxTokens: 12, OverlapTokens: 0, Counter: words}, nil)
	u := Unit{
		Source:    reskey.ActSection,
		NaturalID: "A-1/4",
		Language:  "en",
		Header:    "Act",
		Text:      paragraphs(4),
		Metadata:  map[string]any{"section_label": "4"},
	}

	chunks := c.Chunk(u)

	require.Greater(t, len(chunks), 1)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.ChunkIndex)
		assert.Equal(t, len(chunks), ch.TotalChunks)
		assert.Equal(t, reskey.Build(reskey.ActSection, "A-1/4", "en", i), ch.ResourceKey)
		assert.Equal(t, reskey.Build(reskey.ActSection, "A-1/4", "fr", i), ch.PairedResourceKey)
		assert.NotEqual(t, ch.ResourceKey, ch.PairedResourceKey)
	}
}

func TestHeader(t *testing.T) {
	tests := []struct {
		name, title, label, marginal, hist, want string
	}{
		{"all parts", "Act", "Section 2", "Definitions", "2019, c. 1", "Act\nSection 2 (Definitions)\n2019, c. 1"},
		{"title and label", "Act", "Section 2", "", "", "Act\nSection 2"},
		{"marginal only", "Act", "", "Definitions", "", "Act\nDefinitions"},
		{"nothing", "", "", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Header(tt.title, tt.label, tt.marginal, tt.hist))
		})
	}
}

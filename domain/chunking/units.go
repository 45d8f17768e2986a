package chunking

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/emergent-company/lims-pipeline/domain/legislation"
	"github.com/emergent-company/lims-pipeline/pkg/reskey"
)

// Unit is one chunkable record: a section, a defined term, the
// cross-references of one section, a footnote, a treaty or a
// publication item.
type Unit struct {
	Source    reskey.SourceType
	NaturalID string
	Language  string
	Header    string
	Text      string
	Metadata  map[string]any
}

// Chunk is one piece of a Unit, keyed for dedup and bilingual pairing.
type Chunk struct {
	Content           string
	ChunkIndex        int
	TotalChunks       int
	ResourceKey       string
	PairedResourceKey string
	TokenCount        int
	OverBudget        bool
	// Text and Overlap locate the chunk in the unit text; see Piece.
	Text     string
	Overlap  int
	Metadata map[string]any
}

// Chunker turns documents into chunks. It holds no per-document state and
// is safe for concurrent use when its TitleResolver is.
type Chunker struct {
	opts   Options
	titles legislation.TitleResolver
}

// New returns a Chunker. titles may be nil, in which case document titles
// come from the documents themselves.
func New(opts Options, titles legislation.TitleResolver) *Chunker {
	return &Chunker{opts: opts.withDefaults(), titles: titles}
}

// Options returns the effective options.
func (c *Chunker) Options() Options {
	return c.opts
}

// Chunk splits one unit.
func (c *Chunker) Chunk(u Unit) []Chunk {
	pieces := Split(u.Header, u.Text, c.opts)
	chunks := make([]Chunk, len(pieces))
	for i, p := range pieces {
		key := reskey.Build(u.Source, u.NaturalID, u.Language, i)
		chunks[i] = Chunk{
			Content:           p.Content,
			ChunkIndex:        i,
			TotalChunks:       len(pieces),
			ResourceKey:       key,
			PairedResourceKey: reskey.Paired(key),
			TokenCount:        p.TokenCount,
			OverBudget:        p.OverBudget,
			Text:              p.Text,
			Overlap:           p.Overlap,
			Metadata:          u.Metadata,
		}
	}
	return chunks
}

// ChunkDocument builds and splits every unit of doc, in document order.
func (c *Chunker) ChunkDocument(doc *legislation.Document) []Chunk {
	var out []Chunk
	for _, u := range c.Units(doc) {
		out = append(out, c.Chunk(u)...)
	}
	return out
}

// Title returns the display title used in chunk headers.
func (c *Chunker) Title(doc *legislation.Document) string {
	if c.titles != nil {
		if title, ok := c.titles.Title(doc.ID, doc.Language); ok {
			return title
		}
	}
	return doc.Title()
}

// Units builds every chunkable unit of doc. Sections with no content are
// skipped.
func (c *Chunker) Units(doc *legislation.Document) []Unit {
	title := c.Title(doc)
	ids := sectionIDs(SectionNaturalIDs(doc))
	var units []Unit

	for i := range doc.Sections {
		s := &doc.Sections[i]
		if !s.IsChunkable() {
			continue
		}
		units = append(units, sectionUnit(doc, s, ids.of(doc, s.Order), title))
	}
	for i := range doc.DefinedTerms {
		units = append(units, termUnit(doc, &doc.DefinedTerms[i], title))
	}
	units = append(units, crossReferenceUnits(doc, ids, title)...)
	for i := range doc.Footnotes {
		f := &doc.Footnotes[i]
		units = append(units, footnoteUnit(doc, f, ids.of(doc, f.SectionOrder), title))
	}
	for i := range doc.Treaties {
		t := &doc.Treaties[i]
		units = append(units, Unit{
			Source:    reskey.Treaty,
			NaturalID: fmt.Sprintf("%s/treaty-%d", doc.NaturalID(), t.Index),
			Language:  doc.Language,
			Header:    Header(title, orElse(t.Title, fmt.Sprintf("Treaty %d", t.Index)), "", ""),
			Text:      t.Text,
			Metadata: baseMetadata(doc, reskey.Treaty, title, map[string]any{
				"treaty_index":  t.Index,
				"treaty_title":  t.Title,
				"section_order": t.SectionOrder,
			}),
		})
	}
	for i := range doc.PublicationItems {
		p := &doc.PublicationItems[i]
		units = append(units, Unit{
			Source:    reskey.Publication,
			NaturalID: fmt.Sprintf("%s/publication-%d", doc.NaturalID(), p.Index),
			Language:  doc.Language,
			Header:    Header(title, publicationLabel(p.Kind, doc.Language), "", ""),
			Text:      p.Text,
			Metadata: baseMetadata(doc, reskey.Publication, title, map[string]any{
				"publication_kind":  p.Kind,
				"publication_index": p.Index,
			}),
		})
	}
	return units
}

// Header renders the prefix repeated at the top of every chunk: document
// title, unit label with its marginal note, and an optional history line.
func Header(title, label, marginalNote, history string) string {
	var lines []string
	if title != "" {
		lines = append(lines, title)
	}
	switch {
	case label != "" && marginalNote != "":
		lines = append(lines, label+" ("+marginalNote+")")
	case label != "":
		lines = append(lines, label)
	case marginalNote != "":
		lines = append(lines, marginalNote)
	}
	if history != "" {
		lines = append(lines, history)
	}
	return strings.Join(lines, "\n")
}

// SectionSource picks the source type of a section: schedule material is
// kept apart from body sections that may share a natural id.
func SectionSource(doc *legislation.Document, s *legislation.Section) reskey.SourceType {
	switch {
	case s.Type == legislation.TypeSchedule || s.Schedule != nil:
		return reskey.Schedule
	case doc.Kind == legislation.KindRegulation:
		return reskey.RegulationSection
	default:
		return reskey.ActSection
	}
}

// SectionNaturalIDs returns the id each section shares with its
// counterpart in the other language, by section order. Labeled body
// sections key on their label ("A-1/section-12.1") so that a heading
// present in only one version does not shift them. Other sections, and a
// label seen a second time, key on the section order ("A-1/0").
func SectionNaturalIDs(doc *legislation.Document) map[int]string {
	docID := doc.NaturalID()
	out := make(map[int]string, len(doc.Sections))
	taken := make(map[string]bool)
	for i := range doc.Sections {
		s := &doc.Sections[i]
		id := orderID(docID, s.Order)
		if s.Type == legislation.TypeSection && s.Schedule == nil && s.Label != "" {
			if byLabel := docID + "/section-" + s.Label; !taken[byLabel] {
				taken[byLabel] = true
				id = byLabel
			}
		}
		out[s.Order] = id
	}
	return out
}

func orderID(docID string, order int) string {
	return fmt.Sprintf("%s/%d", docID, order)
}

type sectionIDs map[int]string

func (ids sectionIDs) of(doc *legislation.Document, order int) string {
	if id, ok := ids[order]; ok {
		return id
	}
	return orderID(doc.NaturalID(), order)
}

func sectionUnit(doc *legislation.Document, s *legislation.Section, naturalID, title string) Unit {
	source := SectionSource(doc, s)
	history := ""
	if n := len(s.HistoricalNotes); n > 0 {
		history = s.HistoricalNotes[n-1]
	}

	extra := map[string]any{
		"section_label":        s.Label,
		"section_type":         string(s.Type),
		"section_status":       string(s.Status),
		"section_order":        s.Order,
		"canonical_section_id": s.CanonicalID,
		"hierarchy_path":       s.HierarchyPath,
	}
	if s.MarginalNote != "" {
		extra["marginal_note"] = s.MarginalNote
	}
	if s.Title != "" {
		extra["section_title"] = s.Title
	}
	if s.Flags.Any() {
		extra["content_flags"] = s.Flags
	}
	if s.Schedule != nil {
		extra["schedule_label"] = s.Schedule.Label
	}

	return Unit{
		Source:    source,
		NaturalID: naturalID,
		Language:  doc.Language,
		Header:    Header(title, sectionLabel(s, doc.Language), s.MarginalNote, history),
		Text:      s.Content,
		Metadata:  baseMetadata(doc, source, title, extra),
	}
}

// sectionLabel renders the label line for a section header.
func sectionLabel(s *legislation.Section, language string) string {
	switch s.Type {
	case legislation.TypeSection:
		if s.Label == "" {
			return ""
		}
		if language == "fr" {
			return "Article " + s.Label
		}
		return "Section " + s.Label
	case legislation.TypeHeading, legislation.TypeSchedule:
		return strings.TrimSpace(s.Label + " " + s.Title)
	default:
		return s.Label
	}
}

func termUnit(doc *legislation.Document, t *legislation.DefinedTerm, title string) Unit {
	label := fmt.Sprintf("%q", t.Term)
	if t.PairedTerm != "" {
		label = fmt.Sprintf("%q / %q", t.Term, t.PairedTerm)
	}
	extra := map[string]any{
		"term":           t.Term,
		"normalized_key": t.NormalizedKey,
		"section_label":  t.SectionLabel,
		"scope_type":     string(t.Scope.Type),
	}
	if t.PairedTerm != "" {
		extra["paired_term"] = t.PairedTerm
	}
	if len(t.Scope.Sections) > 0 {
		extra["scope_sections"] = t.Scope.Sections
	}
	if t.Scope.Raw != "" {
		extra["scope_raw"] = t.Scope.Raw
	}
	return Unit{
		Source:    reskey.DefinedTerm,
		NaturalID: t.NaturalID,
		Language:  doc.Language,
		Header:    Header(title, label, "", ""),
		Text:      t.Definition,
		Metadata:  baseMetadata(doc, reskey.DefinedTerm, title, extra),
	}
}

// crossReferenceUnits renders one unit per source section, listing each
// reference on its own line.
func crossReferenceUnits(doc *legislation.Document, ids sectionIDs, title string) []Unit {
	groups := lo.GroupBy(doc.CrossReferences, func(r legislation.CrossReference) int {
		return r.SourceSectionOrder
	})
	orders := lo.Uniq(lo.Map(doc.CrossReferences, func(r legislation.CrossReference, _ int) int {
		return r.SourceSectionOrder
	}))

	var units []Unit
	for _, order := range orders {
		refs := groups[order]
		lines := make([]string, 0, len(refs))
		for _, r := range refs {
			lines = append(lines, referenceLine(r))
		}
		targets := lo.Map(refs, func(r legislation.CrossReference, _ int) string { return r.TargetRef })
		types := lo.Uniq(lo.Map(refs, func(r legislation.CrossReference, _ int) string {
			if r.Internal {
				return "internal"
			}
			return string(r.TargetType)
		}))
		units = append(units, Unit{
			Source:    reskey.CrossReference,
			NaturalID: ids.of(doc, order),
			Language:  doc.Language,
			Header:    Header(title, referencesLabel(refs[0].SourceSectionLabel, doc.Language), "", ""),
			Text:      strings.Join(lines, "\n"),
			Metadata: baseMetadata(doc, reskey.CrossReference, title, map[string]any{
				"section_label": refs[0].SourceSectionLabel,
				"section_order": order,
				"targets":       targets,
				"target_types":  types,
			}),
		})
	}
	return units
}

func referenceLine(r legislation.CrossReference) string {
	target := r.TargetRef
	if r.Internal {
		target = "section " + target
	}
	line := target
	if r.Text != "" && r.Text != r.TargetRef {
		line = r.Text + " (" + target + ")"
	}
	if res := r.Resolved; res != nil {
		if t := orElse(res.TitleEN, res.TitleFR); t != "" && t != r.Text {
			line += ": " + t
		}
		if res.MarginalNote != "" {
			line += " [" + res.MarginalNote + "]"
		}
	}
	return line
}

func referencesLabel(label, language string) string {
	if language == "fr" {
		return "Renvois de l'article " + label
	}
	return "References in section " + label
}

func footnoteUnit(doc *legislation.Document, f *legislation.Footnote, sectionID, title string) Unit {
	label := "Footnote"
	if doc.Language == "fr" {
		label = "Note"
	}
	if f.Label != "" {
		label += " " + f.Label
	}
	return Unit{
		Source:    reskey.Footnote,
		NaturalID: sectionID + "/" + f.ID,
		Language:  doc.Language,
		Header:    Header(title, label, "", ""),
		Text:      f.Text,
		Metadata: baseMetadata(doc, reskey.Footnote, title, map[string]any{
			"footnote_id":   f.ID,
			"section_label": f.SectionLabel,
			"section_order": f.SectionOrder,
		}),
	}
}

func publicationLabel(kind, language string) string {
	switch {
	case kind == "recommendation" && language == "fr":
		return "Recommandation"
	case kind == "recommendation":
		return "Recommendation"
	case language == "fr":
		return "Avis"
	default:
		return "Notice"
	}
}

// baseMetadata merges the fields every chunk carries with unit-specific ones.
func baseMetadata(doc *legislation.Document, source reskey.SourceType, title string, extra map[string]any) map[string]any {
	md := map[string]any{
		"source_type":    string(source),
		"language":       doc.Language,
		"document_id":    doc.ID,
		"natural_id":     doc.NaturalID(),
		"document_kind":  string(doc.Kind),
		"document_title": title,
	}
	for k, v := range extra {
		md[k] = v
	}
	return md
}

func orElse(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

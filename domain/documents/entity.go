package documents

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/emergent-company/lims-pipeline/domain/contenttree"
	"github.com/emergent-company/lims-pipeline/domain/legislation"
)

// Document is one ingested document in one language, lims.documents.
type Document struct {
	bun.BaseModel `bun:"table:lims.documents,alias:d"`

	ID                uuid.UUID  `bun:"id,pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	DocumentID        string     `bun:"document_id,notnull" json:"documentId"`
	Language          string     `bun:"language,notnull" json:"language"`
	Kind              string     `bun:"kind,notnull" json:"kind"`
	ShortTitle        string     `bun:"short_title,notnull" json:"shortTitle"`
	LongTitle         string     `bun:"long_title,notnull" json:"longTitle"`
	SourcePath        string     `bun:"source_path,notnull" json:"sourcePath"`
	EnablingActs      []string   `bun:"enabling_acts,type:jsonb" json:"enablingActs,omitempty"`
	EnactedDate       *time.Time `bun:"enacted_date,type:date" json:"enactedDate,omitempty"`
	InForceStartDate  *time.Time `bun:"inforce_start_date,type:date" json:"inForceStartDate,omitempty"`
	LastAmendedDate   *time.Time `bun:"last_amended_date,type:date" json:"lastAmendedDate,omitempty"`
	RegistrationDate  *time.Time `bun:"registration_date,type:date" json:"registrationDate,omitempty"`
	ConsolidationDate *time.Time `bun:"consolidation_date,type:date" json:"consolidationDate,omitempty"`
	SectionCount      int        `bun:"section_count,notnull" json:"sectionCount"`
	IngestedAt        time.Time  `bun:"ingested_at,notnull,default:now()" json:"ingestedAt"`
}

// Section is a stored Section record, lims.sections.
type Section struct {
	bun.BaseModel `bun:"table:lims.sections,alias:s"`

	ID               uuid.UUID                 `bun:"id,pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	CanonicalID      string                    `bun:"canonical_id,notnull" json:"canonicalSectionId"`
	DocumentID       string                    `bun:"document_id,notnull" json:"documentId"`
	DocumentKind     string                    `bun:"document_kind,notnull" json:"documentKind"`
	Language         string                    `bun:"language,notnull" json:"language"`
	SectionOrder     int                       `bun:"section_order,notnull" json:"sectionOrder"`
	Label            string                    `bun:"label,notnull" json:"sectionLabel"`
	SectionType      string                    `bun:"section_type,notnull" json:"sectionType"`
	Status           string                    `bun:"status,notnull" json:"status"`
	HierarchyPath    []string                  `bun:"hierarchy_path,type:jsonb,notnull" json:"hierarchyPath"`
	Title            string                    `bun:"title,notnull" json:"title"`
	MarginalNote     string                    `bun:"marginal_note,notnull" json:"marginalNote"`
	Content          string                    `bun:"content,notnull" json:"content"`
	ContentTree      []contenttree.Node        `bun:"content_tree,type:jsonb" json:"contentTree"`
	ContentFlags     contenttree.Flags         `bun:"content_flags,type:jsonb" json:"contentFlags"`
	Footnotes        []legislation.Footnote    `bun:"footnotes,type:jsonb" json:"footnotes,omitempty"`
	HistoricalNotes  []string                  `bun:"historical_notes,type:jsonb" json:"historicalNotes,omitempty"`
	ScheduleInfo     *legislation.ScheduleInfo `bun:"schedule_info,type:jsonb" json:"schedule,omitempty"`
	EnactedDate      *time.Time                `bun:"enacted_date,type:date" json:"enactedDate,omitempty"`
	InForceStartDate *time.Time                `bun:"inforce_start_date,type:date" json:"inForceStartDate,omitempty"`
	LastAmendedDate  *time.Time                `bun:"last_amended_date,type:date" json:"lastAmendedDate,omitempty"`
	CreatedAt        time.Time                 `bun:"created_at,notnull,default:now()" json:"createdAt"`
}

// CrossReference is a stored reference, lims.cross_references.
type CrossReference struct {
	bun.BaseModel `bun:"table:lims.cross_references,alias:cr"`

	ID                 uuid.UUID                   `bun:"id,pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	DocumentID         string                      `bun:"document_id,notnull" json:"documentId"`
	Language           string                      `bun:"language,notnull" json:"language"`
	SourceSectionLabel string                      `bun:"source_section_label,notnull" json:"sourceSectionLabel"`
	SourceSectionOrder int                         `bun:"source_section_order,notnull" json:"sourceSectionOrder"`
	TargetType         string                      `bun:"target_type,notnull" json:"targetType"`
	TargetRef          string                      `bun:"target_ref,notnull" json:"targetRef"`
	ReferenceType      string                      `bun:"reference_type,notnull" json:"referenceType"`
	Internal           bool                        `bun:"internal,notnull" json:"internal"`
	Text               string                      `bun:"text,notnull" json:"text"`
	Resolved           *legislation.ResolvedTarget `bun:"resolved,type:jsonb" json:"resolved,omitempty"`
	CreatedAt          time.Time                   `bun:"created_at,notnull,default:now()" json:"createdAt"`
}

// DefinedTerm is a stored term, lims.defined_terms.
type DefinedTerm struct {
	bun.BaseModel `bun:"table:lims.defined_terms,alias:dt"`

	ID            uuid.UUID `bun:"id,pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	TermID        string    `bun:"term_id,notnull" json:"termId"`
	DocumentID    string    `bun:"document_id,notnull" json:"documentId"`
	Language      string    `bun:"language,notnull" json:"language"`
	Term          string    `bun:"term,notnull" json:"term"`
	NormalizedKey string    `bun:"normalized_key,notnull" json:"normalizedKey"`
	PairedTerm    string    `bun:"paired_term,notnull" json:"pairedTerm"`
	PairedTermID  string    `bun:"paired_term_id,notnull" json:"pairedTermId"`
	NaturalID     string    `bun:"natural_id,notnull" json:"naturalId"`
	SectionLabel  string    `bun:"section_label,notnull" json:"sectionLabel"`
	SectionOrder  int       `bun:"section_order,notnull" json:"sectionOrder"`
	Definition    string    `bun:"definition,notnull" json:"definition"`
	ScopeType     string    `bun:"scope_type,notnull" json:"scopeType"`
	ScopeSections []string  `bun:"scope_sections,type:jsonb" json:"scopeSections,omitempty"`
	ScopeRaw      string    `bun:"scope_raw,notnull" json:"scopeRaw"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:now()" json:"createdAt"`
}

// Records is everything stored for one document in one language.
type Records struct {
	Document        *Document
	Sections        []*Section
	CrossReferences []*CrossReference
	DefinedTerms    []*DefinedTerm
}

// FromDocument converts an extracted document into rows.
func FromDocument(doc *legislation.Document) *Records {
	rec := &Records{
		Document: &Document{
			DocumentID:        doc.ID,
			Language:          doc.Language,
			Kind:              string(doc.Kind),
			ShortTitle:        doc.ShortTitle,
			LongTitle:         doc.LongTitle,
			SourcePath:        doc.SourcePath,
			EnablingActs:      doc.EnablingActs,
			EnactedDate:       doc.EnactedDate,
			InForceStartDate:  doc.InForceStartDate,
			LastAmendedDate:   doc.LastAmendedDate,
			RegistrationDate:  doc.RegistrationDate,
			ConsolidationDate: doc.ConsolidationDate,
			SectionCount:      len(doc.Sections),
		},
		Sections:        make([]*Section, 0, len(doc.Sections)),
		CrossReferences: make([]*CrossReference, 0, len(doc.CrossReferences)),
		DefinedTerms:    make([]*DefinedTerm, 0, len(doc.DefinedTerms)),
	}

	for i := range doc.Sections {
		s := &doc.Sections[i]
		rec.Sections = append(rec.Sections, &Section{
			CanonicalID:      s.CanonicalID,
			DocumentID:       s.DocumentID(),
			DocumentKind:     string(doc.Kind),
			Language:         s.Language,
			SectionOrder:     s.Order,
			Label:            s.Label,
			SectionType:      string(s.Type),
			Status:           string(s.Status),
			HierarchyPath:    s.HierarchyPath,
			Title:            s.Title,
			MarginalNote:     s.MarginalNote,
			Content:          s.Content,
			ContentTree:      s.ContentTree,
			ContentFlags:     s.Flags,
			Footnotes:        s.Footnotes,
			HistoricalNotes:  s.HistoricalNotes,
			ScheduleInfo:     s.Schedule,
			EnactedDate:      s.EnactedDate,
			InForceStartDate: s.InForceStartDate,
			LastAmendedDate:  s.LastAmendedDate,
		})
	}
	for _, r := range doc.CrossReferences {
		rec.CrossReferences = append(rec.CrossReferences, &CrossReference{
			DocumentID:         r.DocumentID,
			Language:           r.Language,
			SourceSectionLabel: r.SourceSectionLabel,
			SourceSectionOrder: r.SourceSectionOrder,
			TargetType:         string(r.TargetType),
			TargetRef:          r.TargetRef,
			ReferenceType:      r.ReferenceType,
			Internal:           r.Internal,
			Text:               r.Text,
			Resolved:           r.Resolved,
		})
	}
	for _, t := range doc.DefinedTerms {
		rec.DefinedTerms = append(rec.DefinedTerms, &DefinedTerm{
			TermID:        t.ID,
			DocumentID:    t.DocumentID,
			Language:      t.Language,
			Term:          t.Term,
			NormalizedKey: t.NormalizedKey,
			PairedTerm:    t.PairedTerm,
			PairedTermID:  t.PairedTermID,
			NaturalID:     t.NaturalID,
			SectionLabel:  t.SectionLabel,
			SectionOrder:  t.SectionOrder,
			Definition:    t.Definition,
			ScopeType:     string(t.Scope.Type),
			ScopeSections: t.Scope.Sections,
			ScopeRaw:      t.Scope.Raw,
		})
	}
	return rec
}

// Package legislation extracts structural records from LIMS Statute and
// Regulation documents: the ordered Section list with its heading
// hierarchy, cross-references, defined terms, footnotes, treaties and
// publication items.
package legislation

import (
	"time"

	"github.com/emergent-company/lims-pipeline/domain/contenttree"
	"github.com/emergent-company/lims-pipeline/pkg/reskey"
)

// Kind distinguishes the two LIMS document kinds.
type Kind string

const (
	KindAct        Kind = "act"
	KindRegulation Kind = "regulation"
)

// SectionType is the structural role of a Section.
type SectionType string

const (
	TypeSection      SectionType = "section"
	TypeHeading      SectionType = "heading"
	TypeSchedule     SectionType = "schedule"
	TypeAmending     SectionType = "amending"
	TypeTransitional SectionType = "transitional"
	TypeProvision    SectionType = "provision"
	TypeEnacts       SectionType = "enacts"
)

// Status is the in-force state of a Section.
type Status string

const (
	StatusInForce    Status = "in-force"
	StatusRepealed   Status = "repealed"
	StatusNotInForce Status = "not-in-force"
)

// ScopeType is the extent over which a definition applies.
type ScopeType string

const (
	ScopeAct        ScopeType = "act"
	ScopeRegulation ScopeType = "regulation"
	ScopePart       ScopeType = "part"
	ScopeSection    ScopeType = "section"
)

// EnactingClauseLabel labels the Section built from Introduction/Enacts.
const EnactingClauseLabel = "Enacting Clause"

// Document is one parsed Statute or Regulation in a single language.
type Document struct {
	Kind       Kind   `json:"kind"`
	ID         string `json:"id"`
	Language   string `json:"language"`
	SourcePath string `json:"sourcePath,omitempty"`

	ShortTitle string `json:"shortTitle,omitempty"`
	LongTitle  string `json:"longTitle,omitempty"`
	Preamble   string `json:"preamble,omitempty"`

	EnactedDate       *time.Time `json:"enactedDate,omitempty"`
	InForceStartDate  *time.Time `json:"inForceStartDate,omitempty"`
	LastAmendedDate   *time.Time `json:"lastAmendedDate,omitempty"`
	RegistrationDate  *time.Time `json:"registrationDate,omitempty"`
	ConsolidationDate *time.Time `json:"consolidationDate,omitempty"`
	CurrentDate       *time.Time `json:"currentDate,omitempty"`

	// EnablingActs are the act ids named in a regulation's enabling authority.
	EnablingActs []string `json:"enablingActs,omitempty"`

	Sections         []Section         `json:"sections"`
	CrossReferences  []CrossReference  `json:"crossReferences,omitempty"`
	DefinedTerms     []DefinedTerm     `json:"definedTerms,omitempty"`
	Footnotes        []Footnote        `json:"footnotes,omitempty"`
	Treaties         []Treaty          `json:"treaties,omitempty"`
	PublicationItems []PublicationItem `json:"publicationItems,omitempty"`

	// Issues are non-fatal extraction problems, such as an Order block of
	// unrecognized shape.
	Issues []error `json:"-"`
}

// Title returns the short title, falling back to the long title.
func (d *Document) Title() string {
	if d.ShortTitle != "" {
		return d.ShortTitle
	}
	return d.LongTitle
}

// NaturalID is the document id shared by the English and French versions.
// Resource keys and term pairing use it; ID stays the number printed on
// the document.
func (d *Document) NaturalID() string {
	return reskey.NaturalDocumentID(d.ID)
}

// SectionByLabel returns the first non-heading section with the given label.
func (d *Document) SectionByLabel(label string) (*Section, bool) {
	for i := range d.Sections {
		s := &d.Sections[i]
		if s.Type != TypeHeading && s.Label == label {
			return s, true
		}
	}
	return nil, false
}

// Section is one addressable structural unit of a document.
type Section struct {
	// Exactly one of ActID and RegulationID is set.
	ActID        string `json:"actId,omitempty"`
	RegulationID string `json:"regulationId,omitempty"`
	Language     string `json:"language"`

	CanonicalID   string      `json:"canonicalSectionId"`
	Order         int         `json:"sectionOrder"`
	Label         string      `json:"sectionLabel"`
	Type          SectionType `json:"sectionType"`
	Status        Status      `json:"status"`
	HierarchyPath []string    `json:"hierarchyPath"`

	Title        string `json:"title,omitempty"`
	MarginalNote string `json:"marginalNote,omitempty"`

	Content     string             `json:"content"`
	ContentTree []contenttree.Node `json:"contentTree"`
	Flags       contenttree.Flags  `json:"contentFlags"`

	EnactedDate      *time.Time `json:"enactedDate,omitempty"`
	InForceStartDate *time.Time `json:"inForceStartDate,omitempty"`
	LastAmendedDate  *time.Time `json:"lastAmendedDate,omitempty"`

	Footnotes       []Footnote `json:"footnotes,omitempty"`
	HistoricalNotes []string   `json:"historicalNotes,omitempty"`

	Schedule  *ScheduleInfo  `json:"schedule,omitempty"`
	Provision *ProvisionInfo `json:"provision,omitempty"`

	FID    string `json:"fid,omitempty"`
	LimsID string `json:"limsId,omitempty"`
}

// DocumentID returns whichever owning id is set.
func (s *Section) DocumentID() string {
	if s.ActID != "" {
		return s.ActID
	}
	return s.RegulationID
}

// IsChunkable reports whether the section has any text to index.
func (s *Section) IsChunkable() bool {
	return s.Content != ""
}

// ScheduleInfo describes the schedule a Section was built from.
type ScheduleInfo struct {
	ID             string `json:"id,omitempty"`
	Label          string `json:"label"`
	Title          string `json:"title,omitempty"`
	OriginatingRef string `json:"originatingRef,omitempty"`
	// FormType is the ScheduleFormHeading type attribute as declared.
	FormType string `json:"formType,omitempty"`
	// Piece is the 1-based BillPiece block index, 0 for the schedule itself.
	Piece     int  `json:"piece,omitempty"`
	RootLevel bool `json:"rootLevel"`
}

// ProvisionInfo locates a Section built from an Order block.
type ProvisionInfo struct {
	OrderIndex     int `json:"orderIndex"`
	ProvisionIndex int `json:"provisionIndex"`
}

// CrossReference is a reference found inside a section's content.
type CrossReference struct {
	DocumentID         string `json:"documentId"`
	Language           string `json:"language"`
	SourceSectionLabel string `json:"sourceSectionLabel"`
	SourceSectionOrder int    `json:"sourceSectionOrder"`
	// TargetType is act or regulation; internal references take the
	// owning document's kind.
	TargetType Kind   `json:"targetType"`
	TargetRef  string `json:"targetRef"`
	// ReferenceType is the declared reference-type attribute.
	ReferenceType string          `json:"referenceType,omitempty"`
	Internal      bool            `json:"internal"`
	Text          string          `json:"text,omitempty"`
	Resolved      *ResolvedTarget `json:"resolved,omitempty"`
}

// ResolvedTarget holds what is known about a reference's target.
type ResolvedTarget struct {
	DocumentID   string `json:"documentId"`
	SectionID    string `json:"sectionId,omitempty"`
	TitleEN      string `json:"titleEn,omitempty"`
	TitleFR      string `json:"titleFr,omitempty"`
	Snippet      string `json:"snippet,omitempty"`
	MarginalNote string `json:"marginalNote,omitempty"`
}

// DefinedTerm is a term defined by a Definition block.
type DefinedTerm struct {
	ID            string `json:"id"`
	DocumentID    string `json:"documentId"`
	Language      string `json:"language"`
	Term          string `json:"term"`
	NormalizedKey string `json:"normalizedKey"`
	// PairedTerm is the other-language term given in the same definition.
	PairedTerm   string `json:"pairedTerm,omitempty"`
	PairedTermID string `json:"pairedTermId,omitempty"`
	// NaturalID is shared by the English and French records of a term.
	NaturalID    string `json:"naturalId"`
	SectionLabel string `json:"sectionLabel"`
	SectionOrder int    `json:"sectionOrder"`
	Definition   string `json:"definition"`
	Scope        Scope  `json:"scope"`
}

// Scope is where a definition applies.
type Scope struct {
	Type     ScopeType `json:"type"`
	Sections []string  `json:"sections,omitempty"`
	Raw      string    `json:"raw,omitempty"`
}

// Footnote is a footnote attached to a section.
type Footnote struct {
	ID           string `json:"id"`
	Label        string `json:"label,omitempty"`
	Text         string `json:"text"`
	SectionOrder int    `json:"sectionOrder"`
	SectionLabel string `json:"sectionLabel"`
}

// Treaty is a ConventionAgreementTreaty block found in a schedule.
type Treaty struct {
	Index        int                `json:"index"`
	Title        string             `json:"title,omitempty"`
	Text         string             `json:"text"`
	SectionOrder int                `json:"sectionOrder"`
	ContentTree  []contenttree.Node `json:"contentTree"`
}

// PublicationItem is a root-level Recommendation or Notice of a regulation.
type PublicationItem struct {
	Index       int                `json:"index"`
	Kind        string             `json:"kind"`
	Text        string             `json:"text"`
	ContentTree []contenttree.Node `json:"contentTree"`
}

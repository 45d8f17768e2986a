// Package contenttree models parsed legislative XML as an ordered tree of
// typed content nodes and converts order-preserving XML DOM nodes into it.
//
// Node is a closed tagged variant: Kind selects the structural role and
// only the payload fields documented for that role are populated. Children
// are always ordered as in the source document.
package contenttree

// Kind is the structural role of a Node.
type Kind string

// Text leaf
const (
	KindText Kind = "text"
)

// Structural containers
const (
	KindSection                Kind = "section"
	KindSubsection             Kind = "subsection"
	KindParagraph              Kind = "paragraph"
	KindSubparagraph           Kind = "subparagraph"
	KindClause                 Kind = "clause"
	KindSubclause              Kind = "subclause"
	KindSubsubclause           Kind = "subsubclause"
	KindDefinition             Kind = "definition"
	KindLabel                  Kind = "label"
	KindTextBlock              Kind = "text_block"
	KindHeading                Kind = "heading"
	KindTitleText              Kind = "title_text"
	KindProvision              Kind = "provision"
	KindList                   Kind = "list"
	KindItem                   Kind = "item"
	KindContinued              Kind = "continued"
	KindSchedule               Kind = "schedule"
	KindScheduleFormHeading    Kind = "schedule_form_heading"
	KindOriginatingRef         Kind = "originating_ref"
	KindBillPiece              Kind = "bill_piece"
	KindRelatedOrNotInForce    Kind = "related_or_not_in_force"
	KindPreamble               Kind = "preamble"
	KindEnacts                 Kind = "enacts"
	KindOrder                  Kind = "order"
	KindNote                   Kind = "note"
	KindReadAsText             Kind = "read_as_text"
	KindAmendedText            Kind = "amended_text"
	KindAmendedContent         Kind = "amended_content"
	KindTreaty                 Kind = "treaty"
	KindPublicationItem        Kind = "publication_item"
	KindSignatureBlock         Kind = "signature_block"
	KindRepealed               Kind = "repealed"
	KindRepealedSection        Kind = "repealed_section"
	KindInlineGroup            Kind = "inline_group"
	KindFormGroup              Kind = "form_group"
	KindGroupHeading           Kind = "group_heading"
	KindDocumentInternalAnchor Kind = "document_internal"
)

// References
const (
	KindXRefInternal  Kind = "xref_internal"
	KindXRefExternal  Kind = "xref_external"
	KindFootnoteRef   Kind = "footnote_ref"
	KindDefinedTermEn Kind = "defined_term_en"
	KindDefinedTermFr Kind = "defined_term_fr"
)

// Formatting
const (
	KindEmphasis  Kind = "emphasis"
	KindSup       Kind = "sup"
	KindSub       Kind = "sub"
	KindLanguage  Kind = "language"
	KindLineBreak Kind = "line_break"
	KindPageBreak Kind = "page_break"
	KindLeader    Kind = "leader"
)

// Tables
const (
	KindTableGroup Kind = "table_group"
	KindTable      Kind = "table"
	KindTGroup     Kind = "tgroup"
	KindTHead      Kind = "thead"
	KindTBody      Kind = "tbody"
	KindTFoot      Kind = "tfoot"
	KindRow        Kind = "row"
	KindEntry      Kind = "entry"
	KindColSpec    Kind = "colspec"
)

// Formulas
const (
	KindFormulaGroup      Kind = "formula_group"
	KindFormula           Kind = "formula"
	KindFormulaText       Kind = "formula_text"
	KindFormulaConnector  Kind = "formula_connector"
	KindFormulaDefinition Kind = "formula_definition"
	KindFormulaTerm       Kind = "formula_term"
	KindFormulaParagraph  Kind = "formula_paragraph"
	KindFraction          Kind = "fraction"
	KindNumerator         Kind = "numerator"
	KindDenominator       Kind = "denominator"
	KindMath              Kind = "math"
)

// Images
const (
	KindImageGroup Kind = "image_group"
	KindImage      Kind = "image"
	KindCaption    Kind = "caption"
)

// Metadata asides
const (
	KindMarginalNote          Kind = "marginal_note"
	KindFootnote              Kind = "footnote"
	KindHistoricalNote        Kind = "historical_note"
	KindHistoricalNoteSubItem Kind = "historical_note_sub_item"
)

// KindUnknown keeps unrecognized elements and their content.
const KindUnknown Kind = "unknown"

// Ref is the payload of reference kinds.
type Ref struct {
	// Target is the referenced label, id or document number
	Target string `json:"target"`
	// RefType is the declared reference-type ("act", "regulation", ...)
	RefType string `json:"refType,omitempty"`
	// Link is the resolved target when the source carries one
	Link string `json:"link,omitempty"`
}

// Node is one element of a content tree.
type Node struct {
	Kind Kind `json:"kind"`
	// Text holds leaf text, the citation of a repealed section, or the
	// plain text of a math block
	Text string `json:"text,omitempty"`
	// Tag is the original element name, set on Unknown nodes
	Tag string `json:"tag,omitempty"`
	// Attrs carries raw attributes of leaf kinds (cell spans, image source,
	// formula markup, leader style) and of Unknown nodes
	Attrs map[string]string `json:"attrs,omitempty"`
	// Ref is set on reference kinds
	Ref *Ref `json:"ref,omitempty"`
	// Caption is set on tables whose leading children are not row groups
	Caption  []Node `json:"caption,omitempty"`
	Children []Node `json:"children,omitempty"`
}

// NewText builds a text leaf.
func NewText(s string) Node {
	return Node{Kind: KindText, Text: s}
}

// NewContainer builds a structural, formatting or aside node.
func NewContainer(kind Kind, children []Node) Node {
	return Node{Kind: kind, Children: children}
}

// NewReference builds a reference node.
func NewReference(kind Kind, ref Ref, children []Node) Node {
	return Node{Kind: kind, Ref: &ref, Children: children}
}

// NewLeaf builds an attribute-carrying leaf (image, leader, colspec, break).
func NewLeaf(kind Kind, attrs map[string]string) Node {
	return Node{Kind: kind, Attrs: attrs}
}

// NewTable builds a table with an optional caption.
func NewTable(kind Kind, caption, body []Node, attrs map[string]string) Node {
	return Node{Kind: kind, Caption: caption, Children: body, Attrs: attrs}
}

// NewMath builds a math node holding raw markup and its plain text.
func NewMath(markup, text string) Node {
	return Node{Kind: KindMath, Text: text, Attrs: map[string]string{"markup": markup}}
}

// NewRepealedSection builds the shorthand for "<n>[Repealed, …]".
func NewRepealedSection(label, citation string) Node {
	return Node{Kind: KindRepealedSection, Text: citation, Attrs: map[string]string{"label": label}}
}

// NewUnknown preserves an unrecognized element.
func NewUnknown(tag string, attrs map[string]string, children []Node) Node {
	return Node{Kind: KindUnknown, Tag: tag, Attrs: attrs, Children: children}
}

// Attr returns a raw attribute or "".
func (n Node) Attr(name string) string {
	if n.Attrs == nil {
		return ""
	}
	return n.Attrs[name]
}

// IsAside reports whether the node is metadata shown beside the content
// rather than part of it.
func (n Node) IsAside() bool {
	switch n.Kind {
	case KindMarginalNote, KindFootnote, KindHistoricalNote, KindHistoricalNoteSubItem:
		return true
	}
	return false
}

// FirstChild returns the first direct child of the given kind.
func (n Node) FirstChild(kind Kind) (Node, bool) {
	for _, c := range n.Children {
		if c.Kind == kind {
			return c, true
		}
	}
	return Node{}, false
}

package contenttree

import (
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"
)

// tagKinds maps LIMS element names onto node kinds. Elements with special
// construction (tables, fractions, references, math, sections) are handled
// in parseElement before this table is consulted.
var tagKinds = map[string]Kind{
	"Section":                    KindSection,
	"Subsection":                 KindSubsection,
	"Paragraph":                  KindParagraph,
	"Subparagraph":               KindSubparagraph,
	"Clause":                     KindClause,
	"Subclause":                  KindSubclause,
	"Subsubclause":               KindSubsubclause,
	"Definition":                 KindDefinition,
	"Label":                      KindLabel,
	"Text":                       KindTextBlock,
	"Heading":                    KindHeading,
	"TitleText":                  KindTitleText,
	"Provision":                  KindProvision,
	"List":                       KindList,
	"Item":                       KindItem,
	"ContinuedSectionSubsection": KindContinued,
	"ContinuedParagraph":         KindContinued,
	"ContinuedSubparagraph":      KindContinued,
	"ContinuedClause":            KindContinued,
	"ContinuedSubclause":         KindContinued,
	"ContinuedDefinition":        KindContinued,
	"ContinuedFormulaParagraph":  KindContinued,
	"Schedule":                   KindSchedule,
	"ScheduleFormHeading":        KindScheduleFormHeading,
	"OriginatingRef":             KindOriginatingRef,
	"BillPiece":                  KindBillPiece,
	"RelatedOrNotInForce":        KindRelatedOrNotInForce,
	"Preamble":                   KindPreamble,
	"Enacts":                     KindEnacts,
	"Order":                      KindOrder,
	"Note":                       KindNote,
	"ReadAsText":                 KindReadAsText,
	"AmendedText":                KindAmendedText,
	"AmendedContent":             KindAmendedContent,
	"ConventionAgreementTreaty":  KindTreaty,
	"Recommendation":             KindPublicationItem,
	"Notice":                     KindPublicationItem,
	"SignatureBlock":             KindSignatureBlock,
	"Repealed":                   KindRepealed,
	"FormGroup":                  KindFormGroup,
	"GroupHeading":               KindGroupHeading,
	"DocumentInternal":           KindDocumentInternalAnchor,
	"DefinedTermEn":              KindDefinedTermEn,
	"DefinedTermFr":              KindDefinedTermFr,
	"Emphasis":                   KindEmphasis,
	"Sup":                        KindSup,
	"Sub":                        KindSub,
	"Language":                   KindLanguage,
	"TableGroup":                 KindTableGroup,
	"tgroup":                     KindTGroup,
	"thead":                      KindTHead,
	"tbody":                      KindTBody,
	"tfoot":                      KindTFoot,
	"row":                        KindRow,
	"FormulaGroup":               KindFormulaGroup,
	"Formula":                    KindFormula,
	"FormulaText":                KindFormulaText,
	"FormulaConnector":           KindFormulaConnector,
	"FormulaDefinition":          KindFormulaDefinition,
	"FormulaTerm":                KindFormulaTerm,
	"FormulaParagraph":           KindFormulaParagraph,
	"Numerator":                  KindNumerator,
	"Denominator":                KindDenominator,
	"ImageGroup":                 KindImageGroup,
	"Caption":                    KindCaption,
	"MarginalNote":               KindMarginalNote,
	"Footnote":                   KindFootnote,
	"HistoricalNote":             KindHistoricalNote,
	"HistoricalNoteSubItem":      KindHistoricalNoteSubItem,
}

// leafKinds carry their attributes and no children.
var leafKinds = map[string]Kind{
	"LineBreak":            KindLineBreak,
	"PageBreak":            KindPageBreak,
	"Leader":               KindLeader,
	"LeaderRightJustified": KindLeader,
	"Image":                KindImage,
	"colspec":              KindColSpec,
	"entry":                KindEntry,
}

// tableStructure are the row-group children of a table; anything else
// before them is caption material.
var tableStructure = map[string]bool{
	"tgroup": true, "thead": true, "tbody": true, "tfoot": true, "row": true, "colspec": true,
}

// repealedPattern matches "<number>[Repealed, …]" and the French "[Abrogé, …]".
var repealedPattern = regexp.MustCompile(`^\s*(\d+(?:\.\d+)*)\s*(\[\s*(?:Repealed|Abrogé|Abroge)[^\]]*\])\s*$`)

// Parse converts the children of n into content nodes. It never fails:
// unrecognized elements become Unknown nodes that keep their content.
func Parse(n *xmlquery.Node) []Node {
	if n == nil {
		return nil
	}
	var out []Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if node, ok := parseNode(c); ok {
			out = append(out, node)
		}
	}
	return out
}

// ParseElement converts a single element, including the element itself.
func ParseElement(n *xmlquery.Node) Node {
	node, _ := parseNode(n)
	return node
}

func parseNode(n *xmlquery.Node) (Node, bool) {
	switch n.Type {
	case xmlquery.TextNode, xmlquery.CharDataNode:
		if isFormattingWhitespace(n.Data) {
			return Node{}, false
		}
		return NewText(n.Data), true
	case xmlquery.ElementNode:
		return parseElement(n), true
	default:
		return Node{}, false
	}
}

// isFormattingWhitespace drops indentation between block elements while
// keeping single spaces that separate inline elements.
func isFormattingWhitespace(s string) bool {
	return strings.TrimSpace(s) == "" && strings.ContainsAny(s, "\n\r")
}

func parseElement(n *xmlquery.Node) Node {
	tag := n.Data

	switch tag {
	case "Section":
		if label, citation, ok := RepealedShorthand(n); ok {
			return NewRepealedSection(label, citation)
		}
	case "XRefInternal":
		return parseInternalRef(n)
	case "XRefExternal":
		return parseExternalRef(n)
	case "FootnoteRef":
		return NewReference(KindFootnoteRef, Ref{Target: Attr(n, "idref")}, Parse(n))
	case "table":
		return parseTable(n)
	case "Fraction":
		return parseFraction(n)
	case "MathML", "math":
		return NewMath(n.OutputXML(false), CollapseSpace(n.InnerText()))
	}

	if kind, ok := leafKinds[tag]; ok {
		node := NewLeaf(kind, Attrs(n))
		if kind == KindEntry {
			node.Children = Parse(n)
		}
		return node
	}

	if kind, ok := tagKinds[tag]; ok {
		node := NewContainer(kind, Parse(n))
		node.Attrs = Attrs(n)
		return node
	}

	return NewUnknown(tag, Attrs(n), Parse(n))
}

func parseInternalRef(n *xmlquery.Node) Node {
	target := Attr(n, "idref")
	if target == "" {
		target = Attr(n, "target")
	}
	if target == "" {
		target = Attr(n, "link")
	}
	if target == "" {
		target = CollapseSpace(n.InnerText())
	}
	return NewReference(KindXRefInternal, Ref{Target: target}, Parse(n))
}

// parseExternalRef keeps linked references; a reference without a link
// cannot be resolved and degrades to emphasized text.
func parseExternalRef(n *xmlquery.Node) Node {
	link := strings.TrimSpace(Attr(n, "link"))
	if link == "" {
		node := NewContainer(KindEmphasis, Parse(n))
		node.Attrs = map[string]string{"style": "italic", "unresolved": "true"}
		return node
	}
	return NewReference(KindXRefExternal, Ref{
		Target:  link,
		RefType: Attr(n, "reference-type"),
		Link:    link,
	}, Parse(n))
}

// parseTable partitions children into caption candidates (leading text and
// non-structural elements) and the structural body.
func parseTable(n *xmlquery.Node) Node {
	var caption, body []Node
	inBody := false
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		node, ok := parseNode(c)
		if !ok {
			continue
		}
		if !inBody && c.Type == xmlquery.ElementNode && tableStructure[c.Data] {
			inBody = true
		}
		if inBody {
			body = append(body, node)
		} else {
			caption = append(caption, node)
		}
	}
	return NewTable(KindTable, caption, body, Attrs(n))
}

// parseFraction looks for Numerator and Denominator; without them the
// whole content becomes one inline group.
func parseFraction(n *xmlquery.Node) Node {
	children := Parse(n)
	var num, den *Node
	for i := range children {
		switch children[i].Kind {
		case KindNumerator:
			num = &children[i]
		case KindDenominator:
			den = &children[i]
		}
	}
	if num != nil && den != nil {
		return NewContainer(KindFraction, []Node{*num, *den})
	}
	return NewContainer(KindFraction, []Node{NewContainer(KindInlineGroup, children)})
}

// RepealedShorthand reports whether a Section element reads
// "<number>[Repealed, …]" once its label and text are joined, returning the
// number and the bracketed citation.
func RepealedShorthand(section *xmlquery.Node) (label, citation string, ok bool) {
	var b strings.Builder
	for _, c := range Elements(section) {
		switch c.Data {
		case "MarginalNote", "HistoricalNote", "Footnote":
			continue
		}
		b.WriteString(c.InnerText())
	}
	m := repealedPattern.FindStringSubmatch(b.String())
	if m == nil {
		return "", "", false
	}
	return m[1], CollapseSpace(m[2]), true
}

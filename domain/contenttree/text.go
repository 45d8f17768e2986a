package contenttree

import "strings"

// blockKinds start on their own line when flattened.
var blockKinds = map[Kind]bool{
	KindSection:             true,
	KindSubsection:          true,
	KindParagraph:           true,
	KindSubparagraph:        true,
	KindClause:              true,
	KindSubclause:           true,
	KindSubsubclause:        true,
	KindDefinition:          true,
	KindHeading:             true,
	KindProvision:           true,
	KindList:                true,
	KindItem:                true,
	KindContinued:           true,
	KindScheduleFormHeading: true,
	KindBillPiece:           true,
	KindRelatedOrNotInForce: true,
	KindPreamble:            true,
	KindEnacts:              true,
	KindOrder:               true,
	KindNote:                true,
	KindAmendedText:         true,
	KindAmendedContent:      true,
	KindTreaty:              true,
	KindPublicationItem:     true,
	KindSignatureBlock:      true,
	KindTableGroup:          true,
	KindFormulaGroup:        true,
	KindFormula:             true,
	KindFormulaDefinition:   true,
	KindFormulaParagraph:    true,
	KindImageGroup:          true,
	KindFormGroup:           true,
	KindGroupHeading:        true,
	KindRepealedSection:     true,
}

// PlainText flattens nodes into searchable text. Asides (marginal notes,
// footnotes, historical notes) are left out; block elements start new lines,
// table rows become one line with cells joined by " | ".
func PlainText(nodes []Node) string {
	var w textWriter
	w.nodes(nodes)
	return w.String()
}

// InlineText flattens nodes onto a single line.
func InlineText(nodes []Node) string {
	return CollapseSpace(PlainText(nodes))
}

// AsideText flattens an aside node, which PlainText would skip.
func AsideText(n Node) string {
	return InlineText(n.Children)
}

type textWriter struct {
	b strings.Builder
}

func (w *textWriter) nodes(nodes []Node) {
	for _, n := range nodes {
		w.node(n)
	}
}

func (w *textWriter) node(n Node) {
	if n.IsAside() {
		return
	}
	switch n.Kind {
	case KindText:
		w.b.WriteString(n.Text)
	case KindLineBreak:
		w.newline()
	case KindLeader:
		w.b.WriteByte(' ')
	case KindLabel:
		w.b.WriteString(InlineText(n.Children))
		w.b.WriteByte(' ')
	case KindMath:
		w.b.WriteString(n.Text)
	case KindRepealedSection:
		w.newline()
		w.b.WriteString(n.Attr("label"))
		w.b.WriteByte(' ')
		w.b.WriteString(n.Text)
		w.newline()
	case KindTable:
		w.newline()
		if len(n.Caption) > 0 {
			w.nodes(n.Caption)
			w.newline()
		}
		w.nodes(n.Children)
		w.newline()
	case KindRow:
		w.newline()
		first := true
		for _, c := range n.Children {
			if c.Kind != KindEntry {
				continue
			}
			if !first {
				w.b.WriteString(" | ")
			}
			first = false
			w.b.WriteString(InlineText(c.Children))
		}
		w.newline()
	case KindColSpec, KindPageBreak, KindImage:
	default:
		if blockKinds[n.Kind] {
			w.newline()
			w.nodes(n.Children)
			w.newline()
			return
		}
		w.nodes(n.Children)
	}
}

func (w *textWriter) newline() {
	w.b.WriteByte('\n')
}

// String collapses whitespace within each line and drops empty lines.
func (w *textWriter) String() string {
	lines := strings.Split(w.b.String(), "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = CollapseSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

package contenttree

// Flags summarize which special structures a tree contains.
type Flags struct {
	HasTable          bool `json:"hasTable,omitempty"`
	HasFormula        bool `json:"hasFormula,omitempty"`
	HasImage          bool `json:"hasImage,omitempty"`
	HasDefinition     bool `json:"hasDefinition,omitempty"`
	HasFootnote       bool `json:"hasFootnote,omitempty"`
	HasCrossReference bool `json:"hasCrossReference,omitempty"`
	HasRepealed       bool `json:"hasRepealed,omitempty"`
	HasAmendedText    bool `json:"hasAmendedText,omitempty"`
	HasList           bool `json:"hasList,omitempty"`
	HasTreaty         bool `json:"hasTreaty,omitempty"`
}

// Any reports whether at least one flag is set.
func (f Flags) Any() bool {
	return f != Flags{}
}

// Walk visits nodes depth first in document order, captions before bodies.
// Returning false from fn skips the node's descendants.
func Walk(nodes []Node, fn func(Node) bool) {
	for _, n := range nodes {
		if !fn(n) {
			continue
		}
		Walk(n.Caption, fn)
		Walk(n.Children, fn)
	}
}

// Collect returns every node of the given kinds, in document order.
func Collect(nodes []Node, kinds ...Kind) []Node {
	want := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	var out []Node
	Walk(nodes, func(n Node) bool {
		if want[n.Kind] {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Scan derives content flags in a single pass.
func Scan(nodes []Node) Flags {
	var f Flags
	Walk(nodes, func(n Node) bool {
		switch n.Kind {
		case KindTableGroup, KindTable:
			f.HasTable = true
		case KindFormulaGroup, KindFormula, KindFraction, KindMath:
			f.HasFormula = true
		case KindImageGroup, KindImage:
			f.HasImage = true
		case KindDefinition, KindDefinedTermEn, KindDefinedTermFr:
			f.HasDefinition = true
		case KindFootnote, KindFootnoteRef:
			f.HasFootnote = true
		case KindXRefInternal, KindXRefExternal:
			f.HasCrossReference = true
		case KindRepealed, KindRepealedSection:
			f.HasRepealed = true
		case KindAmendedText, KindAmendedContent, KindReadAsText:
			f.HasAmendedText = true
		case KindList:
			f.HasList = true
		case KindTreaty:
			f.HasTreaty = true
		}
		return true
	})
	return f
}

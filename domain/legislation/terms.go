package legislation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/emergent-company/lims-pipeline/domain/contenttree"
	"github.com/emergent-company/lims-pipeline/pkg/normalize"
	"github.com/emergent-company/lims-pipeline/pkg/reskey"
)

// maxRangeExpansion bounds "sections 5 to 7" expansion.
const maxRangeExpansion = 200

var (
	scopeLead     = regexp.MustCompile(`(?i)(définitions?|definitions?|^in this|^dans (?:la|le) présente?|^au présent|^à la présente)`)
	scopeSection  = regexp.MustCompile(`(?i)\b(?:this section|présent article)\b`)
	scopePart     = regexp.MustCompile(`(?i)\b(?:this part|présente partie)\b`)
	scopeAct      = regexp.MustCompile(`(?i)\b(?:this act|présente loi)\b`)
	scopeReg      = regexp.MustCompile(`(?i)\b(?:these regulations|this regulation|présent règlement)\b`)
	scopeList     = regexp.MustCompile(`(?i)\b(?:sections?|articles?)\s+(\d+(?:\.\d+)*(?:\s*(?:,|to|and|à|et)\s*\d+(?:\.\d+)*)*)`)
	scopeListItem = regexp.MustCompile(`(?i)\d+(?:\.\d+)*|\bto\b|à`)
)

// ExtractDefinedTerms collects every term defined in the document's
// sections. A term's scope comes from the nearest preceding scope
// declaration ("The following definitions apply in this Part.") and
// defaults to the whole document.
func ExtractDefinedTerms(doc *Document) []DefinedTerm {
	var out []DefinedTerm
	base := Scope{Type: ScopeAct}
	if doc.Kind == KindRegulation {
		base.Type = ScopeRegulation
	}
	seen := make(map[string]int)
	for i := range doc.Sections {
		s := &doc.Sections[i]
		if !s.Flags.HasDefinition {
			continue
		}
		w := termWalker{doc: doc, section: s, seen: seen}
		w.visit(s.ContentTree, base)
		out = append(out, w.terms...)
	}
	return out
}

type termWalker struct {
	doc     *Document
	section *Section
	terms   []DefinedTerm
	// seen counts natural ids already issued in the document.
	seen map[string]int
}

func (w *termWalker) visit(nodes []contenttree.Node, scope Scope) {
	if declared, ok := ParseScope(leadText(nodes), w.section.Label); ok {
		scope = declared
	}
	for _, n := range nodes {
		switch {
		case n.IsAside():
		case n.Kind == contenttree.KindDefinition:
			w.definition(n, scope)
		case len(n.Children) > 0:
			w.visit(n.Children, scope)
		}
	}
}

// leadText is the text block content before the first structural child.
func leadText(nodes []contenttree.Node) string {
	var lead []contenttree.Node
	for _, n := range nodes {
		if n.Kind == contenttree.KindTextBlock {
			lead = append(lead, n)
			continue
		}
		if n.Kind == contenttree.KindLabel || n.IsAside() || n.Kind == contenttree.KindText {
			continue
		}
		break
	}
	return contenttree.InlineText(lead)
}

// definition records one term per own-language term of def. When both
// languages list the same number of terms they pair by position and share
// a natural id built from the English term. Otherwise each record keys on
// its own term and points at the first other-language term.
func (w *termWalker) definition(def contenttree.Node, scope Scope) {
	en := termTexts(def, contenttree.KindDefinedTermEn)
	fr := termTexts(def, contenttree.KindDefinedTermFr)
	own, other := en, fr
	if w.doc.Language == "fr" {
		own, other = fr, en
	}
	positional := len(own) == len(other)
	text := contenttree.PlainText(def.Children)
	otherLang := reskey.OtherLanguage(w.doc.Language)

	for i, term := range own {
		paired := pick(other, i, len(own))
		keyTerm := term
		if positional && w.doc.Language == "fr" {
			keyTerm = paired
		}
		natural := w.issue(w.naturalID(keyTerm))
		t := DefinedTerm{
			ID:            natural + "/" + w.doc.Language,
			DocumentID:    w.doc.ID,
			Language:      w.doc.Language,
			Term:          term,
			NormalizedKey: normalize.Term(term),
			PairedTerm:    paired,
			NaturalID:     natural,
			SectionLabel:  w.section.Label,
			SectionOrder:  w.section.Order,
			Definition:    text,
			Scope:         scope,
		}
		switch {
		case paired == "":
		case positional:
			t.PairedTermID = natural + "/" + otherLang
		default:
			t.PairedTermID = w.naturalID(paired) + "/" + otherLang
		}
		w.terms = append(w.terms, t)
	}
}

func (w *termWalker) naturalID(term string) string {
	return fmt.Sprintf("%s/%s/%s", w.doc.NaturalID(), w.section.Label, normalize.Term(term))
}

// issue returns id the first time it is seen in the document and a
// numbered variant ("id#2") after that.
func (w *termWalker) issue(id string) string {
	w.seen[id]++
	if n := w.seen[id]; n > 1 {
		return fmt.Sprintf("%s#%d", id, n)
	}
	return id
}

// pick pairs terms by position when both lists line up, else with the
// first other-language term.
func pick(other []string, i, ownCount int) string {
	switch {
	case len(other) == 0:
		return ""
	case len(other) == ownCount:
		return other[i]
	default:
		return other[0]
	}
}

func termTexts(def contenttree.Node, kind contenttree.Kind) []string {
	var out []string
	for _, n := range contenttree.Collect(def.Children, kind) {
		if text := contenttree.InlineText(n.Children); text != "" {
			out = append(out, text)
		}
	}
	return out
}

// ParseScope reads a scope declaration. sectionLabel is the label of the
// section the declaration appears in, used for "this section". ok is false
// when text declares no scope.
func ParseScope(text, sectionLabel string) (Scope, bool) {
	text = contenttree.CollapseSpace(text)
	if text == "" || !scopeLead.MatchString(text) {
		return Scope{}, false
	}

	scope := Scope{Raw: text}
	if scopeSection.MatchString(text) && sectionLabel != "" {
		scope.Sections = append(scope.Sections, sectionLabel)
	}
	if m := scopeList.FindStringSubmatch(text); m != nil {
		scope.Sections = append(scope.Sections, expandSectionList(m[1])...)
	}

	switch {
	case len(scope.Sections) > 0:
		scope.Type = ScopeSection
	case scopePart.MatchString(text):
		scope.Type = ScopePart
	case scopeAct.MatchString(text):
		scope.Type = ScopeAct
	case scopeReg.MatchString(text):
		scope.Type = ScopeRegulation
	default:
		return Scope{}, false
	}
	return scope, true
}

// expandSectionList turns "5 to 7, 9 and 12.1" into 5 6 7 9 12.1. Ranges
// over decimal labels keep their endpoints only.
func expandSectionList(list string) []string {
	var out []string
	rangeNext := false
	for _, tok := range scopeListItem.FindAllString(list, -1) {
		lower := strings.ToLower(tok)
		if lower == "to" || lower == "à" {
			rangeNext = true
			continue
		}
		if rangeNext && len(out) > 0 {
			rangeNext = false
			from, errFrom := strconv.Atoi(out[len(out)-1])
			to, errTo := strconv.Atoi(tok)
			if errFrom == nil && errTo == nil && to > from && to-from <= maxRangeExpansion {
				for v := from + 1; v <= to; v++ {
					out = append(out, strconv.Itoa(v))
				}
				continue
			}
		}
		out = append(out, tok)
	}
	return out
}

// PairIndex links terms across languages by natural document id and
// normalized key. It is owned by the caller and safe for concurrent use.
type PairIndex struct {
	mu    sync.RWMutex
	terms map[pairKey]string
}

type pairKey struct {
	documentID string
	language   string
	key        string
}

// NewPairIndex returns an empty index.
func NewPairIndex() *PairIndex {
	return &PairIndex{terms: make(map[pairKey]string)}
}

// Add indexes terms by document, language and normalized key.
func (p *PairIndex) Add(terms ...DefinedTerm) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range terms {
		p.terms[pairKey{reskey.NaturalDocumentID(t.DocumentID), t.Language, t.NormalizedKey}] = t.ID
	}
}

// Pair returns the id of the other-language term matching t's paired term.
func (p *PairIndex) Pair(t DefinedTerm) (string, bool) {
	if t.PairedTerm == "" {
		return "", false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	id, ok := p.terms[pairKey{reskey.NaturalDocumentID(t.DocumentID), reskey.OtherLanguage(t.Language), normalize.Term(t.PairedTerm)}]
	return id, ok
}

// Link sets PairedTermID on every term the index can pair and returns how
// many were linked.
func (p *PairIndex) Link(terms []DefinedTerm) int {
	linked := 0
	for i := range terms {
		if id, ok := p.Pair(terms[i]); ok {
			terms[i].PairedTermID = id
			linked++
		}
	}
	return linked
}

// Len returns the number of indexed terms.
func (p *PairIndex) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.terms)
}

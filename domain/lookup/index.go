// Package lookup reads the flat lookup catalogue that maps statute and
// regulation numbers to display metadata and act/regulation relationships.
package lookup

import (
	"io"
	"os"
	"slices"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/samber/lo"

	"github.com/emergent-company/lims-pipeline/domain/contenttree"
	"github.com/emergent-company/lims-pipeline/domain/legislation"
	"github.com/emergent-company/lims-pipeline/pkg/apperror"
	"github.com/emergent-company/lims-pipeline/pkg/reskey"
)

// Entry is one catalogue record.
type Entry struct {
	// ID is the catalogue's own id, referenced by relationship edges.
	ID   string
	Kind legislation.Kind
	// Language is "en" or "fr".
	Language string
	// NaturalID is the chapter or instrument number ("A-1", "SOR/2007-151").
	NaturalID          string
	ShortTitle         string
	ReversedShortTitle string
	Consolidated       bool
	// CounterpartID is the catalogue id of the other-language record, when given.
	CounterpartID string
	Related       []string
}

type naturalKey struct {
	id       string
	language string
}

// Index answers catalogue lookups. It is read-only after Read returns and
// safe for concurrent use.
type Index struct {
	byID      map[string]*Entry
	byNatural map[naturalKey]*Entry
	entries   []*Entry
	// Skipped counts records without a usable natural id or language.
	Skipped int
}

var _ legislation.TitleResolver = (*Index)(nil)

// Load reads the catalogue at path.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperror.ErrSourceUnavailable.WithMessage("open lookup catalogue " + path).WithInternal(err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses a catalogue. Relationship edges are made symmetric, so an
// edge declared on either side is visible from both.
func Read(r io.Reader) (*Index, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, apperror.ErrMalformedXML.WithMessage("lookup catalogue").WithInternal(err)
	}

	ix := &Index{
		byID:      make(map[string]*Entry),
		byNatural: make(map[naturalKey]*Entry),
	}
	for _, n := range xmlquery.Find(doc, "//Statute | //Regulation") {
		e, ok := readEntry(n)
		if !ok {
			ix.Skipped++
			continue
		}
		ix.entries = append(ix.entries, e)
		if e.ID != "" {
			ix.byID[e.ID] = e
		}
		ix.byNatural[naturalKey{reskey.NaturalDocumentID(e.NaturalID), e.Language}] = e
	}

	for _, e := range ix.entries {
		for _, rid := range e.Related {
			if other, ok := ix.byID[rid]; ok && !slices.Contains(other.Related, e.ID) {
				other.Related = append(other.Related, e.ID)
			}
		}
	}
	return ix, nil
}

func readEntry(n *xmlquery.Node) (*Entry, bool) {
	e := &Entry{
		ID:                 orElse(contenttree.Attr(n, "id"), contenttree.ChildText(n, "UniqueId")),
		Language:           language(contenttree.ChildText(n, "Language")),
		ShortTitle:         contenttree.ChildText(n, "ShortTitle"),
		ReversedShortTitle: contenttree.ChildText(n, "ReversedShortTitle"),
		Consolidated:       strings.EqualFold(contenttree.ChildText(n, "ConsolidateFlag"), "true"),
		CounterpartID:      contenttree.Attr(n, "olid"),
	}
	if n.Data == "Statute" {
		e.Kind = legislation.KindAct
		e.NaturalID = orElse(contenttree.ChildText(n, "OfficialNumber"), contenttree.ChildText(n, "AlphaNumber"))
	} else {
		e.Kind = legislation.KindRegulation
		e.NaturalID = orElse(contenttree.ChildText(n, "AlphaNumber"), contenttree.ChildText(n, "OfficialNumber"))
	}
	if e.NaturalID == "" || e.Language == "" {
		return nil, false
	}

	for _, rel := range xmlquery.Find(n, "Relationships/Relationship") {
		if rid := strings.TrimSpace(contenttree.Attr(rel, "rid")); rid != "" {
			e.Related = append(e.Related, rid)
		}
	}
	e.Related = lo.Uniq(e.Related)
	return e, true
}

// language maps catalogue language codes onto en/fr.
func language(code string) string {
	switch strings.ToLower(code) {
	case "eng", "en", "e":
		return "en"
	case "fra", "fre", "fr", "f":
		return "fr"
	default:
		return ""
	}
}

func orElse(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Entry looks up a document by natural id and language.
func (ix *Index) Entry(naturalID, language string) (*Entry, bool) {
	e, ok := ix.byNatural[naturalKey{reskey.NaturalDocumentID(naturalID), language}]
	return e, ok
}

// ByID looks up a catalogue id.
func (ix *Index) ByID(id string) (*Entry, bool) {
	e, ok := ix.byID[id]
	return e, ok
}

// Title returns the short title of a document in one language.
func (ix *Index) Title(documentID, language string) (string, bool) {
	e, ok := ix.Entry(documentID, language)
	if !ok || e.ShortTitle == "" {
		return "", false
	}
	return e.ShortTitle, true
}

// EnablingActs returns the acts related to a regulation.
func (ix *Index) EnablingActs(regulationID, language string) []*Entry {
	return ix.related(regulationID, language, legislation.KindAct)
}

// Regulations returns the regulations related to an act, sorted by
// reversed short title.
func (ix *Index) Regulations(actID, language string) []*Entry {
	return ix.related(actID, language, legislation.KindRegulation)
}

func (ix *Index) related(naturalID, language string, kind legislation.Kind) []*Entry {
	e, ok := ix.Entry(naturalID, language)
	if !ok {
		return nil
	}
	var out []*Entry
	for _, rid := range e.Related {
		if other, ok := ix.byID[rid]; ok && other.Kind == kind {
			out = append(out, other)
		}
	}
	slices.SortFunc(out, func(a, b *Entry) int {
		return strings.Compare(sortTitle(a), sortTitle(b))
	})
	return out
}

func sortTitle(e *Entry) string {
	return strings.ToLower(orElse(e.ReversedShortTitle, e.ShortTitle)) + "\x00" + e.NaturalID
}

// Counterpart returns the other-language record of e, preferring the
// declared counterpart id.
func (ix *Index) Counterpart(e *Entry) (*Entry, bool) {
	if e == nil {
		return nil, false
	}
	if e.CounterpartID != "" {
		if other, ok := ix.byID[e.CounterpartID]; ok {
			return other, true
		}
	}
	other, ok := ix.byNatural[naturalKey{reskey.NaturalDocumentID(e.NaturalID), otherLanguage(e.Language)}]
	return other, ok
}

func otherLanguage(lang string) string {
	if lang == "fr" {
		return "en"
	}
	return "fr"
}

package legislation

import (
	"regexp"
	"strings"

	"github.com/samber/lo"

	"github.com/emergent-company/lims-pipeline/domain/contenttree"
)

// TitleResolver looks up a document's display title in one language.
type TitleResolver interface {
	Title(documentID, language string) (string, bool)
}

// snippetRunes bounds ResolvedTarget.Snippet.
const snippetRunes = 200

var (
	labelToken    = regexp.MustCompile(`\d+(?:\.\d+)*`)
	subunitSuffix = regexp.MustCompile(`\(.*$`)
)

// ExtractCrossReferences collects the references in every section, in
// section order. Repeated references to the same target within one section
// are reported once.
func ExtractCrossReferences(doc *Document) []CrossReference {
	var out []CrossReference
	for i := range doc.Sections {
		s := &doc.Sections[i]
		var refs []CrossReference
		contenttree.Walk(s.ContentTree, func(n contenttree.Node) bool {
			if n.IsAside() {
				return false
			}
			if n.Ref == nil {
				return true
			}
			ref := CrossReference{
				DocumentID:         doc.ID,
				Language:           doc.Language,
				SourceSectionLabel: s.Label,
				SourceSectionOrder: s.Order,
				TargetRef:          n.Ref.Target,
				ReferenceType:      n.Ref.RefType,
				Text:               contenttree.InlineText(n.Children),
			}
			switch n.Kind {
			case contenttree.KindXRefInternal:
				ref.Internal = true
				ref.TargetType = doc.Kind
			case contenttree.KindXRefExternal:
				ref.TargetType = targetKind(n.Ref.RefType, n.Ref.Target)
			default:
				return true
			}
			if ref.TargetRef != "" {
				refs = append(refs, ref)
			}
			return true
		})
		out = append(out, lo.UniqBy(refs, func(r CrossReference) string {
			return string(r.TargetType) + "|" + r.TargetRef + "|" + boolKey(r.Internal)
		})...)
	}
	return out
}

func boolKey(b bool) string {
	if b {
		return "i"
	}
	return "e"
}

// targetKind reads reference-type, falling back to the id's shape:
// regulation ids carry a slash ("SOR/2007-151") or a C.R.C. prefix.
func targetKind(refType, target string) Kind {
	switch strings.ToLower(refType) {
	case "regulation":
		return KindRegulation
	case "act":
		return KindAct
	}
	if strings.Contains(target, "/") || strings.HasPrefix(target, "C.R.C") {
		return KindRegulation
	}
	return KindAct
}

// ResolveInternal attaches the target section to internal references whose
// target names a section of the same document. It returns how many
// references were resolved.
func ResolveInternal(doc *Document) int {
	resolved := 0
	for i := range doc.CrossReferences {
		ref := &doc.CrossReferences[i]
		if !ref.Internal {
			continue
		}
		target, ok := findSection(doc, ref.TargetRef)
		if !ok {
			continue
		}
		r := &ResolvedTarget{
			DocumentID:   doc.ID,
			SectionID:    target.CanonicalID,
			Snippet:      snippet(target.Content),
			MarginalNote: target.MarginalNote,
		}
		if doc.Language == "fr" {
			r.TitleFR = doc.Title()
		} else {
			r.TitleEN = doc.Title()
		}
		ref.Resolved = r
		resolved++
	}
	return resolved
}

// findSection tries the raw target, then the target without a subunit
// suffix ("12(3)" gives "12"), then the first section number in it.
func findSection(doc *Document, target string) (*Section, bool) {
	candidates := []string{
		strings.TrimSpace(target),
		strings.TrimSpace(subunitSuffix.ReplaceAllString(target, "")),
		labelToken.FindString(target),
	}
	for _, c := range lo.Compact(candidates) {
		if s, ok := doc.SectionByLabel(c); ok {
			return s, true
		}
	}
	return nil, false
}

// ResolveExternal attaches both-language titles to external references
// whose target the resolver knows. It returns how many were resolved.
func ResolveExternal(refs []CrossReference, titles TitleResolver) int {
	if titles == nil {
		return 0
	}
	resolved := 0
	for i := range refs {
		ref := &refs[i]
		if ref.Internal {
			continue
		}
		en, okEN := titles.Title(ref.TargetRef, "en")
		fr, okFR := titles.Title(ref.TargetRef, "fr")
		if !okEN && !okFR {
			continue
		}
		ref.Resolved = &ResolvedTarget{DocumentID: ref.TargetRef, TitleEN: en, TitleFR: fr}
		resolved++
	}
	return resolved
}

func snippet(content string) string {
	r := []rune(content)
	if len(r) <= snippetRunes {
		return content
	}
	return strings.TrimSpace(string(r[:snippetRunes])) + "…"
}

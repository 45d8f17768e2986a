package legislation

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"

	"github.com/emergent-company/lims-pipeline/domain/contenttree"
	"github.com/emergent-company/lims-pipeline/pkg/apperror"
)

// ParseDocument reads one LIMS document and extracts its records. path is
// used only for error reporting and provenance.
func ParseDocument(path string, r io.Reader) (*Document, error) {
	root, err := contenttree.ParseXML(r)
	if err != nil {
		return nil, apperror.ErrMalformedXML.WithInternal(err).WithDetails(map[string]any{"path": path})
	}
	return Extract(path, contenttree.Root(root))
}

// Extract builds a Document from a parsed Statute or Regulation element.
func Extract(path string, root *xmlquery.Node) (*Document, error) {
	if root == nil {
		return nil, apperror.ErrMalformedXML.WithMessage(path + ": empty document")
	}

	doc := &Document{SourcePath: path}
	switch root.Data {
	case "Statute":
		doc.Kind = KindAct
	case "Regulation":
		doc.Kind = KindRegulation
	default:
		return nil, apperror.ErrUnsupportedDocument.
			WithMessage(fmt.Sprintf("%s: root element %q is neither Statute nor Regulation", path, root.Data)).
			WithDetails(map[string]any{"path": path, "element": root.Data})
	}

	if err := readIdentity(doc, root); err != nil {
		return nil, err
	}

	x := &extractor{doc: doc, reference: referenceDate(doc)}
	x.introduction(contenttree.Child(root, "Introduction"))

	var stack headingStack
	if body := contenttree.Child(root, "Body"); body != nil {
		stack = x.body(body, stack)
	}
	for _, schedule := range contenttree.ChildrenNamed(root, "Schedule") {
		x.schedule(schedule, nil, true)
	}
	for i, order := range contenttree.ChildrenNamed(root, "Order") {
		x.order(order, i)
	}
	x.publications(root)

	doc.CrossReferences = ExtractCrossReferences(doc)
	doc.DefinedTerms = ExtractDefinedTerms(doc)
	return doc, nil
}

// readIdentity fills ids, titles and dates from Identification and the
// root attributes.
func readIdentity(doc *Document, root *xmlquery.Node) error {
	doc.Language = strings.ToLower(contenttree.Attr(root, "xml:lang"))
	if doc.Language == "" {
		doc.Language = "en"
	}

	ident := contenttree.Child(root, "Identification")
	if ident == nil {
		return apperror.NewMissingIdentity(doc.SourcePath, "Identification")
	}

	switch doc.Kind {
	case KindAct:
		doc.ID = contenttree.ChildText(contenttree.Child(ident, "Chapter"), "ConsolidatedNumber")
		if doc.ID == "" {
			return apperror.NewMissingIdentity(doc.SourcePath, "Chapter/ConsolidatedNumber")
		}
		doc.EnactedDate = assentDate(ident)
	case KindRegulation:
		doc.ID = contenttree.ChildText(ident, "InstrumentNumber")
		if doc.ID == "" {
			return apperror.NewMissingIdentity(doc.SourcePath, "InstrumentNumber")
		}
		doc.RegistrationDate = elementDate(contenttree.Child(ident, "RegistrationDate"))
		doc.EnablingActs = enablingActs(ident)
	}

	doc.ShortTitle = contenttree.ChildText(ident, "ShortTitle")
	doc.LongTitle = contenttree.ChildText(ident, "LongTitle")
	if doc.EnactedDate == nil {
		doc.EnactedDate = attrDate(root, "lims:enacted-date")
	}
	doc.InForceStartDate = attrDate(root, "lims:inforce-start-date")
	doc.LastAmendedDate = attrDate(root, "lims:lastAmendedDate")
	doc.CurrentDate = attrDate(root, "lims:current-date")
	doc.ConsolidationDate = elementDate(contenttree.Child(ident, "ConsolidationDate"))
	if doc.ConsolidationDate == nil {
		doc.ConsolidationDate = attrDate(root, "lims:pit-date")
	}
	return nil
}

func assentDate(ident *xmlquery.Node) *time.Time {
	history := contenttree.Child(ident, "BillHistory")
	for _, stages := range contenttree.ChildrenNamed(history, "Stages") {
		if contenttree.Attr(stages, "stage") == "assented-to" {
			return elementDate(stages)
		}
	}
	return nil
}

func enablingActs(ident *xmlquery.Node) []string {
	var out []string
	for _, auth := range contenttree.ChildrenNamed(ident, "EnablingAuthority") {
		for _, ref := range contenttree.ChildrenNamed(auth, "XRefExternal") {
			if link := strings.TrimSpace(contenttree.Attr(ref, "link")); link != "" {
				out = append(out, link)
			}
		}
	}
	return out
}

// referenceDate is the point in time sections are judged against: the
// document's own in-force date, else its current or consolidation date.
func referenceDate(doc *Document) *time.Time {
	switch {
	case doc.InForceStartDate != nil:
		return doc.InForceStartDate
	case doc.CurrentDate != nil:
		return doc.CurrentDate
	default:
		return doc.ConsolidationDate
	}
}

// extractor accumulates records for one document. The heading stack is
// not part of it; walk functions take and return the stack explicitly.
type extractor struct {
	doc       *Document
	reference *time.Time
	next      int
	treaties  int
}

// add assigns the next section order and canonical id, then records the
// section and its footnotes.
func (x *extractor) add(s Section, disambiguator string) *Section {
	s.Order = x.next
	x.next++
	s.Language = x.doc.Language
	if x.doc.Kind == KindAct {
		s.ActID = x.doc.ID
	} else {
		s.RegulationID = x.doc.ID
	}
	if s.HierarchyPath == nil {
		s.HierarchyPath = []string{}
	}
	if s.Status == "" {
		s.Status = StatusInForce
	}
	s.CanonicalID = CanonicalID(x.doc.ID, x.doc.Language, s.Type, s.Order, disambiguator)
	s.Flags = contenttree.Scan(s.ContentTree)
	s.Footnotes, s.HistoricalNotes = asides(s.ContentTree, s.Order, s.Label)

	x.doc.Sections = append(x.doc.Sections, s)
	x.doc.Footnotes = append(x.doc.Footnotes, s.Footnotes...)
	return &x.doc.Sections[len(x.doc.Sections)-1]
}

func (x *extractor) introduction(intro *xmlquery.Node) {
	if intro == nil {
		return
	}
	if preamble := contenttree.Child(intro, "Preamble"); preamble != nil {
		x.doc.Preamble = contenttree.PlainText(contenttree.Parse(preamble))
	}
	enacts := contenttree.Child(intro, "Enacts")
	if enacts == nil {
		return
	}
	tree := contenttree.Parse(enacts)
	x.add(Section{
		Label:       EnactingClauseLabel,
		Type:        TypeEnacts,
		Content:     contenttree.PlainText(tree),
		ContentTree: tree,
	}, "enacts")
}

// body walks Body children in order and returns the final heading stack.
func (x *extractor) body(body *xmlquery.Node, stack headingStack) headingStack {
	for _, n := range contenttree.Elements(body) {
		stack = x.bodyElement(n, stack)
	}
	return stack
}

func (x *extractor) bodyElement(n *xmlquery.Node, stack headingStack) headingStack {
	switch n.Data {
	case "Heading":
		return x.heading(n, stack)
	case "Section":
		x.section(n, stack)
	case "Schedule":
		x.schedule(n, stack, false)
	default:
		tree := []contenttree.Node{contenttree.ParseElement(n)}
		content := contenttree.PlainText(tree)
		if content == "" {
			return stack
		}
		sectionType := TypeSection
		if n.Data == "Provision" {
			sectionType = TypeProvision
		}
		x.add(Section{
			Label:         contenttree.ChildText(n, "Label"),
			Type:          sectionType,
			Status:        deriveStatus(n, tree, x.reference),
			HierarchyPath: stack.path(),
			Content:       content,
			ContentTree:   tree,
			FID:           contenttree.Attr(n, "lims:fid"),
			LimsID:        contenttree.Attr(n, "lims:id"),
		}, strings.ToLower(n.Data))
	}
	return stack
}

// heading records a Heading and pushes it onto the stack.
func (x *extractor) heading(n *xmlquery.Node, stack headingStack) headingStack {
	level, err := strconv.Atoi(contenttree.Attr(n, "level"))
	if err != nil || level < 1 {
		level = 1
	}
	label := contenttree.ChildText(n, "Label")
	title := contenttree.ChildText(n, "TitleText")
	text := strings.TrimSpace(label + " " + title)

	tree := contenttree.Parse(n)
	x.add(Section{
		Label:         label,
		Type:          TypeHeading,
		Title:         title,
		HierarchyPath: stack.ancestors(level).path(),
		Content:       contenttree.PlainText(tree),
		ContentTree:   tree,
		FID:           contenttree.Attr(n, "lims:fid"),
		LimsID:        contenttree.Attr(n, "lims:id"),
	}, orDefault(label, title))

	if text == "" {
		return stack
	}
	return stack.push(level, text)
}

func (x *extractor) section(n *xmlquery.Node, stack headingStack) {
	s := Section{
		Type:             TypeSection,
		HierarchyPath:    stack.path(),
		EnactedDate:      attrDate(n, "lims:enacted-date"),
		InForceStartDate: attrDate(n, "lims:inforce-start-date"),
		LastAmendedDate:  attrDate(n, "lims:lastAmendedDate"),
		FID:              contenttree.Attr(n, "lims:fid"),
		LimsID:           contenttree.Attr(n, "lims:id"),
	}
	switch t := SectionType(strings.ToLower(contenttree.Attr(n, "type"))); t {
	case TypeAmending, TypeTransitional:
		s.Type = t
	}

	node := contenttree.ParseElement(n)
	if node.Kind == contenttree.KindRepealedSection {
		s.Label = node.Attr("label")
		s.ContentTree = []contenttree.Node{node}
		s.Content = node.Text
	} else {
		s.Label = contenttree.ChildText(n, "Label")
		s.ContentTree = node.Children
		s.Content = contenttree.PlainText(node.Children)
		if mn, ok := node.FirstChild(contenttree.KindMarginalNote); ok {
			s.MarginalNote = contenttree.AsideText(mn)
		}
	}
	s.Status = deriveStatus(n, s.ContentTree, x.reference)
	x.add(s, s.Label)
}

// asides collects a section's footnotes and historical-note lines.
func asides(tree []contenttree.Node, order int, label string) ([]Footnote, []string) {
	var footnotes []Footnote
	var notes []string
	contenttree.Walk(tree, func(n contenttree.Node) bool {
		switch n.Kind {
		case contenttree.KindFootnote:
			fn := Footnote{ID: n.Attr("id"), SectionOrder: order, SectionLabel: label}
			var body []contenttree.Node
			for _, c := range n.Children {
				if c.Kind == contenttree.KindLabel && fn.Label == "" {
					fn.Label = contenttree.InlineText(c.Children)
					continue
				}
				body = append(body, c)
			}
			fn.Text = contenttree.InlineText(body)
			if fn.ID == "" {
				fn.ID = fmt.Sprintf("fn%d", len(footnotes)+1)
			}
			footnotes = append(footnotes, fn)
			return false
		case contenttree.KindHistoricalNote:
			items := contenttree.Collect(n.Children, contenttree.KindHistoricalNoteSubItem)
			if len(items) == 0 {
				if text := contenttree.AsideText(n); text != "" {
					notes = append(notes, text)
				}
			}
			for _, item := range items {
				if text := contenttree.AsideText(item); text != "" {
					notes = append(notes, text)
				}
			}
			return false
		}
		return true
	})
	return footnotes, notes
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9.]+`)

// CanonicalID builds the document-unique id
// {documentId}/{language}/{sectionType or "s"}/{order}/{disambiguator}.
func CanonicalID(documentID, language string, t SectionType, order int, disambiguator string) string {
	typ := string(t)
	if t == TypeSection || t == "" {
		typ = "s"
	}
	return fmt.Sprintf("%s/%s/%s/%d/%s", documentID, language, typ, order, slug(disambiguator))
}

func slug(s string) string {
	s = strings.Trim(slugInvalid.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if s == "" {
		return "x"
	}
	return s
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

package legislation

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/emergent-company/lims-pipeline/domain/contenttree"
)

// Schedule form types with a fixed section mapping.
const (
	formNotInForce = "NifProvs"
	formRelated    = "RelatedProvs"
)

// schedule records one Schedule and a Section per BillPiece block inside
// it. Schedules nested in Body inherit the heading path; root-level ones
// start a fresh path.
func (x *extractor) schedule(n *xmlquery.Node, stack headingStack, rootLevel bool) {
	form := contenttree.Child(n, "ScheduleFormHeading")
	info := ScheduleInfo{
		ID:             orDefault(contenttree.Attr(n, "id"), contenttree.Attr(n, "lims:id")),
		Label:          orDefault(contenttree.ChildText(form, "Label"), "Schedule"),
		Title:          contenttree.ChildText(form, "TitleText"),
		OriginatingRef: contenttree.ChildText(form, "OriginatingRef"),
		FormType:       contenttree.Attr(form, "type"),
		RootLevel:      rootLevel,
	}

	var tree []contenttree.Node
	for _, node := range contenttree.Parse(n) {
		if node.Kind != contenttree.KindBillPiece {
			tree = append(tree, node)
		}
	}

	schedule := info
	s := x.add(Section{
		Label:         info.Label,
		Type:          TypeSchedule,
		Title:         info.Title,
		Status:        deriveStatus(n, tree, x.reference),
		HierarchyPath: stack.path(),
		Content:       contenttree.PlainText(tree),
		ContentTree:   tree,
		Schedule:      &schedule,
		FID:           contenttree.Attr(n, "lims:fid"),
		LimsID:        contenttree.Attr(n, "lims:id"),
	}, info.Label)
	x.treatiesIn(tree, s.Order)

	pieceType, pieceStatus := scheduleType(info.FormType)
	pieceStack := stack.child(strings.TrimSpace(info.Label + " " + info.Title))

	piece := 0
	for _, bill := range contenttree.ChildrenNamed(n, "BillPiece") {
		blocks := contenttree.ChildrenNamed(bill, "RelatedOrNotInForce")
		if len(blocks) == 0 {
			blocks = []*xmlquery.Node{bill}
		}
		for _, block := range blocks {
			piece++
			tree := contenttree.Parse(block)
			status := pieceStatus
			if status == "" {
				status = deriveStatus(block, tree, x.reference)
			}
			pi := info
			pi.Piece = piece
			label := fmt.Sprintf("%s (%d)", info.Label, piece)
			x.add(Section{
				Label:         label,
				Type:          pieceType,
				Title:         firstTitle(tree),
				Status:        status,
				HierarchyPath: pieceStack.path(),
				Content:       contenttree.PlainText(tree),
				ContentTree:   tree,
				Schedule:      &pi,
			}, label)
		}
	}
}

// scheduleType maps a ScheduleFormHeading type onto the section type and
// the status forced on its BillPiece sections ("" when derived).
func scheduleType(formType string) (SectionType, Status) {
	switch formType {
	case formNotInForce:
		return TypeAmending, StatusNotInForce
	case formRelated:
		return TypeTransitional, ""
	case "":
		return TypeSchedule, ""
	default:
		return SectionType(strings.ToLower(formType)), ""
	}
}

// treatiesIn records every ConventionAgreementTreaty in a schedule tree.
func (x *extractor) treatiesIn(tree []contenttree.Node, sectionOrder int) {
	for _, t := range contenttree.Collect(tree, contenttree.KindTreaty) {
		x.treaties++
		x.doc.Treaties = append(x.doc.Treaties, Treaty{
			Index:        x.treaties,
			Title:        firstTitle(t.Children),
			Text:         contenttree.PlainText(t.Children),
			SectionOrder: sectionOrder,
			ContentTree:  t.Children,
		})
	}
}

// firstTitle returns the text of the first title or heading in tree.
func firstTitle(tree []contenttree.Node) string {
	for _, n := range contenttree.Collect(tree, contenttree.KindTitleText, contenttree.KindHeading) {
		if text := contenttree.InlineText(n.Children); text != "" {
			return text
		}
	}
	return ""
}

package legislation

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/emergent-company/lims-pipeline/domain/contenttree"
	"github.com/emergent-company/lims-pipeline/pkg/apperror"
)

// orderShape is the closed set of layouts an Order block can take.
type orderShape int

const (
	orderEmpty orderShape = iota
	orderProvisions
	orderText
)

// orderBlock is a decoded Order element.
type orderBlock struct {
	shape      orderShape
	provisions []*xmlquery.Node
	asides     []*xmlquery.Node
}

// decodeOrder determines which shape an Order matches before anything is
// built from it. Mixed or foreign content is an unrecognized shape.
func decodeOrder(n *xmlquery.Node) (orderBlock, error) {
	var block orderBlock
	var text, other []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.TextNode, xmlquery.CharDataNode:
			if strings.TrimSpace(c.Data) != "" {
				text = append(text, "#text")
			}
		case xmlquery.ElementNode:
			switch c.Data {
			case "Provision":
				block.provisions = append(block.provisions, c)
			case "Footnote", "MarginalNote", "HistoricalNote":
				block.asides = append(block.asides, c)
			case "Text", "Paragraph", "List", "Note", "Emphasis", "XRefExternal", "XRefInternal":
				text = append(text, c.Data)
			default:
				other = append(other, c.Data)
			}
		}
	}

	switch {
	case len(other) > 0:
		return block, apperror.NewUnrecognizedShape("Order", "unexpected "+strings.Join(other, ", "))
	case len(block.provisions) > 0 && len(text) > 0:
		return block, apperror.NewUnrecognizedShape("Order", "provisions mixed with "+strings.Join(text, ", "))
	case len(block.provisions) > 0:
		block.shape = orderProvisions
	case len(text) > 0:
		block.shape = orderText
	default:
		block.shape = orderEmpty
	}
	return block, nil
}

// ProvisionLabel names provision i of Order k: "order", "order-provision-2",
// then "order-2", "order-2-provision-2" for later Order blocks.
func ProvisionLabel(k, i int) string {
	prefix := "order"
	if k > 0 {
		prefix = fmt.Sprintf("order-%d", k+1)
	}
	if i == 0 {
		return prefix
	}
	return fmt.Sprintf("%s-provision-%d", prefix, i+1)
}

// order records the provisions of the k-th Order block.
func (x *extractor) order(n *xmlquery.Node, k int) {
	block, err := decodeOrder(n)
	if err != nil {
		x.doc.Issues = append(x.doc.Issues, fmt.Errorf("%s: order %d: %w", x.doc.SourcePath, k+1, err))
		return
	}

	switch block.shape {
	case orderEmpty:
		return
	case orderText:
		x.provision(n, contenttree.Parse(n), k, 0)
	case orderProvisions:
		footnotes := make([]contenttree.Node, 0, len(block.asides))
		for _, a := range block.asides {
			footnotes = append(footnotes, contenttree.ParseElement(a))
		}
		trees := make([][]contenttree.Node, len(block.provisions))
		for i, p := range block.provisions {
			trees[i] = contenttree.Parse(p)
		}
		attachFootnotes(trees, footnotes)
		for i, p := range block.provisions {
			x.provision(p, trees[i], k, i)
		}
	}
}

func (x *extractor) provision(n *xmlquery.Node, tree []contenttree.Node, k, i int) {
	label := ProvisionLabel(k, i)
	x.add(Section{
		Label:            label,
		Type:             TypeProvision,
		Status:           deriveStatus(n, tree, x.reference),
		Content:          contenttree.PlainText(tree),
		ContentTree:      tree,
		InForceStartDate: attrDate(n, "lims:inforce-start-date"),
		Provision:        &ProvisionInfo{OrderIndex: k, ProvisionIndex: i},
		FID:              contenttree.Attr(n, "lims:fid"),
		LimsID:           contenttree.Attr(n, "lims:id"),
	}, label)
}

// attachFootnotes appends Order-level footnotes to the provisions that
// reference them, or to the first provision when none does.
func attachFootnotes(trees [][]contenttree.Node, footnotes []contenttree.Node) {
	for _, fn := range footnotes {
		id := fn.Attr("id")
		attached := false
		for i, tree := range trees {
			for _, ref := range contenttree.Collect(tree, contenttree.KindFootnoteRef) {
				if id != "" && ref.Ref != nil && ref.Ref.Target == id {
					trees[i] = append(trees[i], fn)
					attached = true
					break
				}
			}
		}
		if !attached && len(trees) > 0 {
			trees[0] = append(trees[0], fn)
		}
	}
}

// publications records root-level Recommendation and Notice blocks.
func (x *extractor) publications(root *xmlquery.Node) {
	for _, n := range contenttree.Elements(root) {
		if n.Data != "Recommendation" && n.Data != "Notice" {
			continue
		}
		tree := contenttree.Parse(n)
		text := contenttree.PlainText(tree)
		if text == "" {
			continue
		}
		x.doc.PublicationItems = append(x.doc.PublicationItems, PublicationItem{
			Index:       len(x.doc.PublicationItems) + 1,
			Kind:        strings.ToLower(n.Data),
			Text:        text,
			ContentTree: tree,
		})
	}
}

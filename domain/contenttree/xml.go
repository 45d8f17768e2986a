package contenttree

import (
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Namespace URIs used by LIMS documents.
const (
	NamespaceLIMS = "http://justice.gc.ca/lims"
	NamespaceXML  = "http://www.w3.org/XML/1998/namespace"
)

var prefixURIs = map[string]string{
	"lims": NamespaceLIMS,
	"xml":  NamespaceXML,
}

// ParseXML reads a whole document into an order-preserving DOM.
func ParseXML(r io.Reader) (*xmlquery.Node, error) {
	return xmlquery.Parse(r)
}

// Attr returns the attribute value for name, which may carry a prefix
// ("lims:fid", "xml:lang"). Prefixed names match either the declared
// prefix or its namespace URI, so documents that omit or rebind the
// namespace declarations still resolve.
func Attr(n *xmlquery.Node, name string) string {
	if n == nil {
		return ""
	}
	space, local := "", name
	if i := strings.IndexByte(name, ':'); i > 0 {
		space, local = name[:i], name[i+1:]
	}
	uri := prefixURIs[space]

	for _, a := range n.Attr {
		if a.Name.Local != local {
			continue
		}
		if space == "" {
			if a.Name.Space == "" {
				return a.Value
			}
			continue
		}
		if a.Name.Space == space || (uri != "" && (a.Name.Space == uri || a.NamespaceURI == uri)) {
			return a.Value
		}
	}
	return ""
}

// Attrs copies every attribute into a map keyed by "prefix:local" (or
// "local" when unprefixed).
func Attrs(n *xmlquery.Node) map[string]string {
	if n == nil || len(n.Attr) == 0 {
		return nil
	}
	out := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		key := a.Name.Local
		if space := attrPrefix(a); space != "" {
			key = space + ":" + key
		}
		out[key] = a.Value
	}
	return out
}

func attrPrefix(a xmlquery.Attr) string {
	switch {
	case a.Name.Space == "":
		return ""
	case a.Name.Space == NamespaceLIMS || a.NamespaceURI == NamespaceLIMS:
		return "lims"
	case a.Name.Space == NamespaceXML || a.NamespaceURI == NamespaceXML:
		return "xml"
	default:
		return a.Name.Space
	}
}

// Elements returns the element children of n in document order.
func Elements(n *xmlquery.Node) []*xmlquery.Node {
	if n == nil {
		return nil
	}
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// Child returns the first element child named tag.
func Child(n *xmlquery.Node, tag string) *xmlquery.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == tag {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns every element child named tag.
func ChildrenNamed(n *xmlquery.Node, tag string) []*xmlquery.Node {
	var out []*xmlquery.Node
	for _, c := range Elements(n) {
		if c.Data == tag {
			out = append(out, c)
		}
	}
	return out
}

// Descendant returns the first descendant element named tag, depth first.
func Descendant(n *xmlquery.Node, tag string) *xmlquery.Node {
	for _, c := range Elements(n) {
		if c.Data == tag {
			return c
		}
		if d := Descendant(c, tag); d != nil {
			return d
		}
	}
	return nil
}

// ChildText returns the collapsed text of the first child named tag.
func ChildText(n *xmlquery.Node, tag string) string {
	c := Child(n, tag)
	if c == nil {
		return ""
	}
	return CollapseSpace(c.InnerText())
}

// Root returns the document element.
func Root(doc *xmlquery.Node) *xmlquery.Node {
	if doc == nil {
		return nil
	}
	if doc.Type == xmlquery.ElementNode {
		return doc
	}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return c
		}
	}
	return nil
}

// CollapseSpace trims s and folds internal whitespace runs to one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

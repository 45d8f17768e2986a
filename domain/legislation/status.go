package legislation

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"

	"github.com/emergent-company/lims-pipeline/domain/contenttree"
)

const dateLayout = "2006-01-02"

var repealedLead = regexp.MustCompile(`^\s*(?:\d+(?:\.\d+)*\s*)?\[\s*(?:Repealed|Abrogé|Abroge)`)

// parseDate reads a lims date attribute ("2019-06-21"); bad values are nil.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

// attrDate reads a date attribute from n.
func attrDate(n *xmlquery.Node, name string) *time.Time {
	return parseDate(contenttree.Attr(n, name))
}

// elementDate reads a <Date><YYYY/><MM/><DD/></Date> block.
func elementDate(n *xmlquery.Node) *time.Time {
	if n == nil {
		return nil
	}
	if d := contenttree.Child(n, "Date"); d != nil {
		n = d
	}
	year, err := strconv.Atoi(contenttree.ChildText(n, "YYYY"))
	if err != nil {
		return nil
	}
	month, day := 1, 1
	if m, err := strconv.Atoi(contenttree.ChildText(n, "MM")); err == nil {
		month = m
	}
	if d, err := strconv.Atoi(contenttree.ChildText(n, "DD")); err == nil {
		day = d
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return &t
}

// deriveStatus applies, in order: an explicit in-force="no" or a start date
// after the document's reference date gives not-in-force; repealed content
// gives repealed; anything else is in force.
func deriveStatus(n *xmlquery.Node, tree []contenttree.Node, reference *time.Time) Status {
	if strings.EqualFold(contenttree.Attr(n, "in-force"), "no") {
		return StatusNotInForce
	}
	if start := attrDate(n, "lims:inforce-start-date"); start != nil && reference != nil && start.After(*reference) {
		return StatusNotInForce
	}
	if isRepealed(tree) {
		return StatusRepealed
	}
	return StatusInForce
}

// isRepealed reports whether a section's content is a repeal notice.
func isRepealed(tree []contenttree.Node) bool {
	for _, n := range tree {
		switch n.Kind {
		case contenttree.KindRepealedSection, contenttree.KindRepealed:
			return true
		case contenttree.KindLabel, contenttree.KindMarginalNote, contenttree.KindHistoricalNote:
			continue
		case contenttree.KindTextBlock:
			return repealedLead.MatchString(contenttree.InlineText(n.Children))
		default:
			return false
		}
	}
	return false
}

package chunking

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MarkerType is the legal level a parenthesized marker opens.
type MarkerType string

const (
	MarkerNone         MarkerType = ""
	MarkerSubsection   MarkerType = "subsection"
	MarkerParagraph    MarkerType = "paragraph"
	MarkerSubparagraph MarkerType = "subparagraph"
	MarkerClause       MarkerType = "clause"
)

var (
	markerPattern = regexp.MustCompile(`\((\d+(?:\.\d+)?|[a-z]{1,5}|[A-Z])\)`)
	digitsPattern = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
)

// romanNumerals are the subparagraph numbers recognized, i to xv.
var romanNumerals = map[string]bool{
	"i": true, "ii": true, "iii": true, "iv": true, "v": true,
	"vi": true, "vii": true, "viii": true, "ix": true, "x": true,
	"xi": true, "xii": true, "xiii": true, "xiv": true, "xv": true,
}

// alwaysParagraph are letters that are also roman numerals (100, 500, 50,
// 1000) but never reach those values as subparagraph numbers.
var alwaysParagraph = map[string]bool{"c": true, "d": true, "l": true, "m": true}

// referenceWords precede markers that cite another provision rather than
// open a new unit ("under paragraph (a)").
var referenceWords = map[string]bool{
	"section": true, "sections": true, "subsection": true, "subsections": true,
	"paragraph": true, "paragraphs": true, "subparagraph": true, "subparagraphs": true,
	"clause": true, "clauses": true, "subclause": true, "article": true, "articles": true,
	"alinéa": true, "alinéas": true, "paragraphe": true, "paragraphes": true,
	"sous-alinéa": true, "sous-alinéas": true, "division": true, "divisions": true,
	"and": true, "or": true, "et": true, "ou": true, "to": true, "à": true,
}

// ClassifyMarker classifies a marker such as "(a)" or "iv" on its own.
// Single letters that are also roman numerals (i, v, x) read as
// subparagraphs; c, d, l and m always read as paragraphs.
func ClassifyMarker(marker string) MarkerType {
	return classify(strings.Trim(marker, "()"))
}

func classify(m string) MarkerType {
	switch {
	case m == "":
		return MarkerNone
	case digitsPattern.MatchString(m):
		return MarkerSubsection
	case len(m) == 1 && unicode.IsUpper(rune(m[0])):
		return MarkerClause
	case alwaysParagraph[m]:
		return MarkerParagraph
	case romanNumerals[m]:
		return MarkerSubparagraph
	case len(m) == 1 && m[0] >= 'a' && m[0] <= 'z':
		return MarkerParagraph
	default:
		return MarkerNone
	}
}

// LegalUnit is a span of text opened by a marker, or the leading text
// before the first marker.
type LegalUnit struct {
	Text   string
	Marker string
	Type   MarkerType
	// Start is the byte offset of Text in the scanned string.
	Start int
}

// SplitLegalUnits cuts text at every structural marker. Units are exact
// substrings in order, so joining their Text returns text.
func SplitLegalUnits(text string) []LegalUnit {
	if text == "" {
		return nil
	}

	type cut struct {
		at     int
		marker string
		typ    MarkerType
	}
	var cuts []cut
	for _, loc := range markerPattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[0], loc[1]
		if !standalone(text, start, end) {
			continue
		}
		m := text[loc[2]:loc[3]]
		typ := classify(m)
		if typ == MarkerNone {
			continue
		}
		cuts = append(cuts, cut{at: start, marker: text[start:end], typ: typ})
	}

	var units []LegalUnit
	pos := 0
	marker, typ := "", MarkerNone
	for _, c := range cuts {
		if c.at > pos {
			units = append(units, LegalUnit{Text: text[pos:c.at], Marker: marker, Type: typ, Start: pos})
		}
		pos, marker, typ = c.at, c.marker, c.typ
	}
	return append(units, LegalUnit{Text: text[pos:], Marker: marker, Type: typ, Start: pos})
}

// standalone reports whether the marker at text[start:end] opens a unit:
// it starts the text or a line, or follows a space that does not come
// after a reference word, and is followed by whitespace or the end.
func standalone(text string, start, end int) bool {
	if end < len(text) {
		if next, _ := utf8.DecodeRuneInString(text[end:]); !unicode.IsSpace(next) {
			return false
		}
	}
	if start == 0 {
		return true
	}
	before := text[:start]
	last := before[len(before)-1]
	if last == '\n' {
		return true
	}
	if last != ' ' && last != '\t' {
		return false
	}
	line := before[strings.LastIndexByte(before, '\n')+1:]
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}
	word := strings.ToLower(strings.TrimRight(fields[len(fields)-1], ",;:"))
	if i := strings.LastIndexAny(word, "'’"); i >= 0 {
		_, size := utf8.DecodeRuneInString(word[i:])
		word = word[i+size:]
	}
	return !referenceWords[word]
}

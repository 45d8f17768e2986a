// Package chunking splits section text into token-bounded chunks along
// legal boundaries (subsection, paragraph, subparagraph, clause) and tags
// each chunk with a bilingual resource key.
package chunking

import (
	"strings"

	"github.com/emergent-company/lims-pipeline/pkg/textsplitter"
	"github.com/emergent-company/lims-pipeline/pkg/tokenizer"
)

// Defaults used when Options leaves a budget unset.
const (
	DefaultMaxTokens     = 512
	DefaultOverlapTokens = 64
)

// headerSeparator joins the header to the body in chunk content.
const headerSeparator = "\n\n"

// Options configure splitting.
type Options struct {
	MaxTokens     int
	OverlapTokens int
	Counter       tokenizer.Counter
}

func (o Options) withDefaults() Options {
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.OverlapTokens < 0 {
		o.OverlapTokens = 0
	}
	if o.OverlapTokens >= o.MaxTokens {
		o.OverlapTokens = o.MaxTokens / 5
	}
	if o.Counter == nil {
		o.Counter = tokenizer.Segment
	}
	return o
}

// Piece is one chunk of a unit's text.
type Piece struct {
	// Content is the header followed by the trimmed body.
	Content string
	// Text is the exact body substring, overlap included.
	Text string
	// Overlap is the byte length of the prefix of Text repeated from the
	// previous piece.
	Overlap    int
	TokenCount int
	// OverBudget marks a piece that could not be cut below MaxTokens.
	OverBudget bool
}

// span is a contiguous byte range of the source text.
type span struct {
	start, end int
}

// Split cuts text into pieces that each fit MaxTokens together with the
// header. Cuts fall on legal-unit boundaries, then on sentence boundaries
// for units that are too long on their own. Consecutive pieces share up to
// OverlapTokens of trailing units. Joining Text[Overlap:] of every piece
// returns text.
func Split(header, text string, opts Options) []Piece {
	opts = opts.withDefaults()
	if strings.TrimSpace(text) == "" {
		return nil
	}

	s := splitter{header: header, text: text, opts: opts}
	if s.cost(0, len(text)) <= opts.MaxTokens {
		return []Piece{s.piece(0, len(text), 0)}
	}
	return s.pack(s.units())
}

type splitter struct {
	header string
	text   string
	opts   Options
}

// content renders a chunk body under the header.
func (s *splitter) content(body string) string {
	body = strings.TrimSpace(body)
	if s.header == "" {
		return body
	}
	return s.header + headerSeparator + body
}

func (s *splitter) cost(start, end int) int {
	return s.opts.Counter.Count(s.content(s.text[start:end]))
}

func (s *splitter) piece(start, end, overlap int) Piece {
	p := Piece{
		Content: s.content(s.text[start:end]),
		Text:    s.text[start:end],
		Overlap: overlap,
	}
	p.TokenCount = s.opts.Counter.Count(p.Content)
	p.OverBudget = p.TokenCount > s.opts.MaxTokens
	return p
}

// units returns legal units, with oversized units replaced by their
// sentences.
func (s *splitter) units() []span {
	var out []span
	for _, u := range SplitLegalUnits(s.text) {
		start, end := u.Start, u.Start+len(u.Text)
		if s.cost(start, end) <= s.opts.MaxTokens {
			out = append(out, span{start: start, end: end})
			continue
		}
		pos := start
		for _, sentence := range textsplitter.Sentences(u.Text) {
			out = append(out, span{start: pos, end: pos + len(sentence)})
			pos += len(sentence)
		}
	}
	return out
}

// pack greedily fills pieces with consecutive units. Each new piece is
// seeded with the longest tail of the previous piece that fits the overlap
// budget and still leaves room for the next unit.
func (s *splitter) pack(units []span) []Piece {
	var pieces []Piece
	first, overlap := 0, 0
	for {
		last := first + 1
		for last < len(units) && s.cost(units[first].start, units[last].end) <= s.opts.MaxTokens {
			last++
		}
		pieces = append(pieces, s.piece(units[first].start, units[last-1].end, overlap))
		if last == len(units) {
			return pieces
		}
		next := s.seed(units, first+1, last)
		overlap = units[last].start - units[next].start
		first = next
	}
}

// seed picks where the piece containing unit next starts: the earliest
// unit k in [floor, next) whose tail fits the overlap budget and leaves
// room for unit next, or next itself.
func (s *splitter) seed(units []span, floor, next int) int {
	if s.opts.OverlapTokens == 0 {
		return next
	}
	for k := floor; k < next; k++ {
		tail := s.opts.Counter.Count(s.text[units[k].start:units[next].start])
		if tail > s.opts.OverlapTokens {
			continue
		}
		if s.cost(units[k].start, units[next].end) <= s.opts.MaxTokens {
			return k
		}
	}
	return next
}

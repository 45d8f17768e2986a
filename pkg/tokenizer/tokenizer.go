// Package tokenizer counts tokens with a deterministic word-segment model.
//
// Text is segmented with Unicode word boundaries (UAX #29). Each word or
// number costs one token per started group of CharsPerToken runes, each
// ideographic or kana rune costs one token, each punctuation or symbol
// rune costs one token, and whitespace is free. The same counter must be
// used for sizing and splitting so that budgets stay consistent.
package tokenizer

import (
	"unicode"
	"unicode/utf8"

	"github.com/blevesearch/segment"
)

// CharsPerToken approximates sub-word pieces for long words.
const CharsPerToken = 4

// Counter counts tokens in a string.
type Counter interface {
	Count(text string) int
}

// CounterFunc adapts a function to Counter.
type CounterFunc func(string) int

// Count implements Counter.
func (f CounterFunc) Count(text string) int { return f(text) }

// Segment is the default Counter.
var Segment Counter = CounterFunc(Count)

// Count returns the token count of text.
func Count(text string) int {
	if text == "" {
		return 0
	}

	total := 0
	seg := segment.NewWordSegmenterDirect([]byte(text))
	for seg.Segment() {
		piece := seg.Bytes()
		switch seg.Type() {
		case segment.Letter, segment.Number:
			n := utf8.RuneCount(piece)
			total += (n + CharsPerToken - 1) / CharsPerToken
		case segment.Ideo, segment.Kana:
			total += utf8.RuneCount(piece)
		default:
			for _, r := range string(piece) {
				if !unicode.IsSpace(r) {
					total++
				}
			}
		}
	}
	if seg.Err() != nil {
		return fallbackCount(text)
	}
	return total
}

// fallbackCount is used only if segmentation fails; it charges one token
// per CharsPerToken non-space runes.
func fallbackCount(text string) int {
	n := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return (n + CharsPerToken - 1) / CharsPerToken
}

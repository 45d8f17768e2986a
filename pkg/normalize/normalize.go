// Package normalize folds legislative terms into matching keys so that
// English and French spellings of the same word compare equal.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ligatures do not decompose under NFD and must be expanded first.
var ligatures = strings.NewReplacer(
	"œ", "oe", "Œ", "oe",
	"æ", "ae", "Æ", "ae",
	"ﬁ", "fi", "ﬂ", "fl",
	"ß", "ss",
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Term returns the matching key for text. The result is lowercase, free of
// diacritics, ligatures and punctuation, with dashes turned into spaces and
// whitespace collapsed. Term is idempotent and never fails: input without any
// letters or digits yields "".
func Term(text string) string {
	if text == "" {
		return ""
	}

	s := ligatures.Replace(strings.ToLower(text))
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r) || isDash(r):
			pendingSpace = true
		}
	}
	return b.String()
}

// Equal reports whether a and b share a matching key.
func Equal(a, b string) bool {
	return Term(a) == Term(b)
}

func isDash(r rune) bool {
	switch r {
	case '-', '‐', '‑', '‒', '–', '—', '―', '−':
		return true
	}
	return false
}

package textsplitter

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// abbreviations never end a sentence. Legislative citations are dense with
// them ("R.S., 1985, c. A-1, s. 2").
var abbreviations = map[string]bool{
	"s": true, "ss": true, "c": true, "ch": true, "p": true, "pp": true,
	"no": true, "nos": true, "art": true, "arts": true, "al": true,
	"para": true, "subpara": true, "sch": true, "vol": true, "eg": true,
	"ie": true, "etc": true, "mr": true, "mrs": true, "ms": true, "dr": true,
	"st": true, "ste": true, "rs": true, "rsc": true, "sor": true, "si": true,
	"dors": true, "tr": true, "l": true, "ann": true, "cf": true, "vs": true,
}

// Sentences splits text after '.', '!' or '?' when the terminator is
// followed by whitespace and the next word starts a new sentence. Pieces
// keep their trailing whitespace, so joining them returns text unchanged.
func Sentences(text string) []string {
	if strings.TrimSpace(text) == "" {
		if text == "" {
			return nil
		}
		return []string{text}
	}

	var pieces []string
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		if r != '.' && r != '!' && r != '?' {
			continue
		}

		// absorb runs of terminators and closing punctuation
		end := i
		for end < len(text) {
			next, n := utf8.DecodeRuneInString(text[end:])
			if !isTerminator(next) && !isCloser(next) {
				break
			}
			end += n
		}

		ws := end
		for ws < len(text) {
			next, n := utf8.DecodeRuneInString(text[ws:])
			if !unicode.IsSpace(next) {
				break
			}
			ws += n
		}
		if ws == end || ws == len(text) {
			i = end
			continue
		}
		if r == '.' && isAbbreviation(text[start:i-size]) {
			i = end
			continue
		}
		if !startsSentence(text[ws:]) {
			i = end
			continue
		}

		pieces = append(pieces, text[start:ws])
		start = ws
		i = ws
	}
	if start < len(text) {
		pieces = append(pieces, text[start:])
	}
	return pieces
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isCloser(r rune) bool {
	switch r {
	case ')', ']', '"', '\'', '»', '”', '’':
		return true
	}
	return false
}

// isAbbreviation reports whether the word right before a period is a known
// abbreviation or a single letter.
func isAbbreviation(before string) bool {
	j := len(before)
	for j > 0 {
		r, n := utf8.DecodeLastRuneInString(before[:j])
		if !unicode.IsLetter(r) && r != '.' {
			break
		}
		j -= n
	}
	word := strings.ToLower(strings.ReplaceAll(before[j:], ".", ""))
	if word == "" {
		return false
	}
	if utf8.RuneCountInString(word) == 1 {
		return true
	}
	return abbreviations[word]
}

func startsSentence(rest string) bool {
	r, _ := utf8.DecodeRuneInString(rest)
	return unicode.IsUpper(r) || unicode.IsDigit(r) || r == '(' || r == '[' || r == '«' || r == '"' || r == '“'
}

// Package reskey builds the deterministic keys that identify one chunk of
// one unit in one language, and pairs English keys with their French
// counterparts.
//
// A key has the form
//
//	{sourceType}:{naturalID}:{language}:{chunkIndex}
//
// The natural id may itself contain ':'; parsing splits on the first and
// the last two separators only.
package reskey

import (
	"fmt"
	"strconv"
	"strings"
)

// SourceType distinguishes units that may share a natural id.
type SourceType string

const (
	ActSection        SourceType = "act_section"
	RegulationSection SourceType = "regulation_section"
	Schedule          SourceType = "schedule"
	DefinedTerm       SourceType = "defined_term"
	Footnote          SourceType = "footnote"
	Treaty            SourceType = "treaty"
	CrossReference    SourceType = "cross_reference"
	Publication       SourceType = "publication"
)

// Key is a parsed resource key.
type Key struct {
	Source     SourceType
	NaturalID  string
	Language   string
	ChunkIndex int
}

// String renders the key.
func (k Key) String() string {
	return Build(k.Source, k.NaturalID, k.Language, k.ChunkIndex)
}

// Paired returns the same key in the other official language.
func (k Key) Paired() Key {
	k.Language = OtherLanguage(k.Language)
	return k
}

// Build renders a resource key.
func Build(source SourceType, naturalID, language string, chunkIndex int) string {
	return fmt.Sprintf("%s:%s:%s:%d", source, naturalID, language, chunkIndex)
}

// Paired flips the language segment of key. Keys that do not parse are
// returned unchanged.
func Paired(key string) string {
	k, err := Parse(key)
	if err != nil {
		return key
	}
	return k.Paired().String()
}

// Prefix returns the key prefix shared by every chunk of one unit in one
// language, suitable for tracker prefix queries.
func Prefix(source SourceType, naturalID, language string) string {
	return fmt.Sprintf("%s:%s:%s:", source, naturalID, language)
}

// Parse splits a key into its parts.
func Parse(key string) (Key, error) {
	first := strings.IndexByte(key, ':')
	last := strings.LastIndexByte(key, ':')
	if first < 0 || last <= first {
		return Key{}, fmt.Errorf("resource key %q: too few segments", key)
	}
	langSep := strings.LastIndexByte(key[:last], ':')
	if langSep <= first {
		return Key{}, fmt.Errorf("resource key %q: too few segments", key)
	}

	index, err := strconv.Atoi(key[last+1:])
	if err != nil || index < 0 {
		return Key{}, fmt.Errorf("resource key %q: invalid chunk index", key)
	}
	return Key{
		Source:     SourceType(key[:first]),
		NaturalID:  key[first+1 : langSep],
		Language:   key[langSep+1 : last],
		ChunkIndex: index,
	}, nil
}

// frenchInstruments maps the French forms of regulation numbers onto the
// English ones.
var frenchInstruments = []struct{ fr, en string }{
	{"DORS/", "SOR/"},
	{"TR/", "SI/"},
	{"C.R.C., ch. ", "C.R.C., c. "},
}

// NaturalDocumentID returns the id shared by both language versions of a
// document. Acts carry the same chapter number in English and French;
// regulation numbers are printed as SOR/, SI/ and C.R.C., c. in English
// and DORS/, TR/ and C.R.C., ch. in French, and map to the English form.
func NaturalDocumentID(id string) string {
	id = strings.TrimSpace(id)
	for _, p := range frenchInstruments {
		if strings.HasPrefix(id, p.fr) {
			return p.en + id[len(p.fr):]
		}
	}
	return id
}

// OtherLanguage maps en to fr and fr to en. Other values pass through.
func OtherLanguage(lang string) string {
	switch lang {
	case "en":
		return "fr"
	case "fr":
		return "en"
	default:
		return lang
	}
}

package reskey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	assert.Equal(t, "act_section:sec-1:en:0", Build(ActSection, "sec-1", "en", 0))
	assert.Equal(t, "schedule:SOR/2007-151/4:fr:2", Build(Schedule, "SOR/2007-151/4", "fr", 2))
}

func TestPairedKeys(t *testing.T) {
	en := Build(ActSection, "sec-1", "en", 0)
	fr := Build(ActSection, "sec-1", "fr", 0)

	assert.NotEqual(t, en, fr)
	assert.Equal(t, fr, Paired(en))
	assert.Equal(t, en, Paired(fr))
	assert.Equal(t, en, Paired(Paired(en)))
}

func TestSourceTypesDoNotCollide(t *testing.T) {
	section := Build(ActSection, "A-1/12", "en", 0)
	schedule := Build(Schedule, "A-1/12", "en", 0)
	regulation := Build(RegulationSection, "A-1/12", "en", 0)

	assert.NotEqual(t, section, schedule)
	assert.NotEqual(t, section, regulation)
	assert.NotEqual(t, schedule, regulation)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want Key
	}{
		{
			name: "simple",
			key:  "act_section:sec-1:en:0",
			want: Key{Source: ActSection, NaturalID: "sec-1", Language: "en", ChunkIndex: 0},
		},
		{
			name: "natural id with colon",
			key:  "cross_reference:C-46:s:12:fr:3",
			want: Key{Source: CrossReference, NaturalID: "C-46:s:12", Language: "fr", ChunkIndex: 3},
		},
		{
			name: "natural id with slashes",
			key:  "regulation_section:SOR/2007-151/0:en:11",
			want: Key{Source: RegulationSection, NaturalID: "SOR/2007-151/0", Language: "en", ChunkIndex: 11},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.key, got.String())
		})
	}
}

func TestParseInvalid(t *testing.T) {
	for _, key := range []string{"", "act_section", "act_section:x", "a:b:c:notanumber", "a:b:c:-1"} {
		_, err := Parse(key)
		assert.Error(t, err, "key %q", key)
	}
	assert.Equal(t, "garbage", Paired("garbage"))
}

func TestPrefix(t *testing.T) {
	p := Prefix(DefinedTerm, "A-1/2/access", "en")
	assert.Equal(t, "defined_term:A-1/2/access:en:", p)
	assert.Contains(t, Build(DefinedTerm, "A-1/2/access", "en", 5), p)
}

func TestOtherLanguage(t *testing.T) {
	assert.Equal(t, "fr", OtherLanguage("en"))
	assert.Equal(t, "en", OtherLanguage("fr"))
	assert.Equal(t, "de", OtherLanguage("de"))
}

func TestNaturalDocumentID(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"A-1", "A-1"},
		{"C-46", "C-46"},
		{"SOR/2007-151", "SOR/2007-151"},
		{"DORS/2007-151", "SOR/2007-151"},
		{" DORS/2020-15 ", "SOR/2020-15"},
		{"SI/2000-1", "SI/2000-1"},
		{"TR/2000-1", "SI/2000-1"},
		{"C.R.C., c. 870", "C.R.C., c. 870"},
		{"C.R.C., ch. 870", "C.R.C., c. 870"},
		{"DORSAL-1", "DORSAL-1"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got := NaturalDocumentID(tt.id)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, NaturalDocumentID(got))
		})
	}
}

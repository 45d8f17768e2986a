package textsplitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "empty",
			in:   "",
			want: nil,
		},
		{
			name: "single sentence",
			in:   "This Act may be cited as the Access to Information Act.",
			want: []string{"This Act may be cited as the Access to Information Act."},
		},
		{
			name: "two sentences",
			in:   "The Minister may act. The Governor in Council may not.",
			want: []string{"The Minister may act. ", "The Governor in Council may not."},
		},
		{
			name: "question and exclamation",
			in:   "Is it so? Yes! It is.",
			want: []string{"Is it so? ", "Yes! ", "It is."},
		},
		{
			name: "citation abbreviations do not split",
			in:   "R.S., 1985, c. A-1, s. 2. Next sentence.",
			want: []string{"R.S., 1985, c. A-1, s. 2. ", "Next sentence."},
		},
		{
			name: "lowercase continuation does not split",
			in:   "see the Act. and also the Regulations.",
			want: []string{"see the Act. and also the Regulations."},
		},
		{
			name: "closing parenthesis absorbed",
			in:   "It applies (see section 3.) The rest follows.",
			want: []string{"It applies (see section 3.) ", "The rest follows."},
		},
		{
			name: "no punctuation",
			in:   "word word word word",
			want: []string{"word word word word"},
		},
		{
			name: "decimal number is not a boundary",
			in:   "Section 3.1 applies.",
			want: []string{"Section 3.1 applies."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sentences(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, strings.Join(got, ""))
		})
	}
}

func TestSentencesWhitespaceOnly(t *testing.T) {
	assert.Equal(t, []string{"  "}, Sentences("  "))
}

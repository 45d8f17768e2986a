package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCount(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"whitespace only", " \n\t ", 0},
		{"short word", "Act", 1},
		{"four letters", "this", 1},
		{"five letters", "means", 2},
		{"sentence", "This Act may be cited", 6},
		{"punctuation", "(a)", 3},
		{"number", "1985", 1},
		{"accented", "définition", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Count(tt.in))
		})
	}
}

func TestCountDeterministic(t *testing.T) {
	text := strings.Repeat("The Minister may, by order, amend Schedule 1. ", 20)
	first := Count(text)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Count(text))
	}
}

func TestCountAdditiveOverWhitespace(t *testing.T) {
	a := "Her Majesty, by and with the advice"
	b := "and consent of the Senate"
	assert.Equal(t, Count(a)+Count(b), Count(a+" "+b))
}

func TestCounterFunc(t *testing.T) {
	var c Counter = CounterFunc(func(s string) int { return len(s) })
	assert.Equal(t, 3, c.Count("abc"))
	assert.Equal(t, Count("abc def"), Segment.Count("abc def"))
}

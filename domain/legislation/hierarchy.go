package legislation

// heading is one open entry of the heading stack.
type heading struct {
	level int
	text  string
}

// headingStack is the chain of headings enclosing the current position of
// a body walk. It is a value: push returns a new stack and never mutates
// the receiver, so snapshots taken earlier stay valid.
type headingStack []heading

// push pops every entry at or below level and appends the new heading.
func (s headingStack) push(level int, text string) headingStack {
	n := len(s)
	for n > 0 && s[n-1].level >= level {
		n--
	}
	out := make(headingStack, n, n+1)
	copy(out, s[:n])
	return append(out, heading{level: level, text: text})
}

// ancestors returns the stack as it stands for a heading of the given
// level, before that heading is pushed.
func (s headingStack) ancestors(level int) headingStack {
	n := len(s)
	for n > 0 && s[n-1].level >= level {
		n--
	}
	return s[:n]
}

// path snapshots the heading texts, outermost first.
func (s headingStack) path() []string {
	out := make([]string, len(s))
	for i, h := range s {
		out[i] = h.text
	}
	return out
}

// child pushes text one level below the innermost open heading.
func (s headingStack) child(text string) headingStack {
	level := 1
	if len(s) > 0 {
		level = s[len(s)-1].level + 1
	}
	return s.push(level, text)
}

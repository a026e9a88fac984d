package normalize

import "strings"

// span is a half-open byte range [start, end) of document text.
type span struct {
	start, end int
}

// document is the value threaded through the stages. Besides the text it
// carries the parenthesized ranges whose commas must survive the numeric
// list rewrite; stages that do not know about them never see them set.
type document struct {
	text      string
	protected []span
}

// protectedAt returns a lookup reporting whether byte i lies in a protected
// span. Spans are sorted and disjoint, and the lookup must be queried with
// ascending i; it keeps a cursor so a whole scan costs O(len + spans).
func (d *document) protectedAt() func(i int) bool {
	k := 0
	return func(i int) bool {
		for k < len(d.protected) && d.protected[k].end <= i {
			k++
		}
		return k < len(d.protected) && i >= d.protected[k].start
	}
}

// edit replaces text[start:end] with repl.
type edit struct {
	start, end int
	repl       string
}

// applyEdits applies non-overlapping edits sorted by start.
func applyEdits(s string, edits []edit) string {
	if len(edits) == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, e := range edits {
		b.WriteString(s[last:e.start])
		b.WriteString(e.repl)
		last = e.end
	}
	b.WriteString(s[last:])
	return b.String()
}

// shiftSpans moves sorted spans to account for sorted edits that all lie
// outside them.
func shiftSpans(spans []span, edits []edit) []span {
	if len(spans) == 0 || len(edits) == 0 {
		return spans
	}
	out := make([]span, 0, len(spans))
	delta, k := 0, 0
	for _, p := range spans {
		for k < len(edits) && edits[k].end <= p.start {
			delta += len(edits[k].repl) - (edits[k].end - edits[k].start)
			k++
		}
		out = append(out, span{p.start + delta, p.end + delta})
	}
	return out
}

// digitSeparatorEdits finds every sep byte that sits between two ASCII digits,
// allowing whitespace on either side, and returns edits replacing the
// whitespace and separator with repl. Positions for which skip reports true
// are left alone; skip is called with ascending positions.
func digitSeparatorEdits(s string, sep byte, repl string, skip func(int) bool) []edit {
	var edits []edit
	for i := 0; i < len(s); i++ {
		if s[i] != sep || (skip != nil && skip(i)) {
			continue
		}
		l := i
		for l > 0 && isSpace(s[l-1]) {
			l--
		}
		if l == 0 || !isDigit(s[l-1]) {
			continue
		}
		r := i + 1
		for r < len(s) && isSpace(s[r]) {
			r++
		}
		if r == len(s) || !isDigit(s[r]) {
			continue
		}
		edits = append(edits, edit{start: l, end: r, repl: repl})
	}
	return edits
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

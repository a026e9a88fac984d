// Package chunking splits normalized text into length-bounded pieces for a
// speech generator, preferring sentence boundaries, then clause (comma)
// boundaries, then word boundaries.
package chunking

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxChars is the chunk length used when the caller has no preference.
const DefaultMaxChars = 250

// ErrInvalidMaxChars is returned for a non-positive chunk length.
var ErrInvalidMaxChars = errors.New("chunking: max chars must be positive")

// Split breaks text into chunks of at most maxChars runes. Sentences are
// packed greedily; a sentence longer than maxChars is first cut at its last
// comma, else its last space, else exactly at maxChars.
func Split(text string, maxChars int) ([]string, error) {
	if maxChars <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxChars, maxChars)
	}

	var chunks []string
	var current string
	currentLen := 0

	for _, sentence := range Sentences(text) {
		for _, piece := range splitLong(sentence, maxChars) {
			n := utf8.RuneCountInString(piece)
			switch {
			case current == "":
				current, currentLen = piece, n
			case currentLen+1+n <= maxChars:
				current += " " + piece
				currentLen += 1 + n
			default:
				chunks = append(chunks, current)
				current, currentLen = piece, n
			}
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks, nil
}

// Sentences splits text at whitespace that follows '.', '?' or '!'. The split
// is suppressed after dotted abbreviations and decimals ("U.S.", "3.5.") and
// after title abbreviations ("Mr."). Sentences are trimmed; empty ones are
// dropped.
func Sentences(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0
	for i, r := range runes {
		if !unicode.IsSpace(r) || !isSentenceBreak(runes, i) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start:i])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

// isSentenceBreak reports whether the whitespace at runes[i] ends a sentence.
func isSentenceBreak(runes []rune, i int) bool {
	if i == 0 {
		return false
	}
	switch runes[i-1] {
	case '.', '?', '!':
	default:
		return false
	}
	if i >= 4 && isWord(runes[i-4]) && runes[i-3] == '.' && isWord(runes[i-2]) {
		return false
	}
	if i >= 3 && unicode.IsUpper(runes[i-3]) && unicode.IsLower(runes[i-2]) && runes[i-1] == '.' {
		return false
	}
	return true
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// splitLong cuts a sentence into pieces of at most maxChars runes. The rune
// slice is decoded once and walked with a start offset.
func splitLong(sentence string, maxChars int) []string {
	r := []rune(sentence)
	if len(r) <= maxChars {
		return []string{sentence}
	}

	var parts []string
	start := 0
	for len(r)-start > maxChars {
		cut := start + breakPoint(r[start:], maxChars)
		if p := strings.TrimSpace(string(r[start:cut])); p != "" {
			parts = append(parts, p)
		}
		start = skipSpace(r, cut)
	}
	if start < len(r) {
		parts = append(parts, strings.TrimSpace(string(r[start:])))
	}
	return parts
}

func skipSpace(r []rune, i int) int {
	for i < len(r) && unicode.IsSpace(r[i]) {
		i++
	}
	return i
}

// breakPoint picks where to cut r, which is longer than maxChars. A comma
// stays with the piece before it, so the cut falls right after it.
func breakPoint(r []rune, maxChars int) int {
	if i := lastIndex(r[:maxChars], ','); i >= 0 {
		return i + 1
	}
	if i := lastIndex(r[:maxChars+1], ' '); i > 0 {
		return i
	}
	return maxChars
}

func lastIndex(r []rune, target rune) int {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i] == target {
			return i
		}
	}
	return -1
}

// Package numwords spells non-negative integers as English cardinal words.
package numwords

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotDigits is returned when the input contains anything but ASCII digits.
	ErrNotDigits = errors.New("numwords: input is not a digit sequence")
	// ErrOutOfRange is returned when the number is larger than the biggest scale word.
	ErrOutOfRange = errors.New("numwords: number too large to spell")
)

var ones = []string{
	"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
	"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen",
	"seventeen", "eighteen", "nineteen",
}

var tens = []string{
	"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety",
}

// scales[i] names the group 10^(3*i).
var scales = []string{
	"", "thousand", "million", "billion", "trillion", "quadrillion",
	"quintillion", "sextillion", "septillion", "octillion", "nonillion", "decillion",
}

// Convert spells the digit run s as words, e.g. "1234" ->
// "one thousand two hundred and thirty-four". Leading zeros are ignored.
func Convert(s string) (string, error) {
	if s == "" {
		return "", ErrNotDigits
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return "", fmt.Errorf("%w: %q", ErrNotDigits, s)
		}
	}

	s = strings.TrimLeft(s, "0")
	if s == "" {
		return ones[0], nil
	}
	if len(s) > 3*len(scales) {
		return "", fmt.Errorf("%w: %d digits", ErrOutOfRange, len(s))
	}

	groups := splitGroups(s)
	var words []string
	for i, g := range groups {
		if g == 0 {
			continue
		}
		scale := len(groups) - 1 - i
		// The last group joins with "and" when it has no hundreds and
		// something bigger was already spoken: "one thousand and five".
		if scale == 0 && g < 100 && len(words) > 0 {
			words = append(words, "and")
		}
		words = append(words, spellGroup(g))
		if scales[scale] != "" {
			words = append(words, scales[scale])
		}
	}
	return strings.Join(words, " "), nil
}

// Int spells a non-negative int. Negative values are spelled as their
// absolute value prefixed with "minus".
func Int(n int) string {
	if n < 0 {
		w, _ := Convert(strings.TrimPrefix(fmt.Sprint(n), "-"))
		return "minus " + w
	}
	w, _ := Convert(fmt.Sprint(n))
	return w
}

// splitGroups splits a digit string into three-digit groups, most significant first.
func splitGroups(s string) []int {
	head := len(s) % 3
	if head == 0 {
		head = 3
	}
	groups := []int{atoi(s[:head])}
	for i := head; i < len(s); i += 3 {
		groups = append(groups, atoi(s[i:i+3]))
	}
	return groups
}

func atoi(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}

// spellGroup spells 1..999.
func spellGroup(n int) string {
	var parts []string
	if h := n / 100; h > 0 {
		parts = append(parts, ones[h], "hundred")
		n %= 100
		if n > 0 {
			parts = append(parts, "and")
		}
	}
	switch {
	case n == 0:
	case n < 20:
		parts = append(parts, ones[n])
	case n%10 == 0:
		parts = append(parts, tens[n/10])
	default:
		parts = append(parts, tens[n/10]+"-"+ones[n%10])
	}
	return strings.Join(parts, " ")
}

package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// stage is one rewrite pass. Stages run in the order of pipeline.
type stage struct {
	name    string
	rewrite func(n *Normalizer, d *document) error
}

// pipeline is the fixed stage order. Later stages rely on earlier ones having
// resolved ambiguity, so entries must not be reordered.
var pipeline = []stage{
	{"mojibake", textStage(repairMojibake)},
	{"shouting-case", textStage(foldShouting)},
	{"complement", textStage(rewriteComplement)},
	{"ellipsis", textStage(collapseEllipsis)},
	{"set-builder", textStage(rewriteSetBuilder)},
	{"cardinality", textStage(rewriteCardinality)},
	{"brace-set", (*Normalizer).rewriteBraceSets},
	{"protect-ordered-pairs", protectOrderedPairs},
	{"numeric-list-commas", rewriteNumericLists},
	{"restore-commas", restoreCommas},
	{"arithmetic", textStage(rewriteArithmetic)},
	{"cartesian-product", textStage(rewriteCartesian)},
	{"symbols", (*Normalizer).replaceSymbols},
	{"numbers", (*Normalizer).spellNumbers},
	{"ordered-pairs", textStage(rewriteOrderedPairs)},
	{"exponents", textStage(rewriteExponents)},
	{"unicode-names", (*Normalizer).nameUnicode},
	{"cleanup", textStage(cleanup)},
}

func textStage(fn func(string) string) func(*Normalizer, *document) error {
	return func(_ *Normalizer, d *document) error {
		d.text = fn(d.text)
		return nil
	}
}

var (
	mojibakeRe    = regexp.MustCompile(`(?i)â\s*euro\s*sign\s*"?`)
	shoutingRe    = regexp.MustCompile(`\b[A-Z]{4,}\b`)
	complementRe  = regexp.MustCompile(`\b([A-Za-z])\s*(?:['’′]|\^\s*c\b)`)
	ellipsisRe    = regexp.MustCompile(`\.{2,}`)
	setBuilderRe  = regexp.MustCompile(`\{\s*(.*?)\s*\|\s*(.*?)\s*\}`)
	cardinalityRe = regexp.MustCompile(`\|\s*(.*?)\s*\|`)
	braceSetRe    = regexp.MustCompile(`\{(.*?)\}`)
	pairInSetRe   = regexp.MustCompile(`\([^()]+,[^()]+\)`)
	parenSpanRe   = regexp.MustCompile(`\([^()]+?\)`)
	crossRe       = regexp.MustCompile(`\b([A-Za-z])\s*×\s*([A-Za-z])\b`)
	digitRunRe    = regexp.MustCompile(`[0-9]+`)
	orderedPairRe = regexp.MustCompile(`\(\s*([^,()]+)\s*,\s*([^,()]+)\s*\)`)
	exponentRe    = regexp.MustCompile(`([\p{L}\p{N}_]+)\s*\^\s*([\p{L}\p{N}_]+)`)
	semicolonRe   = regexp.MustCompile(`\s*;\s*`)
	spaceRunRe    = regexp.MustCompile(`\s+`)
)

func repairMojibake(s string) string {
	return mojibakeRe.ReplaceAllLiteralString(s, "—")
}

// foldShouting lowercases runs of four or more capitals. Shorter acronyms
// stay as they are so they are spelled out letter by letter.
func foldShouting(s string) string {
	return shoutingRe.ReplaceAllStringFunc(s, strings.ToLower)
}

// rewriteComplement turns A', A’, A′ and A^c into "A complement".
func rewriteComplement(s string) string {
	return complementRe.ReplaceAllString(s, "${1} complement")
}

func collapseEllipsis(s string) string {
	return ellipsisRe.ReplaceAllLiteralString(s, ".")
}

func rewriteSetBuilder(s string) string {
	return setBuilderRe.ReplaceAllString(s, " the set of ${1} such that ${2} ")
}

func rewriteCardinality(s string) string {
	return cardinalityRe.ReplaceAllString(s, " the number of elements in ${1} ")
}

// rewriteBraceSets speaks {1, 2, 3} as "the set of one; two; three". Sets of
// ordered pairs keep their inner text so the pairs survive intact.
func (n *Normalizer) rewriteBraceSets(d *document) error {
	out, err := replaceAllSubmatchFunc(braceSetRe, d.text, func(m []string) (string, error) {
		inner := m[1]
		if pairInSetRe.MatchString(inner) {
			return " the set of " + inner + " ", nil
		}
		spoken, err := n.speakList(inner)
		if err != nil {
			return "", err
		}
		return " the set of " + spoken + " ", nil
	})
	if err != nil {
		return err
	}
	d.text = out
	return nil
}

func (n *Normalizer) speakList(items string) (string, error) {
	var spoken []string
	for _, p := range strings.Split(items, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if allDigits(p) {
			w, err := n.numbers(p)
			if err != nil {
				return "", err
			}
			p = w
		}
		spoken = append(spoken, p)
	}
	return strings.Join(spoken, "; "), nil
}

// protectOrderedPairs marks every innermost parenthesized span so the next
// stage leaves coordinate commas alone.
func protectOrderedPairs(_ *Normalizer, d *document) error {
	d.protected = d.protected[:0]
	for _, loc := range parenSpanRe.FindAllStringIndex(d.text, -1) {
		d.protected = append(d.protected, span{start: loc[0], end: loc[1]})
	}
	return nil
}

// rewriteNumericLists reads "3, 4" as two numbers: a comma between digits
// outside protected spans becomes a spoken list separator.
func rewriteNumericLists(_ *Normalizer, d *document) error {
	edits := digitSeparatorEdits(d.text, ',', "; ", d.protectedAt())
	d.text = applyEdits(d.text, edits)
	d.protected = shiftSpans(d.protected, edits)
	return nil
}

func restoreCommas(_ *Normalizer, d *document) error {
	d.protected = nil
	return nil
}

func rewriteArithmetic(s string) string {
	s = strings.ReplaceAll(s, "+", " plus ")
	return applyEdits(s, digitSeparatorEdits(s, '-', " minus ", nil))
}

func rewriteCartesian(s string) string {
	s = crossRe.ReplaceAllString(s, "${1} cross ${2}")
	return strings.ReplaceAll(s, "×", " cross ")
}

func (n *Normalizer) replaceSymbols(d *document) error {
	d.text = n.symbols.Replace(d.text)
	return nil
}

// spellNumbers spells every digit run that stands as its own word. Runs
// touching a letter or number in any script ("x2", "é2") are left alone.
func (n *Normalizer) spellNumbers(d *document) error {
	var b strings.Builder
	last := 0
	for _, loc := range digitRunRe.FindAllStringIndex(d.text, -1) {
		if !wordBounded(d.text, loc[0], loc[1]) {
			continue
		}
		w, err := n.numbers(d.text[loc[0]:loc[1]])
		if err != nil {
			return err
		}
		b.WriteString(d.text[last:loc[0]])
		b.WriteString(w)
		last = loc[1]
	}
	if last == 0 {
		return nil
	}
	b.WriteString(d.text[last:])
	d.text = b.String()
	return nil
}

func rewriteOrderedPairs(s string) string {
	return orderedPairRe.ReplaceAllString(s, "${1} comma ${2}")
}

func rewriteExponents(s string) string {
	return exponentRe.ReplaceAllString(s, "${1} to the power of ${2}")
}

// nameUnicode replaces leftover non-ASCII symbols with their Unicode names.
// Letters and numbers in any script pass through; unnamed symbols are dropped.
func (n *Normalizer) nameUnicode(d *document) error {
	var b strings.Builder
	b.Grow(len(d.text))
	for _, r := range d.text {
		if r <= unicode.MaxASCII || unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
			continue
		}
		if name, ok := n.names(r); ok {
			b.WriteString(" ")
			b.WriteString(strings.ToLower(name))
			b.WriteString(" ")
		}
	}
	d.text = b.String()
	return nil
}

func cleanup(s string) string {
	s = semicolonRe.ReplaceAllLiteralString(s, "; ")
	s = spaceRunRe.ReplaceAllLiteralString(s, " ")
	return strings.TrimSpace(s)
}

// wordBounded reports whether s[start:end] has no word rune directly before
// or after it.
func wordBounded(s string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(s[:start]); isWordRune(r) {
			return false
		}
	}
	if end < len(s) {
		if r, _ := utf8.DecodeRuneInString(s[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

// replaceAllSubmatchFunc is regexp.ReplaceAllStringFunc with access to the
// submatches and an error return; the first error aborts the rewrite.
func replaceAllSubmatchFunc(re *regexp.Regexp, s string, fn func(m []string) (string, error)) (string, error) {
	locs := re.FindAllStringSubmatchIndex(s, -1)
	if len(locs) == 0 {
		return s, nil
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		m := make([]string, len(loc)/2)
		for i := range m {
			if loc[2*i] >= 0 {
				m[i] = s[loc[2*i]:loc[2*i+1]]
			}
		}
		repl, err := fn(m)
		if err != nil {
			return "", err
		}
		b.WriteString(s[last:loc[0]])
		b.WriteString(repl)
		last = loc[1]
	}
	b.WriteString(s[last:])
	return b.String(), nil
}

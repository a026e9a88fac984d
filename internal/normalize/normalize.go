// Package normalize rewrites mathematical and symbolic notation in English
// text into words a speech synthesizer can read aloud.
//
// Normalization is an ordered sequence of rewrite stages (see Stages). Each
// stage takes the previous stage's output; the order is part of the contract
// because later stages assume earlier ones already resolved ambiguity, e.g.
// digit runs are spelled out only after every comma between digits has been
// classified as a list separator or a coordinate separator.
//
// A Normalizer holds no mutable state and is safe for concurrent use.
package normalize

import (
	"fmt"
	"strings"

	"github.com/lukasbauer/speakable/internal/numwords"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/unicode/runenames"
)

// NumberSpeller spells a run of ASCII digits as words.
type NumberSpeller func(digits string) (string, error)

// NameResolver returns the Unicode name of r, or false if r has none.
type NameResolver func(r rune) (string, bool)

// Config configures a Normalizer. Zero fields select the defaults.
type Config struct {
	Symbols SymbolTable   // default: DefaultSymbols()
	Numbers NumberSpeller // default: numwords.Convert
	Names   NameResolver  // default: Unicode character database names
	Compose bool          // apply NFC composition before the first stage
}

// Normalizer turns raw text into speakable text.
type Normalizer struct {
	symbols SymbolTable
	numbers NumberSpeller
	names   NameResolver
	compose bool
}

// StageResult is the text as it left one stage.
type StageResult struct {
	Stage string `json:"stage"`
	Text  string `json:"text"`
}

// New creates a Normalizer.
func New(cfg Config) *Normalizer {
	n := &Normalizer{
		symbols: cfg.Symbols,
		numbers: cfg.Numbers,
		names:   cfg.Names,
		compose: cfg.Compose,
	}
	if n.symbols.Len() == 0 {
		n.symbols = DefaultSymbols()
	}
	if n.numbers == nil {
		n.numbers = numwords.Convert
	}
	if n.names == nil {
		n.names = UnicodeName
	}
	return n
}

var std = New(Config{})

// Default returns the shared Normalizer with the default configuration.
func Default() *Normalizer { return std }

// Normalize runs Default().Normalize.
func Normalize(text string) (string, error) {
	return std.Normalize(text)
}

// Stages returns the stage names in execution order.
func Stages() []string {
	names := make([]string, len(pipeline))
	for i, st := range pipeline {
		names[i] = st.name
	}
	return names
}

// Normalize rewrites text into its spoken form. The only failure is a digit
// run the number speller cannot spell; the error names the stage.
func (n *Normalizer) Normalize(text string) (string, error) {
	d, err := n.run(text, nil)
	if err != nil {
		return "", err
	}
	return d.text, nil
}

// Trace normalizes text and records the output of every stage.
func (n *Normalizer) Trace(text string) ([]StageResult, error) {
	results := make([]StageResult, 0, len(pipeline))
	_, err := n.run(text, func(name, out string) {
		results = append(results, StageResult{Stage: name, Text: out})
	})
	return results, err
}

func (n *Normalizer) run(text string, observe func(stage, out string)) (*document, error) {
	if n.compose {
		text = norm.NFC.String(text)
	}
	d := &document{text: text}
	for _, st := range pipeline {
		if err := st.rewrite(n, d); err != nil {
			return nil, fmt.Errorf("normalize: %s: %w", st.name, err)
		}
		if observe != nil {
			observe(st.name, d.text)
		}
	}
	return d, nil
}

// UnicodeName looks r up in the Unicode character database. Label-style
// entries such as "<control>" count as unnamed.
func UnicodeName(r rune) (string, bool) {
	name := runenames.Name(r)
	if name == "" || strings.HasPrefix(name, "<") {
		return "", false
	}
	return name, true
}

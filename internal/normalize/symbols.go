package normalize

import "strings"

// Symbol maps one typographic or mathematical glyph to its spoken phrase.
// Phrases carry their own padding so neighbouring tokens never run together.
type Symbol struct {
	Glyph  string
	Phrase string
}

// SymbolTable is an ordered, read-only list of symbol substitutions.
type SymbolTable struct {
	entries []Symbol
}

// NewSymbolTable builds a table applied in the given order.
func NewSymbolTable(entries ...Symbol) SymbolTable {
	return SymbolTable{entries: append([]Symbol(nil), entries...)}
}

// DefaultSymbols returns the built-in table.
func DefaultSymbols() SymbolTable {
	return defaultSymbols
}

var defaultSymbols = NewSymbolTable(
	Symbol{"∪", " union "},
	Symbol{"∩", " intersection "},
	Symbol{"∈", " is in "},
	Symbol{"∉", " is not in "},
	Symbol{"⊂", " is a subset of "},
	Symbol{"⊆", " is a subset or equal to "},
	Symbol{"⊃", " is a superset of "},
	Symbol{"⊇", " is a superset or equal to "},
	Symbol{"∅", " the empty set "},
	Symbol{"≠", " does not equal "},
	Symbol{"≈", " is approximately "},
	Symbol{"≤", " is less than or equal to "},
	Symbol{"≥", " is greater than or equal to "},
	Symbol{"∞", " infinity "},
	Symbol{"→", " implies "},
	Symbol{"—", ", "},
	Symbol{"–", ", "},
	Symbol{"=", " equals "},
)

// Entries returns a copy of the table in application order.
func (t SymbolTable) Entries() []Symbol {
	return append([]Symbol(nil), t.entries...)
}

// Len reports the number of entries.
func (t SymbolTable) Len() int { return len(t.entries) }

// Replace substitutes every entry, one literal pass per entry, in order.
func (t SymbolTable) Replace(s string) string {
	for _, e := range t.entries {
		if e.Glyph == "" {
			continue
		}
		s = strings.ReplaceAll(s, e.Glyph, e.Phrase)
	}
	return s
}

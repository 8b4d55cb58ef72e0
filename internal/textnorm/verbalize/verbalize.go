// Package verbalize expands classified groups into spoken words.
package verbalize

import (
	"fmt"
	"slices"
	"strings"

	"github.com/MrWong99/mowa/internal/textnorm/group"
	"github.com/MrWong99/mowa/internal/textnorm/lang"
	"github.com/MrWong99/mowa/internal/textnorm/numword"
)

// Verbalizer maps each [group.Kind] to its spoken form. It is read-only after
// construction and safe for concurrent use.
type Verbalizer struct {
	tables  *lang.Tables
	numbers *numword.Converter
}

// New returns a [Verbalizer] backed by tables.
func New(tables *lang.Tables) *Verbalizer {
	return &Verbalizer{tables: tables, numbers: numword.New(tables)}
}

// Numbers returns the number converter the verbalizer spells with.
func (v *Verbalizer) Numbers() *numword.Converter { return v.numbers }

// All verbalizes every group in place.
func (v *Verbalizer) All(groups []group.Group) {
	for i := range groups {
		v.Group(&groups[i])
	}
}

// Group sets g's words unless they are already set and returns them.
func (v *Verbalizer) Group(g *group.Group) []string {
	if g.Verbalized() {
		return g.Words()
	}
	words := v.Words(g)
	g.SetWords(words)
	return words
}

// Words computes the spoken words for g without modifying it. Groups with
// nothing to say (whitespace, punctuation, unmapped symbols, numerals with no
// digits) yield nil.
func (v *Verbalizer) Words(g *group.Group) []string {
	if len(g.Tokens) == 0 {
		return nil
	}
	first := g.Tokens[0]

	switch g.Kind {
	case group.Whitespace, group.Punctuation:
		return nil

	case group.Word:
		return []string{strings.ToLower(first.Text)}

	case group.Abbreviation:
		if words, ok := v.tables.Abbreviation(first.Text); ok {
			return slices.Clone(words)
		}
		return []string{v.tables.Placeholder()}

	case group.Symbol:
		if words, ok := v.tables.Symbol(first.First()); ok {
			return slices.Clone(words)
		}
		return nil

	case group.Number:
		return v.number(g.Text())

	case group.RomanNumeral:
		if words, ok := v.numbers.SpellRoman(first.Text); ok {
			return words
		}
		return []string{v.tables.Placeholder()}

	case group.Time:
		return v.clock(g.Text())
	}
	panic(fmt.Sprintf("verbalize: unhandled group kind %v", g.Kind))
}

// number spells a numeral. A single comma, period or slash between two digit
// runs ("3,5", "1.5", "1/2") is read as a decimal or a fraction; anything else
// is read as one integer with the non-digits dropped. Tokenized text never
// puts a period inside a Number; annotated tokens may.
func (v *Verbalizer) number(text string) []string {
	if i := strings.IndexAny(text, ",./"); i > 0 && strings.Count(text, ",")+strings.Count(text, ".")+strings.Count(text, "/") == 1 {
		left, right := text[:i], text[i+1:]
		if isDigits(left) && isDigits(right) {
			var (
				words []string
				ok    bool
			)
			if text[i] != '/' {
				words, ok = v.numbers.SpellDecimal(left, right)
			} else {
				words, ok = v.numbers.SpellFraction(left, right)
			}
			if ok {
				return words
			}
		}
	}
	words, _ := v.numbers.SpellDigits(text)
	return words
}

// clock spells the hour and, when present, the minutes of a clock time as two
// independent numbers.
func (v *Verbalizer) clock(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool { return r < '0' || r > '9' })
	var words []string
	for i, p := range parts {
		if i == 2 {
			break
		}
		w, _ := v.numbers.SpellDigits(p)
		words = append(words, w...)
	}
	return words
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Package group merges raw tokens into semantic units ([Group]) such as
// numbers, clock times, abbreviations and Roman numerals.
//
// Classification walks an immutable token slice with an index cursor and a
// bounded set of lookahead/lookback rules; see [Classify]. The result is
// lossless: concatenating the token texts of all groups reproduces the input
// tokens exactly.
package group

import (
	"strings"

	"github.com/MrWong99/mowa/internal/textnorm/token"
)

// Kind is the semantic classification of a [Group]. The set is closed; every
// group produced by [Classify] carries exactly one of the non-zero kinds.
type Kind int

const (
	// Unknown is the zero value and never produced by the classifier.
	Unknown Kind = iota
	Whitespace
	Word
	Number
	Abbreviation
	Punctuation
	Symbol
	Time
	RomanNumeral
)

var kindNames = [...]string{
	Unknown:      "unknown",
	Whitespace:   "whitespace",
	Word:         "word",
	Number:       "number",
	Abbreviation: "abbreviation",
	Punctuation:  "punctuation",
	Symbol:       "symbol",
	Time:         "time",
	RomanNumeral: "roman",
}

var kindCodes = [...]string{
	Unknown:      "U",
	Whitespace:   "_",
	Word:         "W",
	Number:       "N",
	Abbreviation: "A",
	Punctuation:  "P",
	Symbol:       "S",
	Time:         "T",
	RomanNumeral: "R",
}

// Kinds lists every kind the classifier can assign.
var Kinds = []Kind{Whitespace, Word, Number, Abbreviation, Punctuation, Symbol, Time, RomanNumeral}

// String returns the lower-case kind name used in logs and metric attributes.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[Unknown]
	}
	return kindNames[k]
}

// Code returns the one-letter debug code of k.
func (k Kind) Code() string {
	if k < 0 || int(k) >= len(kindCodes) {
		return kindCodes[Unknown]
	}
	return kindCodes[k]
}

// Span is a half-open range of rune offsets into the source line.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Group is a contiguous run of tokens sharing one [Kind], together with its
// verbalization once [Group.SetWords] has been called.
type Group struct {
	Kind   Kind
	Tokens []token.Token
	Span   Span

	words      []string
	verbalized bool
}

// New builds a group over toks. The span covers the first through the last
// token.
func New(kind Kind, toks []token.Token) Group {
	g := Group{Kind: kind, Tokens: toks}
	if len(toks) > 0 {
		g.Span = Span{Start: toks[0].Start, End: toks[len(toks)-1].End}
	}
	return g
}

// Text returns the concatenated surface text of the group.
func (g *Group) Text() string {
	return token.Join(g.Tokens)
}

// Words returns the spoken words assigned by [Group.SetWords].
func (g *Group) Words() []string { return g.words }

// Verbalized reports whether the group's words have been set.
func (g *Group) Verbalized() bool { return g.verbalized }

// SetWords assigns the group's verbalization. Only the first call has an
// effect; later calls return false and leave the words unchanged.
func (g *Group) SetWords(words []string) bool {
	if g.verbalized {
		return false
	}
	g.words = words
	g.verbalized = true
	return true
}

// Join concatenates the surface text of all groups.
func Join(groups []Group) string {
	var b strings.Builder
	for i := range groups {
		for _, t := range groups[i].Tokens {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

// Debug renders groups as "tok/tok[K]|tok[K]" for diagnostics.
func Debug(groups []Group) string {
	parts := make([]string, len(groups))
	for i := range groups {
		texts := make([]string, len(groups[i].Tokens))
		for j, t := range groups[i].Tokens {
			texts[j] = t.Text
		}
		parts[i] = strings.Join(texts, "/") + "[" + groups[i].Kind.Code() + "]"
	}
	return strings.Join(parts, "|")
}

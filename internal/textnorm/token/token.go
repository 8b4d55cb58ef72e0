// Package token splits a line of text into maximal runs of a single
// character class. Tokenization is lossless and total: joining the tokens of
// any string reproduces it exactly.
package token

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Class is the character class of a rune.
type Class int

const (
	None Class = iota
	Whitespace
	Letter
	Digit
	Symbol
)

// String returns the lower-case class name.
func (c Class) String() string {
	switch c {
	case Whitespace:
		return "whitespace"
	case Letter:
		return "letter"
	case Digit:
		return "digit"
	case Symbol:
		return "symbol"
	}
	return "none"
}

// ClassOf classifies a single rune.
func ClassOf(r rune) Class {
	switch {
	case unicode.IsSpace(r):
		return Whitespace
	case unicode.IsLetter(r):
		return Letter
	case unicode.IsDigit(r):
		return Digit
	}
	return Symbol
}

// Token is a maximal run of runes sharing one [Class].
type Token struct {
	Text  string
	Class Class

	// Start and End are rune offsets into the tokenized line; End is
	// exclusive.
	Start int
	End   int
}

// First returns the first rune of the token, or [utf8.RuneError] for an
// empty token.
func (t Token) First() rune {
	r, _ := utf8.DecodeRuneInString(t.Text)
	return r
}

// Tokenize partitions line into tokens. An empty line yields no tokens.
// Nonspacing marks without a precomposed form ("b\u0301") stay inside the
// letter run they follow.
func Tokenize(line string) []Token {
	var toks []Token
	cur := None
	// start is the byte offset of the current run, rstart its rune offset.
	start, rstart, pos := 0, 0, 0
	for i, r := range line {
		c := ClassOf(r)
		if cur == Letter && unicode.Is(unicode.Mn, r) {
			c = Letter
		}
		if c != cur {
			if cur != None {
				toks = append(toks, Token{Text: line[start:i], Class: cur, Start: rstart, End: pos})
			}
			cur, start, rstart = c, i, pos
		}
		pos++
	}
	if cur != None {
		toks = append(toks, Token{Text: line[start:], Class: cur, Start: rstart, End: pos})
	}
	return toks
}

// Join concatenates the token texts.
func Join(toks []Token) string {
	var b strings.Builder
	for _, t := range toks {
		b.WriteString(t.Text)
	}
	return b.String()
}

package group

import (
	"strings"

	"github.com/MrWong99/mowa/internal/textnorm/lang"
	"github.com/MrWong99/mowa/internal/textnorm/token"
)

// RomanAlphabet is the set of letters a Roman-numeral group may consist of.
const RomanAlphabet = "IVXLCDM"

// Classify merges toks into groups. Rules, in priority order, for the token
// under the cursor:
//
//  1. Whitespace becomes its own group.
//  2. A digit-leading token followed by "." or ":" and another digit-leading
//     token forms a [Time] with both. Otherwise, when the nearest preceding
//     non-whitespace group starts with the hour key ("godz"), the token and an
//     optional following "." form a [Time]. Otherwise the token and every
//     directly following digit-leading token form a [Number].
//  3. A letter-leading token that is an abbreviation key absorbs a following
//     "." into an [Abbreviation], unless the key requires a period and none
//     follows, in which case it is a [Word]. Tokens made only of
//     [RomanAlphabet] letters are a [RomanNumeral]; anything else is a [Word].
//  4. Any other token is [Punctuation] when its first rune is in the
//     punctuation set, otherwise a [Symbol].
//
// toks is not modified; groups share its backing array.
func Classify(toks []token.Token, tables *lang.Tables) []Group {
	c := classifier{toks: toks, tables: tables, out: make([]Group, 0, len(toks))}
	for c.pos < len(c.toks) {
		c.step()
	}
	return c.out
}

type classifier struct {
	toks   []token.Token
	tables *lang.Tables
	pos    int
	out    []Group
}

func (c *classifier) step() {
	tok := c.toks[c.pos]
	switch token.ClassOf(tok.First()) {
	case token.Whitespace:
		c.emit(Whitespace, 1)

	case token.Digit:
		switch {
		case c.isClockSeparator(1) && c.isDigitLeading(2):
			c.emit(Time, 3)
		case c.followsHourKey():
			n := 1
			if c.textAt(1) == "." {
				n = 2
			}
			c.emit(Time, n)
		default:
			n := 1
			for c.isDigitLeading(n) {
				n++
			}
			c.emit(Number, n)
		}

	case token.Letter:
		switch {
		case c.tables.IsAbbreviation(tok.Text):
			n := 1
			if c.textAt(1) == "." {
				n = 2
			}
			if n == 1 && c.tables.PeriodRequired(tok.Text) {
				c.emit(Word, 1)
				return
			}
			c.emit(Abbreviation, n)
		case IsRoman(tok.Text):
			c.emit(RomanNumeral, 1)
		default:
			c.emit(Word, 1)
		}

	default:
		if c.tables.IsPunct(tok.First()) {
			c.emit(Punctuation, 1)
		} else {
			c.emit(Symbol, 1)
		}
	}
}

// emit appends a group of the n tokens under the cursor and advances past
// them.
func (c *classifier) emit(kind Kind, n int) {
	end := c.pos + n
	c.out = append(c.out, New(kind, c.toks[c.pos:end:end]))
	c.pos = end
}

// textAt returns the text of the token off positions after the cursor, or ""
// past the end.
func (c *classifier) textAt(off int) string {
	if c.pos+off >= len(c.toks) {
		return ""
	}
	return c.toks[c.pos+off].Text
}

func (c *classifier) isDigitLeading(off int) bool {
	if c.pos+off >= len(c.toks) {
		return false
	}
	return token.ClassOf(c.toks[c.pos+off].First()) == token.Digit
}

func (c *classifier) isClockSeparator(off int) bool {
	t := c.textAt(off)
	return t == "." || t == ":"
}

// followsHourKey reports whether the nearest already-classified
// non-whitespace group starts with the hour key.
func (c *classifier) followsHourKey() bool {
	key := c.tables.HourKey()
	if key == "" {
		return false
	}
	for i := len(c.out) - 1; i >= 0; i-- {
		if c.out[i].Kind == Whitespace {
			continue
		}
		return c.out[i].Tokens[0].Text == key
	}
	return false
}

// IsRoman reports whether s is non-empty and consists only of
// [RomanAlphabet] letters.
func IsRoman(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune(RomanAlphabet, r) {
			return false
		}
	}
	return true
}

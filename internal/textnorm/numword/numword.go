// Package numword spells non-negative integers as cardinal number words and
// decodes Roman numerals.
//
// The grammar is table driven (see [lang.Tables]): 0–19 are atomic words,
// tens and hundreds come from fixed tables, and thousands and millions are
// spelled as a recursively spelled count followed by a scale word whose form
// agrees with the count ([lang.Scale.For]).
//
// A [Converter] is read-only after construction and safe for concurrent use.
package numword

import (
	"strconv"
	"strings"

	"github.com/MrWong99/mowa/internal/textnorm/lang"
)

const (
	thousand = 1_000
	million  = 1_000_000
)

// Converter spells numbers using one table set.
type Converter struct {
	tables *lang.Tables
}

// New returns a [Converter] backed by tables.
func New(tables *lang.Tables) *Converter {
	return &Converter{tables: tables}
}

// Spell returns the cardinal words for n, most significant first.
func (c *Converter) Spell(n uint64) []string {
	if n == 0 {
		return []string{c.tables.Ones(0)}
	}
	return c.appendSpell(nil, n)
}

func (c *Converter) appendSpell(dst []string, n uint64) []string {
	if n >= million {
		dst = c.appendScaled(dst, n/million, c.tables.Million())
		n %= million
	}
	if n >= thousand {
		dst = c.appendScaled(dst, n/thousand, c.tables.Thousand())
		n %= thousand
	}
	if n >= 100 {
		dst = append(dst, c.tables.Hundreds(n/100))
		n %= 100
	}
	if n >= 20 {
		dst = append(dst, c.tables.Tens(n/10))
		n %= 10
	}
	if n > 0 {
		dst = append(dst, c.tables.Ones(n))
	}
	return dst
}

// appendScaled spells count followed by the agreeing scale word. A count of
// exactly one is implied by the singular form and not spoken.
func (c *Converter) appendScaled(dst []string, count uint64, s lang.Scale) []string {
	if count != 1 {
		dst = c.appendSpell(dst, count)
	}
	return append(dst, s.For(count))
}

// SpellDigits spells the decimal number in s after dropping every rune that
// is not an ASCII digit. ok is false when nothing is left to spell.
//
// Digit strings too long for a uint64 are read out digit by digit.
func (c *Converter) SpellDigits(s string) (words []string, ok bool) {
	digits := stripNonDigits(s)
	if digits == "" {
		return nil, false
	}
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		words = make([]string, 0, len(digits))
		for i := 0; i < len(digits); i++ {
			words = append(words, c.tables.Ones(uint64(digits[i]-'0')))
		}
		return words, true
	}
	return c.Spell(n), true
}

// SpellDecimal spells a decimal number given as its integer and fractional
// digit strings ("3", "14" for 3,14): two independent integer readings joined
// by the decimal connector.
func (c *Converter) SpellDecimal(intPart, fracPart string) ([]string, bool) {
	return c.joined(intPart, fracPart, c.tables.DecimalConnector())
}

// SpellFraction spells num/den as two integer readings joined by the
// fraction connector.
func (c *Converter) SpellFraction(num, den string) ([]string, bool) {
	return c.joined(num, den, c.tables.FractionConnector())
}

func (c *Converter) joined(a, b string, connector []string) ([]string, bool) {
	left, ok := c.SpellDigits(a)
	if !ok {
		return nil, false
	}
	right, ok := c.SpellDigits(b)
	if !ok {
		return nil, false
	}
	words := make([]string, 0, len(left)+len(connector)+len(right))
	words = append(words, left...)
	words = append(words, connector...)
	return append(words, right...), true
}

// SpellRoman decodes the Roman numeral s and spells its value. ok is false
// when s contains a letter missing from the value table.
func (c *Converter) SpellRoman(s string) ([]string, bool) {
	n, ok := DecodeRoman(s, c.tables.RomanValues())
	if !ok {
		return nil, false
	}
	return c.Spell(uint64(n)), true
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

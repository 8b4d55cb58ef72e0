// Package annotate classifies the token stream of an external linguistic
// annotator (a tokenizer with lemma and morphology output) into the same
// groups the built-in classifier produces, so the shared verbalizer can
// expand them.
//
// Lemma and morphology only steer classification; spoken words still come
// from the lookup tables except where an abbreviation has no table entry, in
// which case the annotator's lemma is spoken.
package annotate

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/MrWong99/mowa/internal/textnorm/group"
	"github.com/MrWong99/mowa/internal/textnorm/lang"
	"github.com/MrWong99/mowa/internal/textnorm/token"
)

// NumFormRoman is the morphology NumForm value marking a Roman numeral.
const NumFormRoman = "Roman"

// Morph holds the morphological features the classifier consults. Absent
// features are zero.
type Morph struct {
	// Abbr is set for tokens the annotator tagged Abbr=Yes.
	Abbr bool

	// NumForm is the NumForm feature value ("Roman", "Digit", …).
	NumForm string
}

// Token is one annotated token. Offsets are character (rune) offsets into the
// annotated document.
type Token interface {
	Text() string
	Start() int
	End() int
	IsPunct() bool
	LikeNum() bool
	Lower() string
	Lemma() string
	Morph() Morph

	// Next returns the following token, or false at the end of the stream.
	Next() (Token, bool)
}

// Classify walks the stream starting at first and groups it. A nil first
// yields no groups.
//
// Rules, in priority order:
//
//  1. Punctuation tokens form [group.Punctuation] groups.
//  2. NumForm=Roman tokens form [group.RomanNumeral] groups.
//  3. Digit-leading tokens shaped H:MM or H.MM form [group.Time] groups; any
//     other digit-leading token, or number-like token containing a digit
//     ("+3", ".5"), forms a [group.Number]. Number words ("pięć") stay words.
//  4. Letter-leading tokens that are table keys or tagged Abbr=Yes form an
//     [group.Abbreviation] when a "." token follows (it is absorbed) or when
//     the lemma is a contraction of the token (longer, same first and last
//     letter). Otherwise they are plain [group.Word] groups.
//  5. Other letter-leading tokens are words spoken as the annotator's lower
//     case form; anything else is a [group.Symbol].
func Classify(first Token, tables *lang.Tables) []group.Group {
	var out []group.Group
	tok, ok := first, first != nil
	for ok {
		var next Token
		next, ok = tok.Next()

		text := tok.Text()
		switch r, _ := utf8.DecodeRuneInString(text); {
		case text == "":

		case tok.IsPunct():
			out = append(out, group.New(group.Punctuation, convert(tok)))

		case tok.Morph().NumForm == NumFormRoman:
			out = append(out, group.New(group.RomanNumeral, convert(tok)))

		case unicode.IsDigit(r) || tok.LikeNum() && strings.ContainsAny(text, "0123456789"):
			kind := group.Number
			if isClock(text) {
				kind = group.Time
			}
			out = append(out, group.New(kind, convert(tok)))

		case unicode.IsLetter(r):
			if tables.IsAbbreviation(text) || tok.Morph().Abbr {
				if ok && next.Text() == "." {
					g := group.New(group.Abbreviation, append(convert(tok), convert(next)...))
					setLemma(&g, tok, tables)
					out = append(out, g)
					next, ok = next.Next()
					break
				}
				if isContraction(text, tok.Lemma()) {
					g := group.New(group.Abbreviation, convert(tok))
					setLemma(&g, tok, tables)
					out = append(out, g)
					break
				}
			}
			g := group.New(group.Word, convert(tok))
			if lower := tok.Lower(); lower != "" {
				g.SetWords([]string{lower})
			}
			out = append(out, g)

		default:
			out = append(out, group.New(group.Symbol, convert(tok)))
		}
		tok = next
	}
	return out
}

// setLemma assigns the lemma as the expansion of an abbreviation that has no
// table entry.
func setLemma(g *group.Group, tok Token, tables *lang.Tables) {
	if tables.IsAbbreviation(tok.Text()) {
		return
	}
	if words := strings.Fields(tok.Lemma()); len(words) > 0 {
		g.SetWords(words)
	}
}

// isContraction reports whether lemma is the full form of the contracted
// token: strictly longer, sharing its first and last letter ("dr" →
// "doktor").
func isContraction(text, lemma string) bool {
	t, l := []rune(strings.ToLower(text)), []rune(strings.ToLower(lemma))
	if len(t) == 0 || len(l) <= len(t) {
		return false
	}
	return t[0] == l[0] && t[len(t)-1] == l[len(l)-1]
}

// isClock reports whether s has the shape H:MM or H.MM (one or two hour
// digits, exactly two minute digits).
func isClock(s string) bool {
	i := strings.IndexAny(s, ":.")
	if i < 1 || i > 2 || len(s)-i-1 != 2 {
		return false
	}
	return allDigits(s[:i]) && allDigits(s[i+1:])
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

func convert(tok Token) []token.Token {
	text := tok.Text()
	r, _ := utf8.DecodeRuneInString(text)
	end := tok.End()
	if end <= tok.Start() {
		end = tok.Start() + utf8.RuneCountInString(text)
	}
	return []token.Token{{Text: text, Class: token.ClassOf(r), Start: tok.Start(), End: end}}
}

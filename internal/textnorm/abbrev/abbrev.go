// Package abbrev discovers words in a corpus that look like abbreviations
// missing from the lookup tables, to help curators extend them.
//
// A word is a candidate when
//
//   - it contains an upper-case letter after its first character ("ZUS",
//     "mPa"), or
//   - it is directly followed by "." and then, with or without whitespace in
//     between, by a lower-case word, a number or a clock time.
//
// Each candidate carries its occurrence count and, when one is close enough,
// the most similar known abbreviation key. Similarity uses Double Metaphone
// codes to prefer phonetically related keys and Jaro-Winkler to rank them.
package abbrev

import (
	"cmp"
	"slices"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/MrWong99/mowa/internal/textnorm/group"
	"github.com/MrWong99/mowa/internal/textnorm/lang"
)

// Candidate is one discovered abbreviation candidate.
type Candidate struct {
	Word  string `json:"word"`
	Count int    `json:"count"`

	// Similar is the closest known key, empty when none passed the
	// similarity thresholds.
	Similar string  `json:"similar,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

// Finder accumulates candidates over classified lines. It is safe for
// concurrent use.
type Finder struct {
	tables            *lang.Tables
	phoneticThreshold float64
	fuzzyThreshold    float64

	mu     sync.Mutex
	counts map[string]int
}

// New returns a [Finder] that ignores words already known to tables.
func New(tables *lang.Tables, opts ...Option) *Finder {
	f := &Finder{
		tables:            tables,
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
		counts:            make(map[string]int),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Add records the candidates found in one classified line.
func (f *Finder) Add(groups []group.Group) {
	var found []string
	for i := range groups {
		if IsCandidate(groups, i) && !f.tables.IsAbbreviation(groups[i].Tokens[0].Text) {
			found = append(found, groups[i].Tokens[0].Text)
		}
	}
	if len(found) == 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range found {
		f.counts[w]++
	}
}

// Candidates returns all candidates seen so far, most frequent first, ties
// broken alphabetically.
func (f *Finder) Candidates() []Candidate {
	f.mu.Lock()
	out := make([]Candidate, 0, len(f.counts))
	for w, n := range f.counts {
		out = append(out, Candidate{Word: w, Count: n})
	}
	f.mu.Unlock()

	keys := f.tables.AbbreviationKeys()
	for i := range out {
		out[i].Similar, out[i].Score, _ = f.similar(out[i].Word, keys)
	}
	slices.SortFunc(out, func(a, b Candidate) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Word, b.Word)
	})
	return out
}

// IsCandidate reports whether groups[i] is a word that looks like an
// abbreviation in its context. Table membership is not consulted.
func IsCandidate(groups []group.Group, i int) bool {
	if i < 0 || i >= len(groups) || groups[i].Kind != group.Word {
		return false
	}
	if hasInnerUpper(groups[i].Tokens[0].Text) {
		return true
	}
	if text(groups, i+1) != "." {
		return false
	}
	if kindAt(groups, i+2) == group.Word && isLower(text(groups, i+2)) {
		return true
	}
	if kindAt(groups, i+2) != group.Whitespace {
		return false
	}
	switch kindAt(groups, i+3) {
	case group.Word:
		return isLower(text(groups, i+3))
	case group.Number, group.Time:
		return true
	}
	return false
}

func text(groups []group.Group, i int) string {
	if i >= len(groups) {
		return ""
	}
	return groups[i].Tokens[0].Text
}

func kindAt(groups []group.Group, i int) group.Kind {
	if i >= len(groups) {
		return group.Unknown
	}
	return groups[i].Kind
}

func hasInnerUpper(s string) bool {
	_, size := utf8.DecodeRuneInString(s)
	return strings.IndexFunc(s[size:], unicode.IsUpper) >= 0
}

// isLower reports whether s has at least one cased letter and no upper-case
// ones.
func isLower(s string) bool {
	return strings.IndexFunc(s, unicode.IsUpper) < 0 && strings.IndexFunc(s, unicode.IsLower) >= 0
}

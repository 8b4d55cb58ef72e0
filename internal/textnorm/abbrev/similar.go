package abbrev

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// Option is a functional option for configuring a [Finder].
type Option func(*Finder)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score for a known key
// whose Double Metaphone code overlaps the candidate's. Default: 0.70.
func WithPhoneticThreshold(threshold float64) Option {
	return func(f *Finder) {
		f.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score for a known key with
// no phonetic overlap. Default: 0.85.
func WithFuzzyThreshold(threshold float64) Option {
	return func(f *Finder) {
		f.fuzzyThreshold = threshold
	}
}

// similar returns the known key most similar to word, preferring keys that
// share a Double Metaphone code with it.
func (f *Finder) similar(word string, keys []string) (best string, score float64, ok bool) {
	w := strings.ToLower(word)
	wcodes := codes(w)

	var phonetic bool
	for _, key := range keys {
		k := strings.ToLower(key)
		jw := matchr.JaroWinkler(w, k, false)
		if overlaps(wcodes, codes(k)) {
			if jw >= f.phoneticThreshold && (!phonetic || jw > score) {
				best, score, phonetic = key, jw, true
			}
		} else if !phonetic && jw >= f.fuzzyThreshold && jw > score {
			best, score = key, jw
		}
	}
	return best, score, best != ""
}

// codes returns the non-empty Double Metaphone codes of s.
func codes(s string) []string {
	p, q := matchr.DoubleMetaphone(s)
	out := make([]string, 0, 2)
	for _, c := range []string{p, q} {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// Package lang holds the lookup tables that drive verbalization: the
// abbreviation and symbol dictionaries, the cardinal-number word tables, the
// Roman-numeral value table and the punctuation set.
//
// Tables are pure data. They are built once from a [Definition] (the
// compiled-in [Polish] set, or a YAML file via [LoadTables]) and never
// mutated afterwards, so a single *Tables may be shared by any number of
// goroutines without synchronisation. Replacing the Definition is all it takes
// to target another language; the engine does not change.
package lang

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"
)

// Scale holds the three grammatical forms of a scale word (thousand, million).
type Scale struct {
	// Singular is used when the count is exactly one ("tysiąc").
	Singular string `yaml:"singular"`

	// PluralNominative is used for counts ending in 2–4, teens excluded
	// ("tysiące").
	PluralNominative string `yaml:"plural_nominative"`

	// PluralGenitive is used for every other count ("tysięcy").
	PluralGenitive string `yaml:"plural_genitive"`
}

// For returns the form of s that agrees with count. Only the last two decimal
// digits of count matter: 1 selects the singular (and only when the whole
// count is 1), a final 2–4 outside 12–14 selects the plural nominative,
// anything else the plural genitive.
func (s Scale) For(count uint64) string {
	if count == 1 {
		return s.Singular
	}
	last, lastTwo := count%10, count%100
	if last >= 2 && last <= 4 && (lastTwo < 12 || lastTwo > 14) {
		return s.PluralNominative
	}
	return s.PluralGenitive
}

func (s Scale) validate(name string) error {
	if s.Singular == "" || s.PluralNominative == "" || s.PluralGenitive == "" {
		return fmt.Errorf("%s: all three forms are required", name)
	}
	return nil
}

// Definition is the serialisable form of a table set. It is the shape of the
// YAML file accepted by [LoadTables].
//
// Expansion values are whitespace-separated word sequences: "na przykład"
// expands to two spoken words.
type Definition struct {
	Abbreviations map[string]string `yaml:"abbreviations"`
	Symbols       map[string]string `yaml:"symbols"`

	// Punctuation lists every punctuation rune as one string (".,-!?:()").
	Punctuation string `yaml:"punctuation"`

	// Roman maps single Roman-numeral letters to their values.
	Roman map[string]int `yaml:"roman"`

	// Ones holds the words for 0–19, teens included.
	Ones []string `yaml:"ones"`

	// Tens holds the words for 20, 30 … 90.
	Tens []string `yaml:"tens"`

	// Hundreds holds the words for 100, 200 … 900.
	Hundreds []string `yaml:"hundreds"`

	Thousand Scale `yaml:"thousand"`
	Million  Scale `yaml:"million"`

	DecimalConnector  string `yaml:"decimal_connector"`
	FractionConnector string `yaml:"fraction_connector"`

	// Placeholder is emitted for content that was recognised but could not be
	// spelled, e.g. a Roman letter missing from the value table.
	Placeholder string `yaml:"placeholder"`

	// HourKey is the abbreviation that marks the following number as a clock
	// hour ("godz").
	HourKey string `yaml:"hour_key"`

	// PeriodRequired lists abbreviation keys that only count as abbreviations
	// when a period follows ("w" is far more often the preposition).
	PeriodRequired []string `yaml:"period_required"`
}

// Tables is the immutable, validated lookup table set.
type Tables struct {
	abbreviations  map[string][]string
	symbols        map[rune][]string
	punctuation    map[rune]struct{}
	roman          map[rune]int
	periodRequired map[string]struct{}

	ones     [20]string
	tens     [10]string
	hundreds [10]string

	thousand Scale
	million  Scale

	decimalConnector  []string
	fractionConnector []string
	placeholder       string
	hourKey           string
}

// New validates def and builds a [Tables] from it. All validation failures
// are reported together.
func New(def Definition) (*Tables, error) {
	var errs []error
	t := &Tables{
		abbreviations:  make(map[string][]string, len(def.Abbreviations)),
		symbols:        make(map[rune][]string, len(def.Symbols)),
		punctuation:    make(map[rune]struct{}, len(def.Punctuation)),
		roman:          make(map[rune]int, len(def.Roman)),
		periodRequired: make(map[string]struct{}, len(def.PeriodRequired)),
		thousand:       def.Thousand,
		million:        def.Million,
		placeholder:    def.Placeholder,
		hourKey:        def.HourKey,
	}

	for key, exp := range def.Abbreviations {
		words := strings.Fields(exp)
		if key == "" || len(words) == 0 {
			errs = append(errs, fmt.Errorf("abbreviations[%q]: key and expansion are required", key))
			continue
		}
		t.abbreviations[key] = words
	}
	for key, exp := range def.Symbols {
		words := strings.Fields(exp)
		if utf8.RuneCountInString(key) != 1 || len(words) == 0 {
			errs = append(errs, fmt.Errorf("symbols[%q]: key must be a single character with an expansion", key))
			continue
		}
		r, _ := utf8.DecodeRuneInString(key)
		t.symbols[r] = words
	}
	for _, r := range def.Punctuation {
		t.punctuation[r] = struct{}{}
	}
	for key, v := range def.Roman {
		if utf8.RuneCountInString(key) != 1 || v <= 0 {
			errs = append(errs, fmt.Errorf("roman[%q]: key must be a single letter with a positive value", key))
			continue
		}
		r, _ := utf8.DecodeRuneInString(key)
		t.roman[r] = v
	}
	for _, key := range def.PeriodRequired {
		t.periodRequired[key] = struct{}{}
	}

	if len(def.Ones) != 20 {
		errs = append(errs, fmt.Errorf("ones: want 20 words (0–19), got %d", len(def.Ones)))
	} else {
		copy(t.ones[:], def.Ones)
	}
	if len(def.Tens) != 8 {
		errs = append(errs, fmt.Errorf("tens: want 8 words (20–90), got %d", len(def.Tens)))
	} else {
		copy(t.tens[2:], def.Tens)
	}
	if len(def.Hundreds) != 9 {
		errs = append(errs, fmt.Errorf("hundreds: want 9 words (100–900), got %d", len(def.Hundreds)))
	} else {
		copy(t.hundreds[1:], def.Hundreds)
	}
	if err := def.Thousand.validate("thousand"); err != nil {
		errs = append(errs, err)
	}
	if err := def.Million.validate("million"); err != nil {
		errs = append(errs, err)
	}

	t.decimalConnector = strings.Fields(def.DecimalConnector)
	t.fractionConnector = strings.Fields(def.FractionConnector)
	if len(t.decimalConnector) == 0 || len(t.fractionConnector) == 0 {
		errs = append(errs, errors.New("decimal_connector and fraction_connector are required"))
	}
	if strings.TrimSpace(def.Placeholder) == "" || len(strings.Fields(def.Placeholder)) != 1 {
		errs = append(errs, fmt.Errorf("placeholder %q must be a single word", def.Placeholder))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("lang: invalid tables: %w", err)
	}
	return t, nil
}

// Abbreviation returns the spoken expansion of the exact surface key.
func (t *Tables) Abbreviation(key string) ([]string, bool) {
	w, ok := t.abbreviations[key]
	return w, ok
}

// IsAbbreviation reports whether key is a known abbreviation surface form.
func (t *Tables) IsAbbreviation(key string) bool {
	_, ok := t.abbreviations[key]
	return ok
}

// AbbreviationKeys returns every abbreviation key in sorted order.
func (t *Tables) AbbreviationKeys() []string {
	return slices.Sorted(maps.Keys(t.abbreviations))
}

// PeriodRequired reports whether key only counts as an abbreviation when a
// period follows it.
func (t *Tables) PeriodRequired(key string) bool {
	_, ok := t.periodRequired[key]
	return ok
}

// Symbol returns the spoken expansion of r.
func (t *Tables) Symbol(r rune) ([]string, bool) {
	w, ok := t.symbols[r]
	return w, ok
}

// IsPunct reports whether r belongs to the punctuation set.
func (t *Tables) IsPunct(r rune) bool {
	_, ok := t.punctuation[r]
	return ok
}

// RomanValues returns the Roman-numeral value table. The map must not be
// modified.
func (t *Tables) RomanValues() map[rune]int { return t.roman }

// Ones returns the word for n in [0, 19].
func (t *Tables) Ones(n uint64) string { return t.ones[n] }

// Tens returns the word for n*10, n in [2, 9].
func (t *Tables) Tens(n uint64) string { return t.tens[n] }

// Hundreds returns the word for n*100, n in [1, 9].
func (t *Tables) Hundreds(n uint64) string { return t.hundreds[n] }

// Thousand returns the thousand scale words.
func (t *Tables) Thousand() Scale { return t.thousand }

// Million returns the million scale words.
func (t *Tables) Million() Scale { return t.million }

// DecimalConnector returns the words spoken between the integer and the
// fractional part of a decimal number.
func (t *Tables) DecimalConnector() []string { return t.decimalConnector }

// FractionConnector returns the words spoken between numerator and
// denominator.
func (t *Tables) FractionConnector() []string { return t.fractionConnector }

// Placeholder returns the visible token emitted for unspellable content.
func (t *Tables) Placeholder() string { return t.placeholder }

// HourKey returns the abbreviation key that introduces a clock hour.
func (t *Tables) HourKey() string { return t.hourKey }

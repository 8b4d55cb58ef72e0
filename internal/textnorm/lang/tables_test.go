package lang_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/MrWong99/mowa/internal/textnorm/lang"
)

func TestScale_For(t *testing.T) {
	t.Parallel()

	s := lang.Scale{Singular: "tysiąc", PluralNominative: "tysiące", PluralGenitive: "tysięcy"}
	tests := []struct {
		count uint64
		want  string
	}{
		{1, "tysiąc"},
		{2, "tysiące"},
		{4, "tysiące"},
		{5, "tysięcy"},
		{11, "tysięcy"},
		{12, "tysięcy"},
		{14, "tysięcy"},
		{21, "tysięcy"},
		{22, "tysiące"},
		{101, "tysięcy"},
		{112, "tysięcy"},
		{124, "tysiące"},
		{0, "tysięcy"},
	}
	for _, tt := range tests {
		if got := s.For(tt.count); got != tt.want {
			t.Errorf("For(%d) = %q, want %q", tt.count, got, tt.want)
		}
	}
}

func TestPolish_Lookups(t *testing.T) {
	t.Parallel()

	tb := lang.Polish()

	words, ok := tb.Abbreviation("np")
	if !ok || !slices.Equal(words, []string{"na", "przykład"}) {
		t.Errorf("Abbreviation(np) = %v, %v; want [na przykład], true", words, ok)
	}
	if _, ok := tb.Abbreviation("NP"); ok {
		t.Error("Abbreviation(NP): want case-sensitive miss")
	}
	if !tb.PeriodRequired("w") {
		t.Error("PeriodRequired(w) = false, want true")
	}
	if words, ok := tb.Symbol('%'); !ok || words[0] != "procent" {
		t.Errorf("Symbol(%%) = %v, %v", words, ok)
	}
	if !tb.IsPunct('.') || tb.IsPunct('%') {
		t.Error("IsPunct: '.' must be punctuation and '%' must not")
	}
	if got := tb.RomanValues()['D']; got != 500 {
		t.Errorf("RomanValues()['D'] = %d, want 500", got)
	}
	if got := tb.Tens(9); got != "dziewięćdziesiąt" {
		t.Errorf("Tens(9) = %q", got)
	}
	if got := tb.Hundreds(2); got != "dwieście" {
		t.Errorf("Hundreds(2) = %q", got)
	}
	if tb != lang.Polish() {
		t.Error("Polish() must return the shared instance")
	}
}

func TestNew_CollectsAllErrors(t *testing.T) {
	t.Parallel()

	def := lang.PolishDefinition()
	def.Ones = def.Ones[:10]
	def.Million = lang.Scale{Singular: "milion"}
	def.Symbols["ab"] = "x"
	def.Placeholder = ""

	_, err := lang.New(def)
	if err == nil {
		t.Fatal("New: expected error")
	}
	for _, want := range []string{"ones", "million", `symbols["ab"]`, "placeholder"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestPolishDefinition_ReturnsCopy(t *testing.T) {
	t.Parallel()

	def := lang.PolishDefinition()
	delete(def.Abbreviations, "np")
	if !lang.Polish().IsAbbreviation("np") {
		t.Error("mutating a definition copy leaked into the shared tables")
	}
	if _, ok := lang.PolishDefinition().Abbreviations["np"]; !ok {
		t.Error("PolishDefinition returned a shared map")
	}
}

const miniYAML = `
abbreviations:
  np: na przykład
  godz: godzina
symbols:
  "%": procent
punctuation: ".,"
roman: {I: 1, V: 5, X: 10}
ones: [zero, jeden, dwa, trzy, cztery, pięć, sześć, siedem, osiem, dziewięć,
  dziesięć, jedenaście, dwanaście, trzynaście, czternaście, piętnaście,
  szesnaście, siedemnaście, osiemnaście, dziewiętnaście]
tens: [dwadzieścia, trzydzieści, czterdzieści, pięćdziesiąt, sześćdziesiąt,
  siedemdziesiąt, osiemdziesiąt, dziewięćdziesiąt]
hundreds: [sto, dwieście, trzysta, czterysta, pięćset, sześćset, siedemset,
  osiemset, dziewięćset]
thousand: {singular: tysiąc, plural_nominative: tysiące, plural_genitive: tysięcy}
million: {singular: milion, plural_nominative: miliony, plural_genitive: milionów}
decimal_connector: przecinek
fraction_connector: przez
placeholder: "??"
hour_key: godz
`

func TestLoadTablesFromReader(t *testing.T) {
	t.Parallel()

	tb, err := lang.LoadTablesFromReader(strings.NewReader(miniYAML))
	if err != nil {
		t.Fatalf("LoadTablesFromReader: %v", err)
	}
	if _, ok := tb.RomanValues()['D']; ok {
		t.Error("mini tables must not know 'D'")
	}
	if tb.IsPunct('!') {
		t.Error("mini tables must not treat '!' as punctuation")
	}
	if tb.HourKey() != "godz" {
		t.Errorf("HourKey() = %q", tb.HourKey())
	}
}

func TestLoadTablesFromReader_UnknownField(t *testing.T) {
	t.Parallel()

	_, err := lang.LoadTablesFromReader(strings.NewReader(miniYAML + "extra: 1\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

package lang

import "sync"

// PolishDefinition returns the compiled-in Polish table definition. Each call
// returns a fresh copy that the caller may modify before passing it to [New].
func PolishDefinition() Definition {
	abbrev := make(map[string]string, len(polishAbbreviations))
	for k, v := range polishAbbreviations {
		abbrev[k] = v
	}
	symbols := make(map[string]string, len(polishSymbols))
	for k, v := range polishSymbols {
		symbols[k] = v
	}
	return Definition{
		Abbreviations: abbrev,
		Symbols:       symbols,
		Punctuation:   ".,-!?:()",
		Roman: map[string]int{
			"I": 1, "V": 5, "X": 10, "L": 50, "C": 100, "D": 500, "M": 1000,
		},
		Ones: []string{
			"zero", "jeden", "dwa", "trzy", "cztery", "pięć", "sześć", "siedem", "osiem", "dziewięć",
			"dziesięć", "jedenaście", "dwanaście", "trzynaście", "czternaście",
			"piętnaście", "szesnaście", "siedemnaście", "osiemnaście", "dziewiętnaście",
		},
		Tens: []string{
			"dwadzieścia", "trzydzieści", "czterdzieści", "pięćdziesiąt",
			"sześćdziesiąt", "siedemdziesiąt", "osiemdziesiąt", "dziewięćdziesiąt",
		},
		Hundreds: []string{
			"sto", "dwieście", "trzysta", "czterysta", "pięćset",
			"sześćset", "siedemset", "osiemset", "dziewięćset",
		},
		Thousand:          Scale{Singular: "tysiąc", PluralNominative: "tysiące", PluralGenitive: "tysięcy"},
		Million:           Scale{Singular: "milion", PluralNominative: "miliony", PluralGenitive: "milionów"},
		DecimalConnector:  "przecinek",
		FractionConnector: "przez",
		Placeholder:       "??",
		HourKey:           "godz",
		PeriodRequired:    []string{"w"},
	}
}

var (
	polishOnce   sync.Once
	polishTables *Tables
)

// Polish returns the shared compiled-in Polish [Tables]. It panics if the
// compiled-in definition is invalid, which is a programming error.
func Polish() *Tables {
	polishOnce.Do(func() {
		t, err := New(PolishDefinition())
		if err != nil {
			panic("lang: compiled-in polish tables: " + err.Error())
		}
		polishTables = t
	})
	return polishTables
}

var polishAbbreviations = map[string]string{
	"ARP":   "aerpe",
	"ASF":   "aesef",
	"AWS":   "awues",
	"BIG":   "beige",
	"CAF":   "ceaef",
	"CBA":   "cebea",
	"CEIDG": "ceidege",
	"CIT":   "cit",
	"COVID": "kovid",
	"ELA":   "ela",
	"EOG":   "eoge",
	"ETS":   "etees",
	"GUS":   "gus",
	"IPN":   "ipeen",
	"KGHM":  "kagehaem",
	"KIK":   "kik",
	"KOWR":  "kaowuer",
	"KPO":   "kapeo",
	"KRUS":  "krus",
	"KUL":   "kul",
	"M":     "między",
	"MSW":   "emeswu",
	"MSWiA": "emeswuia",
	"NATO":  "nato",
	"NFOŚ":  "enfoś",
	"Np":    "na przykład",
	"OPZZ":  "opezetzet",
	"OUKiK": "oukik",
	"Ok":    "około",
	"PAIH":  "paih",
	"PARP":  "parp",
	"PCR":   "peceer",
	"PFR":   "peefer",
	"PFRON": "pefron",
	"PGNiG": "pegenig",
	"PIP":   "pip",
	"PIT":   "pit",
	"PKB":   "pekabe",
	"PKP":   "pekape",
	"PL":    "peel",
	"PO":    "peo",
	"POLSA": "polsa",
	"POZ":   "poze",
	"PPS":   "pepees",
	"PR":    "peer",
	"PRL":   "peerel",
	"PSL":   "peesel",
	"PUP":   "pup",
	"PiS":   "pis",
	"RDS":   "erdees",
	"REGON": "regon",
	"RP":    "erpe",
	"SMS":   "esemes",
	"TVP":   "tefaupe",
	"UE":    "ue",
	"UOKiK": "uokik",
	"VAT":   "vat",
	"WE":    "wue",
	"WUP":   "wup",
	"ZFA":   "zetefa",
	"ZFRON": "zefron",
	"ZUS":   "zus",
	"art":   "artykuł",
	"br":    "bieżącego roku",
	"dr":    "doktor",
	"godz":  "godzina",
	"im":    "imienia",
	"in":    "innymi",
	"m":     "między",
	"np":    "na przykład",
	"ok":    "około",
	"prof":  "profesor",
	"r":     "rok",
	"tj":    "to jest",
	"tyg":   "tygodnia",
	"tys":   "tysięcy",
	"tzn":   "to znaczy",
	"tzw":   "tak zwany",
	"ub":    "ubiegłego",
	"ust":   "ustęp",
	"ww":    "wyżej wymieniony",
	"św":    "święty",
	"w":     "wiek",
}

var polishSymbols = map[string]string{
	"%": "procent",
	"+": "plus",
	"#": "hasz tag",
	"&": "i",
	"=": "równa się",
	"§": "paragraf",
	"@": "małpa",
}

package numword

// DecodeRoman converts a Roman numeral to an integer with a single
// left-to-right scan: a symbol not smaller than its successor is added, a
// symbol smaller than its successor forms a subtractive pair worth
// (successor - symbol) and both are consumed.
//
// Well-formedness is not checked. Non-canonical input such as "IIV" or "VX"
// decodes to whatever the scan yields. ok is false for an empty string or a
// rune missing from values.
func DecodeRoman(s string, values map[rune]int) (n int, ok bool) {
	rs := []rune(s)
	if len(rs) == 0 {
		return 0, false
	}
	for i := 0; i < len(rs); {
		cur, found := values[rs[i]]
		if !found {
			return 0, false
		}
		if i+1 < len(rs) {
			next, found := values[rs[i+1]]
			if !found {
				return 0, false
			}
			if cur < next {
				n += next - cur
				i += 2
				continue
			}
		}
		n += cur
		i++
	}
	return n, true
}

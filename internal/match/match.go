// Package match implements canonical value normalization and the tolerant
// equality rules used for every field comparison in the extraction pipeline.
package match

import "strings"

// Normalize canonicalizes a raw field value for comparison: uppercase, trim,
// and strip every character outside [A-Z0-9]. Accented letters and symbols
// are removed rather than transliterated.
func Normalize(value string) string {
	upper := strings.ToUpper(strings.TrimSpace(value))

	var b strings.Builder
	b.Grow(len(upper))
	for _, r := range upper {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StripLeadingZeros removes leading '0' characters from a normalized value.
func StripLeadingZeros(s string) string {
	return strings.TrimLeft(s, "0")
}

// ValuesMatch reports whether two raw values represent the same field content.
// The rules apply in order:
//
//  1. both normalize to empty: match
//  2. exactly one normalizes to empty: no match
//  3. exact normalized equality: match
//  4. equality after stripping leading zeros, with a non-empty result:
//     match ("05" vs "5")
//  5. either normalized value contains the other as a substring: match
//     (truncated or extended transcriptions)
func ValuesMatch(a, b string) bool {
	na := Normalize(a)
	nb := Normalize(b)

	if na == "" && nb == "" {
		return true
	}
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}

	za := StripLeadingZeros(na)
	zb := StripLeadingZeros(nb)
	if za == zb && za != "" {
		return true
	}

	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

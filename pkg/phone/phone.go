// Package phone normalizes phone numbers into the canonical matching
// key used to pair inbound replies with waitlist offers.
package phone

import "strings"

// KeyLength is the length of a domestic mobile number. The last
// KeyLength digits of a number are its canonical key, which makes
// "+51 943-958-912", "943958912" and "051943958912" equivalent.
const KeyLength = 9

// Key strips every non-digit rune (separators, the "+" country
// prefix, transport suffixes like "@c.us") and returns the last nine
// digits. Inputs with fewer digits are returned as-is so short test
// fixtures still match deterministically.
func Key(raw string) string {
	if at := strings.IndexByte(raw, '@'); at >= 0 {
		raw = raw[:at]
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if len(digits) <= KeyLength {
		return digits
	}
	return digits[len(digits)-KeyLength:]
}

// Match reports whether two raw numbers share a non-empty canonical key.
func Match(a, b string) bool {
	ka := Key(a)
	return ka != "" && ka == Key(b)
}

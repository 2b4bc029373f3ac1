package leads

import "strings"

// NormalizePhone strips everything except digits. "+91 70107-49648"
// and "917010749648" normalize to the same value.
func NormalizePhone(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// lastDigits returns the trailing n digits of the normalized value,
// or "" when fewer than n digits are present.
func lastDigits(value string, n int) string {
	digits := NormalizePhone(value)
	if len(digits) < n {
		return ""
	}
	return digits[len(digits)-n:]
}

// SameNumber reports whether two phone renderings refer to the same
// number. Predicates run strictest first: exact match, then a single
// leading + difference, then digits-only equality, then a shared
// 10-digit suffix so national and international renderings line up.
func SameNumber(stored, incoming string) bool {
	stored = strings.TrimSpace(stored)
	incoming = strings.TrimSpace(incoming)
	if stored == "" || incoming == "" {
		return false
	}
	if stored == incoming {
		return true
	}
	if stored == "+"+incoming || incoming == "+"+stored {
		return true
	}
	storedDigits := NormalizePhone(stored)
	incomingDigits := NormalizePhone(incoming)
	if storedDigits == "" || incomingDigits == "" {
		return false
	}
	if storedDigits == incomingDigits {
		return true
	}
	storedSuffix := lastDigits(stored, 10)
	incomingSuffix := lastDigits(incoming, 10)
	return storedSuffix != "" && storedSuffix == incomingSuffix
}

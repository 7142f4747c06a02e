package anonymize

import "strings"

const maskChar = '*'

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// MaskCreditCard hides every digit except the last four. Separators and any
// other non-digit characters stay where they are. A value with fewer than four
// digits is masked completely.
func MaskCreditCard(value string) string {
	total := 0
	for _, r := range value {
		if isDigit(r) {
			total++
		}
	}

	visibleFrom := total - 4
	if total < 4 {
		visibleFrom = total
	}

	var b strings.Builder
	b.Grow(len(value))
	seen := 0
	for _, r := range value {
		if !isDigit(r) {
			b.WriteRune(r)
			continue
		}
		if seen < visibleFrom {
			b.WriteRune(maskChar)
		} else {
			b.WriteRune(r)
		}
		seen++
	}
	return b.String()
}

// MaskSSN hides every digit and keeps the separators.
func MaskSSN(value string) string {
	return strings.Map(func(r rune) rune {
		if isDigit(r) {
			return maskChar
		}
		return r
	}, value)
}

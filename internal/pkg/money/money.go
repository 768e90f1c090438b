package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// DefaultCurrency is used when a row carries no valid currency code.
const DefaultCurrency = "EUR"

// ParseAmount parses a human-entered amount string that may use either a
// comma or a period as decimal separator, with optional thousands grouping
// ("1.234,56", "1,234.56", "10,50", "10.50"). When both separators occur the
// rightmost one is the decimal separator. A single separator followed by
// exactly three digits is read as a thousands separator. Unparsable input
// yields zero.
func ParseAmount(raw string) decimal.Decimal {
	s := cleanAmount(raw)
	if s == "" {
		return decimal.Zero
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		s = normalizeSingleSeparator(s, ",", lastComma)
	case lastDot >= 0:
		s = normalizeSingleSeparator(s, ".", lastDot)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// NormalizeCurrency validates a currency code against ISO 4217 and returns
// its canonical upper-case form, or fallback when the code is unknown.
func NormalizeCurrency(code, fallback string) string {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return fallback
	}
	return unit.String()
}

// ValidIBAN reports whether s is structurally a valid IBAN: two-letter
// country code, two check digits, alphanumeric body, and a passing ISO 7064
// mod-97 checksum. Interior spaces and letter case are ignored.
func ValidIBAN(s string) bool {
	s = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if len(s) < 15 || len(s) > 34 {
		return false
	}
	if !isUpper(s[0]) || !isUpper(s[1]) || !isDigit(s[2]) || !isDigit(s[3]) {
		return false
	}

	// Move the country code and check digits behind the account body, then
	// read letters as two-digit numbers (A=10 .. Z=35) and reduce mod 97.
	rearranged := s[4:] + s[:4]
	rem := 0
	for i := 0; i < len(rearranged); i++ {
		c := rearranged[i]
		switch {
		case isDigit(c):
			rem = (rem*10 + int(c-'0')) % 97
		case isUpper(c):
			rem = (rem*100 + int(c-'A') + 10) % 97
		default:
			return false
		}
	}
	return rem == 1
}

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// cleanAmount strips everything except digits, separators and a leading sign.
func cleanAmount(raw string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '.':
			b.WriteRune(r)
		case r == '-' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func normalizeSingleSeparator(s, sep string, last int) string {
	if strings.Count(s, sep) > 1 {
		// Repeated separator can only be grouping.
		return strings.ReplaceAll(s, sep, "")
	}
	if len(s)-last-1 == 3 {
		// "1,234" style grouping.
		return strings.ReplaceAll(s, sep, "")
	}
	return strings.Replace(s, sep, ".", 1)
}

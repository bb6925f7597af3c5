// Package money handles dollar-string parsing and display formatting for
// amounts the gateway stores in integer minor units.
package money

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/JAZtrades/zarcaro-pay/internal/models"
)

// ErrInvalidAmount is returned for input that does not parse as a decimal
// dollar amount.
var ErrInvalidAmount = errors.New("enter a valid dollar amount")

// ParseDollarsToCents converts a decimal dollar string to integer cents,
// rounding half up on any digits past the hundredths place ("12.345" -> 1235).
// The parse is done digit-by-digit rather than through float64 so that values
// like 12.345 are not lost to binary representation before rounding.
func ParseDollarsToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return 0, ErrInvalidAmount
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, ErrInvalidAmount
	}

	var cents int64
	for _, r := range whole {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
		cents = cents*10 + int64(r-'0')
		if cents > 1<<53 {
			return 0, ErrInvalidAmount
		}
	}
	cents *= 100

	for i, r := range frac {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
		switch i {
		case 0:
			cents += int64(r-'0') * 10
		case 1:
			cents += int64(r - '0')
		case 2:
			// Round half up on the first dropped digit; anything past it
			// cannot move the remainder across the half-cent line.
			if r >= '5' {
				cents++
			}
		}
	}

	if negative {
		cents = -cents
	}
	return cents, nil
}

// DisplayAmount renders integer minor units with its currency code, e.g.
// (500, "usd") -> "$5.00 USD". An empty currency defaults to USD.
func DisplayAmount(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	if currency == "" {
		currency = "USD"
	}
	return fmt.Sprintf("%s$%d.%02d %s", sign, cents/100, cents%100, strings.ToUpper(currency))
}

// DisplayStatus capitalizes the first letter of a status tag, e.g.
// "paid" -> "Paid". Casing only, no translation.
func DisplayStatus(status string) string {
	if status == "" {
		return ""
	}
	r := []rune(status)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// DisplayTimestamp formats a gateway timestamp, or an em-dash placeholder
// when the field is absent.
func DisplayTimestamp(ts *models.Timestamp) string {
	if ts == nil {
		return "—"
	}
	return time.Unix(ts.Seconds, 0).UTC().Format("Jan 02, 2006 15:04")
}

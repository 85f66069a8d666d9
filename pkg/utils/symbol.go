package utils

import (
	"strings"
)

// Common company-name shorthands users type into the search bar.
var symbolAliases = map[string]string{
	"APPLE":     "AAPL",
	"MICROSOFT": "MSFT",
	"GOOGLE":    "GOOGL",
	"ALPHABET":  "GOOGL",
	"AMAZON":    "AMZN",
	"TESLA":     "TSLA",
	"NVIDIA":    "NVDA",
	"META":      "META",
	"FACEBOOK":  "META",
	"NETFLIX":   "NFLX",
	"BERKSHIRE": "BRK.B",
	"BRK-B":     "BRK.B",
	"BRK/B":     "BRK.B",
}

// NormalizeSymbol normalizes user input to the canonical ticker form.
// It handles aliases, uppercasing, whitespace, and a leading cashtag.
func NormalizeSymbol(symbol string) string {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))

	// Remove $ prefix if present (common in chat)
	symbol = strings.TrimPrefix(symbol, "$")

	if canonical, ok := symbolAliases[symbol]; ok {
		return canonical
	}
	return symbol
}

// IsValidSymbol reports whether s looks like an exchange ticker:
// 1 to 10 characters of A-Z, 0-9, '.' or '-', starting with a letter.
func IsValidSymbol(s string) bool {
	if len(s) == 0 || len(s) > 10 {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '.' || r == '-'):
		default:
			return false
		}
	}
	return true
}

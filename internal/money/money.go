// Package money normalises the numeric values that come back from the
// spreadsheet store and formats amounts for reports.
package money

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// SettleTolerance is the rounding slack applied when comparing balances to
// zero. Amounts within this distance of zero are treated as settled.
const SettleTolerance = 0.01

// Parse converts a stored cell value into a float64. Sheet cells arrive as
// strings with locale-ambiguous separators ("1.234,56" and "1,234.56" both
// occur in legacy data); whichever separator appears last is taken as the
// decimal point. Malformed input parses to 0 rather than failing.
func Parse(value any) float64 {
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		return parseString(v)
	default:
		return 0
	}
}

func parseString(s string) float64 {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' || c == '.' || c == ',' || c == '-' {
			b.WriteRune(c)
		}
	}
	cleaned := strings.TrimSpace(b.String())
	if cleaned == "" || cleaned == "-" {
		return 0
	}

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")
	switch {
	case hasComma && hasDot:
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case hasComma:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return f
}

// Round2 rounds an amount to two decimals before it is written back to the
// sheet, so stored balances never accumulate sub-cent noise.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Settled reports whether a balance is zero within SettleTolerance.
func Settled(balance float64) bool {
	return balance <= SettleTolerance
}

var crcPrinter = message.NewPrinter(language.Spanish)

// FormatCRC renders an amount as Costa Rican colones for report cells,
// e.g. "₡1.234,56".
func FormatCRC(v float64) string {
	return crcPrinter.Sprintf("₡%.2f", v)
}

// Package textfmt renders numbers for human-readable reasoning strings.
// Output is locale-fixed (English grouping) so identical inputs always
// produce identical text.
package textfmt

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Printers are not safe for concurrent use, so one is created per call.
func printer() *message.Printer {
	return message.NewPrinter(language.English)
}

// Amount formats a currency amount rounded to whole units with thousands
// separators, e.g. 4992000 -> "4,992,000".
func Amount(v float64) string {
	return printer().Sprintf("%.0f", v)
}

// KW formats a power value rounded to two decimals without trailing zeros,
// e.g. 160 -> "160 kW".
func KW(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + " kW"
}

// Percent formats a percentage with one decimal, e.g. 12.345 -> "12.3%".
func Percent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

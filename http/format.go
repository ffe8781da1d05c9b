package http

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatCurrency renders a dollar amount with thousands grouping and two
// decimals, e.g. $12,345.68 or -$1,234.00.
func FormatCurrency(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "$" + strconv.FormatFloat(v, 'f', -1, 64)
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	s := printer.Sprintf("%.2f", v)
	if s == "0.00" {
		sign = ""
	}
	return sign + "$" + s
}

// formatCompact shortens axis labels: 12500 -> 12.5k.
func formatCompact(v float64) string {
	if math.Abs(v) >= 1000 {
		k := v / 1000
		if k == math.Trunc(k) {
			return strconv.FormatFloat(k, 'f', 0, 64) + "k"
		}
		return strconv.FormatFloat(k, 'f', 1, 64) + "k"
	}
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

package utils

import (
	"fmt"
	"strconv"
)

// FormatPrice formats a price with two decimal places and thousands
// separators.
func FormatPrice(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}
	dot := len(s) - 3
	intPart, decPart := s[:dot], s[dot:]
	var out []byte
	for i, c := range []byte(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	res := string(out) + decPart
	if neg {
		res = "-" + res
	}
	return res
}

// FormatPercent formats a fraction as a percentage with one decimal.
func FormatPercent(frac float64) string {
	return fmt.Sprintf("%.1f%%", frac*100)
}

// FormatVol formats an annualized volatility for display.
func FormatVol(sigma float64) string {
	return fmt.Sprintf("%.2f%%", sigma*100)
}

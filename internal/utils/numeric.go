package utils

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber converts a raw cell value to float64. Blank, non-numeric, NaN
// and infinite values report false; a cell cannot store either as a number. Thousands separators and currency symbols are not
// accepted: numeric cells are read unformatted, so text like "$1,000" is text.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

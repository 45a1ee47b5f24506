package entity

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var amountRegex = regexp.MustCompile(`(?i)(\d+(?:,\d{2,3})*(?:\.\d+)?)\s*(k|thousand|lakhs?|lacs?|crores?|cr)?\b`)

// ParseAmount reads the first rupee figure in text. Shorthand suffixes are
// expanded: 25k, 2 lakh, 1.5 crore.
func ParseAmount(text string) (int64, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	m := amountRegex.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	val, err := strconv.ParseFloat(stripCommas(m[1]), 64)
	if err != nil {
		return 0, false
	}
	switch unit := strings.ToLower(m[2]); {
	case unit == "k" || unit == "thousand":
		val *= 1_000
	case strings.HasPrefix(unit, "lakh") || strings.HasPrefix(unit, "lac"):
		val *= 100_000
	case strings.HasPrefix(unit, "cr"):
		val *= 10_000_000
	}
	if val <= 0 || val > math.MaxInt64/2 {
		return 0, false
	}
	return int64(math.Round(val)), true
}

// Digits returns text with every non-digit removed.
func Digits(text string) string {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

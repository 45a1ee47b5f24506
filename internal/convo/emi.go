package convo

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"bankbot/internal/entity"
)

const (
	// emiAnnualRate is the flat rate quoted by the calculator.
	emiAnnualRate = 0.085
	emiMaxMonths  = 600
)

var (
	emiRegex        = regexp.MustCompile(`\bemi\b|\bemi calculator\b|\bmonthly instal+ments?\b`)
	emiTenureRegex  = regexp.MustCompile(`((?:₹|rs\.?\s*|inr\s*)?[\d,]+(?:\.\d+)?\s*(?:k|thousand|lakhs?|lacs?|crores?|cr)?)\s+(?:for\s+|over\s+|in\s+)?(\d{1,3})\s*(months?|mons?|years?|yrs?|quarters?)\b`)
	emiUnitToMonths = map[string]int{
		"month": 1, "months": 1, "mon": 1, "mons": 1,
		"year": 12, "years": 12, "yr": 12, "yrs": 12,
		"quarter": 3, "quarters": 3,
	}
)

// emi answers a one-shot EMI question. It never touches session state.
func (e *Engine) emi(t *turn) (Result, bool) {
	m := emiTenureRegex.FindStringSubmatch(t.text)
	if m == nil {
		if emiRegex.MatchString(t.text) {
			return e.reply(t, LabelEMI, emiPrompt), true
		}
		return Result{}, false
	}

	principal, ok := entity.ParseAmount(m[1])
	count, _ := strconv.Atoi(m[2])
	months := count * emiUnitToMonths[m[3]]
	if !ok || months <= 0 || months > emiMaxMonths {
		return e.reply(t, LabelEMI, emiPrompt), true
	}

	emi := computeEMI(float64(principal), months)
	total := emi * float64(months)
	return e.reply(t, LabelEMI, fmt.Sprintf(
		"📊 EMI Calculation\nLoan Amount: %s\nTenure: %d months\nInterest Rate: %.1f%% p.a.\nMonthly EMI: %s\nTotal Interest: %s\nTotal Payment: %s",
		formatINR(principal), months, emiAnnualRate*100,
		formatINR(int64(math.Round(emi))),
		formatINR(int64(math.Round(total))-principal),
		formatINR(int64(math.Round(total))),
	)), true
}

// computeEMI returns the reducing-balance instalment P·r·(1+r)^n / ((1+r)^n − 1).
func computeEMI(principal float64, months int) float64 {
	r := emiAnnualRate / 12
	f := math.Pow(1+r, float64(months))
	return principal * r * f / (f - 1)
}

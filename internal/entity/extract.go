package entity

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Slot names produced by Extract.
const (
	Last4         = "last4"
	AccountNumber = "account_number"
	Money         = "money"
	PaymentMethod = "payment_method"
	ReceiverName  = "receiver_name"
)

// Canonical payment methods.
const (
	MethodUPI          = "UPI"
	MethodBankTransfer = "Bank Transfer"
)

var (
	last4Regex        = regexp.MustCompile(`^\s*(\d{4})\s*$`)
	accountRegex      = regexp.MustCompile(`\b\d{6,16}\b`)
	currencyRegex     = regexp.MustCompile(`(?i)(?:₹|\brs\.?|\binr)\s?(\d{1,12}(?:,\d{2,3})*(?:\.\d{1,2})?)`)
	bareMoneyRegex    = regexp.MustCompile(`\b(\d{1,3}(?:,\d{2,3})+|\d{2,12})(?:\.\d{1,2})?\b`)
	upiRegex          = regexp.MustCompile(`(?i)\bupi\b`)
	bankTransferRegex = regexp.MustCompile(`(?i)\b(?:bank transfer|neft|imps|rtgs)\b`)
	receiverToRegex   = regexp.MustCompile(`(?i)^.*\bto\s+([A-Za-z][A-Za-z.' \-]{1,40})`)
	receiverPayRegex  = regexp.MustCompile(`(?i)\b(?:pay|send)\s+([A-Za-z][A-Za-z.' \-]{1,40})`)
	receiverTailRegex = regexp.MustCompile(`(?i)\s+(?:via|using|by|through|on|from|for|with|in)\b.*$`)
)

// notNames are words that follow "to"/"pay"/"send" without naming a person.
var notNames = map[string]bool{
	"money": true, "cash": true, "funds": true, "fund": true, "amount": true, "rs": true, "inr": true,
	"bill": true, "bills": true, "my": true, "the": true, "a": true, "an": true, "me": true,
	"transfer": true, "send": true, "pay": true, "check": true, "open": true, "apply": true, "know": true,
}

// Entities maps slot names to normalised values.
type Entities map[string]string

// Amount returns the money slot as whole rupees.
func (e Entities) Amount() (int64, bool) {
	raw, ok := e[Money]
	if !ok {
		return 0, false
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil || val <= 0 {
		return 0, false
	}
	return int64(val), true
}

// Extract recognises slot values in a single line of user text. It has no
// side effects and returns the same result for the same input.
func Extract(text string) Entities {
	ents := Entities{}
	text = strings.TrimSpace(text)
	if text == "" {
		return ents
	}

	if m := last4Regex.FindStringSubmatch(text); m != nil {
		ents[Last4] = m[1]
	}
	if m := accountRegex.FindString(text); m != "" {
		ents[AccountNumber] = m
	}

	if m := currencyRegex.FindStringSubmatch(text); m != nil {
		ents[Money] = stripCommas(m[1])
	} else if ents[Last4] == "" && ents[AccountNumber] == "" {
		if m := bareMoneyRegex.FindString(text); m != "" {
			ents[Money] = stripCommas(m)
		}
	}

	switch {
	case upiRegex.MatchString(text):
		ents[PaymentMethod] = MethodUPI
	case bankTransferRegex.MatchString(text):
		ents[PaymentMethod] = MethodBankTransfer
	}

	if name := receiverName(text); name != "" {
		ents[ReceiverName] = name
	}
	return ents
}

func receiverName(text string) string {
	for _, re := range []*regexp.Regexp{receiverToRegex, receiverPayRegex} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(receiverTailRegex.ReplaceAllString(m[1], ""))
		first, _, _ := strings.Cut(strings.ToLower(name), " ")
		if name != "" && !notNames[first] {
			return TitleCase(name)
		}
	}
	return ""
}

// TitleCase upper-cases the first letter of every word.
func TitleCase(s string) string {
	return cases.Title(language.English).String(strings.Join(strings.Fields(s), " "))
}

func stripCommas(s string) string {
	return strings.ReplaceAll(s, ",", "")
}

package convo

import (
	"fmt"
	"regexp"
	"strings"

	"bankbot/internal/entity"
)

var (
	accountOpenRegex = regexp.MustCompile(`\b(open|create|new)\s+(an?\s+)?(new\s+)?(bank\s+|savings\s+|current\s+)?account\b`)
	nationalIDRegex  = regexp.MustCompile(`^\d{12}$`)
	letterRegex      = regexp.MustCompile(`[A-Za-z]`)

	accountTypes        = []string{"Savings", "Current"}
	accountTypeKeywords = []actionMatcher[string]{
		{"Savings", regexp.MustCompile(`\bsavings?\b`)},
		{"Current", regexp.MustCompile(`\bcurrent\b`)},
	}
)

const (
	minAccountAge    = 18
	minAddressLength = 10
	accountAgePrompt = "Please enter your age."
	addressPrompt    = "Please enter your residential address."
	nationalIDPrompt = "Please enter your 12-digit Aadhaar number."
	accountOpenIntro = "Let's open your new bank account. "
	accountEditIntro = "Okay, let's start again. "
	accountAgeRetry  = "Please enter a valid age in years (numbers only)."
	addressRetry     = "Please enter your complete address (at least 10 characters)."
	nationalIDRetry  = "Please enter a valid 12-digit Aadhaar number."
	accountNameRetry = "Please enter a valid full name (letters only)."
	accountTypeRetry = "Please choose 1 for Savings or 2 for Current."
)

// accountFlow walks the six account-opening steps.
func (e *Engine) accountFlow(st *State, t *turn) Result {
	if st.ActiveFlow != FlowAccount {
		st.enter(FlowAccount)
		st.Account.Step = AccountStepName
		return e.reply(t, LabelAccountOpen, accountOpenIntro+accountNamePrompt)
	}

	a := &st.Account
	switch a.Step {
	case AccountStepName:
		if !personNameRegex.MatchString(t.raw) {
			return e.reply(t, LabelAccountOpenStep, accountNameRetry)
		}
		a.Name = entity.TitleCase(t.raw)
		a.Step = AccountStepAge
		return e.reply(t, LabelAccountOpenStep, accountAgePrompt)

	case AccountStepAge:
		ans, ok := parseCount(3)(t.raw, t.text)
		if !ok {
			return e.reply(t, LabelAccountOpenStep, accountAgeRetry)
		}
		if ans.n < minAccountAge {
			e.metrics.Disqualifications.WithLabelValues(string(FlowAccount), "account").Inc()
			st.Reset()
			return e.reply(t, LabelAccountRejected, fmt.Sprintf("❌ Sorry, you cannot open an account. Minimum age is %d.", minAccountAge))
		}
		a.Age = ans.n
		a.Step = AccountStepType
		return e.reply(t, LabelAccountOpenStep, accountTypeMenu)

	case AccountStepType:
		typ, ok := choose(accountTypes, accountTypeKeywords, t.text)
		if !ok {
			return e.reply(t, LabelAccountOpenStep, accountTypeRetry)
		}
		a.Type = typ
		a.Step = AccountStepAddress
		return e.reply(t, LabelAccountOpenStep, addressPrompt)

	case AccountStepAddress:
		if len(t.raw) < minAddressLength || !letterRegex.MatchString(t.raw) {
			return e.reply(t, LabelAccountOpenStep, addressRetry)
		}
		a.Address = t.raw
		a.Step = AccountStepNationalID
		return e.reply(t, LabelAccountOpenStep, nationalIDPrompt)

	case AccountStepNationalID:
		id := entity.Digits(t.raw)
		if !nationalIDRegex.MatchString(id) || len(id) != len(stripSpaces(t.raw)) {
			return e.reply(t, LabelAccountOpenStep, nationalIDRetry)
		}
		a.NationalID = id
		a.Step = AccountStepConfirm
		return e.reply(t, LabelAccountOpenStep, accountSummary(a))

	case AccountStepConfirm:
		switch t.text {
		case "confirm", "yes", "submit":
			return e.submitAccount(st, t)
		case "edit", "no", "change":
			st.Account.Reset()
			st.Account.Step = AccountStepName
			return e.reply(t, LabelAccountOpenStep, accountEditIntro+accountNamePrompt)
		}
		return e.reply(t, LabelAccountOpenStep, accountConfirm)
	}

	st.Reset()
	return e.reply(t, LabelUnknown, unknownReply)
}

func (e *Engine) submitAccount(st *State, t *turn) Result {
	a := st.Account
	msg := fmt.Sprintf("✅ Your %s account request has been submitted!\nReference: %s\nName: %s\n"+
		"Your account details will be sent to you within 2 working days after verification.", a.Type, newRef("ACC"), a.Name)
	e.logger.Info("account opening submitted", "type", a.Type)
	st.Reset()
	return e.reply(t, LabelAccountSubmitted, msg)
}

func accountSummary(a *AccountState) string {
	return fmt.Sprintf("Please review your details:\nName: %s\nAge: %d\nAccount Type: %s\nAddress: %s\nAadhaar: %s\n\n%s",
		a.Name, a.Age, a.Type, a.Address, maskNationalID(a.NationalID), accountConfirm)
}

var idSeparators = strings.NewReplacer(" ", "", "-", "")

func stripSpaces(s string) string {
	return idSeparators.Replace(s)
}

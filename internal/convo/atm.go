package convo

import (
	"fmt"
	"regexp"
	"strconv"

	"bankbot/internal/entity"
)

var (
	atmRegex     = regexp.MustCompile(`\batms?\b`)
	atmOnlyRegex = regexp.MustCompile(`^atms?$`)

	atmActions        = []ATMAction{ATMLocator, ATMLimit, ATMIssue, ATMNotDispensed, ATMPinChange}
	atmActionKeywords = []actionMatcher[ATMAction]{
		{ATMNotDispensed, regexp.MustCompile(`not dispensed|didn'?t dispense|no cash|cash not|money not`)},
		{ATMLocator, regexp.MustCompile(`\b(nearest|nearby|locate|locator|find|near me|where)\b`)},
		{ATMPinChange, regexp.MustCompile(`\bpin\b`)},
		{ATMLimit, regexp.MustCompile(`\b(limit|withdrawal|withdraw)\b`)},
		{ATMIssue, regexp.MustCompile(`\b(issue|problem|complaint|stuck|not working)\b`)},
	}
)

func (e *Engine) atmFlow(st *State, t *turn) Result {
	if st.ActiveFlow != FlowATM || atmOnlyRegex.MatchString(t.text) {
		st.enter(FlowATM)
		st.ATM.Step = ATMStepAction
		if action, ok := matchAction(atmActionKeywords, t.text); ok {
			return e.atmActionChosen(st, t, action)
		}
		return e.reply(t, LabelATMServices, atmMenu)
	}

	a := &st.ATM
	switch a.Step {
	case ATMStepLast4:
		last4, ok := t.ents[entity.Last4]
		if !ok {
			return e.reply(t, atmLabel(a.Action), last4Prompt("ATM/debit"))
		}
		a.Last4 = last4
		return e.executeATM(st, t)
	default:
		action, ok := atmActionFromChoice(t.text)
		if !ok {
			return e.reply(t, LabelATMServices, atmMenu)
		}
		return e.atmActionChosen(st, t, action)
	}
}

func (e *Engine) atmActionChosen(st *State, t *turn, action ATMAction) Result {
	st.ATM.Action = action
	if action == ATMLocator {
		return e.executeATM(st, t)
	}
	st.ATM.Step = ATMStepLast4
	return e.reply(t, atmLabel(action), last4Prompt("ATM/debit"))
}

func (e *Engine) executeATM(st *State, t *turn) Result {
	a := st.ATM
	masked := maskCard(a.Last4)

	var msg string
	switch a.Action {
	case ATMLocator:
		msg = "📍 Nearest ATMs:\n1) MG Road Branch ATM - 0.5 km\n2) City Centre Mall ATM - 1.2 km\n3) Railway Station ATM - 2.0 km"
	case ATMLimit:
		msg = fmt.Sprintf("ATM withdrawal limit is ₹40,000/day for card %s.", masked)
	case ATMIssue:
		msg = fmt.Sprintf("Your ATM issue for card %s has been logged.\nComplaint ID: %s\nOur team will contact you within 24 hours.", masked, newRef("CMP"))
	case ATMNotDispensed:
		msg = fmt.Sprintf("We have registered a cash-not-dispensed complaint for card %s.\nComplaint ID: %s\nAny debited amount will be auto-reversed within 5 working days.", masked, newRef("CMP"))
	case ATMPinChange:
		msg = fmt.Sprintf("An OTP has been sent to your registered mobile number to change the ATM PIN for card %s.", masked)
	}

	st.Reset()
	return e.reply(t, atmLabel(a.Action), msg+continueTail)
}

func atmActionFromChoice(text string) (ATMAction, bool) {
	if n, err := strconv.Atoi(text); err == nil {
		if n >= 1 && n <= len(atmActions) {
			return atmActions[n-1], true
		}
		return "", false
	}
	return matchAction(atmActionKeywords, text)
}

func matchAction[A ~string](matchers []actionMatcher[A], text string) (A, bool) {
	for _, m := range matchers {
		if m.re.MatchString(text) {
			return m.action, true
		}
	}
	var zero A
	return zero, false
}

func atmLabel(action ATMAction) string {
	if action == "" {
		return LabelATMServices
	}
	return "atm_" + string(action)
}

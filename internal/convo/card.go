package convo

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"bankbot/internal/entity"
)

var (
	cardOnlyRegex    = regexp.MustCompile(`^(my )?cards?$`)
	debitRegex       = regexp.MustCompile(`\bdebit\b`)
	creditRegex      = regexp.MustCompile(`\bcredit\b`)
	creditScoreRegex = regexp.MustCompile(`\bcredit scores?\b`)
	loanWordRegex    = regexp.MustCompile(`\bloans?\b`)
)

type actionMatcher[A ~string] struct {
	action A
	re     *regexp.Regexp
}

var (
	debitActions  = []CardAction{CardBlock, CardUnblock, CardStatus, CardApply, CardReport}
	creditActions = []CardAction{CardBlock, CardUnblock, CardStatus, CardApply, CardViewBill, CardPayBill}

	cardActionKeywords = []actionMatcher[CardAction]{
		{CardUnblock, regexp.MustCompile(`\bunblock\b`)},
		{CardBlock, regexp.MustCompile(`\bblock\b`)},
		{CardPayBill, regexp.MustCompile(`\bpay\b.*\bbill\b|\bbill payment\b|\bpay\b`)},
		{CardViewBill, regexp.MustCompile(`\b(view|show|check|see)\b.*\bbill\b|\bstatement\b|\bbill\b`)},
		{CardReport, regexp.MustCompile(`\b(report|lost|stolen)\b`)},
		{CardApply, regexp.MustCompile(`\b(apply|new card|replacement)\b`)},
		{CardStatus, regexp.MustCompile(`\bstatus\b`)},
	}
)

// wantsCard reports whether text opens the card flow and, if named, which card type.
func wantsCard(text string) (CardType, bool) {
	switch {
	case cardOnlyRegex.MatchString(text):
		return "", true
	case debitRegex.MatchString(text):
		return CardDebit, true
	case creditRegex.MatchString(text) && !creditScoreRegex.MatchString(text) && !loanWordRegex.MatchString(text):
		return CardCredit, true
	}
	return "", false
}

func (e *Engine) openCard(st *State, t *turn, typ CardType) Result {
	st.enter(FlowCard)
	if typ == "" {
		st.Card.Step = CardStepType
		return e.reply(t, LabelCardServices, cardAskMenu)
	}
	st.Card.Type = typ
	st.Card.Step = CardStepAction
	if action, ok := cardActionFromKeyword(typ, t.text); ok {
		return e.cardActionChosen(st, t, action)
	}
	return e.reply(t, LabelCardServices, cardMenu(typ))
}

func (e *Engine) cardFlow(st *State, t *turn) Result {
	c := &st.Card
	switch c.Step {
	case CardStepType:
		switch t.text {
		case "1":
			c.Type = CardDebit
		case "2":
			c.Type = CardCredit
		default:
			return e.reply(t, LabelCardServices, cardAskType)
		}
		c.Step = CardStepAction
		return e.reply(t, LabelCardServices, cardMenu(c.Type))

	case CardStepAction:
		action, ok := cardActionFromChoice(c.Type, t.text)
		if !ok {
			return e.reply(t, LabelCardServices, cardMenu(c.Type))
		}
		return e.cardActionChosen(st, t, action)

	case CardStepLast4:
		last4, ok := t.ents[entity.Last4]
		if !ok {
			return e.reply(t, cardLabel(c), last4Prompt(string(c.Type)))
		}
		c.Last4 = last4
		if c.Type == CardCredit && c.Action == CardPayBill {
			c.Step = CardStepAmount
			return e.reply(t, cardLabel(c), billPrompt)
		}
		return e.executeCard(st, t)

	case CardStepAmount:
		amount, ok := t.ents.Amount()
		if !ok {
			amount, ok = entity.ParseAmount(t.raw)
		}
		if !ok {
			return e.reply(t, cardLabel(c), billPrompt)
		}
		c.Amount = amount
		return e.executeCard(st, t)
	}

	// Unknown step: start the flow again.
	return e.openCard(st, t, "")
}

func (e *Engine) cardActionChosen(st *State, t *turn, action CardAction) Result {
	c := &st.Card
	c.Action = action
	if action == CardApply {
		return e.executeCard(st, t)
	}
	c.Step = CardStepLast4
	return e.reply(t, cardLabel(c), last4Prompt(string(c.Type)))
}

func (e *Engine) executeCard(st *State, t *turn) Result {
	c := st.Card
	label := cardLabel(&c)
	masked := maskCard(c.Last4)

	var msg string
	switch c.Action {
	case CardBlock:
		msg = fmt.Sprintf("✅ Your %s card %s has been blocked successfully.", c.Type, masked)
	case CardUnblock:
		msg = fmt.Sprintf("✅ Your %s card %s has been unblocked and is ready to use.", c.Type, masked)
	case CardStatus:
		msg = fmt.Sprintf("Your %s card %s is Active.", c.Type, masked)
	case CardApply:
		msg = fmt.Sprintf("✅ Your application for a new %s card has been submitted.\nReference: %s\nThe card will be delivered to your registered address within 7-10 working days.", c.Type, newRef("CRD"))
	case CardReport:
		msg = fmt.Sprintf("🚨 Your %s card %s has been reported lost/stolen and permanently blocked. A replacement card will be dispatched within 7 working days.", c.Type, masked)
	case CardViewBill:
		msg = fmt.Sprintf("Your credit card %s statement:\nTotal Due: ₹12,450\nMinimum Due: ₹1,245\nDue Date: 15th of this month.", masked)
	case CardPayBill:
		msg = fmt.Sprintf("✅ Payment of %s towards your credit card %s was successful.", formatINR(c.Amount), masked)
	}

	st.Reset()
	return e.reply(t, label, msg+continueTail)
}

func cardActionFromChoice(typ CardType, text string) (CardAction, bool) {
	actions := debitActions
	if typ == CardCredit {
		actions = creditActions
	}
	if n, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
		if n >= 1 && n <= len(actions) {
			return actions[n-1], true
		}
		return "", false
	}
	return cardActionFromKeyword(typ, text)
}

func cardActionFromKeyword(typ CardType, text string) (CardAction, bool) {
	for _, m := range cardActionKeywords {
		if !m.re.MatchString(text) {
			continue
		}
		switch {
		case typ == CardDebit && (m.action == CardPayBill || m.action == CardViewBill):
			continue
		case typ == CardCredit && m.action == CardReport:
			continue
		}
		return m.action, true
	}
	return "", false
}

func cardMenu(typ CardType) string {
	if typ == CardCredit {
		return creditMenu
	}
	return debitMenu
}

func cardLabel(c *CardState) string {
	if c.Action == "" {
		return LabelCardServices
	}
	return fmt.Sprintf("%s_card_%s", c.Type, c.Action)
}

func last4Prompt(kind string) string {
	return fmt.Sprintf("For security, please enter the last 4 digits of your %s card.", kind)
}

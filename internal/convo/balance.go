package convo

import (
	"context"
	"fmt"
	"regexp"

	"bankbot/internal/entity"
)

var (
	balanceRegex     = regexp.MustCompile(`\b(balance|check balance|account balance)\b`)
	accountOnlyRegex = regexp.MustCompile(`^\d{6,16}$`)
)

// askBalance is the first half of the balance enquiry. An account number in
// the same message skips straight to the lookup.
func (e *Engine) askBalance(ctx context.Context, st *State, t *turn) Result {
	if acct := t.ents[entity.AccountNumber]; acct != "" {
		return e.balanceOf(ctx, st, t, acct)
	}
	st.LastTopic = topicBalance
	return e.reply(t, LabelCheckBalance, balancePrompt)
}

func (e *Engine) lookupBalance(ctx context.Context, st *State, t *turn) Result {
	return e.balanceOf(ctx, st, t, t.raw)
}

func (e *Engine) balanceOf(ctx context.Context, st *State, t *turn, acct string) Result {
	balance, err := e.ledger.GetBalance(ctx, acct)
	switch {
	case isNotFound(err):
		st.LastTopic = ""
		return e.reply(t, LabelBalanceResult, accountNotFound)
	case err != nil:
		return e.failed(t, "ledger", err)
	}
	st.LastTopic = ""
	return e.reply(t, LabelBalanceResult, fmt.Sprintf("💰 Available balance for A/C %s: %s", acct, formatINR(balance)))
}

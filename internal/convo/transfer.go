package convo

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"bankbot/internal/entity"
	"bankbot/internal/repo"
)

var (
	transferRegex   = regexp.MustCompile(`\b(pay|transfer|send)\b`)
	billRegex       = regexp.MustCompile(`\bbills?\b`)
	bankMethodRegex = regexp.MustCompile(`\b(bank|neft|imps|rtgs)\b`)

	// errAfterDebit marks a primitive-ledger failure that happened after the
	// sender was already debited.
	errAfterDebit = errors.New("transfer interrupted after debit")
)

const (
	transferNameRetry    = "Please enter the receiver's name."
	transferAccountRetry = "Please enter a valid account number (6–16 digits)."
	transferAmountRetry  = "Please enter amount in digits only."
	transferMethodRetry  = "Invalid payment method. Please choose UPI or Bank Transfer."
)

// wantsTransfer reports whether a pay/send/transfer keyword should open the
// transfer flow. Bill payments inside the card flow stay with the card, as
// does any answer to the bill amount prompt.
func (e *Engine) wantsTransfer(st *State, t *turn) bool {
	if st.ActiveFlow == FlowTransfer || !transferRegex.MatchString(t.text) {
		return false
	}
	if st.ActiveFlow == FlowCard {
		return st.Card.Step != CardStepAmount && !billRegex.MatchString(t.text)
	}
	return true
}

// openTransfer starts the flow, keeping any receiver, account or amount
// already present in the opening message.
func (e *Engine) openTransfer(st *State, t *turn) Result {
	st.enter(FlowTransfer)
	tr := &st.Transfer
	tr.ReceiverName = t.ents[entity.ReceiverName]
	tr.ReceiverAccount = t.ents[entity.AccountNumber]
	if amt, ok := t.ents.Amount(); ok && t.ents[entity.Money] != tr.ReceiverAccount {
		tr.Amount = amt
	}
	return e.nextTransferPrompt(st, t, LabelTransferStart)
}

func (e *Engine) transferFlow(ctx context.Context, st *State, t *turn) Result {
	tr := &st.Transfer
	switch tr.Step {
	case TransferStepReceiver:
		name := t.ents[entity.ReceiverName]
		if name == "" && personNameRegex.MatchString(t.raw) {
			name = entity.TitleCase(t.raw)
		}
		if name == "" {
			return e.reply(t, LabelTransferStep, transferNameRetry)
		}
		tr.ReceiverName = name

	case TransferStepAccount:
		acct := stripSpaces(t.raw)
		if !accountOnlyRegex.MatchString(acct) {
			return e.reply(t, LabelTransferStep, transferAccountRetry)
		}
		tr.ReceiverAccount = acct

	case TransferStepAmount:
		amt, ok := entity.ParseAmount(t.raw)
		if !ok {
			return e.reply(t, LabelTransferStep, transferAmountRetry)
		}
		tr.Amount = amt

	case TransferStepMethod:
		method := t.ents[entity.PaymentMethod]
		if method == "" && bankMethodRegex.MatchString(t.text) {
			method = entity.MethodBankTransfer
		}
		if method == "" {
			return e.reply(t, LabelTransferStep, transferMethodRetry)
		}
		return e.executeTransfer(ctx, st, t, method)

	default:
		return e.openTransfer(st, t)
	}
	return e.nextTransferPrompt(st, t, LabelTransferStep)
}

// nextTransferPrompt moves to the first slot still missing and asks for it.
func (e *Engine) nextTransferPrompt(st *State, t *turn, label string) Result {
	tr := &st.Transfer
	switch {
	case tr.ReceiverName == "":
		tr.Step = TransferStepReceiver
		return e.reply(t, label, transferAskReceiver)
	case tr.ReceiverAccount == "":
		tr.Step = TransferStepAccount
		return e.reply(t, label, fmt.Sprintf("Please enter %s's account number.", tr.ReceiverName))
	case tr.Amount <= 0:
		tr.Step = TransferStepAmount
		return e.reply(t, label, fmt.Sprintf("How much would you like to send to %s?", tr.ReceiverName))
	default:
		tr.Step = TransferStepMethod
		return e.reply(t, label, transferAskMethod)
	}
}

func (e *Engine) executeTransfer(ctx context.Context, st *State, t *turn, method string) Result {
	tr := st.Transfer
	if st.Identity == "" {
		st.Reset()
		return e.reply(t, LabelTransferFailed, transferNoLogin)
	}
	if st.Identity == tr.ReceiverAccount {
		e.metrics.Transfers.WithLabelValues("self").Inc()
		st.Reset()
		return e.reply(t, LabelTransferFailed, transferSelf)
	}

	txn := repo.Transaction{
		Reference:    newRef("TXN"),
		Sender:       st.Identity,
		Receiver:     tr.ReceiverAccount,
		ReceiverName: tr.ReceiverName,
		Amount:       tr.Amount,
		Mode:         method,
		Status:       repo.StatusSuccess,
	}
	err := e.move(ctx, txn)
	switch {
	case errors.Is(err, repo.ErrInsufficientFunds), isNotFound(err):
		e.metrics.Transfers.WithLabelValues("insufficient_funds").Inc()
		st.Reset()
		return e.reply(t, LabelTransferFailed, transferNoFunds)
	case errors.Is(err, errAfterDebit):
		e.metrics.Transfers.WithLabelValues("error").Inc()
		e.recordFailed(ctx, txn)
		st.Reset()
		return e.failed(t, "ledger", err)
	case err != nil:
		// The flow stays at the method step so the user can retry.
		e.metrics.Transfers.WithLabelValues("error").Inc()
		e.recordFailed(ctx, txn)
		return e.failed(t, "ledger", err)
	}

	e.metrics.Transfers.WithLabelValues("success").Inc()
	e.logger.Info("transfer completed", "reference", txn.Reference, "amount", txn.Amount, "mode", txn.Mode)
	st.Reset()
	return e.reply(t, LabelTransferSuccess, fmt.Sprintf("✅ Transfer Successful!\n%s transferred to %s (A/C: %s) via %s.\nTransaction ID: %s",
		formatINR(txn.Amount), txn.ReceiverName, txn.Receiver, txn.Mode, txn.Reference))
}

// move applies txn to the ledger, atomically when the ledger supports it.
func (e *Engine) move(ctx context.Context, txn repo.Transaction) error {
	if tx, ok := e.ledger.(AtomicLedger); ok {
		return tx.Transfer(ctx, txn)
	}

	balance, err := e.ledger.GetBalance(ctx, txn.Sender)
	if err != nil {
		return err
	}
	if balance < txn.Amount {
		return repo.ErrInsufficientFunds
	}
	if err := e.ledger.SetBalance(ctx, txn.Sender, balance-txn.Amount); err != nil {
		return err
	}

	receiver, err := e.ledger.GetAccount(ctx, txn.Receiver)
	switch {
	case isNotFound(err):
		// Receivers outside this bank have no ledger row.
	case err != nil:
		return fmt.Errorf("%w: read receiver: %w", errAfterDebit, err)
	default:
		if err := e.ledger.SetBalance(ctx, txn.Receiver, receiver.Balance+txn.Amount); err != nil {
			return fmt.Errorf("%w: credit receiver: %w", errAfterDebit, err)
		}
	}

	if err := e.ledger.RecordTransaction(ctx, txn); err != nil {
		e.metrics.Errors.WithLabelValues("ledger").Inc()
		e.logger.Warn("transaction record failed", "reference", txn.Reference, "error", err)
	}
	return nil
}

// recordFailed keeps an audit row for a transfer that did not complete.
func (e *Engine) recordFailed(ctx context.Context, txn repo.Transaction) {
	txn.Status = repo.StatusFailed
	if err := e.ledger.RecordTransaction(ctx, txn); err != nil {
		e.logger.Warn("failed transfer not recorded", "reference", txn.Reference, "error", err)
	}
}

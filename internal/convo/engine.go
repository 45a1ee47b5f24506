package convo

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"bankbot/internal/entity"
	"bankbot/internal/metrics"
	"bankbot/internal/nlu"
	"bankbot/internal/repo"
)

// Ledger is the account store consulted by balance enquiries and transfers.
// Lookups of missing accounts return repo.ErrNotFound.
type Ledger interface {
	GetBalance(ctx context.Context, account string) (int64, error)
	SetBalance(ctx context.Context, account string, balance int64) error
	GetAccount(ctx context.Context, account string) (*repo.Account, error)
	RecordTransaction(ctx context.Context, txn repo.Transaction) error
}

// AtomicLedger is implemented by ledgers that can execute a whole transfer in
// one transaction. The engine prefers it when available.
type AtomicLedger interface {
	Transfer(ctx context.Context, txn repo.Transaction) error
}

// ModelSource hands out the live classifier model. It may return nil.
type ModelSource interface {
	Current() *nlu.Model
}

// Options tunes routing.
type Options struct {
	// Threshold is the minimum classifier probability accepted as the turn's intent.
	Threshold float64
	// RuleConfidence is reported for every rule-path reply.
	RuleConfidence float64
}

// Engine routes one line of user text through the flows and produces a Result.
type Engine struct {
	ledger  Ledger
	models  ModelSource
	faq     *FAQ
	opts    Options
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a conversation engine instance.
func New(ledger Ledger, models ModelSource, faq *FAQ, metrics *metrics.Metrics, logger *slog.Logger, opts Options) *Engine {
	if opts.Threshold <= 0 {
		opts.Threshold = 0.55
	}
	if opts.RuleConfidence <= 0 {
		opts.RuleConfidence = 0.70
	}
	if faq == nil {
		faq = DefaultFAQ()
	}
	return &Engine{
		ledger:  ledger,
		models:  models,
		faq:     faq,
		opts:    opts,
		metrics: metrics,
		logger:  logger.With("component", "convo"),
	}
}

// turn carries the per-turn inputs shared by every handler.
type turn struct {
	raw  string
	text string
	ents entity.Entities
}

var (
	greetRegex     = regexp.MustCompile(`\b(hi|hello|hey)\b`)
	menuDigitRegex = regexp.MustCompile(`^[1-9]$`)
	cancelWords    = map[string]bool{"cancel": true, "stop": true, "exit": true, "quit": true, "reset": true, "start over": true}
)

// ProcessTurn runs one turn against st, mutating it in place. It never fails:
// collaborator errors are logged and turned into a generic reply.
func (e *Engine) ProcessTurn(ctx context.Context, st *State, input string) Result {
	started := time.Now()
	t := &turn{raw: strings.TrimSpace(input)}
	t.text = normalise(t.raw)
	t.ents = entity.Extract(t.raw)

	res, matched := e.route(ctx, st, t)
	res = e.assemble(ctx, t, res, matched)

	e.metrics.Turns.WithLabelValues(res.Label).Inc()
	e.metrics.TurnLatency.Observe(time.Since(started).Seconds())
	return res
}

func (e *Engine) route(ctx context.Context, st *State, t *turn) (Result, bool) {
	if st.Loan.WaitingForApply {
		return e.applyDecision(st, t), true
	}
	if st.ActiveFlow != FlowNone && cancelWords[t.text] {
		st.Reset()
		return e.reply(t, LabelCancel, cancelReply), true
	}
	if st.ActiveFlow != FlowNone && menuDigitRegex.MatchString(t.raw) {
		delete(t.ents, entity.Money)
	}
	if greetRegex.MatchString(t.text) {
		return e.reply(t, LabelGreet, greetingReply), true
	}
	if typ, ok := wantsCard(t.text); ok {
		return e.openCard(st, t, typ), true
	}
	if balanceRegex.MatchString(t.text) {
		return e.askBalance(ctx, st, t), true
	}
	if st.LastTopic == topicBalance && accountOnlyRegex.MatchString(t.raw) {
		return e.lookupBalance(ctx, st, t), true
	}
	if e.wantsTransfer(st, t) {
		return e.openTransfer(st, t), true
	}

	switch st.ActiveFlow {
	case FlowTransfer:
		return e.transferFlow(ctx, st, t), true
	case FlowCard:
		return e.cardFlow(st, t), true
	}

	if atmRegex.MatchString(t.text) || st.ActiveFlow == FlowATM {
		return e.atmFlow(st, t), true
	}
	if (loanRegex.MatchString(t.text) && !emiRegex.MatchString(t.text)) || st.ActiveFlow == FlowLoan {
		return e.loanFlow(st, t), true
	}
	if accountOpenRegex.MatchString(t.text) || st.ActiveFlow == FlowAccount {
		return e.accountFlow(st, t), true
	}
	if res, ok := e.emi(t); ok {
		return res, true
	}
	if res, ok := e.faqAnswer(t); ok {
		return res, true
	}
	return Result{}, false
}

// assemble applies the classifier fallback and the small-talk and default
// replies to whatever the rule path produced.
func (e *Engine) assemble(ctx context.Context, t *turn, res Result, matched bool) Result {
	if matched && !sentinelLabels[res.Label] {
		return res
	}

	pred, reply, accepted := e.classify(ctx, t)
	if !matched {
		if accepted && reply != "" {
			e.metrics.ClassifierOverrides.WithLabelValues(pred.Label).Inc()
			return Result{Label: pred.Label, Entities: t.ents, Reply: reply, Confidence: pred.Confidence}
		}
		if st, ok := e.smallTalk(t); ok {
			return st
		}
		res = e.reply(t, LabelUnknown, unknownReply)
	}

	if accepted {
		e.metrics.ClassifierOverrides.WithLabelValues(pred.Label).Inc()
		res.Label = pred.Label
		res.Confidence = pred.Confidence
		if reply != "" {
			res.Reply = reply
		}
	}
	return res
}

// classify consults the live model. It reports the prediction, a corpus reply
// for it (possibly empty) and whether the prediction cleared the threshold.
func (e *Engine) classify(ctx context.Context, t *turn) (nlu.Prediction, string, bool) {
	if e.models == nil || t.raw == "" {
		return nlu.Prediction{}, "", false
	}
	model := e.models.Current()
	if model == nil || model.Classifier == nil {
		return nlu.Prediction{}, "", false
	}

	started := time.Now()
	pred, err := model.Classifier.Predict(ctx, t.raw)
	e.metrics.ClassifierLatency.Observe(time.Since(started).Seconds())
	if err != nil {
		e.metrics.ClassifierRequests.WithLabelValues("error").Inc()
		e.metrics.Errors.WithLabelValues("classifier").Inc()
		e.logger.Warn("classifier prediction failed", "error", err, "model", model.Version)
		return nlu.Prediction{}, "", false
	}
	if pred.Label == "" || pred.Confidence < e.opts.Threshold {
		e.metrics.ClassifierRequests.WithLabelValues("below_threshold").Inc()
		return pred, "", false
	}
	e.metrics.ClassifierRequests.WithLabelValues("accepted").Inc()

	reply, _ := model.Corpus.Response(pred.Label, t.raw)
	return pred, reply, true
}

func (e *Engine) reply(t *turn, label, text string) Result {
	return Result{Label: label, Entities: t.ents, Reply: text, Confidence: e.opts.RuleConfidence}
}

// failed reports a collaborator error without touching session state.
func (e *Engine) failed(t *turn, kind string, err error) Result {
	e.metrics.Errors.WithLabelValues(kind).Inc()
	e.logger.Error("collaborator call failed", "kind", kind, "error", err)
	return e.reply(t, LabelError, failureReply)
}

func isNotFound(err error) bool {
	return errors.Is(err, repo.ErrNotFound)
}

// normalise lower-cases text, collapses whitespace and drops trailing punctuation.
func normalise(s string) string {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	return strings.TrimRight(s, ".!?")
}

func helpMessage() string {
	return helpReply
}

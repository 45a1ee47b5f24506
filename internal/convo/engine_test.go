package convo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"bankbot/internal/metrics"
	"bankbot/internal/nlu"
	"bankbot/internal/repo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ravi = "1111222233"
	asha = "9876543210"
)

// memLedger implements Ledger with plain balance reads and writes.
type memLedger struct {
	mu       sync.Mutex
	balances map[string]int64
	names    map[string]string
	txns     []repo.Transaction
	failGet  error
	failAcct error
}

func newMemLedger() *memLedger {
	return &memLedger{
		balances: map[string]int64{ravi: 20000, asha: 1000},
		names:    map[string]string{ravi: "Ravi", asha: "Asha"},
	}
}

func (l *memLedger) GetBalance(_ context.Context, account string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failGet != nil {
		return 0, l.failGet
	}
	bal, ok := l.balances[account]
	if !ok {
		return 0, repo.ErrNotFound
	}
	return bal, nil
}

func (l *memLedger) SetBalance(_ context.Context, account string, balance int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.balances[account]; !ok {
		return repo.ErrNotFound
	}
	l.balances[account] = balance
	return nil
}

func (l *memLedger) GetAccount(_ context.Context, account string) (*repo.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failAcct != nil {
		return nil, l.failAcct
	}
	bal, ok := l.balances[account]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &repo.Account{Number: account, Name: l.names[account], Balance: bal}, nil
}

func (l *memLedger) RecordTransaction(_ context.Context, txn repo.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.txns = append(l.txns, txn)
	return nil
}

func (l *memLedger) balance(account string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}

// atomicLedger adds the single-call Transfer used by SQL stores.
type atomicLedger struct {
	*memLedger
	transfers int
}

func (l *atomicLedger) Transfer(_ context.Context, txn repo.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	bal, ok := l.balances[txn.Sender]
	if !ok {
		return repo.ErrNotFound
	}
	if bal < txn.Amount {
		return repo.ErrInsufficientFunds
	}
	l.balances[txn.Sender] = bal - txn.Amount
	if _, ok := l.balances[txn.Receiver]; ok {
		l.balances[txn.Receiver] += txn.Amount
	}
	l.txns = append(l.txns, txn)
	l.transfers++
	return nil
}

type stubClassifier struct {
	pred nlu.Prediction
	err  error
}

func (c stubClassifier) Predict(context.Context, string) (nlu.Prediction, error) {
	return c.pred, c.err
}

type stubModels struct{ model *nlu.Model }

func (s stubModels) Current() *nlu.Model { return s.model }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, ledger Ledger, models ModelSource) *Engine {
	t.Helper()
	if ledger == nil {
		ledger = newMemLedger()
	}
	return New(ledger, models, nil, metrics.NewUnregistered("test"), discardLogger(), Options{})
}

// say feeds inputs in order and returns the last result.
func say(e *Engine, st *State, inputs ...string) Result {
	var res Result
	for _, in := range inputs {
		res = e.ProcessTurn(context.Background(), st, in)
	}
	return res
}

func TestGreeting(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	st := NewState(ravi)

	res := say(e, st, "Hello there")
	assert.Equal(t, LabelGreet, res.Label)
	assert.Equal(t, greetingReply, res.Reply)
	assert.InDelta(t, 0.70, res.Confidence, 1e-9)
	assert.Equal(t, FlowNone, st.ActiveFlow)
}

func TestUnknownInput(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	res := say(e, NewState(ravi), "purple elephants")
	assert.Equal(t, LabelUnknown, res.Label)
	assert.Equal(t, unknownReply, res.Reply)
}

func TestSmallTalk(t *testing.T) {
	e := newTestEngine(t, nil, nil)

	tests := map[string]string{
		"thanks":          LabelThanks,
		"Thank you!":      LabelThanks,
		"bye":             LabelGoodbye,
		"ok":              LabelAcknowledge,
		"no thanks":       LabelReject,
		"what can you do": LabelHelp,
	}
	for in, label := range tests {
		st := NewState(ravi)
		res := say(e, st, in)
		assert.Equal(t, label, res.Label, in)
		assert.Equal(t, FlowNone, st.ActiveFlow, in)
	}
}

func TestCancelResetsActiveFlow(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	st := NewState(ravi)

	say(e, st, "personal loan")
	require.Equal(t, FlowLoan, st.ActiveFlow)

	res := say(e, st, "cancel")
	assert.Equal(t, LabelCancel, res.Label)
	assert.Equal(t, FlowNone, st.ActiveFlow)
	assert.Equal(t, LoanState{}, st.Loan)
	assert.Equal(t, ravi, st.Identity)
}

func TestClassifierFallback(t *testing.T) {
	corpus := nlu.NewCorpus([]nlu.Example{
		{Text: "i lost my wallet", Intent: "lost_wallet", Response: "Please block your cards right away."},
		{Text: "what is a savings account", Intent: "account_info", Response: "A savings account earns interest on deposits."},
	})
	model := func(pred nlu.Prediction, err error) ModelSource {
		return stubModels{model: &nlu.Model{Version: "test", Classifier: stubClassifier{pred: pred, err: err}, Corpus: corpus}}
	}

	t.Run("accepted when no rule matched", func(t *testing.T) {
		e := newTestEngine(t, nil, model(nlu.Prediction{Label: "lost_wallet", Confidence: 0.9}, nil))
		res := say(e, NewState(ravi), "my wallet is gone")
		assert.Equal(t, "lost_wallet", res.Label)
		assert.Equal(t, "Please block your cards right away.", res.Reply)
		assert.InDelta(t, 0.9, res.Confidence, 1e-9)
	})

	t.Run("below threshold keeps unknown", func(t *testing.T) {
		e := newTestEngine(t, nil, model(nlu.Prediction{Label: "lost_wallet", Confidence: 0.4}, nil))
		res := say(e, NewState(ravi), "my wallet is gone")
		assert.Equal(t, LabelUnknown, res.Label)
		assert.InDelta(t, 0.70, res.Confidence, 1e-9)
	})

	t.Run("threshold is inclusive", func(t *testing.T) {
		e := newTestEngine(t, nil, model(nlu.Prediction{Label: "lost_wallet", Confidence: 0.55}, nil))
		res := say(e, NewState(ravi), "my wallet is gone")
		assert.Equal(t, "lost_wallet", res.Label)
	})

	t.Run("classifier error degrades to unknown", func(t *testing.T) {
		e := newTestEngine(t, nil, model(nlu.Prediction{}, errors.New("boom")))
		res := say(e, NewState(ravi), "my wallet is gone")
		assert.Equal(t, LabelUnknown, res.Label)
		assert.Equal(t, unknownReply, res.Reply)
	})

	t.Run("overrides a sentinel rule label", func(t *testing.T) {
		e := newTestEngine(t, nil, model(nlu.Prediction{Label: "account_info", Confidence: 0.8}, nil))
		res := say(e, NewState(ravi), "tell me about your bank")
		assert.Equal(t, "account_info", res.Label)
		assert.Equal(t, "A savings account earns interest on deposits.", res.Reply)
	})

	t.Run("does not override a confident rule", func(t *testing.T) {
		e := newTestEngine(t, nil, model(nlu.Prediction{Label: "lost_wallet", Confidence: 0.99}, nil))
		res := say(e, NewState(ravi), "hello")
		assert.Equal(t, LabelGreet, res.Label)
		assert.Equal(t, greetingReply, res.Reply)
	})

	t.Run("small talk still answers when classifier has no reply", func(t *testing.T) {
		e := newTestEngine(t, nil, model(nlu.Prediction{Label: "gratitude", Confidence: 0.9}, nil))
		res := say(e, NewState(ravi), "thanks")
		assert.Equal(t, LabelThanks, res.Label)
	})
}

func TestEMI(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	st := NewState(ravi)

	res := say(e, st, "emi for 100000 12 months")
	assert.Equal(t, LabelEMI, res.Label)
	assert.Contains(t, res.Reply, "Monthly EMI: ₹8,722")
	assert.Contains(t, res.Reply, "Tenure: 12 months")
	assert.Equal(t, FlowNone, st.ActiveFlow)

	res = say(e, st, "home loan emi 5 lakh 2 years")
	assert.Equal(t, LabelEMI, res.Label)
	assert.Contains(t, res.Reply, "Loan Amount: ₹500,000")
	assert.Contains(t, res.Reply, "Tenure: 24 months")
	assert.Equal(t, FlowNone, st.ActiveFlow)

	res = say(e, st, "emi")
	assert.Equal(t, LabelEMI, res.Label)
	assert.Equal(t, emiPrompt, res.Reply)

	res = say(e, st, "250000 4 quarters")
	assert.Equal(t, LabelEMI, res.Label)
	assert.Contains(t, res.Reply, "Tenure: 12 months")
}

func TestComputeEMI(t *testing.T) {
	assert.InDelta(t, 8721.98, computeEMI(100000, 12), 0.01)
	assert.InDelta(t, 10258.27, computeEMI(500000, 60), 0.5)
}

func TestFAQ(t *testing.T) {
	e := newTestEngine(t, nil, nil)

	res := say(e, NewState(ravi), "what is cibil score")
	assert.Equal(t, LabelCreditScoreInfo, res.Label)
	assert.Equal(t, creditScoreInfo, res.Reply)

	res = say(e, NewState(ravi), "what documents are required")
	assert.Equal(t, LabelLoanDocuments, res.Label)
	assert.Equal(t, documentsNoCategory, res.Reply)

	res = say(e, NewState(ravi), "customer care number please")
	assert.Equal(t, LabelFAQ, res.Label)
	assert.Contains(t, res.Reply, "1800-123-4567")
}

func TestLoadFAQ(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faq.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`entries:
  - label: locker
    keywords: ["locker", "safe deposit"]
    answer: "Lockers are available at selected branches."
  - keywords: ["nri"]
    answer: "NRI accounts can be opened online."
`), 0o600))

	faq, err := LoadFAQ(path)
	require.NoError(t, err)
	assert.Equal(t, 2, faq.Len())

	entry, ok := faq.Match("do you have a safe deposit box")
	require.True(t, ok)
	assert.Equal(t, "locker", entry.Label)

	entry, ok = faq.Match("nri account")
	require.True(t, ok)
	assert.Equal(t, LabelFAQ, entry.Label)

	_, ok = faq.Match("weather today")
	assert.False(t, ok)

	e := New(newMemLedger(), nil, faq, metrics.NewUnregistered("test"), discardLogger(), Options{})
	res := say(e, NewState(ravi), "locker charges")
	assert.Equal(t, "locker", res.Label)
}

func TestLoadFAQBareList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faq.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- keywords: [\"locker\"]\n  answer: \"Lockers are available.\"\n"), 0o600))

	faq, err := LoadFAQ(path)
	require.NoError(t, err)
	assert.Equal(t, 1, faq.Len())
}

func TestFAQMerge(t *testing.T) {
	custom, err := NewFAQ([]FAQEntry{{Label: "hours_override", Keywords: []string{"working hours"}, Answer: "Open 24x7."}})
	require.NoError(t, err)

	merged := custom.Merge(DefaultFAQ())
	assert.Equal(t, DefaultFAQ().Len()+1, merged.Len())

	entry, ok := merged.Match("what are your working hours")
	require.True(t, ok)
	assert.Equal(t, "hours_override", entry.Label)

	_, ok = merged.Match("what is the ifsc code")
	assert.True(t, ok)
}

func TestNewFAQRejectsIncompleteEntries(t *testing.T) {
	_, err := NewFAQ([]FAQEntry{{Keywords: []string{"x"}}})
	assert.Error(t, err)
}

func TestNewRef(t *testing.T) {
	assert.Regexp(t, `^TXN[0-9A-F]{10}$`, newRef("TXN"))
	assert.NotEqual(t, newRef("APP"), newRef("APP"))
}

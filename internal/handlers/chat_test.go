package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"bankbot/internal/convo"
	"bankbot/internal/metrics"
	"bankbot/internal/nlu"
	"bankbot/internal/repo"
	"bankbot/internal/session"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	mu      sync.Mutex
	turns   []string
	resets  []string
	result  convo.Result
	turnErr error
}

func (f *fakeSessions) Turn(_ context.Context, sessionID, account, text string) (convo.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns = append(f.turns, sessionID+"|"+account+"|"+text)
	return f.result, f.turnErr
}

func (f *fakeSessions) Reset(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, sessionID)
	return nil
}

type fakeChatLog struct {
	mu      sync.Mutex
	records []repo.ChatRecord
	err     error
}

func (f *fakeChatLog) SaveChat(_ context.Context, rec repo.ChatRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return f.err
}

type countingLimiter struct {
	mu   sync.Mutex
	hits map[string]int64
	err  error
}

func (l *countingLimiter) Allow(_ context.Context, key string, limit int64, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return true, l.err
	}
	if l.hits == nil {
		l.hits = make(map[string]int64)
	}
	l.hits[key]++
	return l.hits[key] <= limit, nil
}

type fakeReloader struct {
	model *nlu.Model
	err   error
}

func (f fakeReloader) Reload(context.Context) (*nlu.Model, error) {
	return f.model, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, sessions Sessions, opts Options) (*httptest.Server, *metrics.Metrics) {
	t.Helper()
	m := metrics.NewUnregistered("test")
	h := NewHandler(sessions, opts, m, discardLogger())
	srv := httptest.NewServer(NewRouter(h, []string{"*"}, prometheus.NewRegistry()))
	t.Cleanup(srv.Close)
	return srv, m
}

func postTurn(t *testing.T, srv *httptest.Server, sessionID, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/v1/sessions/"+sessionID+"/turns", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHandleTurn(t *testing.T) {
	sessions := &fakeSessions{result: convo.Result{Label: "greet", Reply: "Hello!", Confidence: 0.7}}
	chatLog := &fakeChatLog{}
	srv, _ := newTestServer(t, sessions, Options{ChatLog: chatLog})

	resp := postTurn(t, srv, "s1", `{"account":" 1111222233 ","message":"  hi  "}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got convo.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "greet", got.Label)
	assert.Equal(t, "Hello!", got.Reply)
	assert.InDelta(t, 0.7, got.Confidence, 1e-9)

	assert.Equal(t, []string{"s1|1111222233|hi"}, sessions.turns)
	require.Len(t, chatLog.records, 1)
	assert.Equal(t, "greet", chatLog.records[0].Intent)
	assert.Equal(t, "hi", chatLog.records[0].UserMessage)
	assert.Equal(t, "Hello!", chatLog.records[0].BotResponse)
}

func TestHandleTurnRejectsBadInput(t *testing.T) {
	sessions := &fakeSessions{}
	srv, _ := newTestServer(t, sessions, Options{})

	cases := map[string]struct {
		body   string
		status int
	}{
		"invalid json":  {body: `{"message":`, status: http.StatusBadRequest},
		"empty message": {body: `{"message":"   "}`, status: http.StatusBadRequest},
		"too long":      {body: `{"message":"` + strings.Repeat("a", maxMessageLen+1) + `"}`, status: http.StatusRequestEntityTooLarge},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			resp := postTurn(t, srv, "s1", tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
	assert.Empty(t, sessions.turns)
}

func TestHandleTurnFailures(t *testing.T) {
	sessions := &fakeSessions{turnErr: errors.New("store down")}
	srv, _ := newTestServer(t, sessions, Options{})

	resp := postTurn(t, srv, "s1", `{"message":"hi"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	sessions.turnErr = nil
	sessions.result = convo.Result{Label: "greet", Reply: "Hello!"}
	chatLog := &fakeChatLog{err: errors.New("disk full")}
	srv, m := newTestServer(t, sessions, Options{ChatLog: chatLog})

	resp = postTurn(t, srv, "s1", `{"message":"hi"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Errors.WithLabelValues("chat_log")))
}

func TestHandleTurnRateLimit(t *testing.T) {
	sessions := &fakeSessions{result: convo.Result{Label: "greet", Reply: "Hello!"}}
	limiter := &countingLimiter{}
	srv, m := newTestServer(t, sessions, Options{Limiter: limiter, RateLimit: 2})

	for i := 0; i < 2; i++ {
		resp := postTurn(t, srv, "s1", `{"message":"hi"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp := postTurn(t, srv, "s1", `{"message":"hi"}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited))

	// Limits are per session.
	resp = postTurn(t, srv, "s2", `{"message":"hi"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, sessions.turns, 3)
}

func TestHandleTurnRateLimiterDown(t *testing.T) {
	sessions := &fakeSessions{result: convo.Result{Label: "greet", Reply: "Hello!"}}
	limiter := &countingLimiter{err: errors.New("connection refused")}
	srv, m := newTestServer(t, sessions, Options{Limiter: limiter, RateLimit: 1})

	for i := 0; i < 3; i++ {
		resp := postTurn(t, srv, "s1", `{"message":"hi"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Errors.WithLabelValues("rate_limit")))
	assert.Zero(t, testutil.ToFloat64(m.RateLimited))
}

func TestHandleReset(t *testing.T) {
	sessions := &fakeSessions{}
	srv, _ := newTestServer(t, sessions, Options{})

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/v1/sessions/s9", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, []string{"s9"}, sessions.resets)
}

func TestHandleReload(t *testing.T) {
	trained := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	reloader := fakeReloader{model: &nlu.Model{Version: "v2", Backend: nlu.BackendLocal, TrainedAt: trained}}
	srv, _ := newTestServer(t, &fakeSessions{}, Options{Models: reloader})

	resp, err := http.Post(srv.URL+"/v1/classifier/reload", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got reloadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "v2", got.Version)
	assert.Equal(t, nlu.BackendLocal, got.Backend)
	assert.True(t, trained.Equal(got.TrainedAt))
}

func TestHandleReloadErrors(t *testing.T) {
	srv, _ := newTestServer(t, &fakeSessions{}, Options{})
	resp, err := http.Post(srv.URL+"/v1/classifier/reload", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)

	srv, m := newTestServer(t, &fakeSessions{}, Options{Models: fakeReloader{err: errors.New("corpus missing")}})
	resp, err = http.Post(srv.URL+"/v1/classifier/reload", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Errors.WithLabelValues("classifier_reload")))
}

func TestPingAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, &fakeSessions{}, Options{})

	resp, err := http.Get(srv.URL + "/ping")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "pong", string(body))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestChatOverSQLite(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()
	store, err := repo.NewSQLite(ctx, filepath.Join(t.TempDir(), "bank.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.UpsertAccount(ctx, repo.Account{Number: "1111222233", Name: "Ravi", Balance: 20000}))

	m := metrics.NewUnregistered("test")
	engine := convo.New(store, nil, nil, m, logger, convo.Options{})
	manager := session.NewManager(session.NewMemoryStore(), engine, m, logger)
	srv := httptest.NewServer(NewRouter(NewHandler(manager, Options{ChatLog: store}, m, logger), []string{"*"}, prometheus.NewRegistry()))
	t.Cleanup(srv.Close)

	decode := func(resp *http.Response) convo.Result {
		var res convo.Result
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
		return res
	}

	res := decode(postTurn(t, srv, "web-1", `{"account":"1111222233","message":"check balance"}`))
	assert.Equal(t, convo.LabelCheckBalance, res.Label)

	res = decode(postTurn(t, srv, "web-1", `{"account":"1111222233","message":"1111222233"}`))
	assert.Equal(t, convo.LabelBalanceResult, res.Label)
	assert.Contains(t, res.Reply, "₹20,000")
}

type fakeHistory struct {
	txns       []repo.Transaction
	err        error
	gotLimit   int
	gotAccount string
}

func (f *fakeHistory) ListTransactions(_ context.Context, account string, limit int) ([]repo.Transaction, error) {
	f.gotAccount, f.gotLimit = account, limit
	return f.txns, f.err
}

func TestHandleTransactions(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	history := &fakeHistory{txns: []repo.Transaction{
		{Reference: "TXN0A1B2C3D4E", Sender: "1111222233", Receiver: "9876543210", ReceiverName: "Asha", Amount: 500, Mode: "IMPS", Status: repo.StatusSuccess, CreatedAt: at},
		{Reference: "TXNFFEE001122", Sender: "5555666677", Receiver: "1111222233", Amount: 75, Mode: "NEFT", Status: repo.StatusSuccess, CreatedAt: at},
	}}
	srv, _ := newTestServer(t, &fakeSessions{}, Options{History: history})

	resp, err := http.Get(srv.URL + "/v1/accounts/1111222233/transactions?limit=500")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []transactionView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 2)
	assert.Equal(t, "1111222233", history.gotAccount)
	assert.Equal(t, maxHistoryLimit, history.gotLimit)

	assert.Equal(t, "debit", got[0].Direction)
	assert.Equal(t, "Asha", got[0].Counterparty)
	assert.Equal(t, int64(500), got[0].Amount)
	assert.Equal(t, "credit", got[1].Direction)
	assert.Equal(t, "5555666677", got[1].Counterparty)
}

func TestHandleTransactionsErrors(t *testing.T) {
	cases := []struct {
		name string
		opts Options
		path string
		want int
	}{
		{"not configured", Options{}, "/v1/accounts/1111222233/transactions", http.StatusNotImplemented},
		{"bad account", Options{History: &fakeHistory{}}, "/v1/accounts/12ab/transactions", http.StatusBadRequest},
		{"bad limit", Options{History: &fakeHistory{}}, "/v1/accounts/1111222233/transactions?limit=-1", http.StatusBadRequest},
		{"store down", Options{History: &fakeHistory{err: errors.New("db gone")}}, "/v1/accounts/1111222233/transactions", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newTestServer(t, &fakeSessions{}, tc.opts)
			resp, err := http.Get(srv.URL + tc.path)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestTransactionsOverSQLite(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()
	store, err := repo.NewSQLite(ctx, filepath.Join(t.TempDir(), "bank.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.UpsertAccount(ctx, repo.Account{Number: "1111222233", Name: "Ravi", Balance: 20000}))
	require.NoError(t, store.UpsertAccount(ctx, repo.Account{Number: "9876543210", Name: "Asha", Balance: 1000}))
	require.NoError(t, store.Transfer(ctx, repo.Transaction{
		Reference: "TXN0123456789", Sender: "1111222233", Receiver: "9876543210", ReceiverName: "Asha",
		Amount: 2500, Mode: "IMPS", Status: repo.StatusSuccess, CreatedAt: time.Now(),
	}))

	srv, _ := newTestServer(t, &fakeSessions{}, Options{History: store})
	resp, err := http.Get(srv.URL + "/v1/accounts/9876543210/transactions")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []transactionView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "TXN0123456789", got[0].Reference)
	assert.Equal(t, "credit", got[0].Direction)
	assert.Equal(t, "1111222233", got[0].Counterparty)
	assert.Equal(t, int64(2500), got[0].Amount)
}

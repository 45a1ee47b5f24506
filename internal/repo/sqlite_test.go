package repo

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "bank.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	require.NoError(t, store.UpsertAccount(ctx, Account{Number: "1111222233", Name: "Ravi", Balance: 20000}))
	require.NoError(t, store.UpsertAccount(ctx, Account{Number: "9876543210", Name: "Asha", Balance: 1000}))
	return store
}

func TestSQLiteBalances(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	bal, err := store.GetBalance(ctx, "1111222233")
	require.NoError(t, err)
	assert.Equal(t, int64(20000), bal)

	_, err = store.GetBalance(ctx, "0000000000")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.SetBalance(ctx, "1111222233", 15000))
	acct, err := store.GetAccount(ctx, "1111222233")
	require.NoError(t, err)
	assert.Equal(t, "Ravi", acct.Name)
	assert.Equal(t, int64(15000), acct.Balance)

	assert.ErrorIs(t, store.SetBalance(ctx, "0000000000", 1), ErrNotFound)
	_, err = store.GetAccount(ctx, "0000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteTransfer(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	err := store.Transfer(ctx, Transaction{
		Reference:    "TXN0000000001",
		Sender:       "1111222233",
		Receiver:     "9876543210",
		ReceiverName: "Asha",
		Amount:       5000,
		Mode:         "UPI",
		Status:       StatusSuccess,
	})
	require.NoError(t, err)

	sender, err := store.GetBalance(ctx, "1111222233")
	require.NoError(t, err)
	receiver, err := store.GetBalance(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, int64(15000), sender)
	assert.Equal(t, int64(6000), receiver)

	txns, err := store.ListTransactions(ctx, "9876543210", 10)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "TXN0000000001", txns[0].Reference)
	assert.Equal(t, "UPI", txns[0].Mode)
}

func TestSQLiteTransferToUnknownReceiver(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, store.Transfer(ctx, Transaction{
		Reference: "TXN0000000002",
		Sender:    "1111222233",
		Receiver:  "5555555555",
		Amount:    100,
		Mode:      "Bank Transfer",
	}))
	bal, err := store.GetBalance(ctx, "1111222233")
	require.NoError(t, err)
	assert.Equal(t, int64(19900), bal)
}

func TestSQLiteTransferRejections(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	err := store.Transfer(ctx, Transaction{Reference: "TXN1", Sender: "9876543210", Receiver: "1111222233", Amount: 5000, Mode: "UPI"})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	err = store.Transfer(ctx, Transaction{Reference: "TXN2", Sender: "0000000000", Receiver: "1111222233", Amount: 1, Mode: "UPI"})
	assert.ErrorIs(t, err, ErrNotFound)

	bal, err := store.GetBalance(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), bal)

	txns, err := store.ListTransactions(ctx, "1111222233", 10)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestSQLiteSaveChat(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, store.SaveChat(ctx, ChatRecord{
		Account:     "1111222233",
		UserMessage: "hi",
		BotResponse: "Hello, how may I assist you?",
		Intent:      "greet",
		Confidence:  0.7,
	}))

	var count int
	require.NoError(t, store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_logs WHERE account = ?`, "1111222233").Scan(&count))
	assert.Equal(t, 1, count)
}

package repo

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when an account does not exist.
	ErrNotFound = errors.New("repo: not found")
	// ErrInsufficientFunds is returned by Transfer when the sender balance is too low.
	ErrInsufficientFunds = errors.New("repo: insufficient funds")
)

// Transaction statuses.
const (
	StatusSuccess = "Success"
	StatusFailed  = "Failed"
)

// Account is a customer ledger record.
type Account struct {
	Number    string
	Name      string
	Email     string
	Phone     string
	Balance   int64
	CreatedAt time.Time
}

// Transaction is a completed fund movement.
type Transaction struct {
	Reference    string
	Sender       string
	Receiver     string
	ReceiverName string
	Amount       int64
	Mode         string
	Status       string
	CreatedAt    time.Time
}

// ChatRecord is one persisted conversation turn.
type ChatRecord struct {
	Account     string
	UserMessage string
	BotResponse string
	Intent      string
	Confidence  float64
	CreatedAt   time.Time
}

// Store is the persistence surface backing the bot.
type Store interface {
	GetBalance(ctx context.Context, account string) (int64, error)
	SetBalance(ctx context.Context, account string, balance int64) error
	GetAccount(ctx context.Context, account string) (*Account, error)
	UpsertAccount(ctx context.Context, acct Account) error
	RecordTransaction(ctx context.Context, txn Transaction) error
	Transfer(ctx context.Context, txn Transaction) error
	ListTransactions(ctx context.Context, account string, limit int) ([]Transaction, error)
	SaveChat(ctx context.Context, rec ChatRecord) error
	Close() error
}

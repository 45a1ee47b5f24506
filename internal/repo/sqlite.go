package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite persists accounts, transactions and chat logs to an embedded database.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLite opens (or creates) the database file and runs migrations.
func NewSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serialises writers; transfers run inside one transaction.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000", "PRAGMA foreign_keys=ON"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	s := &SQLite{db: db, logger: logger.With("component", "repo", "driver", "sqlite")}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	s.logger.Info("sqlite store opened", "path", path)
	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			account_number TEXT PRIMARY KEY,
			name           TEXT NOT NULL DEFAULT '',
			email          TEXT NOT NULL DEFAULT '',
			phone          TEXT NOT NULL DEFAULT '',
			balance        INTEGER NOT NULL DEFAULT 0,
			created_at     INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			reference        TEXT NOT NULL UNIQUE,
			sender_account   TEXT NOT NULL,
			receiver_account TEXT NOT NULL,
			receiver_name    TEXT NOT NULL DEFAULT '',
			amount           INTEGER NOT NULL,
			mode             TEXT NOT NULL,
			status           TEXT NOT NULL,
			created_at       INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_sender ON transactions(sender_account, created_at)`,
		`CREATE TABLE IF NOT EXISTS chat_logs (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			account      TEXT NOT NULL DEFAULT '',
			user_message TEXT NOT NULL,
			bot_response TEXT NOT NULL,
			intent       TEXT NOT NULL,
			confidence   REAL NOT NULL,
			created_at   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_logs_account ON chat_logs(account, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) GetBalance(ctx context.Context, account string) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE account_number = ?`, account).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("query balance: %w", err)
	}
	return balance, nil
}

func (s *SQLite) SetBalance(ctx context.Context, account string, balance int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE accounts SET balance = ? WHERE account_number = ?`, balance, account)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) GetAccount(ctx context.Context, account string) (*Account, error) {
	var (
		acct    Account
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT account_number, name, email, phone, balance, created_at FROM accounts WHERE account_number = ?`,
		account,
	).Scan(&acct.Number, &acct.Name, &acct.Email, &acct.Phone, &acct.Balance, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query account: %w", err)
	}
	acct.CreatedAt = time.Unix(created, 0).UTC()
	return &acct, nil
}

func (s *SQLite) UpsertAccount(ctx context.Context, acct Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (account_number, name, email, phone, balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_number) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			phone = excluded.phone,
			balance = excluded.balance`,
		acct.Number, acct.Name, acct.Email, acct.Phone, acct.Balance, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}
	return nil
}

func (s *SQLite) RecordTransaction(ctx context.Context, txn Transaction) error {
	return insertTransaction(ctx, s.db, txn)
}

// Transfer debits the sender, credits the receiver when it exists and records
// the transaction in one database transaction.
func (s *SQLite) Transfer(ctx context.Context, txn Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transfer: %w", err)
	}
	defer tx.Rollback()

	var balance int64
	err = tx.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE account_number = ?`, txn.Sender).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read sender balance: %w", err)
	}
	if balance < txn.Amount {
		return ErrInsufficientFunds
	}

	if _, err := tx.ExecContext(ctx, `UPDATE accounts SET balance = balance - ? WHERE account_number = ?`, txn.Amount, txn.Sender); err != nil {
		return fmt.Errorf("debit sender: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE accounts SET balance = balance + ? WHERE account_number = ?`, txn.Amount, txn.Receiver); err != nil {
		return fmt.Errorf("credit receiver: %w", err)
	}
	if err := insertTransaction(ctx, tx, txn); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transfer: %w", err)
	}
	return nil
}

func (s *SQLite) ListTransactions(ctx context.Context, account string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT reference, sender_account, receiver_account, receiver_name, amount, mode, status, created_at
		FROM transactions
		WHERE sender_account = ? OR receiver_account = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, account, account, limit)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var (
			txn     Transaction
			created int64
		)
		if err := rows.Scan(&txn.Reference, &txn.Sender, &txn.Receiver, &txn.ReceiverName, &txn.Amount, &txn.Mode, &txn.Status, &created); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txn.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, txn)
	}
	return out, rows.Err()
}

func (s *SQLite) SaveChat(ctx context.Context, rec ChatRecord) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_logs (account, user_message, bot_response, intent, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Account, rec.UserMessage, rec.BotResponse, rec.Intent, rec.Confidence, created.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert chat log: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTransaction(ctx context.Context, db execer, txn Transaction) error {
	created := txn.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	status := txn.Status
	if status == "" {
		status = StatusSuccess
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO transactions (reference, sender_account, receiver_account, receiver_name, amount, mode, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.Reference, txn.Sender, txn.Receiver, txn.ReceiverName, txn.Amount, txn.Mode, status, created.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

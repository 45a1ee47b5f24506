package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is the server-side Store backed by a pgx connection pool.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres connects to databaseURL and ensures the schema exists.
func NewPostgres(ctx context.Context, databaseURL string, logger *slog.Logger) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	p := &Postgres{pool: pool, logger: logger.With("component", "repo", "driver", "postgres")}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			account_number TEXT PRIMARY KEY,
			name           TEXT NOT NULL DEFAULT '',
			email          TEXT NOT NULL DEFAULT '',
			phone          TEXT NOT NULL DEFAULT '',
			balance        BIGINT NOT NULL DEFAULT 0,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id               BIGSERIAL PRIMARY KEY,
			reference        TEXT NOT NULL UNIQUE,
			sender_account   TEXT NOT NULL,
			receiver_account TEXT NOT NULL,
			receiver_name    TEXT NOT NULL DEFAULT '',
			amount           BIGINT NOT NULL,
			mode             TEXT NOT NULL,
			status           TEXT NOT NULL,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_sender ON transactions(sender_account, created_at)`,
		`CREATE TABLE IF NOT EXISTS chat_logs (
			id           BIGSERIAL PRIMARY KEY,
			account      TEXT NOT NULL DEFAULT '',
			user_message TEXT NOT NULL,
			bot_response TEXT NOT NULL,
			intent       TEXT NOT NULL,
			confidence   DOUBLE PRECISION NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) GetBalance(ctx context.Context, account string) (int64, error) {
	var balance int64
	err := p.pool.QueryRow(ctx, `SELECT balance FROM accounts WHERE account_number = $1`, account).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("query balance: %w", err)
	}
	return balance, nil
}

func (p *Postgres) SetBalance(ctx context.Context, account string, balance int64) error {
	tag, err := p.pool.Exec(ctx, `UPDATE accounts SET balance = $1 WHERE account_number = $2`, balance, account)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) GetAccount(ctx context.Context, account string) (*Account, error) {
	var acct Account
	err := p.pool.QueryRow(ctx,
		`SELECT account_number, name, email, phone, balance, created_at FROM accounts WHERE account_number = $1`,
		account,
	).Scan(&acct.Number, &acct.Name, &acct.Email, &acct.Phone, &acct.Balance, &acct.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query account: %w", err)
	}
	return &acct, nil
}

func (p *Postgres) UpsertAccount(ctx context.Context, acct Account) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO accounts (account_number, name, email, phone, balance)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_number) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			balance = EXCLUDED.balance`,
		acct.Number, acct.Name, acct.Email, acct.Phone, acct.Balance,
	)
	if err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}
	return nil
}

func (p *Postgres) RecordTransaction(ctx context.Context, txn Transaction) error {
	return pgInsertTransaction(ctx, p.pool, txn)
}

// Transfer locks the sender row, moves the funds and records the transaction atomically.
func (p *Postgres) Transfer(ctx context.Context, txn Transaction) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		var balance int64
		err := tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE account_number = $1 FOR UPDATE`, txn.Sender).Scan(&balance)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("read sender balance: %w", err)
		}
		if balance < txn.Amount {
			return ErrInsufficientFunds
		}
		if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance - $1 WHERE account_number = $2`, txn.Amount, txn.Sender); err != nil {
			return fmt.Errorf("debit sender: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance + $1 WHERE account_number = $2`, txn.Amount, txn.Receiver); err != nil {
			return fmt.Errorf("credit receiver: %w", err)
		}
		return pgInsertTransaction(ctx, tx, txn)
	})
}

func (p *Postgres) ListTransactions(ctx context.Context, account string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := p.pool.Query(ctx, `
		SELECT reference, sender_account, receiver_account, receiver_name, amount, mode, status, created_at
		FROM transactions
		WHERE sender_account = $1 OR receiver_account = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, account, limit)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var txn Transaction
		if err := rows.Scan(&txn.Reference, &txn.Sender, &txn.Receiver, &txn.ReceiverName, &txn.Amount, &txn.Mode, &txn.Status, &txn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, txn)
	}
	return out, rows.Err()
}

func (p *Postgres) SaveChat(ctx context.Context, rec ChatRecord) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO chat_logs (account, user_message, bot_response, intent, confidence)
		VALUES ($1, $2, $3, $4, $5)`,
		rec.Account, rec.UserMessage, rec.BotResponse, rec.Intent, rec.Confidence,
	)
	if err != nil {
		return fmt.Errorf("insert chat log: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

type pgExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func pgInsertTransaction(ctx context.Context, db pgExecer, txn Transaction) error {
	status := txn.Status
	if status == "" {
		status = StatusSuccess
	}
	_, err := db.Exec(ctx, `
		INSERT INTO transactions (reference, sender_account, receiver_account, receiver_name, amount, mode, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		txn.Reference, txn.Sender, txn.Receiver, txn.ReceiverName, txn.Amount, txn.Mode, status,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

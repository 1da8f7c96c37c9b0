// Package database provides durable storage for the execution core: player
// accounts, the reconciliation ledger and audit events. The live wagering
// state lives in the state store; this side only receives one-way syncs.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/luckyreel/rgs/internal/domain"
)

// ErrNoAccount means no durable account row exists for the user.
var ErrNoAccount = errors.New("account not found")

// ErrAccountNotActive means the account exists but cannot wager.
var ErrAccountNotActive = errors.New("account not active")

// DB wraps the SQL database connection
type DB struct {
	*sql.DB
}

// New creates a new database connection
func New(driver, dsn string) (*DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Migrate creates all required tables
// Based on GLI-19 §2.8 Information to be Maintained
func (db *DB) Migrate() error {
	schema := `
	-- Accounts table (GLI-19 §2.5.7): the durable side of player balances.
	CREATE TABLE IF NOT EXISTS accounts (
		user_id VARCHAR(255) PRIMARY KEY,
		balance BIGINT NOT NULL DEFAULT 0,
		currency VARCHAR(3) NOT NULL DEFAULT 'USD',
		status VARCHAR(50) NOT NULL DEFAULT 'active',
		reconciled_at TIMESTAMP,
		updated_at TIMESTAMP NOT NULL
	);

	-- Reconciliations ledger (GLI-19 §2.5.7, §2.8.5): one row per one-way
	-- sync from the live state store back to the account.
	CREATE TABLE IF NOT EXISTS reconciliations (
		id UUID PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL REFERENCES accounts(user_id),
		game_id VARCHAR(255) NOT NULL,
		balance_before BIGINT NOT NULL,
		balance_after BIGINT NOT NULL,
		reason VARCHAR(100) NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	-- Audit Events table (GLI-19 §2.8.8)
	CREATE TABLE IF NOT EXISTS audit_events (
		id UUID PRIMARY KEY,
		type VARCHAR(100) NOT NULL,
		severity VARCHAR(20) NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		user_id VARCHAR(255),
		game_id VARCHAR(255),
		description TEXT NOT NULL,
		data JSONB,
		component VARCHAR(100) NOT NULL
	);

	-- Indexes for performance
	CREATE INDEX IF NOT EXISTS idx_reconciliations_user ON reconciliations(user_id);
	CREATE INDEX IF NOT EXISTS idx_reconciliations_created ON reconciliations(created_at);
	CREATE INDEX IF NOT EXISTS idx_audit_events_timestamp ON audit_events(timestamp);
	CREATE INDEX IF NOT EXISTS idx_audit_events_user ON audit_events(user_id);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Account returns the durable account row for a user.
func (db *DB) Account(ctx context.Context, userID string) (*domain.Account, error) {
	var acct domain.Account
	var reconciledAt sql.NullTime
	err := db.QueryRowContext(ctx, `
		SELECT user_id, balance, currency, status, reconciled_at, updated_at
		FROM accounts WHERE user_id = $1
	`, userID).Scan(&acct.UserID, &acct.Balance.Amount, &acct.Balance.Currency,
		&acct.Status, &reconciledAt, &acct.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoAccount
	}
	if err != nil {
		return nil, err
	}
	if reconciledAt.Valid {
		acct.ReconciledAt = &reconciledAt.Time
	}
	return &acct, nil
}

// AccountBalance returns the durable balance for a user. The state store
// calls this once when a (user, game) pair is first touched. Suspended
// and closed accounts never seed a live session.
func (db *DB) AccountBalance(ctx context.Context, userID string) (int64, error) {
	acct, err := db.Account(ctx, userID)
	if err != nil {
		return 0, err
	}
	if acct.Status != domain.AccountStatusActive {
		return 0, fmt.Errorf("%w: %s", ErrAccountNotActive, acct.Status)
	}
	return acct.Balance.Amount, nil
}

// ReconcileBalance writes the live balance back to the account and appends
// a ledger row. The sync is one-way: the durable side never pushes into a
// live session.
func (db *DB) ReconcileBalance(ctx context.Context, userID, gameID string, before, after int64, reason string) error {
	rec := &domain.Reconciliation{
		ID:            uuid.New().String(),
		UserID:        userID,
		GameID:        gameID,
		BalanceBefore: domain.Money{Amount: before},
		BalanceAfter:  domain.Money{Amount: after},
		Reason:        reason,
		CreatedAt:     time.Now().UTC(),
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE accounts SET balance = $1, reconciled_at = $2, updated_at = $2 WHERE user_id = $3
	`, rec.BalanceAfter.Amount, rec.CreatedAt, rec.UserID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO reconciliations (id, user_id, game_id, balance_before, balance_after, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rec.ID, rec.UserID, rec.GameID, rec.BalanceBefore.Amount, rec.BalanceAfter.Amount,
		rec.Reason, rec.CreatedAt); err != nil {
		return err
	}

	return tx.Commit()
}

// EnsureAccount creates an account row with an opening balance if none
// exists. Used by operator provisioning and tests.
func (db *DB) EnsureAccount(ctx context.Context, userID string, openingBalance int64, currency string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO accounts (user_id, balance, currency, status, updated_at)
		VALUES ($1, $2, $3, 'active', $4)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, openingBalance, currency, time.Now().UTC())
	return err
}

// Reset drops all tables (for testing)
func (db *DB) Reset() error {
	_, err := db.Exec(`
		DROP TABLE IF EXISTS audit_events CASCADE;
		DROP TABLE IF EXISTS reconciliations CASCADE;
		DROP TABLE IF EXISTS accounts CASCADE;
	`)
	return err
}

// CleanData truncates all tables without dropping them (for testing)
func (db *DB) CleanData() error {
	_, err := db.Exec(`
		TRUNCATE TABLE audit_events, reconciliations, accounts CASCADE;
	`)
	return err
}

// Package domain contains core domain models for the slot execution core
// Based on GLI-19 Standards for Interactive Gaming Systems V3.0
//
// Key GLI-19 References:
//   - §2.5.6/§2.5.7: Financial Transactions
//   - §4.3: Game Session Management
//   - §4.5: Game Selection Process
package domain

import (
	"encoding/json"
	"time"
)

// Money represents monetary values with precision (GLI-19 §2.5.6)
type Money struct {
	Amount   int64  `json:"amount"`   // Amount in smallest unit (cents)
	Currency string `json:"currency"` // ISO 4217 currency code
}

// NewMoney creates a new Money value from the major unit
func NewMoney(amount float64, currency string) Money {
	return Money{
		Amount:   int64(amount * 100),
		Currency: currency,
	}
}

// Float64 returns the monetary value as a float
func (m Money) Float64() float64 {
	return float64(m.Amount) / 100.0
}

// Add adds two money values
func (m Money) Add(other Money) Money {
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}
}

// Sub subtracts money value
func (m Money) Sub(other Money) Money {
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}
}

// AccountStatus represents the status of a durable player account
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusSuspended AccountStatus = "suspended"
	AccountStatusClosed    AccountStatus = "closed"
)

// Account is the durable side of a player's wagering balance. The execution
// core reads it once on session start and reconciles back to it one-way.
type Account struct {
	UserID       string        `json:"user_id" db:"user_id"`
	Balance      Money         `json:"balance" db:"balance"`
	Status       AccountStatus `json:"status" db:"status"`
	ReconciledAt *time.Time    `json:"reconciled_at,omitempty" db:"reconciled_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
}

// Reconciliation is a ledger row recording a one-way balance sync from the
// live state store back to the durable account (GLI-19 §2.5.7)
type Reconciliation struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"user_id" db:"user_id"`
	GameID        string    `json:"game_id" db:"game_id"`
	BalanceBefore Money     `json:"balance_before" db:"balance_before"`
	BalanceAfter  Money     `json:"balance_after" db:"balance_after"`
	Reason        string    `json:"reason" db:"reason"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// EventSeverity represents audit event severity
type EventSeverity string

const (
	SeverityInfo     EventSeverity = "info"
	SeverityWarning  EventSeverity = "warning"
	SeverityError    EventSeverity = "error"
	SeverityCritical EventSeverity = "critical"
)

// AuditEvent represents a significant event
// GLI-19 §2.8.8 - Significant Event Information: System must log all significant
// events including large wins, bonus triggers, and configuration changes
type AuditEvent struct {
	ID          string          `json:"id" db:"id"`
	Type        string          `json:"type" db:"type"`
	Severity    EventSeverity   `json:"severity" db:"severity"`
	Timestamp   time.Time       `json:"timestamp" db:"timestamp"`
	UserID      *string         `json:"user_id,omitempty" db:"user_id"`
	GameID      *string         `json:"game_id,omitempty" db:"game_id"`
	Description string          `json:"description" db:"description"`
	Data        json.RawMessage `json:"data,omitempty" db:"data"`
	Component   string          `json:"component" db:"component"`
}

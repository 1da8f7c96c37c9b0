// Package operator provides a client for an operator wallet platform.
// The execution core uses it as the durable balance source when deployed
// behind an operator: balance reads on session start and one-way
// reconciliation writes on sync points.
package operator

import "time"

// Error codes returned by the operator API
const (
	ErrUnexpectedError     = "UNEXPECTED_ERROR"
	ErrNotAuthorized       = "NOT_AUTHORIZED"
	ErrInvalidAuthToken    = "INVALID_AUTH_TOKEN"
	ErrUnknownPlayer       = "UNKNOWN_PLAYER"
	ErrInsufficientBalance = "INSUFFICIENT_BALANCE"
	ErrDuplicateReference  = "DUPLICATE_REFERENCE"
)

// APIError represents an error response from the API
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Response wraps the API response with either result or error
type Response[T any] struct {
	Result *T        `json:"result,omitempty"`
	Error  *APIError `json:"error,omitempty"`
}

// AuthenticateRequest is the request body for /authenticate
type AuthenticateRequest struct {
	AuthToken string `json:"authToken"`
	SiteCode  string `json:"siteCode"`
	GameID    string `json:"gameId"`
}

// AuthenticateResult is the result of a successful token exchange
type AuthenticateResult struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Currency string `json:"currency"`
	Country  string `json:"country"`
	// Balance is in the smallest currency unit (cents).
	Balance int64 `json:"balance"`
}

// BalanceRequest is the request body for /balance
type BalanceRequest struct {
	SiteCode string `json:"siteCode"`
	UserID   string `json:"userId"`
}

// BalanceResult is the result of a balance query
type BalanceResult struct {
	Balance int64 `json:"balance"`
}

// ReconcileRequest is the request body for /reconcile. Reference
// deduplicates retried syncs on the platform side.
type ReconcileRequest struct {
	SiteCode      string `json:"siteCode"`
	UserID        string `json:"userId"`
	GameID        string `json:"gameId"`
	BalanceBefore int64  `json:"balanceBefore"`
	BalanceAfter  int64  `json:"balanceAfter"`
	Reason        string `json:"reason"`
	Reference     string `json:"reference"`
}

// ReconcileResult is the result of a reconcile operation
type ReconcileResult struct {
	TransactionID string `json:"transactionId"`
	Balance       int64  `json:"balance"`
}

// ClientConfig holds the configuration for the operator client
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	APISecret  string
	SiteCode   string
	Timeout    time.Duration
	RetryCount int
}

// DefaultConfig returns a default client configuration
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		Timeout:    30 * time.Second,
		RetryCount: 3,
	}
}

package operator

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Client is an operator wallet API client
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a new operator API client
func NewClient(config *ClientConfig) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// NewClientWithHTTPClient creates a new operator API client with a custom HTTP client
func NewClientWithHTTPClient(config *ClientConfig, httpClient *http.Client) *Client {
	return &Client{
		config:     config,
		httpClient: httpClient,
	}
}

// computeHMAC computes the HMAC-SHA256 signature for the request body
func (c *Client) computeHMAC(body []byte) string {
	h := hmac.New(sha256.New, []byte(c.config.APISecret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// doRequest performs an HTTP request with HMAC signing
func (c *Client) doRequest(ctx context.Context, endpoint string, reqBody interface{}, result interface{}) error {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.config.BaseURL + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.config.APIKey)
	req.Header.Set("x-api-hmac", c.computeHMAC(bodyBytes))

	var resp *http.Response
	var lastErr error
	retryCount := c.config.RetryCount
	if retryCount == 0 {
		retryCount = 1
	}

	for i := 0; i < retryCount; i++ {
		resp, err = c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		break
	}

	if resp == nil {
		return fmt.Errorf("request failed after %d retries: %w", retryCount, lastErr)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// Authenticate exchanges a one-time auth token for the player identity.
// Called when a player opens a game through the operator lobby.
func (c *Client) Authenticate(ctx context.Context, authToken, gameID string) (*AuthenticateResult, error) {
	req := &AuthenticateRequest{
		AuthToken: authToken,
		SiteCode:  c.config.SiteCode,
		GameID:    gameID,
	}

	var resp Response[AuthenticateResult]
	if err := c.doRequest(ctx, "/authenticate", req, &resp); err != nil {
		return nil, err
	}

	if resp.Error != nil {
		return nil, resp.Error
	}

	return resp.Result, nil
}

// AccountBalance retrieves the player's durable balance in cents. The
// state store calls this when a (user, game) pair is first touched.
func (c *Client) AccountBalance(ctx context.Context, userID string) (int64, error) {
	req := &BalanceRequest{
		SiteCode: c.config.SiteCode,
		UserID:   userID,
	}

	var resp Response[BalanceResult]
	if err := c.doRequest(ctx, "/balance", req, &resp); err != nil {
		return 0, err
	}

	if resp.Error != nil {
		return 0, resp.Error
	}

	return resp.Result.Balance, nil
}

// ReconcileBalance pushes the live balance back to the operator wallet.
// The generated reference lets the platform drop duplicate syncs.
func (c *Client) ReconcileBalance(ctx context.Context, userID, gameID string, before, after int64, reason string) error {
	req := &ReconcileRequest{
		SiteCode:      c.config.SiteCode,
		UserID:        userID,
		GameID:        gameID,
		BalanceBefore: before,
		BalanceAfter:  after,
		Reason:        reason,
		Reference:     uuid.New().String(),
	}

	var resp Response[ReconcileResult]
	if err := c.doRequest(ctx, "/reconcile", req, &resp); err != nil {
		return err
	}

	if resp.Error != nil {
		return resp.Error
	}

	return nil
}

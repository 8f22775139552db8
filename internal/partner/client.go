// Package partner wraps the settlement partner HTTP API. The partner actually
// moves the funds; this client only authenticates, reads the settlement
// account balance, and submits withdrawals.
package partner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"afripay/internal/domain"
	"afripay/pkg/config"
	"afripay/pkg/errors"
	"afripay/pkg/logger"

	"github.com/shopspring/decimal"
)

// Client talks to the partner API with a bearer token attached per request.
// Every call is bounded by the configured timeout.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger

	mu    sync.RWMutex
	token string
}

// NewClient constructs a partner client. Call Login before any authenticated
// endpoint.
func NewClient(cfg config.PartnerConfig, log logger.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     log,
	}
}

// Balance is one settlement account position.
type Balance struct {
	Currency domain.Currency `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// WithdrawRequest describes one transfer execution.
type WithdrawRequest struct {
	Amount             decimal.Decimal `json:"amount"`
	Currency           domain.Currency `json:"currency"`
	ReceiverPhone      string          `json:"receiver_phone"`
	ReceiverName       string          `json:"receiver_name"`
	ReceiverEmail      string          `json:"receiver_email"`
	DestinationCountry string          `json:"destination_country"`
}

// WithdrawResult is the partner's execution outcome.
type WithdrawResult struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

// CashInRequest tops up the settlement float from a local payment method.
type CashInRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Currency      domain.Currency `json:"currency"`
	PhoneNumber   string          `json:"phone_number"`
	PaymentMethod string          `json:"payment_method"`
	Reference     string          `json:"reference,omitempty"`
}

// CashInResult is the partner's acknowledgement of a float top-up.
type CashInResult struct {
	TransactionID string          `json:"transaction_id"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login authenticates against the partner and stores the bearer token for
// subsequent calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "partner login failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("partner login failed: status %d", resp.StatusCode)
	}

	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return errors.Wrap(err, "partner login failed")
	}
	if out.Token == "" {
		return fmt.Errorf("partner login failed: empty token")
	}

	c.mu.Lock()
	c.token = out.Token
	c.mu.Unlock()

	c.logger.Info("Partner session established", nil)
	return nil
}

// GetBalance fetches the current settlement account balances. The result is
// never cached; the balance can change between checks.
func (c *Client) GetBalance(ctx context.Context) ([]Balance, error) {
	var balances []Balance
	if err := c.doJSON(ctx, http.MethodGet, "/v1/balances", nil, &balances); err != nil {
		return nil, err
	}
	return balances, nil
}

// Withdraw submits a transfer for execution. An HTTP or decode failure is
// returned as an error; an application-level decline comes back in the result
// with Success=false.
func (c *Client) Withdraw(ctx context.Context, req WithdrawRequest) (*WithdrawResult, error) {
	var result WithdrawResult
	if err := c.doJSON(ctx, http.MethodPost, "/v1/withdrawals", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CashIn submits a float top-up. The partner must echo the credited amount
// back; a response without it is treated as a failure.
func (c *Client) CashIn(ctx context.Context, req CashInRequest) (*CashInResult, error) {
	var result CashInResult
	if err := c.doJSON(ctx, http.MethodPost, "/v1/cashins", req, &result); err != nil {
		return nil, err
	}
	if result.Amount.IsZero() {
		return nil, fmt.Errorf("partner cash-in response missing amount")
	}
	return &result, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()

	if token == "" {
		return errors.ErrPartnerTokenMissing
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "partner request failed")
	}
	defer resp.Body.Close()

	c.logger.Debug("Partner request", map[string]interface{}{
		"method":     method,
		"path":       path,
		"status":     resp.StatusCode,
		"latency_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("partner request failed: %s %s returned %d", method, path, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

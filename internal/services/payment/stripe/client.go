// Package stripe is a minimal client for the Stripe payment-intents API,
// covering only what the purchase flow needs: create an intent and look one
// up again for reconciliation.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Jahmax1/Dragotix/internal/services/payment"
	"github.com/Jahmax1/Dragotix/internal/status"
)

const defaultBaseURL = "https://api.stripe.com"

type Config struct {
	SecretKey string
	// BaseURL overrides the API host, used by tests.
	BaseURL string
	// Timeout bounds each request; the operation fails rather than retrying
	// silently when it elapses.
	Timeout time.Duration
}

type Client struct {
	baseURL   string
	secretKey string
	hc        *http.Client
}

var _ payment.Gateway = (*Client)(nil)

func New(cfg *Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		secretKey: cfg.SecretKey,
		hc:        &http.Client{Timeout: timeout},
	}
}

// CreateIntent creates a payment intent for req.Amount converted to minor
// units (amount * 100, rounded).
func (c *Client) CreateIntent(ctx context.Context, req *payment.IntentRequest) (*payment.Intent, error) {
	minor := req.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	form := url.Values{}
	form.Set("amount", fmt.Sprintf("%d", minor))
	form.Set("currency", req.Currency)
	for k, v := range req.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("createIntent: http.NewRequestWithContext: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	}

	return c.do(httpReq)
}

// RetrieveIntent fetches an existing intent by id.
func (c *Client) RetrieveIntent(ctx context.Context, id string) (*payment.Intent, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/payment_intents/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("retrieveIntent: http.NewRequestWithContext: %w", err)
	}
	return c.do(httpReq)
}

func (c *Client) do(req *http.Request) (*payment.Intent, error) {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, status.ErrGatewayTimeout
		}
		return nil, fmt.Errorf("stripe: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var reply struct {
			Error struct {
				Type    string `json:"type"`
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		rbody, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(rbody, &reply); err == nil && reply.Error.Type == "card_error" {
			return nil, fmt.Errorf("%w: %s", status.ErrGatewayDeclined, reply.Error.Message)
		}
		return nil, fmt.Errorf("stripe: resp.StatusCode: %d, resp.Body: %s", resp.StatusCode, rbody)
	}

	var reply struct {
		ID           string `json:"id"`
		ClientSecret string `json:"client_secret"`
		Status       string `json:"status"`
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("stripe: json.Decode: %w", err)
	}

	return &payment.Intent{
		ID:           reply.ID,
		ClientSecret: reply.ClientSecret,
		Status:       reply.Status,
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var uerr *url.Error
	return errors.As(err, &uerr) && uerr.Timeout()
}

// Package payments integrates with the external payment gateway. The gateway
// processes card and UPI payments out of band; this package creates payment
// intents and verifies the webhook events the gateway sends back.
package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrBadSignature marks a webhook whose signature does not match.
	ErrBadSignature = errors.New("webhook signature mismatch")
)

// Intent is a payment intent created at the gateway. ClientSecret is handed
// to the frontend to complete the payment.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

// Event is a webhook notification about an intent's final state.
type Event struct {
	Type     string `json:"type"` // payment.succeeded or payment.failed
	IntentID string `json:"intent_id"`
}

// Gateway creates intents and verifies webhook payloads.
type Gateway interface {
	CreateIntent(ctx context.Context, reference string, amount decimal.Decimal, currency, method, description string) (*Intent, error)
	GetIntent(ctx context.Context, intentID string) (*Intent, error)
	VerifyWebhook(payload []byte, signature string) (*Event, error)
}

// HTTPGateway talks to the gateway's REST API with an API key, and checks
// webhook payloads against a shared HMAC secret.
type HTTPGateway struct {
	baseURL       string
	apiKey        string
	webhookSecret []byte
	client        *http.Client
}

// NewHTTPGateway creates a gateway client.
func NewHTTPGateway(baseURL, apiKey, webhookSecret string) *HTTPGateway {
	return &HTTPGateway{
		baseURL:       baseURL,
		apiKey:        apiKey,
		webhookSecret: []byte(webhookSecret),
		client:        &http.Client{Timeout: 15 * time.Second},
	}
}

type createIntentRequest struct {
	Reference   string `json:"reference"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Method      string `json:"method"`
	Description string `json:"description,omitempty"`
}

// CreateIntent registers a payment intent with the gateway. The reference is
// our idempotency key: retrying with the same reference returns the same
// intent.
func (g *HTTPGateway) CreateIntent(ctx context.Context, reference string, amount decimal.Decimal, currency, method, description string) (*Intent, error) {
	body, err := json.Marshal(createIntentRequest{
		Reference:   reference,
		Amount:      amount.StringFixed(2),
		Currency:    currency,
		Method:      method,
		Description: description,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal intent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/intents", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build intent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Idempotency-Key", reference)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create intent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	intent := &Intent{}
	if err := json.NewDecoder(resp.Body).Decode(intent); err != nil {
		return nil, fmt.Errorf("decode intent response: %w", err)
	}
	return intent, nil
}

// GetIntent fetches the current state of an intent from the gateway.
func (g *HTTPGateway) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v1/intents/"+intentID, nil)
	if err != nil {
		return nil, fmt.Errorf("build intent request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get intent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	intent := &Intent{}
	if err := json.NewDecoder(resp.Body).Decode(intent); err != nil {
		return nil, fmt.Errorf("decode intent response: %w", err)
	}
	return intent, nil
}

// VerifyWebhook checks the payload's HMAC-SHA256 signature and decodes the
// event. The signature is hex-encoded in the gateway's signature header.
func (g *HTTPGateway) VerifyWebhook(payload []byte, signature string) (*Event, error) {
	mac := hmac.New(sha256.New, g.webhookSecret)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, ErrBadSignature
	}

	event := &Event{}
	if err := json.Unmarshal(payload, event); err != nil {
		return nil, fmt.Errorf("decode webhook event: %w", err)
	}
	return event, nil
}

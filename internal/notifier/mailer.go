// Package notifier sends transactional email. Delivery is best-effort:
// callers log failures and move on, the request path never blocks on mail.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Mailer sends one email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// HTTPMailer delivers mail through an HTTP mail API (SendGrid-style JSON
// endpoint authorized by a bearer key).
type HTTPMailer struct {
	apiURL string
	apiKey string
	from   string
	client *http.Client
}

// NewHTTPMailer creates a mailer for the given API endpoint.
func NewHTTPMailer(apiURL, apiKey, from string) *HTTPMailer {
	return &HTTPMailer{
		apiURL: apiURL,
		apiKey: apiKey,
		from:   from,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type mailPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Send posts the message to the mail API.
func (m *HTTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	body, err := json.Marshal(mailPayload{From: m.from, To: to, Subject: subject, HTML: htmlBody})
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail API returned status %d", resp.StatusCode)
	}
	return nil
}

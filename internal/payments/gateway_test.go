package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCreateIntent(t *testing.T) {
	var gotAuth, gotIdempotency string
	var gotBody createIntentRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/intents" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotIdempotency = r.Header.Get("Idempotency-Key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(Intent{ID: "pi_123", ClientSecret: "cs_abc", Status: "pending"})
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, "sk_test", "whsec")
	intent, err := g.CreateIntent(t.Context(), "ref-1", decimal.RequireFromString("2500.5"), "INR", "upi", "emi")
	if err != nil {
		t.Fatalf("CreateIntent failed: %v", err)
	}

	if intent.ID != "pi_123" || intent.ClientSecret != "cs_abc" {
		t.Errorf("unexpected intent: %+v", intent)
	}
	if gotAuth != "Bearer sk_test" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotIdempotency != "ref-1" {
		t.Errorf("expected idempotency key ref-1, got %q", gotIdempotency)
	}
	if gotBody.Amount != "2500.50" {
		t.Errorf("expected amount 2500.50 on the wire, got %q", gotBody.Amount)
	}
}

func TestCreateIntentGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, "sk_test", "whsec")
	if _, err := g.CreateIntent(t.Context(), "ref-1", decimal.NewFromInt(100), "INR", "card", ""); err == nil {
		t.Fatal("expected error for gateway failure")
	}
}

func TestGetIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/intents/pi_123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Intent{ID: "pi_123", Status: "succeeded"})
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, "sk_test", "whsec")
	intent, err := g.GetIntent(t.Context(), "pi_123")
	if err != nil {
		t.Fatalf("GetIntent failed: %v", err)
	}
	if intent.Status != "succeeded" {
		t.Errorf("expected succeeded, got %q", intent.Status)
	}
}

func TestVerifyWebhook(t *testing.T) {
	g := NewHTTPGateway("http://gateway", "sk_test", "whsec")
	payload := []byte(`{"type":"payment.succeeded","intent_id":"pi_123"}`)

	mac := hmac.New(sha256.New, []byte("whsec"))
	mac.Write(payload)
	signature := hex.EncodeToString(mac.Sum(nil))

	event, err := g.VerifyWebhook(payload, signature)
	if err != nil {
		t.Fatalf("VerifyWebhook failed: %v", err)
	}
	if event.Type != "payment.succeeded" || event.IntentID != "pi_123" {
		t.Errorf("unexpected event: %+v", event)
	}
}

func TestVerifyWebhookBadSignature(t *testing.T) {
	g := NewHTTPGateway("http://gateway", "sk_test", "whsec")
	payload := []byte(`{"type":"payment.succeeded","intent_id":"pi_123"}`)

	if _, err := g.VerifyWebhook(payload, "deadbeef"); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}

	// Tampered payload fails against a signature over the original.
	mac := hmac.New(sha256.New, []byte("whsec"))
	mac.Write(payload)
	signature := hex.EncodeToString(mac.Sum(nil))
	tampered := []byte(`{"type":"payment.succeeded","intent_id":"pi_999"}`)
	if _, err := g.VerifyWebhook(tampered, signature); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature for tampered payload, got %v", err)
	}
}

package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPMailerSend(t *testing.T) {
	var gotAuth string
	var gotPayload mailPayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewHTTPMailer(srv.URL, "key-123", "noreply@example.com")
	if err := m.Send(context.Background(), "alice@example.com", "Hello", "<p>hi</p>"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if gotAuth != "Bearer key-123" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotPayload.To != "alice@example.com" || gotPayload.From != "noreply@example.com" {
		t.Errorf("unexpected payload: %+v", gotPayload)
	}
}

func TestHTTPMailerSendAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	m := NewHTTPMailer(srv.URL, "bad-key", "noreply@example.com")
	if err := m.Send(context.Background(), "alice@example.com", "Hello", "<p>hi</p>"); err == nil {
		t.Fatal("expected error for API failure")
	}
}

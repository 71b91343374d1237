package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/saks786/expense-tracker/internal/auth"
	"github.com/saks786/expense-tracker/internal/notifier"
	"github.com/saks786/expense-tracker/internal/payments"
	"github.com/saks786/expense-tracker/internal/storage/sqlite"
)

// stubGateway stands in for the payment gateway. CreateIntent always
// succeeds; GetIntent reports whatever status the test sets; webhooks are
// verified by the literal signature "valid".
type stubGateway struct {
	intentStatus string
}

func (g *stubGateway) CreateIntent(ctx context.Context, reference string, amount decimal.Decimal, currency, method, description string) (*payments.Intent, error) {
	return &payments.Intent{
		ID:           "pi_" + reference,
		ClientSecret: "secret_" + reference,
		Status:       "pending",
	}, nil
}

func (g *stubGateway) GetIntent(ctx context.Context, intentID string) (*payments.Intent, error) {
	return &payments.Intent{ID: intentID, Status: g.intentStatus}, nil
}

func (g *stubGateway) VerifyWebhook(payload []byte, signature string) (*payments.Event, error) {
	if signature != "valid" {
		return nil, payments.ErrBadSignature
	}
	event := &payments.Event{}
	if err := json.Unmarshal(payload, event); err != nil {
		return nil, err
	}
	return event, nil
}

// newTestServer spins up the full route table over a temp sqlite database.
func newTestServer(t *testing.T) (*httptest.Server, *stubGateway) {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("test-secret-key-for-handler-tests", time.Hour)
	gateway := &stubGateway{intentStatus: "pending"}

	mux := http.NewServeMux()
	New(store, auth.NewPasswordAuthenticator(store), jwtManager, gateway, notifier.Noop{}, "INR").Register(mux)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, gateway
}

// jsonBody marshals a value into a request body reader.
func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	return bytes.NewReader(data)
}

// doRequest sends a JSON request, optionally with a bearer token.
func doRequest(t *testing.T, ts *httptest.Server, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// decodeBody decodes and closes a response body.
func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

// registerUser creates an account and returns a bearer token for it.
func registerUser(t *testing.T, ts *httptest.Server, username string) string {
	t.Helper()

	resp := doRequest(t, ts, http.MethodPost, "/api/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: expected status 201, got %d", username, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/token", "", map[string]string{
		"username": username,
		"password": "password123",
	})
	var tok tokenResponse
	decodeBody(t, resp, &tok)
	if tok.AccessToken == "" {
		t.Fatalf("login %s: empty access token", username)
	}
	return tok.AccessToken
}

// userID fetches the authenticated user's numeric ID.
func userID(t *testing.T, ts *httptest.Server, token string) int64 {
	t.Helper()
	resp := doRequest(t, ts, http.MethodGet, "/api/users/me", token, nil)
	var user userResponse
	decodeBody(t, resp, &user)
	return user.ID
}

// makeFriends registers a friendship between two authenticated users.
func makeFriends(t *testing.T, ts *httptest.Server, tokenA, tokenB, usernameB string) {
	t.Helper()

	resp := doRequest(t, ts, http.MethodPost, "/api/friends/request", tokenA, map[string]string{
		"username": usernameB,
	})
	var fr friendResponse
	decodeBody(t, resp, &fr)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("friend request: expected status 201, got %d", resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodPut, fmt.Sprintf("/api/friends/%d/accept", fr.FriendshipID), tokenB, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("accept friend request: expected status 200, got %d", resp.StatusCode)
	}
}

// assertDecimalEqual compares two amounts within the 0.01 tolerance used
// everywhere else.
func assertDecimalEqual(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()
	w, err := decimal.NewFromString(want)
	if err != nil {
		t.Fatalf("bad expected decimal %q: %v", want, err)
	}
	if got.Sub(w).Abs().GreaterThan(decimal.New(1, -2)) {
		t.Errorf("expected %s, got %s", want, got.String())
	}
}

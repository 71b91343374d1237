package service

import (
	"net/http"
	"testing"
)

func TestRegisterAndLogin(t *testing.T) {
	ts, _ := newTestServer(t)

	token := registerUser(t, ts, "alice")

	resp := doRequest(t, ts, http.MethodGet, "/api/users/me", token, nil)
	var user userResponse
	decodeBody(t, resp, &user)
	if user.Username != "alice" {
		t.Errorf("expected username alice, got %q", user.Username)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("expected email alice@example.com, got %q", user.Email)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	ts, _ := newTestServer(t)
	registerUser(t, ts, "alice")

	resp := doRequest(t, ts, http.MethodPost, "/api/register", "", map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": "password123",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected status 409, got %d", resp.StatusCode)
	}
}

func TestRegisterWeakPassword(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doRequest(t, ts, http.MethodPost, "/api/register", "", map[string]string{
		"username": "bob",
		"email":    "bob@example.com",
		"password": "short",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", resp.StatusCode)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	ts, _ := newTestServer(t)
	registerUser(t, ts, "alice")

	resp := doRequest(t, ts, http.MethodPost, "/api/token", "", map[string]string{
		"username": "alice",
		"password": "wrong-password",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", resp.StatusCode)
	}
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doRequest(t, ts, http.MethodGet, "/api/expenses", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/expenses", "not-a-valid-token", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected status 401 for bad token, got %d", resp.StatusCode)
	}
}

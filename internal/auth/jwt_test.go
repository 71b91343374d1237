package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/saks786/expense-tracker/internal/models"
)

func TestJWTGenerateAndValidate(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	user := &models.User{ID: 42, Username: "alice"}

	token, err := manager.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := manager.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("expected user ID 42, got %d", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Errorf("expected username alice, got %q", claims.Username)
	}
}

func TestJWTExpiredToken(t *testing.T) {
	manager := NewJWTManager("test-secret", -time.Minute)
	token, err := manager.Generate(&models.User{ID: 1, Username: "alice"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if _, err := manager.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestJWTWrongSecret(t *testing.T) {
	manager := NewJWTManager("secret-a", time.Hour)
	token, err := manager.Generate(&models.User{ID: 1, Username: "alice"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	other := NewJWTManager("secret-b", time.Hour)
	if _, err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestJWTGarbageToken(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	if _, err := manager.Validate("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

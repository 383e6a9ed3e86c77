package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-at-least-32-bytes!!"

func TestDefaultTokenConfig(t *testing.T) {
	config := DefaultTokenConfig("s")

	if config.Expiry != time.Hour {
		t.Errorf("Expiry = %v, want 1h", config.Expiry)
	}
	if config.Issuer != "autorent-local" {
		t.Errorf("Issuer = %s, want autorent-local", config.Issuer)
	}
}

func TestTokenManager_GenerateAndValidate(t *testing.T) {
	manager := NewTokenManager(DefaultTokenConfig(testSecret))

	token, err := manager.Generate("user-123", "test@example.com", "Ana Pop")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if token == "" {
		t.Fatal("token should not be empty")
	}

	claims, err := manager.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UID() != "user-123" {
		t.Errorf("UID = %s, want user-123", claims.UID())
	}
	if claims.Email != "test@example.com" {
		t.Errorf("Email = %s, want test@example.com", claims.Email)
	}
	if claims.Name != "Ana Pop" {
		t.Errorf("Name = %s, want Ana Pop", claims.Name)
	}
}

func TestTokenManager_Validate_Invalid(t *testing.T) {
	manager := NewTokenManager(DefaultTokenConfig(testSecret))

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"invalid format", "not-a-jwt"},
		{"tampered token", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJzdWIiOiIxMjM0NTY3ODkwIiwibmFtZSI6IkpvaG4gRG9lIiwiaWF0IjoxNTE2MjM5MDIyfQ.invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := manager.Validate(tt.token); err == nil {
				t.Error("Validate should fail for invalid token")
			}
		})
	}
}

func TestTokenManager_Validate_WrongSecret(t *testing.T) {
	issuer := NewTokenManager(DefaultTokenConfig("secret-key-1-at-least-32-bytes!!!"))
	other := NewTokenManager(DefaultTokenConfig("secret-key-2-at-least-32-bytes!!!"))

	token, err := issuer.Generate("user-1", "a@b.c", "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := other.Validate(token); err == nil {
		t.Error("Validate should fail with the wrong secret")
	}
}

func TestTokenManager_Validate_Expired(t *testing.T) {
	manager := NewTokenManager(DefaultTokenConfig(testSecret))
	manager.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := manager.Generate("user-1", "a@b.c", "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	manager.now = time.Now
	if _, err := manager.Validate(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseIDToken(t *testing.T) {
	// Signed with a key the parser never sees.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: "ana@example.com",
		Name:  "Ana",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "firebase-uid",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte("remote-key"))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}

	claims, err := ParseIDToken(signed)
	if err != nil {
		t.Fatalf("ParseIDToken failed: %v", err)
	}
	if claims.UID() != "firebase-uid" {
		t.Errorf("UID = %s, want firebase-uid", claims.UID())
	}
	if claims.Name != "Ana" {
		t.Errorf("Name = %s, want Ana", claims.Name)
	}
	if claims.Expired(time.Now()) {
		t.Error("token should not be expired")
	}
	if !claims.Expired(time.Now().Add(2 * time.Hour)) {
		t.Error("token should be expired in two hours")
	}
}

func TestParseIDToken_Invalid(t *testing.T) {
	if _, err := ParseIDToken(""); !errors.Is(err, ErrNoToken) {
		t.Errorf("expected ErrNoToken, got %v", err)
	}
	if _, err := ParseIDToken("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

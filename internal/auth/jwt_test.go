package auth

import (
	"testing"
	"time"

	"github.com/erazemk/gudang/internal/model"
)

var testUser = model.User{ID: "u-1", Username: "budi", Role: model.RoleAdmin}

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, issued, err := GenerateToken(secret, testUser, time.Now(), TokenExpiry)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" || issued.ID == "" {
		t.Fatal("expected token with JTI")
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "u-1" {
		t.Errorf("expected uid u-1, got %q", claims.UserID)
	}
	if claims.Username != "budi" {
		t.Errorf("expected username budi, got %q", claims.Username)
	}
	if claims.Role != model.RoleAdmin {
		t.Errorf("expected role admin, got %q", claims.Role)
	}
	if claims.ID != issued.ID {
		t.Errorf("JTI mismatch: %q vs %q", claims.ID, issued.ID)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _, _ := GenerateToken("secret1", testUser, time.Now(), TokenExpiry)

	if _, err := ValidateToken("secret2", token); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	if _, err := ValidateToken("secret", "not-a-token"); err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	token, _, _ := GenerateToken("secret", testUser, time.Now().Add(-2*time.Hour), time.Hour)

	if _, err := ValidateToken("secret", token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestTokensAreUnique(t *testing.T) {
	now := time.Now()
	a, _, _ := GenerateToken("secret", testUser, now, TokenExpiry)
	b, _, _ := GenerateToken("secret", testUser, now, TokenExpiry)
	if a == b {
		t.Error("expected distinct tokens for the same user and time")
	}
}

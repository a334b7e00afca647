package auth

import (
	"testing"
)

func TestSignAndVerifySession(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := SignSession("google:123", "a@example.com", "Ada", "")
	if err != nil {
		t.Fatalf("SignSession: %v", err)
	}

	claims, err := VerifySession(token)
	if err != nil {
		t.Fatalf("VerifySession: %v", err)
	}
	if claims.Subject != "google:123" {
		t.Fatalf("expected sub google:123, got %q", claims.Subject)
	}
	if claims.Email != "a@example.com" {
		t.Fatalf("expected email to round-trip, got %q", claims.Email)
	}
}

func TestVerifySessionRejectsTamperedToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := SignSession("google:123", "", "", "")
	if err != nil {
		t.Fatalf("SignSession: %v", err)
	}

	if _, err := VerifySession(token + "x"); err == nil {
		t.Fatalf("expected tampered token to be rejected")
	}
}

func TestVerifySessionRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret-one")
	token, err := SignSession("google:123", "", "", "")
	if err != nil {
		t.Fatalf("SignSession: %v", err)
	}

	t.Setenv("JWT_SECRET", "secret-two")
	if _, err := VerifySession(token); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
}

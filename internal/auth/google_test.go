package auth

import (
	"testing"
	"time"
)

func TestStateStoreConsumeOnce(t *testing.T) {
	store := newStateStore()
	store.put("abc", time.Now().Add(time.Minute))
	if !store.consume("abc") {
		t.Fatal("expected first consume to succeed")
	}
	if store.consume("abc") {
		t.Fatal("expected second consume to fail")
	}
}

func TestStateStoreExpired(t *testing.T) {
	store := newStateStore()
	store.put("old", time.Now().Add(-time.Second))
	if store.consume("old") {
		t.Fatal("expected expired state to be rejected")
	}
}

func TestAppendToken(t *testing.T) {
	got, err := appendToken("https://app.example.com/auth/callback?next=%2Fdashboard", "tok123")
	if err != nil {
		t.Fatalf("appendToken: %v", err)
	}
	want := "https://app.example.com/auth/callback?next=%2Fdashboard&token=tok123"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if _, err := appendToken("", "tok"); err == nil {
		t.Fatal("expected error for empty redirect")
	}
}

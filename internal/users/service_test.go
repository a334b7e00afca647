package users

import (
	"context"
	"testing"
)

func TestUpsertFromAuthValidates(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	if err := svc.UpsertFromAuth(context.Background(), User{ID: "", Email: "a@b.com"}); err == nil {
		t.Fatal("expected error for missing id")
	}
	if err := svc.UpsertFromAuth(context.Background(), User{ID: "u1", Email: "  "}); err == nil {
		t.Fatal("expected error for missing email")
	}
}

func TestUpsertThenGet(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	user := User{ID: "u1", Email: "a@b.com", FullName: "Ada", PictureURL: "https://img/x.png"}
	if err := svc.UpsertFromAuth(context.Background(), user); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := svc.GetByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != "a@b.com" || got.FullName != "Ada" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}
}

func TestUpsertPreservesCreatedAt(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	if err := svc.UpsertFromAuth(context.Background(), User{ID: "u1", Email: "a@b.com"}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	first, _ := svc.GetByID(context.Background(), "u1")
	if err := svc.UpsertFromAuth(context.Background(), User{ID: "u1", Email: "new@b.com"}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	second, _ := svc.GetByID(context.Background(), "u1")
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatal("createdAt changed on upsert")
	}
	if second.Email != "new@b.com" {
		t.Fatalf("email not updated: %+v", second)
	}
}

func TestGetByIDMissing(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	if _, err := svc.GetByID(context.Background(), "nope"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

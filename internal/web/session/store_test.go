package session

import (
	"testing"
	"time"
)

func TestStore_CreateAndGet(t *testing.T) {
	store := NewStore(time.Hour)
	defer store.Close()

	sess, err := store.Create("u1", "coolguy")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("empty session id")
	}

	got, ok := store.Get(sess.ID)
	if !ok {
		t.Fatal("session not found")
	}
	if got.UserID != "u1" || got.Username != "coolguy" {
		t.Errorf("got %+v", got)
	}
}

func TestStore_GetUnknown(t *testing.T) {
	store := NewStore(time.Hour)
	defer store.Close()

	if _, ok := store.Get("nope"); ok {
		t.Error("expected miss for unknown id")
	}
}

func TestStore_ExpiredSessionNotReturned(t *testing.T) {
	store := NewStore(-time.Minute)
	defer store.Close()

	sess, err := store.Create("u1", "coolguy")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, ok := store.Get(sess.ID); ok {
		t.Error("expired session returned")
	}
}

func TestStore_Delete(t *testing.T) {
	store := NewStore(time.Hour)
	defer store.Close()

	sess, _ := store.Create("u1", "coolguy")
	store.Delete(sess.ID)

	if _, ok := store.Get(sess.ID); ok {
		t.Error("deleted session returned")
	}
}

package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"finledger/internal/core"
)

func validTx() core.Transaction {
	return core.Transaction{
		Kind:     core.KindExpense,
		Amount:   core.Money{Cents: 1200},
		Reason:   "lunch",
		Category: core.CategoryFood,
		Date:     core.NewDate(2024, 1, 1),
	}
}

func TestAppendAssignsIDAndCreatedAt(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewWithClock(func() time.Time { return fixed })

	id, err := store.Append(context.Background(), validTx())
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if id == "" {
		t.Fatal("expected a non-empty id")
	}

	got, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.CreatedAt.Equal(fixed) {
		t.Fatalf("created_at = %v, want %v", got.CreatedAt, fixed)
	}
}

func TestAppendRejectsInvalid(t *testing.T) {
	store := New()
	bad := validTx()
	bad.Category = "Misc"
	if _, err := store.Append(context.Background(), bad); !errors.Is(err, core.ErrUnknownCategory) {
		t.Fatalf("err = %v, want ErrUnknownCategory", err)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	store := New()
	if _, err := store.Append(context.Background(), validTx()); err != nil {
		t.Fatalf("append: %v", err)
	}

	snap, err := store.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	snap[0].Reason = "tampered"

	again, _ := store.Snapshot(context.Background())
	if again[0].Reason != "lunch" {
		t.Fatal("mutating a snapshot must not affect the store")
	}
}

func TestGetMissing(t *testing.T) {
	store := New()
	if _, err := store.Get(context.Background(), "mem:99"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

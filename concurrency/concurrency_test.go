package concurrency

import (
	"context"
	"testing"
	"time"
)

func TestNewManagerRejectsNonPositive(t *testing.T) {
	if _, err := NewManager(0); err == nil {
		t.Fatal("expected error for zero limit")
	}
}

func TestTryAcquire(t *testing.T) {
	m, err := NewManager(2)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if !m.TryAcquire() || !m.TryAcquire() {
		t.Fatal("expected two slots")
	}
	if m.TryAcquire() {
		t.Fatal("third acquire should fail")
	}
	if m.Available() != 0 {
		t.Errorf("Available = %d, want 0", m.Available())
	}

	m.Release()
	if m.Available() != 1 {
		t.Errorf("Available = %d, want 1", m.Available())
	}

	got := m.Metrics()
	if got.Acquired != 2 || got.Rejected != 1 || got.Current != 1 || got.Limit != 2 {
		t.Errorf("Metrics = %+v", got)
	}
}

func TestAcquireTimeout(t *testing.T) {
	m, _ := NewManager(1)
	if err := m.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := m.Acquire(ctx); err == nil {
		t.Fatal("expected timeout")
	}
	m.Release()
}

func TestReleaseWithoutAcquirePanics(t *testing.T) {
	m, _ := NewManager(1)
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	m.Release()
}

package store

import (
	"context"
	"sync"
	"testing"
)

func TestMemoryStore_StringRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	_, ok, err := m.GetString(ctx, KeyRolloutID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected absent key before write")
	}

	if err := m.SetString(ctx, KeyRolloutID, "42"); err != nil {
		t.Fatalf("SetString: %v", err)
	}

	value, ok, err := m.GetString(ctx, KeyRolloutID)
	if err != nil || !ok {
		t.Fatalf("GetString = (%q, %v, %v), want present", value, ok, err)
	}
	if value != "42" {
		t.Fatalf("value = %q, want %q", value, "42")
	}
}

func TestMemoryStore_BoolRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	if err := m.SetBool(ctx, KeyFirstTimeUser, true); err != nil {
		t.Fatalf("SetBool: %v", err)
	}
	value, ok, err := m.GetBool(ctx, KeyFirstTimeUser)
	if err != nil || !ok || !value {
		t.Fatalf("GetBool = (%v, %v, %v), want (true, true, nil)", value, ok, err)
	}
}

func TestMemoryStore_SeedSkipsEmpty(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore().Seed(map[string]string{
		KeyPlanType:  "premium",
		KeyRolloutID: "",
	})

	if _, ok, _ := m.GetString(ctx, KeyRolloutID); ok {
		t.Fatal("empty seed value should not create a key")
	}
	if value, ok, _ := m.GetString(ctx, KeyPlanType); !ok || value != "premium" {
		t.Fatalf("plan = (%q, %v), want (premium, true)", value, ok)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.SetString(ctx, KeyRolloutID, "7")
			_, _, _ = m.GetString(ctx, KeyRolloutID)
			_ = m.SetBool(ctx, KeyFirstTimeUser, true)
			_, _, _ = m.GetBool(ctx, KeyFirstTimeUser)
		}()
	}
	wg.Wait()

	if value, ok, _ := m.GetString(ctx, KeyRolloutID); !ok || value != "7" {
		t.Fatalf("value = (%q, %v) after concurrent writes", value, ok)
	}
}

func TestNewStore_UnsupportedType(t *testing.T) {
	if _, err := NewStore(context.Background(), "cassandra", ""); err == nil {
		t.Fatal("expected error for unsupported store type")
	}
}

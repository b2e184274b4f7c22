package donations

import (
	"context"
	"testing"
	"time"
)

type fakeIdempotencyStore struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	return f.data[key], nil
}

func (f *fakeIdempotencyStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, exists := f.data[key]; exists {
		return false, nil
	}
	f.data[key] = "1"
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "fr:idempotency:" + scope + ":" + id
}

func (f *fakeIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func TestCountGuardFirstMarkerWins(t *testing.T) {
	ctx := context.Background()
	guard, err := NewCountGuard(newFakeIdempotencyStore(), time.Hour)
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}

	already, err := guard.CheckAndMark(ctx, "pay-1")
	if err != nil {
		t.Fatalf("first mark: %v", err)
	}
	if already {
		t.Fatal("first delivery reported as duplicate")
	}

	already, err = guard.CheckAndMark(ctx, "pay-1")
	if err != nil {
		t.Fatalf("second mark: %v", err)
	}
	if !already {
		t.Fatal("second delivery not reported as duplicate")
	}
}

func TestCountGuardReleaseAllowsRetry(t *testing.T) {
	ctx := context.Background()
	guard, _ := NewCountGuard(newFakeIdempotencyStore(), time.Hour)

	if _, err := guard.CheckAndMark(ctx, "pay-1"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := guard.Release(ctx, "pay-1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	already, err := guard.CheckAndMark(ctx, "pay-1")
	if err != nil {
		t.Fatalf("re-mark: %v", err)
	}
	if already {
		t.Fatal("released marker still reported as counted")
	}
}

func TestCountGuardAppliesTTL(t *testing.T) {
	ctx := context.Background()
	store := newFakeIdempotencyStore()
	guard, _ := NewCountGuard(store, 720*time.Hour)

	if _, err := guard.CheckAndMark(ctx, "pay-1"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	key := store.IdempotencyKey(countedScope, "pay-1")
	if store.ttls[key] != 720*time.Hour {
		t.Fatalf("marker ttl not applied: %v", store.ttls[key])
	}
}

package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// failingStore simulates an unreachable key-value backend.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("connection refused")
}

func (failingStore) Set(context.Context, string, string, time.Duration) error {
	return errors.New("connection refused")
}

func TestCacheKeyDeterministic(t *testing.T) {
	a := CacheKey("dialogue", "chest pain", "ctx")
	b := CacheKey("dialogue", "chest pain", "ctx")
	if a != b {
		t.Fatalf("CacheKey not deterministic: %q vs %q", a, b)
	}
}

func TestCacheKeyDistinct(t *testing.T) {
	tests := []struct {
		name  string
		one   []string
		other []string
	}{
		{name: "different content", one: []string{"chest pain"}, other: []string{"headache"}},
		{name: "shifted boundary", one: []string{"ab", "c"}, other: []string{"a", "bc"}},
		{name: "extra empty part", one: []string{"ab"}, other: []string{"ab", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if CacheKey("p", tt.one...) == CacheKey("p", tt.other...) {
				t.Fatalf("distinct inputs %v and %v collided", tt.one, tt.other)
			}
		})
	}
}

func TestMemoryStoreTTL(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Set(ctx, "k", "v", 50*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}

	val, found, err := store.Get(ctx, "k")
	if err != nil || !found || val != "v" {
		t.Fatalf("Get = (%q, %v, %v), want (v, true, nil)", val, found, err)
	}

	time.Sleep(80 * time.Millisecond)
	if _, found, _ := store.Get(ctx, "k"); found {
		t.Fatal("entry should have expired")
	}
}

func TestGetOrComputeHitSkipsCompute(t *testing.T) {
	cache := NewResponseCache(NewMemoryStore())
	ctx := context.Background()

	var computes int32
	compute := func(context.Context) (string, error) {
		atomic.AddInt32(&computes, 1)
		return "answer", nil
	}

	for i := 0; i < 3; i++ {
		val, err := cache.GetOrCompute(ctx, "key", time.Minute, compute)
		if err != nil {
			t.Fatalf("GetOrCompute: %v", err)
		}
		if val != "answer" {
			t.Fatalf("GetOrCompute = %q, want answer", val)
		}
	}

	if got := atomic.LoadInt32(&computes); got != 1 {
		t.Fatalf("compute ran %d times, want 1", got)
	}
}

func TestGetOrComputeSerializesConcurrentMisses(t *testing.T) {
	cache := NewResponseCache(NewMemoryStore())
	ctx := context.Background()

	var computes int32
	compute := func(context.Context) (string, error) {
		atomic.AddInt32(&computes, 1)
		time.Sleep(10 * time.Millisecond)
		return "answer", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			val, err := cache.GetOrCompute(ctx, "key", time.Minute, compute)
			if err != nil || val != "answer" {
				t.Errorf("GetOrCompute = (%q, %v)", val, err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&computes); got != 1 {
		t.Fatalf("concurrent misses computed %d times, want 1", got)
	}
}

func TestGetOrComputeFailsOpen(t *testing.T) {
	cache := NewResponseCache(failingStore{})
	ctx := context.Background()

	val, err := cache.GetOrCompute(ctx, "key", time.Minute, func(context.Context) (string, error) {
		return "computed", nil
	})
	if err != nil {
		t.Fatalf("store outage must not fail the caller: %v", err)
	}
	if val != "computed" {
		t.Fatalf("GetOrCompute = %q, want computed", val)
	}
}

func TestGetOrComputeComputeErrorNotCached(t *testing.T) {
	cache := NewResponseCache(NewMemoryStore())
	ctx := context.Background()
	wantErr := errors.New("provider down")

	if _, err := cache.GetOrCompute(ctx, "key", time.Minute, func(context.Context) (string, error) {
		return "", wantErr
	}); !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want %v", err, wantErr)
	}

	if _, found, _ := cache.Get(ctx, "key"); found {
		t.Fatal("failed compute must not populate the cache")
	}
}

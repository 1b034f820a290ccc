package cache

import (
	"context"
	"testing"
	"time"
)

func TestRoundTrip(t *testing.T) {
	s := New(time.Minute)
	s.Set("k", "v")
	got, ok := s.Get("k")
	if !ok || got != "v" {
		t.Fatalf("Get = %v, %v", got, ok)
	}
}

func TestExpiry(t *testing.T) {
	s := New(10 * time.Millisecond)
	s.Set("k", "v")
	time.Sleep(20 * time.Millisecond)
	if _, ok := s.Get("k"); ok {
		t.Fatal("entry should have expired")
	}
}

func TestNilNeverCached(t *testing.T) {
	s := New(time.Minute)
	s.Set("k", nil)
	if _, ok := s.Get("k"); ok {
		t.Fatal("nil value must not be cached")
	}
	if s.Len() != 0 {
		t.Fatalf("store should be empty, has %d entries", s.Len())
	}
}

func TestSetWithTTLOverridesDefault(t *testing.T) {
	s := New(time.Minute)
	s.SetWithTTL("short", "v", 10*time.Millisecond)
	s.Set("long", "v")
	time.Sleep(20 * time.Millisecond)
	if _, ok := s.Get("short"); ok {
		t.Error("short TTL entry should have expired")
	}
	if _, ok := s.Get("long"); !ok {
		t.Error("default TTL entry should still be present")
	}
}

func TestJanitorEvicts(t *testing.T) {
	s := New(5 * time.Millisecond)
	s.Set("k", "v")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.StartJanitor(ctx, 10*time.Millisecond)

	deadline := time.Now().Add(500 * time.Millisecond)
	for s.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if s.Len() != 0 {
		t.Fatalf("janitor did not evict expired entry, %d left", s.Len())
	}
}

func TestKeys(t *testing.T) {
	if got := BundleKey("bsc", "0xabc"); got != "baseTokenData:bsc:0xabc" {
		t.Errorf("BundleKey = %q", got)
	}
	if got := AnalyticsKey("solana", "addr"); got != "tokenAnalytics:solana:addr" {
		t.Errorf("AnalyticsKey = %q", got)
	}
}

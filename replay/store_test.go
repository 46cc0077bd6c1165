package replay

import (
	"sync"
	"testing"
	"time"
)

func TestReserve_FirstUseWins(t *testing.T) {
	s := NewInMemoryStore()
	expiry := time.Now().Add(time.Minute)

	if !s.Reserve("nonce-1", expiry) {
		t.Fatal("first Reserve returned false")
	}
	if s.Reserve("nonce-1", expiry) {
		t.Error("second Reserve of the same nonce returned true")
	}
	if !s.Reserve("nonce-2", expiry) {
		t.Error("Reserve of a different nonce returned false")
	}
}

func TestReserve_ExpiredNonceIsReusable(t *testing.T) {
	s := NewInMemoryStore()

	if !s.Reserve("nonce-1", time.Now().Add(-time.Second)) {
		t.Fatal("first Reserve returned false")
	}
	if !s.Reserve("nonce-1", time.Now().Add(time.Minute)) {
		t.Error("Reserve of an expired nonce returned false")
	}
}

func TestRelease_MakesNonceReusable(t *testing.T) {
	s := NewInMemoryStore()
	expiry := time.Now().Add(time.Minute)

	if !s.Reserve("nonce-1", expiry) {
		t.Fatal("first Reserve returned false")
	}
	s.Release("nonce-1")
	if !s.Reserve("nonce-1", expiry) {
		t.Error("Reserve after Release returned false")
	}

	// Releasing an unknown nonce is a no-op.
	s.Release("never-reserved")
}

func TestReserve_CleansUpExpired(t *testing.T) {
	s := NewInMemoryStore()
	past := time.Now().Add(-time.Second)

	for _, n := range []string{"a", "b", "c"} {
		s.Reserve(n, past)
	}
	s.Reserve("fresh", time.Now().Add(time.Minute))

	if got := s.Len(); got != 1 {
		t.Errorf("Len() = %d after cleanup, want 1", got)
	}
}

func TestReserve_Concurrent(t *testing.T) {
	s := NewInMemoryStore()
	expiry := time.Now().Add(time.Minute)

	const goroutines = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Reserve("contested", expiry) {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	if got := len(wins); got != 1 {
		t.Errorf("%d goroutines reserved the nonce, want exactly 1", got)
	}
}

package internal

import (
	"sync"
	"testing"
	"time"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	var km KeyedMutex
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("alice")
			defer unlock()
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()

	if counter != 200 {
		t.Fatalf("expected 200 serialized increments, got %d", counter)
	}
	if km.Len() != 0 {
		t.Fatalf("expected lock entries to be released, got %d", km.Len())
	}
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	var km KeyedMutex
	unlockA := km.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestKeyedMutexUnlockIdempotent(t *testing.T) {
	var km KeyedMutex
	unlock := km.Lock("k")
	unlock()
	unlock()

	if km.Len() != 0 {
		t.Fatalf("expected no live entries, got %d", km.Len())
	}
}

func TestNewOTPWidth(t *testing.T) {
	for i := 0; i < 100; i++ {
		otp, err := NewOTP(6)
		if err != nil {
			t.Fatalf("NewOTP failed: %v", err)
		}
		if len(otp) != 6 {
			t.Fatalf("expected 6 digits, got %q", otp)
		}
		for _, c := range otp {
			if c < '0' || c > '9' {
				t.Fatalf("non-digit in otp %q", otp)
			}
		}
	}

	if _, err := NewOTP(5); err == nil {
		t.Fatal("expected error for too few digits")
	}
}

func TestSecretMatches(t *testing.T) {
	stored := HashSecret("123456")
	if !SecretMatches("123456", stored) {
		t.Fatal("expected match")
	}
	if SecretMatches("123457", stored) {
		t.Fatal("expected mismatch")
	}
}

func TestNewChallengeIDUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id, err := NewChallengeID()
		if err != nil {
			t.Fatalf("NewChallengeID failed: %v", err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = struct{}{}
	}
}

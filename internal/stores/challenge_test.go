package stores

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type storeFactory func(t *testing.T, clock *fakeClock) ChallengeStore

func storeFactories() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T, clock *fakeClock) ChallengeStore {
			return NewMemoryChallengeStore(clock.Now, 6)
		},
		"redis": func(t *testing.T, clock *fakeClock) ChallengeStore {
			mr, err := miniredis.Run()
			if err != nil {
				t.Fatalf("miniredis.Run failed: %v", err)
			}
			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() {
				_ = rdb.Close()
				mr.Close()
			})
			return NewRedisChallengeStore(rdb, "test", clock.Now, 6)
		},
	}
}

func TestChallengeCreateAndConsume(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			clock := newFakeClock()
			store := factory(t, clock)
			ctx := context.Background()

			id, secret, err := store.Create(ctx, "carol", 5*time.Minute, "Pet?")
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			if len(secret) != 6 {
				t.Fatalf("expected 6-digit secret, got %q", secret)
			}
			if len(id) != 36 {
				t.Fatalf("expected uuid id, got %q", id)
			}

			ch, err := store.Consume(ctx, id, secret, "Pet?")
			if err != nil {
				t.Fatalf("Consume failed: %v", err)
			}
			if ch.Subject != "carol" || ch.Payload != "Pet?" || ch.ID != id {
				t.Fatalf("unexpected challenge %+v", ch)
			}
			if !ch.ExpiresAt.Equal(clock.Now().Add(5 * time.Minute)) {
				t.Fatalf("unexpected expiry %v", ch.ExpiresAt)
			}

			if _, err := store.Consume(ctx, id, secret, "Pet?"); !errors.Is(err, ErrChallengeNotFound) {
				t.Fatalf("expected ErrChallengeNotFound on reuse, got %v", err)
			}
		})
	}
}

func TestChallengeMismatchKeepsChallenge(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			clock := newFakeClock()
			store := factory(t, clock)
			ctx := context.Background()

			id, secret, err := store.Create(ctx, "carol", time.Minute, "")
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}

			wrong := "000000"
			if wrong == secret {
				wrong = "111111"
			}
			for i := 0; i < 3; i++ {
				if _, err := store.Consume(ctx, id, wrong, ""); !errors.Is(err, ErrSecretMismatch) {
					t.Fatalf("expected ErrSecretMismatch, got %v", err)
				}
			}

			if _, err := store.Consume(ctx, id, secret, ""); err != nil {
				t.Fatalf("expected consume to succeed after mismatches: %v", err)
			}
		})
	}
}

func TestChallengeExpiryBoundary(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ttl := 300 * time.Second

			clock := newFakeClock()
			store := factory(t, clock)

			id, secret, err := store.Create(ctx, "dave", ttl, "")
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			clock.Advance(ttl - time.Millisecond)
			if _, err := store.Consume(ctx, id, secret, ""); err != nil {
				t.Fatalf("expected success just before expiry, got %v", err)
			}

			id, secret, err = store.Create(ctx, "dave", ttl, "")
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			clock.Advance(ttl + time.Millisecond)
			if _, err := store.Consume(ctx, id, secret, ""); !errors.Is(err, ErrChallengeExpired) {
				t.Fatalf("expected ErrChallengeExpired, got %v", err)
			}
			if _, err := store.Consume(ctx, id, secret, ""); !errors.Is(err, ErrChallengeNotFound) {
				t.Fatalf("expected expired challenge to be removed, got %v", err)
			}
		})
	}
}

func TestChallengeConsumeExactlyOnce(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			clock := newFakeClock()
			store := factory(t, clock)
			ctx := context.Background()

			id, secret, err := store.Create(ctx, "carol", time.Minute, "")
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}

			const workers = 16
			var (
				wins     atomic.Int32
				notFound atomic.Int32
				wg       sync.WaitGroup
				start    = make(chan struct{})
			)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					_, err := store.Consume(ctx, id, secret, "")
					switch {
					case err == nil:
						wins.Add(1)
					case errors.Is(err, ErrChallengeNotFound):
						notFound.Add(1)
					default:
						t.Errorf("unexpected consume error: %v", err)
					}
				}()
			}
			close(start)
			wg.Wait()

			if wins.Load() != 1 {
				t.Fatalf("expected exactly one winner, got %d", wins.Load())
			}
			if notFound.Load() != workers-1 {
				t.Fatalf("expected %d not-found losers, got %d", workers-1, notFound.Load())
			}
		})
	}
}

func TestChallengeUnknownID(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := factory(t, newFakeClock())
			if _, err := store.Consume(context.Background(), "missing", "123456", ""); !errors.Is(err, ErrChallengeNotFound) {
				t.Fatalf("expected ErrChallengeNotFound, got %v", err)
			}
		})
	}
}

func TestChallengeRejectsNonPositiveTTL(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := factory(t, newFakeClock())
			if _, _, err := store.Create(context.Background(), "x", 0, ""); err == nil {
				t.Fatal("expected error for zero ttl")
			}
		})
	}
}

func TestRedisChallengeStoreBackendFailure(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()

	store := NewRedisChallengeStore(rdb, "test", nil, 6)
	mr.Close()

	if _, _, err := store.Create(context.Background(), "carol", time.Minute, ""); !errors.Is(err, ErrChallengeBackend) {
		t.Fatalf("expected ErrChallengeBackend, got %v", err)
	}
	if _, err := store.Consume(context.Background(), "id", "123456", ""); !errors.Is(err, ErrChallengeBackend) {
		t.Fatalf("expected ErrChallengeBackend, got %v", err)
	}
}

func TestRedisChallengeStoreKeyTTL(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := NewRedisChallengeStore(rdb, "acch", nil, 6)
	id, _, err := store.Create(context.Background(), "carol", 5*time.Minute, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if got := mr.TTL("acch:" + id); got != 5*time.Minute+ExpiredGrace {
		t.Fatalf("unexpected key ttl %v", got)
	}
}

func TestChallengeRecordRoundTripRejectsBadVersion(t *testing.T) {
	encoded, err := encodeChallengeRecord(&challengeRecord{createdAt: 1, expiresAt: 2, subject: "a", payload: "b"})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := decodeChallengeRecord(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.subject != "a" || decoded.payload != "b" || decoded.expiresAt != 2 {
		t.Fatalf("unexpected decoded record %+v", decoded)
	}

	encoded[0] = 9
	if _, err := decodeChallengeRecord(encoded); err == nil {
		t.Fatal("expected version error")
	}
}

func TestChallengeConsumeWrongPayloadKeepsChallenge(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			clock := newFakeClock()
			store := factory(t, clock)
			ctx := context.Background()

			id, secret, err := store.Create(ctx, "erin", time.Minute, "mfa")
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			if _, err := store.Consume(ctx, id, secret, "recovery"); !errors.Is(err, ErrChallengeNotFound) {
				t.Fatalf("expected ErrChallengeNotFound for other payload, got %v", err)
			}
			if _, err := store.Consume(ctx, id, "000000", "recovery"); !errors.Is(err, ErrChallengeNotFound) {
				t.Fatalf("payload must be checked before the secret, got %v", err)
			}

			ch, err := store.Consume(ctx, id, secret, "mfa")
			if err != nil {
				t.Fatalf("Consume with matching payload failed: %v", err)
			}
			if ch.Subject != "erin" || ch.Payload != "mfa" {
				t.Fatalf("unexpected challenge %+v", ch)
			}
		})
	}
}

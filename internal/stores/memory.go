package stores

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/MrEthical07/authcore/internal"
)

const memoryShardCount = 32

// MemoryChallengeStore keeps challenges in process memory. Each shard has its
// own mutex; a Consume holds only the shard of its id.
type MemoryChallengeStore struct {
	now    func() time.Time
	digits int
	shards [memoryShardCount]memoryShard
}

type memoryShard struct {
	mu      sync.Mutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	challenge  Challenge
	secretHash [32]byte
}

// NewMemoryChallengeStore returns an empty store. A nil now uses time.Now; a
// zero digits uses six-digit secrets.
func NewMemoryChallengeStore(now func() time.Time, digits int) *MemoryChallengeStore {
	if now == nil {
		now = time.Now
	}
	s := &MemoryChallengeStore{
		now:    now,
		digits: normalizeDigits(digits),
	}
	for i := range s.shards {
		s.shards[i].records = make(map[string]memoryRecord)
	}
	return s
}

func (s *MemoryChallengeStore) shard(id string) *memoryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &s.shards[h.Sum32()%memoryShardCount]
}

func (s *MemoryChallengeStore) Create(
	ctx context.Context,
	subject string,
	ttl time.Duration,
	payload string,
) (string, string, error) {
	if ttl <= 0 {
		return "", "", errors.New("challenge ttl must be > 0")
	}
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	secret, err := internal.NewOTP(s.digits)
	if err != nil {
		return "", "", err
	}

	for attempt := 0; attempt < 3; attempt++ {
		id, err := internal.NewChallengeID()
		if err != nil {
			return "", "", err
		}

		now := s.now()
		record := memoryRecord{
			challenge: Challenge{
				ID:        id,
				Subject:   subject,
				Payload:   payload,
				CreatedAt: now,
				ExpiresAt: now.Add(ttl),
			},
			secretHash: internal.HashSecret(secret),
		}

		sh := s.shard(id)
		sh.mu.Lock()
		if _, exists := sh.records[id]; exists {
			sh.mu.Unlock()
			continue
		}
		sh.records[id] = record
		sh.mu.Unlock()
		return id, secret, nil
	}

	return "", "", errors.New("challenge id collision")
}

func (s *MemoryChallengeStore) Consume(ctx context.Context, id, secret, payload string) (Challenge, error) {
	if err := ctx.Err(); err != nil {
		return Challenge{}, err
	}

	sh := s.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	record, ok := sh.records[id]
	if !ok || record.challenge.Payload != payload {
		return Challenge{}, ErrChallengeNotFound
	}
	if record.challenge.Expired(s.now()) {
		delete(sh.records, id)
		return Challenge{}, ErrChallengeExpired
	}
	if !internal.SecretMatches(secret, record.secretHash) {
		return Challenge{}, ErrSecretMismatch
	}

	delete(sh.records, id)
	return record.challenge, nil
}

// Len reports the number of stored challenges, expired ones included.
func (s *MemoryChallengeStore) Len() int {
	n := 0
	for i := range s.shards {
		s.shards[i].mu.Lock()
		n += len(s.shards[i].records)
		s.shards[i].mu.Unlock()
	}
	return n
}

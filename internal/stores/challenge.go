package stores

import (
	"context"
	"errors"
	"time"
)

var (
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrChallengeExpired  = errors.New("challenge expired")
	ErrSecretMismatch    = errors.New("challenge secret mismatch")
	ErrChallengeBackend  = errors.New("challenge backend unavailable")
)

// Challenge is the public part of a stored one-time challenge.
type Challenge struct {
	ID        string
	Subject   string
	Payload   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether now is strictly after the expiry instant.
func (c Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// ChallengeStore creates and consumes one-time challenges.
type ChallengeStore interface {
	// Create stores a challenge for subject and returns its id and the
	// plaintext secret.
	Create(ctx context.Context, subject string, ttl time.Duration, payload string) (id string, secret string, err error)
	// Consume removes and returns the challenge when its payload equals
	// payload and secret matches. A challenge created with another payload
	// is reported as ErrChallengeNotFound and left in place.
	Consume(ctx context.Context, id, secret, payload string) (Challenge, error)
}

const defaultSecretDigits = 6

func normalizeDigits(digits int) int {
	if digits == 0 {
		return defaultSecretDigits
	}
	return digits
}

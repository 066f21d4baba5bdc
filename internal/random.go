package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// NewChallengeID returns a random (version 4) UUID string.
func NewChallengeID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewOTP returns a zero-padded decimal secret of the given width drawn from
// crypto/rand. Widths outside 6..10 are rejected.
func NewOTP(digits int) (string, error) {
	if digits < 6 || digits > 10 {
		return "", fmt.Errorf("otp width %d outside 6..10", digits)
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}

// HashSecret is the digest stored in place of a one-time secret.
func HashSecret(secret string) [32]byte {
	return sha256.Sum256([]byte(secret))
}

// SecretMatches compares a presented secret against a stored digest in
// constant time.
func SecretMatches(presented string, stored [32]byte) bool {
	h := HashSecret(presented)
	return subtle.ConstantTimeCompare(h[:], stored[:]) == 1
}

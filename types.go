package authcore

import (
	"context"
	"fmt"
	"strings"
	"time"

	internalaudit "github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/internal/stores"
)

// AccountStatus represents the lifecycle state of a user account.
type AccountStatus uint8

const (
	// AccountActive accounts can authenticate.
	AccountActive AccountStatus = iota
	// AccountLocked is set automatically after too many failed logins.
	AccountLocked
	// AccountDisabled is set by administrators.
	AccountDisabled
)

func (s AccountStatus) String() string {
	switch s {
	case AccountActive:
		return "ACTIVE"
	case AccountLocked:
		return "LOCKED"
	case AccountDisabled:
		return "DISABLED"
	default:
		return fmt.Sprintf("AccountStatus(%d)", uint8(s))
	}
}

// ParseAccountStatus parses the ACTIVE/LOCKED/DISABLED names, case-insensitively.
func ParseAccountStatus(value string) (AccountStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "ACTIVE":
		return AccountActive, nil
	case "LOCKED":
		return AccountLocked, nil
	case "DISABLED":
		return AccountDisabled, nil
	default:
		return 0, fmt.Errorf("%w: unknown account status %q", ErrInvalidRequest, value)
	}
}

// User is the persisted account record.
type User struct {
	ID                  string
	Username            string
	Email               string
	PasswordHash        string
	Status              AccountStatus
	FailedLoginAttempts int
	SecurityQuestion    string
	SecurityAnswerHash  string
	Roles               []string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// RecoveryConfigured reports whether both the question and the answer hash are set.
func (u User) RecoveryConfigured() bool {
	return u.SecurityQuestion != "" && u.SecurityAnswerHash != ""
}

// Role is a named authority that can be assigned to users.
type Role struct {
	Code string
	Name string
}

// UserStore persists users. Implementations return [ErrUserNotFound] when no
// user matches a lookup. Any other error is treated as an infrastructure
// failure.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, user User) error
	Delete(ctx context.Context, id string) error
}

// RoleStore resolves role codes. FindByCode returns [ErrRoleNotFound] for
// unknown codes.
type RoleStore interface {
	FindByCode(ctx context.Context, code string) (Role, error)
}

// Hasher hashes and verifies secrets. Implementations in the password
// package satisfy it.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext string, encoded string) (bool, error)
}

// TokenPair is returned by every operation that authenticates a user.
type TokenPair struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	TokenType    string   `json:"tokenType"`
	ExpiresIn    int64    `json:"expiresIn"`
	Roles        []string `json:"roles"`
}

// MFAChallenge is returned by [Engine.InitiateMFAChallenge]. Secret must be
// delivered out of band.
type MFAChallenge struct {
	ChallengeID       string `json:"challengeId"`
	DeliveryChannel   string `json:"deliveryChannel"`
	MaskedDestination string `json:"maskedDestination"`
	ExpiresIn         int64  `json:"expiresInSeconds"`
	Secret            string `json:"-"`
}

// RecoveryChallenge is returned by [Engine.InitiateRecovery].
type RecoveryChallenge struct {
	ChallengeID       string `json:"challengeId"`
	DeliveryChannel   string `json:"deliveryChannel"`
	MaskedDestination string `json:"maskedDestination"`
	Question          string `json:"securityQuestion"`
	ExpiresIn         int64  `json:"expiresInSeconds"`
	Secret            string `json:"-"`
}

// AdminUserUpdate describes an administrative change. Nil fields are left
// untouched; a nil RoleCodes keeps the current roles.
type AdminUserUpdate struct {
	Status    *AccountStatus
	Password  *string
	RoleCodes []string
}

// UserSummary is the admin view of a user. It never carries hashes.
type UserSummary struct {
	ID                  string   `json:"id"`
	Username            string   `json:"username"`
	Email               string   `json:"email"`
	Status              string   `json:"status"`
	FailedLoginAttempts int      `json:"failedLoginAttempts"`
	Roles               []string `json:"roles"`
}

// AccessClaims is the typed view of a validated access token.
type AccessClaims struct {
	Subject   string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

const deliveryChannelEmail = "EMAIL"

type (
	// ChallengeStore holds one-time challenges for MFA and recovery.
	ChallengeStore = stores.ChallengeStore
	// Challenge is a stored one-time challenge.
	Challenge = stores.Challenge
	// LoginLimiter throttles login attempts per client key.
	LoginLimiter = rate.Limiter

	AuditEvent     = internalaudit.Event
	AuditSink      = internalaudit.Sink
	NoOpSink       = internalaudit.NoOpSink
	ChannelSink    = internalaudit.ChannelSink
	JSONWriterSink = internalaudit.JSONWriterSink
)

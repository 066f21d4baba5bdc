package authcore

import (
	"errors"
	"time"
)

// Config is the full engine configuration. Start from [DefaultConfig] and
// override fields; [Builder.Build] calls [Config.Validate].
type Config struct {
	JWT       JWTConfig
	Lockout   LockoutConfig
	MFA       MFAConfig
	Recovery  RecoveryConfig
	Challenge ChallengeConfig
	RateLimit RateLimitConfig
	Password  PasswordConfig
	Account   AccountConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

// JWTConfig configures token signing. Secret has no default.
type JWTConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
}

// LockoutConfig configures automatic account locking.
type LockoutConfig struct {
	MaxFailedAttempts int
}

type MFAConfig struct {
	ChallengeTTL time.Duration
}

type RecoveryConfig struct {
	ChallengeTTL time.Duration
}

// ChallengeConfig applies to both MFA and recovery challenges.
type ChallengeConfig struct {
	SecretDigits int
	RedisPrefix  string
}

// RateLimitConfig configures the fixed-window login limiter.
type RateLimitConfig struct {
	Enabled     bool
	Window      time.Duration
	MaxRequests int
	RedisPrefix string
}

// PasswordConfig selects the hashing algorithm and the password policy.
type PasswordConfig struct {
	Algorithm   string
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	BcryptCost  int
	Policy      PasswordPolicy
}

// PasswordPolicy is enforced on registration and password reset.
type PasswordPolicy struct {
	MinLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSpecial bool
}

// AccountConfig configures registration.
type AccountConfig struct {
	DefaultRole string
}

// AuditConfig configures asynchronous audit dispatch.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig configures in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"

	minSecretBytes = 32
)

// DefaultConfig returns the default configuration. JWT.Secret must still be set.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  time.Hour,
			RefreshTTL: 14 * 24 * time.Hour,
		},
		Lockout: LockoutConfig{
			MaxFailedAttempts: 5,
		},
		MFA: MFAConfig{
			ChallengeTTL: 5 * time.Minute,
		},
		Recovery: RecoveryConfig{
			ChallengeTTL: 5 * time.Minute,
		},
		Challenge: ChallengeConfig{
			SecretDigits: 6,
			RedisPrefix:  "acch",
		},
		RateLimit: RateLimitConfig{
			Enabled:     true,
			Window:      time.Minute,
			MaxRequests: 30,
			RedisPrefix: "acrl",
		},
		Password: PasswordConfig{
			Algorithm:   AlgorithmArgon2id,
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			BcryptCost:  12,
			Policy: PasswordPolicy{
				MinLength:      12,
				RequireUpper:   true,
				RequireLower:   true,
				RequireDigit:   true,
				RequireSpecial: true,
			},
		},
		Account: AccountConfig{
			DefaultRole: "ROLE_USER",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks the configuration for missing or out-of-range values.
func (c *Config) Validate() error {
	// JWT
	if len(c.JWT.Secret) == 0 {
		return errors.New("JWT Secret is required")
	}
	if len(c.JWT.Secret) < minSecretBytes {
		return errors.New("JWT Secret must be at least 32 bytes")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}

	// Lockout
	if c.Lockout.MaxFailedAttempts <= 0 {
		return errors.New("Lockout MaxFailedAttempts must be > 0")
	}

	// Challenges
	if c.MFA.ChallengeTTL <= 0 {
		return errors.New("MFA ChallengeTTL must be > 0")
	}
	if c.Recovery.ChallengeTTL <= 0 {
		return errors.New("Recovery ChallengeTTL must be > 0")
	}
	if c.Challenge.SecretDigits < 6 || c.Challenge.SecretDigits > 10 {
		return errors.New("Challenge SecretDigits must be between 6 and 10")
	}
	if c.Challenge.RedisPrefix == "" {
		return errors.New("Challenge RedisPrefix must not be empty")
	}

	// Rate limit
	if c.RateLimit.Enabled {
		if c.RateLimit.Window <= 0 {
			return errors.New("RateLimit Window must be > 0")
		}
		if c.RateLimit.MaxRequests <= 0 {
			return errors.New("RateLimit MaxRequests must be > 0")
		}
		if c.RateLimit.RedisPrefix == "" {
			return errors.New("RateLimit RedisPrefix must not be empty")
		}
	}

	// Password
	switch c.Password.Algorithm {
	case AlgorithmArgon2id, AlgorithmBcrypt:
	default:
		return errors.New("unsupported Password Algorithm")
	}
	if c.Password.Policy.MinLength < 8 {
		return errors.New("Password Policy MinLength must be >= 8")
	}

	// Account
	if c.Account.DefaultRole == "" {
		return errors.New("Account DefaultRole must not be empty")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

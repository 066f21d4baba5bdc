package authcore

import "time"

// SecurityReport summarizes the security-relevant settings an engine was
// built with. It never includes the signing secret.
type SecurityReport struct {
	SigningAlgorithm     string
	AccessTTL            time.Duration
	RefreshTTL           time.Duration
	PasswordAlgorithm    string
	Argon2               PasswordConfigReport
	BcryptCost           int
	PasswordPolicy       PasswordPolicy
	MaxFailedAttempts    int
	MFAChallengeTTL      time.Duration
	RecoveryChallengeTTL time.Duration
	SecretDigits         int
	RateLimitingActive   bool
	RateLimitWindow      time.Duration
	RateLimitMaxRequests int
	AuditEnabled         bool
}

type PasswordConfigReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	r := SecurityReport{
		SigningAlgorithm:     "HS256",
		AccessTTL:            e.config.JWT.AccessTTL,
		RefreshTTL:           e.config.JWT.RefreshTTL,
		PasswordAlgorithm:    e.config.Password.Algorithm,
		PasswordPolicy:       e.config.Password.Policy,
		MaxFailedAttempts:    e.config.Lockout.MaxFailedAttempts,
		MFAChallengeTTL:      e.config.MFA.ChallengeTTL,
		RecoveryChallengeTTL: e.config.Recovery.ChallengeTTL,
		SecretDigits:         e.config.Challenge.SecretDigits,
		RateLimitingActive:   e.limiter != nil,
		AuditEnabled:         e.config.Audit.Enabled,
	}
	if r.RateLimitingActive && e.config.RateLimit.Enabled {
		r.RateLimitWindow = e.config.RateLimit.Window
		r.RateLimitMaxRequests = e.config.RateLimit.MaxRequests
	}

	switch e.config.Password.Algorithm {
	case AlgorithmBcrypt:
		r.BcryptCost = e.config.Password.BcryptCost
	default:
		r.Argon2 = PasswordConfigReport{
			Memory:      e.config.Password.Memory,
			Time:        e.config.Password.Time,
			Parallelism: e.config.Password.Parallelism,
			SaltLength:  e.config.Password.SaltLength,
			KeyLength:   e.config.Password.KeyLength,
		}
	}
	return r
}

package authcore

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the environment variable prefix read by [LoadConfig].
const EnvPrefix = "AUTHCORE"

// NewConfigViper returns a viper instance bound to AUTHCORE_* environment
// variables and, when present, a .env file in the working directory.
func NewConfigViper() *viper.Viper {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig overlays values from v onto [DefaultConfig] and validates the
// result. Durations accept Go syntax ("90s", "1h") or a bare number of
// seconds.
//
// Recognized keys (with the AUTHCORE_ prefix when read from the environment):
// JWT_SECRET, JWT_ACCESS_TTL, JWT_REFRESH_TTL, JWT_ISSUER,
// LOCKOUT_MAX_FAILED_ATTEMPTS, MFA_CHALLENGE_TTL, RECOVERY_CHALLENGE_TTL,
// CHALLENGE_SECRET_DIGITS, RATE_LIMIT_ENABLED, RATE_LIMIT_WINDOW,
// RATE_LIMIT_MAX_REQUESTS, PASSWORD_ALGORITHM, PASSWORD_BCRYPT_COST,
// ACCOUNT_DEFAULT_ROLE, AUDIT_ENABLED, METRICS_ENABLED.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()
	if v == nil {
		return cfg, errors.New("config: nil viper instance")
	}

	if s := v.GetString("JWT_SECRET"); s != "" {
		cfg.JWT.Secret = []byte(s)
	}
	if s := v.GetString("JWT_ISSUER"); s != "" {
		cfg.JWT.Issuer = s
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"JWT_ACCESS_TTL", &cfg.JWT.AccessTTL},
		{"JWT_REFRESH_TTL", &cfg.JWT.RefreshTTL},
		{"MFA_CHALLENGE_TTL", &cfg.MFA.ChallengeTTL},
		{"RECOVERY_CHALLENGE_TTL", &cfg.Recovery.ChallengeTTL},
		{"RATE_LIMIT_WINDOW", &cfg.RateLimit.Window},
	}
	for _, d := range durations {
		raw := strings.TrimSpace(v.GetString(d.key))
		if raw == "" {
			continue
		}
		parsed, err := parseDurationSetting(raw)
		if err != nil {
			return cfg, fmt.Errorf("config: %s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"LOCKOUT_MAX_FAILED_ATTEMPTS", &cfg.Lockout.MaxFailedAttempts},
		{"CHALLENGE_SECRET_DIGITS", &cfg.Challenge.SecretDigits},
		{"RATE_LIMIT_MAX_REQUESTS", &cfg.RateLimit.MaxRequests},
		{"PASSWORD_BCRYPT_COST", &cfg.Password.BcryptCost},
	}
	for _, i := range ints {
		if v.IsSet(i.key) {
			*i.dst = v.GetInt(i.key)
		}
	}

	if v.IsSet("RATE_LIMIT_ENABLED") {
		cfg.RateLimit.Enabled = v.GetBool("RATE_LIMIT_ENABLED")
	}
	if v.IsSet("AUDIT_ENABLED") {
		cfg.Audit.Enabled = v.GetBool("AUDIT_ENABLED")
	}
	if v.IsSet("METRICS_ENABLED") {
		cfg.Metrics.Enabled = v.GetBool("METRICS_ENABLED")
	}
	if s := v.GetString("PASSWORD_ALGORITHM"); s != "" {
		cfg.Password.Algorithm = strings.ToLower(s)
	}
	if s := v.GetString("ACCOUNT_DEFAULT_ROLE"); s != "" {
		cfg.Account.DefaultRole = s
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func parseDurationSetting(raw string) (time.Duration, error) {
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(raw)
}

package authcore

import (
	"errors"
	"time"

	internalaudit "github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/internal/stores"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/password"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder assembles an [Engine].
//
// Builder instances are intended to be configured during initialization and
// used once; Build fails on a second call.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	users      UserStore
	roles      RoleStore
	hasher     Hasher
	challenges ChallengeStore
	limiter    LoginLimiter
	now        func() time.Time
	logger     *zap.Logger
	auditSink  AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis makes the default challenge store and login limiter Redis-backed,
// so several engine instances can share them.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserStore sets the required user persistence.
func (b *Builder) WithUserStore(users UserStore) *Builder {
	b.users = users
	return b
}

// WithRoleStore sets the required role lookup.
func (b *Builder) WithRoleStore(roles RoleStore) *Builder {
	b.roles = roles
	return b
}

// WithHasher overrides the hasher selected by Config.Password.Algorithm.
func (b *Builder) WithHasher(h Hasher) *Builder {
	b.hasher = h
	return b
}

// WithChallengeStore overrides the default challenge store.
func (b *Builder) WithChallengeStore(s ChallengeStore) *Builder {
	b.challenges = s
	return b
}

// WithLoginLimiter overrides the default login limiter.
func (b *Builder) WithLoginLimiter(l LoginLimiter) *Builder {
	b.limiter = l
	return b
}

// WithClock injects the time source used for tokens, challenges and rate
// windows.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithLogger sets the structured logger. Secrets are never logged.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the sink for audit events. Audit must also be enabled
// in the configuration.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.users == nil {
		return nil, errors.New("user store required")
	}
	if b.roles == nil {
		return nil, errors.New("role store required")
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// -------- HASHER --------
	hasher := b.hasher
	if hasher == nil {
		var err error
		hasher, err = newConfiguredHasher(cfg.Password)
		if err != nil {
			return nil, err
		}
	}

	// -------- TOKENS --------
	tokens, err := jwt.NewManager(jwt.Config{
		Secret:     cfg.JWT.Secret,
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
		Issuer:     cfg.JWT.Issuer,
		Now:        now,
	})
	if err != nil {
		return nil, err
	}

	// -------- CHALLENGES --------
	challenges := b.challenges
	if challenges == nil {
		if b.redis != nil {
			challenges = stores.NewRedisChallengeStore(b.redis, cfg.Challenge.RedisPrefix, now, cfg.Challenge.SecretDigits)
		} else {
			challenges = stores.NewMemoryChallengeStore(now, cfg.Challenge.SecretDigits)
		}
	}

	// -------- RATE LIMIT --------
	limiter := b.limiter
	if limiter == nil && cfg.RateLimit.Enabled {
		rc := rate.Config{
			Window:      cfg.RateLimit.Window,
			MaxRequests: cfg.RateLimit.MaxRequests,
		}
		if b.redis != nil {
			limiter = rate.NewRedis(b.redis, cfg.RateLimit.RedisPrefix, rc)
		} else {
			limiter = rate.NewMemory(rc, now)
		}
	}

	b.built = true

	return &Engine{
		config:     cfg,
		users:      b.users,
		roles:      b.roles,
		hasher:     hasher,
		tokens:     tokens,
		challenges: challenges,
		limiter:    limiter,
		now:        now,
		logger:     logger.Named("authcore"),
		metrics:    NewMetrics(cfg.Metrics),
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
			Logger:     logger.Named("audit"),
		}, b.auditSink),
	}, nil
}

func newConfiguredHasher(cfg PasswordConfig) (Hasher, error) {
	switch cfg.Algorithm {
	case AlgorithmBcrypt:
		return password.NewBcrypt(cfg.BcryptCost)
	default:
		return password.NewArgon2(password.Config{
			Memory:      cfg.Memory,
			Time:        cfg.Time,
			Parallelism: cfg.Parallelism,
			SaltLength:  cfg.SaltLength,
			KeyLength:   cfg.KeyLength,
		})
	}
}

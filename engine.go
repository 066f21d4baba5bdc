package authcore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/MrEthical07/authcore/internal"
	internalaudit "github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/password"
	"go.uber.org/zap"
)

// Engine implements registration, login with lockout, token refresh, MFA,
// account recovery and admin user management. Build one with [New].
//
// All methods are safe for concurrent use. Mutations of a single account are
// serialized per username; operations on different accounts never share a
// lock.
type Engine struct {
	config     Config
	users      UserStore
	roles      RoleStore
	hasher     Hasher
	tokens     *jwt.Manager
	challenges ChallengeStore
	limiter    LoginLimiter
	locks      internal.KeyedMutex
	now        func() time.Time
	logger     *zap.Logger
	metrics    *Metrics
	audit      *internalaudit.Dispatcher
}

// Close flushes pending audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// MetricsSnapshot returns the current counter values.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) lockUser(username string) func() {
	return e.locks.Lock("user:" + username)
}

func (e *Engine) lockEmail(email string) func() {
	return e.locks.Lock("email:" + email)
}

// findUser loads by username and maps a missing user to notFound.
func (e *Engine) findUser(ctx context.Context, username string, notFound error) (User, error) {
	user, err := e.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, notFound
		}
		return User{}, backendErr(err)
	}
	return user, nil
}

func (e *Engine) findUserByID(ctx context.Context, id string) (User, error) {
	user, err := e.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, backendErr(err)
	}
	return user, nil
}

func (e *Engine) saveUser(ctx context.Context, user User) error {
	user.UpdatedAt = e.now()
	if err := e.users.Save(ctx, user); err != nil {
		return backendErr(err)
	}
	return nil
}

func (e *Engine) hash(secret string) (string, error) {
	h, err := e.hasher.Hash(secret)
	if err != nil {
		if isInputLengthErr(err) {
			return "", fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		return "", backendErr(err)
	}
	return h, nil
}

// verify treats input the hasher refuses as a mismatch.
func (e *Engine) verify(secret, encoded string) (bool, error) {
	ok, err := e.hasher.Verify(secret, encoded)
	if err != nil {
		if isInputLengthErr(err) {
			return false, nil
		}
		return false, backendErr(err)
	}
	return ok, nil
}

func isInputLengthErr(err error) bool {
	return errors.Is(err, password.ErrEmptyPassword) || errors.Is(err, password.ErrPasswordTooLong)
}

func (e *Engine) issuePair(user User) (TokenPair, error) {
	roles := append([]string(nil), user.Roles...)
	sort.Strings(roles)

	access, err := e.tokens.IssueAccess(user.Username, roles)
	if err != nil {
		return TokenPair{}, backendErr(err)
	}
	refresh, err := e.tokens.IssueRefresh(user.Username)
	if err != nil {
		return TokenPair{}, backendErr(err)
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(e.tokens.AccessTTL() / time.Second),
		Roles:        roles,
	}, nil
}

// logFailure logs err with request context. Callers never pass secrets.
func (e *Engine) logFailure(ctx context.Context, op, username string, err error) {
	fields := []zap.Field{
		zap.String("op", op),
		zapUsername(username),
		zapClientIP(ctx),
		zap.String("kind", string(KindOf(err))),
		zap.Error(err),
	}
	if KindOf(err) == KindInfrastructure {
		e.metrics.Inc(MetricBackendFailure)
		e.logger.Error("auth operation failed", fields...)
		return
	}
	e.logger.Warn("auth operation rejected", fields...)
}

func (e *Engine) ready() error {
	if e == nil || e.users == nil || e.tokens == nil {
		return ErrEngineNotReady
	}
	return nil
}

func zapUsername(username string) zap.Field {
	return zap.String("username", username)
}

func zapClientIP(ctx context.Context) zap.Field {
	return zap.String("client_ip", clientIPFromContext(ctx))
}

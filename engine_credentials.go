package authcore

import (
	"context"

	"github.com/MrEthical07/authcore/internal/flows"
	"go.uber.org/zap"
)

// authenticate checks username and password, counting failures and locking
// the account when the configured threshold is reached.
//
// The password is verified before the per-user lock is taken. Under the lock
// the user is re-read so concurrent attempts never lose a counter update; the
// hash is verified again only if it changed in between.
func (e *Engine) authenticate(ctx context.Context, username, password string) (User, error) {
	user, err := e.findUser(ctx, username, ErrUnknownAccount)
	if err != nil {
		return User{}, err
	}
	if user.Status != AccountActive {
		return User{}, ErrAccountInactive
	}

	matched, err := e.verify(password, user.PasswordHash)
	if err != nil {
		return User{}, err
	}

	unlock := e.lockUser(username)
	defer unlock()

	current, err := e.findUser(ctx, username, ErrUnknownAccount)
	if err != nil {
		return User{}, err
	}
	if current.Status != AccountActive {
		return User{}, ErrAccountInactive
	}
	if current.PasswordHash != user.PasswordHash {
		if matched, err = e.verify(password, current.PasswordHash); err != nil {
			return User{}, err
		}
	}

	state, outcome := flows.ApplyAttempt(flows.AttemptState{
		FailedAttempts: current.FailedLoginAttempts,
	}, matched, e.config.Lockout.MaxFailedAttempts)

	current.FailedLoginAttempts = state.FailedAttempts
	if state.Locked {
		current.Status = AccountLocked
	}
	if outcome == flows.AttemptAccepted {
		e.upgradeHash(&current, password)
	}
	if err := e.saveUser(ctx, current); err != nil {
		return User{}, err
	}

	switch outcome {
	case flows.AttemptLocked:
		e.metrics.Inc(MetricAccountLocked)
		e.emitAudit(ctx, AuditAccountLocked, current, false, errLockedOnFailure, nil)
		e.logger.Warn("account locked",
			zapUsername(username),
			zapClientIP(ctx),
		)
		return User{}, errLockedOnFailure
	case flows.AttemptRejected:
		return User{}, ErrInvalidCredentials
	}
	return current, nil
}

// upgrader is implemented by hashers that can tell when a stored hash was
// made with weaker parameters than they currently use.
type upgrader interface {
	NeedsUpgrade(encoded string) (bool, error)
}

// upgradeHash replaces user's hash in place when the hasher asks for it.
// Failures are logged and leave the old hash in place.
func (e *Engine) upgradeHash(user *User, password string) {
	up, ok := e.hasher.(upgrader)
	if !ok {
		return
	}
	stale, err := up.NeedsUpgrade(user.PasswordHash)
	if err != nil || !stale {
		return
	}
	h, err := e.hasher.Hash(password)
	if err != nil {
		e.logger.Warn("password rehash failed", zapUsername(user.Username), zap.Error(err))
		return
	}
	user.PasswordHash = h
	e.logger.Debug("password hash upgraded", zapUsername(user.Username))
}

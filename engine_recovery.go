package authcore

import (
	"context"
	"strings"
	"time"
)

// Challenges of both flows share one store and carry the username as their
// subject. The kind is checked by the store, so a challenge presented to the
// wrong flow is left untouched.
const challengeKindRecovery = "recovery"

// SetupRecovery stores a security question and the hash of its answer.
// Both must be non-blank. An existing question is replaced.
func (e *Engine) SetupRecovery(ctx context.Context, username, question, answer string) error {
	if err := e.ready(); err != nil {
		return err
	}

	user, err := e.setupRecovery(ctx, username, question, answer)
	if err != nil {
		e.logFailure(ctx, "recovery_setup", username, err)
		return err
	}

	e.metrics.Inc(MetricRecoverySetup)
	e.emitAudit(ctx, AuditRecoverySetup, user, true, nil, nil)
	return nil
}

func (e *Engine) setupRecovery(ctx context.Context, username, question, answer string) (User, error) {
	question = strings.TrimSpace(question)
	if question == "" || strings.TrimSpace(answer) == "" {
		return User{}, errorf(ErrInvalidRequest, "security question and answer are required")
	}

	answerHash, err := e.hash(answer)
	if err != nil {
		return User{}, err
	}

	unlock := e.lockUser(username)
	defer unlock()

	user, err := e.findUser(ctx, username, ErrUserNotFound)
	if err != nil {
		return User{}, err
	}
	user.SecurityQuestion = question
	user.SecurityAnswerHash = answerHash
	if err := e.saveUser(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// InitiateRecovery checks the security answer and creates a recovery
// challenge. The returned Secret must be delivered out of band.
func (e *Engine) InitiateRecovery(ctx context.Context, username, answer string) (RecoveryChallenge, error) {
	if err := e.ready(); err != nil {
		return RecoveryChallenge{}, err
	}

	user, err := e.findUser(ctx, username, ErrUserNotFound)
	if err == nil && !user.RecoveryConfigured() {
		err = ErrRecoveryNotConfigured
	}
	if err == nil {
		var ok bool
		if ok, err = e.verify(answer, user.SecurityAnswerHash); err == nil && !ok {
			err = ErrAnswerIncorrect
			e.metrics.Inc(MetricRecoveryAnswerIncorrect)
			e.emitAudit(ctx, AuditRecoveryAnswerIncorrect, user, false, err, nil)
		}
	}
	if err != nil {
		e.logFailure(ctx, "recovery_initiate", username, err)
		return RecoveryChallenge{}, err
	}

	ttl := e.config.Recovery.ChallengeTTL
	id, secret, err := e.challenges.Create(ctx, user.Username, ttl, challengeKindRecovery)
	if err != nil {
		err = backendErr(err)
		e.logFailure(ctx, "recovery_initiate", username, err)
		return RecoveryChallenge{}, err
	}

	e.metrics.Inc(MetricRecoveryChallengeCreated)
	e.emitAudit(ctx, AuditRecoveryChallengeCreated, user, true, nil, map[string]string{"challenge_id": id})

	return RecoveryChallenge{
		ChallengeID:       id,
		DeliveryChannel:   deliveryChannelEmail,
		MaskedDestination: maskEmail(user.Email),
		Question:          user.SecurityQuestion,
		ExpiresIn:         int64(ttl / time.Second),
		Secret:            secret,
	}, nil
}

// ResetPassword consumes a recovery challenge and sets a new password. The
// failed-attempt counter is cleared; the account status is not changed.
//
// The new password is checked and hashed before the challenge is consumed,
// so a rejected password does not burn the challenge.
func (e *Engine) ResetPassword(ctx context.Context, challengeID, secret, newPassword string) error {
	if err := e.ready(); err != nil {
		return err
	}

	user, err := e.resetPassword(ctx, challengeID, secret, newPassword)
	if err != nil {
		e.metrics.Inc(MetricPasswordResetFailure)
		e.logFailure(ctx, "password_reset", user.Username, err)
		return err
	}

	e.metrics.Inc(MetricPasswordResetSuccess)
	e.emitAudit(ctx, AuditPasswordReset, user, true, nil, nil)
	e.logger.Info("password reset", zapUsername(user.Username))
	return nil
}

func (e *Engine) resetPassword(ctx context.Context, challengeID, secret, newPassword string) (User, error) {
	if err := e.config.Password.Policy.Check(newPassword); err != nil {
		return User{}, err
	}

	hash, err := e.hash(newPassword)
	if err != nil {
		return User{}, err
	}

	ch, err := e.challenges.Consume(ctx, challengeID, secret, challengeKindRecovery)
	if err != nil {
		return User{}, challengeErr(ErrRecoveryInvalid, err)
	}

	unlock := e.lockUser(ch.Subject)
	defer unlock()

	user, err := e.findUser(ctx, ch.Subject, ErrUserNotFound)
	if err != nil {
		return User{Username: ch.Subject}, err
	}
	user.PasswordHash = hash
	user.FailedLoginAttempts = 0
	if err := e.saveUser(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

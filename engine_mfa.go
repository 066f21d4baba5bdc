package authcore

import (
	"context"
	"fmt"
	"time"
)

const challengeKindMFA = "mfa"

// InitiateMFAChallenge authenticates the user and creates a one-time
// challenge bound to the username. The returned Secret must be delivered to
// the user's email out of band; failed password checks count toward lockout.
func (e *Engine) InitiateMFAChallenge(ctx context.Context, username, password string) (MFAChallenge, error) {
	if err := e.ready(); err != nil {
		return MFAChallenge{}, err
	}

	user, err := e.authenticate(ctx, username, password)
	if err != nil {
		e.logFailure(ctx, "mfa_initiate", username, err)
		return MFAChallenge{}, err
	}

	ttl := e.config.MFA.ChallengeTTL
	id, secret, err := e.challenges.Create(ctx, user.Username, ttl, challengeKindMFA)
	if err != nil {
		err = backendErr(err)
		e.logFailure(ctx, "mfa_initiate", username, err)
		return MFAChallenge{}, err
	}

	e.metrics.Inc(MetricMFAChallengeCreated)
	e.emitAudit(ctx, AuditMFAChallengeCreated, user, true, nil, map[string]string{"challenge_id": id})

	return MFAChallenge{
		ChallengeID:       id,
		DeliveryChannel:   deliveryChannelEmail,
		MaskedDestination: maskEmail(user.Email),
		ExpiresIn:         int64(ttl / time.Second),
		Secret:            secret,
	}, nil
}

// VerifyMFAChallenge consumes the challenge and returns a token pair for its
// subject. Challenge failures wrap [ErrMFAInvalid] together with the
// underlying [ErrChallengeNotFound], [ErrChallengeExpired] or
// [ErrSecretMismatch]. A mismatched secret leaves the challenge in place.
func (e *Engine) VerifyMFAChallenge(ctx context.Context, challengeID, secret string) (TokenPair, error) {
	if err := e.ready(); err != nil {
		return TokenPair{}, err
	}

	user, err := e.verifyMFA(ctx, challengeID, secret)
	if err != nil {
		e.metrics.Inc(MetricMFAVerifyFailure)
		e.emitAudit(ctx, AuditMFAVerifyFailure, user, false, err, map[string]string{"challenge_id": challengeID})
		e.logFailure(ctx, "mfa_verify", user.Username, err)
		return TokenPair{}, err
	}

	pair, err := e.issuePair(user)
	if err != nil {
		e.logFailure(ctx, "mfa_verify", user.Username, err)
		return TokenPair{}, err
	}

	e.metrics.Inc(MetricMFAVerifySuccess)
	e.emitAudit(ctx, AuditMFAVerifySuccess, user, true, nil, nil)
	return pair, nil
}

func (e *Engine) verifyMFA(ctx context.Context, challengeID, secret string) (User, error) {
	ch, err := e.challenges.Consume(ctx, challengeID, secret, challengeKindMFA)
	if err != nil {
		return User{}, challengeErr(ErrMFAInvalid, err)
	}

	user, err := e.findUser(ctx, ch.Subject, ErrUnknownAccount)
	if err != nil {
		return User{Username: ch.Subject}, err
	}
	if user.Status != AccountActive {
		return user, ErrAccountInactive
	}
	return user, nil
}

// challengeErr wraps store kinds in flow; anything else is infrastructure.
func challengeErr(flow, err error) error {
	switch KindOf(err) {
	case KindChallengeNotFound, KindChallengeExpired, KindSecretMismatch:
		return fmt.Errorf("%w: %w", flow, err)
	default:
		return backendErr(err)
	}
}

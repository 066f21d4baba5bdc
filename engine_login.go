package authcore

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Login authenticates username and password and returns a token pair.
//
// The client key from [WithClientIP] is rate limited before any credential
// check. A rejected request returns [ErrTooManyRequests] and does not count
// as a failed attempt for the account.
func (e *Engine) Login(ctx context.Context, username, password string) (TokenPair, error) {
	if err := e.ready(); err != nil {
		return TokenPair{}, err
	}

	if e.limiter != nil {
		if err := e.limiter.Allow(ctx, rateLimitKey(ctx)); err != nil {
			if errors.Is(err, ErrTooManyRequests) {
				e.metrics.Inc(MetricLoginRateLimited)
				e.emitAudit(ctx, AuditRateLimited, User{Username: username}, false, err, nil)
			} else {
				err = backendErr(err)
			}
			e.logFailure(ctx, "login", username, err)
			return TokenPair{}, err
		}
	}

	if strings.TrimSpace(username) == "" || password == "" {
		err := errorf(ErrInvalidRequest, "username and password are required")
		e.logFailure(ctx, "login", username, err)
		return TokenPair{}, err
	}

	start := time.Now()
	user, err := e.authenticate(ctx, username, password)
	e.metrics.Observe(MetricLoginLatency, time.Since(start))
	if err != nil {
		e.metrics.Inc(MetricLoginFailure)
		e.emitAudit(ctx, AuditLoginFailure, User{Username: username}, false, err, nil)
		e.logFailure(ctx, "login", username, err)
		return TokenPair{}, err
	}

	pair, err := e.issuePair(user)
	if err != nil {
		e.logFailure(ctx, "login", username, err)
		return TokenPair{}, err
	}

	e.metrics.Inc(MetricLoginSuccess)
	e.emitAudit(ctx, AuditLoginSuccess, user, true, nil, nil)
	return pair, nil
}

// Refresh exchanges a refresh token for a new token pair. The subject must
// still exist and be active. Access tokens are rejected with
// [ErrInvalidTokenType].
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if err := e.ready(); err != nil {
		return TokenPair{}, err
	}

	pair, user, err := e.refresh(ctx, refreshToken)
	if err != nil {
		e.metrics.Inc(MetricRefreshFailure)
		e.logFailure(ctx, "refresh", user.Username, err)
		return TokenPair{}, err
	}

	e.metrics.Inc(MetricRefreshSuccess)
	e.emitAudit(ctx, AuditRefresh, user, true, nil, nil)
	return pair, nil
}

func (e *Engine) refresh(ctx context.Context, refreshToken string) (TokenPair, User, error) {
	username, err := e.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, User{}, err
	}

	user, err := e.findUser(ctx, username, ErrInvalidToken)
	if err != nil {
		return TokenPair{}, User{Username: username}, err
	}
	if user.Status != AccountActive {
		return TokenPair{}, user, ErrAccountInactive
	}

	pair, err := e.issuePair(user)
	if err != nil {
		return TokenPair{}, user, err
	}
	return pair, user, nil
}

// ValidateAccess verifies an access token and returns its claims. It does
// not touch the user store. Refresh tokens are rejected with
// [ErrInvalidTokenType].
func (e *Engine) ValidateAccess(accessToken string) (AccessClaims, error) {
	if e == nil || e.tokens == nil {
		return AccessClaims{}, ErrEngineNotReady
	}

	claims, err := e.tokens.ParseAccess(accessToken)
	if err != nil {
		return AccessClaims{}, err
	}

	out := AccessClaims{
		Subject: claims.Subject,
		Roles:   append([]string(nil), claims.Roles...),
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

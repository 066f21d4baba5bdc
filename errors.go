package authcore

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/internal/stores"
	"github.com/MrEthical07/authcore/jwt"
)

var (
	// ErrUnknownAccount is returned on authentication paths when the username
	// does not exist. Its message is identical to [ErrInvalidCredentials].
	ErrUnknownAccount = errors.New("invalid username or password")
	// ErrUserNotFound is returned by admin operations and by UserStore
	// implementations when no user matches.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when the password does not match.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrAccountInactive is returned for LOCKED or DISABLED accounts.
	ErrAccountInactive = errors.New("account is not active")

	// ErrInvalidToken is returned for bad signatures, expired or malformed tokens.
	ErrInvalidToken = jwt.ErrInvalidToken
	// ErrInvalidTokenType is returned when a token of the wrong typ is presented.
	ErrInvalidTokenType = jwt.ErrInvalidTokenType

	// ErrChallengeNotFound is returned when a challenge is absent or already consumed.
	ErrChallengeNotFound = stores.ErrChallengeNotFound
	// ErrChallengeExpired is returned when a challenge is consumed after its expiry.
	ErrChallengeExpired = stores.ErrChallengeExpired
	// ErrSecretMismatch is returned when the presented one-time secret is wrong.
	ErrSecretMismatch = stores.ErrSecretMismatch
	// ErrMFAInvalid wraps challenge failures during MFA verification.
	ErrMFAInvalid = errors.New("mfa challenge invalid")
	// ErrRecoveryInvalid wraps challenge failures during password reset.
	ErrRecoveryInvalid = errors.New("recovery challenge invalid")
	// ErrRecoveryNotConfigured is returned when no security question is set.
	ErrRecoveryNotConfigured = errors.New("account recovery not configured")
	// ErrAnswerIncorrect is returned when the security answer does not match.
	ErrAnswerIncorrect = errors.New("security answer incorrect")

	// ErrTooManyRequests is returned when the login rate limit is exceeded.
	ErrTooManyRequests = rate.ErrRateLimited

	ErrInvalidRequest = errors.New("invalid request")
	ErrPasswordPolicy = errors.New("password policy violation")
	ErrUsernameTaken  = errors.New("username already exists")
	ErrEmailTaken     = errors.New("email already exists")
	ErrRoleNotFound   = errors.New("role not found")

	// ErrBackendUnavailable wraps persistence, hashing, signing and Redis failures.
	ErrBackendUnavailable = errors.New("auth backend unavailable")
	// ErrEngineNotReady is returned when an operation is called on a nil or closed engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// errLockedOnFailure is returned by the attempt that locks the account.
var errLockedOnFailure = fmt.Errorf("%w: %w", ErrAccountInactive, ErrInvalidCredentials)

// ErrorKind classifies errors returned by [Engine] operations.
type ErrorKind string

const (
	KindNone                  ErrorKind = ""
	KindNotFound              ErrorKind = "NOT_FOUND"
	KindInvalidCredentials    ErrorKind = "INVALID_CREDENTIALS"
	KindAccountInactive       ErrorKind = "ACCOUNT_INACTIVE"
	KindInvalidTokenType      ErrorKind = "INVALID_TOKEN_TYPE"
	KindInvalidToken          ErrorKind = "INVALID_TOKEN"
	KindChallengeNotFound     ErrorKind = "CHALLENGE_NOT_FOUND"
	KindChallengeExpired      ErrorKind = "CHALLENGE_EXPIRED"
	KindSecretMismatch        ErrorKind = "SECRET_MISMATCH"
	KindRecoveryNotConfigured ErrorKind = "RECOVERY_NOT_CONFIGURED"
	KindAnswerIncorrect       ErrorKind = "ANSWER_INCORRECT"
	KindTooManyRequests       ErrorKind = "TOO_MANY_REQUESTS"
	KindInvalidRequest        ErrorKind = "INVALID_REQUEST"
	KindInfrastructure        ErrorKind = "INFRASTRUCTURE"
)

// kindOrder is checked first to last; wrapped errors resolve to the first match.
var kindOrder = []struct {
	target error
	kind   ErrorKind
}{
	{ErrBackendUnavailable, KindInfrastructure},
	{ErrEngineNotReady, KindInfrastructure},
	{ErrTooManyRequests, KindTooManyRequests},
	{ErrAccountInactive, KindAccountInactive},
	{ErrInvalidCredentials, KindInvalidCredentials},
	{ErrUnknownAccount, KindNotFound},
	{ErrUserNotFound, KindNotFound},
	{ErrInvalidTokenType, KindInvalidTokenType},
	{ErrInvalidToken, KindInvalidToken},
	{ErrChallengeNotFound, KindChallengeNotFound},
	{ErrChallengeExpired, KindChallengeExpired},
	{ErrSecretMismatch, KindSecretMismatch},
	{ErrRecoveryNotConfigured, KindRecoveryNotConfigured},
	{ErrAnswerIncorrect, KindAnswerIncorrect},
	{ErrInvalidRequest, KindInvalidRequest},
	{ErrPasswordPolicy, KindInvalidRequest},
	{ErrUsernameTaken, KindInvalidRequest},
	{ErrEmailTaken, KindInvalidRequest},
	{ErrRoleNotFound, KindInvalidRequest},
}

// KindOf reports the [ErrorKind] of err. Unrecognized non-nil errors are
// treated as infrastructure failures.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	for _, k := range kindOrder {
		if errors.Is(err, k.target) {
			return k.kind
		}
	}
	return KindInfrastructure
}

func backendErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrBackendUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
}

func errorf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

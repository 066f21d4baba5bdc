package authcore

import (
	"context"
	"io"

	internalaudit "github.com/MrEthical07/authcore/internal/audit"
)

const (
	AuditRegister                 = "register"
	AuditLoginSuccess             = "login_success"
	AuditLoginFailure             = "login_failure"
	AuditAccountLocked            = "account_locked"
	AuditRateLimited              = "rate_limited"
	AuditRefresh                  = "refresh"
	AuditMFAChallengeCreated      = "mfa_challenge_created"
	AuditMFAVerifySuccess         = "mfa_verify_success"
	AuditMFAVerifyFailure         = "mfa_verify_failure"
	AuditRecoverySetup            = "recovery_setup"
	AuditRecoveryChallengeCreated = "recovery_challenge_created"
	AuditRecoveryAnswerIncorrect  = "recovery_answer_incorrect"
	AuditPasswordReset            = "password_reset"
	AuditAdminUserUpdated         = "admin_user_updated"
	AuditAdminUserDeleted         = "admin_user_deleted"
)

// NewChannelSink returns a sink that buffers events on a channel.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink that writes one JSON object per line.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// RedactFields masks values whose keys name a secret (password, otp, answer,
// secret, token). Use it before logging request fields.
func RedactFields(fields map[string]string) map[string]string {
	return internalaudit.RedactMetadata(fields)
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	user User,
	success bool,
	err error,
	metadata map[string]string,
) {
	if e.audit == nil {
		return
	}

	ev := AuditEvent{
		Timestamp: e.now(),
		EventType: eventType,
		Username:  user.Username,
		UserID:    user.ID,
		ClientIP:  clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if err != nil {
		ev.Error = string(KindOf(err))
	}
	e.audit.Emit(ctx, ev)
}

// AuditDropped reports how many audit events were dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

package internaldefs

import (
	"github.com/MrEthical07/authcore"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for export.
type HistogramDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in output order.
var CounterDefs = []CounterDef{
	{ID: authcore.MetricRegisterSuccess, Name: "authcore_register_success_total", Help: "Successful registrations."},
	{ID: authcore.MetricRegisterRejected, Name: "authcore_register_rejected_total", Help: "Rejected registrations."},
	{ID: authcore.MetricLoginSuccess, Name: "authcore_login_success_total", Help: "Successful login attempts."},
	{ID: authcore.MetricLoginFailure, Name: "authcore_login_failure_total", Help: "Failed login attempts."},
	{ID: authcore.MetricLoginRateLimited, Name: "authcore_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: authcore.MetricAccountLocked, Name: "authcore_account_locked_total", Help: "Accounts locked after repeated failures."},
	{ID: authcore.MetricRefreshSuccess, Name: "authcore_refresh_success_total", Help: "Successful refresh operations."},
	{ID: authcore.MetricRefreshFailure, Name: "authcore_refresh_failure_total", Help: "Failed refresh operations."},
	{ID: authcore.MetricMFAChallengeCreated, Name: "authcore_mfa_challenge_created_total", Help: "Created MFA challenges."},
	{ID: authcore.MetricMFAVerifySuccess, Name: "authcore_mfa_verify_success_total", Help: "Successful MFA verifications."},
	{ID: authcore.MetricMFAVerifyFailure, Name: "authcore_mfa_verify_failure_total", Help: "Failed MFA verifications."},
	{ID: authcore.MetricRecoverySetup, Name: "authcore_recovery_setup_total", Help: "Security question setups."},
	{ID: authcore.MetricRecoveryChallengeCreated, Name: "authcore_recovery_challenge_created_total", Help: "Created recovery challenges."},
	{ID: authcore.MetricRecoveryAnswerIncorrect, Name: "authcore_recovery_answer_incorrect_total", Help: "Recovery attempts with a wrong security answer."},
	{ID: authcore.MetricPasswordResetSuccess, Name: "authcore_password_reset_success_total", Help: "Successful password resets."},
	{ID: authcore.MetricPasswordResetFailure, Name: "authcore_password_reset_failure_total", Help: "Failed password resets."},
	{ID: authcore.MetricAdminUserUpdated, Name: "authcore_admin_user_updated_total", Help: "Administrative user updates."},
	{ID: authcore.MetricAdminUserDeleted, Name: "authcore_admin_user_deleted_total", Help: "Administrative user deletions."},
	{ID: authcore.MetricBackendFailure, Name: "authcore_backend_failure_total", Help: "Operations failed by a store, hasher or signer error."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: authcore.MetricLoginLatency, Name: "authcore_login_latency_seconds", Help: "Credential check latency."},
}

// HistogramBounds are the upper bounds, in seconds, of the engine buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

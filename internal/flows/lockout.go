package flows

// AttemptState is the lockout-relevant part of an account.
type AttemptState struct {
	Locked         bool
	FailedAttempts int
}

// AttemptOutcome is the result of applying one password check.
type AttemptOutcome uint8

const (
	// AttemptAccepted means the password matched; the counter is cleared.
	AttemptAccepted AttemptOutcome = iota
	// AttemptRejected means the password did not match.
	AttemptRejected
	// AttemptLocked means the password did not match and this failure
	// reached the threshold.
	AttemptLocked
)

// ApplyAttempt returns the state after one password check on an unlocked
// account. The counter never exceeds maxFailed; the failure that reaches it
// locks the account. maxFailed below 1 is treated as 1.
func ApplyAttempt(state AttemptState, matched bool, maxFailed int) (AttemptState, AttemptOutcome) {
	if maxFailed < 1 {
		maxFailed = 1
	}
	if matched {
		state.FailedAttempts = 0
		return state, AttemptAccepted
	}

	state.FailedAttempts++
	if state.FailedAttempts >= maxFailed {
		state.FailedAttempts = maxFailed
		state.Locked = true
		return state, AttemptLocked
	}
	return state, AttemptRejected
}

package flows

import "testing"

func TestApplyAttemptLocksOnThreshold(t *testing.T) {
	state := AttemptState{}
	for i := 1; i < 5; i++ {
		var outcome AttemptOutcome
		state, outcome = ApplyAttempt(state, false, 5)
		if outcome != AttemptRejected {
			t.Fatalf("attempt %d: expected rejected, got %d", i, outcome)
		}
		if state.Locked {
			t.Fatalf("attempt %d: locked too early", i)
		}
		if state.FailedAttempts != i {
			t.Fatalf("attempt %d: expected counter %d, got %d", i, i, state.FailedAttempts)
		}
	}

	state, outcome := ApplyAttempt(state, false, 5)
	if outcome != AttemptLocked || !state.Locked {
		t.Fatalf("expected lock on 5th failure, got outcome=%d state=%+v", outcome, state)
	}
	if state.FailedAttempts != 5 {
		t.Fatalf("expected counter capped at 5, got %d", state.FailedAttempts)
	}
}

func TestApplyAttemptSuccessResetsCounter(t *testing.T) {
	state, outcome := ApplyAttempt(AttemptState{FailedAttempts: 3}, true, 5)
	if outcome != AttemptAccepted {
		t.Fatalf("expected accepted, got %d", outcome)
	}
	if state.FailedAttempts != 0 || state.Locked {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestApplyAttemptThresholdOne(t *testing.T) {
	for _, max := range []int{1, 0, -3} {
		state, outcome := ApplyAttempt(AttemptState{}, false, max)
		if outcome != AttemptLocked || !state.Locked || state.FailedAttempts != 1 {
			t.Fatalf("max=%d: unexpected result %+v %d", max, state, outcome)
		}
	}
}

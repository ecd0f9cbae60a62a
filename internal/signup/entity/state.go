package entity

import "errors"

// State is the position of a signup attempt in the verification flow.
type State string

const (
	StateUnverified        State = "unverified"
	StateOTPIssued         State = "otp_issued"
	StateVerified          State = "verified"
	StateExpired           State = "expired"
	StateMismatched        State = "mismatched"
	StateSessionLost       State = "session_lost"
	StateDuplicateIdentity State = "duplicate_identity"
)

func (s State) String() string {
	return string(s)
}

// Terminal reports whether the attempt is over and its artifacts are gone.
func (s State) Terminal() bool {
	switch s {
	case StateVerified, StateExpired, StateSessionLost, StateDuplicateIdentity:
		return true
	default:
		return false
	}
}

// Outcome is what the client should do next.
type Outcome string

const (
	OutcomeNone            Outcome = ""
	OutcomeRedirect        Outcome = "redirect"
	OutcomeRestartRequired Outcome = "restart_required"
	OutcomeRetryAllowed    Outcome = "retry_allowed"
)

func (o Outcome) String() string {
	return string(o)
}

// StateOf classifies a verification error. A nil error is StateVerified.
func StateOf(err error) State {
	switch {
	case err == nil:
		return StateVerified
	case errors.Is(err, ErrSessionLost):
		return StateSessionLost
	case errors.Is(err, ErrDuplicateIdentity):
		return StateDuplicateIdentity
	case errors.Is(err, ErrOTPMismatched):
		return StateMismatched
	case errors.Is(err, ErrOTPExpired), errors.Is(err, ErrTooManyAttempts):
		return StateExpired
	default:
		return StateUnverified
	}
}

// OutcomeOf maps a state to the client action.
func OutcomeOf(s State) Outcome {
	switch s {
	case StateVerified:
		return OutcomeRedirect
	case StateMismatched:
		return OutcomeRetryAllowed
	case StateExpired, StateSessionLost, StateDuplicateIdentity:
		return OutcomeRestartRequired
	default:
		return OutcomeNone
	}
}
